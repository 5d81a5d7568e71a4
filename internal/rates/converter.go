// Package rates converts amounts between currencies through an external
// exchange-rate source. There is no caching and no retrying: a source failure
// surfaces immediately and retry policy, if any, belongs to the source.
package rates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrConversionUnavailable is returned when no rate can be obtained for the
// requested pair.
var ErrConversionUnavailable = errors.New("rates: conversion unavailable")

// Source quotes an amount denominated in `to` as its equivalent in `from`.
// The argument order mirrors the billing system's exchange contract: the
// first currency is the one the caller wants the result expressed in.
type Source interface {
	Quote(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error)
}

// Converter wraps a Source with the same-currency short circuit.
type Converter struct {
	Source Source
}

// Convert returns amount (denominated in `to`) expressed in `from`. Equal
// currency codes return the amount unchanged without touching the source.
func (c Converter) Convert(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return amount, nil
	}
	if c.Source == nil {
		return decimal.Decimal{}, fmt.Errorf("%s/%s: %w", to, from, ErrConversionUnavailable)
	}
	out, err := c.Source.Quote(ctx, from, to, amount)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s/%s: %v: %w", to, from, err, ErrConversionUnavailable)
	}
	return out, nil
}
