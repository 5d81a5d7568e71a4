package discount

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// SymbolResolver maps a scanned currency symbol to a currency code.
type SymbolResolver interface {
	SymbolToCurrency(symbol string) (string, bool)
}

// The discount value text is read as a two-token grammar: one numeric token
// and one marker token, scanned independently. The first match of each wins;
// strings carrying several symbols are not validated and resolve to whichever
// marker run appears first.
var (
	numberToken  = regexp.MustCompile(`[-+]?\d*[.,]?\d+`)
	markerToken  = regexp.MustCompile(`[^\d.,+-]+`)
	percentToken = regexp.MustCompile(`\d+(\.\d+)?`)
)

// Amount is a parsed discount value: a magnitude plus either a percent marker
// or a resolved currency code.
type Amount struct {
	Value    decimal.Decimal
	Marker   string
	Currency string
	Percent  bool
}

// ParseAmount extracts the numeric magnitude and the marker from a free-text
// discount value such as "10€", "5,50£" or "25%". Both tokens are mandatory;
// a marker that is neither a percent sign nor a symbol known to the resolver
// fails with ErrUnsupportedFormat.
func ParseAmount(text string, symbols SymbolResolver) (Amount, error) {
	num := numberToken.FindString(text)
	if num == "" {
		return Amount{}, fmt.Errorf("%q has no numeric value: %w", text, ErrUnsupportedFormat)
	}
	marker := strings.TrimSpace(markerToken.FindString(text))
	if marker == "" {
		return Amount{}, fmt.Errorf("%q has no currency or percent marker: %w", text, ErrUnsupportedFormat)
	}
	value, err := decimal.NewFromString(strings.Replace(num, ",", ".", 1))
	if err != nil {
		return Amount{}, fmt.Errorf("%q: %v: %w", text, err, ErrUnsupportedFormat)
	}
	if strings.Contains(marker, "%") {
		return Amount{Value: value, Marker: marker, Percent: true}, nil
	}
	if symbols != nil {
		if code, ok := symbols.SymbolToCurrency(marker); ok {
			return Amount{Value: value, Marker: marker, Currency: code}, nil
		}
	}
	return Amount{}, fmt.Errorf("unknown currency symbol %q: %w", marker, ErrUnsupportedFormat)
}

// ParsePercent reads the first numeric run of text as a percentage. Unlike
// ParseAmount no marker is required; percentage-only traits are minted both
// with and without the trailing percent sign.
func ParsePercent(text string) (decimal.Decimal, error) {
	match := percentToken.FindString(text)
	if match == "" {
		return decimal.Decimal{}, fmt.Errorf("%q has no percentage: %w", text, ErrUnsupportedFormat)
	}
	return decimal.NewFromString(match)
}
