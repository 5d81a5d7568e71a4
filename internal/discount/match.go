package discount

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ZeMiguelGomes/voucherd/internal/billing"
	"github.com/ZeMiguelGomes/voucherd/internal/nftmeta"
)

// MarkerFree is the literal discount value marking matched products as free.
const MarkerFree = "Free"

var oneHundred = decimal.NewFromInt(100)

// ProductSpec is the product-scoped discount derived from voucher metadata:
// the raw value text plus the set of product IDs it covers.
type ProductSpec struct {
	ValueText  string
	ProductIDs nftmeta.Value
}

// Matcher accumulates a discount over the cart lines a product-scoped voucher
// covers. It is agnostic to where the lines came from; both the embedded
// invoice metadata and remote storefront orders are adapted to
// billing.LineItem before they reach it.
type Matcher struct {
	Symbols SymbolResolver
	Rates   Converter
}

// Apply computes the discount in invoice currency for the matched lines.
// It returns matched=false when no line falls under the voucher, which makes
// the voucher inapplicable rather than erroneous. The three value policies:
//
//   - "Free": the full line value, price times quantity, per matched line.
//   - percentage: percent of the unit price per matched line. Quantity is
//     deliberately not applied, and the price is quantized to cents before
//     the percentage is taken, for local and remote lines alike.
//   - currency amount: the (converted) fixed amount once per matched line.
func (m Matcher) Apply(ctx context.Context, spec ProductSpec, lines []billing.LineItem, invoiceCurrency string) (decimal.Decimal, bool, error) {
	matched := make([]billing.LineItem, 0, len(lines))
	for _, line := range lines {
		if spec.ProductIDs.Contains(line.ProductID) {
			matched = append(matched, line)
		}
	}
	if len(matched) == 0 {
		return decimal.Decimal{}, false, nil
	}

	if spec.ValueText == MarkerFree {
		total := decimal.Decimal{}
		for _, line := range matched {
			total = total.Add(line.Price.Mul(decimal.NewFromInt(line.Quantity)))
		}
		return total, true, nil
	}

	amount, err := ParseAmount(spec.ValueText, m.Symbols)
	if err != nil {
		return decimal.Decimal{}, false, err
	}

	if amount.Percent {
		total := decimal.Decimal{}
		for _, line := range matched {
			total = total.Add(amount.Value.Mul(line.Price.RoundBank(2)).Div(oneHundred))
		}
		return total, true, nil
	}

	perItem := amount.Value
	if amount.Currency != invoiceCurrency {
		if m.Rates == nil {
			return decimal.Decimal{}, false, fmt.Errorf("discount: rate converter not configured")
		}
		perItem, err = m.Rates.Convert(ctx, invoiceCurrency, amount.Currency, amount.Value)
		if err != nil {
			return decimal.Decimal{}, false, err
		}
	}
	total := decimal.Decimal{}
	for range matched {
		total = total.Add(perItem)
	}
	return total, true, nil
}
