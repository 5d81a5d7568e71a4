// Package discount implements the voucher discount resolution engine: it
// classifies a voucher's metadata, computes the discount it grants against an
// invoice, converts the result into the invoice currency and quantizes it to
// the chosen payment option's precision.
package discount

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ZeMiguelGomes/voucherd/internal/billing"
	"github.com/ZeMiguelGomes/voucherd/internal/nftmeta"
)

// Converter converts an amount denominated in `to` into `from`. Satisfied by
// rates.Converter.
type Converter interface {
	Convert(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error)
}

// OrderSource fetches the line items of a remote storefront order.
type OrderSource interface {
	LineItems(ctx context.Context, orderID string) ([]billing.LineItem, error)
}

// Outcome is the terminal result of one resolution. Applied=false means the
// voucher simply does not apply here; it is not an error.
type Outcome struct {
	Applied  bool
	Kind     Kind
	Amount   decimal.Decimal
	Currency string
}

// stockPercent is the flat percentage granted by stock inventory vouchers.
var stockPercent = decimal.NewFromInt(50)

// Resolver drives a voucher's metadata and an invoice to a settled discount.
// It holds no per-call state and is safe for unlimited concurrent use.
type Resolver struct {
	Symbols  SymbolResolver
	Quantize Quantizer
	Rates    Converter
	Orders   OrderSource
	Logger   zerolog.Logger
}

// Resolve classifies the voucher and computes the discount for the invoice,
// settled into the payment option identified by paymentID. The cart context
// supplies the line items for product-scoped vouchers.
func (r *Resolver) Resolve(ctx context.Context, attrs nftmeta.Attributes, inv billing.Invoice, paymentID string, cart billing.CartContext) (Outcome, error) {
	if r == nil || r.Symbols == nil || r.Quantize == nil {
		return Outcome{}, errors.New("discount: resolver not configured")
	}
	kind, ok := Classify(attrs)
	if !ok {
		return Outcome{Kind: KindUnknown}, nil
	}

	var (
		amount  decimal.Decimal
		applies bool
		err     error
	)
	switch kind {
	case KindFixed:
		amount, applies, err = r.fixed(ctx, attrs, inv)
	case KindAbsolute:
		amount, applies, err = r.absolute(attrs, inv)
	case KindProductBased:
		amount, applies, err = r.productBased(ctx, attrs, inv, cart)
	default:
		return Outcome{Kind: kind}, nil
	}
	if err != nil {
		return Outcome{Kind: kind}, err
	}
	if !applies {
		return Outcome{Kind: kind}, nil
	}
	return r.settle(kind, inv, paymentID, amount)
}

// ResolveStock handles vouchers minted outside the standard collection: a
// flat 50% of the invoice price, settled like any other percentage discount.
func (r *Resolver) ResolveStock(_ context.Context, inv billing.Invoice, paymentID string) (Outcome, error) {
	if r == nil || r.Quantize == nil {
		return Outcome{}, errors.New("discount: resolver not configured")
	}
	amount := stockPercent.Mul(inv.Price).Div(oneHundred)
	return r.settle(KindAbsolute, inv, paymentID, amount)
}

// fixed reads the Discount Value trait as a flat currency amount and converts
// it into the invoice currency when the voucher was minted in another one.
func (r *Resolver) fixed(ctx context.Context, attrs nftmeta.Attributes, inv billing.Invoice) (decimal.Decimal, bool, error) {
	raw, ok := attrs.First(nftmeta.TraitDiscountValue)
	if !ok {
		return decimal.Decimal{}, false, nil
	}
	amount, err := ParseAmount(raw, r.Symbols)
	if err != nil {
		return decimal.Decimal{}, false, err
	}
	if amount.Percent {
		return decimal.Decimal{}, false, fmt.Errorf("fixed voucher with percent value %q: %w", raw, ErrUnsupportedFormat)
	}
	if amount.Currency == inv.Currency {
		return amount.Value, true, nil
	}
	if r.Rates == nil {
		return decimal.Decimal{}, false, errors.New("discount: rate converter not configured")
	}
	converted, err := r.Rates.Convert(ctx, inv.Currency, amount.Currency, amount.Value)
	if err != nil {
		return decimal.Decimal{}, false, err
	}
	r.Logger.Debug().
		Str("voucher_value", raw).
		Str("invoice_currency", inv.Currency).
		Str("converted", converted.String()).
		Msg("converted fixed voucher value")
	return converted, true, nil
}

// absolute reads the Discount Value trait as a percentage of the invoice
// price.
func (r *Resolver) absolute(attrs nftmeta.Attributes, inv billing.Invoice) (decimal.Decimal, bool, error) {
	raw, ok := attrs.First(nftmeta.TraitDiscountValue)
	if !ok {
		return decimal.Decimal{}, false, nil
	}
	percent, err := ParsePercent(raw)
	if err != nil {
		return decimal.Decimal{}, false, err
	}
	return percent.Mul(inv.Price).Div(oneHundred), true, nil
}

// productBased matches the voucher's product IDs against the cart's line
// items, pulling them from the remote order source when the invoice
// originated from an external storefront.
func (r *Resolver) productBased(ctx context.Context, attrs nftmeta.Attributes, inv billing.Invoice, cart billing.CartContext) (decimal.Decimal, bool, error) {
	raw, ok := attrs.First(nftmeta.TraitDiscountValue)
	if !ok {
		return decimal.Decimal{}, false, nil
	}
	productIDs, ok := attrs.Get(nftmeta.TraitProductID)
	if !ok || len(productIDs) == 0 {
		return decimal.Decimal{}, false, nil
	}

	lines := cart.Lines
	if cart.RemoteOrderID != "" {
		if r.Orders == nil {
			return decimal.Decimal{}, false, errors.New("discount: order source not configured")
		}
		var err error
		lines, err = r.Orders.LineItems(ctx, cart.RemoteOrderID)
		if err != nil {
			if errors.Is(err, billing.ErrOrderNotFound) {
				return decimal.Decimal{}, false, nil
			}
			return decimal.Decimal{}, false, err
		}
	}
	if len(lines) == 0 {
		return decimal.Decimal{}, false, nil
	}

	matcher := Matcher{Symbols: r.Symbols, Rates: r.Rates}
	return matcher.Apply(ctx, ProductSpec{ValueText: raw, ProductIDs: productIDs}, lines, inv.Currency)
}

// settle locates the payment option and quantizes the invoice-currency amount
// into its units.
func (r *Resolver) settle(kind Kind, inv billing.Invoice, paymentID string, amount decimal.Decimal) (Outcome, error) {
	payment, err := FindPayment(inv, paymentID)
	if err != nil {
		return Outcome{Kind: kind}, err
	}
	normalized, err := Normalize(r.Quantize, payment, amount)
	if err != nil {
		return Outcome{Kind: kind}, err
	}
	return Outcome{Applied: true, Kind: kind, Amount: normalized, Currency: payment.Currency}, nil
}
