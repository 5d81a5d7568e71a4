package discount

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ZeMiguelGomes/voucherd/internal/billing"
)

// Quantizer rounds an amount to a currency's precision. Implemented by the
// currency table.
type Quantizer interface {
	Normalize(currency string, amount decimal.Decimal, divisibility int) decimal.Decimal
}

// FindPayment scans the invoice's payment list for the requested option id.
func FindPayment(inv billing.Invoice, paymentID string) (billing.PaymentOption, error) {
	for _, p := range inv.Payments {
		if p.ID == paymentID {
			return p, nil
		}
	}
	return billing.PaymentOption{}, fmt.Errorf("%q: %w", paymentID, ErrNoPaymentMethod)
}

// Normalize converts a discount expressed in the invoice currency into the
// payment option's units and rounds it to the option's declared precision.
// The payment rate quotes one payment-currency unit in the invoice currency
// (as real payment records do), so the amount divides by it.
func Normalize(q Quantizer, p billing.PaymentOption, amount decimal.Decimal) (decimal.Decimal, error) {
	if p.Rate.IsZero() {
		return decimal.Decimal{}, fmt.Errorf("payment option %q has no rate: %w", p.ID, ErrNoPaymentMethod)
	}
	return q.Normalize(p.Currency, amount.Div(p.Rate), p.Divisibility), nil
}
