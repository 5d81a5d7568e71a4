package discount

import "errors"

var (
	// ErrUnsupportedFormat is returned when a discount value string does not
	// parse into a recognised shape: no numeric run, no marker run, or a
	// marker that is neither a percent sign nor a known currency symbol.
	ErrUnsupportedFormat = errors.New("discount: unsupported discount value format")
	// ErrNoPaymentMethod is returned when the requested payment option id is
	// not on the invoice. The invoice state is inconsistent with the request,
	// so this is a hard error rather than an inapplicable voucher.
	ErrNoPaymentMethod = errors.New("discount: no such payment method on invoice")
)
