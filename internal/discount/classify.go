package discount

import "github.com/ZeMiguelGomes/voucherd/internal/nftmeta"

// Kind is the discount family a voucher belongs to.
type Kind int

const (
	// KindUnknown means the voucher carries no recognised discount type.
	KindUnknown Kind = iota
	// KindFixed takes a flat currency amount off the whole order.
	KindFixed
	// KindAbsolute takes a percentage off the whole order.
	KindAbsolute
	// KindProductBased scopes the discount to specific product IDs.
	KindProductBased
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindAbsolute:
		return "absolute"
	case KindProductBased:
		return "product_based"
	default:
		return "unknown"
	}
}

// The classifier matches the Discount Type trait literally; anything outside
// this vocabulary leaves the voucher unclassified.
var kindVocabulary = map[string]Kind{
	"Fixed":         KindFixed,
	"Absolute":      KindAbsolute,
	"Product-based": KindProductBased,
}

// Classify reads the Discount Type trait and maps it onto a Kind. A missing
// trait or an unknown literal yields (KindUnknown, false): the voucher is
// inapplicable, not malformed.
func Classify(attrs nftmeta.Attributes) (Kind, bool) {
	raw, ok := attrs.First(nftmeta.TraitDiscountType)
	if !ok {
		return KindUnknown, false
	}
	kind, ok := kindVocabulary[raw]
	if !ok {
		return KindUnknown, false
	}
	return kind, true
}
