// Package nftmeta models the attribute list carried in NFT voucher metadata
// and provides the first-occurrence trait lookup the discount engine works
// from.
package nftmeta

import (
	"encoding/json"
	"strconv"
)

// Trait names the voucher collection encodes its discount rules under.
const (
	TraitDiscountType  = "Discount Type"
	TraitDiscountValue = "Discount Value"
	TraitStore         = "Store"
	TraitProductID     = "Product ID"
)

// Value is a trait value. On the wire it is either a bare string or a list of
// strings (product-based vouchers store their product IDs as a list, and some
// minters emit numbers); it normalises everything to strings.
type Value []string

// UnmarshalJSON accepts a string, a number, or a (possibly mixed) list.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = appendScalar(nil, raw)
	return nil
}

func appendScalar(out []string, raw any) []string {
	switch t := raw.(type) {
	case string:
		return append(out, t)
	case float64:
		return append(out, strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		return append(out, strconv.FormatBool(t))
	case []any:
		for _, el := range t {
			out = appendScalar(out, el)
		}
		return out
	case nil:
		return out
	default:
		b, _ := json.Marshal(t)
		return append(out, string(b))
	}
}

// MarshalJSON writes single values back as bare strings so documents round
// trip in the shape clients uploaded them.
func (v Value) MarshalJSON() ([]byte, error) {
	if len(v) == 1 {
		return json.Marshal(v[0])
	}
	return json.Marshal([]string(v))
}

// First returns the leading scalar, or "" when empty.
func (v Value) First() string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// Contains reports membership of s in the value list.
func (v Value) Contains(s string) bool {
	for _, el := range v {
		if el == s {
			return true
		}
	}
	return false
}

// Attribute is one (trait_type, value) entry.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     Value  `json:"value"`
}

// Attributes is the ordered attribute list of a voucher document.
type Attributes []Attribute

// Get returns the value of the first attribute with the given trait type.
// Duplicate trait types can occur in minted metadata; only the first entry is
// meaningful.
func (a Attributes) Get(trait string) (Value, bool) {
	for _, attr := range a {
		if attr.TraitType == trait {
			return attr.Value, true
		}
	}
	return nil, false
}

// First is Get reduced to the leading scalar of the matched value.
func (a Attributes) First(trait string) (string, bool) {
	v, ok := a.Get(trait)
	if !ok {
		return "", false
	}
	return v.First(), true
}
