package billing

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvoiceNotFound is returned when the requested invoice does not exist.
	ErrInvoiceNotFound = errors.New("billing: invoice not found")
	// ErrStoreNotFound is returned when the requested store does not exist.
	ErrStoreNotFound = errors.New("billing: store not found")
	// ErrOrderNotFound is returned by order sources when the remote order cannot be located.
	ErrOrderNotFound = errors.New("billing: order not found")
)

// PaymentOption is one settlement method attached to an invoice. Rate quotes
// one payment-currency unit in the invoice currency, so converting an
// invoice-currency amount into payment units divides by it. Divisibility is
// the number of fractional digits the payment currency supports.
type PaymentOption struct {
	ID           string          `json:"id"`
	Currency     string          `json:"currency"`
	Rate         decimal.Decimal `json:"rate"`
	Divisibility int             `json:"divisibility"`
}

// Invoice is the already-fetched invoice being discounted. The resolver never
// loads invoices itself; callers pass the full object in.
type Invoice struct {
	ID       string          `json:"id"`
	StoreID  string          `json:"storeId"`
	OrderID  string          `json:"orderId"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Payments []PaymentOption `json:"payments"`
	Metadata InvoiceMetadata `json:"metadata"`
}

// InvoiceMetadata carries the checkout context embedded on invoices created by
// local storefronts. External storefront invoices leave it empty and are
// resolved through their order ID instead.
type InvoiceMetadata struct {
	LineItems []MetadataLineItem `json:"lineItems,omitempty"`
}

// MetadataLineItem is the raw shape of one embedded cart line. Product IDs
// arrive either as JSON numbers or strings depending on the storefront.
type MetadataLineItem struct {
	ProductID json.Number `json:"product_id"`
	Price     string      `json:"price"`
	Quantity  int64       `json:"quantity,omitempty"`
}

// LineItem is the normalised cart line every item source reduces to before
// product matching.
type LineItem struct {
	ProductID string
	Price     decimal.Decimal
	Quantity  int64
}

// CartLines adapts embedded metadata lines to the normalised shape. Lines with
// unparseable prices are dropped; a missing quantity counts as one unit.
func (m InvoiceMetadata) CartLines() []LineItem {
	if len(m.LineItems) == 0 {
		return nil
	}
	out := make([]LineItem, 0, len(m.LineItems))
	for _, raw := range m.LineItems {
		price, err := decimal.NewFromString(strings.TrimSpace(raw.Price))
		if err != nil {
			continue
		}
		qty := raw.Quantity
		if qty <= 0 {
			qty = 1
		}
		out = append(out, LineItem{ProductID: raw.ProductID.String(), Price: price, Quantity: qty})
	}
	return out
}

// CartContext selects the line-item source for product-scoped vouchers: either
// the invoice's embedded lines or the identifier of a remote storefront order.
type CartContext struct {
	Lines         []LineItem
	RemoteOrderID string
}

// CartContextFor derives the cart context from the invoice origin. Order IDs
// carrying the remote prefix point at an external storefront order; everything
// else uses the invoice's embedded metadata.
func CartContextFor(inv Invoice, remotePrefix string) CartContext {
	if remotePrefix != "" && strings.HasPrefix(inv.OrderID, remotePrefix) {
		return CartContext{RemoteOrderID: strings.TrimPrefix(inv.OrderID, remotePrefix)}
	}
	return CartContext{Lines: inv.Metadata.CartLines()}
}

// ShopifySettings are the per-store credentials for the storefront order API.
type ShopifySettings struct {
	ShopName  string `json:"shopName"`
	APIKey    string `json:"apiKey"`
	APISecret string `json:"apiSecret"`
}

// Store holds the subset of store state the voucher flow needs.
type Store struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	CustomNFT        bool            `json:"customNft"`
	ShopifyStoreName string          `json:"shopifyStoreName"`
	Shopify          ShopifySettings `json:"shopify"`
}

// InvoiceStore is the read-only invoice lookup collaborator.
type InvoiceStore interface {
	GetInvoice(ctx context.Context, id string) (Invoice, error)
}

// StoreStore is the read-only store lookup collaborator.
type StoreStore interface {
	GetStore(ctx context.Context, id string) (Store, error)
}
