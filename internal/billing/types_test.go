package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCartLinesNormalisesMetadata(t *testing.T) {
	meta := InvoiceMetadata{LineItems: []MetadataLineItem{
		{ProductID: json.Number("8179844677949"), Price: "3.50", Quantity: 2},
		{ProductID: json.Number("111"), Price: "2.00"},
		{ProductID: json.Number("222"), Price: "oops", Quantity: 3},
	}}

	lines := meta.CartLines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].ProductID != "8179844677949" || lines[0].Quantity != 2 {
		t.Fatalf("unexpected first line %+v", lines[0])
	}
	if lines[1].Quantity != 1 {
		t.Fatalf("missing quantity should default to 1, got %d", lines[1].Quantity)
	}
	if !lines[1].Price.Equal(decimal.RequireFromString("2.00")) {
		t.Fatalf("unexpected price %s", lines[1].Price)
	}
}

func TestCartContextFor(t *testing.T) {
	remote := Invoice{OrderID: "shopify-450789469"}
	ctx := CartContextFor(remote, "shopify-")
	if ctx.RemoteOrderID != "450789469" || len(ctx.Lines) != 0 {
		t.Fatalf("unexpected remote context %+v", ctx)
	}

	local := Invoice{
		OrderID: "order-7",
		Metadata: InvoiceMetadata{LineItems: []MetadataLineItem{
			{ProductID: json.Number("1"), Price: "5.00", Quantity: 1},
		}},
	}
	ctx = CartContextFor(local, "shopify-")
	if ctx.RemoteOrderID != "" || len(ctx.Lines) != 1 {
		t.Fatalf("unexpected local context %+v", ctx)
	}
}

func TestMemoryStoreLookups(t *testing.T) {
	m := NewMemoryStore()
	m.PutInvoice(Invoice{ID: "inv-1", Currency: "EUR"})
	m.PutStore(Store{ID: "store-1", Name: "Store 1"})

	inv, err := m.GetInvoice(context.Background(), "inv-1")
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if inv.Currency != "EUR" {
		t.Fatalf("unexpected invoice %+v", inv)
	}

	if _, err := m.GetInvoice(context.Background(), "missing"); !errors.Is(err, ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
	if _, err := m.GetStore(context.Background(), "missing"); !errors.Is(err, ErrStoreNotFound) {
		t.Fatalf("expected ErrStoreNotFound, got %v", err)
	}
}

func TestSyncHandlerPutInvoice(t *testing.T) {
	m := NewMemoryStore()
	h := &SyncHandler{Store: m}

	rr := httptest.NewRecorder()
	h.PutInvoice(rr, httptest.NewRequest(http.MethodPut, "/api/v1/billing/invoices",
		strings.NewReader(`{"id":"inv-9","currency":"EUR","price":"12.50"}`)))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}

	inv, err := m.GetInvoice(context.Background(), "inv-9")
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if !inv.Price.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("unexpected price %s", inv.Price)
	}

	rr = httptest.NewRecorder()
	h.PutInvoice(rr, httptest.NewRequest(http.MethodPut, "/api/v1/billing/invoices", strings.NewReader(`{"currency":"EUR"}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing id, got %d", rr.Code)
	}
}
