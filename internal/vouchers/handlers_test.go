package vouchers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ZeMiguelGomes/voucherd/internal/alchemy"
	"github.com/ZeMiguelGomes/voucherd/internal/billing"
	"github.com/ZeMiguelGomes/voucherd/internal/currency"
	"github.com/ZeMiguelGomes/voucherd/internal/obs"
	"github.com/ZeMiguelGomes/voucherd/internal/rates"
)

func init() {
	obs.MustRegisterDomainMetrics("voucherd_test", nil)
}

func newHandler(t *testing.T, metadataBody string) *Handler {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(metadataBody))
	}))
	t.Cleanup(srv.Close)

	provider := alchemy.New(alchemy.Config{
		APIKey:          "test-key",
		ContractAddress: "0xVoucher",
		Networks:        map[string]alchemy.Network{"80001": {ChainID: 80001, Host: "polygon-mumbai"}},
		Stock:           alchemy.StockConfig{ContractAddress: "0xStock"},
		BaseURL:         srv.URL,
	}, zerolog.Nop())

	memory := billing.NewMemoryStore()
	memory.PutInvoice(billing.Invoice{
		ID:       "inv-1",
		StoreID:  "store-1",
		Price:    decimal.NewFromInt(100),
		Currency: "EUR",
		Payments: []billing.PaymentOption{
			{ID: "p1", Currency: "EUR", Rate: decimal.NewFromInt(1), Divisibility: 2},
		},
	})
	memory.PutInvoice(billing.Invoice{
		ID:       "inv-stock",
		StoreID:  "store-1",
		Price:    decimal.NewFromInt(40),
		Currency: "EUR",
		Payments: []billing.PaymentOption{
			{ID: "eth", Currency: "ETH", Rate: decimal.NewFromInt(2), Divisibility: 2},
		},
	})
	memory.PutStore(billing.Store{ID: "store-1", Name: "Store 1"})

	return &Handler{
		Provider: provider,
		Invoices: memory,
		Stores:   memory,
		Table:    currency.NewTable(),
		Rates:    rates.Converter{},
		Validate: validator.New(),
		Logger:   zerolog.Nop(),
	}
}

func submit(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vouchers/submit", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Submit(rr, req)
	return rr
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder) submitResponse {
	t.Helper()
	var payload struct {
		Data submitResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload.Data
}

func TestSubmitFixedVoucherApplied(t *testing.T) {
	h := newHandler(t, `{"contract":{"address":"0xVoucher"},"id":{"tokenId":"0x1"},
		"metadata":{"attributes":[
			{"trait_type":"Discount Type","value":"Fixed"},
			{"trait_type":"Discount Value","value":"10€"}]}}`)

	rr := submit(t, h, `{"chainID":80001,"voucherID":"1","invoiceID":"inv-1","paymentID":"p1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	data := decodeData(t, rr)
	if !data.Applied || data.Amount != "10" || data.Currency != "EUR" {
		t.Fatalf("unexpected outcome %+v", data)
	}
}

func TestSubmitStockVoucherHalvesInvoice(t *testing.T) {
	h := newHandler(t, `{}`)

	rr := submit(t, h, `{"chainID":80001,"voucherID":"0xdead","invoiceID":"inv-stock","paymentID":"eth","voucherContract":"0xStock"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	data := decodeData(t, rr)
	if !data.Applied || data.Amount != "10" || data.Currency != "ETH" {
		t.Fatalf("unexpected outcome %+v", data)
	}
}

func TestSubmitUnknownContract(t *testing.T) {
	h := newHandler(t, `{}`)
	rr := submit(t, h, `{"chainID":80001,"voucherID":"1","invoiceID":"inv-1","paymentID":"p1","voucherContract":"0xElse"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
}

func TestSubmitMissingInvoice(t *testing.T) {
	h := newHandler(t, `{}`)
	rr := submit(t, h, `{"chainID":80001,"voucherID":"1","invoiceID":"nope","paymentID":"p1"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestSubmitUnsupportedValue(t *testing.T) {
	h := newHandler(t, `{"metadata":{"attributes":[
		{"trait_type":"Discount Type","value":"Fixed"},
		{"trait_type":"Discount Value","value":"abc"}]}}`)

	rr := submit(t, h, `{"chainID":80001,"voucherID":"1","invoiceID":"inv-1","paymentID":"p1"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestSubmitUnknownPaymentMethod(t *testing.T) {
	h := newHandler(t, `{"metadata":{"attributes":[
		{"trait_type":"Discount Type","value":"Absolute"},
		{"trait_type":"Discount Value","value":"20%"}]}}`)

	rr := submit(t, h, `{"chainID":80001,"voucherID":"1","invoiceID":"inv-1","paymentID":"doge"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestSubmitInapplicableVoucher(t *testing.T) {
	h := newHandler(t, `{"metadata":{"attributes":[
		{"trait_type":"Discount Type","value":"Fixed"}]}}`)

	rr := submit(t, h, `{"chainID":80001,"voucherID":"1","invoiceID":"inv-1","paymentID":"p1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	data := decodeData(t, rr)
	if data.Applied {
		t.Fatalf("expected voucher to be inapplicable, got %+v", data)
	}
}

func TestSubmitHonoursConfiguredOrderPrefix(t *testing.T) {
	h := newHandler(t, `{"metadata":{"attributes":[
		{"trait_type":"Discount Type","value":"Fixed"},
		{"trait_type":"Discount Value","value":"10€"}]}}`)
	h.Invoices.(*billing.MemoryStore).PutInvoice(billing.Invoice{
		ID:       "inv-remote",
		StoreID:  "store-1",
		OrderID:  "ord:77",
		Price:    decimal.NewFromInt(100),
		Currency: "EUR",
		Payments: []billing.PaymentOption{
			{ID: "p1", Currency: "EUR", Rate: decimal.NewFromInt(1), Divisibility: 2},
		},
	})

	// With the default prefix "ord:77" is a local order and the voucher
	// resolves against the embedded cart.
	rr := submit(t, h, `{"chainID":80001,"voucherID":"1","invoiceID":"inv-remote","paymentID":"p1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	// With a matching prefix the order is remote, and store-1 carries no
	// storefront credentials.
	h.OrderPrefix = "ord:"
	rr = submit(t, h, `{"chainID":80001,"voucherID":"1","invoiceID":"inv-remote","paymentID":"p1"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "SHOPIFY_NOT_CONFIGURED") {
		t.Fatalf("unexpected error body %s", rr.Body.String())
	}
}

func TestSubmitRejectsBadPayload(t *testing.T) {
	h := newHandler(t, `{}`)
	rr := submit(t, h, `{"chainID":80001}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestABIEndpoint(t *testing.T) {
	h := newHandler(t, `{}`)
	rr := httptest.NewRecorder()
	h.ABI(rr, httptest.NewRequest(http.MethodGet, "/api/v1/vouchers/nft/abi", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload struct {
		ContractAddress string          `json:"contractAddress"`
		ABI             json.RawMessage `json:"ABI"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.ContractAddress != "0xVoucher" {
		t.Fatalf("unexpected contract %q", payload.ContractAddress)
	}
	if len(payload.ABI) == 0 {
		t.Fatal("expected ABI payload")
	}
}

func TestListNFTsRequiresParams(t *testing.T) {
	h := newHandler(t, `{"ownedNfts":[]}`)
	rr := httptest.NewRecorder()
	h.ListNFTs(rr, httptest.NewRequest(http.MethodGet, "/api/v1/vouchers/nft", nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
}
