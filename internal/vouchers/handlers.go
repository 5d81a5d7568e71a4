// Package vouchers exposes the HTTP surface for NFT voucher discovery and
// discount submission.
package vouchers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/ZeMiguelGomes/voucherd/internal/alchemy"
	"github.com/ZeMiguelGomes/voucherd/internal/billing"
	"github.com/ZeMiguelGomes/voucherd/internal/common"
	"github.com/ZeMiguelGomes/voucherd/internal/currency"
	"github.com/ZeMiguelGomes/voucherd/internal/discount"
	"github.com/ZeMiguelGomes/voucherd/internal/obs"
	"github.com/ZeMiguelGomes/voucherd/internal/rates"
	"github.com/ZeMiguelGomes/voucherd/internal/shopify"
)

// Handler serves the voucher endpoints.
type Handler struct {
	Provider *alchemy.Provider
	Invoices billing.InvoiceStore
	Stores   billing.StoreStore
	Table    *currency.Table
	Rates    discount.Converter
	Validate *validator.Validate
	Logger   zerolog.Logger

	// OrderPrefix marks invoice order IDs that live in the remote
	// storefront. Empty falls back to shopify.OrderPrefix.
	OrderPrefix string
}

func (h *Handler) orderPrefix() string {
	if h.OrderPrefix != "" {
		return h.OrderPrefix
	}
	return shopify.OrderPrefix
}

type submitPayload struct {
	ChainID         json.Number `json:"chainID" validate:"required"`
	VoucherID       string      `json:"voucherID" validate:"required"`
	InvoiceID       string      `json:"invoiceID" validate:"required"`
	PaymentID       string      `json:"paymentID" validate:"required"`
	VoucherContract string      `json:"voucherContract"`
}

type submitResponse struct {
	Applied  bool   `json:"applied"`
	Kind     string `json:"kind"`
	Amount   string `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// ListNFTs returns the wallet's vouchers from the main collection, optionally
// narrowed to one store.
func (h *Handler) ListNFTs(w http.ResponseWriter, r *http.Request) {
	owner := strings.TrimSpace(r.URL.Query().Get("userAddress"))
	chainID := strings.TrimSpace(r.URL.Query().Get("chainID"))
	if owner == "" || chainID == "" {
		common.JSONError(w, http.StatusUnprocessableEntity, "BAD_REQUEST", "userAddress and chainID are required", nil)
		return
	}

	owned, err := h.Provider.OwnedNFTs(r.Context(), owner, chainID)
	if err != nil {
		h.gatewayError(w, err, "list owned nfts")
		return
	}
	contract := h.Provider.Contract()
	if storeID := strings.TrimSpace(r.URL.Query().Get("storeId")); storeID != "" {
		common.JSON(w, http.StatusOK, map[string]any{"ownedNfts": alchemy.FilterCollection(owned, contract, storeID)})
		return
	}
	filtered := make([]alchemy.NFT, 0, len(owned))
	for _, nft := range owned {
		if strings.EqualFold(nft.Contract.Address, contract) {
			filtered = append(filtered, nft)
		}
	}
	common.JSON(w, http.StatusOK, map[string]any{"ownedNfts": filtered})
}

// Checkout returns the vouchers usable against the cart presented by the
// storefront checkout page.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	owner := strings.TrimSpace(q.Get("userAddress"))
	chainID := strings.TrimSpace(q.Get("chainID"))
	storeID := strings.TrimSpace(q.Get("storeId"))
	if owner == "" || chainID == "" || storeID == "" {
		common.JSONError(w, http.StatusUnprocessableEntity, "BAD_REQUEST", "userAddress, chainID and storeId are required", nil)
		return
	}

	store, err := h.Stores.GetStore(r.Context(), storeID)
	if err != nil {
		if errors.Is(err, billing.ErrStoreNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "store not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load store", nil)
		return
	}

	var cartLines []billing.LineItem
	if raw := strings.TrimSpace(q.Get("lineItems")); raw != "" {
		var items []billing.MetadataLineItem
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			common.JSONError(w, http.StatusUnprocessableEntity, "BAD_REQUEST", "lineItems is not valid json", nil)
			return
		}
		cartLines = billing.InvoiceMetadata{LineItems: items}.CartLines()
	}

	nfts, err := h.Provider.CheckoutVouchers(r.Context(), owner, chainID, store, strings.TrimSpace(q.Get("websiteUrl")), cartLines)
	if err != nil {
		h.gatewayError(w, err, "list checkout vouchers")
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"ownedNfts": nfts})
}

// ABI returns the voucher contract address and ABI for client-side transfers.
func (h *Handler) ABI(w http.ResponseWriter, r *http.Request) {
	common.JSON(w, http.StatusOK, map[string]any{
		"contractAddress": h.Provider.Contract(),
		"ABI":             alchemy.ABI(),
	})
}

// Submit resolves the discount a voucher grants against an invoice and
// payment method.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
	}

	inv, err := h.Invoices.GetInvoice(r.Context(), payload.InvoiceID)
	if err != nil {
		if errors.Is(err, billing.ErrInvoiceNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "invoice "+payload.InvoiceID+" does not exist", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load invoice", nil)
		return
	}

	resolver := &discount.Resolver{
		Symbols:  h.Table,
		Quantize: h.Table,
		Rates:    h.Rates,
		Logger:   h.Logger,
	}

	start := time.Now()
	var outcome discount.Outcome
	contract := strings.TrimSpace(payload.VoucherContract)
	if contract != "" && !strings.EqualFold(contract, h.Provider.Contract()) {
		if !h.Provider.IsStockContract(contract) {
			common.JSONError(w, http.StatusUnprocessableEntity, "UNKNOWN_CONTRACT", "voucher contract is not recognised", nil)
			return
		}
		outcome, err = resolver.ResolveStock(r.Context(), inv, payload.PaymentID)
	} else {
		nft, nftErr := h.Provider.NFTMetadata(r.Context(), payload.ChainID.String(), payload.VoucherID)
		if nftErr != nil {
			h.gatewayError(w, nftErr, "fetch voucher metadata")
			return
		}
		cart := billing.CartContextFor(inv, h.orderPrefix())
		if cart.RemoteOrderID != "" {
			store, storeErr := h.Stores.GetStore(r.Context(), inv.StoreID)
			if storeErr != nil {
				common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load store", nil)
				return
			}
			client, clientErr := shopify.ForStore(store)
			if clientErr != nil {
				common.JSONError(w, http.StatusUnprocessableEntity, "SHOPIFY_NOT_CONFIGURED", "store is not connected to shopify", nil)
				return
			}
			resolver.Orders = client
		}
		outcome, err = resolver.Resolve(r.Context(), nft.Metadata.Attributes, inv, payload.PaymentID, cart)
	}

	kind := outcome.Kind.String()
	if err != nil {
		obs.VoucherResolutionTotal.WithLabelValues(kind, "error").Inc()
		h.resolutionError(w, err)
		return
	}
	result := "inapplicable"
	if outcome.Applied {
		result = "applied"
	}
	obs.VoucherResolutionTotal.WithLabelValues(kind, result).Inc()
	obs.VoucherResolutionDuration.WithLabelValues(kind).Observe(obs.DurationMillis(time.Since(start)))

	resp := submitResponse{Applied: outcome.Applied, Kind: kind}
	if outcome.Applied {
		resp.Amount = outcome.Amount.String()
		resp.Currency = outcome.Currency
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": resp})
}

func (h *Handler) resolutionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, discount.ErrUnsupportedFormat):
		common.JSONError(w, http.StatusUnprocessableEntity, "UNSUPPORTED_DISCOUNT", err.Error(), nil)
	case errors.Is(err, discount.ErrNoPaymentMethod):
		common.JSONError(w, http.StatusNotFound, "NO_PAYMENT_METHOD", "no such payment method found", nil)
	case errors.Is(err, rates.ErrConversionUnavailable):
		common.JSONError(w, http.StatusBadGateway, "RATES_UNAVAILABLE", "exchange rate lookup failed", nil)
	default:
		h.Logger.Error().Err(err).Msg("voucher resolution failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "voucher resolution failed", nil)
	}
}

func (h *Handler) gatewayError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, alchemy.ErrUnsupportedChain) {
		common.JSONError(w, http.StatusUnprocessableEntity, "UNSUPPORTED_CHAIN", "chainID is not supported", nil)
		return
	}
	h.Logger.Error().Err(err).Msg(msg)
	common.JSONError(w, http.StatusBadGateway, "GATEWAY", "nft gateway request failed", nil)
}
