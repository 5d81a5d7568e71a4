package billing

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ZeMiguelGomes/voucherd/internal/common"
)

// SyncHandler accepts invoice and store snapshots pushed by the billing
// system so the voucher service can resolve discounts without reaching back
// into its database.
type SyncHandler struct {
	Store *MemoryStore
}

// PutInvoice upserts one invoice snapshot.
func (h *SyncHandler) PutInvoice(w http.ResponseWriter, r *http.Request) {
	var inv Invoice
	if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(inv.ID) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invoice id is required", nil)
		return
	}
	h.Store.PutInvoice(inv)
	w.WriteHeader(http.StatusNoContent)
}

// PutStore upserts one store snapshot.
func (h *SyncHandler) PutStore(w http.ResponseWriter, r *http.Request) {
	var s Store
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(s.ID) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "store id is required", nil)
		return
	}
	h.Store.PutStore(s)
	w.WriteHeader(http.StatusNoContent)
}
