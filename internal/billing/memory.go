package billing

import (
	"context"
	"sync"
)

// MemoryStore is a concurrency-safe in-memory InvoiceStore and StoreStore.
// The service keeps no durable voucher or invoice state of its own; this
// backs local development and tests, while production deployments plug in
// the upstream billing system.
type MemoryStore struct {
	mu       sync.RWMutex
	invoices map[string]Invoice
	stores   map[string]Store
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invoices: make(map[string]Invoice),
		stores:   make(map[string]Store),
	}
}

// PutInvoice upserts an invoice.
func (m *MemoryStore) PutInvoice(inv Invoice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices[inv.ID] = inv
}

// PutStore upserts a store.
func (m *MemoryStore) PutStore(s Store) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores[s.ID] = s
}

// GetInvoice implements InvoiceStore.
func (m *MemoryStore) GetInvoice(_ context.Context, id string) (Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inv, ok := m.invoices[id]
	if !ok {
		return Invoice{}, ErrInvoiceNotFound
	}
	return inv, nil
}

// GetStore implements StoreStore.
func (m *MemoryStore) GetStore(_ context.Context, id string) (Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stores[id]
	if !ok {
		return Store{}, ErrStoreNotFound
	}
	return s, nil
}
