package checkout

import (
	"sync"
	"time"

	"medstore/internal/ident"
	"medstore/internal/logging"
	"medstore/internal/store"
)

// LastOrder is the most recent successful checkout.
type LastOrder struct {
	OrderID     ident.ID  `json:"order_id"`
	WhatsAppURL string    `json:"whatsapp_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// LastOrderStore persists the LastOrder record. It is overwritten, never
// merged.
type LastOrderStore struct {
	mu      sync.RWMutex
	storage store.Storage
	current *LastOrder
}

// NewLastOrderStore loads the record from storage. Missing, malformed or
// id-less records load as "no last order".
func NewLastOrderStore(storage store.Storage) *LastOrderStore {
	lo := store.DecodeOr[*LastOrder](storage, store.LastOrderKey, nil)
	if lo != nil && lo.OrderID.IsZero() {
		lo = nil
	}
	return &LastOrderStore{storage: storage, current: lo}
}

// Get returns the last order, if any.
func (s *LastOrderStore) Get() (LastOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return LastOrder{}, false
	}
	return *s.current, true
}

// Set overwrites the last order. On a storage failure the record is still
// kept in memory and the error is returned.
func (s *LastOrderStore) Set(lo LastOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &lo
	if err := store.Encode(s.storage, store.LastOrderKey, lo); err != nil {
		logging.CheckoutError("persisting last order %s failed: %v", lo.OrderID, err)
		return err
	}
	return nil
}

// Clear forgets the last order.
func (s *LastOrderStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	return store.Encode(s.storage, store.LastOrderKey, nil)
}
