// Package store provides gift ledger persistence. The in-memory store is
// the default; swap in a database-backed implementation behind the same
// interface when the hosting application needs durability.
package store

import (
	"context"
	"sync"

	"urithi/internal/gift/models"
	id "urithi/pkg/domain"
	"urithi/pkg/platform/sentinel"
)

// InMemory holds gift ledger entries behind a mutex. Execute holds the lock
// across validation and mutation so transitions are atomic.
type InMemory struct {
	mu    sync.RWMutex
	gifts map[id.GiftID]*models.GiftLedgerEntry
}

// NewInMemory creates an empty in-memory gift store.
func NewInMemory() *InMemory {
	return &InMemory{gifts: make(map[id.GiftID]*models.GiftLedgerEntry)}
}

// Create stores a new entry. Returns ErrConflict if the ID is taken.
func (s *InMemory) Create(_ context.Context, gift *models.GiftLedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.gifts[gift.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *gift
	s.gifts[gift.ID] = &cp
	return nil
}

// FindByID returns a copy of the entry or ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, giftID id.GiftID) (*models.GiftLedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gift, ok := s.gifts[giftID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *gift
	return &cp, nil
}

// ListByEstate returns copies of all entries belonging to one estate.
func (s *InMemory) ListByEstate(_ context.Context, estateID id.EstateID) ([]*models.GiftLedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.GiftLedgerEntry
	for _, gift := range s.gifts {
		if gift.EstateID == estateID {
			cp := *gift
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Execute runs validate then mutate against the stored entry under the
// store lock. The entry is unchanged when validate fails. Returns a copy of
// the mutated entry.
func (s *InMemory) Execute(_ context.Context, giftID id.GiftID,
	validate func(*models.GiftLedgerEntry) error,
	mutate func(*models.GiftLedgerEntry)) (*models.GiftLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gift, ok := s.gifts[giftID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(gift); err != nil {
		return nil, err
	}
	mutate(gift)
	cp := *gift
	return &cp, nil
}
