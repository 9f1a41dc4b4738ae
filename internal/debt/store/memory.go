// Package store provides debt ledger persistence.
package store

import (
	"context"
	"sync"

	"urithi/internal/debt/models"
	id "urithi/pkg/domain"
	"urithi/pkg/platform/sentinel"
)

// InMemory holds debt ledger entries behind a mutex. Execute holds the lock
// across validation and mutation so payment arithmetic never interleaves.
type InMemory struct {
	mu    sync.RWMutex
	debts map[id.DebtID]*models.DebtLedgerEntry
}

// NewInMemory creates an empty in-memory debt store.
func NewInMemory() *InMemory {
	return &InMemory{debts: make(map[id.DebtID]*models.DebtLedgerEntry)}
}

// Create stores a new entry. Returns ErrConflict if the ID is taken.
func (s *InMemory) Create(_ context.Context, debt *models.DebtLedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.debts[debt.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *debt
	s.debts[debt.ID] = &cp
	return nil
}

// FindByID returns a copy of the entry or ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, debtID id.DebtID) (*models.DebtLedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	debt, ok := s.debts[debtID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *debt
	return &cp, nil
}

// ListByEstate returns copies of all entries belonging to one estate.
func (s *InMemory) ListByEstate(_ context.Context, estateID id.EstateID) ([]*models.DebtLedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.DebtLedgerEntry
	for _, debt := range s.debts {
		if debt.EstateID == estateID {
			cp := *debt
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Execute runs validate then mutate against the stored entry under the
// store lock. The entry is unchanged when validate fails.
func (s *InMemory) Execute(_ context.Context, debtID id.DebtID,
	validate func(*models.DebtLedgerEntry) error,
	mutate func(*models.DebtLedgerEntry)) (*models.DebtLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	debt, ok := s.debts[debtID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(debt); err != nil {
		return nil, err
	}
	mutate(debt)
	cp := *debt
	return &cp, nil
}
