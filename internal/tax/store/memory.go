// Package store provides compliance gate persistence. Gates are keyed by
// estate: exactly one gate exists per estate.
package store

import (
	"context"
	"sync"

	"urithi/internal/tax/models"
	id "urithi/pkg/domain"
	"urithi/pkg/platform/sentinel"
)

// InMemory holds compliance gates behind a mutex.
type InMemory struct {
	mu    sync.RWMutex
	gates map[id.EstateID]*models.ComplianceGate
}

// NewInMemory creates an empty in-memory gate store.
func NewInMemory() *InMemory {
	return &InMemory{gates: make(map[id.EstateID]*models.ComplianceGate)}
}

// Create stores a new gate. Returns ErrConflict when the estate already has one.
func (s *InMemory) Create(_ context.Context, gate *models.ComplianceGate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.gates[gate.EstateID]; exists {
		return sentinel.ErrConflict
	}
	cp := *gate
	s.gates[gate.EstateID] = &cp
	return nil
}

// FindByEstate returns a copy of the estate's gate or ErrNotFound.
func (s *InMemory) FindByEstate(_ context.Context, estateID id.EstateID) (*models.ComplianceGate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gate, ok := s.gates[estateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *gate
	return &cp, nil
}

// Execute runs validate then mutate against the stored gate under the store
// lock. The gate is unchanged when validate fails.
func (s *InMemory) Execute(_ context.Context, estateID id.EstateID,
	validate func(*models.ComplianceGate) error,
	mutate func(*models.ComplianceGate)) (*models.ComplianceGate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate, ok := s.gates[estateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(gate); err != nil {
		return nil, err
	}
	mutate(gate)
	cp := *gate
	return &cp, nil
}
