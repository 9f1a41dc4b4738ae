// Package store provides bequest assignment persistence.
package store

import (
	"context"
	"sync"

	"urithi/internal/bequest/models"
	id "urithi/pkg/domain"
	"urithi/pkg/platform/sentinel"
)

// InMemory holds bequest assignments behind a mutex.
type InMemory struct {
	mu       sync.RWMutex
	bequests map[id.BequestID]*models.BequestAssignment
}

// NewInMemory creates an empty in-memory bequest store.
func NewInMemory() *InMemory {
	return &InMemory{bequests: make(map[id.BequestID]*models.BequestAssignment)}
}

// Create stores a new assignment. Returns ErrConflict if the ID is taken.
func (s *InMemory) Create(_ context.Context, bequest *models.BequestAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bequests[bequest.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *bequest
	s.bequests[bequest.ID] = &cp
	return nil
}

// FindByID returns a copy of the assignment or ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, bequestID id.BequestID) (*models.BequestAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bequest, ok := s.bequests[bequestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *bequest
	return &cp, nil
}

// ListByEstate returns copies of all assignments belonging to one estate.
// The detector reads this snapshot, so copies keep it free of write races.
func (s *InMemory) ListByEstate(_ context.Context, estateID id.EstateID) ([]*models.BequestAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.BequestAssignment
	for _, bequest := range s.bequests {
		if bequest.EstateID == estateID {
			cp := *bequest
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Execute runs validate then mutate against the stored assignment under the
// store lock. The assignment is unchanged when validate fails.
func (s *InMemory) Execute(_ context.Context, bequestID id.BequestID,
	validate func(*models.BequestAssignment) error,
	mutate func(*models.BequestAssignment)) (*models.BequestAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bequest, ok := s.bequests[bequestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(bequest); err != nil {
		return nil, err
	}
	mutate(bequest)
	cp := *bequest
	return &cp, nil
}
