// Package store provides estate aggregate persistence. The store enforces
// the exclusive-ownership rule: any membership reference belongs to at most
// one estate across the whole system.
package store

import (
	"context"
	"sync"
	"time"

	"urithi/internal/estate/models"
	id "urithi/pkg/domain"
	"urithi/pkg/platform/sentinel"
)

type memberKey struct {
	kind  models.MemberKind
	refID string
}

// InMemory holds estates and the global membership index behind one mutex.
type InMemory struct {
	mu      sync.RWMutex
	estates map[id.EstateID]*models.Estate
	owners  map[memberKey]id.EstateID
}

// NewInMemory creates an empty in-memory estate store.
func NewInMemory() *InMemory {
	return &InMemory{
		estates: make(map[id.EstateID]*models.Estate),
		owners:  make(map[memberKey]id.EstateID),
	}
}

func copyEstate(e *models.Estate) *models.Estate {
	cp := *e
	cp.Members = append([]models.Member(nil), e.Members...)
	return &cp
}

// Create stores a new estate. Returns ErrConflict if the ID is taken.
func (s *InMemory) Create(_ context.Context, estate *models.Estate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.estates[estate.ID]; exists {
		return sentinel.ErrConflict
	}
	s.estates[estate.ID] = copyEstate(estate)
	return nil
}

// FindByID returns a copy of the estate or ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, estateID id.EstateID) (*models.Estate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	estate, ok := s.estates[estateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyEstate(estate), nil
}

// Execute runs validate then mutate against the stored estate under the
// store lock. Used for lifecycle transitions; membership goes through
// AddMember and RemoveMember so the ownership index stays consistent.
func (s *InMemory) Execute(_ context.Context, estateID id.EstateID,
	validate func(*models.Estate) error,
	mutate func(*models.Estate)) (*models.Estate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	estate, ok := s.estates[estateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(estate); err != nil {
		return nil, err
	}
	mutate(estate)
	return copyEstate(estate), nil
}

// AddMember atomically claims the reference for the estate and appends it.
// Returns ErrAlreadyOwned when another estate holds the reference.
func (s *InMemory) AddMember(_ context.Context, estateID id.EstateID, member models.Member, actor string, now time.Time) (*models.Estate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	estate, ok := s.estates[estateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	key := memberKey{kind: member.Kind, refID: member.RefID}
	if owner, claimed := s.owners[key]; claimed && owner != estateID {
		return nil, sentinel.ErrAlreadyOwned
	}
	if err := estate.CanAddMember(member); err != nil {
		return nil, err
	}
	estate.ApplyAddMember(member, actor, now)
	s.owners[key] = estateID
	return copyEstate(estate), nil
}

// RemoveMember drops the reference and releases the ownership claim.
func (s *InMemory) RemoveMember(_ context.Context, estateID id.EstateID, kind models.MemberKind, refID string, actor string, now time.Time) (*models.Estate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	estate, ok := s.estates[estateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := estate.CanRemoveMember(kind, refID); err != nil {
		return nil, err
	}
	estate.ApplyRemoveMember(kind, refID, actor, now)
	delete(s.owners, memberKey{kind: kind, refID: refID})
	return copyEstate(estate), nil
}
