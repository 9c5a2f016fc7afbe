// Package memory provides in-memory store implementations used by
// tests and by deployments that run without external databases.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/domain"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/storage"
)

// CompetitionStore is an in-memory implementation of
// storage.CompetitionStore.
type CompetitionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Competition // keyed by alpha id
}

// NewCompetitionStore creates an empty in-memory competition store.
func NewCompetitionStore() *CompetitionStore {
	return &CompetitionStore{
		data: make(map[string]*domain.Competition),
	}
}

var _ storage.CompetitionStore = (*CompetitionStore)(nil)

// List retrieves all stored competitions in unspecified order.
func (s *CompetitionStore) List(_ context.Context) ([]*domain.Competition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Competition, 0, len(s.data))
	for _, c := range s.data {
		copy := *c
		result = append(result, &copy)
	}
	return result, nil
}

// Get retrieves one competition. Returns ErrNotFound if absent.
func (s *CompetitionStore) Get(_ context.Context, alphaID string) (*domain.Competition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[alphaID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *c
	return &copy, nil
}

// Upsert inserts or fully replaces the competition for its alpha id.
func (s *CompetitionStore) Upsert(_ context.Context, c *domain.Competition) error {
	if c == nil || c.AlphaID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *c
	copy.UpdatedAt = time.Now().UTC()
	s.data[c.AlphaID] = &copy
	return nil
}

// UpdateTimes changes only the window of an existing competition.
func (s *CompetitionStore) UpdateTimes(_ context.Context, alphaID string, start, end *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.data[alphaID]
	if !ok {
		return storage.ErrNotFound
	}
	c.StartTime = start
	c.EndTime = end
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes the competition. Returns ErrNotFound if absent.
func (s *CompetitionStore) Delete(_ context.Context, alphaID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[alphaID]; !ok {
		return storage.ErrNotFound
	}
	delete(s.data, alphaID)
	return nil
}
