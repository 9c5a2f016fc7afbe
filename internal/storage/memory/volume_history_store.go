package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/domain"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/storage"
)

// VolumeHistoryStore is an in-memory implementation of
// storage.VolumeHistoryStore.
type VolumeHistoryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.VolumeHistoryPoint // keyed by (alphaId, openTime)
}

// NewVolumeHistoryStore creates an empty in-memory volume history store.
func NewVolumeHistoryStore() *VolumeHistoryStore {
	return &VolumeHistoryStore{
		data: make(map[string]*domain.VolumeHistoryPoint),
	}
}

var _ storage.VolumeHistoryStore = (*VolumeHistoryStore)(nil)

func historyKey(alphaID string, openTime int64) string {
	return fmt.Sprintf("%s|%d", alphaID, openTime)
}

// InsertBulk stores points, replacing existing (alphaId, openTime)
// pairs.
func (s *VolumeHistoryStore) InsertBulk(_ context.Context, points []*domain.VolumeHistoryPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		if p == nil || p.AlphaID == "" {
			return storage.ErrInvalidInput
		}
		copy := *p
		s.data[historyKey(p.AlphaID, p.OpenTime)] = &copy
	}
	return nil
}

// GetByTokenRange retrieves points for a token within [start, end]
// (inclusive), ordered by openTime ASC.
func (s *VolumeHistoryStore) GetByTokenRange(_ context.Context, alphaID string, start, end int64) ([]*domain.VolumeHistoryPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.VolumeHistoryPoint
	for _, p := range s.data {
		if p.AlphaID == alphaID && p.OpenTime >= start && p.OpenTime <= end {
			copy := *p
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].OpenTime < result[j].OpenTime
	})

	return result, nil
}
