package dashboard

import (
	"sync"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/domain"
)

// Store holds the latest per-token detail, keyed by alpha id. Writes
// replace the whole value; readers get copies, so a snapshot taken
// mid-refresh mixes old and new entries but never torn ones.
type Store struct {
	mu      sync.RWMutex
	details map[string]domain.TokenDetail
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{details: make(map[string]domain.TokenDetail)}
}

// MarkPending seeds entries for tokens not yet loaded. Existing
// entries are left untouched so a refresh never blanks loaded data.
func (s *Store) MarkPending(tokens []domain.TokenDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tokens {
		if _, ok := s.details[t.AlphaID]; ok {
			continue
		}
		s.details[t.AlphaID] = domain.TokenDetail{
			TokenDescriptor: t,
			State:           domain.StatePending,
		}
	}
}

// Put stores a loaded detail, replacing any previous entry.
func (s *Store) Put(d domain.TokenDetail) {
	d.State = domain.StateLoaded
	s.mu.Lock()
	s.details[d.AlphaID] = d
	s.mu.Unlock()
}

// MarkFailed flags a token's latest fetch as failed. Previously loaded
// data is kept; stale numbers beat a hole in the table.
func (s *Store) MarkFailed(alphaID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.details[alphaID]
	if !ok {
		return
	}
	d.State = domain.StateFailed
	s.details[alphaID] = d
}

// Get returns the detail for one token.
func (s *Store) Get(alphaID string) (domain.TokenDetail, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.details[alphaID]
	return d, ok
}

// Snapshot returns the entries with usable market data, following the
// given token order. Tokens without an entry or without a ticker are
// skipped. Iterating the caller's order instead of the map keeps the
// result deterministic.
func (s *Store) Snapshot(order []domain.TokenDescriptor) []domain.TokenDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.TokenDetail, 0, len(order))
	for _, t := range order {
		if d, ok := s.details[t.AlphaID]; ok && d.Ticker != nil {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of tracked tokens.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.details)
}
