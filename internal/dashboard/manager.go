// Package dashboard coordinates the token dashboard: it loads the
// catalog, fans out per-token detail fetches with bounded concurrency,
// keeps the latest details in memory and produces the merged, ordered
// list the API serves.
package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/batch"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/config"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/display"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/domain"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/fetcher"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/observability"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/storage"
)

// competitionsTTL bounds how long a cached competition map is served
// before the store is consulted again.
const competitionsTTL = 30 * time.Second

// ErrEmptyCatalog is returned when the initial load gets no tokens.
var ErrEmptyCatalog = errors.New("token catalog is empty")

// errUnavailable marks a detail fetch whose ticker failed.
var errUnavailable = errors.New("ticker unavailable")

// Broadcaster pushes refresh notifications to connected clients.
type Broadcaster interface {
	Broadcast(v any)
}

// RefreshEvent is what connected clients receive after a completed
// refresh cycle. Tokens is the full display list, so clients render
// without a follow-up request.
type RefreshEvent struct {
	Type      string               `json:"type"`
	Tokens    []domain.TokenDetail `json:"tokens"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// Options for creating a Manager.
type Options struct {
	// Required
	Fetcher      *fetcher.Fetcher
	Competitions storage.CompetitionStore

	// Optional
	History     storage.VolumeHistoryStore
	Broadcaster Broadcaster
	Logger      zerolog.Logger
	Now         func() time.Time

	Refresh config.RefreshConfig
}

// Manager owns the dashboard state and its refresh cycles.
type Manager struct {
	fetcher      *fetcher.Fetcher
	competitions storage.CompetitionStore
	history      storage.VolumeHistoryStore
	broadcaster  Broadcaster
	logger       zerolog.Logger
	cfg          config.RefreshConfig
	now          func() time.Time

	store *Store

	mu         sync.RWMutex
	catalog    []domain.TokenDescriptor
	catalogIdx map[string]domain.TokenDescriptor

	// Guard flag: at most one refresh cycle runs at a time, a tick
	// that lands mid-cycle is skipped rather than queued.
	runMu   sync.Mutex
	running bool

	compsMu sync.Mutex
	comps   map[string]domain.Competition
	compsAt time.Time
}

// New creates a Manager.
func New(opts Options) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	cfg := opts.Refresh
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.TopN < 1 {
		cfg.TopN = 20
	}

	return &Manager{
		fetcher:      opts.Fetcher,
		competitions: opts.Competitions,
		history:      opts.History,
		broadcaster:  opts.Broadcaster,
		logger:       opts.Logger.With().Str("component", "dashboard").Logger(),
		cfg:          cfg,
		now:          now,
		store:        NewStore(),
		catalogIdx:   make(map[string]domain.TokenDescriptor),
	}
}

// begin acquires the refresh guard. Returns false when a cycle is
// already running.
func (m *Manager) begin() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.running {
		return false
	}
	m.running = true
	return true
}

func (m *Manager) end() {
	m.runMu.Lock()
	m.running = false
	m.runMu.Unlock()
}

// Loading reports whether a refresh cycle is in flight.
func (m *Manager) Loading() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.running
}

// InitialLoad fetches the catalog and the details of the first screen
// of tokens. Competition tokens are front-loaded into the batch when
// configured, so pinned rows appear on the first render.
func (m *Manager) InitialLoad(ctx context.Context) error {
	if !m.begin() {
		return nil
	}
	defer m.end()

	start := m.now()

	catalog := m.fetcher.Catalog(ctx)
	if len(catalog) == 0 {
		observability.RecordRefreshRun("initial", false, m.now().Sub(start).Seconds())
		return ErrEmptyCatalog
	}
	m.setCatalog(catalog)

	comps := m.competitionsMap(ctx)
	targets := m.initialTargets(catalog, comps)

	m.store.MarkPending(targets)
	details := m.fetchBatch(ctx, targets)
	for _, d := range details {
		m.store.Put(domain.TokenDetail{
			TokenDescriptor: d.Token,
			Ticker:          d.Ticker,
			VolumeStats:     d.VolumeStats,
		})
	}
	m.archive(ctx, details)
	m.notify(ctx)

	observability.SetTokensDisplayed(m.store.Len())
	observability.RecordRefreshRun("initial", true, m.now().Sub(start).Seconds())

	m.logger.Info().
		Int("catalog", len(catalog)).
		Int("fetched", len(details)).
		Int("requested", len(targets)).
		Msg("initial load complete")
	return nil
}

// RunPeriodic refreshes the displayed tokens on the configured
// interval until ctx is cancelled.
func (m *Manager) RunPeriodic(ctx context.Context) {
	interval := m.cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Refresh(ctx)
		}
	}
}

// Refresh re-fetches details for the tokens currently on screen plus
// any competition tokens. Skipped when another cycle is running.
func (m *Manager) Refresh(ctx context.Context) {
	if !m.begin() {
		m.logger.Debug().Msg("refresh already running, skipping tick")
		return
	}
	defer m.end()

	start := m.now()

	catalog := m.Catalog()
	if len(catalog) == 0 {
		catalog = m.fetcher.Catalog(ctx)
		if len(catalog) == 0 {
			observability.RecordRefreshRun("periodic", false, m.now().Sub(start).Seconds())
			return
		}
		m.setCatalog(catalog)
	}

	comps := m.competitionsMap(ctx)
	targets := m.refreshTargets(comps)
	if len(targets) == 0 {
		targets = m.initialTargets(catalog, comps)
	}

	m.store.MarkPending(targets)
	details := m.fetchBatch(ctx, targets)
	for _, d := range details {
		m.store.Put(domain.TokenDetail{
			TokenDescriptor: d.Token,
			Ticker:          d.Ticker,
			VolumeStats:     d.VolumeStats,
		})
	}
	m.archive(ctx, details)
	m.notify(ctx)

	observability.SetTokensDisplayed(m.store.Len())
	observability.RecordRefreshRun("periodic", true, m.now().Sub(start).Seconds())
}

// Display returns the merged, ordered token list, optionally filtered
// by a case-insensitive substring match on symbol, name or alpha id.
// Search matches outside the loaded subset are fetched on demand.
func (m *Manager) Display(ctx context.Context, search string) []domain.TokenDetail {
	order := m.Catalog()
	if search != "" {
		matched := make([]domain.TokenDescriptor, 0, len(order))
		for _, t := range order {
			if matchesSearch(t, search) {
				matched = append(matched, t)
			}
		}
		order = matched
		m.loadMissing(ctx, matched)
	}

	details := m.store.Snapshot(order)
	merged := display.Merge(details, m.competitionsMap(ctx), m.now())
	return display.Top(merged, m.cfg.TopN)
}

// loadMissing fetches details for tokens the store has no usable data
// for yet, so a search can surface tokens beyond the displayed subset.
// Pending entries already have a fetch in flight and are skipped.
func (m *Manager) loadMissing(ctx context.Context, tokens []domain.TokenDescriptor) {
	var missing []domain.TokenDescriptor
	for _, t := range tokens {
		d, ok := m.store.Get(t.AlphaID)
		if ok && (d.Ticker != nil || d.State == domain.StatePending) {
			continue
		}
		missing = append(missing, t)
	}
	if len(missing) == 0 {
		return
	}
	m.store.MarkPending(missing)
	for _, d := range m.fetchBatch(ctx, missing) {
		m.store.Put(domain.TokenDetail{
			TokenDescriptor: d.Token,
			Ticker:          d.Ticker,
			VolumeStats:     d.VolumeStats,
		})
	}
}

// Descriptor looks up a catalog entry by alpha id.
func (m *Manager) Descriptor(alphaID string) (domain.TokenDescriptor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.catalogIdx[alphaID]
	return t, ok
}

// FetchBatch fetches details for the given tokens with the configured
// concurrency bound. Unavailable tokens are dropped from the result.
func (m *Manager) FetchBatch(ctx context.Context, tokens []domain.TokenDescriptor) []fetcher.Detail {
	return m.fetchBatch(ctx, tokens)
}

// InvalidateCompetitions drops the cached competition map so the next
// read hits the store. Called after competition mutations.
func (m *Manager) InvalidateCompetitions() {
	m.compsMu.Lock()
	m.compsAt = time.Time{}
	m.compsMu.Unlock()
}

// Catalog returns the current catalog in upstream order.
func (m *Manager) Catalog() []domain.TokenDescriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.catalog
}

func (m *Manager) setCatalog(catalog []domain.TokenDescriptor) {
	idx := make(map[string]domain.TokenDescriptor, len(catalog))
	for _, t := range catalog {
		idx[t.AlphaID] = t
	}
	m.mu.Lock()
	m.catalog = catalog
	m.catalogIdx = idx
	m.mu.Unlock()
}

// initialTargets picks the tokens for a full load: the head of the
// catalog up to TopN+InitialExtra, with competition tokens promoted to
// the front when configured so they are fetched first.
func (m *Manager) initialTargets(catalog []domain.TokenDescriptor, comps map[string]domain.Competition) []domain.TokenDescriptor {
	limit := m.cfg.TopN + m.cfg.InitialExtra
	if limit > len(catalog) {
		limit = len(catalog)
	}

	if !m.cfg.PrioritizeCompetitions || len(comps) == 0 {
		return catalog[:limit]
	}

	targets := make([]domain.TokenDescriptor, 0, limit)
	seen := make(map[string]struct{}, limit)

	for _, t := range catalog {
		if len(targets) >= limit {
			break
		}
		if _, ok := comps[t.AlphaID]; ok {
			targets = append(targets, t)
			seen[t.AlphaID] = struct{}{}
		}
	}
	for _, t := range catalog {
		if len(targets) >= limit {
			break
		}
		if _, ok := seen[t.AlphaID]; ok {
			continue
		}
		targets = append(targets, t)
	}
	return targets
}

// refreshTargets picks the tokens a periodic cycle re-fetches: every
// token already tracked plus competition tokens that are not yet.
func (m *Manager) refreshTargets(comps map[string]domain.Competition) []domain.TokenDescriptor {
	catalog := m.Catalog()
	var targets []domain.TokenDescriptor
	seen := make(map[string]struct{})

	for _, t := range catalog {
		if _, ok := m.store.Get(t.AlphaID); ok {
			targets = append(targets, t)
			seen[t.AlphaID] = struct{}{}
		}
	}
	for _, t := range catalog {
		if _, ok := seen[t.AlphaID]; ok {
			continue
		}
		if _, ok := comps[t.AlphaID]; ok {
			targets = append(targets, t)
		}
	}
	return targets
}

func (m *Manager) fetchBatch(ctx context.Context, tokens []domain.TokenDescriptor) []fetcher.Detail {
	if len(tokens) == 0 {
		return nil
	}

	observability.BatchStarted()
	defer observability.BatchFinished()

	worker := func(ctx context.Context, t domain.TokenDescriptor) (fetcher.Detail, error) {
		begin := time.Now()
		d := m.fetcher.FetchDetail(ctx, t)
		observability.RecordBatchItem(time.Since(begin).Seconds())
		if !d.Available() {
			return fetcher.Detail{}, errUnavailable
		}
		return d, nil
	}

	obs := batch.ObserverFunc(func(i int, err error) {
		if err != nil {
			m.store.MarkFailed(tokens[i].AlphaID)
		}
	})

	return batch.Run(ctx, tokens, m.cfg.Concurrency, worker, obs)
}

// archive writes the daily buckets behind each fetched detail to the
// volume history store, when one is configured. Failures are logged
// and ignored, archival never blocks a refresh.
func (m *Manager) archive(ctx context.Context, details []fetcher.Detail) {
	if m.history == nil || len(details) == 0 {
		return
	}

	var points []*domain.VolumeHistoryPoint
	for _, d := range details {
		for _, b := range d.Buckets {
			points = append(points, &domain.VolumeHistoryPoint{
				AlphaID:     d.Token.AlphaID,
				OpenTime:    b.OpenTime,
				QuoteVolume: b.QuoteVolume,
			})
		}
	}
	if len(points) == 0 {
		return
	}

	if err := m.history.InsertBulk(ctx, points); err != nil {
		m.logger.Warn().Err(err).Int("points", len(points)).Msg("volume history archive failed")
	}
}

func (m *Manager) notify(ctx context.Context) {
	if m.broadcaster == nil {
		return
	}
	m.broadcaster.Broadcast(RefreshEvent{
		Type:      "refresh",
		Tokens:    m.Display(ctx, ""),
		UpdatedAt: m.now(),
	})
}

// competitionsMap returns the competition map keyed by alpha id,
// served from a short-lived cache. On store failure the previous map
// is kept, an empty dashboard cell beats a failed request.
func (m *Manager) competitionsMap(ctx context.Context) map[string]domain.Competition {
	m.compsMu.Lock()
	defer m.compsMu.Unlock()

	if m.comps != nil && m.now().Sub(m.compsAt) < competitionsTTL {
		return m.comps
	}

	list, err := m.competitions.List(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("competition list failed, serving cached")
		if m.comps == nil {
			return map[string]domain.Competition{}
		}
		return m.comps
	}

	comps := make(map[string]domain.Competition, len(list))
	for _, c := range list {
		comps[c.AlphaID] = *c
	}
	m.comps = comps
	m.compsAt = m.now()
	return comps
}

func matchesSearch(t domain.TokenDescriptor, search string) bool {
	q := strings.ToLower(search)
	return strings.Contains(strings.ToLower(t.Symbol), q) ||
		strings.Contains(strings.ToLower(t.Name), q) ||
		strings.Contains(strings.ToLower(t.AlphaID), q)
}
