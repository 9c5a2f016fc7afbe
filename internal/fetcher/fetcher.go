// Package fetcher retrieves catalog and per-token market data from the
// exchange and converts failures into empty or partial values. Nothing
// in this package returns an error: a dashboard serving slightly stale
// or missing data beats one that crashes on a single bad upstream
// response, so every failure is logged and absorbed here.
package fetcher

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/domain"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/observability"
)

// klineWindow is how many daily buckets the detail fetch requests.
// Two are needed for today/yesterday; the surplus feeds the volume
// history archive.
const klineWindow = 14

// Source is the subset of the exchange client the fetcher consumes.
type Source interface {
	TokenList(ctx context.Context) ([]domain.TokenDescriptor, error)
	Ticker(ctx context.Context, symbol string) (*domain.TickerSnapshot, error)
	Klines(ctx context.Context, symbol, interval string, start, end int64, limit int) ([]domain.VolumeBucket, error)
}

// Detail is the outcome of one per-token fetch. A nil Ticker marks the
// whole detail unavailable; batch callers drop such results.
type Detail struct {
	Token       domain.TokenDescriptor
	Ticker      *domain.TickerSnapshot
	VolumeStats domain.VolumeStats
	Buckets     []domain.VolumeBucket // daily buckets backing VolumeStats, ascending
}

// Fetcher wraps a Source with the absorb-all-failures policy.
type Fetcher struct {
	source Source
	logger zerolog.Logger
}

// New creates a Fetcher.
func New(source Source, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		source: source,
		logger: logger.With().Str("component", "fetcher").Logger(),
	}
}

// Catalog retrieves the full token catalog in upstream order. On any
// failure it logs and returns an empty slice; callers see an empty
// catalog, never an error.
func (f *Fetcher) Catalog(ctx context.Context) []domain.TokenDescriptor {
	tokens, err := f.source.TokenList(ctx)
	if err != nil {
		observability.RecordCatalogFetch(false)
		f.logger.Error().Err(err).Msg("catalog fetch failed")
		return nil
	}
	observability.RecordCatalogFetch(true)
	return tokens
}

// FetchDetail retrieves the ticker and the recent daily volume buckets
// for one token, issuing both requests concurrently.
//
// A ticker failure makes the detail unavailable (nil Ticker). A
// klines-only failure degrades to zero volume stats: price is the
// primary signal, so a partial result is still worth showing.
func (f *Fetcher) FetchDetail(ctx context.Context, token domain.TokenDescriptor) Detail {
	symbol := token.PairSymbol()

	var (
		wg        sync.WaitGroup
		ticker    *domain.TickerSnapshot
		tickerErr error
		buckets   []domain.VolumeBucket
		klinesErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		ticker, tickerErr = f.source.Ticker(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		buckets, klinesErr = f.source.Klines(ctx, symbol, domain.IntervalDaily, 0, 0, klineWindow)
	}()
	wg.Wait()

	detail := Detail{Token: token}

	if tickerErr != nil {
		observability.RecordDetailFetch("ticker_failed")
		f.logger.Warn().Err(tickerErr).Str("symbol", symbol).Msg("ticker fetch failed")
		return detail
	}
	detail.Ticker = ticker

	if klinesErr != nil {
		observability.RecordDetailFetch("klines_failed")
		f.logger.Warn().Err(klinesErr).Str("symbol", symbol).Msg("klines fetch failed")
		return detail
	}

	detail.Buckets = buckets
	detail.VolumeStats = domain.VolumeStatsFromBuckets(buckets)
	observability.RecordDetailFetch("ok")
	return detail
}

// Available reports whether the detail carries usable market data.
func (d Detail) Available() bool {
	return d.Ticker != nil
}
