// Package storage defines the persistence interfaces of the service
// and their shared error values. Implementations live in the postgres,
// mongo, clickhouse and memory subpackages.
package storage

import (
	"context"
	"time"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/domain"
)

// CompetitionStore provides access to competition records, keyed by
// the token's alpha id.
type CompetitionStore interface {
	// List retrieves all stored competitions in unspecified order.
	List(ctx context.Context) ([]*domain.Competition, error)

	// Get retrieves one competition. Returns ErrNotFound if absent.
	Get(ctx context.Context, alphaID string) (*domain.Competition, error)

	// Upsert inserts or fully replaces the competition for its alpha id.
	// Returns ErrInvalidInput when the alpha id is empty.
	Upsert(ctx context.Context, c *domain.Competition) error

	// UpdateTimes changes only the window of an existing competition.
	// Returns ErrNotFound if no record exists for the alpha id.
	UpdateTimes(ctx context.Context, alphaID string, start, end *time.Time) error

	// Delete removes the competition. Returns ErrNotFound if absent.
	Delete(ctx context.Context, alphaID string) error
}

// VolumeHistoryStore archives daily quote-volume observations per
// token. Writes are idempotent: re-inserting a (token, open time)
// pair replaces the previous value, so refresh cycles can archive
// blindly.
type VolumeHistoryStore interface {
	// InsertBulk stores points, replacing existing (alphaId, openTime)
	// pairs.
	InsertBulk(ctx context.Context, points []*domain.VolumeHistoryPoint) error

	// GetByTokenRange retrieves points for a token with openTime within
	// [start, end] (inclusive), ordered by openTime ASC.
	GetByTokenRange(ctx context.Context, alphaID string, start, end int64) ([]*domain.VolumeHistoryPoint, error)
}
