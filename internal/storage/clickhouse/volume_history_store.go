package clickhouse

import (
	"context"
	"fmt"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/domain"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/storage"
)

// VolumeHistoryStore implements storage.VolumeHistoryStore using ClickHouse.
// The volume_history table is a ReplacingMergeTree keyed by
// (alpha_id, open_time), so re-archiving a day overwrites it.
type VolumeHistoryStore struct {
	conn *Conn
}

// NewVolumeHistoryStore creates a new VolumeHistoryStore.
func NewVolumeHistoryStore(conn *Conn) *VolumeHistoryStore {
	return &VolumeHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.VolumeHistoryStore = (*VolumeHistoryStore)(nil)

// InsertBulk stores points, replacing existing (alphaId, openTime) pairs.
func (s *VolumeHistoryStore) InsertBulk(ctx context.Context, points []*domain.VolumeHistoryPoint) error {
	if len(points) == 0 {
		return nil
	}

	for _, p := range points {
		if p.AlphaID == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO volume_history (alpha_id, open_time, quote_volume)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(p.AlphaID, uint64(p.OpenTime), p.QuoteVolume); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTokenRange retrieves points for a token with openTime within
// [start, end] (inclusive), ordered by openTime ASC. FINAL collapses
// replaced rows that have not merged yet.
func (s *VolumeHistoryStore) GetByTokenRange(ctx context.Context, alphaID string, start, end int64) ([]*domain.VolumeHistoryPoint, error) {
	query := `
		SELECT alpha_id, open_time, quote_volume
		FROM volume_history FINAL
		WHERE alpha_id = ? AND open_time >= ? AND open_time <= ?
		ORDER BY open_time ASC
	`

	rows, err := s.conn.Query(ctx, query, alphaID, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by token range: %w", err)
	}
	defer rows.Close()

	return scanVolumeHistory(rows)
}

// chRows abstracts driver.Rows for scan helpers.
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanVolumeHistory scans multiple rows.
func scanVolumeHistory(rows chRows) ([]*domain.VolumeHistoryPoint, error) {
	var points []*domain.VolumeHistoryPoint

	for rows.Next() {
		var p domain.VolumeHistoryPoint
		var openTime uint64

		if err := rows.Scan(&p.AlphaID, &openTime, &p.QuoteVolume); err != nil {
			return nil, fmt.Errorf("scan volume history row: %w", err)
		}

		p.OpenTime = int64(openTime)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate volume history rows: %w", err)
	}

	return points, nil
}
