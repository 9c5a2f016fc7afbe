// Package postgres implements the competition store on PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/domain"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/storage"
)

// CompetitionStore implements storage.CompetitionStore using PostgreSQL.
type CompetitionStore struct {
	pool *Pool
}

// NewCompetitionStore creates a new CompetitionStore.
func NewCompetitionStore(pool *Pool) *CompetitionStore {
	return &CompetitionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CompetitionStore = (*CompetitionStore)(nil)

// List retrieves all stored competitions.
func (s *CompetitionStore) List(ctx context.Context) ([]*domain.Competition, error) {
	query := `
		SELECT alpha_id, symbol, name, icon_url, start_time, end_time, updated_at
		FROM competitions
		ORDER BY alpha_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	defer rows.Close()

	var result []*domain.Competition
	for rows.Next() {
		var c domain.Competition
		if err := rows.Scan(&c.AlphaID, &c.Symbol, &c.Name, &c.IconURL, &c.StartTime, &c.EndTime, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan competition: %w", err)
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate competitions: %w", err)
	}
	return result, nil
}

// Get retrieves one competition. Returns ErrNotFound if absent.
func (s *CompetitionStore) Get(ctx context.Context, alphaID string) (*domain.Competition, error) {
	query := `
		SELECT alpha_id, symbol, name, icon_url, start_time, end_time, updated_at
		FROM competitions
		WHERE alpha_id = $1
	`

	var c domain.Competition
	err := s.pool.QueryRow(ctx, query, alphaID).
		Scan(&c.AlphaID, &c.Symbol, &c.Name, &c.IconURL, &c.StartTime, &c.EndTime, &c.UpdatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get competition: %w", err)
	}
	return &c, nil
}

// Upsert inserts or fully replaces the competition for its alpha id.
func (s *CompetitionStore) Upsert(ctx context.Context, c *domain.Competition) error {
	if c == nil || c.AlphaID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO competitions (alpha_id, symbol, name, icon_url, start_time, end_time, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (alpha_id) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			icon_url = EXCLUDED.icon_url,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		c.AlphaID,
		c.Symbol,
		c.Name,
		c.IconURL,
		c.StartTime,
		c.EndTime,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert competition: %w", err)
	}
	return nil
}

// UpdateTimes changes only the window of an existing competition.
func (s *CompetitionStore) UpdateTimes(ctx context.Context, alphaID string, start, end *time.Time) error {
	query := `
		UPDATE competitions
		SET start_time = $2, end_time = $3, updated_at = $4
		WHERE alpha_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, alphaID, start, end, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update competition times: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes the competition. Returns ErrNotFound if absent.
func (s *CompetitionStore) Delete(ctx context.Context, alphaID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM competitions WHERE alpha_id = $1`, alphaID)
	if err != nil {
		return fmt.Errorf("delete competition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
