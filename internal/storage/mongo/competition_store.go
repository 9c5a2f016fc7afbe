package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/domain"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/storage"
)

// competitionCollection is the collection competitions live in.
const competitionCollection = "tokens_competition"

// CompetitionStore implements storage.CompetitionStore using MongoDB.
// Records are keyed by the alphaId field, one document per token.
type CompetitionStore struct {
	client *Client
}

// NewCompetitionStore creates a new CompetitionStore.
func NewCompetitionStore(client *Client) *CompetitionStore {
	return &CompetitionStore{client: client}
}

// Compile-time interface check.
var _ storage.CompetitionStore = (*CompetitionStore)(nil)

// List retrieves all stored competitions.
func (s *CompetitionStore) List(ctx context.Context) ([]*domain.Competition, error) {
	cursor, err := s.client.collection(competitionCollection).
		Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "alphaId", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*domain.Competition
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("decode competitions: %w", err)
	}
	return result, nil
}

// Get retrieves one competition. Returns ErrNotFound if absent.
func (s *CompetitionStore) Get(ctx context.Context, alphaID string) (*domain.Competition, error) {
	var c domain.Competition
	err := s.client.collection(competitionCollection).
		FindOne(ctx, bson.M{"alphaId": alphaID}).
		Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
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

	update := bson.M{"$set": bson.M{
		"alphaId":   c.AlphaID,
		"symbol":    c.Symbol,
		"name":      c.Name,
		"iconUrl":   c.IconURL,
		"startTime": c.StartTime,
		"endTime":   c.EndTime,
		"updatedAt": time.Now().UTC(),
	}}

	_, err := s.client.collection(competitionCollection).
		UpdateOne(ctx, bson.M{"alphaId": c.AlphaID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert competition: %w", err)
	}
	return nil
}

// UpdateTimes changes only the window of an existing competition.
func (s *CompetitionStore) UpdateTimes(ctx context.Context, alphaID string, start, end *time.Time) error {
	update := bson.M{"$set": bson.M{
		"startTime": start,
		"endTime":   end,
		"updatedAt": time.Now().UTC(),
	}}

	res, err := s.client.collection(competitionCollection).
		UpdateOne(ctx, bson.M{"alphaId": alphaID}, update)
	if err != nil {
		return fmt.Errorf("update competition times: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes the competition. Returns ErrNotFound if absent.
func (s *CompetitionStore) Delete(ctx context.Context, alphaID string) error {
	res, err := s.client.collection(competitionCollection).
		DeleteOne(ctx, bson.M{"alphaId": alphaID})
	if err != nil {
		return fmt.Errorf("delete competition: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
