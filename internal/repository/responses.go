package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/protomforms/response-service/internal/domain/model"
)

// ErrDuplicateResponse is returned when a write collides with the unique
// indexes on the responses collection (same user resubmitting, or a
// progressive number that was already persisted).
var ErrDuplicateResponse = errors.New("repository: duplicate response")

// ResponseRepository persists submitted responses.
type ResponseRepository struct {
	collection *mongo.Collection
}

// NewResponseRepository creates a new response repository.
func NewResponseRepository(db *MongoDB) *ResponseRepository {
	return &ResponseRepository{collection: db.Responses}
}

// Insert writes a response row. Unique-index violations are mapped to
// ErrDuplicateResponse.
func (r *ResponseRepository) Insert(ctx context.Context, response *model.Response) error {
	_, err := r.collection.InsertOne(ctx, response)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateResponse
	}
	return err
}

// FindByUserAndForm returns the response a user already submitted for a
// form, or nil if none exists.
func (r *ResponseRepository) FindByUserAndForm(ctx context.Context, formID, userID string) (*model.Response, error) {
	var response model.Response
	err := r.collection.FindOne(ctx, bson.M{"form_id": formID, "user_id": userID}).Decode(&response)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// FindByProgressive returns the response identified by its per-form
// progressive number, or nil if none exists.
func (r *ResponseRepository) FindByProgressive(ctx context.Context, formID string, progressive int64) (*model.Response, error) {
	var response model.Response
	err := r.collection.FindOne(ctx, bson.M{"form_id": formID, "progressive_number": progressive}).Decode(&response)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// CountByForm returns response counts grouped by form ID.
func (r *ResponseRepository) CountByForm(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$form_id",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	counts := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			FormID string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.FormID] = row.Count
	}
	return counts, cursor.Err()
}
