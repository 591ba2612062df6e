package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// StatsRepository runs the aggregate count queries feeding the dashboard.
// These are the expensive reads the aggregation cache exists to front.
type StatsRepository struct {
	forms     *mongo.Collection
	responses *mongo.Collection
	users     *mongo.Collection
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(db *MongoDB) *StatsRepository {
	return &StatsRepository{
		forms:     db.Forms,
		responses: db.Responses,
		users:     db.Users,
	}
}

// CountForms counts non-deleted forms, optionally created since a cutoff.
func (r *StatsRepository) CountForms(ctx context.Context, since *time.Time) (int64, error) {
	filter := bson.M{"deleted": bson.M{"$ne": true}}
	if since != nil {
		filter["created_at"] = bson.M{"$gte": *since}
	}
	return r.forms.CountDocuments(ctx, filter)
}

// CountUsers counts users, optionally created since a cutoff.
func (r *StatsRepository) CountUsers(ctx context.Context, since *time.Time) (int64, error) {
	filter := bson.M{}
	if since != nil {
		filter["created_at"] = bson.M{"$gte": *since}
	}
	return r.users.CountDocuments(ctx, filter)
}

// CountResponses counts responses, optionally scoped to a form and/or a
// creation cutoff.
func (r *StatsRepository) CountResponses(ctx context.Context, formID string, since *time.Time) (int64, error) {
	filter := bson.M{}
	if formID != "" {
		filter["form_id"] = formID
	}
	if since != nil {
		filter["created_at"] = bson.M{"$gte": *since}
	}
	return r.responses.CountDocuments(ctx, filter)
}

// CountQuestions sums the number of questions across forms (or one form).
func (r *StatsRepository) CountQuestions(ctx context.Context, formID string) (int64, error) {
	match := bson.M{"deleted": bson.M{"$ne": true}}
	if formID != "" {
		match = bson.M{"_id": formID}
	}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$project", Value: bson.M{
			"n": bson.M{"$size": bson.M{"$ifNull": bson.A{"$questions", bson.A{}}}},
		}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$n"},
		}}},
	}
	return r.sumPipeline(ctx, r.forms, pipeline)
}

// CountAnswers sums the number of answers across responses (or one form's).
func (r *StatsRepository) CountAnswers(ctx context.Context, formID string) (int64, error) {
	match := bson.M{}
	if formID != "" {
		match = bson.M{"form_id": formID}
	}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$project", Value: bson.M{
			"n": bson.M{"$size": bson.M{"$ifNull": bson.A{"$answers", bson.A{}}}},
		}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$n"},
		}}},
	}
	return r.sumPipeline(ctx, r.responses, pipeline)
}

func (r *StatsRepository) sumPipeline(ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) (int64, error) {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	if cursor.Next(ctx) {
		var row struct {
			Total int64 `bson:"total"`
		}
		if err := cursor.Decode(&row); err != nil {
			return 0, err
		}
		return row.Total, nil
	}
	return 0, cursor.Err()
}
