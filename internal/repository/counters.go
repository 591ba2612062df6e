package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SequenceCounterDocument is the persistent counter row for one form.
type SequenceCounterDocument struct {
	FormID    string `bson:"_id" json:"form_id"`
	LastValue int64  `bson:"last_value" json:"last_value"`
}

// CounterRepository persists per-form sequence counters.
type CounterRepository struct {
	collection *mongo.Collection
}

// NewCounterRepository creates a new counter repository.
func NewCounterRepository(db *MongoDB) *CounterRepository {
	return &CounterRepository{collection: db.Counters}
}

// IncrementAndGet atomically increments the counter for formID and returns
// the new value. The counter document is created on first use (starting at
// 0, so the first allocation returns 1). FindOneAndUpdate with $inc is a
// single atomic read-modify-write on the server, so two concurrent callers
// on the same form can never observe the same value, even from other process
// instances.
func (r *CounterRepository) IncrementAndGet(ctx context.Context, formID string) (int64, error) {
	var doc SequenceCounterDocument
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": formID},
		bson.M{"$inc": bson.M{"last_value": 1}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.LastValue, nil
}

// Current returns the last value handed out for formID, 0 if none.
func (r *CounterRepository) Current(ctx context.Context, formID string) (int64, error) {
	var doc SequenceCounterDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": formID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return doc.LastValue, nil
}

// Remove drops the counter for a deleted form.
func (r *CounterRepository) Remove(ctx context.Context, formID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": formID})
	return err
}
