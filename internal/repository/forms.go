package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/protomforms/response-service/internal/domain/model"
)

// ErrNotFound is returned by mutations targeting a form that does not exist.
var ErrNotFound = errors.New("repository: not found")

// FormRepository provides read and lifecycle access to forms.
type FormRepository struct {
	collection *mongo.Collection
}

// NewFormRepository creates a new form repository.
func NewFormRepository(db *MongoDB) *FormRepository {
	return &FormRepository{collection: db.Forms}
}

// GetForm returns the form with the given ID, or nil if it does not exist.
func (r *FormRepository) GetForm(ctx context.Context, formID string) (*model.Form, error) {
	var form model.Form
	err := r.collection.FindOne(ctx, bson.M{"_id": formID}).Decode(&form)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &form, nil
}

// ListForms returns forms matching the optional search and status filters,
// most recently updated first. Deleted forms are excluded.
func (r *FormRepository) ListForms(ctx context.Context, search, status string) ([]model.Form, error) {
	filter := bson.M{"deleted": bson.M{"$ne": true}}
	if status != "" && status != "all" {
		filter["status"] = status
	}
	if search != "" {
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": search, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	opts := options.Find().SetSort(bson.M{"updated_at": -1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var forms []model.Form
	if err := cursor.All(ctx, &forms); err != nil {
		return nil, err
	}
	return forms, nil
}

// MarkDeleted soft-deletes a form. The response history stays queryable for
// admins; the sequence counter cleanup is the caller's job.
func (r *FormRepository) MarkDeleted(ctx context.Context, formID string) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": formID},
		bson.M{"$set": bson.M{"deleted": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus updates a form's lifecycle status.
func (r *FormRepository) SetStatus(ctx context.Context, formID, status string) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": formID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
