// Package repository provides interfaces for repository operations.
package repository

import (
	"context"
	"time"

	"github.com/protomforms/response-service/internal/domain/model"
)

// FormRepositoryInterface defines form read and lifecycle operations.
type FormRepositoryInterface interface {
	GetForm(ctx context.Context, formID string) (*model.Form, error)
	ListForms(ctx context.Context, search, status string) ([]model.Form, error)
	SetStatus(ctx context.Context, formID, status string) error
	MarkDeleted(ctx context.Context, formID string) error
}

// ResponseRepositoryInterface defines response persistence operations.
type ResponseRepositoryInterface interface {
	Insert(ctx context.Context, response *model.Response) error
	FindByUserAndForm(ctx context.Context, formID, userID string) (*model.Response, error)
	FindByProgressive(ctx context.Context, formID string, progressive int64) (*model.Response, error)
	CountByForm(ctx context.Context) (map[string]int64, error)
}

// CounterRepositoryInterface defines the atomic sequence counter operations.
type CounterRepositoryInterface interface {
	IncrementAndGet(ctx context.Context, formID string) (int64, error)
	Current(ctx context.Context, formID string) (int64, error)
	Remove(ctx context.Context, formID string) error
}

// StatsRepositoryInterface defines the aggregate count queries.
type StatsRepositoryInterface interface {
	CountForms(ctx context.Context, since *time.Time) (int64, error)
	CountUsers(ctx context.Context, since *time.Time) (int64, error)
	CountResponses(ctx context.Context, formID string, since *time.Time) (int64, error)
	CountQuestions(ctx context.Context, formID string) (int64, error)
	CountAnswers(ctx context.Context, formID string) (int64, error)
}
