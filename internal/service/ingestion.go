// Package service contains the business logic for the response service.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/protomforms/response-service/internal/cache"
	"github.com/protomforms/response-service/internal/domain/dto"
	"github.com/protomforms/response-service/internal/domain/model"
	"github.com/protomforms/response-service/internal/metrics"
	"github.com/protomforms/response-service/internal/repository"
	"github.com/protomforms/response-service/internal/sequence"
)

var (
	// ErrFormClosed is returned when the target form does not currently
	// accept submissions (draft, archived, outside its open window).
	ErrFormClosed = errors.New("service: form is not open for submissions")
	// ErrUserRequired is returned when an identified form is submitted
	// without a user.
	ErrUserRequired = errors.New("service: form requires an authenticated user")
	// ErrAlreadySubmitted is returned when a user resubmits a form.
	ErrAlreadySubmitted = errors.New("service: response already submitted")
	// ErrResponseNotFound is returned when no response matches a lookup.
	ErrResponseNotFound = errors.New("service: response not found")
)

// Allocator hands out progressive numbers. Satisfied by *sequence.Allocator.
type Allocator interface {
	Allocate(ctx context.Context, formID string) (int64, error)
}

// IngestionService runs the response submission flow: validate the target
// form, allocate a progressive number, persist the response, and invalidate
// the aggregates the submission just made stale.
type IngestionService struct {
	forms     repository.FormRepositoryInterface
	responses repository.ResponseRepositoryInterface
	counters  repository.CounterRepositoryInterface
	allocator Allocator
	cache     *cache.AggregationCache
}

// NewIngestionService creates a new IngestionService.
func NewIngestionService(
	forms repository.FormRepositoryInterface,
	responses repository.ResponseRepositoryInterface,
	counters repository.CounterRepositoryInterface,
	allocator Allocator,
	aggregationCache *cache.AggregationCache,
) *IngestionService {
	return &IngestionService{
		forms:     forms,
		responses: responses,
		counters:  counters,
		allocator: allocator,
		cache:     aggregationCache,
	}
}

// Submit ingests one response for formID. userID may be empty for anonymous
// forms. On success the response row is persisted with its progressive
// number and the dashboard/summary cache scopes are invalidated.
//
// Allocation and persistence are not transactional: if the insert fails the
// allocated number is burned. The sequence stays strictly increasing and
// duplicate-free, which is what readers rely on; it is not gapless across
// failed submissions.
func (s *IngestionService) Submit(ctx context.Context, formID, userID string, answers map[string]interface{}) (*dto.SubmitResponseResult, error) {
	form, err := s.forms.GetForm(ctx, formID)
	if err != nil {
		metrics.RecordIngestion("lookup_error")
		return nil, fmt.Errorf("service: form lookup: %w", err)
	}
	if form == nil || form.Deleted {
		metrics.RecordIngestion("not_found")
		return nil, fmt.Errorf("%w: %s", sequence.ErrFormNotFound, formID)
	}
	if !form.IsOpen(time.Now()) {
		metrics.RecordIngestion("rejected")
		return nil, ErrFormClosed
	}
	if !form.IsAnonymous && userID == "" {
		metrics.RecordIngestion("rejected")
		return nil, ErrUserRequired
	}

	if err := validateAnswers(form, answers); err != nil {
		metrics.RecordIngestion("rejected")
		return nil, err
	}

	if userID != "" {
		existing, err := s.responses.FindByUserAndForm(ctx, formID, userID)
		if err != nil {
			metrics.RecordIngestion("lookup_error")
			return nil, fmt.Errorf("service: duplicate check: %w", err)
		}
		if existing != nil {
			metrics.RecordIngestion("rejected")
			return nil, ErrAlreadySubmitted
		}
	}

	progressive, err := s.allocator.Allocate(ctx, formID)
	if err != nil {
		metrics.RecordIngestion("allocation_error")
		return nil, err
	}

	response := &model.Response{
		ID:                uuid.New().String(),
		FormID:            formID,
		ProgressiveNumber: progressive,
		UserID:            userID,
		Answers:           buildAnswers(form, answers),
		CreatedAt:         time.Now(),
	}
	if err := s.responses.Insert(ctx, response); err != nil {
		if errors.Is(err, repository.ErrDuplicateResponse) {
			metrics.RecordIngestion("rejected")
			return nil, ErrAlreadySubmitted
		}
		metrics.RecordIngestion("persist_error")
		return nil, fmt.Errorf("service: persist response: %w", err)
	}

	s.invalidateAggregates()

	metrics.RecordIngestion("submitted")
	return &dto.SubmitResponseResult{
		ResponseID:        response.ID,
		ProgressiveNumber: progressive,
	}, nil
}

// Lookup returns the response identified by its per-form progressive number.
func (s *IngestionService) Lookup(ctx context.Context, formID string, progressive int64) (*model.Response, error) {
	form, err := s.forms.GetForm(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("service: form lookup: %w", err)
	}
	if form == nil || form.Deleted {
		return nil, fmt.Errorf("%w: %s", sequence.ErrFormNotFound, formID)
	}

	response, err := s.responses.FindByProgressive(ctx, formID, progressive)
	if err != nil {
		return nil, fmt.Errorf("service: response lookup: %w", err)
	}
	if response == nil {
		return nil, fmt.Errorf("%w: %s#%d", ErrResponseNotFound, formID, progressive)
	}
	return response, nil
}

// PublishForm opens a form for submissions and invalidates stale summaries.
func (s *IngestionService) PublishForm(ctx context.Context, formID string) error {
	return s.setStatus(ctx, formID, model.FormStatusPublished)
}

// ArchiveForm closes a form and invalidates stale summaries.
func (s *IngestionService) ArchiveForm(ctx context.Context, formID string) error {
	return s.setStatus(ctx, formID, model.FormStatusArchived)
}

// DeleteForm soft-deletes a form, drops its sequence counter and invalidates
// cached aggregates. Allocations after deletion fail with ErrFormNotFound.
func (s *IngestionService) DeleteForm(ctx context.Context, formID string) error {
	if err := s.forms.MarkDeleted(ctx, formID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s", sequence.ErrFormNotFound, formID)
		}
		return fmt.Errorf("service: delete form: %w", err)
	}
	if err := s.counters.Remove(ctx, formID); err != nil {
		return fmt.Errorf("service: remove counter: %w", err)
	}
	s.invalidateAggregates()
	return nil
}

func (s *IngestionService) setStatus(ctx context.Context, formID, status string) error {
	if err := s.forms.SetStatus(ctx, formID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s", sequence.ErrFormNotFound, formID)
		}
		return fmt.Errorf("service: set form status: %w", err)
	}
	s.invalidateAggregates()
	return nil
}

// invalidateAggregates drops every cached dashboard and summary entry. The
// cache has no automatic write invalidation; staleness past this point is
// bounded only by the TTLs.
func (s *IngestionService) invalidateAggregates() {
	s.cache.DeletePrefix(cache.PrefixDashboardStats)
	s.cache.DeletePrefix(cache.PrefixFormsSummary)
}

// validateAnswers enforces the form's rules: every required question is
// answered, and every answered question belongs to the form.
func validateAnswers(form *model.Form, answers map[string]interface{}) error {
	for _, q := range form.Questions {
		if !q.Required {
			continue
		}
		value, ok := answers[q.ID]
		if !ok || isEmptyAnswer(value) {
			return &dto.ValidationError{Field: "answers", Message: "required question unanswered: " + q.ID}
		}
	}
	for questionID := range answers {
		if _, ok := form.QuestionByID(questionID); !ok {
			return &dto.ValidationError{Field: "answers", Message: "unknown question: " + questionID}
		}
	}
	return nil
}

func isEmptyAnswer(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []interface{}:
		return len(v) == 0
	default:
		return false
	}
}

// buildAnswers converts the submitted map into ordered answer rows,
// following the form's question order.
func buildAnswers(form *model.Form, answers map[string]interface{}) []model.Answer {
	result := make([]model.Answer, 0, len(answers))
	for _, q := range form.Questions {
		if value, ok := answers[q.ID]; ok {
			result = append(result, model.Answer{QuestionID: q.ID, Value: value})
		}
	}
	return result
}
