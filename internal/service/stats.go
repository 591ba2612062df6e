package service

import (
	"context"
	"fmt"
	"time"

	"github.com/protomforms/response-service/internal/cache"
	"github.com/protomforms/response-service/internal/circuitbreaker"
	"github.com/protomforms/response-service/internal/domain/dto"
	"github.com/protomforms/response-service/internal/domain/model"
	"github.com/protomforms/response-service/internal/repository"
)

// StatsService serves the dashboard and summary aggregates through the
// aggregation cache. Every read goes through GetOrSet, so under load a given
// aggregate is computed at most once per TTL window.
type StatsService struct {
	stats      repository.StatsRepositoryInterface
	forms      repository.FormRepositoryInterface
	responses  repository.ResponseRepositoryInterface
	cache      *cache.AggregationCache
	breaker    *circuitbreaker.CircuitBreaker
	statsTTL   time.Duration
	summaryTTL time.Duration
}

// NewStatsService creates a new StatsService. breaker may be nil, in which
// case aggregate queries run unguarded.
func NewStatsService(
	stats repository.StatsRepositoryInterface,
	forms repository.FormRepositoryInterface,
	responses repository.ResponseRepositoryInterface,
	aggregationCache *cache.AggregationCache,
	breaker *circuitbreaker.CircuitBreaker,
	statsTTL, summaryTTL time.Duration,
) *StatsService {
	return &StatsService{
		stats:      stats,
		forms:      forms,
		responses:  responses,
		cache:      aggregationCache,
		breaker:    breaker,
		statsTTL:   statsTTL,
		summaryTTL: summaryTTL,
	}
}

// DashboardStats returns the aggregate dashboard numbers, globally or scoped
// to one form, served through the cache.
func (s *StatsService) DashboardStats(ctx context.Context, formID string) (*model.DashboardStats, error) {
	key := cache.DashboardStatsKey(formID)
	value, err := s.cache.GetOrSet(ctx, key, func(ctx context.Context) (interface{}, error) {
		var stats *model.DashboardStats
		err := s.guarded(ctx, func() error {
			var err error
			stats, err = s.computeDashboardStats(ctx, formID)
			return err
		})
		return stats, err
	}, s.statsTTL)
	if err != nil {
		return nil, err
	}

	stats, ok := value.(*model.DashboardStats)
	if !ok {
		return nil, fmt.Errorf("service: unexpected cache payload for %s", key)
	}
	return stats, nil
}

// FormsSummary returns the per-form listing with response counts, cached per
// filter combination.
func (s *StatsService) FormsSummary(ctx context.Context, filter dto.SummaryFilter) ([]model.FormSummary, error) {
	key := cache.FormsSummaryKey(filter.CacheKey())
	value, err := s.cache.GetOrSet(ctx, key, func(ctx context.Context) (interface{}, error) {
		var summaries []model.FormSummary
		err := s.guarded(ctx, func() error {
			var err error
			summaries, err = s.computeFormsSummary(ctx, filter)
			return err
		})
		return summaries, err
	}, s.summaryTTL)
	if err != nil {
		return nil, err
	}

	summaries, ok := value.([]model.FormSummary)
	if !ok {
		return nil, fmt.Errorf("service: unexpected cache payload for %s", key)
	}
	return summaries, nil
}

// CacheStats exposes the store snapshot for the observability endpoint.
func (s *StatsService) CacheStats() cache.StoreStats {
	return s.cache.Stats()
}

// InvalidateCache drops a single key, or everything when key is empty.
func (s *StatsService) InvalidateCache(key string) {
	if key == "" {
		s.cache.Clear()
		return
	}
	s.cache.Delete(key)
}

func (s *StatsService) guarded(ctx context.Context, fn func() error) error {
	if s.breaker == nil {
		return fn()
	}
	return s.breaker.Execute(ctx, fn)
}

func (s *StatsService) computeDashboardStats(ctx context.Context, formID string) (*model.DashboardStats, error) {
	lastMonth := time.Now().AddDate(0, -1, 0)

	totalResponses, err := s.stats.CountResponses(ctx, formID, nil)
	if err != nil {
		return nil, fmt.Errorf("service: count responses: %w", err)
	}
	totalUsers, err := s.stats.CountUsers(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("service: count users: %w", err)
	}
	totalAnswers, err := s.stats.CountAnswers(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("service: count answers: %w", err)
	}
	totalQuestions, err := s.stats.CountQuestions(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("service: count questions: %w", err)
	}
	lastMonthResponses, err := s.stats.CountResponses(ctx, formID, &lastMonth)
	if err != nil {
		return nil, fmt.Errorf("service: count recent responses: %w", err)
	}
	lastMonthUsers, err := s.stats.CountUsers(ctx, &lastMonth)
	if err != nil {
		return nil, fmt.Errorf("service: count recent users: %w", err)
	}

	stats := &model.DashboardStats{
		FormID:             formID,
		TotalResponses:     totalResponses,
		TotalUsers:         totalUsers,
		TotalAnswers:       totalAnswers,
		TotalQuestions:     totalQuestions,
		LastMonthResponses: lastMonthResponses,
		LastMonthUsers:     lastMonthUsers,
	}

	if formID == "" {
		stats.TotalForms, err = s.stats.CountForms(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("service: count forms: %w", err)
		}
		stats.LastMonthForms, err = s.stats.CountForms(ctx, &lastMonth)
		if err != nil {
			return nil, fmt.Errorf("service: count recent forms: %w", err)
		}
	} else {
		stats.TotalForms = 1
	}

	// Completion rate approximates answered questions per response against
	// the question count, as the admin dashboard has always shown it.
	if totalQuestions > 0 && totalResponses > 0 {
		stats.CompletionRate = int(totalAnswers * 100 / (totalQuestions * totalResponses))
		if stats.CompletionRate > 100 {
			stats.CompletionRate = 100
		}
	}

	return stats, nil
}

func (s *StatsService) computeFormsSummary(ctx context.Context, filter dto.SummaryFilter) ([]model.FormSummary, error) {
	forms, err := s.forms.ListForms(ctx, filter.Search, filter.Status)
	if err != nil {
		return nil, fmt.Errorf("service: list forms: %w", err)
	}
	counts, err := s.responses.CountByForm(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: count by form: %w", err)
	}

	summaries := make([]model.FormSummary, 0, len(forms))
	for _, form := range forms {
		summaries = append(summaries, model.FormSummary{
			ID:            form.ID,
			Title:         form.Title,
			Status:        form.Status,
			IsAnonymous:   form.IsAnonymous,
			ResponseCount: counts[form.ID],
			UpdatedAt:     form.UpdatedAt,
		})
	}
	return summaries, nil
}
