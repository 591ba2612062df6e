package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protomforms/response-service/internal/cache"
	"github.com/protomforms/response-service/internal/circuitbreaker"
	"github.com/protomforms/response-service/internal/domain/dto"
	"github.com/protomforms/response-service/internal/domain/model"
)

// fakeStatsRepo is an in-memory StatsRepositoryInterface with fixed counts
// and a call counter for cache assertions.
type fakeStatsRepo struct {
	forms     int64
	users     int64
	responses int64
	questions int64
	answers   int64
	err       error
	calls     int32
}

func (r *fakeStatsRepo) CountForms(ctx context.Context, since *time.Time) (int64, error) {
	atomic.AddInt32(&r.calls, 1)
	return r.forms, r.err
}

func (r *fakeStatsRepo) CountUsers(ctx context.Context, since *time.Time) (int64, error) {
	atomic.AddInt32(&r.calls, 1)
	return r.users, r.err
}

func (r *fakeStatsRepo) CountResponses(ctx context.Context, formID string, since *time.Time) (int64, error) {
	atomic.AddInt32(&r.calls, 1)
	return r.responses, r.err
}

func (r *fakeStatsRepo) CountQuestions(ctx context.Context, formID string) (int64, error) {
	atomic.AddInt32(&r.calls, 1)
	return r.questions, r.err
}

func (r *fakeStatsRepo) CountAnswers(ctx context.Context, formID string) (int64, error) {
	atomic.AddInt32(&r.calls, 1)
	return r.answers, r.err
}

func newStatsFixture(statsRepo *fakeStatsRepo, forms ...*model.Form) (*StatsService, *cache.AggregationCache) {
	formRepo := newFakeFormRepo(forms...)
	responseRepo := &fakeResponseRepo{}
	aggregationCache := cache.NewAggregationCache(cache.NewStore(100), 0)

	svc := NewStatsService(statsRepo, formRepo, responseRepo, aggregationCache, nil, time.Minute, time.Minute)
	return svc, aggregationCache
}

func TestStatsService_DashboardStats(t *testing.T) {
	statsRepo := &fakeStatsRepo{forms: 4, users: 10, responses: 20, questions: 5, answers: 80}
	svc, _ := newStatsFixture(statsRepo)

	stats, err := svc.DashboardStats(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalForms)
	assert.Equal(t, int64(10), stats.TotalUsers)
	assert.Equal(t, int64(20), stats.TotalResponses)
	assert.Equal(t, int64(5), stats.TotalQuestions)
	assert.Equal(t, int64(80), stats.TotalAnswers)
	assert.Equal(t, 80, stats.CompletionRate)
}

func TestStatsService_DashboardStats_FormScoped(t *testing.T) {
	statsRepo := &fakeStatsRepo{users: 3, responses: 6, questions: 2, answers: 12}
	svc, _ := newStatsFixture(statsRepo)

	stats, err := svc.DashboardStats(context.Background(), "f1")
	require.NoError(t, err)

	assert.Equal(t, "f1", stats.FormID)
	assert.Equal(t, int64(1), stats.TotalForms)
	assert.Equal(t, 100, stats.CompletionRate)
}

func TestStatsService_DashboardStats_CompletionRateCapped(t *testing.T) {
	// More answers than questions*responses happens when questions were
	// removed after responses came in.
	statsRepo := &fakeStatsRepo{responses: 2, questions: 1, answers: 10}
	svc, _ := newStatsFixture(statsRepo)

	stats, err := svc.DashboardStats(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 100, stats.CompletionRate)
}

func TestStatsService_DashboardStats_Cached(t *testing.T) {
	statsRepo := &fakeStatsRepo{responses: 5}
	svc, _ := newStatsFixture(statsRepo)

	_, err := svc.DashboardStats(context.Background(), "")
	require.NoError(t, err)
	firstCalls := atomic.LoadInt32(&statsRepo.calls)
	require.Greater(t, firstCalls, int32(0))

	_, err = svc.DashboardStats(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, firstCalls, atomic.LoadInt32(&statsRepo.calls), "second read must be served from cache")
}

func TestStatsService_DashboardStats_ConcurrentColdReadsComputeOnce(t *testing.T) {
	statsRepo := &fakeStatsRepo{responses: 5}
	svc, _ := newStatsFixture(statsRepo)

	const callers = 50
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = svc.DashboardStats(context.Background(), "")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
	}

	// One compute issues a fixed number of count queries; shared flights must
	// not multiply them.
	assert.LessOrEqual(t, atomic.LoadInt32(&statsRepo.calls), int32(8))
}

func TestStatsService_DashboardStats_ErrorNotCached(t *testing.T) {
	statsRepo := &fakeStatsRepo{err: errors.New("pipeline failed")}
	svc, _ := newStatsFixture(statsRepo)

	_, err := svc.DashboardStats(context.Background(), "")
	require.Error(t, err)

	statsRepo.err = nil
	statsRepo.responses = 3

	stats, err := svc.DashboardStats(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalResponses)
}

func TestStatsService_DashboardStats_BreakerOpen(t *testing.T) {
	statsRepo := &fakeStatsRepo{err: errors.New("mongo down")}
	formRepo := newFakeFormRepo()
	responseRepo := &fakeResponseRepo{}
	aggregationCache := cache.NewAggregationCache(cache.NewStore(100), 0)
	breaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
		Name:             "test",
	})

	svc := NewStatsService(statsRepo, formRepo, responseRepo, aggregationCache, breaker, time.Minute, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := svc.DashboardStats(context.Background(), "")
		require.Error(t, err)
	}

	_, err := svc.DashboardStats(context.Background(), "")
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
}

func TestStatsService_FormsSummary(t *testing.T) {
	statsRepo := &fakeStatsRepo{}
	formRepo := newFakeFormRepo(
		openForm("f1", true, model.Question{ID: "q1"}),
		openForm("f2", false, model.Question{ID: "q1"}),
	)
	responseRepo := &fakeResponseRepo{
		responses: []*model.Response{
			{ID: "r1", FormID: "f1", ProgressiveNumber: 1},
			{ID: "r2", FormID: "f1", ProgressiveNumber: 2},
		},
	}
	aggregationCache := cache.NewAggregationCache(cache.NewStore(100), 0)
	svc := NewStatsService(statsRepo, formRepo, responseRepo, aggregationCache, nil, time.Minute, time.Minute)

	summaries, err := svc.FormsSummary(context.Background(), dto.SummaryFilter{})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byID := make(map[string]model.FormSummary)
	for _, s := range summaries {
		byID[s.ID] = s
	}
	assert.Equal(t, int64(2), byID["f1"].ResponseCount)
	assert.Equal(t, int64(0), byID["f2"].ResponseCount)
}

func TestStatsService_FormsSummary_CachedPerFilter(t *testing.T) {
	statsRepo := &fakeStatsRepo{}
	svc, aggregationCache := newStatsFixture(statsRepo, openForm("f1", true))

	_, err := svc.FormsSummary(context.Background(), dto.SummaryFilter{})
	require.NoError(t, err)
	_, err = svc.FormsSummary(context.Background(), dto.SummaryFilter{Status: "PUBLISHED"})
	require.NoError(t, err)

	assert.Equal(t, 2, aggregationCache.Stats().Size, "each filter combination gets its own entry")
}

func TestStatsService_InvalidateCache(t *testing.T) {
	statsRepo := &fakeStatsRepo{}
	svc, aggregationCache := newStatsFixture(statsRepo)

	_, err := svc.DashboardStats(context.Background(), "")
	require.NoError(t, err)
	_, err = svc.DashboardStats(context.Background(), "f1")
	require.NoError(t, err)
	require.Equal(t, 2, aggregationCache.Stats().Size)

	svc.InvalidateCache(cache.KeyDashboardStatsAll)
	assert.Equal(t, 1, aggregationCache.Stats().Size)

	svc.InvalidateCache("")
	assert.Equal(t, 0, aggregationCache.Stats().Size)
}
