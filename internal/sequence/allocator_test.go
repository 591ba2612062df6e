package sequence

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protomforms/response-service/internal/domain/model"
)

// fakeFormGetter serves forms from a map, mimicking the repository contract
// of nil-without-error for a missing form.
type fakeFormGetter struct {
	forms map[string]*model.Form
	err   error
}

func (f *fakeFormGetter) GetForm(ctx context.Context, formID string) (*model.Form, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.forms[formID], nil
}

// fakeCounterStore is an in-memory atomic counter with optional injected
// failures for the first failUntil calls.
type fakeCounterStore struct {
	mu        sync.Mutex
	counters  map[string]int64
	calls     int
	failUntil int
	failErr   error
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{counters: make(map[string]int64)}
}

func (f *fakeCounterStore) IncrementAndGet(ctx context.Context, formID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.calls <= f.failUntil {
		return 0, f.failErr
	}
	f.counters[formID]++
	return f.counters[formID], nil
}

func (f *fakeCounterStore) Remove(ctx context.Context, formID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.counters, formID)
	return nil
}

func publishedForm(id string) *model.Form {
	return &model.Form{ID: id, Status: model.FormStatusPublished}
}

func TestAllocator_Allocate_Sequential(t *testing.T) {
	forms := &fakeFormGetter{forms: map[string]*model.Form{"f1": publishedForm("f1")}}
	allocator := NewAllocator(forms, newFakeCounterStore(), 3)

	for want := int64(1); want <= 5; want++ {
		got, err := allocator.Allocate(context.Background(), "f1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestAllocator_Allocate_IndependentPerForm(t *testing.T) {
	forms := &fakeFormGetter{forms: map[string]*model.Form{
		"f1": publishedForm("f1"),
		"f2": publishedForm("f2"),
	}}
	allocator := NewAllocator(forms, newFakeCounterStore(), 3)

	for i := 0; i < 3; i++ {
		_, err := allocator.Allocate(context.Background(), "f1")
		require.NoError(t, err)
	}

	got, err := allocator.Allocate(context.Background(), "f2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got, "each form owns its own sequence")
}

func TestAllocator_Allocate_FormNotFound(t *testing.T) {
	tests := []struct {
		name  string
		forms map[string]*model.Form
	}{
		{
			name:  "missing form",
			forms: map[string]*model.Form{},
		},
		{
			name: "deleted form",
			forms: map[string]*model.Form{
				"f1": {ID: "f1", Status: model.FormStatusPublished, Deleted: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counters := newFakeCounterStore()
			allocator := NewAllocator(&fakeFormGetter{forms: tt.forms}, counters, 3)

			_, err := allocator.Allocate(context.Background(), "f1")

			assert.ErrorIs(t, err, ErrFormNotFound)
			assert.Equal(t, 0, counters.calls, "counter must not move for an invalid scope")
		})
	}
}

func TestAllocator_Allocate_FormLookupError(t *testing.T) {
	lookupErr := errors.New("connection reset")
	allocator := NewAllocator(&fakeFormGetter{err: lookupErr}, newFakeCounterStore(), 3)

	_, err := allocator.Allocate(context.Background(), "f1")

	assert.ErrorIs(t, err, lookupErr)
}

func TestAllocator_Allocate_RetriesTransientErrors(t *testing.T) {
	forms := &fakeFormGetter{forms: map[string]*model.Form{"f1": publishedForm("f1")}}
	counters := newFakeCounterStore()
	counters.failUntil = 2
	counters.failErr = errors.New("write conflict")

	allocator := NewAllocator(forms, counters, 3)

	got, err := allocator.Allocate(context.Background(), "f1")

	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
	assert.Equal(t, 3, counters.calls)
}

func TestAllocator_Allocate_ExhaustsRetryBudget(t *testing.T) {
	forms := &fakeFormGetter{forms: map[string]*model.Form{"f1": publishedForm("f1")}}
	counters := newFakeCounterStore()
	counters.failUntil = 100
	counters.failErr = errors.New("write conflict")

	allocator := NewAllocator(forms, counters, 3)

	_, err := allocator.Allocate(context.Background(), "f1")

	assert.ErrorIs(t, err, ErrAllocationFailed)
	assert.Equal(t, 3, counters.calls, "retries stop at the budget")
}

func TestAllocator_Allocate_ContextCanceled(t *testing.T) {
	forms := &fakeFormGetter{forms: map[string]*model.Form{"f1": publishedForm("f1")}}
	counters := newFakeCounterStore()
	counters.failUntil = 100
	counters.failErr = errors.New("write conflict")

	allocator := NewAllocator(forms, counters, 5)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()

	_, err := allocator.Allocate(ctx, "f1")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAllocator_MaxRetriesClamped(t *testing.T) {
	forms := &fakeFormGetter{forms: map[string]*model.Form{"f1": publishedForm("f1")}}
	counters := newFakeCounterStore()
	counters.failUntil = 1
	counters.failErr = errors.New("write conflict")

	allocator := NewAllocator(forms, counters, 0)

	_, err := allocator.Allocate(context.Background(), "f1")

	assert.ErrorIs(t, err, ErrAllocationFailed)
	assert.Equal(t, 1, counters.calls)
}

func TestAllocator_Allocate_ConcurrentUniqueness(t *testing.T) {
	forms := &fakeFormGetter{forms: map[string]*model.Form{"f1": publishedForm("f1")}}
	allocator := NewAllocator(forms, newFakeCounterStore(), 3)

	const n = 100
	results := make([]int64, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = allocator.Allocate(context.Background(), "f1")
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
	}

	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	for i := 0; i < n; i++ {
		assert.Equal(t, int64(i+1), results[i], "numbers must be exactly 1..n with no duplicates")
	}
}
