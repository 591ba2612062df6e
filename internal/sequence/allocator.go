// Package sequence assigns per-form progressive numbers to submitted
// responses. Numbers are unique and strictly increasing within a form; for
// anonymous forms they are the only identity a respondent gets.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/protomforms/response-service/internal/domain/model"
	"github.com/protomforms/response-service/internal/metrics"
)

var (
	// ErrFormNotFound is returned when allocation is requested for a missing
	// or deleted form scope.
	ErrFormNotFound = errors.New("sequence: form not found")
	// ErrAllocationFailed is returned when the atomic counter step exhausts
	// its retry budget.
	ErrAllocationFailed = errors.New("sequence: allocation failed")
)

// FormGetter looks up the form that owns a counter scope.
type FormGetter interface {
	GetForm(ctx context.Context, formID string) (*model.Form, error)
}

// CounterStore is the persistent authority for the last-assigned number per
// form. IncrementAndGet must be atomic with respect to concurrent callers on
// the same formID, including callers in other process instances.
type CounterStore interface {
	IncrementAndGet(ctx context.Context, formID string) (int64, error)
	// Remove drops the counter for a deleted form.
	Remove(ctx context.Context, formID string) error
}

const retryBackoff = 10 * time.Millisecond

// Allocator hands out the next progressive number for a form. Contention is
// resolved by the counter store's atomicity primitive, not by an in-process
// lock, so allocations for different forms never contend and correctness
// holds across multiple instances.
type Allocator struct {
	forms      FormGetter
	counters   CounterStore
	maxRetries int
}

// NewAllocator creates an Allocator. maxRetries bounds retries of the atomic
// step on transient store errors; values below 1 are clamped to 1.
func NewAllocator(forms FormGetter, counters CounterStore, maxRetries int) *Allocator {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Allocator{
		forms:      forms,
		counters:   counters,
		maxRetries: maxRetries,
	}
}

// Allocate returns the next progressive number for formID. The form must
// exist and not be deleted (ErrFormNotFound otherwise). On transient counter
// errors the atomic step is retried up to the budget, then
// ErrAllocationFailed is surfaced; a duplicate is never returned.
func (a *Allocator) Allocate(ctx context.Context, formID string) (int64, error) {
	start := time.Now()

	form, err := a.forms.GetForm(ctx, formID)
	if err != nil {
		metrics.RecordAllocation(time.Since(start), "lookup_error")
		return 0, fmt.Errorf("sequence: form lookup: %w", err)
	}
	if form == nil || form.Deleted {
		metrics.RecordAllocation(time.Since(start), "not_found")
		return 0, fmt.Errorf("%w: %s", ErrFormNotFound, formID)
	}

	var lastErr error
	for attempt := 0; attempt < a.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				metrics.RecordAllocation(time.Since(start), "canceled")
				return 0, ctx.Err()
			case <-time.After(retryBackoff << attempt):
			}
		}

		value, err := a.counters.IncrementAndGet(ctx, formID)
		if err == nil {
			metrics.RecordAllocation(time.Since(start), "success")
			return value, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			metrics.RecordAllocation(time.Since(start), "canceled")
			return 0, err
		}
		lastErr = err
	}

	metrics.RecordAllocation(time.Since(start), "exhausted")
	return 0, fmt.Errorf("%w after %d attempts: %v", ErrAllocationFailed, a.maxRetries, lastErr)
}
