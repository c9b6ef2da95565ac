package services

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leonalhidayah/e-commerce-dashboard/internal/analytics"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/dataset"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/errors"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/models"
)

// Reports owns the read-only dataset handle and the snapshot of the most
// recent recompute. Recompute swaps the snapshot wholesale under the lock,
// so overlapping requests follow last-request-wins: readers always see one
// complete, internally consistent set of tables, never a partial merge.
type Reports struct {
	mu        sync.RWMutex
	snapshot  models.Summary
	ds        *dataset.Dataset
	reference time.Time
	logger    *slog.Logger
}

func NewReports(ds *dataset.Dataset, reference time.Time, logger *slog.Logger) *Reports {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reports{
		ds:        ds,
		reference: reference,
		logger:    logger,
	}
	// Initial snapshot covers the full dataset span.
	start, end := ds.Span()
	r.snapshot = r.compute(start, end)
	return r
}

// FullRange returns the dataset's purchase-date span, the default filter.
func (r *Reports) FullRange() (time.Time, time.Time) {
	return r.ds.Span()
}

// Recompute validates the filter range, runs all four transforms over the
// filtered rows, installs the result as the current snapshot, and returns
// it. Zero start/end values default to the dataset span. A range that
// yields no rows is not an error: the tables come back empty.
func (r *Reports) Recompute(start, end time.Time) (models.Summary, error) {
	minDate, maxDate := r.ds.Span()

	if start.IsZero() {
		start = minDate
	}
	if end.IsZero() {
		end = maxDate
	}

	if start.After(end) {
		return models.Summary{}, errors.FilterRange(
			fmt.Sprintf("start date %s is after end date %s",
				start.Format(time.DateOnly), end.Format(time.DateOnly)))
	}
	// Only ranges fully disjoint from the span are rejected. A range that
	// merely sticks out on one side still selects rows and is clamped by
	// the filter itself.
	if dayOf(end).Before(dayOf(minDate)) || dayOf(start).After(dayOf(maxDate)) {
		return models.Summary{}, errors.FilterRange(
			fmt.Sprintf("range [%s, %s] is outside the dataset span [%s, %s]",
				start.Format(time.DateOnly), end.Format(time.DateOnly),
				minDate.Format(time.DateOnly), maxDate.Format(time.DateOnly)))
	}

	summary := r.compute(start, end)

	r.mu.Lock()
	r.snapshot = summary
	r.mu.Unlock()

	r.logger.Info("report recomputed",
		"start", summary.RangeStart,
		"end", summary.RangeEnd,
		"orders", summary.TotalOrders,
		"customers", len(summary.RFM))

	return summary, nil
}

func (r *Reports) compute(start, end time.Time) models.Summary {
	rows := analytics.FilterByDateRange(r.ds.Rows(), start, end)
	summary := analytics.Summarize(rows, r.reference)
	summary.RangeStart = start.Format(time.DateOnly)
	summary.RangeEnd = end.Format(time.DateOnly)
	return summary
}

// Summary returns the current snapshot.
func (r *Reports) Summary() models.Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

func (r *Reports) Stats() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	minDate, maxDate := r.ds.Span()
	return map[string]any{
		"dataset_rows":    r.ds.Len(),
		"dataset_skipped": r.ds.Skipped(),
		"dataset_span":    [2]string{minDate.Format(time.DateOnly), maxDate.Format(time.DateOnly)},
		"loaded_at":       r.ds.LoadedAt(),
		"computed_at":     r.snapshot.ComputedAt,
		"range":           [2]string{r.snapshot.RangeStart, r.snapshot.RangeEnd},
		"days":            len(r.snapshot.DailyOrders),
		"cities":          len(r.snapshot.CityCustomers),
		"categories":      len(r.snapshot.CategorySales),
		"customers":       len(r.snapshot.RFM),
	}
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
