package bulk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studiowebux/reqflow/internal/logging"
	"github.com/studiowebux/reqflow/internal/types"
)

// ErrNoResult is recorded for an item whose execute call returned neither a
// result nor an error
var ErrNoResult = errors.New("execute returned no result")

// Status is the pass/fail outcome of one report item
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// Item is one unit of work in a bulk run. ID is only passed through to hooks
// and the report.
type Item struct {
	ID      string
	Execute func(ctx context.Context) (*types.RequestResult, error)
}

// Hooks are optional lifecycle notifications. Each is called at most once per
// item, start first, then exactly one of done or error. A hook that returns
// an error or panics is logged and otherwise ignored.
type Hooks struct {
	OnItemStart func(ctx context.Context, id string) error
	OnItemDone  func(ctx context.Context, id string, result *types.RequestResult) error
	OnItemError func(ctx context.Context, id string, err error) error
}

// ReportItem is the outcome of one item in a bulk run
type ReportItem struct {
	ID         string               `json:"id" yaml:"id"`
	Status     Status               `json:"status" yaml:"status"`
	StatusCode int                  `json:"status_code" yaml:"status_code"`
	DurationMs float64              `json:"duration_ms" yaml:"duration_ms"`
	Error      string               `json:"error,omitempty" yaml:"error,omitempty"`
	Result     *types.RequestResult `json:"-" yaml:"-"`
}

// Report summarises a bulk run. Timing covers the whole run.
type Report struct {
	Total      int          `json:"total" yaml:"total"`
	Passed     int          `json:"passed" yaml:"passed"`
	Failed     int          `json:"failed" yaml:"failed"`
	StartedAt  time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time    `json:"finished_at" yaml:"finished_at"`
	DurationMs float64      `json:"duration_ms" yaml:"duration_ms"`
	Items      []ReportItem `json:"items" yaml:"items"`
}

// OK reports whether every item passed
func (r *Report) OK() bool {
	return r.Failed == 0
}

// Stats computes duration statistics over the report items
func (r *Report) Stats() *Stats {
	s := NewStats()
	for _, item := range r.Items {
		s.AddResult(item.DurationMs, item.Status == StatusPassed)
	}
	return s
}

// Classify applies the pass rule to a result: a missing result, a status
// code of 0 or >= 400, or a non-empty error all fail
func Classify(result *types.RequestResult) Status {
	if result == nil {
		return StatusFailed
	}
	if result.StatusCode == 0 || result.StatusCode >= 400 || result.Error != "" {
		return StatusFailed
	}
	return StatusPassed
}

// ExecuteBulkRun runs every item through RunWithConcurrency, fires hooks and
// builds the report. Items appear in the report in input order.
func ExecuteBulkRun(ctx context.Context, items []Item, concurrency int, hooks Hooks) *Report {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.FromContext(ctx)

	report := &Report{
		Total:     len(items),
		StartedAt: time.Now(),
	}
	logger.Debug("bulk run started", "items", len(items), "concurrency", ClampConcurrency(concurrency, len(items)))

	worker := func(ctx context.Context, item Item, _ int) (ReportItem, error) {
		callHook(ctx, "on_item_start", item.ID, func() error {
			if hooks.OnItemStart == nil {
				return nil
			}
			return hooks.OnItemStart(ctx, item.ID)
		})

		result, err := runItem(ctx, item)
		if err != nil {
			callHook(ctx, "on_item_error", item.ID, func() error {
				if hooks.OnItemError == nil {
					return nil
				}
				return hooks.OnItemError(ctx, item.ID, err)
			})
			return ReportItem{}, err
		}

		callHook(ctx, "on_item_done", item.ID, func() error {
			if hooks.OnItemDone == nil {
				return nil
			}
			return hooks.OnItemDone(ctx, item.ID, result)
		})
		return ReportItem{
			ID:         item.ID,
			Status:     Classify(result),
			StatusCode: result.StatusCode,
			DurationMs: result.DurationMs,
			Error:      result.Error,
			Result:     result,
		}, nil
	}

	settlements := RunWithConcurrency(ctx, items, worker, concurrency)

	report.Items = make([]ReportItem, len(items))
	for i, s := range settlements {
		row := s.Value
		if s.Err != nil {
			row = ReportItem{
				ID:     items[i].ID,
				Status: StatusFailed,
				Error:  s.Err.Error(),
			}
		}
		if row.Status == StatusPassed {
			report.Passed++
		} else {
			report.Failed++
		}
		report.Items[i] = row
	}

	report.FinishedAt = time.Now()
	report.DurationMs = float64(report.FinishedAt.Sub(report.StartedAt).Microseconds()) / 1000
	logger.Debug("bulk run finished", "passed", report.Passed, "failed", report.Failed, "duration_ms", report.DurationMs)

	return report
}

// runItem calls item.Execute, turning a panic or an empty return into an error
func runItem(ctx context.Context, item Item) (result *types.RequestResult, err error) {
	if item.Execute == nil {
		return nil, fmt.Errorf("item %s has no execute function", item.ID)
	}
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, &PanicError{Value: r}
		}
	}()

	result, err = item.Execute(ctx)
	if err == nil && result == nil {
		err = ErrNoResult
	}
	return result, err
}

func callHook(ctx context.Context, name, id string, fn func() error) {
	logger := logging.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("bulk hook panicked", "hook", name, "item", id, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		logger.Warn("bulk hook failed", "hook", name, "item", id, "error", err)
	}
}
