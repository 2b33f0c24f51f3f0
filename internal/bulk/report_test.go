package bulk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiowebux/reqflow/internal/logging"
	"github.com/studiowebux/reqflow/internal/types"
)

func okItem(id string, status int, duration float64) Item {
	return Item{ID: id, Execute: func(context.Context) (*types.RequestResult, error) {
		return &types.RequestResult{RequestID: id, StatusCode: status, DurationMs: duration}, nil
	}}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		result *types.RequestResult
		want   Status
	}{
		{"created", &types.RequestResult{StatusCode: 201}, StatusPassed},
		{"redirect", &types.RequestResult{StatusCode: 302}, StatusPassed},
		{"not found", &types.RequestResult{StatusCode: 404}, StatusFailed},
		{"server error", &types.RequestResult{StatusCode: 500}, StatusFailed},
		{"no status", &types.RequestResult{StatusCode: 0}, StatusFailed},
		{"error with 200", &types.RequestResult{StatusCode: 200, Error: "extract failed"}, StatusFailed},
		{"nil", nil, StatusFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.result))
		})
	}
}

func TestExecuteBulkRunIsolatesFailingItem(t *testing.T) {
	items := []Item{
		okItem("1", 200, 10),
		okItem("2", 201, 20),
		{ID: "3", Execute: func(context.Context) (*types.RequestResult, error) {
			return nil, errors.New("connection refused")
		}},
		okItem("4", 204, 30),
		okItem("5", 200, 40),
	}

	report := ExecuteBulkRun(context.Background(), items, 2, Hooks{})

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 4, report.Passed)
	assert.Equal(t, 1, report.Failed)
	assert.False(t, report.OK())
	require.Len(t, report.Items, 5)
	for i, id := range []string{"1", "2", "3", "4", "5"} {
		assert.Equal(t, id, report.Items[i].ID)
	}

	failed := report.Items[2]
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, 0, failed.StatusCode)
	assert.Equal(t, 0.0, failed.DurationMs)
	assert.Equal(t, "connection refused", failed.Error)

	assert.Equal(t, 30.0, report.Items[3].DurationMs)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
	assert.GreaterOrEqual(t, report.DurationMs, 0.0)
}

func TestExecuteBulkRunClassifiesResults(t *testing.T) {
	items := []Item{
		okItem("created", 201, 1),
		okItem("missing", 404, 1),
		okItem("zero", 0, 1),
		{ID: "errored", Execute: func(context.Context) (*types.RequestResult, error) {
			return &types.RequestResult{StatusCode: 200, Error: "boom"}, nil
		}},
	}

	report := ExecuteBulkRun(context.Background(), items, 4, Hooks{})

	assert.Equal(t, StatusPassed, report.Items[0].Status)
	assert.Equal(t, StatusFailed, report.Items[1].Status)
	assert.Equal(t, 404, report.Items[1].StatusCode)
	assert.Equal(t, StatusFailed, report.Items[2].Status)
	assert.Equal(t, StatusFailed, report.Items[3].Status)
	assert.Equal(t, "boom", report.Items[3].Error)
	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 3, report.Failed)
}

func TestExecuteBulkRunPanicAndNilResult(t *testing.T) {
	items := []Item{
		{ID: "panics", Execute: func(context.Context) (*types.RequestResult, error) { panic("bad") }},
		{ID: "empty", Execute: func(context.Context) (*types.RequestResult, error) { return nil, nil }},
		{ID: "no-exec"},
	}

	report := ExecuteBulkRun(context.Background(), items, 1, Hooks{})

	assert.Equal(t, 3, report.Failed)
	assert.Contains(t, report.Items[0].Error, "bad")
	assert.Equal(t, ErrNoResult.Error(), report.Items[1].Error)
	assert.Contains(t, report.Items[2].Error, "no execute function")
}

func TestExecuteBulkRunHookOrder(t *testing.T) {
	var mu sync.Mutex
	events := map[string][]string{}
	record := func(id, ev string) {
		mu.Lock()
		defer mu.Unlock()
		events[id] = append(events[id], ev)
	}

	hooks := Hooks{
		OnItemStart: func(_ context.Context, id string) error { record(id, "start"); return nil },
		OnItemDone: func(_ context.Context, id string, _ *types.RequestResult) error {
			record(id, "done")
			return nil
		},
		OnItemError: func(_ context.Context, id string, _ error) error { record(id, "error"); return nil },
	}

	var items []Item
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("r%d", i)
		if i%3 == 0 {
			items = append(items, Item{ID: id, Execute: func(context.Context) (*types.RequestResult, error) {
				return nil, errors.New("fail")
			}})
			continue
		}
		items = append(items, okItem(id, 200, 1))
	}

	ExecuteBulkRun(context.Background(), items, 3, hooks)

	for i, item := range items {
		want := []string{"start", "done"}
		if i%3 == 0 {
			want = []string{"start", "error"}
		}
		assert.Equal(t, want, events[item.ID], item.ID)
	}
}

func TestExecuteBulkRunHookFailuresAreIgnored(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), logging.New(slog.LevelDebug, &buf))

	hooks := Hooks{
		OnItemStart: func(context.Context, string) error { return errors.New("ui gone") },
		OnItemDone:  func(context.Context, string, *types.RequestResult) error { panic("render failed") },
	}

	report := ExecuteBulkRun(ctx, []Item{okItem("a", 200, 5), okItem("b", 200, 5)}, 2, hooks)

	assert.Equal(t, 2, report.Passed)
	assert.True(t, report.OK())
	assert.Contains(t, buf.String(), "bulk hook failed")
	assert.Contains(t, buf.String(), "bulk hook panicked")
}

func TestExecuteBulkRunEmpty(t *testing.T) {
	report := ExecuteBulkRun(context.Background(), nil, 4, Hooks{})
	assert.Equal(t, 0, report.Total)
	assert.Empty(t, report.Items)
	assert.True(t, report.OK())
}

func TestReportStats(t *testing.T) {
	report := ExecuteBulkRun(context.Background(), []Item{
		okItem("a", 200, 10),
		okItem("b", 200, 20),
		okItem("c", 500, 30),
		okItem("d", 200, 40),
	}, 2, Hooks{})

	stats := report.Stats()
	assert.Equal(t, 4, stats.Count)
	assert.Equal(t, 10.0, stats.Min())
	assert.Equal(t, 40.0, stats.Max())
	assert.Equal(t, 25.0, stats.AvgDurationMs())
	assert.Equal(t, 25.0, stats.P50())
	assert.Equal(t, 75.0, stats.SuccessRate())
}

func TestStatsEmpty(t *testing.T) {
	s := NewStats()
	assert.Equal(t, 0.0, s.Min())
	assert.Equal(t, 0.0, s.Max())
	assert.Equal(t, 0.0, s.AvgDurationMs())
	assert.Equal(t, 0.0, s.P99())
	assert.Equal(t, 0.0, s.SuccessRate())
}
