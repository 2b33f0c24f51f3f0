package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/reqflow/internal/revision"
	"github.com/studiowebux/reqflow/internal/runner"
	"github.com/studiowebux/reqflow/internal/types"
)

// testHarness bundles a model with the fakes behind it
type testHarness struct {
	m        *Model
	request  *types.HttpRequest
	history  *revision.Store
	copied   []string
	saves    int
	sentURLs []string
}

// newTestHarness creates an editor on a request with URL http://{{host}}/a,
// where host resolves to "api.local"
func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	h := &testHarness{
		request: &types.HttpRequest{ID: "req-1", Name: "Users", Method: "GET", URL: "http://{{host}}/a"},
		history: revision.NewStore(revision.Options{}),
	}
	r := runner.New(map[string]any{"host": "api.local"}, nil,
		runner.WithSender(func(_ context.Context, req *types.HttpRequest) *types.RequestResult {
			h.sentURLs = append(h.sentURLs, req.URL)
			return &types.RequestResult{StatusCode: 201, StatusText: "201 Created", DurationMs: 3}
		}))

	m, err := New(Options{
		Request: h.request,
		Runner:  r,
		History: h.history,
		Save: func() error {
			h.saves++
			return nil
		},
		Clipboard: func(s string) error {
			h.copied = append(h.copied, s)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	h.m = m
	return h
}

// typeText sends each rune as a key press and returns the last command
func (h *testHarness) typeText(s string) tea.Cmd {
	var cmd tea.Cmd
	for _, r := range s {
		_, cmd = h.m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return cmd
}

// press sends a special key
func (h *testHarness) press(k tea.KeyType) tea.Cmd {
	_, cmd := h.m.Update(tea.KeyMsg{Type: k})
	return cmd
}

// settle delivers the snapshot timer for the latest edit
func (h *testHarness) settle() {
	h.m.Update(snapshotMsg{seq: h.m.seq})
}

// AssertModelField checks a single model property
func AssertModelField(t *testing.T, name string, got, want interface{}) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}
