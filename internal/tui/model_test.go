package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNew_SeedsHistory(t *testing.T) {
	h := newTestHarness(t)

	AssertModelField(t, "focus", h.m.Focused(), FieldURL)
	AssertModelField(t, "history length", h.history.Len("req-1"), 1)
	AssertModelField(t, "can undo", h.history.CanUndo("req-1"), false)
	AssertModelField(t, "form URL", h.m.Form().URL, "http://{{host}}/a")
}

func TestNew_RequiresRequest(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("Expected error without a request")
	}
}

func TestEdit_DebouncedCapture(t *testing.T) {
	h := newTestHarness(t)

	if cmd := h.typeText("b"); cmd == nil {
		t.Fatal("Expected an edit to schedule a snapshot")
	}
	AssertModelField(t, "form URL", h.m.Form().URL, "http://{{host}}/ab")
	AssertModelField(t, "history before timer", h.history.Len("req-1"), 1)

	h.settle()
	AssertModelField(t, "history after timer", h.history.Len("req-1"), 2)
}

func TestEdit_StaleTimerIgnored(t *testing.T) {
	h := newTestHarness(t)

	h.typeText("b")
	stale := h.m.seq
	h.typeText("c")

	h.m.Update(snapshotMsg{seq: stale})
	AssertModelField(t, "history after stale timer", h.history.Len("req-1"), 1)

	h.settle()
	AssertModelField(t, "history after latest timer", h.history.Len("req-1"), 2)

	// The latest timer firing again changes nothing
	h.settle()
	AssertModelField(t, "history after repeat", h.history.Len("req-1"), 2)
}

func TestUndoRedo(t *testing.T) {
	h := newTestHarness(t)

	h.typeText("b")
	h.settle()
	h.typeText("c")
	h.settle()

	h.press(tea.KeyCtrlZ)
	AssertModelField(t, "after first undo", h.m.Form().URL, "http://{{host}}/ab")
	h.press(tea.KeyCtrlZ)
	AssertModelField(t, "after second undo", h.m.Form().URL, "http://{{host}}/a")
	h.press(tea.KeyCtrlZ)
	AssertModelField(t, "undo at oldest", h.m.statusMsg, "Nothing to undo")

	h.press(tea.KeyCtrlY)
	AssertModelField(t, "after redo", h.m.Form().URL, "http://{{host}}/ab")
	AssertModelField(t, "input follows redo", h.m.inputs[FieldURL].Value(), "http://{{host}}/ab")
}

func TestUndoFlushesPendingEdit(t *testing.T) {
	h := newTestHarness(t)

	// No timer delivered: undo must still see the edit
	h.typeText("xyz")
	h.press(tea.KeyCtrlZ)

	AssertModelField(t, "form URL", h.m.Form().URL, "http://{{host}}/a")
	AssertModelField(t, "can redo", h.history.CanRedo("req-1"), true)
}

func TestNewEditDropsRedoBranch(t *testing.T) {
	h := newTestHarness(t)

	h.typeText("b")
	h.settle()
	h.press(tea.KeyCtrlZ)
	h.typeText("z")
	h.settle()

	AssertModelField(t, "can redo", h.history.CanRedo("req-1"), false)
	AssertModelField(t, "history length", h.history.Len("req-1"), 2)
}

func TestSave_WritesBackRequest(t *testing.T) {
	h := newTestHarness(t)

	h.typeText("b")
	h.press(tea.KeyCtrlS)

	AssertModelField(t, "saves", h.saves, 1)
	AssertModelField(t, "collection request URL", h.request.URL, "http://{{host}}/ab")
	AssertModelField(t, "status", h.m.statusMsg, "Request saved")
	AssertModelField(t, "history flushed", h.history.Len("req-1"), 2)
}

func TestCopyURL_Rendered(t *testing.T) {
	h := newTestHarness(t)

	h.press(tea.KeyCtrlO)

	if len(h.copied) != 1 || h.copied[0] != "http://api.local/a" {
		t.Errorf("Expected rendered URL on clipboard, got %v", h.copied)
	}
	AssertModelField(t, "status", h.m.statusMsg, "URL copied")
}

func TestSend_UsesRenderedRequest(t *testing.T) {
	h := newTestHarness(t)

	cmd := h.press(tea.KeyCtrlR)
	if cmd == nil {
		t.Fatal("Expected a send command")
	}
	AssertModelField(t, "sending", h.m.sending, true)

	h.m.Update(cmd())
	AssertModelField(t, "sending after result", h.m.sending, false)
	if h.m.lastResult == nil || h.m.lastResult.StatusCode != 201 {
		t.Errorf("Expected result 201, got %+v", h.m.lastResult)
	}
	if len(h.sentURLs) != 1 || h.sentURLs[0] != "http://api.local/a" {
		t.Errorf("Unexpected sent URLs: %v", h.sentURLs)
	}
}

func TestStatusBar_ShowsUnresolved(t *testing.T) {
	h := newTestHarness(t)

	if !strings.Contains(h.m.renderStatusBar(), "All variables resolved") {
		t.Error("Expected resolved status")
	}

	h.typeText("/{{userId}}")
	bar := h.m.renderStatusBar()
	if !strings.Contains(bar, "Unresolved: userId") {
		t.Errorf("Expected unresolved userId in %q", bar)
	}
}

func TestSuggestions_AcceptCompletesToken(t *testing.T) {
	h := newTestHarness(t)

	h.typeText("/{{ho")
	if len(h.m.suggestions) == 0 {
		t.Fatal("Expected suggestions for a partial token")
	}
	AssertModelField(t, "first suggestion", h.m.suggestions[0], "{{host}}")

	h.press(tea.KeyEnter)
	AssertModelField(t, "form URL", h.m.Form().URL, "http://{{host}}/a/{{host}}")
	AssertModelField(t, "picker closed", len(h.m.suggestions), 0)
}

func TestSuggestions_EscClosesPicker(t *testing.T) {
	h := newTestHarness(t)

	h.typeText("{{")
	if len(h.m.suggestions) == 0 {
		t.Fatal("Expected suggestions")
	}
	h.press(tea.KeyEsc)
	AssertModelField(t, "picker closed", len(h.m.suggestions), 0)
	AssertModelField(t, "still running", h.m.quitting, false)
}

func TestFocusCycles(t *testing.T) {
	h := newTestHarness(t)

	h.press(tea.KeyTab)
	AssertModelField(t, "after tab", h.m.Focused(), FieldBody)
	h.press(tea.KeyTab)
	AssertModelField(t, "wraps", h.m.Focused(), FieldName)
	h.press(tea.KeyShiftTab)
	AssertModelField(t, "shift+tab", h.m.Focused(), FieldBody)
}

func TestQuit_ClearsHistory(t *testing.T) {
	h := newTestHarness(t)
	h.typeText("b")
	h.settle()

	cmd := h.press(tea.KeyCtrlC)
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
	AssertModelField(t, "history length", h.history.Len("req-1"), 0)
	AssertModelField(t, "view", h.m.View(), "")
}

func TestPartialToken(t *testing.T) {
	tests := []struct {
		prefix string
		start  int
		ok     bool
	}{
		{"http://{{ho", 7, true},
		{"a ${x", 2, true},
		{"{{a}} {{b", 6, true},
		{"{{done}}", 0, false},
		{"plain", 0, false},
	}
	for _, tt := range tests {
		start, ok := partialToken(tt.prefix)
		if ok != tt.ok || (ok && start != tt.start) {
			t.Errorf("partialToken(%q) = %d, %v; want %d, %v", tt.prefix, start, ok, tt.start, tt.ok)
		}
	}
}
