package tui

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/reqflow/internal/keybinds"
	"github.com/studiowebux/reqflow/internal/variables"
)

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case snapshotMsg:
		// Older timers were superseded by a later edit
		if msg.seq == m.seq {
			m.flushSnapshot()
		}
		return m, nil

	case sendResultMsg:
		m.sending = false
		m.lastResult = msg.result
		if msg.result.Error != "" {
			m.errorMsg = categorizeRequestError(msg.result.Error)
		} else {
			m.errorMsg = ""
			m.statusMsg = fmt.Sprintf("Received %d", msg.result.StatusCode)
		}
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	return m, m.updateFocused(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()

	if len(m.suggestions) > 0 {
		if action, ok := m.opts.Keybinds.Match(keybinds.ContextPicker, key); ok {
			if handled := m.handlePickerAction(action); handled {
				return nil
			}
		}
	}

	if action, ok := m.opts.Keybinds.Match(keybinds.ContextEditor, key); ok {
		return m.handleAction(action)
	}

	cmd := m.updateFocused(msg)
	if m.syncForm() {
		m.refreshSuggestions(false)
		return tea.Batch(cmd, m.scheduleSnapshot())
	}
	return cmd
}

func (m *Model) handleAction(action keybinds.Action) tea.Cmd {
	switch action {
	case keybinds.ActionQuit, keybinds.ActionQuitForce:
		return m.quit()
	case keybinds.ActionUndo:
		m.undo()
	case keybinds.ActionRedo:
		m.redo()
	case keybinds.ActionSave:
		m.save()
	case keybinds.ActionCopyURL:
		m.copyURL()
	case keybinds.ActionSend:
		return m.send()
	case keybinds.ActionNextField:
		m.moveFocus(1)
	case keybinds.ActionPrevField:
		m.moveFocus(-1)
	case keybinds.ActionSuggest:
		m.refreshSuggestions(true)
		if len(m.suggestions) == 0 {
			m.statusMsg = "No variables to suggest"
		}
	case keybinds.ActionToggleHints:
		m.showHints = !m.showHints
	}
	return nil
}

// handlePickerAction reports false for actions the picker does not own
func (m *Model) handlePickerAction(action keybinds.Action) bool {
	switch action {
	case keybinds.ActionPickerUp:
		m.suggestIndex = (m.suggestIndex - 1 + len(m.suggestions)) % len(m.suggestions)
	case keybinds.ActionPickerDown:
		m.suggestIndex = (m.suggestIndex + 1) % len(m.suggestions)
	case keybinds.ActionPickerAccept:
		m.acceptSuggestion()
	case keybinds.ActionPickerClose:
		m.suggestions = nil
	default:
		return false
	}
	return true
}

func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.focus == FieldBody {
		m.body, cmd = m.body.Update(msg)
		return cmd
	}
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return cmd
}

func (m *Model) moveFocus(delta int) {
	m.suggestions = nil
	m.focus = Field((int(m.focus) + delta + int(fieldCount)) % int(fieldCount))
	m.applyFocus()
}

func (m *Model) undo() {
	m.flushSnapshot()
	snapshot, ok := m.opts.History.Undo(m.form.ID)
	if !ok {
		m.statusMsg = "Nothing to undo"
		return
	}
	m.loadForm(snapshot)
	m.suggestions = nil
	m.statusMsg = "Undo"
}

func (m *Model) redo() {
	m.flushSnapshot()
	snapshot, ok := m.opts.History.Redo(m.form.ID)
	if !ok {
		m.statusMsg = "Nothing to redo"
		return
	}
	m.loadForm(snapshot)
	m.suggestions = nil
	m.statusMsg = "Redo"
}

func (m *Model) save() {
	m.flushSnapshot()
	*m.opts.Request = *m.form.Clone()
	if m.opts.Save != nil {
		if err := m.opts.Save(); err != nil {
			m.errorMsg = "Save failed: " + err.Error()
			return
		}
	}
	m.errorMsg = ""
	m.statusMsg = "Request saved"
}

func (m *Model) copyURL() {
	rendered, missing := m.opts.Runner.Prepare(m.form)
	if err := m.opts.Clipboard(rendered.URL); err != nil {
		m.errorMsg = "Copy failed: " + err.Error()
		return
	}
	m.errorMsg = ""
	m.statusMsg = "URL copied"
	if len(missing) > 0 {
		m.statusMsg += " (unresolved: " + strings.Join(missing, ", ") + ")"
	}
}

func (m *Model) send() tea.Cmd {
	if m.sending {
		return nil
	}
	m.sending = true
	m.statusMsg = "Sending..."
	req := m.form.Clone()
	r := m.opts.Runner
	return func() tea.Msg {
		return sendResultMsg{result: r.RunOne(context.Background(), req)}
	}
}

func (m *Model) quit() tea.Cmd {
	m.opts.History.Clear(m.form.ID)
	m.quitting = true
	return tea.Quit
}

// partialToken finds an unclosed "{{" or "${" before the cursor. It returns
// the byte offset where the token starts.
func partialToken(prefix string) (int, bool) {
	start := strings.LastIndex(prefix, "{{")
	if dollar := strings.LastIndex(prefix, "${"); dollar > start {
		start = dollar
	}
	if start < 0 || strings.Contains(prefix[start:], "}") {
		return 0, false
	}
	return start, true
}

// cursorPrefix returns the focused single-line value up to the cursor
func (m *Model) cursorPrefix() (string, bool) {
	if m.focus == FieldBody || m.focus == FieldMethod {
		return "", false
	}
	in := m.inputs[m.focus]
	runes := []rune(in.Value())
	pos := in.Position()
	if pos > len(runes) {
		pos = len(runes)
	}
	return string(runes[:pos]), true
}

// refreshSuggestions rebuilds the picker for the token under the cursor.
// force opens it even without a partial token.
func (m *Model) refreshSuggestions(force bool) {
	m.suggestions = nil
	m.suggestIndex = 0

	prefix, ok := m.cursorPrefix()
	if !ok {
		return
	}

	start, partial := partialToken(prefix)
	if !partial {
		if !force {
			return
		}
		start = len(prefix)
	}

	keys := append(m.opts.Runner.Context().Keys(), variables.DynamicKeys()...)
	m.suggestions = variables.FilterSuggestions(prefix[start:], keys)
	m.suggestAnchor = start
}

func (m *Model) acceptSuggestion() {
	if len(m.suggestions) == 0 {
		return
	}
	choice := m.suggestions[m.suggestIndex]
	m.suggestions = nil

	prefix, ok := m.cursorPrefix()
	if !ok || m.suggestAnchor > len(prefix) {
		return
	}
	in := &m.inputs[m.focus]
	rest := string([]rune(in.Value())[utf8.RuneCountInString(prefix):])
	head := prefix[:m.suggestAnchor] + choice
	in.SetValue(head + rest)
	in.SetCursor(utf8.RuneCountInString(head))

	if m.syncForm() {
		m.seq++
		m.dirty = true
		m.flushSnapshot()
	}
}
