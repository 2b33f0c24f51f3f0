package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/reqflow/internal/executor"
	"github.com/studiowebux/reqflow/internal/keybinds"
)

// Color palette
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#008000", Dark: "#00ff00"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#cc0000", Dark: "#ff5555"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffff00"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"}
)

// Style definitions
var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	styleSelected = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#d3d3d3", Dark: "#3a3a3a"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"})

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	styleSubtle = lipgloss.NewStyle().
			Foreground(colorGray)

	styleLabel = lipgloss.NewStyle().
			Width(8).
			Foreground(colorGray)

	styleLabelFocused = styleLabel.
				Foreground(colorCyan).
				Bold(true)

	stylePicker = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorCyan).
			Padding(0, 1)
)

const maxVisibleSuggestions = 6

// View implements tea.Model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render("Edit request"))
	b.WriteString("\n\n")

	labels := [FieldBody]string{"Name", "Method", "URL"}
	for i := range m.inputs {
		b.WriteString(m.label(Field(i), labels[i]))
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
		if Field(i) == m.focus && len(m.suggestions) > 0 {
			b.WriteString(m.renderSuggestions())
			b.WriteString("\n")
		}
	}

	b.WriteString(m.label(FieldBody, "Body"))
	b.WriteString("\n")
	b.WriteString(m.body.View())
	b.WriteString("\n\n")

	if line := m.renderResult(); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(m.renderStatusBar())
	if m.showHints {
		b.WriteString("\n")
		b.WriteString(m.renderHints())
	}
	return b.String()
}

func (m *Model) label(f Field, text string) string {
	if f == m.focus {
		return styleLabelFocused.Render(text)
	}
	return styleLabel.Render(text)
}

func (m *Model) renderSuggestions() string {
	start := 0
	if m.suggestIndex >= maxVisibleSuggestions {
		start = m.suggestIndex - maxVisibleSuggestions + 1
	}
	end := min(start+maxVisibleSuggestions, len(m.suggestions))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		if i == m.suggestIndex {
			lines = append(lines, styleSelected.Render(m.suggestions[i]))
		} else {
			lines = append(lines, m.suggestions[i])
		}
	}
	return stylePicker.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderResult() string {
	if m.sending {
		return styleSubtle.Render("Sending...")
	}
	r := m.lastResult
	if r == nil {
		return ""
	}

	statusStyle := styleSuccess
	switch {
	case r.StatusCode == 0 || r.StatusCode >= 400:
		statusStyle = styleError
	case r.StatusCode >= 300:
		statusStyle = styleWarning
	}
	status := r.StatusText
	if status == "" {
		status = fmt.Sprintf("%d", r.StatusCode)
	}
	return fmt.Sprintf("%s  %s  %s",
		statusStyle.Render(status),
		executor.FormatDuration(r.DurationMs),
		executor.FormatSize(r.BodyBytes))
}

// renderStatusBar shows unresolved variables on the left and history state on the right
func (m *Model) renderStatusBar() string {
	left := styleSuccess.Render("All variables resolved")
	if missing := m.opts.Runner.Unresolved(m.form); len(missing) > 0 {
		left = styleWarning.Render("Unresolved: " + strings.Join(missing, ", "))
	}

	id := m.form.ID
	undo, redo := styleSubtle.Render("undo"), styleSubtle.Render("redo")
	if m.opts.History.CanUndo(id) {
		undo = styleSuccess.Render("undo")
	}
	if m.opts.History.CanRedo(id) {
		redo = styleSuccess.Render("redo")
	}
	right := fmt.Sprintf("%s %s %d/%d", undo, redo, m.opts.History.Index(id)+1, m.opts.History.Len(id))

	switch {
	case m.errorMsg != "":
		right = styleError.Render(m.errorMsg) + "  " + right
	case m.statusMsg != "":
		right = m.statusMsg + "  " + right
	}

	spacing := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacing < 1 {
		spacing = 1
	}
	return left + strings.Repeat(" ", spacing) + right
}

func (m *Model) renderHints() string {
	kb := m.opts.Keybinds
	hint := func(action keybinds.Action, text string) string {
		return kb.Describe(keybinds.ContextEditor, action) + ": " + text
	}
	return styleSubtle.Render(strings.Join([]string{
		hint(keybinds.ActionUndo, "undo"),
		hint(keybinds.ActionRedo, "redo"),
		hint(keybinds.ActionSave, "save"),
		hint(keybinds.ActionSend, "send"),
		hint(keybinds.ActionCopyURL, "copy URL"),
		hint(keybinds.ActionSuggest, "variables"),
		hint(keybinds.ActionQuit, "quit"),
	}, " • "))
}

// resize fits the inputs to the window
func (m *Model) resize() {
	width := m.width - 10
	if width < 20 {
		width = 20
	}
	for i := range m.inputs {
		m.inputs[i].Width = width
	}
	m.body.SetWidth(width)

	// title, three inputs, body label, result, status, hints
	height := m.height - 10
	if height < 3 {
		height = 3
	}
	m.body.SetHeight(height)
}
