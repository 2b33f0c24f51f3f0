package tui

import (
	"errors"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/reqflow/internal/keybinds"
	"github.com/studiowebux/reqflow/internal/revision"
	"github.com/studiowebux/reqflow/internal/runner"
	"github.com/studiowebux/reqflow/internal/types"
)

// Field identifies a focusable editor input
type Field int

const (
	FieldName Field = iota
	FieldMethod
	FieldURL
	FieldBody
	fieldCount
)

// DefaultDebounce is used when Options.Debounce is zero
const DefaultDebounce = 400 * time.Millisecond

// Options wires the editor to the rest of the application
type Options struct {
	// Request is the collection entry being edited. It is only written on save.
	Request  *types.HttpRequest
	Runner   *runner.Runner
	History  *revision.Store
	Keybinds *keybinds.Registry
	Debounce time.Duration

	// Save persists the collection after Request was updated
	Save func() error
	// Clipboard defaults to the system clipboard
	Clipboard func(string) error
}

// snapshotMsg fires when the debounce timer for edit seq expires
type snapshotMsg struct {
	seq int
}

// sendResultMsg carries the outcome of an async send
type sendResultMsg struct {
	result *types.RequestResult
}

// Model is the request editor
type Model struct {
	opts Options

	// form is the live snapshot; it always mirrors the inputs
	form   *types.HttpRequest
	inputs [FieldBody]textinput.Model
	body   textarea.Model
	focus  Field

	// seq increments on every edit; only the newest timer captures
	seq   int
	dirty bool

	suggestions   []string
	suggestIndex  int
	suggestAnchor int // byte offset where the partial token starts

	sending    bool
	lastResult *types.RequestResult

	width     int
	height    int
	statusMsg string
	errorMsg  string
	showHints bool
	quitting  bool
}

// New creates an editor for opts.Request and seeds its revision history
func New(opts Options) (*Model, error) {
	if opts.Request == nil {
		return nil, errors.New("no request to edit")
	}
	if opts.Runner == nil {
		opts.Runner = runner.New(nil, nil)
	}
	if opts.History == nil {
		opts.History = revision.NewStore(revision.Options{})
	}
	if opts.Keybinds == nil {
		opts.Keybinds = keybinds.NewDefaultRegistry()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}

	m := &Model{
		opts:      opts,
		form:      opts.Request.Clone(),
		focus:     FieldURL,
		width:     80,
		height:    24,
		showHints: true,
	}

	placeholders := [FieldBody]string{"Request name", "GET", "https://api.example.com/{{path}}"}
	for i := range m.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholders[i]
		m.inputs[i] = in
	}
	m.inputs[FieldMethod].CharLimit = 10

	m.body = textarea.New()
	m.body.Placeholder = "Body"
	m.body.ShowLineNumbers = false
	m.body.SetHeight(8)

	m.loadForm(m.form)
	m.applyFocus()

	if err := opts.History.Init(m.form.ID, m.form); err != nil {
		m.errorMsg = "History disabled: " + err.Error()
	}
	return m, nil
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Form returns a copy of the live form
func (m *Model) Form() *types.HttpRequest {
	return m.form.Clone()
}

// Focused returns the focused field
func (m *Model) Focused() Field {
	return m.focus
}

// loadForm writes req into the inputs without scheduling a snapshot
func (m *Model) loadForm(req *types.HttpRequest) {
	m.form = req
	m.inputs[FieldName].SetValue(req.Name)
	m.inputs[FieldMethod].SetValue(req.Method)
	m.inputs[FieldURL].SetValue(req.URL)
	m.body.SetValue(req.Body)
}

// syncForm copies the inputs into the live form. It reports whether anything changed.
func (m *Model) syncForm() bool {
	name := m.inputs[FieldName].Value()
	method := strings.ToUpper(strings.TrimSpace(m.inputs[FieldMethod].Value()))
	url := m.inputs[FieldURL].Value()
	body := m.body.Value()

	if name == m.form.Name && method == m.form.Method && url == m.form.URL && body == m.form.Body {
		return false
	}
	m.form.Name = name
	m.form.Method = method
	m.form.URL = url
	m.form.Body = body
	return true
}

func (m *Model) applyFocus() {
	for i := range m.inputs {
		if Field(i) == m.focus {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	if m.focus == FieldBody {
		m.body.Focus()
	} else {
		m.body.Blur()
	}
}

// scheduleSnapshot starts a debounce timer for the current edit
func (m *Model) scheduleSnapshot() tea.Cmd {
	m.seq++
	m.dirty = true
	seq := m.seq
	return tea.Tick(m.opts.Debounce, func(time.Time) tea.Msg {
		return snapshotMsg{seq: seq}
	})
}

// flushSnapshot captures a pending edit immediately
func (m *Model) flushSnapshot() {
	if !m.dirty {
		return
	}
	m.dirty = false
	// A later timer for this seq finds nothing dirty and becomes a no-op
	if _, err := m.opts.History.Capture(m.form.ID, m.form); err != nil {
		if errors.Is(err, revision.ErrTooLarge) {
			m.statusMsg = "History paused: request too large"
			return
		}
		m.errorMsg = "History error: " + err.Error()
	}
}
