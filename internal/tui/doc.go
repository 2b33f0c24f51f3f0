/*
Package tui implements the interactive request editor.

# Architecture

The editor follows the Bubble Tea Model-Update-View pattern:
  - model.go: editor state, the live form and snapshot scheduling
  - keys.go: key handling, actions and variable suggestions
  - render.go: view rendering and the status bar

# Revision history

Every edit bumps a sequence number and starts a tea.Tick timer. Only the
timer carrying the latest sequence captures the form into the revision
store, so a burst of keystrokes produces one history entry. Undo, redo and
save flush a pending edit first so nothing typed is lost. Quitting clears
the request's history.

# Keybinds

Actions are resolved through keybinds.Registry, so users can rebind undo,
redo and the rest in keybinds.json. The suggestion picker has its own
context that shadows editor keys while it is open.

# Threading Model

Everything runs on Bubble Tea's event loop. Sending a request happens in a
tea.Cmd and comes back as a message.
*/
package tui
