package keybinds

// Action represents a user action that can be triggered by a keybinding
type Action string

// Context represents the context in which keybindings are active
type Context string

const (
	ContextGlobal Context = "global" // Available everywhere
	ContextEditor Context = "editor" // Request editor form
	ContextPicker Context = "picker" // Variable suggestion popup
)

const (
	// Global actions
	ActionQuit      Action = "quit"       // Leave the editor
	ActionQuitForce Action = "quit_force" // Leave without prompting (ctrl+c)

	// Editor actions
	ActionUndo        Action = "undo"         // Step back through the revision history
	ActionRedo        Action = "redo"         // Step forward through the revision history
	ActionSave        Action = "save"         // Write the collection to disk
	ActionCopyURL     Action = "copy_url"     // Copy the rendered URL to the clipboard
	ActionSend        Action = "send"         // Send the request
	ActionNextField   Action = "next_field"   // Focus the next input
	ActionPrevField   Action = "prev_field"   // Focus the previous input
	ActionSuggest     Action = "suggest"      // Open variable suggestions
	ActionToggleHints Action = "toggle_hints" // Show or hide the key hints

	// Picker actions
	ActionPickerUp     Action = "picker_up"
	ActionPickerDown   Action = "picker_down"
	ActionPickerAccept Action = "picker_accept"
	ActionPickerClose  Action = "picker_close"
)

// AllActions lists every action a user may rebind
var AllActions = []Action{
	ActionQuit, ActionQuitForce,
	ActionUndo, ActionRedo, ActionSave, ActionCopyURL, ActionSend,
	ActionNextField, ActionPrevField, ActionSuggest, ActionToggleHints,
	ActionPickerUp, ActionPickerDown, ActionPickerAccept, ActionPickerClose,
}

// IsValid reports whether a is a known action
func (a Action) IsValid() bool {
	for _, known := range AllActions {
		if a == known {
			return true
		}
	}
	return false
}
