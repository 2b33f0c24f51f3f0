package keybinds

// NewDefaultRegistry creates a registry with all default keybindings
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	registerGlobalBindings(r)
	registerEditorBindings(r)
	registerPickerBindings(r)

	return r
}

// registerGlobalBindings sets up bindings available in all modes
func registerGlobalBindings(r *Registry) {
	r.Bind(ContextGlobal, ActionQuitForce, "ctrl+c")
	r.Bind(ContextGlobal, ActionQuit, "esc")
}

func registerEditorBindings(r *Registry) {
	r.Bind(ContextEditor, ActionUndo, "ctrl+z")
	r.Bind(ContextEditor, ActionRedo, "ctrl+y", "ctrl+shift+z")
	r.Bind(ContextEditor, ActionSave, "ctrl+s")
	r.Bind(ContextEditor, ActionCopyURL, "ctrl+o")
	r.Bind(ContextEditor, ActionSend, "ctrl+r")
	r.Bind(ContextEditor, ActionNextField, "tab")
	r.Bind(ContextEditor, ActionPrevField, "shift+tab")
	r.Bind(ContextEditor, ActionSuggest, "ctrl+@") // ctrl+space
	r.Bind(ContextEditor, ActionToggleHints, "ctrl+g")
}

func registerPickerBindings(r *Registry) {
	r.Bind(ContextPicker, ActionPickerUp, "up", "ctrl+p")
	r.Bind(ContextPicker, ActionPickerDown, "down", "ctrl+n")
	r.Bind(ContextPicker, ActionPickerAccept, "enter", "tab")
	r.Bind(ContextPicker, ActionPickerClose, "esc")
}
