package keybinds

import (
	"fmt"
	"sort"
	"strings"
)

// Registry maps keys to actions per context. Lookups fall back to the
// global context, so a context only needs to list its own keys.
type Registry struct {
	bindings map[Context]map[string]Action
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[Context]map[string]Action),
	}
}

// normalizeKey matches the lower-case form bubbletea reports, e.g. "ctrl+z"
func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Bind binds keys to action in context. A key already bound in that
// context is moved to action. Blank keys are ignored.
func (r *Registry) Bind(context Context, action Action, keys ...string) {
	for _, key := range keys {
		key = normalizeKey(key)
		if key == "" {
			continue
		}
		if r.bindings[context] == nil {
			r.bindings[context] = make(map[string]Action)
		}
		r.bindings[context][key] = action
	}
}

// Unbind removes every key bound to action in context
func (r *Registry) Unbind(context Context, action Action) {
	for key, bound := range r.bindings[context] {
		if bound == action {
			delete(r.bindings[context], key)
		}
	}
}

// Match returns the action for key, checking context before global
func (r *Registry) Match(context Context, key string) (Action, bool) {
	key = normalizeKey(key)
	if action, ok := r.bindings[context][key]; ok {
		return action, true
	}
	if action, ok := r.bindings[ContextGlobal][key]; ok {
		return action, true
	}
	return "", false
}

// Keys returns the sorted keys that trigger action in context, including
// global keys the context does not shadow
func (r *Registry) Keys(context Context, action Action) []string {
	var keys []string
	for key, bound := range r.bindings[context] {
		if bound == action {
			keys = append(keys, key)
		}
	}
	if context != ContextGlobal {
		for key, bound := range r.bindings[ContextGlobal] {
			if _, shadowed := r.bindings[context][key]; bound == action && !shadowed {
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

// Describe renders the keys for action as a hint, or "unbound"
func (r *Registry) Describe(context Context, action Action) string {
	keys := r.Keys(context, action)
	if len(keys) == 0 {
		return "unbound"
	}
	return strings.Join(keys, ", ")
}

// required lists the actions the editor cannot work without
var required = []struct {
	context Context
	actions []Action
}{
	{ContextEditor, []Action{ActionUndo, ActionRedo}},
	{ContextPicker, []Action{ActionPickerAccept, ActionPickerClose}},
}

// Validate rejects unknown actions and registries that leave the editor
// without a way to quit, undo, redo or leave the suggestion picker
func (r *Registry) Validate() error {
	for context, bindings := range r.bindings {
		for key, action := range bindings {
			if !action.IsValid() {
				return fmt.Errorf("unknown action '%s' bound to '%s' in context '%s'", action, key, context)
			}
		}
	}

	if len(r.Keys(ContextEditor, ActionQuit)) == 0 && len(r.Keys(ContextEditor, ActionQuitForce)) == 0 {
		return fmt.Errorf("no key quits the editor")
	}
	for _, req := range required {
		for _, action := range req.actions {
			if len(r.Keys(req.context, action)) == 0 {
				return fmt.Errorf("action '%s' has no key in context '%s'", action, req.context)
			}
		}
	}
	return nil
}
