package keybinds

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRegistryMatch(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []struct {
		context Context
		key     string
		want    Action
	}{
		{ContextEditor, "ctrl+z", ActionUndo},
		{ContextEditor, "ctrl+y", ActionRedo},
		{ContextEditor, "ctrl+s", ActionSave},
		{ContextEditor, "ctrl+o", ActionCopyURL},
		{ContextEditor, "ctrl+c", ActionQuitForce}, // falls back to global
		{ContextPicker, "esc", ActionPickerClose},  // shadows global quit
		{ContextGlobal, "esc", ActionQuit},
	}

	for _, tt := range tests {
		got, ok := r.Match(tt.context, tt.key)
		if !ok || got != tt.want {
			t.Errorf("Match(%s, %q) = %q, %v; want %q", tt.context, tt.key, got, ok, tt.want)
		}
	}

	if _, ok := r.Match(ContextEditor, "x"); ok {
		t.Error("Expected plain characters to be unbound")
	}
	if err := r.Validate(); err != nil {
		t.Errorf("Default registry should validate: %v", err)
	}
}

func TestDescribe(t *testing.T) {
	r := NewDefaultRegistry()

	if got := r.Describe(ContextEditor, ActionRedo); got != "ctrl+shift+z, ctrl+y" {
		t.Errorf("Unexpected redo keys: %q", got)
	}
	if got := r.Describe(ContextEditor, ActionQuitForce); got != "ctrl+c" {
		t.Errorf("Expected global fallback, got %q", got)
	}
	// esc closes the picker instead of quitting
	if got := r.Describe(ContextPicker, ActionQuit); got != "unbound" {
		t.Errorf("Expected shadowed global key to be hidden, got %q", got)
	}
	if got := r.Describe(ContextPicker, ActionSave); got != "unbound" {
		t.Errorf("Expected unbound, got %q", got)
	}
}

func TestBindNormalizesKeys(t *testing.T) {
	r := NewRegistry()
	r.Bind(ContextEditor, ActionUndo, " Ctrl+U ", "", "alt+u")

	if action, ok := r.Match(ContextEditor, "ctrl+u"); !ok || action != ActionUndo {
		t.Errorf("Expected ctrl+u to undo, got %q", action)
	}
	if got := r.Keys(ContextEditor, ActionUndo); len(got) != 2 {
		t.Errorf("Expected blank keys to be ignored, got %v", got)
	}

	// Rebinding a key moves it
	r.Bind(ContextEditor, ActionRedo, "alt+u")
	if action, _ := r.Match(ContextEditor, "alt+u"); action != ActionRedo {
		t.Errorf("Expected alt+u to move to redo, got %q", action)
	}
}

func TestValidateRequiresEssentialActions(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *Registry)
	}{
		{"no undo", func(r *Registry) { r.Unbind(ContextEditor, ActionUndo) }},
		{"no picker close", func(r *Registry) { r.Unbind(ContextPicker, ActionPickerClose) }},
		{"no quit", func(r *Registry) {
			r.Unbind(ContextGlobal, ActionQuit)
			r.Unbind(ContextGlobal, ActionQuitForce)
		}},
		{"unknown action", func(r *Registry) { r.Bind(ContextEditor, Action("explode"), "x") }},
	}

	for _, tt := range tests {
		r := NewDefaultRegistry()
		tt.modify(r)
		if err := r.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestLoadOrDefaultAppliesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keybinds.json")
	content := `{
  // rebinding undo drops ctrl+z
  "version": "1.0",
  "editor": {"undo": "alt+u, ctrl+u",},
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}

	if action, ok := r.Match(ContextEditor, "alt+u"); !ok || action != ActionUndo {
		t.Errorf("Expected alt+u to undo, got %q", action)
	}
	if _, ok := r.Match(ContextEditor, "ctrl+z"); ok {
		t.Error("Expected ctrl+z to be unbound after override")
	}
	if action, _ := r.Match(ContextEditor, "ctrl+s"); action != ActionSave {
		t.Error("Expected other defaults to survive")
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	r, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Missing file should not fail: %v", err)
	}
	if _, ok := r.Match(ContextEditor, "ctrl+z"); !ok {
		t.Error("Expected defaults")
	}
}

func TestLoadOrDefaultUnknownAction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keybinds.json")
	if err := os.WriteFile(path, []byte(`{"editor":{"explode":"x"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrDefault(path); err == nil {
		t.Error("Expected error for unknown action")
	}
}

func TestLoadOrDefaultRejectsUnusableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keybinds.json")
	if err := os.WriteFile(path, []byte(`{"picker":{"picker_accept":""}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrDefault(path); err == nil {
		t.Error("Expected error when the picker cannot accept")
	}
}
