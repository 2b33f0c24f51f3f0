/*
Package keybinds maps key strings to editor actions.

Bindings live in contexts. Match looks in the requested context first and
falls back to ContextGlobal, so a context can shadow a global key:

	registry, err := keybinds.LoadOrDefault(filepath.Join(config.ConfigDir, "keybinds.json"))
	if action, ok := registry.Match(keybinds.ContextEditor, msg.String()); ok {
		// dispatch action
	}

Users override defaults per action in keybinds.json:

	{
	  "version": "1.0",
	  "editor": {
	    "undo": "ctrl+z,alt+u",
	    "copy_url": "ctrl+k"
	  }
	}

Overriding an action drops its default keys in that context.
*/
package keybinds
