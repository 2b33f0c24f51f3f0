package types

// Folder groups requests and nested folders inside a collection
type Folder struct {
	ID       string         `json:"id" yaml:"id"`
	Name     string         `json:"name" yaml:"name"`
	Folders  []*Folder      `json:"folders,omitempty" yaml:"folders,omitempty"`
	Requests []*HttpRequest `json:"requests,omitempty" yaml:"requests,omitempty"`
}

// AllRequests returns every request under the folder, depth-first:
// the folder's own requests first, then each subfolder in order
func (f *Folder) AllRequests() []*HttpRequest {
	if f == nil {
		return nil
	}
	out := make([]*HttpRequest, 0, len(f.Requests))
	out = append(out, f.Requests...)
	for _, sub := range f.Folders {
		out = append(out, sub.AllRequests()...)
	}
	return out
}

// Collection is the root of a request tree
type Collection struct {
	ID       string         `json:"id" yaml:"id"`
	Name     string         `json:"name" yaml:"name"`
	Folders  []*Folder      `json:"folders,omitempty" yaml:"folders,omitempty"`
	Requests []*HttpRequest `json:"requests,omitempty" yaml:"requests,omitempty"`
}

// Root returns a folder view of the collection's top level
func (c *Collection) Root() *Folder {
	return &Folder{ID: c.ID, Name: c.Name, Folders: c.Folders, Requests: c.Requests}
}

// Environment is a named set of variables
type Environment struct {
	Name      string          `json:"name" yaml:"name"`
	Variables map[string]any  `json:"variables,omitempty" yaml:"variables,omitempty"`
	Secrets   map[string]bool `json:"secrets,omitempty" yaml:"secrets,omitempty"`
}

// EnvironmentFile holds every environment of a collection and the active one
type EnvironmentFile struct {
	ActiveEnv string                  `json:"active_env" yaml:"active_env"`
	Envs      map[string]*Environment `json:"envs" yaml:"envs"`
}

// Active returns the active environment, creating an empty one if missing
func (e *EnvironmentFile) Active() *Environment {
	if e.Envs == nil {
		e.Envs = make(map[string]*Environment)
	}
	if e.ActiveEnv == "" {
		e.ActiveEnv = "default"
	}
	env, ok := e.Envs[e.ActiveEnv]
	if !ok || env == nil {
		env = &Environment{Name: e.ActiveEnv}
		e.Envs[e.ActiveEnv] = env
	}
	if env.Variables == nil {
		env.Variables = make(map[string]any)
	}
	return env
}
