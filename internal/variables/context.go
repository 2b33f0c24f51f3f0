package variables

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Source tags where a variable value came from
type Source string

const (
	SourceEnvironment Source = "environment"
	SourceSession     Source = "session"
	SourceCLI         Source = "cli"
	SourceSystem      Source = "system"
)

// Context is the name to value map used for one resolution pass.
// Treat it as read-only once built; the builders below return fresh copies.
type Context struct {
	Values      map[string]string
	SourceByKey map[string]Source
}

// NewContext returns an empty context
func NewContext() *Context {
	return &Context{
		Values:      make(map[string]string),
		SourceByKey: make(map[string]Source),
	}
}

// BuildContextFromEnvironment stringifies every environment variable and
// tags it with SourceEnvironment. Nil values are skipped.
func BuildContextFromEnvironment(vars map[string]any) *Context {
	ctx := NewContext()
	for key, raw := range vars {
		if value, ok := Stringify(raw); ok {
			ctx.set(key, value, SourceEnvironment)
		}
	}
	return ctx
}

// BuildContext layers variable sources. Priority from lowest to highest:
// environment, session, cli.
func BuildContext(env map[string]any, session map[string]string, cli map[string]string) *Context {
	ctx := BuildContextFromEnvironment(env)
	for key, value := range session {
		ctx.set(key, value, SourceSession)
	}
	for key, value := range cli {
		ctx.set(key, value, SourceCLI)
	}
	return ctx
}

// WithSystemEnv returns a copy of c where every OS variable is reachable as
// env.NAME. Existing keys are never overridden.
func (c *Context) WithSystemEnv(system map[string]string) *Context {
	out := c.Clone()
	for name, value := range system {
		key := "env." + name
		if _, exists := out.Values[key]; exists {
			continue
		}
		out.set(key, value, SourceSystem)
	}
	return out
}

// With returns a copy of c with key set to value
func (c *Context) With(key, value string, source Source) *Context {
	out := c.Clone()
	out.set(key, value, source)
	return out
}

// Clone returns an independent copy of c
func (c *Context) Clone() *Context {
	out := NewContext()
	if c == nil {
		return out
	}
	for k, v := range c.Values {
		out.Values[k] = v
	}
	for k, s := range c.SourceByKey {
		out.SourceByKey[k] = s
	}
	return out
}

// Lookup returns the value and source for key
func (c *Context) Lookup(key string) (string, Source, bool) {
	if c == nil {
		return "", "", false
	}
	value, ok := c.Values[key]
	if !ok {
		return "", "", false
	}
	return value, c.SourceByKey[key], true
}

// Keys returns every variable name in the context
func (c *Context) Keys() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Values))
	for k := range c.Values {
		keys = append(keys, k)
	}
	return keys
}

func (c *Context) set(key, value string, source Source) {
	c.Values[key] = value
	c.SourceByKey[key] = source
}

// Stringify converts an environment value to its natural string form.
// It reports false for nil, which callers treat as "not set".
func Stringify(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), true
	case json.Number:
		return val.String(), true
	case fmt.Stringer:
		return val.String(), true
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val), true
		}
		return string(data), true
	default:
		return fmt.Sprint(val), true
	}
}
