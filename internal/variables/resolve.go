package variables

import (
	"sort"
	"strings"
)

// Resolution is a token whose key was found in the context
type Resolution struct {
	Key    string
	Value  string
	Source Source
}

// Resolve looks up token.Key in ctx. The second return is false when the key
// is absent; an empty string value still counts as resolved.
func Resolve(token Token, ctx *Context) (Resolution, bool) {
	value, source, ok := ctx.Lookup(token.Key)
	if !ok {
		return Resolution{}, false
	}
	return Resolution{Key: token.Key, Value: value, Source: source}, true
}

// FindUnresolved returns the sorted unique keys in input that ctx cannot
// resolve
func FindUnresolved(input string, ctx *Context) []string {
	set := make(map[string]struct{})
	for _, tok := range ExtractTokens(input) {
		if _, ok := Resolve(tok, ctx); !ok {
			set[tok.Key] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// RenderTemplate substitutes every resolvable token in input. Unresolved
// tokens stay verbatim in the output and their keys are returned sorted and
// de-duplicated. Escaped tokens lose their backslash and are not resolved.
func RenderTemplate(input string, ctx *Context) (string, []string) {
	set := make(map[string]struct{})
	out := render(input, ctx, set)
	return out, sortedKeys(set)
}

// render writes input with tokens substituted and records unresolved keys
// into missing
func render(input string, ctx *Context, missing map[string]struct{}) string {
	matches := scan(input)
	if len(matches) == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input))
	cursor := 0
	for _, m := range matches {
		start := m.Position
		if m.escaped {
			start--
		}
		if start < cursor {
			// overlaps a token already written
			continue
		}
		b.WriteString(input[cursor:start])
		cursor = m.end

		if m.escaped {
			b.WriteString(m.Raw)
			continue
		}
		if res, ok := Resolve(m.Token, ctx); ok {
			b.WriteString(res.Value)
			continue
		}
		b.WriteString(m.Raw)
		if missing != nil {
			missing[m.Key] = struct{}{}
		}
	}
	b.WriteString(input[cursor:])
	return b.String()
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
