package variables

import (
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// dynamicGenerators produce a fresh value every time a request is sent
var dynamicGenerators = map[string]func() string{
	"$uuid": uuid.NewString,
	"$timestamp": func() string {
		return strconv.FormatInt(time.Now().Unix(), 10)
	},
	"$randomInt": func() string {
		return strconv.Itoa(rand.Intn(10000) + 1)
	},
}

// IsDynamic reports whether key names a generated variable such as $uuid
func IsDynamic(key string) bool {
	_, ok := dynamicGenerators[key]
	return ok
}

// DynamicKeys returns the names of all generated variables
func DynamicKeys() []string {
	return []string{"$randomInt", "$timestamp", "$uuid"}
}

// ExpandDynamic replaces generated variables in input. Each key is generated
// once per call, so two {{$uuid}} tokens in one field get the same value.
// Escaped tokens are left for the renderer.
func ExpandDynamic(input string) string {
	if !strings.Contains(input, "$") {
		return input
	}
	matches := scan(input)
	if len(matches) == 0 {
		return input
	}

	generated := make(map[string]string)
	var b strings.Builder
	cursor := 0
	for _, m := range matches {
		gen, ok := dynamicGenerators[m.Key]
		if m.escaped || !ok || m.Position < cursor {
			continue
		}
		value, seen := generated[m.Key]
		if !seen {
			value = gen()
			generated[m.Key] = value
		}
		b.WriteString(input[cursor:m.Position])
		b.WriteString(value)
		cursor = m.end
	}
	if cursor == 0 {
		return input
	}
	b.WriteString(input[cursor:])
	return b.String()
}
