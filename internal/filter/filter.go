package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jmespath/go-jmespath"
	"github.com/studiowebux/reqflow/internal/logging"
	"github.com/studiowebux/reqflow/internal/types"
)

const (
	// QueryShellTimeout bounds a $(cmd) query
	QueryShellTimeout = 30 * time.Second
)

// ErrNotJSON is returned when a JMESPath expression is applied to a body
// that does not decode as JSON
var ErrNotJSON = errors.New("response body is not JSON")

var shellPattern = regexp.MustCompile(`^\$\((.+)\)$`)

// Apply narrows a response body with filter, then reshapes it with query.
// Both are JMESPath expressions evaluated on a single decode of the body.
// A query of the form $(cmd) instead pipes the (filtered) body through sh.
// JSON output is indented; a null result prints as "null".
func Apply(ctx context.Context, body string, filter string, query string) (string, error) {
	if filter == "" && query == "" {
		return body, nil
	}

	command, isShell := shellCommand(query)
	if filter == "" && isShell {
		return runShellQuery(ctx, body, command)
	}

	data, err := decode(body)
	if err != nil {
		return "", err
	}

	if filter != "" {
		if data, err = search(data, filter); err != nil {
			return "", fmt.Errorf("failed to apply filter: %w", err)
		}
	}

	if query != "" && !isShell {
		if data, err = search(data, query); err != nil {
			return "", fmt.Errorf("failed to apply query: %w", err)
		}
	}

	out, err := encode(data)
	if err != nil {
		return "", err
	}
	if isShell {
		return runShellQuery(ctx, out, command)
	}
	return out, nil
}

func decode(body string) (any, error) {
	var data any
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}
	return data, nil
}

func search(data any, expression string) (any, error) {
	jp, err := jmespath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid JMESPath expression %q: %w", expression, err)
	}
	result, err := jp.Search(data)
	if err != nil {
		return nil, fmt.Errorf("JMESPath search failed: %w", err)
	}
	return result, nil
}

func encode(data any) (string, error) {
	if data == nil {
		return "null", nil
	}
	output, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(output), nil
}

func shellCommand(query string) (string, bool) {
	m := shellPattern.FindStringSubmatch(strings.TrimSpace(query))
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// runShellQuery feeds input to command on stdin and returns its trimmed
// stdout. stderr, when present, becomes the error text.
func runShellQuery(ctx context.Context, input, command string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryShellTimeout)
	defer cancel()

	logging.FromContext(ctx).Debug("running shell query", "command", command, "input_bytes", len(input))

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdin = strings.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("shell query %q timed out after %s", command, QueryShellTimeout)
		}
		detail := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && detail != "" {
			return "", fmt.Errorf("shell query %q exited with %d: %s", command, exitErr.ExitCode(), detail)
		}
		return "", fmt.Errorf("shell query %q failed: %w", command, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// IsValidJMESPath reports whether expression compiles
func IsValidJMESPath(expression string) bool {
	_, err := jmespath.Compile(expression)
	return err == nil
}

// IsShellCommand reports whether query is a $(cmd) shell query
func IsShellCommand(query string) bool {
	_, ok := shellCommand(query)
	return ok
}

// MatchRequests keeps the requests whose name matches ANY of the glob
// patterns, case-insensitively. No patterns keeps everything.
func MatchRequests(reqs []*types.HttpRequest, patterns []string) ([]*types.HttpRequest, error) {
	if len(patterns) == 0 {
		return reqs, nil
	}
	for _, p := range patterns {
		if _, err := filepath.Match(strings.ToLower(p), ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
	}

	var matched []*types.HttpRequest
	for _, req := range reqs {
		if matchesAny(req.Name, patterns) {
			matched = append(matched, req)
		}
	}
	return matched, nil
}

func matchesAny(name string, patterns []string) bool {
	name = strings.ToLower(name)
	for _, p := range patterns {
		if ok, _ := filepath.Match(strings.ToLower(p), name); ok {
			return true
		}
	}
	return false
}
