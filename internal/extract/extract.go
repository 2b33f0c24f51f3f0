// Package extract copies values out of JSON responses into variables using
// JMESPath expressions.
package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmespath/go-jmespath"

	"github.com/studiowebux/reqflow/internal/types"
)

// AllRules is the rule id used for errors that affect every rule
const AllRules = "*"

// pathPrefixes are stripped so users can write body.id, response.id or $.id
var pathPrefixes = []string{"body.", "response.", "$."}

// RuleError is a problem evaluating one rule
type RuleError struct {
	RuleID string `json:"rule_id"`
	Error  string `json:"error"`
}

// Outcome holds the extracted values and any rule errors
type Outcome struct {
	Values map[string]string
	Errors []RuleError
}

// Summary renders the rule errors for RequestResult.Error, or "" when there
// are none
func (o Outcome) Summary() string {
	if len(o.Errors) == 0 {
		return ""
	}
	parts := make([]string, 0, len(o.Errors))
	for _, e := range o.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.RuleID, e.Error))
	}
	return "Extraction issues: " + strings.Join(parts, "; ")
}

// NormalizePath strips a leading body., response. or $. from path
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	for _, prefix := range pathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return path[len(prefix):]
		}
	}
	return path
}

// Apply evaluates rules against a JSON response body
func Apply(rules []types.ExtractRule, result *types.RequestResult) Outcome {
	out := Outcome{Values: make(map[string]string)}
	if len(rules) == 0 || result == nil {
		return out
	}

	if !result.BodyIsJSON {
		out.Errors = append(out.Errors, RuleError{RuleID: AllRules, Error: "response body is not JSON"})
		return out
	}

	var data any
	if err := json.Unmarshal([]byte(result.Body), &data); err != nil {
		out.Errors = append(out.Errors, RuleError{RuleID: AllRules, Error: fmt.Sprintf("invalid JSON response body: %v", err)})
		return out
	}

	for _, rule := range rules {
		target := strings.TrimSpace(rule.TargetVariable)
		if target == "" {
			out.Errors = append(out.Errors, RuleError{RuleID: ruleID(rule), Error: "missing target variable"})
			continue
		}

		path := NormalizePath(rule.SourcePath)
		value, err := jmespath.Search(path, data)
		if err != nil {
			out.Errors = append(out.Errors, RuleError{RuleID: ruleID(rule), Error: err.Error()})
			continue
		}
		if value == nil {
			out.Errors = append(out.Errors, RuleError{RuleID: ruleID(rule), Error: fmt.Sprintf("no match for '%s'", path)})
			continue
		}

		str, err := Stringify(value)
		if err != nil {
			out.Errors = append(out.Errors, RuleError{RuleID: ruleID(rule), Error: err.Error()})
			continue
		}
		out.Values[target] = str
	}

	return out
}

// Stringify converts a JMESPath result to a variable value. Objects and
// arrays are JSON encoded.
func Stringify(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "", fmt.Errorf("value is null")
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to convert extracted value to string: %w", err)
		}
		return string(data), nil
	}
}

func ruleID(rule types.ExtractRule) string {
	if rule.ID != "" {
		return rule.ID
	}
	return rule.TargetVariable
}
