package variables

import (
	"regexp"
	"sort"
	"strings"
)

// Syntax identifies which placeholder convention a token was written in
type Syntax int

const (
	// SyntaxDoubleCurly is {{name}}
	SyntaxDoubleCurly Syntax = iota
	// SyntaxDollarBrace is ${name}
	SyntaxDollarBrace
)

func (s Syntax) String() string {
	switch s {
	case SyntaxDoubleCurly:
		return "double-curly"
	case SyntaxDollarBrace:
		return "dollar-brace"
	default:
		return "unknown"
	}
}

var (
	// Variable placeholder pattern: {{varName}}
	curlyPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

	// Variable placeholder pattern: ${varName}
	dollarPattern = regexp.MustCompile(`\$\{([^{}]+)\}`)
)

// Token is one placeholder occurrence found in a text field
type Token struct {
	Raw      string // exact source text, e.g. "{{ baseUrl }}"
	Key      string // trimmed variable name
	Syntax   Syntax
	Position int // byte offset of Raw in the source
}

// match is a token plus its escape state. An escaped token is preceded by a
// backslash and is emitted literally instead of being resolved.
type match struct {
	Token
	end     int
	escaped bool
}

// ExtractTokens returns every unescaped placeholder in input, ordered by
// position. Repeated keys yield one token per occurrence.
func ExtractTokens(input string) []Token {
	matches := scan(input)
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		if m.escaped {
			continue
		}
		tokens = append(tokens, m.Token)
	}
	return tokens
}

// ExtractTokensFrom is ExtractTokens for loosely typed input: anything that
// is not a string (including nil) is treated as empty text
func ExtractTokensFrom(input any) []Token {
	s, ok := input.(string)
	if !ok {
		return []Token{}
	}
	return ExtractTokens(s)
}

// ExtractVariableNames returns the unique keys referenced by input, in order
// of first appearance
func ExtractVariableNames(input string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, tok := range ExtractTokens(input) {
		if !seen[tok.Key] {
			seen[tok.Key] = true
			names = append(names, tok.Key)
		}
	}
	return names
}

// scan runs both scanners over input and merges the results by position
func scan(input string) []match {
	if input == "" {
		return nil
	}
	matches := scanPattern(input, curlyPattern, SyntaxDoubleCurly)
	matches = append(matches, scanPattern(input, dollarPattern, SyntaxDollarBrace)...)
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Position < matches[j].Position
	})
	return matches
}

func scanPattern(input string, re *regexp.Regexp, syntax Syntax) []match {
	var out []match
	for _, loc := range re.FindAllStringSubmatchIndex(input, -1) {
		start, end := loc[0], loc[1]
		key := strings.TrimSpace(input[loc[2]:loc[3]])
		if key == "" {
			continue
		}
		out = append(out, match{
			Token: Token{
				Raw:      input[start:end],
				Key:      key,
				Syntax:   syntax,
				Position: start,
			},
			end:     end,
			escaped: start > 0 && input[start-1] == '\\',
		})
	}
	return out
}
