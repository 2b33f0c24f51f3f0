package collection

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/studiowebux/reqflow/internal/types"
)

var validMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// ParseHTTPFile parses a traditional .http file with ### separators
func ParseHTTPFile(filePath string) ([]*types.HttpRequest, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reqs, err := ParseHTTP(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	return reqs, nil
}

// ParseHTTP parses ### separated requests from r.
//
// Supported annotations, written as comments inside a request block:
//
//	# @extract <variable> <path>
//	# @timeout <seconds>
//	# @verify-ssl true|false
//	# @auth bearer <token>
//	# @auth basic <username> <password>
func ParseHTTP(r io.Reader) ([]*types.HttpRequest, error) {
	var requests []*types.HttpRequest
	var current *types.HttpRequest
	var bodyLines []string
	inBody := false

	flush := func() {
		if current == nil {
			return
		}
		if inBody && len(bodyLines) > 0 {
			current.Body = strings.TrimRight(strings.Join(bodyLines, "\n"), "\n")
			current.BodyMode = detectBodyMode(current)
		}
		if current.Method != "" {
			requests = append(requests, current)
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		// New request separator
		if strings.HasPrefix(line, "###") {
			flush()
			current = &types.HttpRequest{
				Name: strings.TrimSpace(strings.TrimPrefix(line, "###")),
			}
			bodyLines = nil
			inBody = false
			continue
		}

		// Requests before the first separator still count
		if current == nil {
			if strings.TrimSpace(line) == "" {
				continue
			}
			current = &types.HttpRequest{}
		}

		if !inBody && (strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//")) {
			applyAnnotation(current, line)
			continue
		}

		// HTTP method and URL (e.g., GET http://example.com)
		if current.Method == "" {
			parts := strings.Fields(line)
			if len(parts) >= 2 && validMethods[strings.ToUpper(parts[0])] {
				current.Method = strings.ToUpper(parts[0])
				current.URL = parts[1]
			}
			continue
		}

		// Empty line after headers starts body
		if strings.TrimSpace(line) == "" && !inBody {
			inBody = true
			continue
		}

		if !inBody && strings.Contains(line, ":") && !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			key, value, _ := strings.Cut(line, ":")
			key = strings.TrimSpace(key)
			if key != "" && !strings.ContainsAny(key, " \t{[\"'") {
				current.Headers = append(current.Headers, types.Row{Key: key, Value: strings.TrimSpace(value)})
				continue
			}
		}

		inBody = true
		bodyLines = append(bodyLines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	flush()

	return requests, nil
}

func applyAnnotation(req *types.HttpRequest, line string) {
	trimmed := strings.TrimSpace(strings.TrimLeft(line, "#/"))
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "@extract":
		if len(fields) >= 3 {
			req.ExtractRules = append(req.ExtractRules, types.ExtractRule{
				TargetVariable: fields[1],
				SourcePath:     strings.Join(fields[2:], " "),
			})
		}
	case "@timeout":
		if len(fields) >= 2 {
			if n, err := strconv.Atoi(fields[1]); err == nil {
				req.TimeoutSeconds = n
			}
		}
	case "@verify-ssl":
		req.VerifySSL = len(fields) >= 2 && fields[1] == "true"
	case "@auth":
		if len(fields) < 2 {
			return
		}
		switch strings.ToLower(fields[1]) {
		case types.AuthBearer:
			if len(fields) >= 3 {
				req.AuthType = types.AuthBearer
				req.AuthParams = map[string]string{"token": fields[2]}
			}
		case types.AuthBasic:
			if len(fields) >= 4 {
				req.AuthType = types.AuthBasic
				req.AuthParams = map[string]string{"username": fields[2], "password": fields[3]}
			}
		}
	}
}

// detectBodyMode picks json when the Content-Type says so or the body looks
// like a JSON document, form-urlencoded for that content type, raw otherwise
func detectBodyMode(req *types.HttpRequest) string {
	for _, h := range req.Headers {
		if !strings.EqualFold(h.Key, "Content-Type") {
			continue
		}
		ct := strings.ToLower(h.Value)
		switch {
		case strings.Contains(ct, "json"):
			return types.BodyModeJSON
		case strings.Contains(ct, "x-www-form-urlencoded"):
			return types.BodyModeFormURLEncoded
		}
	}
	body := strings.TrimSpace(req.Body)
	if strings.HasPrefix(body, "{") || strings.HasPrefix(body, "[") {
		return types.BodyModeJSON
	}
	return types.BodyModeRaw
}
