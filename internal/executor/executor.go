package executor

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/studiowebux/reqflow/internal/types"
)

// Execute performs an HTTP request and returns the result. The result is
// never nil.
func Execute(ctx context.Context, req *types.HttpRequest) *types.RequestResult {
	startTime := time.Now()
	fail := func(format string, args ...any) *types.RequestResult {
		return &types.RequestResult{
			RequestID:  req.ID,
			DurationMs: elapsedMs(startTime),
			Error:      fmt.Sprintf(format, args...),
			Timestamp:  startTime,
		}
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, req.Timeout())
	defer cancel()

	body, contentType, err := buildPayload(req)
	if err != nil {
		return fail("%v", err)
	}
	if closer, ok := body.(io.Closer); ok {
		defer closer.Close()
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return fail("failed to create request: %v", err)
	}

	for _, h := range req.Headers {
		key := strings.TrimSpace(h.Key)
		if !h.IsEnabled() || key == "" {
			continue
		}
		httpReq.Header.Set(key, h.Value)
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := buildHTTPClient(req.VerifySSL).Do(httpReq)
	if err != nil {
		return fail("%v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	duration := elapsedMs(startTime)
	if err != nil {
		result := fail("failed to read response body: %v", err)
		result.StatusCode = resp.StatusCode
		result.StatusText = resp.Status
		return result
	}

	headers := make(map[string]string, len(resp.Header))
	for key, values := range resp.Header {
		headers[key] = strings.Join(values, ", ")
	}
	respType := resp.Header.Get("Content-Type")

	return &types.RequestResult{
		RequestID:   req.ID,
		StatusCode:  resp.StatusCode,
		StatusText:  resp.Status,
		DurationMs:  duration,
		Headers:     headers,
		Body:        string(bodyBytes),
		BodyIsJSON:  IsJSONContentType(respType),
		ContentType: respType,
		BodyBytes:   len(bodyBytes),
		Timestamp:   startTime,
	}
}

// buildHTTPClient creates an HTTP client honouring the verify flag. Timeouts
// come from the request context.
func buildHTTPClient(verifySSL bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: !verifySSL, //nolint:gosec // per-request user choice
	}
	return &http.Client{Transport: transport}
}

// buildPayload returns the request body reader and the content type it implies
func buildPayload(req *types.HttpRequest) (io.Reader, string, error) {
	mode := strings.ToLower(req.BodyMode)
	if mode == "" {
		mode = types.BodyModeRaw
	}

	switch mode {
	case types.BodyModeFormURLEncoded:
		if len(req.FormBody) == 0 {
			break
		}
		var parts []string
		for _, row := range req.FormBody {
			key := strings.TrimSpace(row.Key)
			if !row.IsEnabled() || key == "" {
				continue
			}
			parts = append(parts, url.QueryEscape(key)+"="+url.QueryEscape(row.Value))
		}
		return strings.NewReader(strings.Join(parts, "&")), "application/x-www-form-urlencoded", nil

	case types.BodyModeFormData:
		if len(req.FormBody) == 0 {
			break
		}
		return buildMultipart(req.FormBody)

	case types.BodyModeBinary:
		bin := req.Binary
		switch {
		case bin != nil && bin.FilePath != "":
			f, err := os.Open(bin.FilePath)
			if err != nil {
				return nil, "", fmt.Errorf("file read error for binary body: %w", err)
			}
			return f, "application/octet-stream", nil
		case bin != nil && bin.FileInline != "":
			data, err := base64.StdEncoding.DecodeString(bin.FileInline)
			if err != nil {
				return nil, "", fmt.Errorf("file decode error for binary body: %w", err)
			}
			return bytes.NewReader(data), "application/octet-stream", nil
		default:
			return nil, "", fmt.Errorf("binary body is missing a file")
		}

	case types.BodyModeJSON:
		if req.Body == "" {
			return nil, "", nil
		}
		if json.Valid([]byte(req.Body)) {
			return strings.NewReader(req.Body), "application/json", nil
		}
		return strings.NewReader(req.Body), "", nil
	}

	if req.Body == "" {
		return nil, "", nil
	}
	return strings.NewReader(req.Body), "", nil
}

func buildMultipart(rows []types.FormRow) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, row := range rows {
		key := strings.TrimSpace(row.Key)
		if !row.IsEnabled() || key == "" {
			continue
		}
		if !row.IsFile() {
			if err := w.WriteField(key, row.Value); err != nil {
				return nil, "", fmt.Errorf("failed to write form field %s: %w", key, err)
			}
			continue
		}

		name := row.FileName
		if name == "" && row.FilePath != "" {
			name = filepath.Base(row.FilePath)
		}
		if name == "" {
			name = "upload.bin"
		}

		var data []byte
		var err error
		switch {
		case row.FilePath != "":
			data, err = os.ReadFile(row.FilePath)
			if err != nil {
				return nil, "", fmt.Errorf("file read error for '%s': %w", key, err)
			}
		case row.FileInline != "":
			data, err = base64.StdEncoding.DecodeString(row.FileInline)
			if err != nil {
				return nil, "", fmt.Errorf("file decode error for '%s': %w", key, err)
			}
		default:
			return nil, "", fmt.Errorf("file missing for '%s'", key)
		}

		part, err := w.CreateFormFile(key, name)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file %s: %w", key, err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", fmt.Errorf("failed to write form file %s: %w", key, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// IsJSONContentType reports whether a Content-Type header denotes JSON,
// including vendor +json types
func IsJSONContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "application/json") || strings.HasSuffix(ct, "+json") || strings.Contains(ct, "+json;")
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// FormatDuration formats duration in milliseconds to human-readable string
func FormatDuration(ms float64) string {
	if ms < 1000 {
		return fmt.Sprintf("%.0fms", ms)
	}
	return fmt.Sprintf("%.2fs", ms/1000.0)
}

// FormatSize formats byte size to human-readable string
func FormatSize(bytes int) string {
	if bytes < 1024 {
		return fmt.Sprintf("%dB", bytes)
	}
	if bytes < 1024*1024 {
		return fmt.Sprintf("%.2fKB", float64(bytes)/1024.0)
	}
	return fmt.Sprintf("%.2fMB", float64(bytes)/(1024.0*1024.0))
}

// IsSuccessStatus returns true if status code is 2xx
func IsSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}

// IsClientErrorStatus returns true if status code is 4xx
func IsClientErrorStatus(status int) bool {
	return status >= 400 && status < 500
}

// IsServerErrorStatus returns true if status code is 5xx
func IsServerErrorStatus(status int) bool {
	return status >= 500 && status < 600
}
