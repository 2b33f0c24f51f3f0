package types

import (
	"sort"
	"time"
)

// Body modes supported by the request editor
const (
	BodyModeRaw            = "raw"
	BodyModeJSON           = "json"
	BodyModeFormURLEncoded = "form-urlencoded"
	BodyModeFormData       = "form-data"
	BodyModeBinary         = "binary"
)

// Auth types supported by the request editor
const (
	AuthNone   = "none"
	AuthBasic  = "basic"
	AuthBearer = "bearer"
)

// Row is one key/value line of the headers or query params table.
// Row order is significant and preserved everywhere.
type Row struct {
	Key     string `json:"key" yaml:"key"`
	Value   string `json:"value" yaml:"value"`
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the row takes part in the request (default true)
func (r Row) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// FormRow is one line of a form-urlencoded or form-data body
type FormRow struct {
	Key        string `json:"key" yaml:"key"`
	Value      string `json:"value,omitempty" yaml:"value,omitempty"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"` // text, file, binary
	FilePath   string `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	FileName   string `json:"file_name,omitempty" yaml:"file_name,omitempty"`
	FileInline string `json:"file_inline,omitempty" yaml:"file_inline,omitempty"` // base64
	Enabled    *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the row takes part in the request (default true)
func (r FormRow) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// IsFile reports whether the row carries file content
func (r FormRow) IsFile() bool {
	return r.Type == "file" || r.Type == "binary"
}

// BinaryBody describes the payload of a binary-mode body
type BinaryBody struct {
	FilePath   string `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	FileName   string `json:"file_name,omitempty" yaml:"file_name,omitempty"`
	FileInline string `json:"file_inline,omitempty" yaml:"file_inline,omitempty"`
}

// ExtractRule copies a value out of a JSON response into a variable
type ExtractRule struct {
	ID             string `json:"id,omitempty" yaml:"id,omitempty"`
	SourcePath     string `json:"source_path" yaml:"source_path"`         // JMESPath, e.g. "body.data.token"
	TargetVariable string `json:"target_variable" yaml:"target_variable"` // e.g. "access_token"
}

// HttpRequest is the full editable state of one request in a collection.
// It doubles as the revision snapshot for the editor.
type HttpRequest struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name,omitempty" yaml:"name,omitempty"`
	Method         string            `json:"method" yaml:"method"`
	URL            string            `json:"url" yaml:"url"`
	Headers        []Row             `json:"headers,omitempty" yaml:"headers,omitempty"`
	QueryParams    []Row             `json:"query_params,omitempty" yaml:"query_params,omitempty"`
	BodyMode       string            `json:"body_mode,omitempty" yaml:"body_mode,omitempty"`
	Body           string            `json:"body,omitempty" yaml:"body,omitempty"`
	FormBody       []FormRow         `json:"form_body,omitempty" yaml:"form_body,omitempty"`
	Binary         *BinaryBody       `json:"binary,omitempty" yaml:"binary,omitempty"`
	AuthType       string            `json:"auth_type,omitempty" yaml:"auth_type,omitempty"`
	AuthParams     map[string]string `json:"auth_params,omitempty" yaml:"auth_params,omitempty"`
	ExtractRules   []ExtractRule     `json:"extract_rules,omitempty" yaml:"extract_rules,omitempty"`
	TimeoutSeconds int               `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	VerifySSL      bool              `json:"verify_ssl,omitempty" yaml:"verify_ssl,omitempty"`
}

// Clone returns a deep copy that shares no mutable state with r
func (r *HttpRequest) Clone() *HttpRequest {
	if r == nil {
		return nil
	}
	c := *r
	c.Headers = cloneRows(r.Headers)
	c.QueryParams = cloneRows(r.QueryParams)
	if r.FormBody != nil {
		c.FormBody = make([]FormRow, len(r.FormBody))
		for i, row := range r.FormBody {
			row.Enabled = cloneBool(row.Enabled)
			c.FormBody[i] = row
		}
	}
	if r.Binary != nil {
		b := *r.Binary
		c.Binary = &b
	}
	if r.AuthParams != nil {
		c.AuthParams = make(map[string]string, len(r.AuthParams))
		for k, v := range r.AuthParams {
			c.AuthParams[k] = v
		}
	}
	if r.ExtractRules != nil {
		c.ExtractRules = make([]ExtractRule, len(r.ExtractRules))
		copy(c.ExtractRules, r.ExtractRules)
	}
	return &c
}

// HeaderValue returns the value of the last enabled header named key
// (case-insensitive match is left to the transport)
func (r *HttpRequest) HeaderValue(key string) (string, bool) {
	value, found := "", false
	for _, h := range r.Headers {
		if h.IsEnabled() && h.Key == key {
			value, found = h.Value, true
		}
	}
	return value, found
}

// SetHeader replaces every row named key with a single enabled row,
// appending it when no such row exists
func (r *HttpRequest) SetHeader(key, value string) {
	out := r.Headers[:0:0]
	replaced := false
	for _, h := range r.Headers {
		if h.Key == key {
			if !replaced {
				out = append(out, Row{Key: key, Value: value})
				replaced = true
			}
			continue
		}
		out = append(out, h)
	}
	if !replaced {
		out = append(out, Row{Key: key, Value: value})
	}
	r.Headers = out
}

// SortedAuthKeys returns the auth param keys in ascending order
func (r *HttpRequest) SortedAuthKeys() []string {
	keys := make([]string, 0, len(r.AuthParams))
	for k := range r.AuthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Timeout returns the per-request timeout, defaulting to 30 seconds
func (r *HttpRequest) Timeout() time.Duration {
	if r.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// RequestResult contains the HTTP response data produced by one execution
type RequestResult struct {
	RequestID   string            `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	StatusCode  int               `json:"status_code" yaml:"status_code"`
	StatusText  string            `json:"status_text,omitempty" yaml:"status_text,omitempty"`
	DurationMs  float64           `json:"duration_ms" yaml:"duration_ms"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body        string            `json:"body,omitempty" yaml:"body,omitempty"`
	BodyIsJSON  bool              `json:"body_is_json,omitempty" yaml:"body_is_json,omitempty"`
	ContentType string            `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	BodyBytes   int               `json:"body_bytes,omitempty" yaml:"body_bytes,omitempty"`
	Error       string            `json:"error,omitempty" yaml:"error,omitempty"`
	Timestamp   time.Time         `json:"timestamp" yaml:"timestamp"`
}

func cloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	for i, row := range rows {
		row.Enabled = cloneBool(row.Enabled)
		out[i] = row
	}
	return out
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
