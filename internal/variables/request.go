package variables

import (
	"encoding/base64"
	"net/url"
	"sort"
	"strings"

	"github.com/studiowebux/reqflow/internal/types"
)

// RenderRequest returns a copy of req with generated variables expanded and
// every template field rendered against ctx, along with the sorted keys that
// stayed unresolved. Switched-off header, query and form rows are carried over
// untouched and never count as unresolved. Enabled query rows replace the
// query string of the URL. Basic auth always sets the Authorization header;
// bearer auth sets it only when the rendered token is non-empty, so a request
// without a token goes out unauthenticated instead of with "Bearer ".
// The input request is never modified.
func RenderRequest(req *types.HttpRequest, ctx *Context) (*types.HttpRequest, []string) {
	if req == nil {
		return nil, nil
	}
	out := req.Clone()
	missing := make(map[string]struct{})
	field := func(s string) string {
		return render(ExpandDynamic(s), ctx, missing)
	}

	out.URL = field(out.URL)
	for i := range out.Headers {
		row := &out.Headers[i]
		if !row.IsEnabled() {
			continue
		}
		row.Key = field(row.Key)
		row.Value = field(row.Value)
	}
	out.Body = field(out.Body)
	for i := range out.FormBody {
		row := &out.FormBody[i]
		if !row.IsEnabled() {
			continue
		}
		row.Key = field(row.Key)
		row.Value = field(row.Value)
		row.FilePath = field(row.FilePath)
	}
	if out.Binary != nil {
		out.Binary.FilePath = field(out.Binary.FilePath)
	}

	var query []string
	for i := range out.QueryParams {
		row := &out.QueryParams[i]
		if !row.IsEnabled() {
			continue
		}
		row.Key = field(row.Key)
		row.Value = field(row.Value)
		key := strings.TrimSpace(row.Key)
		if key == "" {
			continue
		}
		query = append(query, url.QueryEscape(key)+"="+url.QueryEscape(row.Value))
	}
	if len(query) > 0 {
		out.URL = replaceQuery(out.URL, strings.Join(query, "&"))
	}

	for k, v := range out.AuthParams {
		out.AuthParams[k] = field(v)
	}
	switch strings.ToLower(out.AuthType) {
	case types.AuthBasic:
		creds := out.AuthParams["username"] + ":" + out.AuthParams["password"]
		out.SetHeader("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(creds)))
	case types.AuthBearer:
		if token := out.AuthParams["token"]; token != "" {
			out.SetHeader("Authorization", "Bearer "+token)
		}
	}

	for key := range missing {
		if IsDynamic(key) {
			delete(missing, key)
		}
	}
	return out, sortedKeys(missing)
}

// RequestUnresolved lists the sorted unique keys referenced anywhere in req
// that ctx cannot resolve. Switched-off rows and generated variables never
// count as unresolved.
func RequestUnresolved(req *types.HttpRequest, ctx *Context) []string {
	if req == nil {
		return []string{}
	}
	set := make(map[string]struct{})
	add := func(s string) {
		for _, key := range FindUnresolved(s, ctx) {
			if !IsDynamic(key) {
				set[key] = struct{}{}
			}
		}
	}

	add(req.URL)
	for _, h := range req.Headers {
		if !h.IsEnabled() {
			continue
		}
		add(h.Key)
		add(h.Value)
	}
	for _, q := range req.QueryParams {
		if !q.IsEnabled() {
			continue
		}
		add(q.Key)
		add(q.Value)
	}
	add(req.Body)
	for _, f := range req.FormBody {
		if !f.IsEnabled() {
			continue
		}
		add(f.Key)
		add(f.Value)
		add(f.FilePath)
	}
	if req.Binary != nil {
		add(req.Binary.FilePath)
	}
	for _, k := range req.SortedAuthKeys() {
		add(req.AuthParams[k])
	}

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// replaceQuery swaps the query string of rawURL without re-encoding the rest,
// so unresolved tokens in the path survive untouched
func replaceQuery(rawURL, query string) string {
	base, fragment := rawURL, ""
	if i := strings.IndexByte(base, '#'); i >= 0 {
		base, fragment = base[:i], base[i:]
	}
	if i := strings.IndexByte(base, '?'); i >= 0 {
		base = base[:i]
	}
	return base + "?" + query + fragment
}
