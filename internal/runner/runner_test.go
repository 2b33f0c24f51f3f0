package runner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiowebux/reqflow/internal/bulk"
	"github.com/studiowebux/reqflow/internal/types"
)

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"tok-123"}`))
		case "/me":
			if r.Header.Get("Authorization") != "Bearer tok-123" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"name":"me"}`))
		case "/html":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<p>hi</p>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRunFolderChainsExtractedVariables(t *testing.T) {
	server := newAPI(t)
	r := New(map[string]any{"base": server.URL}, nil)

	reqs := []*types.HttpRequest{
		{ID: "login", Name: "Login", Method: "POST", URL: "{{base}}/login",
			ExtractRules: []types.ExtractRule{{ID: "e1", SourcePath: "body.access_token", TargetVariable: "token"}}},
		{ID: "me", Name: "Me", Method: "GET", URL: "{{base}}/me",
			AuthType: types.AuthBearer, AuthParams: map[string]string{"token": "{{token}}"}},
		{ID: "missing", Name: "Missing", Method: "GET", URL: "{{base}}/nowhere"},
	}

	report := r.RunFolder(context.Background(), reqs, 1, bulk.Hooks{})

	require.Len(t, report.Items, 3)
	assert.Equal(t, bulk.StatusPassed, report.Items[0].Status)
	assert.Equal(t, bulk.StatusPassed, report.Items[1].Status, report.Items[1].Error)
	assert.Equal(t, bulk.StatusFailed, report.Items[2].Status)
	assert.Equal(t, 404, report.Items[2].StatusCode)
	assert.Equal(t, "tok-123", r.Session()["token"])
}

func TestRunOneExtractionErrorFailsRow(t *testing.T) {
	server := newAPI(t)
	r := New(map[string]any{"base": server.URL}, nil)

	result := r.RunOne(context.Background(), &types.HttpRequest{
		ID: "h", Method: "GET", URL: "{{base}}/html",
		ExtractRules: []types.ExtractRule{{ID: "e", SourcePath: "id", TargetVariable: "id"}},
	})

	assert.Equal(t, 200, result.StatusCode)
	assert.Contains(t, result.Error, "Extraction issues")
	assert.Equal(t, bulk.StatusFailed, bulk.Classify(result))
}

func TestContextLayers(t *testing.T) {
	r := New(
		map[string]any{"a": "env", "b": "env"},
		map[string]string{"b": "cli"},
		WithSession(map[string]string{"a": "session"}),
		WithSystemEnv(map[string]string{"HOME": "/root"}),
	)

	ctx := r.Context()
	assert.Equal(t, "session", ctx.Values["a"])
	assert.Equal(t, "cli", ctx.Values["b"])
	assert.Equal(t, "/root", ctx.Values["env.HOME"])

	assert.Equal(t, []string{"missing"}, r.Unresolved(&types.HttpRequest{URL: "{{a}}/{{missing}}/{{$uuid}}"}))
}

func TestRunFolderWithStubSender(t *testing.T) {
	var sent atomic.Int32
	r := New(nil, map[string]string{"host": "stub"}, WithSender(func(_ context.Context, req *types.HttpRequest) *types.RequestResult {
		sent.Add(1)
		if req.URL != "http://stub/x" {
			return &types.RequestResult{Error: "bad url " + req.URL}
		}
		return &types.RequestResult{StatusCode: 200, DurationMs: 1}
	}))

	var reqs []*types.HttpRequest
	for i := 0; i < 6; i++ {
		reqs = append(reqs, &types.HttpRequest{ID: string(rune('a' + i)), Method: "GET", URL: "http://{{host}}/x"})
	}

	report := r.RunFolder(context.Background(), reqs, 3, bulk.Hooks{})
	assert.Equal(t, int32(6), sent.Load())
	assert.True(t, report.OK())
	assert.Equal(t, "c", report.Items[2].ID)
}
