package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiowebux/reqflow/internal/config"
	"github.com/studiowebux/reqflow/internal/reports"
)

const testCollection = `{
  "name": "Demo",
  "requests": [
    {"id": "health", "name": "Health", "method": "GET", "url": "{{base}}/health"}
  ],
  "folders": [
    {"name": "users", "requests": [
      {"id": "login", "name": "Login", "method": "POST", "url": "{{base}}/login",
       "extract_rules": [{"source_path": "body.access_token", "target_variable": "token"}]},
      {"id": "me", "name": "Me", "method": "GET", "url": "{{base}}/me",
       "auth_type": "bearer", "auth_params": {"token": "{{token}}"}},
      {"id": "broken", "name": "Broken", "method": "GET", "url": "{{base}}/missing/{{userId}}"}
    ]}
  ]
}`

type testEnv struct {
	opts   Options
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/health":
			w.Write([]byte(`{"status":"ok","items":[{"n":1},{"n":2}]}`))
		case "/login":
			w.Write([]byte(`{"access_token":"tok"}`))
		case "/me":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"name":"me"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	require.NoError(t, config.InitializeAt(filepath.Join(dir, "config")))

	collPath := filepath.Join(dir, "demo.json")
	require.NoError(t, os.WriteFile(collPath, []byte(testCollection), 0644))

	envPath := filepath.Join(dir, "environments.json")
	envs := `{"active_env":"local","envs":{"local":{"variables":{"base":"` + server.URL + `"}}}}`
	require.NoError(t, os.WriteFile(envPath, []byte(envs), 0644))

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return &testEnv{
		opts: Options{
			CollectionPath:   collPath,
			EnvironmentsPath: envPath,
			DatabasePath:     filepath.Join(dir, "reqflow.db"),
			LogLevel:         "error",
			Stdin:            strings.NewReader(""),
			Stdout:           stdout,
			Stderr:           stderr,
		},
		stdout: stdout,
		stderr: stderr,
	}
}

func (e *testEnv) open(t *testing.T) *Workspace {
	t.Helper()
	w, err := Open(e.opts)
	require.NoError(t, err)
	return w
}

func TestParseExtraVars(t *testing.T) {
	got := ParseExtraVars([]string{"a=1", "b=x=y", "flag", "=skip", " c =3"})
	assert.Equal(t, map[string]string{"a": "1", "b": "x=y", "flag": "", "c": "3"}, got)
}

func TestRunWithQuery(t *testing.T) {
	e := newTestEnv(t)
	w := e.open(t)

	err := Run(context.Background(), w, RunOptions{Request: "Health", OutputFormat: "body", Query: "items[].n"})
	require.NoError(t, err)
	assert.Equal(t, "[\n  1,\n  2\n]", e.stdout.String())
}

func TestRunFailingRequestReturnsErrFailed(t *testing.T) {
	e := newTestEnv(t)
	e.opts.ExtraVars = []string{"userId=7"}
	w := e.open(t)

	err := Run(context.Background(), w, RunOptions{Request: "broken", OutputFormat: "json"})
	assert.ErrorIs(t, err, ErrFailed)

	var result map[string]any
	require.NoError(t, json.Unmarshal(e.stdout.Bytes(), &result))
	assert.EqualValues(t, 404, result["status_code"])
}

func TestRunFolderSavesReport(t *testing.T) {
	e := newTestEnv(t)
	w := e.open(t)

	err := RunFolder(context.Background(), w, FolderOptions{Folder: "users", Concurrency: 1, OutputFormat: "json"})
	assert.ErrorIs(t, err, ErrFailed, "the broken request fails the run")

	var report struct {
		Total  int `json:"total"`
		Passed int `json:"passed"`
		Failed int `json:"failed"`
		Items  []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(e.stdout.Bytes(), &report))
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Passed)
	require.Len(t, report.Items, 3)
	assert.Equal(t, []string{"login", "me", "broken"},
		[]string{report.Items[0].ID, report.Items[1].ID, report.Items[2].ID})

	store, err := reports.Open(e.opts.DatabasePath)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.List("Demo", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "users", runs[0].Folder)
	assert.Equal(t, 1, runs[0].Failed)
}

func TestRunFolderMatchAndNoSave(t *testing.T) {
	e := newTestEnv(t)
	w := e.open(t)

	err := RunFolder(context.Background(), w, FolderOptions{Match: []string{"health"}, NoSave: true})
	require.NoError(t, err)
	assert.Contains(t, e.stdout.String(), "Total: 1")
	assert.Contains(t, e.stderr.String(), "Health", "progress lines go to stderr")

	_, statErr := os.Stat(e.opts.DatabasePath)
	assert.True(t, os.IsNotExist(statErr), "no database is created with NoSave")
}

func TestVars(t *testing.T) {
	e := newTestEnv(t)
	w := e.open(t)

	require.NoError(t, Vars(w, "", "json"))

	var out []VarsReport
	require.NoError(t, json.Unmarshal(e.stdout.Bytes(), &out))
	require.Len(t, out, 4)
	byID := map[string][]string{}
	for _, v := range out {
		byID[v.ID] = v.Unresolved
	}
	assert.Empty(t, byID["health"])
	assert.Equal(t, []string{"token"}, byID["me"])
	assert.Equal(t, []string{"userId"}, byID["broken"])
}

func TestRender(t *testing.T) {
	e := newTestEnv(t)
	e.opts.ExtraVars = []string{"token=abc"}
	w := e.open(t)

	require.NoError(t, Render(w, "me", "text"))
	out := e.stdout.String()
	assert.Contains(t, out, "### Me")
	assert.Contains(t, out, "Authorization: Bearer abc")
	assert.NotContains(t, out, "{{base}}")
	assert.Empty(t, e.stderr.String())
}

func TestSuggest(t *testing.T) {
	e := newTestEnv(t)
	w := e.open(t)

	require.NoError(t, Suggest(w, "{{ba"))
	lines := strings.Split(strings.TrimSpace(e.stdout.String()), "\n")
	assert.Contains(t, lines, "{{base}}")
	assert.Contains(t, lines, "${base}")
	assert.NotContains(t, lines, "{{token}}")
}

func TestReportsListShowDelete(t *testing.T) {
	e := newTestEnv(t)
	w := e.open(t)
	require.Error(t, RunFolder(context.Background(), w, FolderOptions{Folder: "users", Concurrency: 1, OutputFormat: "json"}))

	e.stdout.Reset()
	require.NoError(t, Reports(e.opts, ReportsOptions{OutputFormat: "json"}))
	var runs []reports.Summary
	require.NoError(t, json.Unmarshal(e.stdout.Bytes(), &runs))
	require.Len(t, runs, 1)

	e.stdout.Reset()
	require.NoError(t, Reports(e.opts, ReportsOptions{ShowID: runs[0].ID}))
	assert.Contains(t, e.stdout.String(), "Failed: 1")

	e.stdout.Reset()
	require.NoError(t, Reports(e.opts, ReportsOptions{DeleteID: runs[0].ID}))
	assert.Error(t, Reports(e.opts, ReportsOptions{ShowID: runs[0].ID}))
}
