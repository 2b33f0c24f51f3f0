package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/studiowebux/reqflow/internal/bulk"
	"github.com/studiowebux/reqflow/internal/collection"
	"github.com/studiowebux/reqflow/internal/config"
	"github.com/studiowebux/reqflow/internal/filter"
	"github.com/studiowebux/reqflow/internal/logging"
	"github.com/studiowebux/reqflow/internal/reports"
	"github.com/studiowebux/reqflow/internal/runner"
	"github.com/studiowebux/reqflow/internal/types"
	"github.com/studiowebux/reqflow/internal/variables"
)

// ErrFailed is returned when a request or a bulk run completed with failures.
// Callers exit non-zero without printing it again.
var ErrFailed = errors.New("one or more requests failed")

// Options are shared by every command
type Options struct {
	CollectionPath   string
	EnvironmentsPath string   // defaults to config.LocalEnvironmentsPath()
	EnvName          string   // overrides the active environment
	EnvFile          string   // .env file exposed as env.NAME
	ExtraVars        []string // key=value pairs from -e flag
	LogLevel         string
	DatabasePath     string // defaults to config.DatabasePath

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (o *Options) fillDefaults() {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.EnvironmentsPath == "" {
		o.EnvironmentsPath = config.LocalEnvironmentsPath()
	}
	if o.DatabasePath == "" {
		o.DatabasePath = config.DatabasePath
	}
}

// Workspace is a loaded collection with its environment and runner
type Workspace struct {
	Options        Options
	Settings       config.Settings
	CollectionPath string
	Collection     *types.Collection
	Environments   *types.EnvironmentFile
	Env            *types.Environment
	Runner         *runner.Runner
	Logger         *slog.Logger
}

// Open loads settings, the collection, the environment and builds a runner
func Open(opts Options) (*Workspace, error) {
	opts.fillDefaults()

	settings, err := config.LoadSettings(config.SettingsFile)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		settings.LogLevel = opts.LogLevel
	}
	logger := logging.New(logging.ParseLevel(settings.LogLevel), opts.Stderr)

	path, err := config.ResolvePath(opts.CollectionPath)
	if err != nil {
		return nil, err
	}
	coll, err := collection.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}

	envs, err := collection.LoadEnvironments(opts.EnvironmentsPath)
	if err != nil {
		return nil, err
	}
	env := envs.Active()
	if opts.EnvName != "" {
		if env, err = collection.Select(envs, opts.EnvName); err != nil {
			return nil, err
		}
	}

	system := variables.LoadSystemEnv()
	if opts.EnvFile != "" {
		fileVars, err := variables.LoadEnvFile(opts.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
		// File vars override system vars
		for k, v := range fileVars {
			system[k] = v
		}
	}

	logger.Debug("workspace loaded",
		"collection", coll.Name,
		"environment", env.Name,
		"requests", len(coll.Root().AllRequests()))

	return &Workspace{
		Options:        opts,
		Settings:       settings,
		CollectionPath: path,
		Collection:     coll,
		Environments:   envs,
		Env:            env,
		Runner:         runner.New(env.Variables, ParseExtraVars(opts.ExtraVars), runner.WithSystemEnv(system)),
		Logger:         logger,
	}, nil
}

// WithLogger attaches the workspace logger to ctx
func (w *Workspace) WithLogger(ctx context.Context) context.Context {
	return logging.WithLogger(ctx, w.Logger)
}

// withDefaultTimeout applies the configured timeout to requests without one
func (w *Workspace) withDefaultTimeout(req *types.HttpRequest) *types.HttpRequest {
	if req.TimeoutSeconds > 0 || w.Settings.RequestTimeoutSeconds <= 0 {
		return req
	}
	clone := req.Clone()
	clone.TimeoutSeconds = w.Settings.RequestTimeoutSeconds
	return clone
}

// ParseExtraVars turns "key=value" pairs into a map. A bare "key" sets an
// empty value.
func ParseExtraVars(pairs []string) map[string]string {
	vars := make(map[string]string, len(pairs))
	for _, ev := range pairs {
		key, value, _ := strings.Cut(ev, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		vars[key] = value
	}
	return vars
}

// RunOptions configures the run command
type RunOptions struct {
	Request      string // ID or name; empty opens a picker on a terminal
	OutputFormat string // text, json, yaml, body
	ShowFull     bool
	Filter       string // JMESPath filter expression
	Query        string // JMESPath query or $(shell command)
	Prompt       bool   // ask for unresolved variables
}

// Run sends one request from the collection
func Run(ctx context.Context, w *Workspace, opts RunOptions) error {
	ctx = w.WithLogger(ctx)

	ref := opts.Request
	if ref == "" {
		if !isInteractive() {
			return fmt.Errorf("no request given (non-interactive mode)")
		}
		id, err := selectRequest("Select a request", w.Collection.Root().AllRequests())
		if err != nil {
			return err
		}
		ref = id
	}

	req, err := collection.FindRequest(w.Collection, ref)
	if err != nil {
		return err
	}

	if opts.Prompt {
		if missing := w.Runner.Unresolved(req); len(missing) > 0 {
			if !isInteractive() {
				return fmt.Errorf("missing variables (non-interactive mode): %s", strings.Join(missing, ", "))
			}
			values, err := promptForVariables(w.Options.Stdin, w.Options.Stderr, missing)
			if err != nil {
				return err
			}
			for k, v := range values {
				w.Runner.SetSessionVar(k, v)
			}
		}
	}

	result := w.Runner.RunOne(ctx, w.withDefaultTimeout(req))

	shellOnly := opts.Filter == "" && filter.IsShellCommand(opts.Query)
	if (result.BodyIsJSON || shellOnly) && (opts.Filter != "" || opts.Query != "") {
		filtered, err := filter.Apply(ctx, result.Body, opts.Filter, opts.Query)
		if err != nil {
			fmt.Fprintf(w.Options.Stderr, "Warning: filter/query error: %v\n", err)
		} else {
			result.Body = filtered
		}
	}

	output, err := formatResult(result, outputFormat(opts.OutputFormat), opts.ShowFull)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Fprint(w.Options.Stdout, output)

	if bulk.Classify(result) == bulk.StatusFailed {
		return ErrFailed
	}
	return nil
}

// FolderOptions configures the run-folder command
type FolderOptions struct {
	Folder       string // ID or name path; empty is the whole collection
	Match        []string
	Concurrency  int
	OutputFormat string
	NoSave       bool
}

// RunFolder runs every request under a folder and prints the report
func RunFolder(ctx context.Context, w *Workspace, opts FolderOptions) error {
	ctx = w.WithLogger(ctx)

	folder, err := collection.FindFolder(w.Collection, opts.Folder)
	if err != nil {
		return err
	}
	reqs, err := filter.MatchRequests(folder.AllRequests(), opts.Match)
	if err != nil {
		return err
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = w.Settings.Concurrency
	}

	names := make(map[string]string, len(reqs))
	prepared := make([]*types.HttpRequest, 0, len(reqs))
	for _, req := range reqs {
		names[req.ID] = req.Name
		prepared = append(prepared, w.withDefaultTimeout(req))
	}

	format := outputFormat(opts.OutputFormat)
	hooks := bulk.Hooks{}
	if format == "text" {
		hooks.OnItemDone = func(_ context.Context, id string, result *types.RequestResult) error {
			fmt.Fprintln(w.Options.Stderr, progressLine(names[id], result))
			return nil
		}
	}

	w.Logger.Info("bulk run started", "folder", folder.Name, "requests", len(prepared), "concurrency", concurrency)
	report := w.Runner.RunFolder(ctx, prepared, concurrency, hooks)

	if !opts.NoSave && len(report.Items) > 0 {
		if id, err := saveReport(w, folder, report); err != nil {
			w.Logger.Warn("failed to save bulk run", "error", err)
		} else {
			w.Logger.Debug("bulk run saved", "id", id)
		}
	}

	output, err := formatReport(report, names, format)
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	fmt.Fprint(w.Options.Stdout, output)

	if !report.OK() {
		return ErrFailed
	}
	return nil
}

func saveReport(w *Workspace, folder *types.Folder, report *bulk.Report) (int64, error) {
	store, err := reports.Open(w.Options.DatabasePath)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	folderName := folder.Name
	if folder.ID == w.Collection.ID {
		folderName = ""
	}
	return store.Save(w.Collection.Name, folderName, report)
}

// VarsReport lists the unresolved variables of one request
type VarsReport struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Unresolved []string `json:"unresolved" yaml:"unresolved"`
}

// Vars reports unresolved variables for one request or every request
func Vars(w *Workspace, ref, format string) error {
	reqs := w.Collection.Root().AllRequests()
	if ref != "" {
		req, err := collection.FindRequest(w.Collection, ref)
		if err != nil {
			return err
		}
		reqs = []*types.HttpRequest{req}
	}

	out := make([]VarsReport, 0, len(reqs))
	for _, req := range reqs {
		unresolved := w.Runner.Unresolved(req)
		if unresolved == nil {
			unresolved = []string{}
		}
		out = append(out, VarsReport{ID: req.ID, Name: req.Name, Unresolved: unresolved})
	}

	output, err := formatVars(out, outputFormat(format))
	if err != nil {
		return err
	}
	fmt.Fprint(w.Options.Stdout, output)
	return nil
}

// Render prints a request with its variables substituted
func Render(w *Workspace, ref, format string) error {
	req, err := collection.FindRequest(w.Collection, ref)
	if err != nil {
		return err
	}

	rendered, missing := w.Runner.Prepare(req)
	if len(missing) > 0 {
		fmt.Fprintf(w.Options.Stderr, "Warning: unresolved variables: %s\n", strings.Join(missing, ", "))
	}

	output, err := formatRequest(rendered, outputFormat(format))
	if err != nil {
		return err
	}
	fmt.Fprint(w.Options.Stdout, output)
	return nil
}

// Suggest prints autocomplete candidates for query
func Suggest(w *Workspace, query string) error {
	keys := append(w.Runner.Context().Keys(), variables.DynamicKeys()...)
	sort.Strings(keys)
	for _, s := range variables.FilterSuggestions(query, keys) {
		fmt.Fprintln(w.Options.Stdout, s)
	}
	return nil
}

// ReportsOptions configures the reports command
type ReportsOptions struct {
	Collection   string
	Limit        int
	ShowID       int64
	DeleteID     int64
	OutputFormat string
}

// Reports lists, shows or deletes archived bulk runs
func Reports(opts Options, ro ReportsOptions) error {
	opts.fillDefaults()

	store, err := reports.Open(opts.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	format := outputFormat(ro.OutputFormat)

	switch {
	case ro.DeleteID > 0:
		if err := store.Delete(ro.DeleteID); err != nil {
			return err
		}
		fmt.Fprintf(opts.Stdout, "Deleted bulk run %d\n", ro.DeleteID)
		return nil

	case ro.ShowID > 0:
		summary, report, err := store.Get(ro.ShowID)
		if err != nil {
			return err
		}
		if format == "text" {
			fmt.Fprintf(opts.Stdout, "Run #%d  %s %s\n", summary.ID, summary.Collection, summary.Folder)
		}
		output, err := formatReport(report, nil, format)
		if err != nil {
			return err
		}
		fmt.Fprint(opts.Stdout, output)
		return nil
	}

	runs, err := store.List(ro.Collection, ro.Limit)
	if err != nil {
		return err
	}
	output, err := formatRuns(runs, format)
	if err != nil {
		return err
	}
	fmt.Fprint(opts.Stdout, output)
	return nil
}
