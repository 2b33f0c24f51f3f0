// Package runner wires the variable engine, the HTTP executor and the bulk
// scheduler together: it renders requests, sends them and feeds extracted
// values back into the session.
package runner

import (
	"context"
	"sync"

	"github.com/studiowebux/reqflow/internal/bulk"
	"github.com/studiowebux/reqflow/internal/executor"
	"github.com/studiowebux/reqflow/internal/extract"
	"github.com/studiowebux/reqflow/internal/logging"
	"github.com/studiowebux/reqflow/internal/types"
	"github.com/studiowebux/reqflow/internal/variables"
)

// SendFunc performs one rendered request
type SendFunc func(ctx context.Context, req *types.HttpRequest) *types.RequestResult

// Option configures a Runner
type Option func(*Runner)

// WithSender replaces the HTTP transport
func WithSender(send SendFunc) Option {
	return func(r *Runner) { r.send = send }
}

// WithSession seeds the session variables
func WithSession(vars map[string]string) Option {
	return func(r *Runner) {
		for k, v := range vars {
			r.session[k] = v
		}
	}
}

// WithSystemEnv exposes OS variables as env.NAME
func WithSystemEnv(vars map[string]string) Option {
	return func(r *Runner) { r.system = vars }
}

// Runner sends requests against one environment. Session variables written
// by extraction rules are shared by every request it runs.
type Runner struct {
	env    map[string]any
	cli    map[string]string
	system map[string]string
	send   SendFunc

	mu      sync.RWMutex
	session map[string]string
}

// New creates a runner for the given environment variables and CLI overrides
func New(env map[string]any, cli map[string]string, opts ...Option) *Runner {
	r := &Runner{
		env:     env,
		cli:     cli,
		send:    executor.Execute,
		session: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Context builds a fresh variable context from every layer
func (r *Runner) Context() *variables.Context {
	r.mu.RLock()
	ctx := variables.BuildContext(r.env, r.session, r.cli)
	r.mu.RUnlock()
	if len(r.system) > 0 {
		ctx = ctx.WithSystemEnv(r.system)
	}
	return ctx
}

// Session returns a copy of the session variables
func (r *Runner) Session() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.session))
	for k, v := range r.session {
		out[k] = v
	}
	return out
}

// SetSessionVar stores a session variable
func (r *Runner) SetSessionVar(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session[key] = value
}

// Unresolved lists the variables req references that no layer defines
func (r *Runner) Unresolved(req *types.HttpRequest) []string {
	return variables.RequestUnresolved(req, r.Context())
}

// Prepare renders req against the current context
func (r *Runner) Prepare(req *types.HttpRequest) (*types.HttpRequest, []string) {
	return variables.RenderRequest(req, r.Context())
}

// RunOne renders, sends and applies extraction rules for one request.
// Extraction problems are appended to the result error.
func (r *Runner) RunOne(ctx context.Context, req *types.HttpRequest) *types.RequestResult {
	logger := logging.FromContext(ctx)

	prepared, missing := r.Prepare(req)
	if len(missing) > 0 {
		logger.Warn("unresolved variables", "request", req.Name, "variables", missing)
	}

	logger.Debug("sending request", "request", req.Name, "method", prepared.Method, "url", prepared.URL)
	result := r.send(ctx, prepared)
	if result == nil {
		result = &types.RequestResult{Error: "transport returned no result"}
	}
	result.RequestID = req.ID

	if result.StatusCode != 0 && len(req.ExtractRules) > 0 {
		outcome := extract.Apply(req.ExtractRules, result)
		if len(outcome.Values) > 0 {
			r.mu.Lock()
			for k, v := range outcome.Values {
				r.session[k] = v
			}
			r.mu.Unlock()
			logger.Debug("extracted variables", "request", req.Name, "count", len(outcome.Values))
		}
		if summary := outcome.Summary(); summary != "" {
			if result.Error != "" {
				result.Error += "; " + summary
			} else {
				result.Error = summary
			}
		}
	}

	logger.Info("request finished", "request", req.Name, "status", result.StatusCode, "duration_ms", result.DurationMs)
	return result
}

// RunFolder runs reqs through the bulk scheduler
func (r *Runner) RunFolder(ctx context.Context, reqs []*types.HttpRequest, concurrency int, hooks bulk.Hooks) *bulk.Report {
	items := make([]bulk.Item, 0, len(reqs))
	for _, req := range reqs {
		req := req
		items = append(items, bulk.Item{
			ID: req.ID,
			Execute: func(ctx context.Context) (*types.RequestResult, error) {
				return r.RunOne(ctx, req), nil
			},
		})
	}
	return bulk.ExecuteBulkRun(ctx, items, concurrency, hooks)
}
