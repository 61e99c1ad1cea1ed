package controller

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	pilototel "github.com/timvw/pane-pilot/internal/otel"
	"github.com/timvw/pane-pilot/internal/tmux"
)

// DefaultSession is the name of the owned session the remote backend
// creates when the caller does not configure one.
const DefaultSession = "pane-pilot"

// Options configures controller construction.
type Options struct {
	// Session is the owned session name for the remote backend.
	// Defaults to DefaultSession.
	Session string
	// Runner overrides the tmux invocation layer (tests).
	Runner tmux.Runner
	// Metrics and Tracer are optional telemetry hooks.
	Metrics *pilototel.Metrics
	Tracer  trace.Tracer
}

type telemetryOptions struct {
	metrics *pilototel.Metrics
	tracer  trace.Tracer
}

// New selects and constructs a backend: local when the calling process
// is already inside tmux, remote otherwise. The selection happens once
// here and is never re-evaluated for the lifetime of the controller.
func New(ctx context.Context, opts Options) (Controller, error) {
	tm := tmux.NewClient()
	if opts.Runner != nil {
		tm = &tmux.Client{Runner: opts.Runner}
	}
	session := opts.Session
	if session == "" {
		session = DefaultSession
	}
	tel := telemetryOptions{metrics: opts.Metrics, tracer: opts.Tracer}

	if tmux.InsideTmux() {
		return NewLocal(ctx, tm, tel)
	}
	return NewRemote(ctx, tm, session, tel)
}
