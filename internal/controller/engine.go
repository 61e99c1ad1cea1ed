package controller

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/pane-pilot/internal/marker"
	pilototel "github.com/timvw/pane-pilot/internal/otel"
	"github.com/timvw/pane-pilot/internal/tmux"
)

const (
	defaultExecTimeout   = 30 * time.Second
	defaultPollInterval  = 200 * time.Millisecond
	defaultCaptureLines  = 200
	defaultIdleTime      = 2 * time.Second
	defaultCheckInterval = 500 * time.Millisecond
)

// engine implements the execution protocol shared by both backends. It
// operates on already-resolved target addresses; resolution stays with
// the backend that owns the address space.
type engine struct {
	tm      *tmux.Client
	mode    string
	metrics *pilototel.Metrics
	tracer  trace.Tracer
}

func (e *engine) normalize(opts ExecOptions) ExecOptions {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultExecTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.CaptureLines <= 0 {
		opts.CaptureLines = defaultCaptureLines
	}
	return opts
}

// execute runs one command in the target pane/window and polls its
// capture until the end marker appears or the timeout elapses. A timeout
// is not an error: the result carries ExitCode -1 and the last capture.
// The underlying command is never killed on timeout — it may have
// partially applied a side effect, and re-running or interrupting it is
// the caller's decision.
func (e *engine) execute(ctx context.Context, target, command string, opts ExecOptions) (Result, error) {
	startMarker, endMarker := marker.Generate()
	return e.run(ctx, target, command, opts, startMarker, endMarker)
}

func (e *engine) run(ctx context.Context, target, command string, opts ExecOptions, startMarker, endMarker string) (result Result, err error) {
	opts = e.normalize(opts)
	start := time.Now()

	if e.tracer != nil {
		var span trace.Span
		ctx, span = e.tracer.Start(ctx, "execute", trace.WithAttributes(
			attribute.String("target", target),
			attribute.Bool("hidden", opts.Hidden),
		))
		defer func() {
			span.SetAttributes(attribute.Int("exit_code", result.ExitCode))
			span.End()
		}()
	}
	defer func() {
		result.Duration = time.Since(start)
		outcome := "ok"
		switch {
		case err != nil:
			outcome = "error"
		case result.ExitCode == -1:
			outcome = "timeout"
		}
		e.metrics.RecordExecution(ctx, e.mode, outcome, result.Duration)
	}()

	wrapped := marker.Wrap(command, startMarker, endMarker)

	if opts.Hidden {
		// Suppress the target shell's local echo so the wrapper is not
		// rendered, and prefix every transmitted line with a space so
		// shells with ignorespace history keep it out of history. Echo
		// MUST come back on every exit path, including caller
		// cancellation, hence the uncancellable restore context.
		if err := e.tm.SendLine(ctx, target, " stty -echo 2>/dev/null"); err != nil {
			return Result{ExitCode: -1}, err
		}
		restoreCtx := context.WithoutCancel(ctx)
		defer func() {
			restoreErr := e.tm.SendLine(restoreCtx, target, " stty echo 2>/dev/null")
			if err == nil && restoreErr != nil {
				err = restoreErr
			}
		}()
		wrapped = " " + wrapped
	}

	if err := e.tm.SendLine(ctx, target, wrapped); err != nil {
		return Result{ExitCode: -1}, err
	}

	captured, completed, err := e.pollCompletion(ctx, target, startMarker, endMarker, opts)
	if err != nil {
		return Result{Output: captured, ExitCode: -1}, err
	}
	if !completed {
		return Result{Output: captured, ExitCode: -1}, nil
	}
	res := marker.Parse(captured, startMarker, endMarker)
	return Result{Output: res.Output, ExitCode: res.ExitCode}, nil
}

// pollCompletion captures the target until the end marker (with its exit
// status trailer) shows up. Returns the last capture taken either way.
func (e *engine) pollCompletion(ctx context.Context, target, startMarker, endMarker string, opts ExecOptions) (string, bool, error) {
	deadline := time.Now().Add(opts.Timeout)
	var last string
	for {
		captured, err := e.tm.CapturePane(ctx, target, opts.CaptureLines)
		if err != nil {
			return last, false, err
		}
		last = captured
		if _, hasEnd := marker.Find(captured, startMarker, endMarker); hasEnd {
			return last, true, nil
		}
		if time.Now().After(deadline) {
			return last, false, nil
		}
		select {
		case <-ctx.Done():
			return last, false, nil
		case <-time.After(opts.PollInterval):
		}
	}
}

// executeClean is the hidden-transmission variant that also scrubs the
// target afterwards: visible screen cleared, scrollback dropped, and
// residual protocol text stripped from the result.
func (e *engine) executeClean(ctx context.Context, target, command string, opts ExecOptions) (Result, error) {
	opts.Hidden = true
	startMarker, endMarker := marker.Generate()
	res, err := e.run(ctx, target, command, opts, startMarker, endMarker)

	// Best-effort scrub even after a timeout, so no wrapper fragments
	// linger for a human watching the pane.
	scrubCtx := context.WithoutCancel(ctx)
	_ = e.tm.SendKey(scrubCtx, target, "C-l")
	_ = e.tm.ClearHistory(scrubCtx, target)

	// Strip by this execution's own pair so output that merely mentions
	// marker-like text is left intact.
	res.Output = marker.StripArtifacts(res.Output, startMarker, endMarker)
	return res, err
}
