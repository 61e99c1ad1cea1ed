package controller

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/timvw/pane-pilot/internal/tmux"
)

// windowFormat is the list-windows field layout parsed by parseWindowLine.
const windowFormat = "#{window_index}|#{window_name}|#{window_active}|#{window_width}x#{window_height}|#{pane_current_command}"

// Remote manages a dedicated session it owns, created once and reused
// across invocations. Isolation units are windows ("session:index")
// rather than panes, so a session a human is attached to is never
// disturbed by splits.
type Remote struct {
	engine
	session string
	current string
}

// NewRemote builds the remote backend, creating the owned session if it
// does not exist yet. Creation is idempotent: an existing session with
// the same name is reused.
func NewRemote(ctx context.Context, tm *tmux.Client, session string, tel telemetryOptions) (*Remote, error) {
	r := &Remote{
		engine:  engine{tm: tm, mode: "remote", metrics: tel.metrics, tracer: tel.tracer},
		session: session,
	}
	if tm.HasSession(ctx, session) {
		// Reuse: point at the session's active window.
		if idx, err := tm.DisplayMessage(ctx, session+":", "#{window_index}"); err == nil && idx != "" {
			r.current = session + ":" + idx
		} else {
			r.current = session + ":0"
		}
		return r, nil
	}
	if err := tm.NewSession(ctx, session); err != nil {
		return nil, err
	}
	r.current = session + ":0"
	return r, nil
}

// Mode returns "remote".
func (r *Remote) Mode() string { return "remote" }

// Session returns the owned session name.
func (r *Remote) Session() string { return r.session }

// Select sets the current target.
func (r *Remote) Select(target string) { r.current = target }

// Current returns the current target.
func (r *Remote) Current() string { return r.current }

// ListTargets lists the windows of the owned session.
func (r *Remote) ListTargets(ctx context.Context) ([]Target, error) {
	lines, err := r.tm.ListLines(ctx, "list-windows", "-t", r.session+":", "-F", windowFormat)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	targets := make([]Target, 0, len(lines))
	for _, line := range lines {
		if t, ok := r.parseWindowLine(line); ok {
			targets = append(targets, t)
		}
	}
	return targets, nil
}

func (r *Remote) parseWindowLine(line string) (Target, bool) {
	parts := strings.SplitN(line, "|", 5)
	if len(parts) != 5 {
		return Target{}, false
	}
	idx, err := strconv.Atoi(parts[0])
	if err != nil {
		return Target{}, false
	}
	return Target{
		ID:      r.session + ":" + parts[0],
		Index:   idx,
		Title:   parts[1],
		Active:  parts[2] == "1",
		Size:    parts[3],
		Command: parts[4],
	}, true
}

// CreateTarget opens a new window in the owned session and selects it.
func (r *Remote) CreateTarget(ctx context.Context, command, name string) (string, error) {
	id, err := r.tm.NewWindow(ctx, r.session, name, "#{session_name}:#{window_index}", command)
	if err != nil {
		return "", err
	}
	r.current = id
	return id, nil
}

// Resolve maps an identifier to a window address. Accepted shapes, in
// priority order: qualified address (contains ":") unchanged, opaque
// tmux ids ("%N", "@N") unchanged, bare index expanded against the owned
// session, exact window-name match. Anything else fails.
func (r *Remote) Resolve(ctx context.Context, identifier string) (string, error) {
	switch {
	case identifier == "":
		if r.current == "" {
			return "", ErrNoTarget
		}
		return r.current, nil
	case strings.Contains(identifier, ":"):
		return identifier, nil
	case strings.HasPrefix(identifier, "%"), strings.HasPrefix(identifier, "@"):
		return identifier, nil
	}

	if _, err := strconv.Atoi(identifier); err == nil {
		return r.session + ":" + identifier, nil
	}

	targets, err := r.ListTargets(ctx)
	if err != nil {
		return "", err
	}
	for _, t := range targets {
		if t.Title == identifier {
			return t.ID, nil
		}
	}
	return "", &InvalidTargetError{Identifier: identifier}
}

// Format returns "session:index" for display, falling back to the input
// on any lookup failure.
func (r *Remote) Format(ctx context.Context, target string) string {
	out, err := r.tm.DisplayMessage(ctx, target, "#{session_name}:#{window_index}")
	if err != nil || out == "" {
		return target
	}
	return out
}

// Send transmits text to a target, by default followed by Enter.
func (r *Remote) Send(ctx context.Context, target, text string, opts SendOptions) error {
	if text == "" {
		return nil
	}
	id, err := r.Resolve(ctx, target)
	if err != nil {
		return err
	}
	if !opts.Enter {
		return r.tm.SendText(ctx, id, text)
	}
	if opts.DelayEnter > 0 {
		if err := r.tm.SendText(ctx, id, text); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(opts.DelayEnter):
		}
		return r.tm.SendKey(ctx, id, "Enter")
	}
	return r.tm.SendLine(ctx, id, text)
}

// Capture returns a target's content, optionally the last N lines.
func (r *Remote) Capture(ctx context.Context, target string, lines int) (string, error) {
	id, err := r.Resolve(ctx, target)
	if err != nil {
		return "", err
	}
	return r.tm.CapturePane(ctx, id, lines)
}

// Execute runs a command in a target and returns output plus exit code.
func (r *Remote) Execute(ctx context.Context, command, target string, opts ExecOptions) (Result, error) {
	id, err := r.Resolve(ctx, target)
	if err != nil {
		return Result{ExitCode: -1}, err
	}
	return r.engine.execute(ctx, id, command, opts)
}

// ExecuteClean runs a command hidden and scrubs the target afterwards.
func (r *Remote) ExecuteClean(ctx context.Context, command, target string, opts ExecOptions) (Result, error) {
	id, err := r.Resolve(ctx, target)
	if err != nil {
		return Result{ExitCode: -1}, err
	}
	return r.engine.executeClean(ctx, id, command, opts)
}

// WaitForIdle blocks until the target's content stabilizes.
func (r *Remote) WaitForIdle(ctx context.Context, target string, opts IdleOptions) (bool, error) {
	id, err := r.Resolve(ctx, target)
	if err != nil {
		return false, err
	}
	return r.engine.waitForIdle(ctx, id, opts)
}

// WaitForPrompt blocks until the target's content matches pattern.
func (r *Remote) WaitForPrompt(ctx context.Context, target, pattern string, timeout time.Duration) (bool, error) {
	id, err := r.Resolve(ctx, target)
	if err != nil {
		return false, err
	}
	return r.engine.waitForPrompt(ctx, id, pattern, timeout, IdleOptions{})
}

// Interrupt sends Ctrl-C to a target.
func (r *Remote) Interrupt(ctx context.Context, target string) error {
	id, err := r.Resolve(ctx, target)
	if err != nil {
		return err
	}
	return r.tm.SendKey(ctx, id, "C-c")
}

// Escape sends the Escape key to a target.
func (r *Remote) Escape(ctx context.Context, target string) error {
	id, err := r.Resolve(ctx, target)
	if err != nil {
		return err
	}
	return r.tm.SendKey(ctx, id, "Escape")
}

// Kill destroys a window in the owned session.
func (r *Remote) Kill(ctx context.Context, target string) error {
	id, err := r.Resolve(ctx, target)
	if err != nil {
		return err
	}
	if err := r.tm.KillWindow(ctx, id); err != nil {
		return err
	}
	if id == r.current {
		r.current = ""
	}
	return nil
}

// Attach attaches the caller's terminal to the owned session.
func (r *Remote) Attach(ctx context.Context) error {
	return r.tm.AttachSession(ctx, r.session)
}

// CleanupAll destroys the owned session and everything in it.
func (r *Remote) CleanupAll(ctx context.Context) error {
	if err := r.tm.KillSession(ctx, r.session); err != nil {
		return err
	}
	r.current = ""
	return nil
}
