package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/timvw/pane-pilot/internal/tmux"
)

// createdTitlePrefix labels every pane this tool creates. CleanupAll
// relies on it to kill only our own panes, never a human's.
const createdTitlePrefix = "pp-"

// paneFormat is the list-panes field layout parsed by parsePaneLine.
const paneFormat = "#{pane_id}|#{pane_index}|#{pane_title}|#{pane_active}|#{pane_width}x#{pane_height}|#{pane_current_command}"

// Local manages panes inside the window the calling process is attached
// to. Canonical addresses are tmux pane ids ("%3"), which survive
// reordering and renaming.
type Local struct {
	engine
	ownPane string
	current string
}

// NewLocal builds the local backend. The caller must be inside tmux; the
// caller's own pane id is resolved once so Kill can refuse to destroy it.
func NewLocal(ctx context.Context, tm *tmux.Client, tel telemetryOptions) (*Local, error) {
	own, err := tmux.CurrentPaneID(ctx, tm.Runner)
	if err != nil {
		return nil, fmt.Errorf("resolve own pane: %w", err)
	}
	return &Local{
		engine:  engine{tm: tm, mode: "local", metrics: tel.metrics, tracer: tel.tracer},
		ownPane: own,
	}, nil
}

// Mode returns "local".
func (l *Local) Mode() string { return "local" }

// Select sets the current target.
func (l *Local) Select(target string) { l.current = target }

// Current returns the current target ("" if none).
func (l *Local) Current() string { return l.current }

// ListTargets lists the panes of the caller's current window.
func (l *Local) ListTargets(ctx context.Context) ([]Target, error) {
	lines, err := l.tm.ListLines(ctx, "list-panes", "-F", paneFormat)
	if err != nil {
		return nil, fmt.Errorf("list panes: %w", err)
	}
	targets := make([]Target, 0, len(lines))
	for _, line := range lines {
		if t, ok := parsePaneLine(line); ok {
			targets = append(targets, t)
		}
	}
	return targets, nil
}

func parsePaneLine(line string) (Target, bool) {
	parts := strings.SplitN(line, "|", 6)
	if len(parts) != 6 {
		return Target{}, false
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil {
		return Target{}, false
	}
	return Target{
		ID:      parts[0],
		Index:   idx,
		Title:   parts[2],
		Active:  parts[3] == "1",
		Size:    parts[4],
		Command: parts[5],
	}, true
}

// CreateTarget splits the current window, titles the new pane with the
// created-by-us convention, and selects it as current.
func (l *Local) CreateTarget(ctx context.Context, command, name string) (string, error) {
	id, err := l.tm.SplitWindow(ctx, true, 50, "#{pane_id}", command)
	if err != nil {
		return "", err
	}
	title := createdTitlePrefix + uuid.NewString()[:8]
	if name != "" {
		title = createdTitlePrefix + name
	}
	if err := l.tm.SetPaneTitle(ctx, id, title); err != nil {
		return "", fmt.Errorf("title pane %s: %w", id, err)
	}
	l.current = id
	return id, nil
}

// Resolve maps an identifier to a pane id. Accepted shapes, in priority
// order: pane id ("%N") unchanged, qualified address ("session:win.pane")
// via the server, bare index, exact title match. Anything else fails.
func (l *Local) Resolve(ctx context.Context, identifier string) (string, error) {
	switch {
	case identifier == "":
		if l.current == "" {
			return "", ErrNoTarget
		}
		return l.current, nil
	case strings.HasPrefix(identifier, "%"):
		return identifier, nil
	case strings.Contains(identifier, ":"):
		id, err := l.tm.DisplayMessage(ctx, identifier, "#{pane_id}")
		if err != nil {
			// An unreachable server is a transport failure, not a bad
			// identifier.
			if errors.Is(err, tmux.ErrUnavailable) {
				return "", fmt.Errorf("resolve %q: %w", identifier, err)
			}
			return "", &InvalidTargetError{Identifier: identifier}
		}
		if id == "" {
			return "", &InvalidTargetError{Identifier: identifier}
		}
		return id, nil
	}

	targets, err := l.ListTargets(ctx)
	if err != nil {
		return "", err
	}
	if idx, err := strconv.Atoi(identifier); err == nil {
		for _, t := range targets {
			if t.Index == idx {
				return t.ID, nil
			}
		}
		return "", &InvalidTargetError{Identifier: identifier}
	}
	for _, t := range targets {
		if t.Title == identifier || t.Title == createdTitlePrefix+identifier {
			return t.ID, nil
		}
	}
	return "", &InvalidTargetError{Identifier: identifier}
}

// Format returns "session:window.pane" for display. Best-effort: any
// lookup failure yields the input unchanged, since this feeds logging.
func (l *Local) Format(ctx context.Context, target string) string {
	out, err := l.tm.DisplayMessage(ctx, target, "#{session_name}:#{window_index}.#{pane_index}")
	if err != nil || out == "" {
		return target
	}
	return out
}

// Send transmits text to a target, by default followed by Enter.
func (l *Local) Send(ctx context.Context, target, text string, opts SendOptions) error {
	if text == "" {
		return nil
	}
	id, err := l.Resolve(ctx, target)
	if err != nil {
		return err
	}
	if !opts.Enter {
		return l.tm.SendText(ctx, id, text)
	}
	if opts.DelayEnter > 0 {
		if err := l.tm.SendText(ctx, id, text); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(opts.DelayEnter):
		}
		return l.tm.SendKey(ctx, id, "Enter")
	}
	return l.tm.SendLine(ctx, id, text)
}

// Capture returns a target's content, optionally the last N lines.
func (l *Local) Capture(ctx context.Context, target string, lines int) (string, error) {
	id, err := l.Resolve(ctx, target)
	if err != nil {
		return "", err
	}
	return l.tm.CapturePane(ctx, id, lines)
}

// Execute runs a command in a target and returns output plus exit code.
func (l *Local) Execute(ctx context.Context, command, target string, opts ExecOptions) (Result, error) {
	id, err := l.Resolve(ctx, target)
	if err != nil {
		return Result{ExitCode: -1}, err
	}
	return l.engine.execute(ctx, id, command, opts)
}

// ExecuteClean runs a command hidden and scrubs the target afterwards.
func (l *Local) ExecuteClean(ctx context.Context, command, target string, opts ExecOptions) (Result, error) {
	id, err := l.Resolve(ctx, target)
	if err != nil {
		return Result{ExitCode: -1}, err
	}
	return l.engine.executeClean(ctx, id, command, opts)
}

// WaitForIdle blocks until the target's content stabilizes.
func (l *Local) WaitForIdle(ctx context.Context, target string, opts IdleOptions) (bool, error) {
	id, err := l.Resolve(ctx, target)
	if err != nil {
		return false, err
	}
	return l.engine.waitForIdle(ctx, id, opts)
}

// WaitForPrompt blocks until the target's content matches pattern.
func (l *Local) WaitForPrompt(ctx context.Context, target, pattern string, timeout time.Duration) (bool, error) {
	id, err := l.Resolve(ctx, target)
	if err != nil {
		return false, err
	}
	return l.engine.waitForPrompt(ctx, id, pattern, timeout, IdleOptions{})
}

// Interrupt sends Ctrl-C to a target.
func (l *Local) Interrupt(ctx context.Context, target string) error {
	id, err := l.Resolve(ctx, target)
	if err != nil {
		return err
	}
	return l.tm.SendKey(ctx, id, "C-c")
}

// Escape sends the Escape key to a target.
func (l *Local) Escape(ctx context.Context, target string) error {
	id, err := l.Resolve(ctx, target)
	if err != nil {
		return err
	}
	return l.tm.SendKey(ctx, id, "Escape")
}

// Kill destroys a pane. Killing the caller's own pane is rejected with
// ErrSelfKill: silently turning it into a no-op would hide a caller bug,
// and honoring it would take down the controlling process.
func (l *Local) Kill(ctx context.Context, target string) error {
	id, err := l.Resolve(ctx, target)
	if err != nil {
		return err
	}
	if id == l.ownPane {
		return fmt.Errorf("%w (%s)", ErrSelfKill, id)
	}
	if err := l.tm.KillPane(ctx, id); err != nil {
		return err
	}
	if id == l.current {
		l.current = ""
	}
	return nil
}

// Attach exists only on the remote backend.
func (l *Local) Attach(ctx context.Context) error {
	return ErrRemoteOnly
}

// CleanupAll kills every pane this tool created in the current window,
// identified by the title convention. Panes it did not create are left
// alone, as is the caller's own pane.
func (l *Local) CleanupAll(ctx context.Context) error {
	targets, err := l.ListTargets(ctx)
	if err != nil {
		return err
	}
	var firstErr error
	for _, t := range targets {
		if !strings.HasPrefix(t.Title, createdTitlePrefix) || t.ID == l.ownPane {
			continue
		}
		if err := l.tm.KillPane(ctx, t.ID); err != nil && firstErr == nil {
			firstErr = err
		}
		if t.ID == l.current {
			l.current = ""
		}
	}
	return firstErr
}
