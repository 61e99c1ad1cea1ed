// Package tmux wraps the tmux command-line interface. Every operation is
// one external process invocation: the argument vector encodes the target
// and operation, the exit status is success/failure, and stdout is the
// payload. This package is pure transport — it never interprets pane
// content.
package tmux

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrUnavailable indicates the tmux binary could not be invoked at all
// (missing binary, no server). Fatal: callers surface it immediately and
// never retry.
var ErrUnavailable = errors.New("tmux unavailable")

// Runner executes the tmux binary. The indirection exists so tests can
// script tmux responses without a real server.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner invokes the real tmux binary.
type ExecRunner struct{}

// Run executes tmux with the given arguments and returns its stdout.
func (ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "tmux", args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("tmux %s: %w: %s", args[0], err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return string(out), nil
}

// InsideTmux reports whether the calling process is attached to a tmux
// session. This is the environment signal the facade uses to select a
// backend, checked once at construction.
func InsideTmux() bool {
	return os.Getenv("TMUX") != ""
}

// CurrentPaneID returns the caller's own pane id, preferring $TMUX_PANE
// over a round trip to the server.
func CurrentPaneID(ctx context.Context, r Runner) (string, error) {
	if pane := os.Getenv("TMUX_PANE"); pane != "" {
		return pane, nil
	}
	c := Client{Runner: r}
	return c.DisplayMessage(ctx, "", "#{pane_id}")
}

// Client provides typed wrappers over raw tmux invocations. All methods
// are synchronous and blocking for the duration of the external call.
type Client struct {
	Runner Runner
}

// NewClient returns a Client backed by the real tmux binary.
func NewClient() *Client {
	return &Client{Runner: ExecRunner{}}
}

// DisplayMessage expands a tmux format string, optionally for a target.
func (c *Client) DisplayMessage(ctx context.Context, target, format string) (string, error) {
	args := []string{"display-message"}
	if target != "" {
		args = append(args, "-t", target)
	}
	args = append(args, "-p", format)
	out, err := c.Runner.Run(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// SendLine transmits text followed by Enter as a single tmux invocation,
// so no other writer can interleave between the text and the newline.
func (c *Client) SendLine(ctx context.Context, target, text string) error {
	_, err := c.Runner.Run(ctx, "send-keys", "-t", target, "--", text, "Enter")
	return err
}

// SendText transmits text without pressing Enter.
func (c *Client) SendText(ctx context.Context, target, text string) error {
	_, err := c.Runner.Run(ctx, "send-keys", "-t", target, "--", text)
	return err
}

// SendKey transmits a single named key (e.g. "Enter", "C-c", "Escape").
func (c *Client) SendKey(ctx context.Context, target, key string) error {
	_, err := c.Runner.Run(ctx, "send-keys", "-t", target, key)
	return err
}

// CapturePane captures pane content. lines > 0 limits the capture to the
// last N lines of scrollback plus the visible screen; lines <= 0 captures
// the visible screen only.
func (c *Client) CapturePane(ctx context.Context, target string, lines int) (string, error) {
	args := []string{"capture-pane", "-t", target, "-p"}
	if lines > 0 {
		args = append(args, "-S", fmt.Sprintf("-%d", lines))
	}
	out, err := c.Runner.Run(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("capture %s: %w", target, err)
	}
	return out, nil
}

// ListLines runs a listing command and splits its stdout into non-empty
// lines.
func (c *Client) ListLines(ctx context.Context, args ...string) ([]string, error) {
	out, err := c.Runner.Run(ctx, args...)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// SplitWindow creates a new pane in the current window and returns the
// value of format (typically "#{pane_id}") for the created pane.
func (c *Client) SplitWindow(ctx context.Context, vertical bool, percent int, format, startCommand string) (string, error) {
	args := []string{"split-window"}
	if vertical {
		args = append(args, "-h")
	} else {
		args = append(args, "-v")
	}
	if percent > 0 {
		args = append(args, "-p", fmt.Sprintf("%d", percent))
	}
	args = append(args, "-P", "-F", format)
	if startCommand != "" {
		args = append(args, startCommand)
	}
	out, err := c.Runner.Run(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("split-window: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// NewWindow creates a window in the given session and returns the value
// of format for the created window.
func (c *Client) NewWindow(ctx context.Context, session, name, format, startCommand string) (string, error) {
	args := []string{"new-window", "-t", session + ":", "-P", "-F", format}
	if name != "" {
		args = append(args, "-n", name)
	}
	if startCommand != "" {
		args = append(args, startCommand)
	}
	out, err := c.Runner.Run(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("new-window: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// HasSession reports whether a session with the given name exists.
func (c *Client) HasSession(ctx context.Context, name string) bool {
	_, err := c.Runner.Run(ctx, "has-session", "-t", name)
	return err == nil
}

// NewSession creates a detached session.
func (c *Client) NewSession(ctx context.Context, name string) error {
	if _, err := c.Runner.Run(ctx, "new-session", "-d", "-s", name); err != nil {
		return fmt.Errorf("new-session %s: %w", name, err)
	}
	return nil
}

// KillSession destroys a session and everything in it.
func (c *Client) KillSession(ctx context.Context, name string) error {
	if _, err := c.Runner.Run(ctx, "kill-session", "-t", name); err != nil {
		return fmt.Errorf("kill-session %s: %w", name, err)
	}
	return nil
}

// KillPane destroys a single pane.
func (c *Client) KillPane(ctx context.Context, target string) error {
	if _, err := c.Runner.Run(ctx, "kill-pane", "-t", target); err != nil {
		return fmt.Errorf("kill-pane %s: %w", target, err)
	}
	return nil
}

// KillWindow destroys a single window.
func (c *Client) KillWindow(ctx context.Context, target string) error {
	if _, err := c.Runner.Run(ctx, "kill-window", "-t", target); err != nil {
		return fmt.Errorf("kill-window %s: %w", target, err)
	}
	return nil
}

// ClearHistory drops a pane's scrollback buffer.
func (c *Client) ClearHistory(ctx context.Context, target string) error {
	_, err := c.Runner.Run(ctx, "clear-history", "-t", target)
	return err
}

// SetPaneTitle labels a pane. Used for the created-by-us naming
// convention that scoped cleanup relies on.
func (c *Client) SetPaneTitle(ctx context.Context, target, title string) error {
	_, err := c.Runner.Run(ctx, "select-pane", "-t", target, "-T", title)
	return err
}

// AttachSession replaces the tmux invocation style: attaching is
// interactive, so the process inherits the caller's terminal instead of
// having its output captured.
func (c *Client) AttachSession(ctx context.Context, name string) error {
	cmd := exec.CommandContext(ctx, "tmux", "attach-session", "-t", name)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("attach-session %s: %w", name, err)
	}
	return nil
}
