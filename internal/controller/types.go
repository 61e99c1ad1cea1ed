// Package controller implements target management and the command
// execution protocol on top of the tmux transport.
//
// Two interchangeable backends exist: a local controller that manages
// panes inside the window the caller is attached to, and a remote
// controller that owns a dedicated session and uses windows as isolation
// units. New selects between them once, at construction, based on whether
// the caller is inside tmux.
package controller

import (
	"context"
	"time"
)

// Target describes one addressable pane or window.
type Target struct {
	// ID is the canonical address accepted by every operation
	// (pane id "%3" locally, "session:index" remotely).
	ID string `json:"id"`
	// Index is the pane/window index within its container.
	Index int `json:"index"`
	// Title is the pane title or window name.
	Title string `json:"title"`
	// Active reports whether this is the currently selected target.
	Active bool `json:"active"`
	// Command is the command currently running in the target.
	Command string `json:"command"`
	// Size is the target dimensions as "WxH".
	Size string `json:"size"`
}

// Result is the outcome of one Execute call. ExitCode -1 means the
// protocol could not determine a result: the command may still be
// running, and Output holds the last capture taken.
type Result struct {
	Output   string        `json:"output"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"-"`
}

// SendOptions controls Send behavior.
type SendOptions struct {
	// Enter appends a newline after the text.
	Enter bool
	// DelayEnter inserts a pause between the text and the Enter key.
	// Useful for TUIs that debounce input. Zero sends both at once.
	DelayEnter time.Duration
}

// ExecOptions controls Execute behavior. Zero values select defaults.
type ExecOptions struct {
	// Hidden suppresses terminal echo and shell history for the
	// transmitted wrapper, restoring both on every exit path.
	Hidden bool
	// Timeout bounds the completion poll. The underlying command is not
	// killed when it elapses; the timeout is reported via ExitCode -1.
	Timeout time.Duration
	// PollInterval is the sleep between completion checks.
	PollInterval time.Duration
	// CaptureLines bounds each poll capture to the last N lines.
	CaptureLines int
}

// IdleOptions controls WaitForIdle behavior. Zero values select defaults;
// Timeout zero means no overall bound.
type IdleOptions struct {
	// IdleTime is how long content must stay unchanged to count as idle.
	IdleTime time.Duration
	// CheckInterval is the sleep between content checks.
	CheckInterval time.Duration
	// Timeout bounds the whole wait; exceeded first returns false.
	Timeout time.Duration
	// CaptureLines bounds each capture to the last N lines.
	CaptureLines int
}

// Controller is the capability set shared by the local and remote
// backends. An empty target argument means the controller's current
// target; operations that need one fail with ErrNoTarget when neither is
// available.
//
// Executions against one target must be serialized by the caller:
// concurrent calls race on the shared marker stream and are a caller
// error, not a detected fault.
type Controller interface {
	// Mode returns "local" or "remote".
	Mode() string

	// ListTargets returns all addressable targets of this backend.
	ListTargets(ctx context.Context) ([]Target, error)

	// CreateTarget creates a new target, optionally running a start
	// command, and selects it as current. Returns the canonical address.
	CreateTarget(ctx context.Context, command, name string) (string, error)

	// Send transmits keystrokes to a target.
	Send(ctx context.Context, target, text string, opts SendOptions) error

	// Capture returns a target's content, optionally the last N lines.
	Capture(ctx context.Context, target string, lines int) (string, error)

	// Execute runs a shell command in the target and returns its output
	// and exit code. ExitCode -1 with a nil error is a protocol timeout,
	// an expected outcome in interactive automation.
	Execute(ctx context.Context, command, target string, opts ExecOptions) (Result, error)

	// ExecuteClean is Execute with hidden transmission forced on,
	// scrollback cleared after completion, and residual protocol
	// artifacts stripped from the result.
	ExecuteClean(ctx context.Context, command, target string, opts ExecOptions) (Result, error)

	// WaitForIdle blocks until the target's content is unchanged for
	// opts.IdleTime, or the overall timeout elapses (false).
	WaitForIdle(ctx context.Context, target string, opts IdleOptions) (bool, error)

	// WaitForPrompt blocks until the target's content matches pattern,
	// or timeout elapses (false).
	WaitForPrompt(ctx context.Context, target, pattern string, timeout time.Duration) (bool, error)

	// Interrupt sends Ctrl-C to a target.
	Interrupt(ctx context.Context, target string) error

	// Escape sends the Escape key to a target.
	Escape(ctx context.Context, target string) error

	// Kill destroys a target. The local backend refuses to kill the
	// caller's own pane (ErrSelfKill).
	Kill(ctx context.Context, target string) error

	// Resolve maps an identifier (canonical address, opaque id, index,
	// or name) to a canonical target address.
	Resolve(ctx context.Context, identifier string) (string, error)

	// Format returns a human-readable descriptor for a target. Display
	// only: on any lookup failure it returns the input unchanged.
	Format(ctx context.Context, target string) string

	// Select sets the controller's current target.
	Select(target string)

	// Current returns the controller's current target ("" if none).
	Current() string

	// Attach attaches the caller's terminal to the owned session.
	// Remote only; the local backend returns ErrRemoteOnly.
	Attach(ctx context.Context) error

	// CleanupAll removes everything this tool created: the owned session
	// (remote) or only the panes created by this tool (local).
	CleanupAll(ctx context.Context) error
}
