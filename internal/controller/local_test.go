package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/timvw/pane-pilot/internal/tmux"
)

const testPaneList = "%0|0|zsh|1|80x24|zsh\n" +
	"%3|1|pp-build|0|80x24|make\n" +
	"%5|2|pp-a1b2c3d4|0|80x24|bash\n"

func newTestLocal(fr *fakeRunner) *Local {
	return &Local{
		engine:  engine{tm: &tmux.Client{Runner: fr}, mode: "local"},
		ownPane: "%0",
	}
}

func paneListHandler(extra func(args []string) (string, error)) func(args []string) (string, error) {
	return func(args []string) (string, error) {
		if args[0] == "list-panes" {
			return testPaneList, nil
		}
		if extra != nil {
			return extra(args)
		}
		return "", nil
	}
}

func TestLocalListTargets(t *testing.T) {
	fr := &fakeRunner{handle: paneListHandler(nil)}
	l := newTestLocal(fr)

	targets, err := l.ListTargets(context.Background())
	if err != nil {
		t.Fatalf("ListTargets: %v", err)
	}
	if len(targets) != 3 {
		t.Fatalf("got %d targets, want 3", len(targets))
	}
	want := Target{ID: "%3", Index: 1, Title: "pp-build", Active: false, Size: "80x24", Command: "make"}
	if targets[1] != want {
		t.Errorf("target[1] = %+v, want %+v", targets[1], want)
	}
	if !targets[0].Active {
		t.Errorf("target[0] should be active")
	}
}

func TestLocalResolve(t *testing.T) {
	fr := &fakeRunner{handle: paneListHandler(func(args []string) (string, error) {
		if args[0] == "display-message" {
			return "%7\n", nil
		}
		return "", nil
	})}
	l := newTestLocal(fr)
	l.current = "%5"

	tests := []struct {
		name       string
		identifier string
		want       string
	}{
		{"empty uses current", "", "%5"},
		{"pane id passes through", "%42", "%42"},
		{"qualified address via server", "main:1.2", "%7"},
		{"bare index", "1", "%3"},
		{"title", "pp-build", "%3"},
		{"short name matches created prefix", "build", "%3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Resolve(context.Background(), tt.identifier)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.identifier, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.identifier, got, tt.want)
			}
		})
	}
}

func TestLocalResolveFailures(t *testing.T) {
	fr := &fakeRunner{handle: paneListHandler(nil)}
	l := newTestLocal(fr)

	if _, err := l.Resolve(context.Background(), ""); !errors.Is(err, ErrNoTarget) {
		t.Errorf("empty with no current: err = %v, want ErrNoTarget", err)
	}

	var invalid *InvalidTargetError
	if _, err := l.Resolve(context.Background(), "9"); !errors.As(err, &invalid) {
		t.Errorf("unknown index: err = %v, want InvalidTargetError", err)
	}
	if _, err := l.Resolve(context.Background(), "nosuch"); !errors.As(err, &invalid) {
		t.Errorf("unknown title: err = %v, want InvalidTargetError", err)
	} else if invalid.Identifier != "nosuch" {
		t.Errorf("Identifier = %q", invalid.Identifier)
	}
}

func TestLocalResolveQualifiedFailures(t *testing.T) {
	ctx := context.Background()

	// A missing pane is a bad identifier.
	fr := &fakeRunner{handle: func(args []string) (string, error) {
		return "", errors.New("can't find window: nosuch")
	}}
	l := newTestLocal(fr)
	var invalid *InvalidTargetError
	if _, err := l.Resolve(ctx, "nosuch:1"); !errors.As(err, &invalid) {
		t.Errorf("missing pane: err = %v, want InvalidTargetError", err)
	}

	// An unreachable server is not.
	fr = &fakeRunner{handle: func(args []string) (string, error) {
		return "", fmt.Errorf("%w: no server running", tmux.ErrUnavailable)
	}}
	l = newTestLocal(fr)
	_, err := l.Resolve(ctx, "main:1")
	if !errors.Is(err, tmux.ErrUnavailable) {
		t.Errorf("unreachable server: err = %v, want ErrUnavailable", err)
	}
	if errors.As(err, &invalid) {
		t.Error("transport failure reported as an invalid target")
	}
}

func TestLocalCreateTarget(t *testing.T) {
	fr := &fakeRunner{}
	fr.handle = func(args []string) (string, error) {
		if args[0] == "split-window" {
			return "%9\n", nil
		}
		return "", nil
	}
	l := newTestLocal(fr)

	id, err := l.CreateTarget(context.Background(), "", "worker")
	if err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}
	if id != "%9" {
		t.Errorf("id = %q, want %%9", id)
	}
	if l.Current() != "%9" {
		t.Errorf("current = %q, want new pane selected", l.Current())
	}

	titles := fr.callsFor("select-pane")
	if len(titles) != 1 {
		t.Fatalf("select-pane calls = %d, want 1", len(titles))
	}
	if got := titles[0][len(titles[0])-1]; got != "pp-worker" {
		t.Errorf("pane title = %q, want pp-worker", got)
	}
}

func TestLocalCreateTargetGeneratedName(t *testing.T) {
	fr := &fakeRunner{}
	fr.handle = func(args []string) (string, error) {
		if args[0] == "split-window" {
			return "%9\n", nil
		}
		return "", nil
	}
	l := newTestLocal(fr)

	if _, err := l.CreateTarget(context.Background(), "", ""); err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}
	titles := fr.callsFor("select-pane")
	title := titles[0][len(titles[0])-1]
	if !strings.HasPrefix(title, "pp-") || len(title) != len("pp-")+8 {
		t.Errorf("generated title = %q, want pp- plus 8 chars", title)
	}
}

func TestLocalKillRefusesOwnPane(t *testing.T) {
	fr := &fakeRunner{handle: paneListHandler(nil)}
	l := newTestLocal(fr)

	if err := l.Kill(context.Background(), "%0"); !errors.Is(err, ErrSelfKill) {
		t.Fatalf("err = %v, want ErrSelfKill", err)
	}
	if len(fr.callsFor("kill-pane")) != 0 {
		t.Error("kill-pane invoked for own pane")
	}
}

func TestLocalKillClearsCurrent(t *testing.T) {
	fr := &fakeRunner{handle: paneListHandler(nil)}
	l := newTestLocal(fr)
	l.current = "%3"

	if err := l.Kill(context.Background(), "%3"); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if l.Current() != "" {
		t.Errorf("current = %q, want cleared after kill", l.Current())
	}
}

func TestLocalCleanupAllScoped(t *testing.T) {
	fr := &fakeRunner{handle: paneListHandler(nil)}
	l := newTestLocal(fr)

	if err := l.CleanupAll(context.Background()); err != nil {
		t.Fatalf("CleanupAll: %v", err)
	}
	kills := fr.callsFor("kill-pane")
	if len(kills) != 2 {
		t.Fatalf("kill-pane calls = %d, want 2 (only pp- panes)", len(kills))
	}
	killed := map[string]bool{}
	for _, c := range kills {
		killed[c[len(c)-1]] = true
	}
	if !killed["%3"] || !killed["%5"] {
		t.Errorf("killed = %v, want %%3 and %%5", killed)
	}
	if killed["%0"] {
		t.Error("own pane killed during cleanup")
	}
}

func TestLocalSendVariants(t *testing.T) {
	fr := &fakeRunner{}
	l := newTestLocal(fr)
	ctx := context.Background()

	if err := l.Send(ctx, "%1", "ls -la", SendOptions{Enter: true}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	calls := fr.callsFor("send-keys")
	if len(calls) != 1 {
		t.Fatalf("send-keys calls = %d, want 1", len(calls))
	}
	if last := calls[0][len(calls[0])-1]; last != "Enter" {
		t.Errorf("trailing arg = %q, want Enter appended atomically", last)
	}

	fr.calls = nil
	if err := l.Send(ctx, "%1", "q", SendOptions{}); err != nil {
		t.Fatalf("Send without enter: %v", err)
	}
	calls = fr.callsFor("send-keys")
	if last := calls[0][len(calls[0])-1]; last == "Enter" {
		t.Error("Enter transmitted despite Enter=false")
	}

	fr.calls = nil
	if err := l.Send(ctx, "%1", "", SendOptions{Enter: true}); err != nil {
		t.Fatalf("Send empty: %v", err)
	}
	if len(fr.callsFor("send-keys")) != 0 {
		t.Error("empty text must transmit nothing")
	}
}

func TestLocalAttachRejected(t *testing.T) {
	l := newTestLocal(&fakeRunner{})
	if err := l.Attach(context.Background()); !errors.Is(err, ErrRemoteOnly) {
		t.Errorf("err = %v, want ErrRemoteOnly", err)
	}
}

func TestLocalFormatFallsBack(t *testing.T) {
	fr := &fakeRunner{}
	fr.handle = func(args []string) (string, error) {
		return "", errors.New("can't find pane")
	}
	l := newTestLocal(fr)
	if got := l.Format(context.Background(), "%99"); got != "%99" {
		t.Errorf("Format = %q, want input on failure", got)
	}
}

func TestLocalInterruptAndEscape(t *testing.T) {
	fr := &fakeRunner{}
	l := newTestLocal(fr)
	ctx := context.Background()

	if err := l.Interrupt(ctx, "%1"); err != nil {
		t.Fatalf("Interrupt: %v", err)
	}
	if err := l.Escape(ctx, "%1"); err != nil {
		t.Fatalf("Escape: %v", err)
	}
	calls := fr.callsFor("send-keys")
	if len(calls) != 2 {
		t.Fatalf("send-keys calls = %d, want 2", len(calls))
	}
	if calls[0][len(calls[0])-1] != "C-c" {
		t.Errorf("interrupt key = %q, want C-c", calls[0][len(calls[0])-1])
	}
	if calls[1][len(calls[1])-1] != "Escape" {
		t.Errorf("escape key = %q, want Escape", calls[1][len(calls[1])-1])
	}
}
