package controller

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestWaitForIdleStabilizes(t *testing.T) {
	var polls atomic.Int64
	fr := &fakeRunner{}
	fr.handle = func(args []string) (string, error) {
		if args[0] != "capture-pane" {
			return "", nil
		}
		n := polls.Add(1)
		if n <= 3 {
			return fmt.Sprintf("building... step %d", n), nil
		}
		return "build complete\n$ ", nil
	}

	e := newTestEngine(fr)
	idle, err := e.waitForIdle(context.Background(), "%1", IdleOptions{
		IdleTime:      20 * time.Millisecond,
		CheckInterval: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("waitForIdle: %v", err)
	}
	if !idle {
		t.Error("want idle = true once content stabilizes")
	}
	if polls.Load() <= 4 {
		t.Errorf("polls = %d, want several checks after content settles", polls.Load())
	}
}

func TestWaitForIdleTimeout(t *testing.T) {
	var polls atomic.Int64
	fr := &fakeRunner{}
	fr.handle = func(args []string) (string, error) {
		if args[0] != "capture-pane" {
			return "", nil
		}
		// Content changes on every poll, so idleness is never reached.
		return fmt.Sprintf("spinner frame %d", polls.Add(1)), nil
	}

	e := newTestEngine(fr)
	idle, err := e.waitForIdle(context.Background(), "%1", IdleOptions{
		IdleTime:      time.Second,
		CheckInterval: 5 * time.Millisecond,
		Timeout:       40 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("timeout must not be an error, got %v", err)
	}
	if idle {
		t.Error("want idle = false on timeout")
	}
}

func TestWaitForIdleContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fr := &fakeRunner{}
	fr.handle = func(args []string) (string, error) {
		if args[0] == "capture-pane" {
			cancel()
			return "output", nil
		}
		return "", nil
	}

	e := newTestEngine(fr)
	idle, err := e.waitForIdle(ctx, "%1", IdleOptions{
		IdleTime:      time.Second,
		CheckInterval: time.Millisecond,
	})
	if err == nil {
		t.Fatal("want context error")
	}
	if idle {
		t.Error("want idle = false on cancellation")
	}
}

func TestWaitForPromptMatch(t *testing.T) {
	var polls atomic.Int64
	fr := &fakeRunner{}
	fr.handle = func(args []string) (string, error) {
		if args[0] != "capture-pane" {
			return "", nil
		}
		if polls.Add(1) < 3 {
			return "Connecting...", nil
		}
		return "login: ", nil
	}

	e := newTestEngine(fr)
	found, err := e.waitForPrompt(context.Background(), "%1", `login:\s*$`, time.Second, IdleOptions{
		CheckInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("waitForPrompt: %v", err)
	}
	if !found {
		t.Error("want match once prompt appears")
	}
}

func TestWaitForPromptTimeout(t *testing.T) {
	fr := &fakeRunner{}
	fr.handle = func(args []string) (string, error) {
		if args[0] == "capture-pane" {
			return "Connecting...", nil
		}
		return "", nil
	}

	e := newTestEngine(fr)
	found, err := e.waitForPrompt(context.Background(), "%1", `password:`, 30*time.Millisecond, IdleOptions{
		CheckInterval: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("timeout must not be an error, got %v", err)
	}
	if found {
		t.Error("want found = false on timeout")
	}
}

func TestWaitForPromptBadPattern(t *testing.T) {
	e := newTestEngine(&fakeRunner{})
	if _, err := e.waitForPrompt(context.Background(), "%1", `[unterminated`, time.Second, IdleOptions{}); err == nil {
		t.Fatal("want error for invalid pattern")
	}
}

func TestContentHashDistinguishes(t *testing.T) {
	a := contentHash("$ ls\nfile.txt\n$ ")
	b := contentHash("$ ls\nfile.txt\nother\n$ ")
	if a == b {
		t.Error("distinct captures hash equal")
	}
	if a != contentHash("$ ls\nfile.txt\n$ ") {
		t.Error("equal captures hash differently")
	}
}
