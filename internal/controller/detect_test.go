package controller

import (
	"context"
	"errors"
	"testing"
)

func TestNewSelectsLocalInsideTmux(t *testing.T) {
	t.Setenv("TMUX", "/tmp/tmux-1000/default,123,0")
	t.Setenv("TMUX_PANE", "%3")

	c, err := New(context.Background(), Options{Runner: &fakeRunner{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Mode() != "local" {
		t.Errorf("mode = %q, want local", c.Mode())
	}
}

func TestNewSelectsRemoteOutsideTmux(t *testing.T) {
	t.Setenv("TMUX", "")

	fr := &fakeRunner{handle: sessionHandler(false, nil)}
	c, err := New(context.Background(), Options{Runner: fr})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Mode() != "remote" {
		t.Errorf("mode = %q, want remote", c.Mode())
	}
	created := fr.callsFor("new-session")
	if len(created) != 1 {
		t.Fatalf("new-session calls = %d, want 1", len(created))
	}
	// Default owned session name.
	if got := created[0][len(created[0])-1]; got != DefaultSession {
		t.Errorf("session = %q, want %q", got, DefaultSession)
	}
}

func TestNewRemoteSessionOverride(t *testing.T) {
	t.Setenv("TMUX", "")

	fr := &fakeRunner{handle: sessionHandler(false, nil)}
	c, err := New(context.Background(), Options{Runner: fr, Session: "ci"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r, ok := c.(*Remote)
	if !ok {
		t.Fatalf("backend = %T, want *Remote", c)
	}
	if r.Session() != "ci" {
		t.Errorf("session = %q, want ci", r.Session())
	}
}

func TestNewRemoteSessionCreationFailure(t *testing.T) {
	t.Setenv("TMUX", "")

	fr := &fakeRunner{}
	fr.handle = func(args []string) (string, error) {
		return "", errors.New("no server and cannot start one")
	}
	if _, err := New(context.Background(), Options{Runner: fr}); err == nil {
		t.Fatal("want error when the owned session cannot be created")
	}
}
