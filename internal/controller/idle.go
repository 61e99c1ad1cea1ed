package controller

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"time"
)

func (o IdleOptions) normalized() IdleOptions {
	if o.IdleTime <= 0 {
		o.IdleTime = defaultIdleTime
	}
	if o.CheckInterval <= 0 {
		o.CheckInterval = defaultCheckInterval
	}
	if o.CaptureLines <= 0 {
		o.CaptureLines = defaultCaptureLines
	}
	return o
}

func contentHash(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// waitForIdle polls the target's content and returns true once it has
// been unchanged for opts.IdleTime. With opts.Timeout > 0 the wait is
// bounded and returns false when exceeded. The calling goroutine blocks
// for the loop's duration; cancellation comes from the caller's context.
func (e *engine) waitForIdle(ctx context.Context, target string, opts IdleOptions) (bool, error) {
	opts = opts.normalized()
	start := time.Now()
	lastChange := start
	var lastHash uint64
	first := true

	for {
		captured, err := e.tm.CapturePane(ctx, target, opts.CaptureLines)
		if err != nil {
			return false, err
		}
		h := contentHash(captured)
		now := time.Now()
		switch {
		case first || h != lastHash:
			lastHash = h
			lastChange = now
			first = false
		case now.Sub(lastChange) >= opts.IdleTime:
			e.metrics.RecordIdleWait(ctx, "idle")
			return true, nil
		}

		if opts.Timeout > 0 && time.Since(start) >= opts.Timeout {
			e.metrics.RecordIdleWait(ctx, "timeout")
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(opts.CheckInterval):
		}
	}
}

// waitForPrompt polls the target's content until it matches pattern.
// Same polling shape as waitForIdle, but the stop condition is a regex
// match, which avoids the settling delay when the expected prompt text
// is known up front.
func (e *engine) waitForPrompt(ctx context.Context, target, pattern string, timeout time.Duration, opts IdleOptions) (bool, error) {
	opts = opts.normalized()
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid prompt pattern %q: %w", pattern, err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	deadline := time.Now().Add(timeout)

	for {
		captured, err := e.tm.CapturePane(ctx, target, opts.CaptureLines)
		if err != nil {
			return false, err
		}
		if re.MatchString(captured) {
			e.metrics.RecordIdleWait(ctx, "match")
			return true, nil
		}
		if time.Now().After(deadline) {
			e.metrics.RecordIdleWait(ctx, "timeout")
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(opts.CheckInterval):
		}
	}
}
