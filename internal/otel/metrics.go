package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "pane-pilot"

// Metrics holds all OTEL metric instruments for pane-pilot. All methods
// are nil-safe so instrumented code never has to check whether telemetry
// is configured.
type Metrics struct {
	// Executions counts Execute calls, partitioned by backend mode and
	// outcome (ok, timeout, error).
	Executions metric.Int64Counter
	// ExecDuration records wall-clock execute duration in seconds.
	ExecDuration metric.Float64Histogram
	// IdleWaits counts WaitForIdle/WaitForPrompt calls partitioned by
	// outcome (idle, match, timeout).
	IdleWaits metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Executions, err = meter.Int64Counter("executions.total",
		metric.WithDescription("Total command executions partitioned by mode and outcome"))
	if err != nil {
		return nil, err
	}

	m.ExecDuration, err = meter.Float64Histogram("executions.duration",
		metric.WithDescription("Wall-clock duration of command executions"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.IdleWaits, err = meter.Int64Counter("idle_waits.total",
		metric.WithDescription("Total idle/prompt waits partitioned by outcome"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordExecution records one Execute call.
func (m *Metrics) RecordExecution(ctx context.Context, mode, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("outcome", outcome),
	)
	m.Executions.Add(ctx, 1, attrs)
	m.ExecDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordIdleWait records one WaitForIdle or WaitForPrompt call.
func (m *Metrics) RecordIdleWait(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.IdleWaits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}
