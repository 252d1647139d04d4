// Package observe provides application-wide observability primitives for
// Magnate: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/magnate-game/magnate/internal/character"
	"github.com/magnate-game/magnate/internal/game"
)

// meterName is the instrumentation scope name used for all Magnate metrics.
const meterName = "github.com/magnate-game/magnate"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Game counters ---

	// GamesStarted counts started sessions. Use with attribute:
	//   attribute.String("character", ...)
	GamesStarted metric.Int64Counter

	// GamesCompleted counts finished sessions. Use with attributes:
	//   attribute.String("character", ...), attribute.String("tier", ...)
	GamesCompleted metric.Int64Counter

	// GamesAbandoned counts abandoned sessions (give-ups, supersessions, and
	// idle expiries). Use with attribute:
	//   attribute.String("character", ...)
	GamesAbandoned metric.Int64Counter

	// ChoiceSubmissions counts accepted choice submissions. Use with
	// attributes:
	//   attribute.String("character", ...), attribute.Bool("correct", ...)
	ChoiceSubmissions metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live game sessions.
	ActiveSessions metric.Int64UpDownCounter

	// --- Latency histograms ---

	// CommandDuration tracks Discord interaction handler latency. Use with
	// attributes:
	//   attribute.String("kind", ...), attribute.String("name", ...)
	CommandDuration metric.Float64Histogram

	// StoreDuration tracks persistence-layer latency. Use with attributes:
	//   attribute.String("operation", ...), attribute.String("status", ...)
	StoreDuration metric.Float64Histogram

	// HTTPRequestDuration tracks sidecar request processing time. Use with
	// attributes:
	//   attribute.String("method", ...), attribute.String("route", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// store round-trips and HTTP handlers.
var latencyBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Counters.
	if met.GamesStarted, err = m.Int64Counter("magnate.games.started",
		metric.WithDescription("Total game sessions started, by character."),
	); err != nil {
		return nil, err
	}
	if met.GamesCompleted, err = m.Int64Counter("magnate.games.completed",
		metric.WithDescription("Total game sessions completed, by character and tier."),
	); err != nil {
		return nil, err
	}
	if met.GamesAbandoned, err = m.Int64Counter("magnate.games.abandoned",
		metric.WithDescription("Total game sessions abandoned, by character."),
	); err != nil {
		return nil, err
	}
	if met.ChoiceSubmissions, err = m.Int64Counter("magnate.choices.submitted",
		metric.WithDescription("Total accepted choice submissions, by character and correctness."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("magnate.active_sessions",
		metric.WithDescription("Number of live game sessions."),
	); err != nil {
		return nil, err
	}

	// Histograms.
	if met.CommandDuration, err = m.Float64Histogram("magnate.command.duration",
		metric.WithDescription("Discord interaction handler latency by kind and name."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.StoreDuration, err = m.Float64Histogram("magnate.store.duration",
		metric.WithDescription("Latency of persistence operations."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("magnate.http.request.duration",
		metric.WithDescription("Sidecar HTTP request latency by method and route."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// GameHooks returns [game.Hooks] that drive these instruments from session
// transitions. The hooks run under the registry lock, so they only touch
// lock-free OTel instruments.
func (m *Metrics) GameHooks() game.Hooks {
	ctx := context.Background()
	return game.Hooks{
		OnStart: func(characterID string) {
			m.GamesStarted.Add(ctx, 1,
				metric.WithAttributes(attribute.String("character", characterID)))
			m.ActiveSessions.Add(ctx, 1)
		},
		OnSubmit: func(characterID string, correct bool) {
			m.ChoiceSubmissions.Add(ctx, 1,
				metric.WithAttributes(
					attribute.String("character", characterID),
					attribute.Bool("correct", correct),
				))
		},
		OnComplete: func(characterID string, tier character.Tier) {
			m.GamesCompleted.Add(ctx, 1,
				metric.WithAttributes(
					attribute.String("character", characterID),
					attribute.String("tier", string(tier)),
				))
			m.ActiveSessions.Add(ctx, -1)
		},
		OnAbandon: func(characterID string) {
			m.GamesAbandoned.Add(ctx, 1,
				metric.WithAttributes(attribute.String("character", characterID)))
			m.ActiveSessions.Add(ctx, -1)
		},
	}
}

// CommandObserver returns a callback recording interaction handler latency,
// shaped for the Discord router's observer seam.
func (m *Metrics) CommandObserver() func(kind, name string, elapsed time.Duration) {
	ctx := context.Background()
	return func(kind, name string, elapsed time.Duration) {
		m.CommandDuration.Record(ctx, elapsed.Seconds(),
			metric.WithAttributes(
				attribute.String("kind", kind),
				attribute.String("name", name),
			),
		)
	}
}

// RecordStoreOp records one persistence operation's latency and status.
func (m *Metrics) RecordStoreOp(ctx context.Context, operation, status string, seconds float64) {
	m.StoreDuration.Record(ctx, seconds,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}
