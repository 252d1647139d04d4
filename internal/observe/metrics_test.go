package observe

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/magnate-game/magnate/internal/character"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumValueWith returns the data point value whose attributes contain
// key=value, or -1 when none matches.
func sumValueWith(sum metricdata.Sum[int64], key, value string) int64 {
	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == key && kv.Value.Emit() == value {
				return dp.Value
			}
		}
	}
	return -1
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestChoiceSubmissionsCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	attrs := metric.WithAttributes(
		attribute.String("character", "rockefeller"),
		attribute.Bool("correct", true),
	)
	m.ChoiceSubmissions.Add(ctx, 1, attrs)
	m.ChoiceSubmissions.Add(ctx, 1, attrs)
	m.ChoiceSubmissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("character", "rockefeller"),
		attribute.Bool("correct", false),
	))

	rm := collect(t, reader)
	met := findMetric(rm, "magnate.choices.submitted")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}
	if got := sumValueWith(sum, "correct", "true"); got != 2 {
		t.Errorf("correct=true counter = %d, want 2", got)
	}
	if got := sumValueWith(sum, "correct", "false"); got != 1 {
		t.Errorf("correct=false counter = %d, want 1", got)
	}
}

func TestGameHooksDriveInstruments(t *testing.T) {
	m, reader := newTestMetrics(t)
	hooks := m.GameHooks()

	// Two starts, one full run to completion, one abandon.
	hooks.OnStart("rockefeller")
	hooks.OnStart("carnegie")
	hooks.OnSubmit("rockefeller", true)
	hooks.OnSubmit("rockefeller", false)
	hooks.OnComplete("rockefeller", character.TierGood)
	hooks.OnAbandon("carnegie")

	rm := collect(t, reader)

	counters := []struct {
		name string
		key  string
		val  string
		want int64
	}{
		{"magnate.games.started", "character", "rockefeller", 1},
		{"magnate.games.started", "character", "carnegie", 1},
		{"magnate.games.completed", "tier", "good", 1},
		{"magnate.games.abandoned", "character", "carnegie", 1},
	}
	for _, tc := range counters {
		met := findMetric(rm, tc.name)
		if met == nil {
			t.Fatalf("metric %q not found", tc.name)
		}
		sum, ok := met.Data.(metricdata.Sum[int64])
		if !ok {
			t.Fatalf("metric %q is not a sum", tc.name)
		}
		if got := sumValueWith(sum, tc.key, tc.val); got != tc.want {
			t.Errorf("%s{%s=%s} = %d, want %d", tc.name, tc.key, tc.val, got, tc.want)
		}
	}

	// Both terminal transitions decrement the gauge back to zero.
	met := findMetric(rm, "magnate.active_sessions")
	if met == nil {
		t.Fatal("active_sessions metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("active_sessions is not a sum")
	}
	if len(sum.DataPoints) == 0 {
		t.Fatal("active_sessions has no data points")
	}
	if got := sum.DataPoints[0].Value; got != 0 {
		t.Errorf("active_sessions = %d, want 0", got)
	}
}

func TestCommandObserver(t *testing.T) {
	m, reader := newTestMetrics(t)

	observe := m.CommandObserver()
	observe("command", "play", 40*time.Millisecond)
	observe("component", "choice:", 5*time.Millisecond)

	rm := collect(t, reader)
	met := findMetric(rm, "magnate.command.duration")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("metric is not a histogram")
	}
	var total uint64
	for _, dp := range hist.DataPoints {
		total += dp.Count
	}
	if total != 2 {
		t.Errorf("total samples = %d, want 2", total)
	}
}

func TestRecordStoreOp(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordStoreOp(ctx, "save_result", "ok", 0.012)
	m.RecordStoreOp(ctx, "save_result", "ok", 0.034)
	m.RecordStoreOp(ctx, "leaderboard", "error", 0.5)

	rm := collect(t, reader)
	met := findMetric(rm, "magnate.store.duration")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("metric is not a histogram")
	}

	var total uint64
	for _, dp := range hist.DataPoints {
		total += dp.Count
	}
	if total != 3 {
		t.Errorf("total samples = %d, want 3", total)
	}
}

func TestHTTPRequestDuration(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.HTTPRequestDuration.Record(ctx, 0.05,
		metric.WithAttributes(
			attribute.String("method", "GET"),
			attribute.String("route", "/healthz"),
		),
	)

	rm := collect(t, reader)
	met := findMetric(rm, "magnate.http.request.duration")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("metric is not a histogram")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if got := hist.DataPoints[0].Count; got != 1 {
		t.Errorf("sample count = %d, want 1", got)
	}
}

func TestDefaultMetrics_ReturnsSameInstance(t *testing.T) {
	// DefaultMetrics uses the global OTel provider so we just check
	// that repeated calls return the same pointer.
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different pointers")
	}
}
