package otelhooks

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Sum[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	out := map[string]metricdata.Sum[int64]{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s: expected Sum[int64], got %T", m.Name, m.Data)
			}
			out[m.Name] = sum
		}
	}
	return out
}

func total(s metricdata.Sum[int64]) int64 {
	var n int64
	for _, dp := range s.DataPoints {
		n += dp.Value
	}
	return n
}

func TestHooksCountEvents(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	h, err := New(mp.Meter("test"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h.Hit("user")
	h.Hit("user")
	h.Miss("user")
	h.SelfHeal("single:user:1", "gen_mismatch")
	h.ProviderSetRejected("single:user:2")
	h.GenSnapshotError(2, errors.New("down"))
	h.GenBumpError("single:user:3", errors.New("down"))
	h.Flushed("user")

	got := collect(t, reader)
	want := map[string]int64{
		"cacheable.hits":         2,
		"cacheable.misses":       1,
		"cacheable.self_heals":   1,
		"cacheable.set_rejected": 1,
		"cacheable.gen_errors":   2,
		"cacheable.flushes":      1,
	}
	for name, n := range want {
		s, ok := got[name]
		if !ok {
			t.Fatalf("metric %s not recorded", name)
		}
		if total(s) != n {
			t.Fatalf("%s = %d, want %d", name, total(s), n)
		}
		if !s.IsMonotonic {
			t.Fatalf("%s should be monotonic", name)
		}
	}
}

func TestHooksNamespaceAttribute(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	h, err := New(mp.Meter("test"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h.Hit("user")
	h.Hit("order")

	hits := collect(t, reader)["cacheable.hits"]
	if len(hits.DataPoints) != 2 {
		t.Fatalf("expected one data point per namespace, got %d", len(hits.DataPoints))
	}
	for _, dp := range hits.DataPoints {
		v, ok := dp.Attributes.Value(attribute.Key("cache.namespace"))
		if !ok {
			t.Fatalf("missing cache.namespace attribute")
		}
		if s := v.AsString(); s != "user" && s != "order" {
			t.Fatalf("unexpected namespace %q", s)
		}
	}
}
