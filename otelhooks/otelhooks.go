// Package otelhooks counts cache events with OpenTelemetry metrics.
//
// Storage keys are never used as attributes; only the namespace and small
// enumerations (self-heal reason, gen operation) are recorded.
package otelhooks

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/unkn0wn-root/cacheable"
)

// Hooks implements cacheable.Hooks on a metric.Meter.
type Hooks struct {
	hits      metric.Int64Counter
	misses    metric.Int64Counter
	selfHeals metric.Int64Counter
	rejected  metric.Int64Counter
	genErrors metric.Int64Counter
	flushes   metric.Int64Counter
}

var _ cacheable.Hooks = (*Hooks)(nil)

// New registers the counters on meter.
func New(meter metric.Meter) (*Hooks, error) {
	var (
		h   Hooks
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&h.hits, "cacheable.hits", "Cache lookups served from the backend", "{hit}"},
		{&h.misses, "cacheable.misses", "Cache lookups that found no entry", "{miss}"},
		{&h.selfHeals, "cacheable.self_heals", "Entries dropped on read as corrupt or stale", "{entry}"},
		{&h.rejected, "cacheable.set_rejected", "Writes refused by the provider", "{write}"},
		{&h.genErrors, "cacheable.gen_errors", "Generation store failures", "{error}"},
		{&h.flushes, "cacheable.flushes", "Namespace flushes", "{flush}"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return nil, err
		}
	}
	return &h, nil
}

func nsAttr(ns string) metric.AddOption {
	return metric.WithAttributes(attribute.String("cache.namespace", ns))
}

func (h *Hooks) Hit(n string)  { h.hits.Add(context.Background(), 1, nsAttr(n)) }
func (h *Hooks) Miss(n string) { h.misses.Add(context.Background(), 1, nsAttr(n)) }

func (h *Hooks) SelfHeal(_ string, reason string) {
	h.selfHeals.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("cache.reason", reason)))
}

func (h *Hooks) ProviderSetRejected(string) {
	h.rejected.Add(context.Background(), 1)
}

func (h *Hooks) GenSnapshotError(int, error) {
	h.genErrors.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("cache.gen_op", "snapshot")))
}

func (h *Hooks) GenBumpError(string, error) {
	h.genErrors.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("cache.gen_op", "bump")))
}

func (h *Hooks) Flushed(n string) { h.flushes.Add(context.Background(), 1, nsAttr(n)) }
