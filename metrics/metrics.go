// Package metrics centralizes the prometheus collectors both
// orchestrators instrument their command loops with: a command
// counter, an error counter broken out by taxonomy kind, and a
// round-trip latency histogram.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Set is one backend's command/error/latency instrumentation.
type Set struct {
	Commands prometheus.Counter
	Errors   *prometheus.CounterVec
	Latency  prometheus.Histogram
}

// NewSet builds a Set under namespace "labcore", subsystem name
// (typically "star" or "prep"), registering it with reg if non-nil
// (tests commonly pass nil to skip registration).
func NewSet(reg prometheus.Registerer, subsystem string) *Set {
	s := &Set{
		Commands: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "labcore", Subsystem: subsystem, Name: "commands_total",
			Help: "Commands issued to the device.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labcore", Subsystem: subsystem, Name: "errors_total",
			Help: "Command errors, by taxonomy kind.",
		}, []string{"kind"}),
		Latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "labcore", Subsystem: subsystem, Name: "command_latency_seconds",
			Help:    "Command round-trip latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(s.Commands, s.Errors, s.Latency)
	}
	return s
}

// CountError increments Errors for kind. kind is typically
// errs.Kind.String(), kept as a plain string here so this package
// doesn't need to import errs.
func (s *Set) CountError(kind string) {
	if s == nil {
		return
	}
	s.Errors.WithLabelValues(kind).Inc()
}

// Observe records one command's outcome: increments Commands and
// Latency unconditionally, and Errors[kind] when kind is non-empty.
func (s *Set) Observe(start time.Time, kind string) {
	if s == nil {
		return
	}
	s.Commands.Inc()
	s.Latency.Observe(time.Since(start).Seconds())
	if kind != "" {
		s.CountError(kind)
	}
}
