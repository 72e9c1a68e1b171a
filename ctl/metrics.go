// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ctl

import (
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/xcmctl/lib/ctlproto"
)

// Session removal reasons, used as the "reason" label.
const (
	reasonPeerClosed = "peer_closed"
	reasonMalformed  = "malformed"
	reasonShortWrite = "short_write"
	reasonIOError    = "io_error"
	reasonTeardown   = "teardown"
)

// Metrics holds Prometheus instrumentation for control servers. One
// Metrics may be shared by every server in a process. A nil *Metrics
// records nothing.
type Metrics struct {
	sessionsAccepted prometheus.Counter
	sessionsRemoved  *prometheus.CounterVec
	activeSessions   prometheus.Gauge
	requests         *prometheus.CounterVec
	rejects          *prometheus.CounterVec
}

// NewMetrics creates control channel metrics and registers them with
// registerer. A nil registerer leaves them unregistered, which tests
// use to read counters without a registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xcm",
			Subsystem: "ctl",
			Name:      "sessions_accepted_total",
			Help:      "Control client connections accepted.",
		}),
		sessionsRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xcm",
			Subsystem: "ctl",
			Name:      "sessions_removed_total",
			Help:      "Control client sessions removed, by reason.",
		}, []string{"reason"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "xcm",
			Subsystem: "ctl",
			Name:      "active_sessions",
			Help:      "Control client sessions currently open.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xcm",
			Subsystem: "ctl",
			Name:      "requests_total",
			Help:      "Control requests answered, by message type.",
		}, []string{"type"}),
		rejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xcm",
			Subsystem: "ctl",
			Name:      "rejects_total",
			Help:      "Attribute requests rejected, by errno name.",
		}, []string{"errno"}),
	}
	if registerer != nil {
		registerer.MustRegister(
			m.sessionsAccepted,
			m.sessionsRemoved,
			m.activeSessions,
			m.requests,
			m.rejects,
		)
	}
	return m
}

func (m *Metrics) sessionAccepted() {
	if m == nil {
		return
	}
	m.sessionsAccepted.Inc()
	m.activeSessions.Inc()
}

func (m *Metrics) sessionRemoved(reason string) {
	if m == nil {
		return
	}
	m.sessionsRemoved.WithLabelValues(reason).Inc()
	m.activeSessions.Dec()
}

func (m *Metrics) requestAnswered(request, response ctlproto.Message) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(request.Type().String()).Inc()
	if reject, ok := response.(ctlproto.GetAttrReject); ok {
		m.rejects.WithLabelValues(errnoName(reject.Errno)).Inc()
	}
}

// errnoName returns the symbolic name of errno ("ENOENT"), or its
// number for errnos without one.
func errnoName(errno unix.Errno) string {
	if name := unix.ErrnoName(errno); name != "" {
		return name
	}
	return errno.Error()
}
