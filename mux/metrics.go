// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package mux

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reasons used to label dropped stanzas.
const (
	DropUnhandled    = "unhandled"
	DropHandlerError = "handler_error"
	DropPanic        = "panic"
	DropErrorReply   = "error_to_error"
)

type metrics struct {
	dispatched *prometheus.CounterVec
	faults     *prometheus.CounterVec
	drops      *prometheus.CounterVec
}

// newMetrics creates the dispatcher metrics and registers them with reg.
// If reg is nil the metrics are still collected but never exported.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		dispatched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xmppd",
			Subsystem: "mux",
			Name:      "dispatched_total",
			Help:      "Total number of stanzas dispatched by module",
		}, []string{"module"}),
		faults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xmppd",
			Subsystem: "mux",
			Name:      "faults_total",
			Help:      "Total number of stanza errors returned by modules by condition",
		}, []string{"condition"}),
		drops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xmppd",
			Subsystem: "mux",
			Name:      "dropped_total",
			Help:      "Total number of stanzas dropped by the dispatcher by reason",
		}, []string{"reason"}),
	}
}

func (m *metrics) drop(reason string) {
	m.drops.WithLabelValues(reason).Inc()
}
