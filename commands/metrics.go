// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package commands

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes used to label command executions.
const (
	OutcomeCompleted = "completed"
	OutcomeExecuting = "executing"
	OutcomeCanceled  = "canceled"
	OutcomeError     = "error"
	OutcomeScript    = "script"
)

type metrics struct {
	executions *prometheus.CounterVec
	open       prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		executions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xmppd",
			Subsystem: "commands",
			Name:      "executions_total",
			Help:      "Total number of command stages executed by outcome",
		}, []string{"outcome"}),
		open: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "xmppd",
			Subsystem: "commands",
			Name:      "sessions_open",
			Help:      "Number of command sessions currently open",
		}),
	}
}

func (m *metrics) executed(outcome string) {
	m.executions.WithLabelValues(outcome).Inc()
}
