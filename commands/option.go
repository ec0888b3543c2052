// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package commands

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Option configures a Manager.
type Option func(*Manager)

// Handle returns an option that registers a command.
// If a command with the same node was already registered the option panics.
func Handle(c Command) Option {
	return func(m *Manager) {
		if err := m.Register(c); err != nil {
			panic(err.Error())
		}
	}
}

// Scripts returns an option that consults p for commands that are not
// registered with the Manager.
func Scripts(p ScriptProvider) Option {
	return func(m *Manager) {
		m.scripts = p
	}
}

// IdleTimeout returns an option that sets how long a session may wait for its
// next stage before it is reclaimed.
// A zero or negative duration disables reclaiming idle sessions.
func IdleTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.idle = d
	}
}

// WithClock returns an option that sets the clock used to track idle
// sessions.
func WithClock(c Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// Logger returns an option that sets the logger used when no logger is
// carried by the context.
func Logger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// Registerer returns an option that registers the command metrics with r.
func Registerer(r prometheus.Registerer) Option {
	return func(m *Manager) {
		m.reg = r
	}
}
