// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package mux

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"mellium.im/xmppd/criteria"
)

// Option configures a ServeMux.
// Options that configure the multiplexer itself are applied before options
// that register modules regardless of the order they are passed to New.
type Option struct {
	f     func(m *ServeMux)
	route bool
}

// Handle returns an option that registers a module.
// If a module with the same name is already registered when the option is
// applied and AllowReplace was not used, the option panics.
func Handle(name string, c criteria.Criteria, h Handler) Option {
	return Option{route: true, f: func(m *ServeMux) {
		if h == nil {
			panic("mux: nil handler")
		}
		if err := m.Register(name, c, h); err != nil {
			panic(err.Error())
		}
	}}
}

// HandleFunc returns an option that registers a module using a function.
// For more information see Handle.
func HandleFunc(name string, c criteria.Criteria, h HandlerFunc) Option {
	return Handle(name, c, h)
}

// Fallback returns an option that sets the handler used when no module
// matches.
// By default IQ requests are answered with a service-unavailable error and
// all other stanzas are dropped.
func Fallback(h Handler) Option {
	return Option{f: func(m *ServeMux) {
		m.fallback = h
	}}
}

// AllowReplace returns an option that allows a module to be registered under
// a name that is already in use, replacing the existing module.
func AllowReplace() Option {
	return Option{f: func(m *ServeMux) {
		m.allowReplace = true
	}}
}

// Logger returns an option that sets the logger used when no logger is
// carried by the context passed to Dispatch.
func Logger(l zerolog.Logger) Option {
	return Option{f: func(m *ServeMux) {
		m.logger = l
	}}
}

// Registerer returns an option that registers the dispatcher metrics with r.
func Registerer(r prometheus.Registerer) Option {
	return Option{f: func(m *ServeMux) {
		m.reg = r
	}}
}
