// Copyright 2017 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package mux implements a stanza multiplexer that routes each stanza to the
// module whose criteria most specifically match it.
package mux // import "mellium.im/xmppd/mux"

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"mellium.im/xmppd/criteria"
	"mellium.im/xmppd/internal/logging"
	"mellium.im/xmppd/stanza"
)

// FallbackName is the module name used in logs and metrics when no registered
// module matches a stanza.
const FallbackName = "fallback"

// ErrDuplicateModule is returned when registering a module under a name that
// is already in use and replacement is not allowed.
var ErrDuplicateModule = errors.New("mux: module already registered")

type route struct {
	name     string
	criteria criteria.Criteria
	handler  Handler
	seq      uint64
}

// ServeMux is a stanza multiplexer.
// It matches each stanza against the criteria of the registered modules and
// calls the handler of the first match.
//
// Modules are tried in order of decreasing specificity, modules with equal
// specificity are tried in the order they were registered.
// Lookups never take a lock so modules may be registered and unregistered
// while stanzas are being dispatched.
type ServeMux struct {
	mu     sync.Mutex
	routes atomic.Pointer[[]route]
	seq    uint64

	fallback     Handler
	allowReplace bool
	logger       zerolog.Logger
	reg          prometheus.Registerer
	metrics      *metrics
}

// New allocates and returns a new ServeMux.
func New(opt ...Option) *ServeMux {
	m := &ServeMux{
		logger: zerolog.Nop(),
	}
	var routes []Option
	for _, o := range opt {
		if o.route {
			routes = append(routes, o)
			continue
		}
		o.f(m)
	}
	m.metrics = newMetrics(m.reg)
	if m.fallback == nil {
		m.fallback = HandlerFunc(m.defaultFallback)
	}
	for _, o := range routes {
		o.f(m)
	}
	return m
}

func (m *ServeMux) load() []route {
	if r := m.routes.Load(); r != nil {
		return *r
	}
	return nil
}

// Register adds a module to the multiplexer.
// If a module with the same name exists ErrDuplicateModule is returned unless
// the multiplexer was created with AllowReplace, in which case the module is
// replaced and keeps its place among modules of equal specificity.
func (m *ServeMux) Register(name string, c criteria.Criteria, h Handler) error {
	if h == nil {
		return fmt.Errorf("mux: nil handler for module %q", name)
	}
	if c == nil {
		return fmt.Errorf("mux: nil criteria for module %q", name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	old := m.load()
	next := make([]route, 0, len(old)+1)
	r := route{name: name, criteria: c, handler: h}
	replaced := false
	for _, o := range old {
		if o.name != name {
			next = append(next, o)
			continue
		}
		if !m.allowReplace {
			return fmt.Errorf("%w: %q", ErrDuplicateModule, name)
		}
		r.seq = o.seq
		replaced = true
	}
	if !replaced {
		m.seq++
		r.seq = m.seq
	}
	next = append(next, r)
	sort.SliceStable(next, func(i, j int) bool {
		si, sj := next[i].criteria.Specificity(), next[j].criteria.Specificity()
		if si != sj {
			return si > sj
		}
		return next[i].seq < next[j].seq
	})
	m.routes.Store(&next)
	m.logger.Debug().Str("module", name).Bool("replaced", replaced).Msg("mux: registered module")
	return nil
}

// Unregister removes the module with the given name and reports whether it
// was registered.
func (m *ServeMux) Unregister(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	old := m.load()
	next := make([]route, 0, len(old))
	for _, o := range old {
		if o.name != name {
			next = append(next, o)
		}
	}
	if len(next) == len(old) {
		return false
	}
	m.routes.Store(&next)
	return true
}

// Modules returns the names of the registered modules in the order they are
// tried.
func (m *ServeMux) Modules() []string {
	routes := m.load()
	names := make([]string, 0, len(routes))
	for _, r := range routes {
		names = append(names, r.name)
	}
	return names
}

// Handler returns the name and handler of the module that would handle s.
// If no module matches, the fallback handler is returned (h is always
// non-nil) and ok will be false.
func (m *ServeMux) Handler(s *stanza.Stanza) (name string, h Handler, ok bool) {
	for _, r := range m.load() {
		if r.criteria.Match(s) {
			return r.name, r.handler, true
		}
	}
	return FallbackName, m.fallback, false
}

// HandleStanza dispatches s and always returns nil so that a ServeMux may be
// nested inside of another module.
func (m *ServeMux) HandleStanza(ctx context.Context, s *stanza.Stanza, out Sender) error {
	m.Dispatch(ctx, s, out)
	return nil
}

// Dispatch calls the handler of the module that matches s.
//
// If the handler returns a stanza error an error reply is sent to out, unless
// s is itself an error.
// Other errors and panics are logged and s is dropped without a reply.
// Dispatch does not wait for stanzas sent to out to be delivered.
func (m *ServeMux) Dispatch(ctx context.Context, s *stanza.Stanza, out Sender) {
	name, h, _ := m.Handler(s)
	logger := logging.FromContext(ctx, m.logger).With().
		Str("module", name).
		Str("stanza", s.Name().Local).
		Str("type", s.Type()).
		Logger()
	m.metrics.dispatched.WithLabelValues(name).Inc()

	err := m.call(ctx, h, s, out)
	if err == nil {
		return
	}

	var panicErr *panicError
	if errors.As(err, &panicErr) {
		logger.Error().Err(err).Msg("mux: module panicked, dropping stanza")
		m.metrics.drop(DropPanic)
		return
	}

	se, ok := asStanzaError(err)
	if !ok {
		logger.Error().Err(err).Msg("mux: module failed, dropping stanza")
		m.metrics.drop(DropHandlerError)
		return
	}
	m.metrics.faults.WithLabelValues(string(se.Condition)).Inc()
	if s.Type() == string(stanza.ErrorIQ) {
		logger.Debug().Err(err).Msg("mux: not replying to an error with an error")
		m.metrics.drop(DropErrorReply)
		return
	}
	logger.Debug().Str("condition", string(se.Condition)).Msg("mux: replying with stanza error")
	out.Send(s.ErrorReply(se))
}

type panicError struct {
	v interface{}
}

func (e *panicError) Error() string {
	return fmt.Sprintf("mux: panic: %v", e.v)
}

func (m *ServeMux) call(ctx context.Context, h Handler, s *stanza.Stanza, out Sender) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{v: r}
		}
	}()
	return h.HandleStanza(ctx, s, out)
}

func asStanzaError(err error) (stanza.Error, bool) {
	var se stanza.Error
	if errors.As(err, &se) {
		return se, true
	}
	var sep *stanza.Error
	if errors.As(err, &sep) && sep != nil {
		return *sep, true
	}
	return stanza.Error{}, false
}

func (m *ServeMux) defaultFallback(ctx context.Context, s *stanza.Stanza, out Sender) error {
	if s.Kind() == stanza.IQKind && s.IQType().IsRequest() {
		return stanza.NewError(stanza.ServiceUnavailable, "")
	}
	logger := logging.FromContext(ctx, m.logger)
	logger.Debug().
		Str("stanza", s.Name().Local).
		Str("type", s.Type()).
		Msg("mux: no module matched, dropping stanza")
	m.metrics.drop(DropUnhandled)
	return nil
}
