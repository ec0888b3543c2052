// Copyright 2017 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package xmpptest provides utilities for XMPP testing.
package xmpptest // import "mellium.im/xmppd/internal/xmpptest"

import (
	"errors"
	"sync"

	"mellium.im/xmppd/jid"
)

// ErrUnknownSession is returned by Sessions when asked about a session id that
// was never added.
var ErrUnknownSession = errors.New("xmpptest: unknown session")

type session struct {
	addr          jid.JID
	authenticated bool
}

// Sessions is a static session table that reports bound addresses for session
// ids.
// The zero value is an empty table ready for use.
type Sessions struct {
	mu sync.RWMutex
	m  map[string]session
}

// NewSessions returns a table where each pair of arguments is a session id
// followed by the address bound to it.
// A bare address means the session is authenticated but has not bound a
// resource.
// NewSessions panics if an address is invalid or the number of arguments is
// odd, which is acceptable in tests.
func NewSessions(pairs ...string) *Sessions {
	if len(pairs)%2 != 0 {
		panic("xmpptest: odd number of arguments to NewSessions")
	}
	s := &Sessions{}
	for i := 0; i < len(pairs); i += 2 {
		s.Bind(pairs[i], jid.MustParse(pairs[i+1]))
	}
	return s
}

// Bind marks the session id as authenticated and bound to addr.
func (s *Sessions) Bind(id string, addr jid.JID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = make(map[string]session)
	}
	s.m[id] = session{addr: addr, authenticated: true}
}

// Connect adds a session that has not yet authenticated.
func (s *Sessions) Connect(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = make(map[string]session)
	}
	s.m[id] = session{}
}

func (s *Sessions) lookup(id string) (session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.m[id]
	if !ok {
		return session{}, ErrUnknownSession
	}
	return sess, nil
}

// BoundFullAddress returns the full address bound to the session or the zero
// JID if no resource has been bound.
func (s *Sessions) BoundFullAddress(id string) (jid.JID, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return jid.JID{}, err
	}
	if sess.addr.IsBare() {
		return jid.JID{}, nil
	}
	return sess.addr, nil
}

// BoundBareAddress returns the bare address of the session.
func (s *Sessions) BoundBareAddress(id string) (jid.JID, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return jid.JID{}, err
	}
	return sess.addr.Bare(), nil
}

// IsAuthenticated reports whether the session has authenticated.
func (s *Sessions) IsAuthenticated(id string) bool {
	sess, err := s.lookup(id)
	return err == nil && sess.authenticated
}
