// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package resolve stamps the trusted sender address onto inbound stanzas.
//
// Clients may omit the from attribute on the stanzas they send, or may set it
// to any address they like.
// Before a stanza is routed anywhere the server replaces the from attribute
// with the address bound to the session the stanza arrived on, after checking
// that any address the client claimed belongs to the same account.
package resolve // import "mellium.im/xmppd/resolve"

import (
	"errors"
	"fmt"

	"mellium.im/xmppd/jid"
	"mellium.im/xmppd/stanza"
)

// ErrNotAuthenticated is returned when a stanza arrives on a session that has
// not yet authenticated.
// Stanzas should never reach the resolver before authentication so this
// indicates a bug in the session layer.
var ErrNotAuthenticated = errors.New("resolve: session is not authenticated")

// AddressMismatchError is returned when the from address of a stanza does not
// belong to the account bound to the session.
type AddressMismatchError struct {
	Claimed jid.JID
	Bound   jid.JID
}

func (e *AddressMismatchError) Error() string {
	return fmt.Sprintf("resolve: claimed address %s does not match bound address %s", e.Claimed, e.Bound)
}

// Sessions reports the addresses bound to a session.
type Sessions interface {
	// BoundFullAddress returns the full address of the session or the zero JID
	// if no resource has been bound yet.
	BoundFullAddress(id string) (jid.JID, error)

	// BoundBareAddress returns the bare address the session authenticated as.
	BoundBareAddress(id string) (jid.JID, error)

	IsAuthenticated(id string) bool
}

// Resolver stamps sender addresses using a session table.
type Resolver struct {
	sessions Sessions
}

// New returns a resolver that looks up session addresses in sessions.
func New(sessions Sessions) *Resolver {
	return &Resolver{sessions: sessions}
}

// Resolve sets the from address of s to the address bound to the session.
//
// If s has no from address the full address of the session is used.
// If s has a from address its bare part must equal the bare address of the
// session or an *AddressMismatchError is returned and s is left unchanged.
// Presence subscription management stanzas are always stamped with the bare
// address.
// If the session has not bound a resource the bare address is used.
// Only the stanza address is changed, the packet addresses are untouched.
func (r *Resolver) Resolve(s *stanza.Stanza, sessionID string) error {
	if !r.sessions.IsAuthenticated(sessionID) {
		return ErrNotAuthenticated
	}
	bare, err := r.sessions.BoundBareAddress(sessionID)
	if err != nil {
		return fmt.Errorf("resolve: looking up bare address: %w", err)
	}
	full, err := r.sessions.BoundFullAddress(sessionID)
	if err != nil {
		return fmt.Errorf("resolve: looking up full address: %w", err)
	}

	if claimed := s.StanzaFrom(); !claimed.IsZero() && !claimed.Bare().Equal(bare) {
		return &AddressMismatchError{Claimed: claimed, Bound: bare}
	}

	stamp := full
	if stamp.IsZero() {
		stamp = bare
	}
	if s.Kind() == stanza.PresenceKind && s.PresenceType().IsSubscription() {
		stamp = bare
	}
	s.SetStanzaFrom(stamp)
	return nil
}
