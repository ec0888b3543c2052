// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package mux

import (
	"context"

	"mellium.im/xmppd/stanza"
)

// Sender accepts stanzas produced while handling another stanza.
// Send must not block waiting for the stanza to be delivered.
type Sender interface {
	Send(s *stanza.Stanza)
}

// The SenderFunc type is an adapter to allow the use of ordinary functions as
// senders.
type SenderFunc func(s *stanza.Stanza)

// Send calls f(s).
func (f SenderFunc) Send(s *stanza.Stanza) {
	f(s)
}

// Handler responds to a stanza.
//
// Replies and forwarded stanzas are passed to out.
// If HandleStanza returns a stanza.Error (or a pointer to one) it is turned
// into an error reply to the sender of s.
// Any other error causes s to be dropped.
type Handler interface {
	HandleStanza(ctx context.Context, s *stanza.Stanza, out Sender) error
}

// The HandlerFunc type is an adapter to allow the use of ordinary functions
// as stanza handlers.
// If f is a function with the appropriate signature, HandlerFunc(f) is a
// Handler that calls f.
type HandlerFunc func(ctx context.Context, s *stanza.Stanza, out Sender) error

// HandleStanza calls f(ctx, s, out).
func (f HandlerFunc) HandleStanza(ctx context.Context, s *stanza.Stanza, out Sender) error {
	return f(ctx, s, out)
}
