// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package commands implements executable ad-hoc commands.
//
// A Manager holds the commands offered by the server, lists the commands a
// requester may see during service discovery, and executes them.
// Commands may complete in a single stage or may continue over several
// stages, in which case the Manager keeps a session that carries state from
// one stage to the next until the command completes, is canceled, or is left
// idle for too long.
package commands // import "mellium.im/xmppd/commands"

import (
	"context"
	"encoding/xml"

	"mellium.im/xmppd/criteria"
	"mellium.im/xmppd/disco/items"
	"mellium.im/xmppd/jid"
	"mellium.im/xmppd/stanza"
)

// NS is the namespace used by commands, provided as a convenience.
const NS = `http://jabber.org/protocol/commands`

// Criteria matches IQ set stanzas carrying a command.
var Criteria = criteria.NameType("iq", string(stanza.SetIQ)).Child("command", NS)

// Command is an ad-hoc command that can be executed by a client.
type Command struct {
	// Node uniquely identifies the command.
	Node string

	// Name is the human readable name of the command.
	Name string

	// Allowed reports whether the requester may discover and execute the
	// command.
	// It is consulted on every discovery and every execution.
	// If Allowed is nil everyone is allowed.
	Allowed func(requester jid.JID) bool

	Handler Handler
}

func (c Command) allowed(requester jid.JID) bool {
	return c.Allowed == nil || c.Allowed(requester)
}

// Item returns the service discovery item for the command at target.
func (c Command) Item(target jid.JID) items.Item {
	return items.Item{
		XMLName: xml.Name{Space: items.NS, Local: "item"},
		JID:     target,
		Node:    c.Node,
		Name:    c.Name,
	}
}

// Handler executes one stage of a command.
//
// The handler adds its payload and notes to resp.
// Unless Continue or Cancel is called on resp the command completes when
// ExecuteCommand returns.
// Returning a stanza.Error sends that error to the requester, any other error
// is reported as an internal server error.
type Handler interface {
	ExecuteCommand(ctx context.Context, req Request, resp *Response) error
}

// The HandlerFunc type is an adapter to allow the use of ordinary functions
// as command handlers.
type HandlerFunc func(ctx context.Context, req Request, resp *Response) error

// ExecuteCommand calls f(ctx, req, resp).
func (f HandlerFunc) ExecuteCommand(ctx context.Context, req Request, resp *Response) error {
	return f(ctx, req, resp)
}

// Canceler may be implemented by a Handler to be notified when a session
// that is waiting for its next stage is canceled by the requester or reaped
// after being idle.
// Data is the value passed to Continue by the last stage.
type Canceler interface {
	CancelCommand(ctx context.Context, sessionID string, data interface{})
}

// Collector receives the replies produced by a script command.
type Collector func(*stanza.Stanza)

// ScriptProvider offers commands that are not registered with the Manager.
type ScriptProvider interface {
	// ListItems returns the discovery items in namespace visible to requester
	// at target.
	ListItems(namespace string, target, requester jid.JID) []items.Item

	// TryExecute executes the command in s if the provider knows its node,
	// passing any replies to collect, and reports whether it handled s.
	TryExecute(s *stanza.Stanza, collect Collector) bool
}
