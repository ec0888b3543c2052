// Copyright 2017 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package stanza contains the server's wire message model and stanza level
// errors.
//
// Stanzas (Message, Presence, and IQ) are the "primitives" of XMPP. Messages
// are used to send data that is fire-and-forget such as chat messages, Presence
// is used as a general broadcast and publish-subscribe mechanism and is used to
// broadcast availability on the network (sometimes called "status" in chat, eg.
// online, offline, or away), and IQ (Info-Query) is used as a request response
// mechanism for data that requires a response (eg. fetching an avatar or a list
// of client features).
//
// A Stanza wraps a parsed Element tree.
// Derived values such as the type, id, and addressing are computed when the
// stanza is constructed and are recomputed whenever the stanza is modified
// through one of its setters.
// Stanzas are never modified to produce a response; Reply and ErrorReply
// always build a new stanza from a fresh element.
//
// Each stanza carries two sets of addresses.
// The stanza addresses (StanzaFrom and StanzaTo) are the to and from
// attributes on the wire and are controlled by the remote party.
// The packet addresses (PacketFrom and PacketTo) are internal routing
// addresses that are only ever set by the server itself.
package stanza // import "mellium.im/xmppd/stanza"
