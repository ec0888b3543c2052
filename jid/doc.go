// Copyright 2014 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package jid implements XMPP addresses (historically called "Jabber ID's" or
// "JID's") as described in RFC 7622.
//
// JIDs are small immutable values.
// The zero value is the empty address and is used throughout the server to
// mean "no address", for example a stanza without a from attribute.
package jid // import "mellium.im/xmppd/jid"
