// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package xmppd is the stanza processing core of an XMPP server.
//
// Every stanza received from a client session passes through a Pipeline: it
// is parsed, its sender address is checked against the address bound to the
// session, and it is handed to the first module registered with the
// dispatcher whose criteria match.
// The ad-hoc command engine, service discovery, and the built in commands are
// modules.
//
// Network transport, authentication, and persistence are not part of this
// module; they are consumed through small interfaces such as
// resolve.Sessions and mux.Sender.
package xmppd // import "mellium.im/xmppd"
