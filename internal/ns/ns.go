// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package ns provides namespace constants that are used by the stanza core and
// its internal packages.
package ns // import "mellium.im/xmppd/internal/ns"

// List of commonly used namespaces.
const (
	Client     = "jabber:client"
	Commands   = "http://jabber.org/protocol/commands"
	DataForms  = "jabber:x:data"
	DiscoInfo  = "http://jabber.org/protocol/disco#info"
	DiscoItems = "http://jabber.org/protocol/disco#items"
	Server     = "jabber:server"
	Stanza     = "urn:ietf:params:xml:ns:xmpp-stanzas"
	XML        = "http://www.w3.org/XML/1998/namespace"
)
