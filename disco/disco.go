// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package disco implements the server side of service discovery.
//
// A Handler answers disco#info and disco#items queries from its own
// identities and features and from any number of providers, such as the
// ad-hoc command engine.
package disco // import "mellium.im/xmppd/disco"

import (
	"mellium.im/xmppd/criteria"
	"mellium.im/xmppd/disco/info"
	"mellium.im/xmppd/disco/items"
	"mellium.im/xmppd/jid"
	"mellium.im/xmppd/stanza"
)

// Namespaces used by this package.
const (
	NSInfo  = info.NS
	NSItems = items.NS
)

// Criteria matches service discovery queries.
var Criteria = criteria.Or(
	criteria.NameType("iq", string(stanza.GetIQ)).Child("query", NSInfo),
	criteria.NameType("iq", string(stanza.GetIQ)).Child("query", NSItems),
)

// ItemsProvider is implemented by components that list items under a node.
// If the node is not known to the provider ok is false.
type ItemsProvider interface {
	DiscoItems(node string, requester, target jid.JID) (list []items.Item, ok bool)
}

// InfoProvider is implemented by components that contribute identities and
// features to a node.
// If the node is not known to the provider ok is false.
type InfoProvider interface {
	DiscoInfo(node string, requester jid.JID) (ids []info.Identity, features []info.Feature, ok bool)
}
