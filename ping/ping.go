// Copyright 2017 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package ping implements XEP-0199: XMPP Ping.
package ping // import "mellium.im/xmppd/ping"

import (
	"context"
	"encoding/xml"

	"mellium.im/xmppd/criteria"
	"mellium.im/xmppd/mux"
	"mellium.im/xmppd/stanza"
)

// NS is the XML namespace used by XMPP pings. It is provided as a convenience.
const NS = `urn:xmpp:ping`

// Criteria matches ping requests.
var Criteria = criteria.NameType("iq", string(stanza.GetIQ)).Child("ping", NS)

// Element returns the payload of a ping request.
func Element() *stanza.Element {
	return stanza.NewElement(xml.Name{Space: NS, Local: "ping"})
}

// Handler answers pings with an empty result.
type Handler struct{}

// HandleStanza implements mux.Handler.
func (Handler) HandleStanza(_ context.Context, s *stanza.Stanza, out mux.Sender) error {
	out.Send(s.Reply(string(stanza.ResultIQ), nil))
	return nil
}
