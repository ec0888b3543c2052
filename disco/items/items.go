// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package items contains service discovery items.
//
// These were separated out into a separate package to prevent import loops.
package items // import "mellium.im/xmppd/disco/items"

import (
	"encoding/xml"

	"mellium.im/xmlstream"
	"mellium.im/xmppd/jid"
	"mellium.im/xmppd/stanza"
)

// NS is the namespace of service discovery items queries.
const NS = `http://jabber.org/protocol/disco#items`

// Item represents a discovered item.
type Item struct {
	XMLName xml.Name `xml:"http://jabber.org/protocol/disco#items item"`
	JID     jid.JID  `xml:"jid,attr"`
	Name    string   `xml:"name,attr,omitempty"`
	Node    string   `xml:"node,attr,omitempty"`
}

// Element returns the item as an element that can be added to a query.
func (i Item) Element() *stanza.Element {
	el := stanza.NewElement(xml.Name{Space: NS, Local: "item"})
	el.SetAttr("jid", i.JID.String())
	if i.Node != "" {
		el.SetAttr("node", i.Node)
	}
	if i.Name != "" {
		el.SetAttr("name", i.Name)
	}
	return el
}

// TokenReader implements xmlstream.Marshaler.
func (i Item) TokenReader() xml.TokenReader {
	return i.Element().TokenReader()
}

// WriteXML implements xmlstream.WriterTo.
func (i Item) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, i.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (i Item) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := i.WriteXML(e)
	return err
}
