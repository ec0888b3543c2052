// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package disco

import (
	"encoding/xml"

	"mellium.im/xmlstream"
	"mellium.im/xmppd/disco/items"
	"mellium.im/xmppd/jid"
	"mellium.im/xmppd/stanza"
)

// Items is the payload of a reply to a query for a node's items.
type Items struct {
	Node  string
	Items []items.Item
}

// ParseItems extracts the items query payload from a reply.
func ParseItems(s *stanza.Stanza) (Items, bool) {
	el := s.Child("query", NSItems)
	if el == nil {
		return Items{}, false
	}
	return itemsFromElement(el), true
}

func itemsFromElement(el *stanza.Element) Items {
	q := Items{Node: el.AttrValue("node")}
	for _, c := range el.ChildElements() {
		if c.Name.Space != NSItems || c.Name.Local != "item" {
			continue
		}
		item := items.Item{
			XMLName: c.Name,
			Name:    c.AttrValue("name"),
			Node:    c.AttrValue("node"),
		}
		// Unparsable addresses are left as the zero JID.
		item.JID, _ = jid.Parse(c.AttrValue("jid"))
		q.Items = append(q.Items, item)
	}
	return q
}

// Element returns the <query/> element representing q.
func (q Items) Element() *stanza.Element {
	el := stanza.NewElement(xml.Name{Space: NSItems, Local: "query"})
	if q.Node != "" {
		el.SetAttr("node", q.Node)
	}
	for _, i := range q.Items {
		el.AddChild(i.Element())
	}
	return el
}

// TokenReader implements xmlstream.Marshaler.
func (q Items) TokenReader() xml.TokenReader {
	return q.Element().TokenReader()
}

// WriteXML implements xmlstream.WriterTo.
func (q Items) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, q.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (q Items) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := q.WriteXML(e)
	return err
}

// UnmarshalXML implements xml.Unmarshaler.
func (q *Items) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	el, err := stanza.DecodeElement(d, start)
	if err != nil {
		return err
	}
	*q = itemsFromElement(el)
	return nil
}
