// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package info

import (
	"encoding/xml"

	"mellium.im/xmlstream"
	"mellium.im/xmppd/internal/ns"
	"mellium.im/xmppd/stanza"
)

// Identity is the type and category of a node on the network.
type Identity struct {
	XMLName  xml.Name `xml:"http://jabber.org/protocol/disco#info identity"`
	Category string   `xml:"category,attr"`
	Type     string   `xml:"type,attr"`
	Name     string   `xml:"name,attr,omitempty"`
	Lang     string   `xml:"http://www.w3.org/XML/1998/namespace lang,attr,omitempty"`
}

// Server is the identity of an XMPP server.
func Server(name string) Identity {
	return Identity{
		XMLName:  xml.Name{Space: NS, Local: "identity"},
		Category: "server",
		Type:     "im",
		Name:     name,
	}
}

// Element returns the identity as an element that can be added to a query.
func (i Identity) Element() *stanza.Element {
	el := stanza.NewElement(xml.Name{Space: NS, Local: "identity"})
	el.SetAttr("category", i.Category)
	el.SetAttr("type", i.Type)
	if i.Name != "" {
		el.SetAttr("name", i.Name)
	}
	if i.Lang != "" {
		el.Attr = append(el.Attr, xml.Attr{
			Name: xml.Name{Space: ns.XML, Local: "lang"}, Value: i.Lang,
		})
	}
	return el
}

// TokenReader implements xmlstream.Marshaler.
func (i Identity) TokenReader() xml.TokenReader {
	return i.Element().TokenReader()
}

// WriteXML implements xmlstream.WriterTo.
func (i Identity) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, i.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (i Identity) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := i.WriteXML(e)
	return err
}
