// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package info contains service discovery features.
//
// These were separated out into a separate package to prevent import loops.
package info // import "mellium.im/xmppd/disco/info"

import (
	"encoding/xml"

	"mellium.im/xmlstream"
	"mellium.im/xmppd/stanza"
)

// NS is the namespace of service discovery info queries.
const NS = `http://jabber.org/protocol/disco#info`

// Feature represents a feature supported by an entity on the network.
type Feature struct {
	XMLName xml.Name `xml:"http://jabber.org/protocol/disco#info feature"`
	Var     string   `xml:"var,attr"`
}

// Element returns the feature as an element that can be added to a query.
func (f Feature) Element() *stanza.Element {
	return stanza.NewElement(xml.Name{Space: NS, Local: "feature"}, xml.Attr{
		Name:  xml.Name{Local: "var"},
		Value: f.Var,
	})
}

// TokenReader implements xmlstream.Marshaler.
func (f Feature) TokenReader() xml.TokenReader {
	return f.Element().TokenReader()
}

// WriteXML implements xmlstream.WriterTo.
func (f Feature) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, f.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (f Feature) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := f.WriteXML(e)
	return err
}
