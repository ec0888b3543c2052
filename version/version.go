// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package version answers software version queries (XEP-0092).
package version // import "mellium.im/xmppd/version"

import (
	"context"
	"encoding/xml"

	"mellium.im/xmlstream"
	"mellium.im/xmppd/criteria"
	"mellium.im/xmppd/mux"
	"mellium.im/xmppd/stanza"
)

const (
	// NS is the XML namespace used by software version queries.
	// It is provided as a convenience.
	NS = "jabber:iq:version"
)

// Criteria matches software version requests.
var Criteria = criteria.NameType("iq", string(stanza.GetIQ)).Child("query", NS)

// Query is the payload of a software version query or response.
type Query struct {
	XMLName xml.Name `xml:"jabber:iq:version query"`
	Name    string   `xml:"name,omitempty"`
	Version string   `xml:"version,omitempty"`
	OS      string   `xml:"os,omitempty"`
}

// Parse returns the query carried by s.
func Parse(s *stanza.Stanza) (Query, bool) {
	el := s.Child("query", NS)
	if el == nil {
		return Query{}, false
	}
	q := Query{XMLName: el.Name}
	for _, c := range el.ChildElements() {
		switch c.Name.Local {
		case "name":
			q.Name = c.Text()
		case "version":
			q.Version = c.Text()
		case "os":
			q.OS = c.Text()
		}
	}
	return q, true
}

// Element returns the query as an element.
// Empty fields are omitted.
func (q Query) Element() *stanza.Element {
	el := stanza.NewElement(xml.Name{Space: NS, Local: "query"})
	for _, f := range [...]struct {
		local, value string
	}{
		{"name", q.Name},
		{"version", q.Version},
		{"os", q.OS},
	} {
		if f.value != "" {
			el.AddChild(stanza.TextElement(xml.Name{Space: NS, Local: f.local}, f.value))
		}
	}
	return el
}

// TokenReader implements xmlstream.Marshaler.
func (q Query) TokenReader() xml.TokenReader {
	return q.Element().TokenReader()
}

// WriteXML implements xmlstream.WriterTo.
func (q Query) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, q.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (q Query) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := q.WriteXML(e)
	if err != nil {
		return err
	}
	return e.Flush()
}

// Handler returns a handler that answers every query with q.
func Handler(q Query) mux.Handler {
	return mux.HandlerFunc(func(_ context.Context, s *stanza.Stanza, out mux.Sender) error {
		out.Send(s.Reply(string(stanza.ResultIQ), func(el *stanza.Element) {
			el.AddChild(q.Element())
		}))
		return nil
	})
}
