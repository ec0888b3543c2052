// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package disco

import (
	"encoding/xml"

	"mellium.im/xmlstream"
	"mellium.im/xmppd/disco/info"
	"mellium.im/xmppd/internal/ns"
	"mellium.im/xmppd/stanza"
)

// Info is the payload of a reply to a query for a node's identities and
// features.
type Info struct {
	Node       string
	Identities []info.Identity
	Features   []info.Feature
}

// ParseInfo extracts the info query payload from a reply.
func ParseInfo(s *stanza.Stanza) (Info, bool) {
	el := s.Child("query", NSInfo)
	if el == nil {
		return Info{}, false
	}
	return infoFromElement(el), true
}

func infoFromElement(el *stanza.Element) Info {
	i := Info{Node: el.AttrValue("node")}
	for _, c := range el.ChildElements() {
		if c.Name.Space != NSInfo {
			continue
		}
		switch c.Name.Local {
		case "identity":
			id := info.Identity{
				XMLName:  c.Name,
				Category: c.AttrValue("category"),
				Type:     c.AttrValue("type"),
				Name:     c.AttrValue("name"),
			}
			for _, a := range c.Attr {
				if a.Name.Space == ns.XML && a.Name.Local == "lang" {
					id.Lang = a.Value
				}
			}
			i.Identities = append(i.Identities, id)
		case "feature":
			i.Features = append(i.Features, info.Feature{XMLName: c.Name, Var: c.AttrValue("var")})
		}
	}
	return i
}

// Element returns the <query/> element representing i.
func (i Info) Element() *stanza.Element {
	el := stanza.NewElement(xml.Name{Space: NSInfo, Local: "query"})
	if i.Node != "" {
		el.SetAttr("node", i.Node)
	}
	for _, id := range i.Identities {
		el.AddChild(id.Element())
	}
	for _, f := range i.Features {
		el.AddChild(f.Element())
	}
	return el
}

// TokenReader implements xmlstream.Marshaler.
func (i Info) TokenReader() xml.TokenReader {
	return i.Element().TokenReader()
}

// WriteXML implements xmlstream.WriterTo.
func (i Info) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, i.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (i Info) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := i.WriteXML(e)
	return err
}

// UnmarshalXML implements xml.Unmarshaler.
func (i *Info) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	el, err := stanza.DecodeElement(d, start)
	if err != nil {
		return err
	}
	*i = infoFromElement(el)
	return nil
}
