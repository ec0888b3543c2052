// Copyright 2017 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package form implements sending and submitting data forms.
package form // import "mellium.im/xmppd/form"

import (
	"encoding/xml"

	"mellium.im/xmlstream"
	"mellium.im/xmppd/stanza"
)

// NS is the data forms namespace.
const NS = "jabber:x:data"

// Form types.
const (
	TypeForm   = "form"
	TypeSubmit = "submit"
	TypeCancel = "cancel"
	TypeResult = "result"
)

// Data represents a data form.
type Data struct {
	Type         string
	Title        string
	Instructions string
	Fields       []Field
}

// New builds a new data form from the provided options.
func New(o ...Option) *Data {
	form := &Data{Type: TypeForm}
	for _, opt := range o {
		opt(form)
	}
	return form
}

// Parse decodes a form from an <x/> element.
func Parse(el *stanza.Element) (*Data, error) {
	if el == nil || el.Name.Space != NS || el.Name.Local != "x" {
		return nil, &stanza.MalformedError{Reason: "not a data form"}
	}
	d := &Data{Type: el.AttrValue("type")}
	for _, c := range el.ChildElements() {
		switch c.Name.Local {
		case "title":
			d.Title = c.Text()
		case "instructions":
			d.Instructions = c.Text()
		case "field":
			d.Fields = append(d.Fields, fieldFromElement(c))
		}
	}
	return d, nil
}

// Get returns the first value of the field named v.
func (d *Data) Get(v string) (string, bool) {
	if d == nil {
		return "", false
	}
	for _, f := range d.Fields {
		if f.Var != v {
			continue
		}
		if len(f.Values) == 0 {
			return "", true
		}
		return f.Values[0], true
	}
	return "", false
}

// Element returns the <x/> element representing the form.
func (d *Data) Element() *stanza.Element {
	el := stanza.NewElement(xml.Name{Space: NS, Local: "x"})
	typ := TypeForm
	if d != nil && d.Type != "" {
		typ = d.Type
	}
	el.SetAttr("type", typ)
	if d == nil {
		return el
	}
	if d.Title != "" {
		el.AddChild(stanza.TextElement(xml.Name{Space: NS, Local: "title"}, d.Title))
	}
	if d.Instructions != "" {
		el.AddChild(stanza.TextElement(xml.Name{Space: NS, Local: "instructions"}, d.Instructions))
	}
	for _, f := range d.Fields {
		el.AddChild(f.Element())
	}
	return el
}

// TokenReader implements xmlstream.Marshaler for Data.
func (d *Data) TokenReader() xml.TokenReader {
	return d.Element().TokenReader()
}

// WriteXML implements xmlstream.WriterTo for Data.
func (d *Data) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, d.TokenReader())
}

// MarshalXML satisfies the xml.Marshaler interface for *Data.
func (d *Data) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := d.WriteXML(e)
	if err != nil {
		return err
	}
	return e.Flush()
}

// UnmarshalXML satisfies the xml.Unmarshaler interface for *Data.
func (d *Data) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	el, err := stanza.DecodeElement(dec, start)
	if err != nil {
		return err
	}
	parsed, err := Parse(el)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}
