// Copyright 2017 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package form

import (
	"encoding/xml"
	"strings"

	"mellium.im/xmppd/stanza"
)

var newlineReplacer = strings.NewReplacer(
	"\r\n", " ",
	"\r", " ",
	"\n", " ",
)

// Field types.
const (
	FieldBoolean     = "boolean"
	FieldFixed       = "fixed"
	FieldHidden      = "hidden"
	FieldJIDSingle   = "jid-single"
	FieldTextMulti   = "text-multi"
	FieldTextPrivate = "text-private"
	FieldTextSingle  = "text-single"
)

// Field is a single field of a data form.
type Field struct {
	Var      string
	Type     string
	Label    string
	Desc     string
	Required bool
	Values   []string
}

func fieldFromElement(el *stanza.Element) Field {
	f := Field{
		Var:   el.AttrValue("var"),
		Type:  el.AttrValue("type"),
		Label: el.AttrValue("label"),
	}
	for _, c := range el.ChildElements() {
		switch c.Name.Local {
		case "desc":
			f.Desc = c.Text()
		case "required":
			f.Required = true
		case "value":
			f.Values = append(f.Values, c.Text())
		}
	}
	return f
}

// Element returns the <field/> element representing f.
// Single line fields have newlines in their values replaced with spaces.
func (f Field) Element() *stanza.Element {
	el := stanza.NewElement(xml.Name{Space: NS, Local: "field"})
	if f.Type != "" {
		el.SetAttr("type", f.Type)
	}
	if f.Var != "" {
		el.SetAttr("var", f.Var)
	}
	if f.Label != "" {
		el.SetAttr("label", f.Label)
	}
	if f.Desc != "" {
		el.AddChild(stanza.TextElement(xml.Name{Space: NS, Local: "desc"}, f.Desc))
	}
	if f.Required {
		el.AddChild(stanza.NewElement(xml.Name{Space: NS, Local: "required"}))
	}
	for _, v := range f.Values {
		if f.Type != FieldTextMulti {
			v = newlineReplacer.Replace(v)
		}
		el.AddChild(stanza.TextElement(xml.Name{Space: NS, Local: "value"}, v))
	}
	return el
}
