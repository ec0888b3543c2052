// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package commands

import (
	"encoding/xml"

	"mellium.im/xmlstream"
	"mellium.im/xmppd/stanza"
)

//go:generate go run -tags=tools golang.org/x/tools/cmd/stringer -type=Actions -linecomment

// Actions represent the next steps that can be performed in multi-stage
// commands.
type Actions uint8

// A list of possible actions.
const (
	Prev     Actions = 1 << iota // prev
	Next                         // next
	Complete                     // complete

	// Execute is a bitmask that can be used to extract the default action.
	Execute = 0x38
)

// WithDefault returns a with the default action set to def, which should be
// one of Prev, Next, or Complete.
func (a Actions) WithDefault(def Actions) Actions {
	return a&^Execute | (def << 3)
}

// Default returns the default action or zero if none is set.
func (a Actions) Default() Actions {
	return (a & Execute) >> 3
}

// Element returns the <actions/> element representing a.
func (a Actions) Element() *stanza.Element {
	el := stanza.NewElement(xml.Name{Space: NS, Local: "actions"})
	switch execute := a.Default(); execute {
	case Prev, Next, Complete:
		el.SetAttr("execute", execute.String())
	default:
	}
	for i := Actions(1); i <= Complete; i <<= 1 {
		if a&i == 0 {
			continue
		}
		el.AddChild(stanza.NewElement(xml.Name{Space: NS, Local: i.String()}))
	}
	return el
}

// TokenReader satisfies the xmlstream.Marshaler interface.
func (a Actions) TokenReader() xml.TokenReader {
	return a.Element().TokenReader()
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (a Actions) WriteXML(w xmlstream.TokenWriter) (n int, err error) {
	return xmlstream.Copy(w, a.TokenReader())
}

// MarshalXML satisfies xml.Marshaler.
func (a Actions) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := a.WriteXML(e)
	return err
}

// UnmarshalXML satisfies xml.Unmarshaler.
func (a *Actions) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	el, err := stanza.DecodeElement(d, start)
	if err != nil {
		return err
	}
	*a = actionsFromElement(el)
	return nil
}

func actionsFromElement(el *stanza.Element) Actions {
	var action Actions
	switch el.AttrValue("execute") {
	case "prev":
		action |= Prev << 3
	case "next":
		action |= Next << 3
	case "complete":
		action |= Complete << 3
	}
	for _, c := range el.ChildElements() {
		switch c.Name.Local {
		case "prev":
			action |= Prev
		case "next":
			action |= Next
		case "complete":
			action |= Complete
		}
	}
	return action
}
