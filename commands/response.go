// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package commands

import (
	"encoding/xml"

	"mellium.im/xmlstream"
	"mellium.im/xmppd/stanza"
)

// Result is the <command/> payload of a reply to a command request.
type Result struct {
	Node      string
	SessionID string
	Status    Status
	Actions   Actions
	Notes     []Note
	Payload   []*stanza.Element
}

// ParseResult extracts the command result from a reply.
// If the reply does not carry a command, ok is false.
func ParseResult(s *stanza.Stanza) (r Result, ok bool) {
	el := s.Child("command", NS)
	if el == nil {
		return Result{}, false
	}
	return resultFromElement(el), true
}

func resultFromElement(el *stanza.Element) Result {
	r := Result{
		Node:      el.AttrValue("node"),
		SessionID: el.AttrValue("sessionid"),
		Status:    Status(el.AttrValue("status")),
	}
	for _, c := range el.ChildElements() {
		switch {
		case c.Name.Space == NS && c.Name.Local == "actions":
			r.Actions = actionsFromElement(c)
		case c.Name.Space == NS && c.Name.Local == "note":
			typ, err := ParseNoteType(c.AttrValue("type"))
			if err != nil {
				typ = NoteInfo
			}
			r.Notes = append(r.Notes, Note{
				XMLName: c.Name,
				Type:    typ,
				Value:   c.Text(),
			})
		default:
			r.Payload = append(r.Payload, c)
		}
	}
	return r
}

// Element returns the <command/> element representing r.
func (r Result) Element() *stanza.Element {
	el := stanza.NewElement(xml.Name{Space: NS, Local: "command"})
	el.SetAttr("node", r.Node)
	if r.SessionID != "" {
		el.SetAttr("sessionid", r.SessionID)
	}
	if r.Status != "" {
		el.SetAttr("status", string(r.Status))
	}
	if r.Status == StatusExecuting && r.Actions != 0 {
		el.AddChild(r.Actions.Element())
	}
	for _, n := range r.Notes {
		el.AddChild(n.Element())
	}
	for _, p := range r.Payload {
		el.AddChild(p.Copy())
	}
	return el
}

// TokenReader satisfies the xmlstream.Marshaler interface.
func (r Result) TokenReader() xml.TokenReader {
	return r.Element().TokenReader()
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (r Result) WriteXML(w xmlstream.TokenWriter) (n int, err error) {
	return xmlstream.Copy(w, r.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (r Result) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := r.WriteXML(e)
	return err
}

// UnmarshalXML implements xml.Unmarshaler.
func (r *Result) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	el, err := stanza.DecodeElement(d, start)
	if err != nil {
		return err
	}
	*r = resultFromElement(el)
	return nil
}

func (r *Response) result(node, sid string) Result {
	return Result{
		Node:      node,
		SessionID: sid,
		Status:    r.Status(),
		Actions:   r.actions,
		Notes:     r.notes,
		Payload:   r.payload,
	}
}
