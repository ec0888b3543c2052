// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"encoding/xml"
)

// Reply returns a new stanza of the same kind in response to s.
//
// The reply has the same name and id as s, the stanza addresses are swapped,
// and the packet addresses are the swapped packet addresses of s regardless
// of what the stanza addresses say.
// If build is not nil it is called with the new root element to add the
// payload; it should not change the attributes of the root element.
// s is never modified.
func (s *Stanza) Reply(typ string, build func(*Element)) *Stanza {
	el := NewElement(s.el.Name)
	if typ != "" {
		el.SetAttr("type", typ)
	}
	if s.id != "" {
		el.SetAttr("id", s.id)
	}
	if !s.to.IsZero() {
		el.SetAttr("from", s.to.String())
	}
	if !s.from.IsZero() {
		el.SetAttr("to", s.from.String())
	}
	if build != nil {
		build(el)
	}
	return &Stanza{
		kind:       s.kind,
		el:         el,
		typ:        typ,
		id:         s.id,
		from:       s.to,
		to:         s.from,
		packetFrom: s.packetTo,
		packetTo:   s.packetFrom,
	}
}

// ErrorReply returns a reply to s with type "error" carrying se.
func (s *Stanza) ErrorReply(se Error) *Stanza {
	return s.Reply(string(ErrorIQ), func(el *Element) {
		e := se.Element()
		e.Name = errorName(s.el.Name)
		el.AddChild(e)
	})
}

// StanzaError returns the error carried by a stanza of type "error".
// If the stanza has no <error/> element at ErrorPath or the element cannot be
// decoded, ok is false.
func (s *Stanza) StanzaError() (se Error, ok bool) {
	el := s.el.Find(s.ErrorPath()...)
	if el == nil {
		return Error{}, false
	}
	se, err := errorFromElement(el)
	if err != nil {
		return Error{}, false
	}
	return se, true
}

// errorName is the name of the <error/> element in a stanza of the given name.
func errorName(stanza xml.Name) xml.Name {
	return xml.Name{Space: stanza.Space, Local: "error"}
}
