// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"mellium.im/xmlstream"
	"mellium.im/xmppd/internal/attr"
)

// Node is a member of an element's content: either an *Element or CharData.
type Node interface {
	xmlstream.Marshaler
	copyNode() Node
}

// CharData is text content inside of an element.
type CharData string

// TokenReader satisfies the xmlstream.Marshaler interface.
func (c CharData) TokenReader() xml.TokenReader {
	return xmlstream.Token(xml.CharData(c))
}

func (c CharData) copyNode() Node { return c }

// Element is a parsed XML element.
//
// Namespace declarations are not kept in Attr.
// The namespace of each element is resolved when it is parsed and stored in
// Name.Space so that encoding an element never results in duplicate xmlns
// attributes.
type Element struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []Node
}

// NewElement returns an element with the provided name and attributes.
// Any namespace declarations in attrs are dropped.
func NewElement(name xml.Name, attrs ...xml.Attr) *Element {
	el := &Element{Name: name}
	for _, a := range attrs {
		if isNSDecl(a) {
			continue
		}
		el.Attr = append(el.Attr, a)
	}
	return el
}

func isNSDecl(a xml.Attr) bool {
	return a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns")
}

// ReadElement reads tokens from r until it finds a start element and then
// decodes the entire element.
// Character data, comments, and processing instructions before the start
// element are skipped.
// If r is exhausted before a start element is found, io.EOF is returned.
func ReadElement(r xml.TokenReader) (*Element, error) {
	for {
		tok, err := r.Token()
		if tok != nil {
			switch t := tok.(type) {
			case xml.StartElement:
				if err != nil && err != io.EOF {
					return nil, err
				}
				if err == io.EOF {
					return nil, &MalformedError{Reason: "unexpected end of input in <" + t.Name.Local + ">"}
				}
				return DecodeElement(r, t)
			case xml.EndElement:
				return nil, &MalformedError{Reason: "unexpected end element </" + t.Name.Local + ">"}
			}
		}
		if err != nil {
			return nil, err
		}
	}
}

// DecodeElement decodes the remainder of the element begun by start from r.
func DecodeElement(r xml.TokenReader, start xml.StartElement) (*Element, error) {
	el := NewElement(start.Name, start.Attr...)
	for {
		tok, err := r.Token()
		if tok != nil {
			switch t := tok.(type) {
			case xml.StartElement:
				if err == io.EOF {
					return nil, &MalformedError{Reason: "unexpected end of input in <" + t.Name.Local + ">"}
				}
				if err != nil {
					return nil, err
				}
				child, err := DecodeElement(r, t)
				if err != nil {
					return nil, err
				}
				el.Children = append(el.Children, child)
				continue
			case xml.EndElement:
				if t.Name != start.Name {
					return nil, &MalformedError{Reason: "mismatched end element </" + t.Name.Local + "> in <" + start.Name.Local + ">"}
				}
				return el, nil
			case xml.CharData:
				el.Children = append(el.Children, CharData(t))
			}
		}
		switch {
		case err == io.EOF:
			return nil, &MalformedError{Reason: "unexpected end of input in <" + start.Name.Local + ">", Err: io.ErrUnexpectedEOF}
		case err != nil:
			var synErr *xml.SyntaxError
			if errors.As(err, &synErr) {
				return nil, &MalformedError{Reason: "syntax error", Err: err}
			}
			return nil, err
		}
	}
}

// StartElement returns the start token for the element.
func (e *Element) StartElement() xml.StartElement {
	attrs := make([]xml.Attr, len(e.Attr))
	copy(attrs, e.Attr)
	return xml.StartElement{Name: e.Name, Attr: attrs}
}

// TokenReader satisfies the xmlstream.Marshaler interface.
func (e *Element) TokenReader() xml.TokenReader {
	inner := make([]xml.TokenReader, 0, len(e.Children))
	for _, c := range e.Children {
		inner = append(inner, c.TokenReader())
	}
	return xmlstream.Wrap(xmlstream.MultiReader(inner...), e.StartElement())
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (e *Element) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, e.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (e *Element) MarshalXML(enc *xml.Encoder, _ xml.StartElement) error {
	_, err := e.WriteXML(enc)
	return err
}

// String returns the XML encoding of the element.
func (e *Element) String() string {
	var b strings.Builder
	enc := xml.NewEncoder(&b)
	if _, err := e.WriteXML(enc); err != nil {
		return ""
	}
	if err := enc.Flush(); err != nil {
		return ""
	}
	return b.String()
}

func (e *Element) copyNode() Node { return e.Copy() }

// Copy returns a deep copy of the element.
func (e *Element) Copy() *Element {
	if e == nil {
		return nil
	}
	c := &Element{Name: e.Name}
	if e.Attr != nil {
		c.Attr = make([]xml.Attr, len(e.Attr))
		copy(c.Attr, e.Attr)
	}
	if e.Children != nil {
		c.Children = make([]Node, 0, len(e.Children))
		for _, n := range e.Children {
			c.Children = append(c.Children, n.copyNode())
		}
	}
	return c
}

// AttrValue returns the value of the unqualified attribute local or the empty
// string.
func (e *Element) AttrValue(local string) string {
	return attr.Get(e.Attr, local)
}

// SetAttr sets the unqualified attribute local to value.
func (e *Element) SetAttr(local, value string) {
	e.Attr = attr.Set(e.Attr, local, value)
}

// RemoveAttr removes the unqualified attribute local.
func (e *Element) RemoveAttr(local string) {
	e.Attr = attr.Remove(e.Attr, local)
}

// AddChild appends nodes to the element's content and returns the element.
func (e *Element) AddChild(n ...Node) *Element {
	e.Children = append(e.Children, n...)
	return e
}

// ChildElements returns the immediate child elements of e in document order.
func (e *Element) ChildElements() []*Element {
	var out []*Element
	for _, n := range e.Children {
		if c, ok := n.(*Element); ok {
			out = append(out, c)
		}
	}
	return out
}

// FirstChild returns the first immediate child element or nil.
func (e *Element) FirstChild() *Element {
	for _, n := range e.Children {
		if c, ok := n.(*Element); ok {
			return c
		}
	}
	return nil
}

// Child returns the first immediate child element with the given local name.
// If space is not empty the child must also be in that namespace.
func (e *Element) Child(local, space string) *Element {
	for _, n := range e.Children {
		c, ok := n.(*Element)
		if !ok || c.Name.Local != local {
			continue
		}
		if space == "" || c.Name.Space == space {
			return c
		}
	}
	return nil
}

// Find follows path from e by local names.
// The first path element must match e itself, each following element selects
// the first child with that local name.
func (e *Element) Find(path ...string) *Element {
	if e == nil || len(path) == 0 || e.Name.Local != path[0] {
		return nil
	}
	cur := e
	for _, local := range path[1:] {
		cur = cur.Child(local, "")
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Text returns the concatenation of the element's immediate character data.
func (e *Element) Text() string {
	var b strings.Builder
	for _, n := range e.Children {
		if c, ok := n.(CharData); ok {
			b.WriteString(string(c))
		}
	}
	return b.String()
}

// TextElement returns an element containing only the provided text.
func TextElement(name xml.Name, text string) *Element {
	el := NewElement(name)
	if text != "" {
		el.AddChild(CharData(text))
	}
	return el
}
