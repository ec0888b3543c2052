// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"encoding/xml"
	"strings"
	"sync"

	"mellium.im/xmlstream"
	"mellium.im/xmppd/internal/attr"
	"mellium.im/xmppd/internal/ns"
	"mellium.im/xmppd/jid"
)

//go:generate go run -tags=tools golang.org/x/tools/cmd/stringer -type=Kind

// Kind identifies which of the stanza variants a Stanza is.
type Kind uint8

// A list of stanza kinds.
const (
	OtherKind Kind = iota
	IQKind
	PresenceKind
	MessageKind
)

// Is tests whether name is a valid stanza based on name and space.
func Is(name xml.Name) bool {
	return kindOf(name) != OtherKind
}

func kindOf(name xml.Name) Kind {
	if name.Space != ns.Client && name.Space != ns.Server && name.Space != "" {
		return OtherKind
	}
	switch name.Local {
	case "iq":
		return IQKind
	case "presence":
		return PresenceKind
	case "message":
		return MessageKind
	}
	return OtherKind
}

// Stanza wraps a single element received from or destined for the network.
//
// The type, id, and stanza addresses are derived from the element when the
// stanza is constructed.
// Read only methods may be called concurrently, but the setters must not be
// called concurrently with any other method.
type Stanza struct {
	kind Kind
	el   *Element

	typ  string
	id   string
	lang string
	from jid.JID
	to   jid.JID

	packetFrom jid.JID
	packetTo   jid.JID

	mu      sync.Mutex
	nsCache map[string]string
}

// Parse creates a stanza from el.
// Elements other than iq, presence, and message in the client or server
// namespace result in a stanza of OtherKind.
// The stanza takes ownership of el.
func Parse(el *Element) (*Stanza, error) {
	if el == nil {
		return nil, malformed("no element", nil)
	}
	s := &Stanza{
		kind: kindOf(el.Name),
		el:   el,
	}
	if err := s.derive(); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseString decodes the first element in s and creates a stanza from it.
func ParseString(s string) (*Stanza, error) {
	el, err := ReadElement(xml.NewDecoder(strings.NewReader(s)))
	if err != nil {
		return nil, err
	}
	return Parse(el)
}

// Read decodes the next element from r and creates a stanza from it.
func Read(r xml.TokenReader) (*Stanza, error) {
	el, err := ReadElement(r)
	if err != nil {
		return nil, err
	}
	return Parse(el)
}

func newKind(el *Element, want Kind) (*Stanza, error) {
	if el == nil {
		return nil, malformed("no element", nil)
	}
	if k := kindOf(el.Name); k != want {
		return nil, malformed("unexpected element <"+el.Name.Local+"> for "+want.String(), nil)
	}
	return Parse(el)
}

// NewIQ creates an IQ stanza from el.
// If el is not an iq, has a missing or unknown type, has no id, or has an
// invalid address a *MalformedError is returned.
func NewIQ(el *Element) (*Stanza, error) {
	return newKind(el, IQKind)
}

// NewPresence creates a presence stanza from el.
func NewPresence(el *Element) (*Stanza, error) {
	return newKind(el, PresenceKind)
}

// NewMessage creates a message stanza from el.
func NewMessage(el *Element) (*Stanza, error) {
	return newKind(el, MessageKind)
}

func (s *Stanza) derive() error {
	a := s.el.Attr
	s.typ = attr.Get(a, "type")
	s.id = attr.Get(a, "id")
	s.lang = ""
	for _, at := range a {
		if at.Name.Space == ns.XML && at.Name.Local == "lang" {
			s.lang = at.Value
		}
	}

	var err error
	s.from, err = parseAddr(a, "from")
	if err != nil {
		return err
	}
	s.to, err = parseAddr(a, "to")
	if err != nil {
		return err
	}

	if s.kind == IQKind {
		if !IQType(s.typ).Valid() {
			return malformed("invalid iq type "+`"`+s.typ+`"`, nil)
		}
		if s.id == "" {
			return malformed("iq without an id", nil)
		}
	}
	return nil
}

func parseAddr(a []xml.Attr, local string) (jid.JID, error) {
	v, ok := attr.Lookup(a, local)
	if !ok || v == "" {
		return jid.JID{}, nil
	}
	j, err := jid.Parse(v)
	if err != nil {
		return jid.JID{}, malformed("invalid "+local+" address", err)
	}
	return j, nil
}

// Kind returns the variant of the stanza.
func (s *Stanza) Kind() Kind {
	return s.kind
}

// Name returns the name of the root element.
func (s *Stanza) Name() xml.Name {
	return s.el.Name
}

// Type returns the value of the type attribute or the empty string.
func (s *Stanza) Type() string {
	return s.typ
}

// IQType returns the type of an IQ stanza.
func (s *Stanza) IQType() IQType {
	return IQType(s.typ)
}

// PresenceType returns the type of a presence stanza.
func (s *Stanza) PresenceType() PresenceType {
	return PresenceType(s.typ)
}

// MessageType returns the type of a message stanza.
// A message without a type is a normal message.
func (s *Stanza) MessageType() MessageType {
	if s.typ == "" {
		return NormalMessage
	}
	return MessageType(s.typ)
}

// ID returns the stanza id or the empty string.
func (s *Stanza) ID() string {
	return s.id
}

// Lang returns the xml:lang attribute of the stanza or the empty string.
func (s *Stanza) Lang() string {
	return s.lang
}

// StanzaFrom returns the address in the from attribute of the stanza.
func (s *Stanza) StanzaFrom() jid.JID {
	return s.from
}

// StanzaTo returns the address in the to attribute of the stanza.
func (s *Stanza) StanzaTo() jid.JID {
	return s.to
}

// PacketFrom returns the internal address the stanza was received from.
func (s *Stanza) PacketFrom() jid.JID {
	return s.packetFrom
}

// PacketTo returns the internal address the stanza is routed to.
func (s *Stanza) PacketTo() jid.JID {
	return s.packetTo
}

// SetPacketFrom sets the internal address the stanza was received from.
// It does not change the element.
func (s *Stanza) SetPacketFrom(j jid.JID) {
	s.packetFrom = j
}

// SetPacketTo sets the internal address the stanza is routed to.
// It does not change the element.
func (s *Stanza) SetPacketTo(j jid.JID) {
	s.packetTo = j
}

// ErrorPath returns the path of local names at which the <error/> element of
// the stanza is located.
func (s *Stanza) ErrorPath() []string {
	return []string{s.el.Name.Local, "error"}
}

// ChildName returns the local name of the first child element or the empty
// string if the stanza has no child elements.
func (s *Stanza) ChildName() string {
	if c := s.el.FirstChild(); c != nil {
		return c.Name.Local
	}
	return ""
}

// HasChild reports whether the stanza has an immediate child element with the
// given local name.
// If space is not empty the child must also be in that namespace.
func (s *Stanza) HasChild(local, space string) bool {
	return s.el.Child(local, space) != nil
}

// Child returns a copy of the first immediate child element with the given
// local name (and namespace if space is not empty) or nil.
func (s *Stanza) Child(local, space string) *Element {
	return s.el.Child(local, space).Copy()
}

// Payload returns copies of the immediate child elements of the stanza.
func (s *Stanza) Payload() []*Element {
	children := s.el.ChildElements()
	out := make([]*Element, 0, len(children))
	for _, c := range children {
		out = append(out, c.Copy())
	}
	return out
}

// NamespaceAt returns the namespace of the element at path or the empty string
// if no such element exists.
// The first name in path must be the local name of the stanza itself, each
// following name selects the first child element with that local name.
func (s *Stanza) NamespaceAt(path ...string) string {
	key := strings.Join(path, "/")
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.nsCache[key]; ok {
		return v
	}
	var space string
	if el := s.el.Find(path...); el != nil {
		space = el.Name.Space
	}
	if s.nsCache == nil {
		s.nsCache = make(map[string]string)
	}
	s.nsCache[key] = space
	return space
}

// IsServiceDiscovery reports whether the stanza is an IQ carrying a service
// discovery info or items query.
func (s *Stanza) IsServiceDiscovery() bool {
	if s.kind != IQKind {
		return false
	}
	return s.HasChild("query", ns.DiscoInfo) || s.HasChild("query", ns.DiscoItems)
}

// IsCommand reports whether the stanza carries an ad-hoc command.
func (s *Stanza) IsCommand() bool {
	return s.kind == IQKind && s.HasChild("command", ns.Commands)
}

// CommandNode returns the node of the ad-hoc command carried by the stanza or
// the empty string.
func (s *Stanza) CommandNode() string {
	if s.kind != IQKind {
		return ""
	}
	c := s.el.Child("command", ns.Commands)
	if c == nil {
		return ""
	}
	return c.AttrValue("node")
}

func (s *Stanza) invalidate() {
	s.mu.Lock()
	s.nsCache = nil
	s.mu.Unlock()
}

// SetAttr sets an unqualified attribute on the root element and recomputes
// the derived fields.
// If the new value would leave the stanza malformed the stanza is not changed
// and an error is returned.
func (s *Stanza) SetAttr(local, value string) error {
	return s.mutate(func(el *Element) { el.SetAttr(local, value) })
}

// RemoveAttr removes an unqualified attribute from the root element and
// recomputes the derived fields.
func (s *Stanza) RemoveAttr(local string) error {
	return s.mutate(func(el *Element) { el.RemoveAttr(local) })
}

// SetStanzaFrom sets the from attribute of the stanza.
// The zero JID removes the attribute.
func (s *Stanza) SetStanzaFrom(j jid.JID) {
	if j.IsZero() {
		// Removing an attribute can never make a stanza malformed.
		_ = s.RemoveAttr("from")
		return
	}
	s.el.SetAttr("from", j.String())
	s.from = j
	s.invalidate()
}

// SetStanzaTo sets the to attribute of the stanza.
// The zero JID removes the attribute.
func (s *Stanza) SetStanzaTo(j jid.JID) {
	if j.IsZero() {
		_ = s.RemoveAttr("to")
		return
	}
	s.el.SetAttr("to", j.String())
	s.to = j
	s.invalidate()
}

func (s *Stanza) mutate(f func(*Element)) error {
	old := s.el.Attr
	s.el.Attr = append([]xml.Attr(nil), old...)
	f(s.el)
	s.invalidate()
	if err := s.derive(); err != nil {
		s.el.Attr = old
		// The previous attributes were valid so this cannot fail.
		_ = s.derive()
		return err
	}
	return nil
}

// Element returns a deep copy of the element wrapped by the stanza.
func (s *Stanza) Element() *Element {
	return s.el.Copy()
}

// TokenReader satisfies the xmlstream.Marshaler interface.
func (s *Stanza) TokenReader() xml.TokenReader {
	return s.el.TokenReader()
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (s *Stanza) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return s.el.WriteXML(w)
}

// MarshalXML implements xml.Marshaler.
func (s *Stanza) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := s.WriteXML(e)
	return err
}

// String returns the XML encoding of the stanza.
func (s *Stanza) String() string {
	return s.el.String()
}
