// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package criteria contains predicates used to select the module that handles
// a stanza.
//
// Each criteria reports how specific it is so that a dispatcher can try the
// most specific criteria first regardless of the order in which they were
// registered.
// Matching on a child element is weighted more heavily than matching on the
// namespace of that child, which in turn is weighted more heavily than
// matching on the stanza type.
package criteria // import "mellium.im/xmppd/criteria"

import (
	"encoding/xml"
	"strings"

	"mellium.im/xmppd/stanza"
)

// Weights added to the specificity of a Pattern for each constraint.
const (
	ChildWeight     = 8
	NamespaceWeight = 4
	NameWeight      = 2
	TypeWeight      = 1
)

// Criteria is a predicate over stanzas.
type Criteria interface {
	// Match reports whether s satisfies the criteria.
	// It must not modify s.
	Match(s *stanza.Stanza) bool

	// Specificity ranks the criteria against others that may match the same
	// stanza, higher values are tried first.
	Specificity() int
}

// Pattern matches stanzas by the local name of the root element, the type
// attribute, and the presence of an immediate child element.
// Empty fields match anything.
// If Payload.Local is empty no child is required, if only Payload.Space is
// empty a child with the given local name in any namespace matches.
type Pattern struct {
	Name    string
	Type    string
	Payload xml.Name
}

// Name returns a pattern matching every stanza with the given local name.
func Name(local string) Pattern {
	return Pattern{Name: local}
}

// NameType returns a pattern matching every stanza with the given local name
// and type.
func NameType(local, typ string) Pattern {
	return Pattern{Name: local, Type: typ}
}

// Child returns a copy of p that additionally requires an immediate child
// element with the given local name and, if space is not empty, namespace.
func (p Pattern) Child(local, space string) Pattern {
	p.Payload = xml.Name{Space: space, Local: local}
	return p
}

// Match satisfies the Criteria interface.
func (p Pattern) Match(s *stanza.Stanza) bool {
	if p.Name != "" && s.Name().Local != p.Name {
		return false
	}
	if p.Type != "" && s.Type() != p.Type {
		return false
	}
	if p.Payload.Local != "" && !s.HasChild(p.Payload.Local, p.Payload.Space) {
		return false
	}
	return true
}

// Specificity satisfies the Criteria interface.
func (p Pattern) Specificity() int {
	var n int
	if p.Name != "" {
		n += NameWeight
	}
	if p.Payload.Local != "" {
		n += ChildWeight
		if p.Payload.Space != "" {
			n += NamespaceWeight
		}
	}
	if p.Type != "" {
		n += TypeWeight
	}
	return n
}

// String returns a human readable form of the pattern for use in logs.
func (p Pattern) String() string {
	var b strings.Builder
	b.WriteString("<")
	if p.Name == "" {
		b.WriteString("*")
	} else {
		b.WriteString(p.Name)
	}
	if p.Type != "" {
		b.WriteString(` type="` + p.Type + `"`)
	}
	b.WriteString(">")
	if p.Payload.Local != "" {
		b.WriteString("<")
		b.WriteString(p.Payload.Local)
		if p.Payload.Space != "" {
			b.WriteString(` xmlns="` + p.Payload.Space + `"`)
		}
		b.WriteString("/>")
	}
	return b.String()
}

type or []Criteria

// Or returns a criteria that matches if any of c match.
// Its specificity is the lowest specificity of c since it may match any
// stanza that the least specific member matches.
func Or(c ...Criteria) Criteria {
	return or(c)
}

func (o or) Match(s *stanza.Stanza) bool {
	for _, c := range o {
		if c.Match(s) {
			return true
		}
	}
	return false
}

func (o or) Specificity() int {
	if len(o) == 0 {
		return 0
	}
	lowest := o[0].Specificity()
	for _, c := range o[1:] {
		if n := c.Specificity(); n < lowest {
			lowest = n
		}
	}
	return lowest
}

type funcCriteria struct {
	f           func(*stanza.Stanza) bool
	specificity int
}

// Func returns a criteria that calls f to match stanzas and reports the given
// specificity.
func Func(specificity int, f func(*stanza.Stanza) bool) Criteria {
	return funcCriteria{f: f, specificity: specificity}
}

func (c funcCriteria) Match(s *stanza.Stanza) bool { return c.f(s) }
func (c funcCriteria) Specificity() int           { return c.specificity }
