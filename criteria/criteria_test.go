// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package criteria_test

import (
	"strconv"
	"testing"

	"mellium.im/xmppd/criteria"
	"mellium.im/xmppd/internal/ns"
	"mellium.im/xmppd/internal/xmpptest"
	"mellium.im/xmppd/stanza"
)

const (
	cmdSet  = `<iq xmlns="jabber:client" type="set" id="1"><command xmlns="http://jabber.org/protocol/commands" node="x-info"/></iq>`
	pingSet = `<iq xmlns="jabber:client" type="set" id="1"><ping xmlns="urn:xmpp:ping"/></iq>`
	foreign = `<iq xmlns="jabber:client" type="set" id="1"><command xmlns="urn:example"/></iq>`
	getIQ   = `<iq xmlns="jabber:client" type="get" id="1"/>`
	chat    = `<message xmlns="jabber:client" type="chat"><body>hi</body></message>`
)

var commandPattern = criteria.NameType("iq", string(stanza.SetIQ)).Child("command", ns.Commands)

var matchTestCases = [...]struct {
	c     criteria.Criteria
	in    string
	match bool
}{
	0:  {c: criteria.Name("iq"), in: cmdSet, match: true},
	1:  {c: criteria.Name("iq"), in: chat},
	2:  {c: commandPattern, in: cmdSet, match: true},
	3:  {c: commandPattern, in: pingSet},
	4:  {c: commandPattern, in: foreign},
	5:  {c: commandPattern, in: getIQ},
	6:  {c: criteria.Name("iq").Child("command", ""), in: foreign, match: true},
	7:  {c: criteria.NameType("message", "chat"), in: chat, match: true},
	8:  {c: criteria.NameType("message", "normal"), in: chat},
	9:  {c: criteria.Pattern{}, in: chat, match: true},
	10: {c: criteria.Pattern{}.Child("body", ""), in: chat, match: true},
	11: {c: criteria.Or(criteria.Name("message"), criteria.NameType("iq", "get")), in: getIQ, match: true},
	12: {c: criteria.Or(criteria.Name("message"), criteria.NameType("iq", "get")), in: cmdSet},
	13: {c: criteria.Or(), in: cmdSet},
	14: {c: criteria.Func(0, (*stanza.Stanza).IsCommand), in: cmdSet, match: true},
	15: {c: criteria.Func(0, (*stanza.Stanza).IsCommand), in: foreign},
}

func TestMatch(t *testing.T) {
	for i, tc := range matchTestCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			s := xmpptest.MustStanza(tc.in)
			if m := tc.c.Match(s); m != tc.match {
				t.Errorf("wrong match for %v: want=%t, got=%t", tc.c, tc.match, m)
			}
		})
	}
}

func TestSpecificity(t *testing.T) {
	for i, tc := range [...]struct {
		c    criteria.Criteria
		want int
	}{
		0: {c: criteria.Name("iq"), want: 2},
		1: {c: criteria.NameType("iq", "set"), want: 3},
		2: {c: criteria.Name("iq").Child("command", ""), want: 10},
		3: {c: criteria.Name("iq").Child("command", ns.Commands), want: 14},
		4: {c: commandPattern, want: 15},
		5: {c: criteria.Or(commandPattern, criteria.NameType("iq", "get")), want: 3},
		6: {c: criteria.Func(3, nil), want: 3},
		7: {c: criteria.Pattern{Type: "set"}, want: 1},
		8: {c: criteria.Pattern{}.Child("command", ns.Commands), want: 12},
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			if n := tc.c.Specificity(); n != tc.want {
				t.Errorf("wrong specificity: want=%d, got=%d", tc.want, n)
			}
		})
	}
}

func TestNamedOutranksWildcard(t *testing.T) {
	for i, tc := range [...]struct {
		named, wildcard criteria.Pattern
	}{
		0: {named: criteria.Name("iq"), wildcard: criteria.Pattern{Type: "set"}},
		1: {named: criteria.NameType("iq", "set"), wildcard: criteria.Pattern{Type: "set"}},
		2: {named: commandPattern, wildcard: criteria.Pattern{Type: "set"}.Child("command", ns.Commands)},
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			if n, w := tc.named.Specificity(), tc.wildcard.Specificity(); n <= w {
				t.Errorf("%v does not outrank %v: %d <= %d", tc.named, tc.wildcard, n, w)
			}
		})
	}
}

func TestPatternString(t *testing.T) {
	const want = `<iq type="set"><command xmlns="http://jabber.org/protocol/commands"/>`
	if s := commandPattern.String(); s != want {
		t.Errorf("want=%s, got=%s", want, s)
	}
	if s := (criteria.Pattern{}).String(); s != "<*>" {
		t.Errorf("want=<*>, got=%s", s)
	}
}
