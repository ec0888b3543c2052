// Copyright 2017 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza_test

import (
	"strconv"
	"testing"

	"mellium.im/xmppd/internal/xmpptest"
	"mellium.im/xmppd/jid"
	"mellium.im/xmppd/stanza"
)

var errorEncodingTestCases = []xmpptest.EncodingTestCase{
	0: {
		Value: &stanza.Error{Type: stanza.Cancel, Condition: stanza.ItemNotFound},
		XML:   `<error type="cancel"><item-not-found xmlns="urn:ietf:params:xml:ns:xmpp-stanzas"></item-not-found></error>`,
	},
	1: {
		Value: &stanza.Error{
			Type:      stanza.Auth,
			Condition: stanza.Forbidden,
			By:        jid.MustParse("example.net"),
			Text:      "go away",
			Lang:      "en",
		},
		XML: `<error type="auth" by="example.net"><forbidden xmlns="urn:ietf:params:xml:ns:xmpp-stanzas"></forbidden><text xmlns="urn:ietf:params:xml:ns:xmpp-stanzas" xml:lang="en">go away</text></error>`,
	},
	2: {
		NoUnmarshal: true,
		Value:       &stanza.Error{Condition: stanza.BadRequest},
		XML:         `<error type="modify"><bad-request xmlns="urn:ietf:params:xml:ns:xmpp-stanzas"></bad-request></error>`,
	},
	3: {
		NoMarshal: true,
		Value:     &stanza.Error{Type: stanza.Wait, Condition: stanza.ResourceConstraint},
		XML:       `<error type="wait"><foo xmlns="urn:example"/><resource-constraint xmlns="urn:ietf:params:xml:ns:xmpp-stanzas"/></error>`,
	},
}

func TestErrorEncoding(t *testing.T) {
	xmpptest.RunEncodingTests(t, errorEncodingTestCases)
}

func TestErrorString(t *testing.T) {
	for i, tc := range [...]struct {
		err  stanza.Error
		want string
	}{
		0: {err: stanza.Error{Condition: stanza.Conflict}, want: "conflict"},
		1: {err: stanza.Error{Condition: stanza.Conflict, Text: "resource in use"}, want: "resource in use"},
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			if s := tc.err.Error(); s != tc.want {
				t.Errorf("want=%q, got=%q", tc.want, s)
			}
		})
	}
}

func TestDefaultType(t *testing.T) {
	for i, tc := range [...]struct {
		cond stanza.Condition
		typ  stanza.ErrorType
	}{
		0: {stanza.BadRequest, stanza.Modify},
		1: {stanza.Forbidden, stanza.Auth},
		2: {stanza.ItemNotFound, stanza.Cancel},
		3: {stanza.InternalServerError, stanza.Cancel},
		4: {stanza.ResourceConstraint, stanza.Wait},
		5: {stanza.NotAuthorized, stanza.Auth},
		6: {stanza.ServiceUnavailable, stanza.Cancel},
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			if typ := tc.cond.DefaultType(); typ != tc.typ {
				t.Errorf("wrong type for %s: want=%s, got=%s", tc.cond, tc.typ, typ)
			}
			if e := stanza.NewError(tc.cond, ""); e.Type != tc.typ {
				t.Errorf("NewError did not use the default type: got=%s", e.Type)
			}
		})
	}
}
