// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package resolve_test

import (
	"errors"
	"strconv"
	"testing"

	"mellium.im/xmppd/internal/xmpptest"
	"mellium.im/xmppd/jid"
	"mellium.im/xmppd/resolve"
)

var resolveTestCases = [...]struct {
	session string
	in      string
	from    string
	err     error
}{
	0: {
		session: "bound",
		in:      `<message xmlns="jabber:client" to="juliet@example.com"/>`,
		from:    "romeo@example.net/orchard",
	},
	1: {
		session: "bound",
		in:      `<message xmlns="jabber:client" from="romeo@example.net" to="juliet@example.com"/>`,
		from:    "romeo@example.net/orchard",
	},
	2: {
		session: "bound",
		in:      `<message xmlns="jabber:client" from="romeo@example.net/balcony" to="juliet@example.com"/>`,
		from:    "romeo@example.net/orchard",
	},
	3: {
		session: "bound",
		in:      `<message xmlns="jabber:client" from="tybalt@example.net/orchard" to="juliet@example.com"/>`,
		err:     &resolve.AddressMismatchError{},
	},
	4: {
		session: "bound",
		in:      `<message xmlns="jabber:client" from="romeo@example.org/orchard"/>`,
		err:     &resolve.AddressMismatchError{},
	},
	5: {
		session: "bound",
		in:      `<presence xmlns="jabber:client" type="subscribe" to="juliet@example.com"/>`,
		from:    "romeo@example.net",
	},
	6: {
		session: "bound",
		in:      `<presence xmlns="jabber:client" type="subscribed" from="romeo@example.net/orchard" to="juliet@example.com"/>`,
		from:    "romeo@example.net",
	},
	7: {
		session: "bound",
		in:      `<presence xmlns="jabber:client" type="unsubscribe"/>`,
		from:    "romeo@example.net",
	},
	8: {
		session: "bound",
		in:      `<presence xmlns="jabber:client" type="unsubscribed"/>`,
		from:    "romeo@example.net",
	},
	9: {
		session: "bound",
		in:      `<presence xmlns="jabber:client" type="unavailable"/>`,
		from:    "romeo@example.net/orchard",
	},
	10: {
		session: "bound",
		in:      `<presence xmlns="jabber:client"/>`,
		from:    "romeo@example.net/orchard",
	},
	11: {
		session: "bare",
		in:      `<iq xmlns="jabber:client" type="get" id="1"/>`,
		from:    "juliet@example.com",
	},
	12: {
		session: "new",
		in:      `<iq xmlns="jabber:client" type="get" id="1"/>`,
		err:     resolve.ErrNotAuthenticated,
	},
	13: {
		session: "missing",
		in:      `<iq xmlns="jabber:client" type="get" id="1"/>`,
		err:     resolve.ErrNotAuthenticated,
	},
}

func TestResolve(t *testing.T) {
	sessions := xmpptest.NewSessions(
		"bound", "romeo@example.net/orchard",
		"bare", "juliet@example.com",
	)
	sessions.Connect("new")
	r := resolve.New(sessions)

	for i, tc := range resolveTestCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			s := xmpptest.MustStanza(tc.in)
			origFrom := s.StanzaFrom()
			packetFrom := jid.MustParse("c2s.example.net/" + tc.session)
			s.SetPacketFrom(packetFrom)

			err := r.Resolve(s, tc.session)
			switch want := tc.err.(type) {
			case nil:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			case *resolve.AddressMismatchError:
				var mismatch *resolve.AddressMismatchError
				if !errors.As(err, &mismatch) {
					t.Fatalf("expected address mismatch, got %v", err)
				}
				if !mismatch.Claimed.Equal(origFrom) {
					t.Errorf("wrong claimed address: want=%s, got=%s", origFrom, mismatch.Claimed)
				}
				if !s.StanzaFrom().Equal(origFrom) {
					t.Errorf("stanza modified on mismatch: from=%s", s.StanzaFrom())
				}
				return
			default:
				if !errors.Is(err, want) {
					t.Fatalf("unexpected error: want=%v, got=%v", want, err)
				}
				return
			}
			if from := s.StanzaFrom().String(); from != tc.from {
				t.Errorf("wrong from: want=%s, got=%s", tc.from, from)
			}
			if !s.PacketFrom().Equal(packetFrom) {
				t.Errorf("packet from changed: want=%s, got=%s", packetFrom, s.PacketFrom())
			}
		})
	}
}
