// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmppd_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"mellium.im/xmppd"
	"mellium.im/xmppd/criteria"
	"mellium.im/xmppd/disco"
	"mellium.im/xmppd/internal/xmpptest"
	"mellium.im/xmppd/jid"
	"mellium.im/xmppd/mux"
	"mellium.im/xmppd/resolve"
	"mellium.im/xmppd/stanza"
)

type terminated struct {
	mu       sync.Mutex
	sessions []string
}

func (t *terminated) Terminate(_ context.Context, session string, reason error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions = append(t.sessions, session)
}

func discoMux() *mux.ServeMux {
	return mux.New(mux.Handle("disco", disco.Criteria, disco.New()))
}

func TestProcess(t *testing.T) {
	const (
		infoQuery = `<query xmlns="http://jabber.org/protocol/disco#info"/>`
	)
	for i, tc := range [...]struct {
		policy     xmppd.MismatchPolicy
		session    string
		from       string
		in         string
		err        error
		mismatch   bool
		cond       stanza.Condition
		replyTo    string
		replyFrom  string
		packetTo   string
		terminated []string
	}{
		0: {
			session:  "s1",
			in:        `<iq xmlns="jabber:client" type="get" id="1" to="example.com">` + infoQuery + `</iq>`,
			replyTo:   "juliet@example.com/balcony",
			replyFrom: "example.com",
			packetTo:  "juliet@example.com/balcony",
		},
		1: {
			session:  "s1",
			from:     "juliet@example.com/conn-1",
			in:       `<iq xmlns="jabber:client" type="get" id="1" from="juliet@example.com/balcony">` + infoQuery + `</iq>`,
			replyTo:  "juliet@example.com/balcony",
			packetTo: "juliet@example.com/conn-1",
		},
		2: {
			session:  "s1",
			in:       `<iq xmlns="jabber:client" type="get" id="1" from="romeo@example.net/orchard">` + infoQuery + `</iq>`,
			mismatch: true,
			cond:     stanza.NotAuthorized,
			replyTo:  "juliet@example.com/balcony",
			packetTo: "juliet@example.com/balcony",
		},
		3: {
			policy:   xmppd.MismatchDrop,
			session:  "s1",
			in:       `<iq xmlns="jabber:client" type="get" id="1" from="romeo@example.net/orchard">` + infoQuery + `</iq>`,
			mismatch: true,
		},
		4: {
			policy:     xmppd.MismatchTerminate,
			session:    "s1",
			in:         `<iq xmlns="jabber:client" type="get" id="1" from="romeo@example.net/orchard">` + infoQuery + `</iq>`,
			mismatch:   true,
			terminated: []string{"s1"},
		},
		5: {
			// Errors are never answered with errors.
			session:  "s1",
			in:       `<iq xmlns="jabber:client" type="error" id="1" from="romeo@example.net/orchard"/>`,
			mismatch: true,
		},
		6: {
			session: "s1",
			in:      `<iq xmlns="jabber:client" type="get">` + infoQuery + `</iq>`,
			err:     &stanza.MalformedError{},
		},
		7: {
			session: "s2",
			in:      `<iq xmlns="jabber:client" type="get" id="1">` + infoQuery + `</iq>`,
			err:     resolve.ErrNotAuthenticated,
		},
		8: {
			session:  "s1",
			in:       `<iq xmlns="jabber:client" type="get" id="1"><ping xmlns="urn:xmpp:ping"/></iq>`,
			cond:     stanza.ServiceUnavailable,
			replyTo:  "juliet@example.com/balcony",
			packetTo: "juliet@example.com/balcony",
		},
		9: {
			session: "s3",
			in:      `<message xmlns="jabber:client" id="1" to="romeo@example.net"><body>hi</body></message>`,
		},
		10: {
			// Replies to forged messages go to the session, not to either claimed
			// address.
			session:  "s1",
			in:       `<message xmlns="jabber:client" id="1" from="victim@example.net/x" to="bob@example.org"><body>hi</body></message>`,
			mismatch: true,
			cond:     stanza.NotAuthorized,
			replyTo:  "juliet@example.com/balcony",
			packetTo: "juliet@example.com/balcony",
		},
		11: {
			session:  "s3",
			in:       `<message xmlns="jabber:client" id="1" from="victim@example.net/x" to="bob@example.org"><body>hi</body></message>`,
			mismatch: true,
			cond:     stanza.NotAuthorized,
			replyTo:  "juliet@example.com",
			packetTo: "juliet@example.com",
		},
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			sessions := xmpptest.NewSessions(
				"s1", "juliet@example.com/balcony",
				"s3", "juliet@example.com",
			)
			sessions.Connect("s2")
			out := &xmpptest.Recorder{}
			term := &terminated{}
			opts := []xmppd.PipelineOption{xmppd.WithTerminator(term)}
			if tc.policy != "" {
				opts = append(opts, xmppd.Policy(tc.policy))
			}
			p := xmppd.NewPipeline(jid.MustParse("example.com"), sessions, discoMux(), out, opts...)

			in := xmppd.Inbound{Session: tc.session, Element: xmpptest.MustElement(tc.in)}
			if tc.from != "" {
				in.From = jid.MustParse(tc.from)
			}
			err := p.Process(context.Background(), in)

			var mismatchErr *resolve.AddressMismatchError
			switch {
			case tc.mismatch:
				if !errors.As(err, &mismatchErr) {
					t.Fatalf("wrong error: want=address mismatch, got=%v", err)
				}
			case tc.err != nil:
				var malformed *stanza.MalformedError
				if errors.As(tc.err, &malformed) {
					if !errors.As(err, &malformed) {
						t.Fatalf("wrong error: want=malformed stanza, got=%v", err)
					}
				} else if !errors.Is(err, tc.err) {
					t.Fatalf("wrong error: want=%v, got=%v", tc.err, err)
				}
			case err != nil:
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(tc.terminated, term.sessions); diff != "" {
				t.Errorf("wrong terminated sessions (-want +got):\n%s", diff)
			}

			sent := out.Sent()
			if tc.replyTo == "" {
				if len(sent) != 0 {
					t.Fatalf("did not expect a reply, got: %v", sent)
				}
				return
			}
			if len(sent) != 1 {
				t.Fatalf("wrong number of replies: want=1, got=%d", len(sent))
			}
			reply := sent[0]
			if to := reply.StanzaTo().String(); to != tc.replyTo {
				t.Errorf("wrong reply address: want=%s, got=%s", tc.replyTo, to)
			}
			if from := reply.StanzaFrom().String(); from != tc.replyFrom {
				t.Errorf("wrong reply sender: want=%q, got=%q", tc.replyFrom, from)
			}
			if to := reply.PacketTo().String(); to != tc.packetTo {
				t.Errorf("wrong packet address: want=%s, got=%s", tc.packetTo, to)
			}
			se, isErr := reply.StanzaError()
			switch {
			case tc.cond == "" && isErr:
				t.Errorf("unexpected error reply: %s", reply)
			case tc.cond != "" && (!isErr || se.Condition != tc.cond):
				t.Errorf("wrong error condition: want=%s, got=%s", tc.cond, reply)
			}
		})
	}
}

func TestDeliver(t *testing.T) {
	var got []string
	m := mux.New(mux.HandleFunc("message", criteria.Name("message"), func(_ context.Context, s *stanza.Stanza, _ mux.Sender) error {
		got = append(got, s.PacketTo().String())
		return nil
	}))
	p := xmppd.NewPipeline(jid.MustParse("example.com"), xmpptest.NewSessions(), m, &xmpptest.Recorder{})

	p.Deliver(context.Background(), xmpptest.MustStanza(`<message xmlns="jabber:client" id="1" from="example.com"/>`))
	p.Deliver(context.Background(), xmpptest.MustStanza(`<message xmlns="jabber:client" id="2" from="example.com" to="juliet@example.com"/>`))

	want := []string{"example.com", "juliet@example.com"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("wrong routing (-want +got):\n%s", diff)
	}
}

func TestServeOrdering(t *testing.T) {
	defer goleak.VerifyNone(t)

	const (
		sessionCount = 5
		perSession   = 40
	)
	pairs := make([]string, 0, 2*sessionCount)
	for i := 0; i < sessionCount; i++ {
		pairs = append(pairs, "s"+strconv.Itoa(i), fmt.Sprintf("user%d@example.com/res", i))
	}

	var (
		mu  sync.Mutex
		got = make(map[string][]string)
	)
	m := mux.New(mux.HandleFunc("message", criteria.Name("message"), func(_ context.Context, s *stanza.Stanza, _ mux.Sender) error {
		mu.Lock()
		defer mu.Unlock()
		from := s.StanzaFrom().String()
		got[from] = append(got[from], s.ID())
		return nil
	}))
	p := xmppd.NewPipeline(jid.MustParse("example.com"), xmpptest.NewSessions(pairs...), m, &xmpptest.Recorder{})

	in := make(chan xmppd.Inbound)
	errs := make(chan error, 1)
	go func() {
		errs <- p.Serve(context.Background(), in, 3)
	}()

	want := make(map[string][]string)
	for n := 0; n < perSession; n++ {
		for i := 0; i < sessionCount; i++ {
			id := strconv.Itoa(n)
			from := fmt.Sprintf("user%d@example.com/res", i)
			want[from] = append(want[from], id)
			in <- xmppd.Inbound{
				Session: "s" + strconv.Itoa(i),
				Element: xmpptest.MustElement(`<message xmlns="jabber:client" id="` + id + `" to="example.com"/>`),
			}
		}
	}
	close(in)
	if err := <-errs; err != nil {
		t.Fatalf("unexpected error from Serve: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stanzas processed out of order (-want +got):\n%s", diff)
	}
}

func TestServeCanceled(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := xmppd.NewPipeline(jid.MustParse("example.com"), xmpptest.NewSessions(), discoMux(), &xmpptest.Recorder{})
	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		errs <- p.Serve(ctx, make(chan xmppd.Inbound), 2)
	}()
	cancel()
	if err := <-errs; err != nil {
		t.Errorf("unexpected error from Serve: %v", err)
	}
}
