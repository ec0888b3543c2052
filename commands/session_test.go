// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package commands

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"mellium.im/xmppd/internal/xmpptest"
)

func TestFinalState(t *testing.T) {
	for i, tc := range [...]struct {
		handler func(*Response) error
		want    State
	}{
		0: {
			handler: func(*Response) error { return nil },
			want:    Completed,
		},
		1: {
			handler: func(resp *Response) error {
				resp.Cancel()
				return nil
			},
			want: Canceled,
		},
		2: {
			handler: func(*Response) error { return errors.New("failed") },
			want:    Completed,
		},
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			var (
				m    *Manager
				sess *session
			)
			m = New(Handle(Command{
				Node: "test",
				Handler: HandlerFunc(func(_ context.Context, req Request, resp *Response) error {
					m.smu.Lock()
					sess = m.sessions[req.SessionID]
					m.smu.Unlock()
					return tc.handler(resp)
				}),
			}))
			// Only the final state matters here, not the reply.
			_, _ = m.Execute(context.Background(), xmpptest.MustStanza(`<iq xmlns="jabber:client" type="set" id="1" from="juliet@example.com/balcony" to="example.com"><command xmlns="http://jabber.org/protocol/commands" node="test"/></iq>`))
			if sess == nil {
				t.Fatal("handler never saw its session")
			}
			if sess.state != tc.want {
				t.Errorf("wrong final state: want=%v, got=%v", tc.want, sess.state)
			}
			if !sess.closed {
				t.Error("session was left open")
			}
			if n := m.Len(); n != 0 {
				t.Errorf("wrong number of open sessions: want=0, got=%d", n)
			}
		})
	}
}
