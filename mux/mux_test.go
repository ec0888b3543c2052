// Copyright 2017 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package mux_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mellium.im/xmppd/criteria"
	"mellium.im/xmppd/internal/ns"
	"mellium.im/xmppd/internal/xmpptest"
	"mellium.im/xmppd/mux"
	"mellium.im/xmppd/stanza"
)

const (
	cmdSet  = `<iq xmlns="jabber:client" type="set" id="1" from="romeo@example.net/orchard" to="example.net"><command xmlns="http://jabber.org/protocol/commands" node="x-info" action="execute"/></iq>`
	pingGet = `<iq xmlns="jabber:client" type="get" id="1" from="romeo@example.net/orchard" to="example.net"><ping xmlns="urn:xmpp:ping"/></iq>`
	iqSet   = `<iq xmlns="jabber:client" type="set" id="2"><query xmlns="jabber:iq:roster"/></iq>`
	iqErr   = `<iq xmlns="jabber:client" type="error" id="3"><error type="cancel"><item-not-found xmlns="urn:ietf:params:xml:ns:xmpp-stanzas"/></error></iq>`
	iqRes   = `<iq xmlns="jabber:client" type="result" id="4"/>`
	msg     = `<message xmlns="jabber:client" type="chat"><body>hi</body></message>`
)

var commandCriteria = criteria.NameType("iq", "set").Child("command", ns.Commands)

// named returns a handler that records the name of the module that handled
// each stanza.
func named(name string, seen *[]string) mux.HandlerFunc {
	var mu sync.Mutex
	return func(_ context.Context, _ *stanza.Stanza, _ mux.Sender) error {
		mu.Lock()
		defer mu.Unlock()
		*seen = append(*seen, name)
		return nil
	}
}

func TestPrecedence(t *testing.T) {
	var seen []string
	m := mux.New(
		// The generic module is registered first but must not shadow the more
		// specific one.
		mux.HandleFunc("B", criteria.Name("iq"), named("B", &seen)),
		mux.HandleFunc("A", commandCriteria, named("A", &seen)),
		mux.HandleFunc("C", criteria.Name("iq"), named("C", &seen)),
	)
	var out xmpptest.Recorder
	for _, in := range []string{cmdSet, iqSet, pingGet} {
		m.Dispatch(context.Background(), xmpptest.MustStanza(in), &out)
	}
	if diff := cmp.Diff([]string{"A", "B", "B"}, seen); diff != "" {
		t.Errorf("wrong modules (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, m.Modules()); diff != "" {
		t.Errorf("wrong module order (-want +got):\n%s", diff)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output: %v", out.Sent())
	}
}

func TestHandlerLookup(t *testing.T) {
	m := mux.New(mux.HandleFunc("msg", criteria.Name("message"), named("msg", new([]string))))
	for i, tc := range [...]struct {
		in   string
		name string
		ok   bool
	}{
		0: {in: msg, name: "msg", ok: true},
		1: {in: pingGet, name: mux.FallbackName},
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			name, h, ok := m.Handler(xmpptest.MustStanza(tc.in))
			if name != tc.name || ok != tc.ok {
				t.Errorf("wrong lookup: want=(%s, %t), got=(%s, %t)", tc.name, tc.ok, name, ok)
			}
			if h == nil {
				t.Errorf("handler must never be nil")
			}
		})
	}
}

func TestDuplicate(t *testing.T) {
	var seen []string
	m := mux.New(mux.HandleFunc("a", criteria.Name("iq"), named("first", &seen)))
	err := m.Register("a", criteria.Name("iq"), named("second", &seen))
	if !errors.Is(err, mux.ErrDuplicateModule) {
		t.Fatalf("unexpected error: want=%v, got=%v", mux.ErrDuplicateModule, err)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected duplicate Handle to panic")
		}
	}()
	mux.New(
		mux.HandleFunc("a", criteria.Name("iq"), named("first", &seen)),
		mux.HandleFunc("a", criteria.Name("iq"), named("second", &seen)),
	)
}

func TestReplace(t *testing.T) {
	var seen []string
	m := mux.New(
		mux.HandleFunc("a", criteria.Name("iq"), named("first", &seen)),
		mux.HandleFunc("b", criteria.Name("iq"), named("b", &seen)),
		// Options that configure the mux apply before modules are registered.
		mux.AllowReplace(),
	)
	if err := m.Register("a", criteria.Name("iq"), named("second", &seen)); err != nil {
		t.Fatalf("unexpected error replacing module: %v", err)
	}
	m.Dispatch(context.Background(), xmpptest.MustStanza(iqSet), &xmpptest.Recorder{})
	if diff := cmp.Diff([]string{"second"}, seen); diff != "" {
		t.Errorf("replacement did not keep its place (-want +got):\n%s", diff)
	}
}

func TestUnregister(t *testing.T) {
	var seen []string
	m := mux.New(mux.HandleFunc("a", commandCriteria, named("a", &seen)))
	if !m.Unregister("a") {
		t.Fatalf("expected module to be removed")
	}
	if m.Unregister("a") {
		t.Errorf("removing a missing module should report false")
	}
	var out xmpptest.Recorder
	m.Dispatch(context.Background(), xmpptest.MustStanza(cmdSet), &out)
	if len(seen) != 0 {
		t.Errorf("unregistered module was called")
	}
	if out.Len() != 1 {
		t.Errorf("expected fallback reply, got %d stanzas", out.Len())
	}
}

func TestFallback(t *testing.T) {
	for i, tc := range [...]struct {
		in  string
		out string
	}{
		0: {
			in:  pingGet,
			out: `<iq xmlns="jabber:client" type="error" id="1" from="example.net" to="romeo@example.net/orchard"><error xmlns="jabber:client" type="cancel"><service-unavailable xmlns="urn:ietf:params:xml:ns:xmpp-stanzas"></service-unavailable></error></iq>`,
		},
		1: {in: msg},
		2: {in: iqRes},
		3: {in: iqErr},
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			var out xmpptest.Recorder
			mux.New().Dispatch(context.Background(), xmpptest.MustStanza(tc.in), &out)
			sent := out.Sent()
			if tc.out == "" {
				if len(sent) != 0 {
					t.Fatalf("expected no output, got %v", sent)
				}
				return
			}
			if len(sent) != 1 {
				t.Fatalf("expected one reply, got %d", len(sent))
			}
			if s := sent[0].String(); s != tc.out {
				t.Errorf("bad output:\nwant=%s\n got=%s", tc.out, s)
			}
		})
	}
}

func TestCustomFallback(t *testing.T) {
	var seen []string
	m := mux.New(mux.Fallback(named("fb", &seen)))
	m.Dispatch(context.Background(), xmpptest.MustStanza(msg), &xmpptest.Recorder{})
	if diff := cmp.Diff([]string{"fb"}, seen); diff != "" {
		t.Errorf("custom fallback not used (-want +got):\n%s", diff)
	}
}

func TestFaults(t *testing.T) {
	notFound := stanza.NewError(stanza.ItemNotFound, "")
	for i, tc := range [...]struct {
		in   string
		err  error
		cond stanza.Condition
	}{
		0: {in: cmdSet, err: notFound, cond: stanza.ItemNotFound},
		1: {in: cmdSet, err: &stanza.Error{Condition: stanza.Forbidden}, cond: stanza.Forbidden},
		2: {in: cmdSet, err: fmt.Errorf("wrapped: %w", notFound), cond: stanza.ItemNotFound},
		3: {in: cmdSet, err: errors.New("database on fire")},
		4: {in: iqErr, err: notFound},
		5: {in: msg, err: stanza.NewError(stanza.ServiceUnavailable, "")},
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			reg := prometheus.NewRegistry()
			m := mux.New(
				mux.Registerer(reg),
				mux.HandleFunc("all", criteria.Pattern{}, func(context.Context, *stanza.Stanza, mux.Sender) error {
					return tc.err
				}),
			)
			orig := xmpptest.MustStanza(tc.in)
			var out xmpptest.Recorder
			m.Dispatch(context.Background(), orig, &out)

			sent := out.Sent()
			if tc.cond == "" && orig.Kind() != stanza.MessageKind {
				if len(sent) != 0 {
					t.Fatalf("expected the stanza to be dropped, got %v", sent)
				}
				return
			}
			if orig.Kind() == stanza.MessageKind {
				if len(sent) != 1 || sent[0].Type() != "error" {
					t.Fatalf("expected a message error reply, got %v", sent)
				}
				return
			}
			if len(sent) != 1 {
				t.Fatalf("expected one reply, got %d", len(sent))
			}
			reply := sent[0]
			if reply.ID() != orig.ID() {
				t.Errorf("reply id does not match: want=%s, got=%s", orig.ID(), reply.ID())
			}
			if !reply.StanzaTo().Equal(orig.StanzaFrom()) {
				t.Errorf("reply not addressed to the sender: %s", reply.StanzaTo())
			}
			se, ok := reply.StanzaError()
			if !ok || se.Condition != tc.cond {
				t.Errorf("wrong error: want=%s, got=%+v", tc.cond, se)
			}
		})
	}
}

func TestPanicDropped(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := mux.New(
		mux.Registerer(reg),
		mux.HandleFunc("bad", criteria.Pattern{}, func(context.Context, *stanza.Stanza, mux.Sender) error {
			panic("boom")
		}),
	)
	var out xmpptest.Recorder
	m.Dispatch(context.Background(), xmpptest.MustStanza(cmdSet), &out)
	if out.Len() != 0 {
		t.Errorf("panicking module produced output: %v", out.Sent())
	}
	if n, err := testutil.GatherAndCount(reg, "xmppd_mux_dropped_total"); err != nil || n != 1 {
		t.Errorf("expected one drop series, got n=%d err=%v", n, err)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := mux.New(
		mux.Registerer(reg),
		mux.HandleFunc("cmd", commandCriteria, func(context.Context, *stanza.Stanza, mux.Sender) error {
			return stanza.NewError(stanza.Forbidden, "")
		}),
	)
	var out xmpptest.Recorder
	m.Dispatch(context.Background(), xmpptest.MustStanza(cmdSet), &out)
	m.Dispatch(context.Background(), xmpptest.MustStanza(cmdSet), &out)
	m.Dispatch(context.Background(), xmpptest.MustStanza(msg), &out)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	values := make(map[string]float64)
	for _, mf := range mfs {
		for _, metric := range mf.GetMetric() {
			key := mf.GetName()
			for _, l := range metric.GetLabel() {
				key += "/" + l.GetValue()
			}
			values[key] = metric.GetCounter().GetValue()
		}
	}
	want := map[string]float64{
		"xmppd_mux_dispatched_total/cmd":      2,
		"xmppd_mux_dispatched_total/fallback": 1,
		"xmppd_mux_faults_total/forbidden":    2,
		"xmppd_mux_dropped_total/unhandled":   1,
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Errorf("wrong metrics (-want +got):\n%s", diff)
	}
}

func TestConcurrentRegistration(t *testing.T) {
	m := mux.New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			name := "module-" + strconv.Itoa(i)
			if err := m.Register(name, criteria.Name("message"), mux.HandlerFunc(func(context.Context, *stanza.Stanza, mux.Sender) error {
				return nil
			})); err != nil {
				t.Errorf("error registering %s: %v", name, err)
			}
		}(i)
		go func() {
			defer wg.Done()
			m.Dispatch(context.Background(), xmpptest.MustStanza(msg), &xmpptest.Recorder{})
		}()
	}
	wg.Wait()
	if n := len(m.Modules()); n != 8 {
		t.Errorf("wrong number of modules: want=8, got=%d", n)
	}
}
