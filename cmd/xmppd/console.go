// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sync"

	"mellium.im/xmppd"
	"mellium.im/xmppd/internal/ns"
	"mellium.im/xmppd/jid"
	"mellium.im/xmppd/stanza"
)

const consoleSession = "console"

var errUnknownSession = errors.New("xmppd: unknown session")

// console is the only session known to the command line server.
// It is always authenticated and bound to addr.
type console struct {
	addr jid.JID
}

func (c console) lookup(id string) error {
	if id != consoleSession {
		return errUnknownSession
	}
	return nil
}

func (c console) BoundFullAddress(id string) (jid.JID, error) {
	if err := c.lookup(id); err != nil {
		return jid.JID{}, err
	}
	if c.addr.IsBare() {
		return jid.JID{}, nil
	}
	return c.addr, nil
}

func (c console) BoundBareAddress(id string) (jid.JID, error) {
	if err := c.lookup(id); err != nil {
		return jid.JID{}, err
	}
	return c.addr.Bare(), nil
}

func (c console) IsAuthenticated(id string) bool {
	return c.lookup(id) == nil
}

// consoleAddr returns the address flag or the default admin address at
// domain.
func consoleAddr(flag, domain string) (jid.JID, error) {
	if flag == "" {
		return jid.New("admin", domain, "console")
	}
	j, err := jid.Parse(flag)
	if err != nil {
		return jid.JID{}, fmt.Errorf("xmppd: bad console address: %w", err)
	}
	return j, nil
}

// writer writes each stanza it is sent on its own line.
type writer struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

func (w *writer) Send(s *stanza.Stanza) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintln(w.w, s.String())
}

func (w *writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// readStanzas decodes elements from r and sends them to in as elements of the
// console session until r is exhausted or ctx is canceled.
func readStanzas(ctx context.Context, r io.Reader, in chan<- xmppd.Inbound) error {
	d := xml.NewDecoder(r)
	d.DefaultSpace = ns.Client
	for {
		el, err := stanza.ReadElement(d)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("xmppd: reading input: %w", err)
		}
		select {
		case in <- xmppd.Inbound{Session: consoleSession, Element: el}:
		case <-ctx.Done():
			return nil
		}
	}
}
