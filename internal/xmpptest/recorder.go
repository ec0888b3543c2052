// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpptest

import (
	"sync"

	"mellium.im/xmppd/stanza"
)

// Recorder is an output sink that keeps every stanza sent to it.
// It is safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	sent []*stanza.Stanza
}

// Send records s.
func (r *Recorder) Send(s *stanza.Stanza) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, s)
}

// Sent returns the stanzas recorded so far in the order they were sent.
func (r *Recorder) Sent() []*stanza.Stanza {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*stanza.Stanza, len(r.sent))
	copy(out, r.sent)
	return out
}

// Len returns the number of recorded stanzas.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

// Reset forgets all recorded stanzas.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
