// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package commands

import (
	"errors"
	"sync"
	"time"

	"mellium.im/xmppd/jid"
)

//go:generate go run -tags=tools golang.org/x/tools/cmd/stringer -type=State

// State is the lifecycle state of a command session.
type State uint8

// A list of session states.
// Sessions start out Requested while their first stage runs, wait in
// AwaitingNextStage between stages, and end up Completed or Canceled.
const (
	Requested State = iota
	AwaitingNextStage
	Completed
	Canceled
)

// ErrSessionNotFound is returned when a request refers to a session that does
// not exist, has ended, or belongs to another requester or command.
var ErrSessionNotFound = errors.New("commands: session not found")

// ErrDuplicateCommand is returned when registering a command with a node that
// is already in use.
var ErrDuplicateCommand = errors.New("commands: command already registered")

// Clock tells the Manager what time it is.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type session struct {
	id    string
	node  string
	owner jid.JID
	cmd   Command

	// state is guarded by the Manager's session table lock.
	state State

	// mu serializes stages of the session and guards the remaining fields.
	mu      sync.Mutex
	closed  bool
	stage   int
	data    interface{}
	lastUse time.Time
}

func (s *session) ownedBy(node string, requester jid.JID) bool {
	return s.node == node && s.owner.Equal(requester)
}
