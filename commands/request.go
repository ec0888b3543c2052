// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package commands

import (
	"mellium.im/xmppd/internal/ns"
	"mellium.im/xmppd/jid"
	"mellium.im/xmppd/stanza"
)

// Action is the action attribute of a command request.
type Action string

// A list of actions a requester may ask for.
// A request without an action is an execute request.
const (
	ActionExecute  Action = "execute"
	ActionCancel   Action = "cancel"
	ActionPrev     Action = "prev"
	ActionNext     Action = "next"
	ActionComplete Action = "complete"
)

// Valid reports whether a is one of the defined actions.
func (a Action) Valid() bool {
	switch a {
	case ActionExecute, ActionCancel, ActionPrev, ActionNext, ActionComplete:
		return true
	}
	return false
}

// Status is the status attribute of a command response.
type Status string

// A list of command statuses.
const (
	StatusExecuting Status = "executing"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// Request is a single stage of a command invocation.
type Request struct {
	Node   string
	Action Action

	// SessionID is set for every stage, including the first.
	SessionID string

	// Stage is the number of stages of the session that have already been
	// executed, it is zero for the first stage.
	Stage int

	// From is the address of the requester and To is the address the command
	// was sent to.
	From jid.JID
	To   jid.JID

	// Payload holds copies of the child elements of the command element, such
	// as submitted data forms.
	Payload []*stanza.Element

	// Data is the value passed to Continue by the previous stage, if any.
	Data interface{}

	// Stanza is the IQ that carried the request.
	Stanza *stanza.Stanza
}

// Form returns the first data form in the payload or nil.
func (r Request) Form() *stanza.Element {
	for _, el := range r.Payload {
		if el.Name.Local == "x" && el.Name.Space == ns.DataForms {
			return el
		}
	}
	return nil
}

// Response is the result of executing a single stage of a command.
type Response struct {
	status  Status
	payload []*stanza.Element
	notes   []Note
	actions Actions
	data    interface{}
}

// Add appends elements to the payload of the response.
func (r *Response) Add(el ...*stanza.Element) {
	r.payload = append(r.payload, el...)
}

// AddNote adds a note to the response.
func (r *Response) AddNote(typ NoteType, text string) {
	r.notes = append(r.notes, Note{Type: typ, Value: text})
}

// Continue keeps the session open after this stage.
// Data is passed to the next stage in Request.Data and actions are advertised
// to the requester as the possible next steps.
func (r *Response) Continue(data interface{}, actions Actions) {
	r.status = StatusExecuting
	r.data = data
	r.actions = actions
}

// Cancel ends the session without completing the command.
func (r *Response) Cancel() {
	r.status = StatusCanceled
}

// Status returns the status the response will be sent with.
func (r *Response) Status() Status {
	if r.status == "" {
		return StatusCompleted
	}
	return r.status
}
