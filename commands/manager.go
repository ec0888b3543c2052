// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package commands

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"mellium.im/xmppd/disco/info"
	"mellium.im/xmppd/disco/items"
	"mellium.im/xmppd/internal/logging"
	"mellium.im/xmppd/internal/ns"
	"mellium.im/xmppd/jid"
	"mellium.im/xmppd/mux"
	"mellium.im/xmppd/stanza"
)

// Manager registers, lists, and executes commands.
//
// Commands may be registered at any time, including while other commands are
// executing.
// Stages of the same session are executed one at a time in the order they
// acquire the session, stages of different sessions run concurrently.
type Manager struct {
	mu   sync.Mutex
	cmds atomic.Pointer[[]Command]

	smu      sync.Mutex
	sessions map[string]*session

	scripts ScriptProvider
	idle    time.Duration
	clock   Clock
	logger  zerolog.Logger
	reg     prometheus.Registerer
	metrics *metrics
}

// New creates a Manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*session),
		clock:    systemClock{},
		logger:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(m)
	}
	m.metrics = newMetrics(m.reg)
	return m
}

func (m *Manager) commands() []Command {
	if c := m.cmds.Load(); c != nil {
		return *c
	}
	return nil
}

// Register adds a command to the Manager.
// Registering a command with a node that is already in use returns
// ErrDuplicateCommand.
func (m *Manager) Register(c Command) error {
	if c.Node == "" {
		return errors.New("commands: command without a node")
	}
	if c.Handler == nil {
		return fmt.Errorf("commands: nil handler for %q", c.Node)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old := m.commands()
	for _, o := range old {
		if o.Node == c.Node {
			return fmt.Errorf("%w: %q", ErrDuplicateCommand, c.Node)
		}
	}
	next := make([]Command, 0, len(old)+1)
	next = append(next, old...)
	next = append(next, c)
	m.cmds.Store(&next)
	return nil
}

func (m *Manager) lookup(node string) (Command, bool) {
	for _, c := range m.commands() {
		if c.Node == node {
			return c, true
		}
	}
	return Command{}, false
}

// Discover returns the commands at target that requester is allowed to
// execute.
// Registered commands are listed first in the order they were registered,
// followed by any commands offered by the script provider.
func (m *Manager) Discover(requester, target jid.JID) []items.Item {
	var out []items.Item
	for _, c := range m.commands() {
		if c.allowed(requester) {
			out = append(out, c.Item(target))
		}
	}
	if m.scripts != nil {
		out = append(out, m.scripts.ListItems(NS, target, requester)...)
	}
	return out
}

// DiscoItems lists the commands as the items of the commands node.
// Other nodes are not known to the Manager.
func (m *Manager) DiscoItems(node string, requester, target jid.JID) ([]items.Item, bool) {
	if node != NS {
		return nil, false
	}
	return m.Discover(requester, target), true
}

// DiscoInfo advertises support for commands on the root node and describes
// each registered command that requester is allowed to execute.
func (m *Manager) DiscoInfo(node string, requester jid.JID) ([]info.Identity, []info.Feature, bool) {
	if node == "" {
		return nil, []info.Feature{{XMLName: xml.Name{Space: info.NS, Local: "feature"}, Var: NS}}, true
	}
	c, ok := m.lookup(node)
	if !ok || !c.allowed(requester) {
		return nil, nil, false
	}
	return []info.Identity{{
			XMLName:  xml.Name{Space: info.NS, Local: "identity"},
			Category: "automation",
			Type:     "command-node",
			Name:     c.Name,
		}}, []info.Feature{
			{XMLName: xml.Name{Space: info.NS, Local: "feature"}, Var: NS},
			{XMLName: xml.Name{Space: info.NS, Local: "feature"}, Var: ns.DataForms},
		}, true
}

// HandleStanza satisfies mux.Handler.
// It executes the command carried by s and sends the replies to out.
func (m *Manager) HandleStanza(ctx context.Context, s *stanza.Stanza, out mux.Sender) error {
	replies, err := m.Execute(ctx, s)
	if err != nil {
		return err
	}
	for _, r := range replies {
		out.Send(r)
	}
	return nil
}

// Execute runs one stage of the command carried by s and returns the replies.
//
// Failures are returned as a stanza.Error that should be sent back to the
// requester.
func (m *Manager) Execute(ctx context.Context, s *stanza.Stanza) ([]*stanza.Stanza, error) {
	if s.Kind() != stanza.IQKind || s.IQType() != stanza.SetIQ {
		return nil, stanza.NewError(stanza.BadRequest, "commands must be sent in an iq of type set")
	}
	cmdEl := s.Child("command", NS)
	if cmdEl == nil {
		return nil, stanza.NewError(stanza.BadRequest, "missing command")
	}
	node := cmdEl.AttrValue("node")
	if node == "" {
		return nil, stanza.NewError(stanza.BadRequest, "missing command node")
	}
	action := Action(cmdEl.AttrValue("action"))
	if action == "" {
		action = ActionExecute
	}
	if !action.Valid() {
		return nil, stanza.NewError(stanza.BadRequest, "unknown action "+string(action))
	}
	requester := s.StanzaFrom()
	logger := logging.FromContext(ctx, m.logger).With().
		Str("node", node).
		Str("action", string(action)).
		Logger()

	cmd, ok := m.lookup(node)
	if !ok {
		if m.scripts != nil {
			var replies []*stanza.Stanza
			if m.scripts.TryExecute(s, func(r *stanza.Stanza) { replies = append(replies, r) }) {
				m.metrics.executed(OutcomeScript)
				return replies, nil
			}
		}
		logger.Debug().Msg("commands: unknown command")
		return nil, stanza.NewError(stanza.ItemNotFound, "")
	}
	if !cmd.allowed(requester) {
		logger.Debug().Stringer("requester", requester).Msg("commands: requester not allowed")
		return nil, stanza.NewError(stanza.Forbidden, "")
	}

	sid := cmdEl.AttrValue("sessionid")
	if action == ActionCancel {
		return m.cancel(ctx, s, cmd, sid)
	}
	if sid == "" && action != ActionExecute {
		return nil, stanza.NewError(stanza.BadRequest, "action "+string(action)+" requires a session")
	}

	var sess *session
	if sid == "" {
		sess = m.open(cmd, requester)
	} else {
		var err error
		sess, err = m.acquire(sid, node, requester)
		if err != nil {
			logger.Debug().Err(err).Str("session", sid).Msg("commands: no such session")
			return nil, stanza.NewError(stanza.ItemNotFound, "")
		}
	}
	defer sess.mu.Unlock()

	req := Request{
		Node:      node,
		Action:    action,
		SessionID: sess.id,
		Stage:     sess.stage,
		From:      requester,
		To:        s.StanzaTo(),
		Payload:   cmdEl.ChildElements(),
		Data:      sess.data,
		Stanza:    s,
	}
	resp := &Response{}
	err := m.run(ctx, cmd, req, resp)
	if err != nil {
		m.close(sess, Completed)
		m.metrics.executed(OutcomeError)
		var se stanza.Error
		if errors.As(err, &se) {
			return nil, se
		}
		var sep *stanza.Error
		if errors.As(err, &sep) && sep != nil {
			return nil, *sep
		}
		logger.Error().Err(err).Str("session", sess.id).Msg("commands: command failed")
		return nil, stanza.NewError(stanza.InternalServerError, "")
	}

	switch resp.Status() {
	case StatusExecuting:
		sess.stage++
		sess.data = resp.data
		sess.lastUse = m.clock.Now()
		m.smu.Lock()
		sess.state = AwaitingNextStage
		m.smu.Unlock()
		m.metrics.executed(OutcomeExecuting)
	case StatusCanceled:
		m.close(sess, Canceled)
		m.metrics.executed(OutcomeCanceled)
	default:
		m.close(sess, Completed)
		m.metrics.executed(OutcomeCompleted)
	}

	result := resp.result(node, sess.id)
	return []*stanza.Stanza{s.Reply(string(stanza.ResultIQ), func(el *stanza.Element) {
		el.AddChild(result.Element())
	})}, nil
}

func (m *Manager) run(ctx context.Context, cmd Command, req Request, resp *Response) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("commands: panic in %q: %v", cmd.Node, r)
		}
	}()
	return cmd.Handler.ExecuteCommand(ctx, req, resp)
}

func (m *Manager) cancel(ctx context.Context, s *stanza.Stanza, cmd Command, sid string) ([]*stanza.Stanza, error) {
	if sid != "" {
		sess, err := m.acquire(sid, cmd.Node, s.StanzaFrom())
		if err != nil {
			return nil, stanza.NewError(stanza.ItemNotFound, "")
		}
		data := sess.data
		m.close(sess, Canceled)
		sess.mu.Unlock()
		if c, ok := cmd.Handler.(Canceler); ok {
			c.CancelCommand(ctx, sid, data)
		}
	}
	m.metrics.executed(OutcomeCanceled)
	result := Result{Node: cmd.Node, SessionID: sid, Status: StatusCanceled}
	return []*stanza.Stanza{s.Reply(string(stanza.ResultIQ), func(el *stanza.Element) {
		el.AddChild(result.Element())
	})}, nil
}

// open creates a new session and returns it locked.
func (m *Manager) open(cmd Command, requester jid.JID) *session {
	sess := &session{
		id:      uuid.NewString(),
		node:    cmd.Node,
		owner:   requester,
		cmd:     cmd,
		state:   Requested,
		lastUse: m.clock.Now(),
	}
	sess.mu.Lock()
	m.smu.Lock()
	m.sessions[sess.id] = sess
	m.smu.Unlock()
	m.metrics.open.Inc()
	return sess
}

// acquire looks up a session and returns it locked.
// The table lock is never held while waiting for the session.
func (m *Manager) acquire(sid, node string, requester jid.JID) (*session, error) {
	m.smu.Lock()
	sess, ok := m.sessions[sid]
	m.smu.Unlock()
	if !ok || !sess.ownedBy(node, requester) {
		return nil, ErrSessionNotFound
	}
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// close ends a session that is locked by the caller.
func (m *Manager) close(sess *session, state State) {
	sess.closed = true
	m.smu.Lock()
	sess.state = state
	delete(m.sessions, sess.id)
	m.smu.Unlock()
	m.metrics.open.Dec()
}

// SessionState reports the state of an open session.
// Sessions that have completed or were canceled are forgotten and ok is
// false.
func (m *Manager) SessionState(id string) (state State, ok bool) {
	m.smu.Lock()
	defer m.smu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return 0, false
	}
	return sess.state, true
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.smu.Lock()
	defer m.smu.Unlock()
	return len(m.sessions)
}

// Waiting returns the number of sessions that are waiting for their next
// stage.
// Sessions with a stage in progress are not counted.
func (m *Manager) Waiting() int {
	m.smu.Lock()
	defer m.smu.Unlock()
	var n int
	for _, sess := range m.sessions {
		if sess.state == AwaitingNextStage {
			n++
		}
	}
	return n
}

// ReapIdle cancels sessions that have been waiting for their next stage for
// longer than the idle timeout and returns how many were reclaimed.
// Sessions with a stage in progress are never reclaimed.
func (m *Manager) ReapIdle(ctx context.Context) int {
	if m.idle <= 0 {
		return 0
	}
	type reaped struct {
		sess *session
		data interface{}
	}
	var gone []reaped
	now := m.clock.Now()

	m.smu.Lock()
	for id, sess := range m.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.state == AwaitingNextStage && now.Sub(sess.lastUse) >= m.idle {
			sess.closed = true
			sess.state = Canceled
			delete(m.sessions, id)
			gone = append(gone, reaped{sess: sess, data: sess.data})
		}
		sess.mu.Unlock()
	}
	m.smu.Unlock()

	logger := logging.FromContext(ctx, m.logger)
	for _, r := range gone {
		m.metrics.open.Dec()
		logger.Debug().Str("session", r.sess.id).Str("node", r.sess.node).Msg("commands: reclaimed idle session")
		if c, ok := r.sess.cmd.Handler.(Canceler); ok {
			c.CancelCommand(ctx, r.sess.id, r.data)
		}
	}
	return len(gone)
}

// Serve reclaims idle sessions periodically until ctx is canceled.
// If no idle timeout is configured Serve only waits for ctx.
func (m *Manager) Serve(ctx context.Context) error {
	if m.idle <= 0 {
		<-ctx.Done()
		return nil
	}
	interval := m.idle / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.ReapIdle(ctx)
		}
	}
}
