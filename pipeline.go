// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmppd

import (
	"context"
	"errors"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"mellium.im/xmppd/internal/attr"
	"mellium.im/xmppd/internal/logging"
	"mellium.im/xmppd/jid"
	"mellium.im/xmppd/mux"
	"mellium.im/xmppd/resolve"
	"mellium.im/xmppd/stanza"
)

// Inbound is an element received on a client session.
type Inbound struct {
	// Session identifies the session the element arrived on.
	Session string

	// From is the internal address of the connection, if it is known.
	// If it is zero the resolved stanza address is used.
	From jid.JID

	Element *stanza.Element
}

// Terminator closes sessions that violate the addressing rules.
type Terminator interface {
	Terminate(ctx context.Context, session string, reason error)
}

// The TerminatorFunc type is an adapter to allow the use of ordinary
// functions as a Terminator.
type TerminatorFunc func(ctx context.Context, session string, reason error)

// Terminate calls f(ctx, session, reason).
func (f TerminatorFunc) Terminate(ctx context.Context, session string, reason error) {
	f(ctx, session, reason)
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// Policy sets what happens to stanzas with a from address that does not belong
// to their session.
// The default is MismatchError.
func Policy(policy MismatchPolicy) PipelineOption {
	return func(p *Pipeline) {
		p.policy = policy
	}
}

// WithTerminator sets the Terminator used by the MismatchTerminate policy.
func WithTerminator(t Terminator) PipelineOption {
	return func(p *Pipeline) {
		p.term = t
	}
}

// PipelineLogger sets the logger that per-stanza loggers are derived from.
func PipelineLogger(l zerolog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// Pipeline runs inbound stanzas through parsing, address resolution, and
// dispatch.
type Pipeline struct {
	resolver *resolve.Resolver
	sessions resolve.Sessions
	mux      *mux.ServeMux
	out      mux.Sender
	domain   jid.JID
	policy   MismatchPolicy
	term     Terminator
	logger   zerolog.Logger
}

// NewPipeline creates a pipeline that checks stanzas against sessions,
// dispatches them with m, and passes everything that is generated along the
// way to out.
// Stanzas without a to address are routed to domain.
func NewPipeline(domain jid.JID, sessions resolve.Sessions, m *mux.ServeMux, out mux.Sender, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		resolver: resolve.New(sessions),
		sessions: sessions,
		mux:      m,
		out:      out,
		domain:   domain,
		policy:   MismatchError,
		logger:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process handles a single inbound element.
//
// Malformed stanzas are dropped without a reply.
// Stanzas that fail address resolution are handled according to the mismatch
// policy.
// The returned error reports why a stanza was not dispatched and is meant for
// logging and metrics; it has already been acted on.
func (p *Pipeline) Process(ctx context.Context, in Inbound) error {
	var id string
	if in.Element != nil {
		id = attr.Get(in.Element.Attr, "id")
	}
	ctx = logging.WithStanza(ctx, p.logger, in.Session, id)
	logger := logging.FromContext(ctx, p.logger)

	s, err := stanza.Parse(in.Element)
	if err != nil {
		logger.Debug().Err(err).Msg("pipeline: dropping malformed stanza")
		return err
	}
	s.SetPacketFrom(in.From)

	err = p.resolver.Resolve(s, in.Session)
	var mismatch *resolve.AddressMismatchError
	switch {
	case errors.As(err, &mismatch):
		bound := mismatch.Bound
		if full, ferr := p.sessions.BoundFullAddress(in.Session); ferr == nil && !full.IsZero() {
			bound = full
		}
		if s.PacketFrom().IsZero() {
			s.SetPacketFrom(bound)
		}
		p.mismatch(ctx, s, in.Session, bound, err)
		return err
	case err != nil:
		logger.Warn().Err(err).Msg("pipeline: dropping stanza that could not be resolved")
		return err
	}

	if in.From.IsZero() {
		s.SetPacketFrom(s.StanzaFrom())
	}
	p.Deliver(ctx, s)
	return nil
}

// mismatch applies the mismatch policy to s.
// Error replies go to the address bound to the session, never to the claimed
// one.
func (p *Pipeline) mismatch(ctx context.Context, s *stanza.Stanza, session string, bound jid.JID, err error) {
	logger := logging.FromContext(ctx, p.logger).With().
		Str("policy", string(p.policy)).
		Logger()
	logger.Info().Err(err).Msg("pipeline: sender address mismatch")
	switch p.policy {
	case MismatchError:
		if s.Type() == string(stanza.ErrorIQ) {
			return
		}
		reply := s.ErrorReply(stanza.NewError(stanza.NotAuthorized, ""))
		reply.SetStanzaTo(bound)
		reply.SetStanzaFrom(jid.JID{})
		p.out.Send(reply)
	case MismatchTerminate:
		if p.term == nil {
			logger.Warn().Msg("pipeline: no terminator configured, dropping stanza")
			return
		}
		p.term.Terminate(ctx, session, err)
	}
}

// Deliver dispatches a stanza without resolving its addresses.
// It is used for stanzas generated inside the server.
// If the stanza has no internal destination it is routed by its to address,
// or to the server domain.
func (p *Pipeline) Deliver(ctx context.Context, s *stanza.Stanza) {
	if s.PacketTo().IsZero() {
		to := s.StanzaTo()
		if to.IsZero() {
			to = p.domain
		}
		s.SetPacketTo(to)
	}
	p.mux.Dispatch(ctx, s, p.out)
}

// Serve processes elements from in with the given number of workers until in
// is closed or ctx is canceled.
// Elements from the same session are always handled by the same worker, in
// the order they were received.
func (p *Pipeline) Serve(ctx context.Context, in <-chan Inbound, workers int) error {
	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	queues := make([]chan Inbound, workers)
	for i := range queues {
		q := make(chan Inbound)
		queues[i] = q
		g.Go(func() error {
			for msg := range q {
				// Failures have already been logged and acted upon.
				_ = p.Process(ctx, msg)
			}
			return nil
		})
	}
	g.Go(func() error {
		defer func() {
			for _, q := range queues {
				close(q)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return nil
			case msg, ok := <-in:
				if !ok {
					return nil
				}
				q := queues[xxhash.Sum64String(msg.Session)%uint64(workers)]
				select {
				case q <- msg:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return g.Wait()
}
