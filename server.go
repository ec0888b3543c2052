// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmppd

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"mellium.im/xmppd/admin"
	"mellium.im/xmppd/commands"
	"mellium.im/xmppd/disco"
	"mellium.im/xmppd/disco/info"
	"mellium.im/xmppd/mux"
	"mellium.im/xmppd/ping"
	"mellium.im/xmppd/resolve"
	"mellium.im/xmppd/scripts"
	"mellium.im/xmppd/version"
	"mellium.im/xmppd/xtime"
)

// Module names registered on the server mux.
const (
	ModuleCommands = "commands"
	ModuleDisco    = "disco"
	ModulePing     = "ping"
	ModuleVersion  = "version"
	ModuleTime     = "time"
)

// Server ties the stanza processing components together.
type Server struct {
	Config   Config
	Commands *commands.Manager
	Disco    *disco.Handler
	Mux      *mux.ServeMux
	Pipeline *Pipeline

	logger zerolog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	logger     zerolog.Logger
	reg        prometheus.Registerer
	terminator Terminator
	clock      commands.Clock
	version    string
}

// ServerLogger sets the logger used by every component.
func ServerLogger(l zerolog.Logger) ServerOption {
	return func(o *serverOptions) {
		o.logger = l
	}
}

// ServerRegisterer sets the registry that component metrics are registered
// with.
func ServerRegisterer(r prometheus.Registerer) ServerOption {
	return func(o *serverOptions) {
		o.reg = r
	}
}

// ServerTerminator sets the Terminator used by the terminate mismatch policy.
func ServerTerminator(t Terminator) ServerOption {
	return func(o *serverOptions) {
		o.terminator = t
	}
}

// ServerClock replaces the clock used by command sessions and the info
// command.
func ServerClock(c commands.Clock) ServerOption {
	return func(o *serverOptions) {
		o.clock = c
	}
}

// ServerVersion sets the software version reported to version queries.
func ServerVersion(v string) ServerOption {
	return func(o *serverOptions) {
		o.version = v
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// NewServer builds the components described by cfg.
// Stanzas processed by the server are checked against sessions and every
// stanza generated while processing them is passed to out.
func NewServer(cfg Config, sessions resolve.Sessions, out mux.Sender, opts ...ServerOption) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := serverOptions{
		logger: zerolog.Nop(),
		reg:    prometheus.NewRegistry(),
		clock:  systemClock{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	domain := cfg.DomainJID()

	cmdOpts := []commands.Option{
		commands.IdleTimeout(cfg.IdleTimeout),
		commands.WithClock(o.clock),
		commands.Logger(o.logger.With().Str("module", ModuleCommands).Logger()),
		commands.Registerer(o.reg),
	}
	if cfg.Scripts != "" {
		p, err := scripts.LoadFile(cfg.Scripts)
		if err != nil {
			return nil, err
		}
		o.logger.Info().Int("commands", p.Len()).Str("path", cfg.Scripts).Msg("loaded script commands")
		cmdOpts = append(cmdOpts, commands.Scripts(p))
	}
	manager := commands.New(cmdOpts...)

	builtin := []commands.Command{
		admin.Info(admin.Stats{
			Domain:   domain,
			Started:  o.clock.Now(),
			Clock:    o.clock,
			Sessions: manager.Waiting,
		}),
	}
	if cfg.AdminDomain != "" {
		builtin = append(builtin, admin.Echo(cfg.AdminDomain))
	}
	for _, c := range builtin {
		if err := manager.Register(c); err != nil {
			return nil, fmt.Errorf("xmppd: registering command %q: %w", c.Node, err)
		}
	}

	discoHandler := disco.New(
		disco.Identity(info.Server("xmppd")),
		disco.Provider(manager),
		disco.Feature(ping.NS),
		disco.Feature(version.NS),
		disco.Feature(xtime.NS),
		disco.Logger(o.logger.With().Str("module", ModuleDisco).Logger()),
	)

	m := mux.New(
		mux.Handle(ModuleCommands, commands.Criteria, manager),
		mux.Handle(ModuleDisco, disco.Criteria, discoHandler),
		mux.Handle(ModulePing, ping.Criteria, ping.Handler{}),
		mux.Handle(ModuleVersion, version.Criteria, version.Handler(version.Query{
			Name:    "xmppd",
			Version: o.version,
		})),
		mux.Handle(ModuleTime, xtime.Criteria, xtime.Handler{TimeFunc: o.clock.Now}),
		mux.Logger(o.logger),
		mux.Registerer(o.reg),
	)

	pipeOpts := []PipelineOption{
		Policy(cfg.MismatchPolicy),
		PipelineLogger(o.logger),
	}
	if o.terminator != nil {
		pipeOpts = append(pipeOpts, WithTerminator(o.terminator))
	}

	return &Server{
		Config:   cfg,
		Commands: manager,
		Disco:    discoHandler,
		Mux:      m,
		Pipeline: NewPipeline(domain, sessions, m, out, pipeOpts...),
		logger:   o.logger,
	}, nil
}

// Run processes elements from in until it is closed or ctx is canceled.
// Idle command sessions are reaped in the background while it runs.
func (s *Server) Run(ctx context.Context, in <-chan Inbound) error {
	g, ctx := errgroup.WithContext(ctx)
	// The reaper only stops when ctx is done, so the pipeline cancels it once
	// the input is exhausted.
	ctx, cancel := context.WithCancel(ctx)
	g.Go(func() error {
		return s.Commands.Serve(ctx)
	})
	g.Go(func() error {
		defer cancel()
		return s.Pipeline.Serve(ctx, in, s.Config.Workers)
	})
	s.logger.Info().
		Str("domain", s.Config.Domain).
		Int("workers", s.Config.Workers).
		Strs("modules", s.Mux.Modules()).
		Msg("server started")
	err := g.Wait()
	s.logger.Info().Msg("server stopped")
	return err
}
