// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mellium.im/xmppd"
	"mellium.im/xmppd/internal/logging"
	"mellium.im/xmppd/mux"
)

// setup loads the configuration and builds a server bound to the console
// session.
func setup(opts *rootOptions, out mux.Sender, logOut io.Writer, reg prometheus.Registerer) (*xmppd.Server, zerolog.Logger, error) {
	cfg, err := xmppd.LoadConfig(opts.config)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: logOut,
	})
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	addr, err := consoleAddr(opts.jid, cfg.Domain)
	if err != nil {
		return nil, logger, err
	}
	srv, err := xmppd.NewServer(cfg, console{addr: addr}, out,
		xmppd.ServerLogger(logger),
		xmppd.ServerRegisterer(reg),
		xmppd.ServerVersion(version),
	)
	if err != nil {
		return nil, logger, err
	}
	logger.Debug().Str("jid", addr.String()).Msg("console session bound")
	return srv, logger, nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var metrics bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Process stanzas read from standard input",
		Long: `Reads stanzas from standard input as if they were sent by the console
session and writes every stanza the server generates to standard output.

Example:
  echo '<iq type="get" id="1" to="localhost"><query xmlns="http://jabber.org/protocol/disco#info"/></iq>' | xmppd serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			reg := prometheus.NewRegistry()
			out := &writer{w: cmd.OutOrStdout()}
			srv, logger, err := setup(opts, out, cmd.ErrOrStderr(), reg)
			if err != nil {
				return err
			}

			in := make(chan xmppd.Inbound)
			readErr := make(chan error, 1)
			go func() {
				defer close(in)
				readErr <- readStanzas(ctx, cmd.InOrStdin(), in)
			}()
			err = srv.Run(ctx, in)
			select {
			case rerr := <-readErr:
				if err == nil {
					err = rerr
				}
			default:
			}
			if err == nil {
				err = out.Err()
			}
			if err != nil {
				logger.Error().Err(err).Msg("serve failed")
			}
			if metrics {
				if merr := writeMetrics(cmd.ErrOrStderr(), reg); merr != nil && err == nil {
					err = merr
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&metrics, "metrics", false, "write metrics to standard error on exit")
	return cmd
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("xmppd: gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("xmppd: writing metrics: %w", err)
		}
	}
	return nil
}
