// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"mellium.im/xmppd/mux"
	"mellium.im/xmppd/stanza"
)

func newCommandsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the commands available to the console session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			discard := mux.SenderFunc(func(*stanza.Stanza) {})
			srv, _, err := setup(opts, discard, io.Discard, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			addr, err := consoleAddr(opts.jid, srv.Config.Domain)
			if err != nil {
				return err
			}
			list := srv.Commands.Discover(addr, srv.Config.DomainJID())
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NODE\tNAME")
			for _, item := range list {
				fmt.Fprintf(tw, "%s\t%s\n", item.Node, item.Name)
			}
			return tw.Flush()
		},
	}
}
