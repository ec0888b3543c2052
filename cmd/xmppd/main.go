// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// The xmppd command runs the stanza processing core against a console session.
//
// Stanzas are read from standard input as a sequence of XML elements and
// everything the server sends back is written to standard output, one stanza
// per line.
// Elements without a namespace are read as jabber:client elements.
//
// Usage:
//
//	xmppd serve [--config file] [--jid address] [--metrics]
//	xmppd commands [--config file] [--jid address]
//	xmppd version
package main // import "mellium.im/xmppd/cmd/xmppd"

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Set at build time.
var (
	version   = "devel"
	commit    = "unknown"
	buildDate = "unknown"
)

type rootOptions struct {
	config string
	jid    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "xmppd",
		Short: "XMPP stanza processing core",
		Long: `xmppd routes stanzas through address resolution and dispatch, answering
service discovery and ad-hoc command requests.

Configuration is read from a YAML file and XMPPD_ environment variables.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.config, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.jid, "jid", "", "address bound to the console session (default admin@<domain>/console)")

	root.AddCommand(
		newServeCmd(opts),
		newCommandsCmd(opts),
		newVersionCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
