// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package admin contains the commands built in to the server.
package admin // import "mellium.im/xmppd/admin"

import (
	"context"
	"time"

	"mellium.im/xmppd/commands"
	"mellium.im/xmppd/form"
	"mellium.im/xmppd/jid"
	"mellium.im/xmppd/stanza"
)

// Nodes of the built in commands.
const (
	NodeInfo = "x-info"
	NodeEcho = "x-echo"
)

// Stats provides the figures reported by the info command.
type Stats struct {
	Domain  jid.JID
	Started time.Time

	// Clock defaults to the system clock.
	Clock commands.Clock

	// Sessions returns the number of command sessions waiting for their next
	// stage.
	Sessions func() int
}

func (s Stats) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

// Info returns the "Task info" command.
// It completes in a single stage with a form describing the server and is
// available to everyone.
func Info(stats Stats) commands.Command {
	return commands.Command{
		Node: NodeInfo,
		Name: "Task info",
		Handler: commands.HandlerFunc(func(_ context.Context, req commands.Request, resp *commands.Response) error {
			if req.Action == commands.ActionCancel {
				resp.Cancel()
				return nil
			}
			var sessions int
			if stats.Sessions != nil {
				sessions = stats.Sessions()
			}
			uptime := stats.now().Sub(stats.Started).Truncate(time.Second)
			resp.Add(form.New(
				form.Result,
				form.Title("Task info"),
				form.JID("domain", form.Label("Domain"), form.Value(stats.Domain.String())),
				form.Text("uptime", form.Label("Uptime"), form.Value(uptime.String())),
				form.Text("sessions", form.Label("Open command sessions"), form.IntValue(sessions)),
			).Element())
			return nil
		}),
	}
}

// Echo returns the "Echo" command.
// The first stage asks for some text and the second stage completes the
// command by echoing it back.
// Only requesters at adminDomain may discover or execute it.
func Echo(adminDomain string) commands.Command {
	return commands.Command{
		Node: NodeEcho,
		Name: "Echo",
		Allowed: func(requester jid.JID) bool {
			return adminDomain != "" && requester.Domainpart() == adminDomain
		},
		Handler: commands.HandlerFunc(echo),
	}
}

func echoForm() *form.Data {
	return form.New(
		form.Title("Echo"),
		form.Instructions("Enter the text to echo"),
		form.Text("text", form.Label("Text"), form.Required),
	)
}

func echo(_ context.Context, req commands.Request, resp *commands.Response) error {
	if req.Stage == 0 || req.Action == commands.ActionPrev {
		resp.Add(echoForm().Element())
		resp.Continue(nil, commands.Complete.WithDefault(commands.Complete))
		return nil
	}
	submitted, err := form.Parse(req.Form())
	if err != nil {
		return stanza.NewError(stanza.BadRequest, "expected a data form")
	}
	text, ok := submitted.Get("text")
	if !ok || text == "" {
		return stanza.NewError(stanza.NotAcceptable, "missing text")
	}
	resp.Add(form.New(
		form.Result,
		form.Title("Echo"),
		form.Text("text", form.Label("Text"), form.Value(text)),
	).Element())
	resp.AddNote(commands.NoteInfo, text)
	return nil
}
