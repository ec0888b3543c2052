// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package scripts offers commands described in a definition file.
//
// Script commands are single stage: executing one answers with a completed
// command carrying the note from its definition.
// A definition file looks like this:
//
//	commands:
//	- node: motd
//	  name: Message of the day
//	  note: Welcome!
//	- node: restart
//	  name: Restart
//	  allow: [admin@example.com, ops.example.com]
//	  note: Restart scheduled
//	  note_type: warn
package scripts // import "mellium.im/xmppd/scripts"

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"mellium.im/xmppd/commands"
	"mellium.im/xmppd/disco/items"
	"mellium.im/xmppd/jid"
	"mellium.im/xmppd/stanza"
)

// Definition describes a single script command.
type Definition struct {
	Node string `yaml:"node"`
	Name string `yaml:"name"`

	// Allow lists the bare addresses and domains allowed to execute the
	// command.
	// An empty list allows everyone.
	Allow []string `yaml:"allow"`

	Note     string `yaml:"note"`
	NoteType string `yaml:"note_type"`
}

type file struct {
	Commands []Definition `yaml:"commands"`
}

type script struct {
	def      Definition
	allow    []jid.JID
	noteType commands.NoteType
}

func (s script) allowed(requester jid.JID) bool {
	if len(s.allow) == 0 {
		return true
	}
	bare := requester.Bare()
	for _, a := range s.allow {
		if a.Localpart() == "" {
			if a.Equal(requester.Domain()) {
				return true
			}
			continue
		}
		if a.Equal(bare) {
			return true
		}
	}
	return false
}

// Provider implements commands.ScriptProvider for a fixed set of
// definitions.
type Provider struct {
	scripts []script
}

// New validates the definitions and returns a provider offering them.
func New(defs ...Definition) (*Provider, error) {
	p := &Provider{}
	seen := make(map[string]struct{}, len(defs))
	for i, d := range defs {
		if d.Node == "" {
			return nil, fmt.Errorf("scripts: definition %d has no node", i)
		}
		if _, dup := seen[d.Node]; dup {
			return nil, fmt.Errorf("scripts: node %q defined twice", d.Node)
		}
		seen[d.Node] = struct{}{}
		s := script{def: d}
		var err error
		s.noteType, err = commands.ParseNoteType(d.NoteType)
		if err != nil {
			return nil, fmt.Errorf("scripts: node %q: %w", d.Node, err)
		}
		for _, a := range d.Allow {
			j, err := jid.Parse(a)
			if err != nil {
				return nil, fmt.Errorf("scripts: node %q: bad allow entry %q: %w", d.Node, a, err)
			}
			if j.Resourcepart() != "" {
				return nil, fmt.Errorf("scripts: node %q: allow entry %q has a resource", d.Node, a)
			}
			s.allow = append(s.allow, j)
		}
		p.scripts = append(p.scripts, s)
	}
	return p, nil
}

// Load decodes a definition file from r.
// Unknown fields are rejected.
func Load(r io.Reader) (*Provider, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("scripts: decoding definitions: %w", err)
	}
	return New(f.Commands...)
}

// LoadFile decodes the definition file at path.
func LoadFile(path string) (*Provider, error) {
	// #nosec G304 -- the path is provided by the operator
	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scripts: %w", err)
	}
	/* #nosec */
	defer fd.Close()
	return Load(fd)
}

// Len returns the number of script commands.
func (p *Provider) Len() int {
	return len(p.scripts)
}

func (p *Provider) lookup(node string) (script, bool) {
	for _, s := range p.scripts {
		if s.def.Node == node {
			return s, true
		}
	}
	return script{}, false
}

// ListItems returns the script commands that requester may execute.
// Namespaces other than the commands namespace have no items.
func (p *Provider) ListItems(namespace string, target, requester jid.JID) []items.Item {
	if namespace != commands.NS {
		return nil
	}
	var out []items.Item
	for _, s := range p.scripts {
		if !s.allowed(requester) {
			continue
		}
		out = append(out, items.Item{
			XMLName: xml.Name{Space: items.NS, Local: "item"},
			JID:     target,
			Node:    s.def.Node,
			Name:    s.def.Name,
		})
	}
	return out
}

// TryExecute answers the command in s if it names a script command.
func (p *Provider) TryExecute(s *stanza.Stanza, collect commands.Collector) bool {
	sc, ok := p.lookup(s.CommandNode())
	if !ok {
		return false
	}
	if !sc.allowed(s.StanzaFrom()) {
		collect(s.ErrorReply(stanza.NewError(stanza.Forbidden, "")))
		return true
	}
	result := commands.Result{
		Node:      sc.def.Node,
		SessionID: uuid.NewString(),
		Status:    commands.StatusCompleted,
	}
	if cmd := s.Child("command", commands.NS); cmd != nil && commands.Action(cmd.AttrValue("action")) == commands.ActionCancel {
		result.Status = commands.StatusCanceled
	} else if sc.def.Note != "" {
		result.Notes = []commands.Note{{
			XMLName: xml.Name{Space: commands.NS, Local: "note"},
			Type:    sc.noteType,
			Value:   sc.def.Note,
		}}
	}
	collect(s.Reply(string(stanza.ResultIQ), func(el *stanza.Element) {
		el.AddChild(result.Element())
	}))
	return true
}
