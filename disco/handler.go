// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package disco

import (
	"context"
	"encoding/xml"

	"github.com/rs/zerolog"

	"mellium.im/xmppd/disco/info"
	"mellium.im/xmppd/internal/logging"
	"mellium.im/xmppd/jid"
	"mellium.im/xmppd/mux"
	"mellium.im/xmppd/stanza"
)

// Option configures a Handler.
type Option func(*Handler)

// Identity returns an option that adds an identity to the root node.
func Identity(i info.Identity) Option {
	return func(h *Handler) {
		h.identities = append(h.identities, i)
	}
}

// Feature returns an option that adds a feature to the root node.
func Feature(v string) Option {
	return func(h *Handler) {
		h.features = append(h.features, info.Feature{
			XMLName: xml.Name{Space: NSInfo, Local: "feature"},
			Var:     v,
		})
	}
}

// Provider returns an option that consults p for items and info.
// P should implement ItemsProvider, InfoProvider, or both; otherwise the
// option has no effect.
func Provider(p interface{}) Option {
	return func(h *Handler) {
		if ip, ok := p.(ItemsProvider); ok {
			h.items = append(h.items, ip)
		}
		if ip, ok := p.(InfoProvider); ok {
			h.info = append(h.info, ip)
		}
	}
}

// Logger returns an option that sets the logger used when no logger is
// carried by the context.
func Logger(l zerolog.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// Handler answers service discovery queries.
// The root node always advertises the disco#info and disco#items features.
type Handler struct {
	identities []info.Identity
	features   []info.Feature
	items      []ItemsProvider
	info       []InfoProvider
	logger     zerolog.Logger
}

// New creates a Handler.
func New(opts ...Option) *Handler {
	h := &Handler{logger: zerolog.Nop()}
	Feature(NSInfo)(h)
	Feature(NSItems)(h)
	for _, o := range opts {
		o(h)
	}
	return h
}

// HandleStanza satisfies mux.Handler.
func (h *Handler) HandleStanza(ctx context.Context, s *stanza.Stanza, out mux.Sender) error {
	if s.Kind() != stanza.IQKind || s.IQType() != stanza.GetIQ {
		return stanza.NewError(stanza.BadRequest, "")
	}
	var payload *stanza.Element
	if q := s.Child("query", NSInfo); q != nil {
		i, ok := h.Info(q.AttrValue("node"), s.StanzaFrom())
		if !ok {
			return h.unknown(ctx, q)
		}
		payload = i.Element()
	} else if q := s.Child("query", NSItems); q != nil {
		i, ok := h.Items(q.AttrValue("node"), s.StanzaFrom(), s.StanzaTo())
		if !ok {
			return h.unknown(ctx, q)
		}
		payload = i.Element()
	} else {
		return stanza.NewError(stanza.BadRequest, "")
	}
	out.Send(s.Reply(string(stanza.ResultIQ), func(el *stanza.Element) {
		el.AddChild(payload)
	}))
	return nil
}

func (h *Handler) unknown(ctx context.Context, q *stanza.Element) error {
	logger := logging.FromContext(ctx, h.logger)
	logger.Debug().
		Str("node", q.AttrValue("node")).
		Str("query", q.Name.Space).
		Msg("disco: unknown node")
	return stanza.NewError(stanza.ItemNotFound, "")
}

// Info returns the identities and features of node as seen by requester.
// If no provider knows the node ok is false.
// The root node is always known.
func (h *Handler) Info(node string, requester jid.JID) (result Info, ok bool) {
	result.Node = node
	seen := make(map[string]struct{})
	addFeatures := func(features []info.Feature) {
		for _, f := range features {
			if _, dup := seen[f.Var]; dup {
				continue
			}
			seen[f.Var] = struct{}{}
			result.Features = append(result.Features, f)
		}
	}
	seenID := make(map[string]struct{})
	addIdentities := func(ids []info.Identity) {
		for _, i := range ids {
			key := i.Category + ":" + i.Type + ":" + i.Name + ":" + i.Lang
			if _, dup := seenID[key]; dup {
				continue
			}
			seenID[key] = struct{}{}
			result.Identities = append(result.Identities, i)
		}
	}

	if node == "" {
		ok = true
		addIdentities(h.identities)
		addFeatures(h.features)
	}
	for _, p := range h.info {
		ids, features, known := p.DiscoInfo(node, requester)
		if !known {
			continue
		}
		ok = true
		addIdentities(ids)
		addFeatures(features)
	}
	return result, ok
}

// Items returns the items under node at target as seen by requester.
// If no provider knows the node ok is false.
// The root node is always known.
func (h *Handler) Items(node string, requester, target jid.JID) (result Items, ok bool) {
	result.Node = node
	ok = node == ""
	seen := make(map[string]struct{})
	for _, p := range h.items {
		list, known := p.DiscoItems(node, requester, target)
		if !known {
			continue
		}
		ok = true
		for _, i := range list {
			key := i.JID.String() + "\x00" + i.Node
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			result.Items = append(result.Items, i)
		}
	}
	return result, ok
}
