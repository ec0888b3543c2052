// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpptest

import (
	"encoding/xml"
	"strings"

	"mellium.im/xmppd/stanza"
)

// MustStanza parses s into a stanza and panics on error.
func MustStanza(s string) *stanza.Stanza {
	st, err := stanza.ParseString(s)
	if err != nil {
		panic("xmpptest: bad stanza " + s + ": " + err.Error())
	}
	return st
}

// MustElement parses s into an element and panics on error.
func MustElement(s string) *stanza.Element {
	el, err := stanza.ReadElement(xml.NewDecoder(strings.NewReader(s)))
	if err != nil {
		panic("xmpptest: bad element " + s + ": " + err.Error())
	}
	return el
}
