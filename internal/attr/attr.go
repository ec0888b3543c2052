// Copyright 2017 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package attr contains helpers for working with XML attributes.
package attr // import "mellium.im/xmppd/internal/attr"

import (
	"encoding/xml"
)

// Get returns the value of the first unqualified attribute with the provided
// local name from a list of attributes or an empty string if no such attribute
// exists.
// Attributes in a namespace (such as xml:lang) are never matched.
func Get(attr []xml.Attr, local string) string {
	v, _ := Lookup(attr, local)
	return v
}

// Lookup is like Get but reports whether the attribute was present.
func Lookup(attr []xml.Attr, local string) (string, bool) {
	for _, a := range attr {
		if a.Name.Space == "" && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// Set returns attr with the value of the unqualified attribute local replaced,
// or appended if it was not already present.
func Set(attr []xml.Attr, local, value string) []xml.Attr {
	for i, a := range attr {
		if a.Name.Space == "" && a.Name.Local == local {
			attr[i].Value = value
			return attr
		}
	}
	return append(attr, xml.Attr{Name: xml.Name{Local: local}, Value: value})
}

// Remove returns attr without any unqualified attribute named local.
func Remove(attr []xml.Attr, local string) []xml.Attr {
	out := attr[:0]
	for _, a := range attr {
		if a.Name.Space == "" && a.Name.Local == local {
			continue
		}
		out = append(out, a)
	}
	return out
}
