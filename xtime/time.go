// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package xtime implements time related XMPP functionality.
//
// In particular, this package implements XEP-0202: Entity Time and XEP-0082:
// XMPP Date and Time Profiles.
package xtime // import "mellium.im/xmppd/xtime"

import (
	"context"
	"encoding/xml"
	"time"

	"mellium.im/xmlstream"
	"mellium.im/xmppd/criteria"
	"mellium.im/xmppd/mux"
	"mellium.im/xmppd/stanza"
)

const (
	// NS is the XML namespace used by XMPP entity time requests.
	// It is provided as a convenience.
	NS = "urn:xmpp:time"

	// LegacyDateTime implements the legacy profile mentioned in XEP-0082.
	//
	// Unless you are implementing an older XEP that specifically calls for this
	// format, time.RFC3339 should be used instead.
	LegacyDateTime = "20060102T15:04:05"
)

const tzd = "Z07:00"

// Criteria matches entity time requests.
var Criteria = criteria.NameType("iq", string(stanza.GetIQ)).Child("time", NS)

// Time is like a time.Time but it can be marshaled as an XEP-0202 time payload.
type Time time.Time

// Element returns the time payload.
func (t Time) Element() *stanza.Element {
	tt := time.Time(t)
	return stanza.NewElement(xml.Name{Space: NS, Local: "time"}).AddChild(
		stanza.TextElement(xml.Name{Space: NS, Local: "tzo"}, tt.Format(tzd)),
		stanza.TextElement(xml.Name{Space: NS, Local: "utc"}, tt.UTC().Format(time.RFC3339)),
	)
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (t Time) WriteXML(w xmlstream.TokenWriter) (n int, err error) {
	return xmlstream.Copy(w, t.TokenReader())
}

// TokenReader satisfies the xmlstream.Marshaler interface.
func (t Time) TokenReader() xml.TokenReader {
	return t.Element().TokenReader()
}

// MarshalXML implements xml.Marshaler.
func (t Time) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := t.WriteXML(e)
	return err
}

// UnmarshalXML implements xml.Unmarshaler.
func (t *Time) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	data := struct {
		XMLName xml.Name `xml:"urn:xmpp:time time"`

		Timezone string `xml:"tzo"`
		UTC      string `xml:"utc"`
	}{}
	err := d.DecodeElement(&data, &start)
	if err != nil {
		return err
	}
	return t.set(data.Timezone, data.UTC)
}

func (t *Time) set(tzo, utc string) error {
	zone, err := time.Parse(tzd, tzo)
	if err != nil {
		return err
	}
	utcTime, err := time.Parse(time.RFC3339, utc)
	if err != nil {
		return err
	}
	*t = Time(utcTime.In(zone.Location()))
	return nil
}

// Parse returns the time carried by the result s.
func Parse(s *stanza.Stanza) (time.Time, error) {
	el := s.Child("time", NS)
	if el == nil {
		return time.Time{}, &stanza.MalformedError{Reason: "no time payload"}
	}
	var tzo, utc string
	if c := el.Child("tzo", NS); c != nil {
		tzo = c.Text()
	}
	if c := el.Child("utc", NS); c != nil {
		utc = c.Text()
	}
	var t Time
	if err := t.set(tzo, utc); err != nil {
		return time.Time{}, &stanza.MalformedError{Reason: "bad time payload", Err: err}
	}
	return time.Time(t), nil
}

// Handler responds to requests for our time.
// If TimeFunc is nil, time.Now is used.
type Handler struct {
	TimeFunc func() time.Time
}

// HandleStanza implements mux.Handler.
func (h Handler) HandleStanza(_ context.Context, s *stanza.Stanza, out mux.Sender) error {
	now := time.Now
	if h.TimeFunc != nil {
		now = h.TimeFunc
	}
	out.Send(s.Reply(string(stanza.ResultIQ), func(el *stanza.Element) {
		el.AddChild(Time(now()).Element())
	}))
	return nil
}
