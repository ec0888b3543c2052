// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"encoding/xml"

	"mellium.im/xmlstream"
	"mellium.im/xmppd/internal/attr"
	"mellium.im/xmppd/internal/ns"
	"mellium.im/xmppd/jid"
)

// ErrorType is the type of an stanza error payloads.
// It should normally be one of the constants defined in this package.
type ErrorType string

const (
	// Cancel indicates that the error cannot be remedied and the operation should
	// not be retried.
	Cancel ErrorType = "cancel"

	// Auth indicates that an operation should be retried after providing
	// credentials.
	Auth ErrorType = "auth"

	// Continue indicates that the operation can proceed (the condition was only a
	// warning).
	Continue ErrorType = "continue"

	// Modify indicates that the operation can be retried after changing the data
	// sent.
	Modify ErrorType = "modify"

	// Wait is indicates that an error is temporary and may be retried.
	Wait ErrorType = "wait"
)

// Condition represents a more specific stanza error condition that can be
// encapsulated by an <error/> element.
type Condition string

// A list of stanza error conditions defined in RFC 6120 §8.3.3
const (
	// The stanza does not conform to the schema or cannot be processed.
	BadRequest Condition = "bad-request"

	// A resource with the same name or address already exists.
	Conflict Condition = "conflict"

	// The feature is not implemented by the recipient or an intermediate server.
	FeatureNotImplemented Condition = "feature-not-implemented"

	// The requesting entity does not have the necessary permissions.
	Forbidden Condition = "forbidden"

	// The recipient can no longer be contacted at this address.
	Gone Condition = "gone"

	// The server experienced a misconfiguration or other internal error.
	InternalServerError Condition = "internal-server-error"

	// The addressed JID or requested item cannot be found.
	//
	// ItemNotFound must not be returned if doing so would leak the network
	// availability of the intended recipient, use ServiceUnavailable instead.
	ItemNotFound Condition = "item-not-found"

	// The sender provided or communicated an address that is not a valid JID.
	JIDMalformed Condition = "jid-malformed"

	// The request does not meet criteria defined by the recipient or server.
	NotAcceptable Condition = "not-acceptable"

	// The recipient or server does not allow any entity to perform the action.
	NotAllowed Condition = "not-allowed"

	// The sender needs to provide credentials or provided improper credentials.
	NotAuthorized Condition = "not-authorized"

	// The entity has violated some local service policy.
	PolicyViolation Condition = "policy-violation"

	// The intended recipient is temporarily unavailable.
	RecipientUnavailable Condition = "recipient-unavailable"

	// Requests for this information are being redirected to another entity.
	Redirect Condition = "redirect"

	// Prior registration is necessary to access the service.
	RegistrationRequired Condition = "registration-required"

	// A remote server specified as part of the recipient address does not
	// exist or cannot be resolved.
	RemoteServerNotFound Condition = "remote-server-not-found"

	// A remote server was resolved but communication could not be established
	// in time.
	RemoteServerTimeout Condition = "remote-server-timeout"

	// The server or recipient lacks the resources necessary to service the
	// request.
	ResourceConstraint Condition = "resource-constraint"

	// The server or recipient does not currently provide the requested service.
	ServiceUnavailable Condition = "service-unavailable"

	// A prior subscription is necessary to access the service.
	SubscriptionRequired Condition = "subscription-required"

	// The condition is not one of those defined by the other conditions in this
	// list and should only be used with an application specific condition.
	UndefinedCondition Condition = "undefined-condition"

	// The request was understood but was not expected at this time.
	UnexpectedRequest Condition = "unexpected-request"
)

// DefaultType returns the error type recommended for the condition.
func (c Condition) DefaultType() ErrorType {
	switch c {
	case BadRequest, JIDMalformed, NotAcceptable, PolicyViolation, Redirect:
		return Modify
	case Forbidden, NotAuthorized, RegistrationRequired, SubscriptionRequired:
		return Auth
	case RecipientUnavailable, RemoteServerTimeout, ResourceConstraint, UnexpectedRequest:
		return Wait
	}
	return Cancel
}

// Error is an implementation of error intended to be marshalable and
// unmarshalable as XML.
//
// An Error returned by a stanza handler is turned into an error reply to the
// sender of the stanza being handled.
type Error struct {
	Type      ErrorType
	Condition Condition
	By        jid.JID
	Text      string
	Lang      string
}

// NewError returns an error with the given condition and its default type.
func NewError(cond Condition, text string) Error {
	return Error{Type: cond.DefaultType(), Condition: cond, Text: text}
}

// Error satisfies the error interface by returning the text if set or the
// condition.
func (se Error) Error() string {
	if se.Text != "" {
		return se.Text
	}
	return string(se.Condition)
}

func (se Error) errType() ErrorType {
	if se.Type != "" {
		return se.Type
	}
	return se.Condition.DefaultType()
}

// Element returns the <error/> element representing se.
// The error element itself is left in the namespace of the enclosing stanza.
func (se Error) Element() *Element {
	el := NewElement(xml.Name{Local: "error"}, xml.Attr{
		Name: xml.Name{Local: "type"}, Value: string(se.errType()),
	})
	if !se.By.IsZero() {
		el.SetAttr("by", se.By.String())
	}
	cond := se.Condition
	if cond == "" {
		cond = UndefinedCondition
	}
	el.AddChild(NewElement(xml.Name{Space: ns.Stanza, Local: string(cond)}))
	if se.Text != "" {
		var attrs []xml.Attr
		// xml:lang attribute is optional, don't include it if it's empty.
		if se.Lang != "" {
			attrs = []xml.Attr{{
				Name:  xml.Name{Space: ns.XML, Local: "lang"},
				Value: se.Lang,
			}}
		}
		text := NewElement(xml.Name{Space: ns.Stanza, Local: "text"}, attrs...)
		text.AddChild(CharData(se.Text))
		el.AddChild(text)
	}
	return el
}

// TokenReader satisfies the xmlstream.Marshaler interface for Error.
func (se Error) TokenReader() xml.TokenReader {
	return se.Element().TokenReader()
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (se Error) WriteXML(w xmlstream.TokenWriter) (n int, err error) {
	return xmlstream.Copy(w, se.TokenReader())
}

// MarshalXML satisfies the xml.Marshaler interface for Error.
func (se Error) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := se.WriteXML(e)
	return err
}

// UnmarshalXML satisfies the xml.Unmarshaler interface for Error.
func (se *Error) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	el, err := DecodeElement(d, start)
	if err != nil {
		return err
	}
	decoded, err := errorFromElement(el)
	if err != nil {
		return err
	}
	*se = decoded
	return nil
}

func errorFromElement(el *Element) (Error, error) {
	se := Error{
		Type: ErrorType(attr.Get(el.Attr, "type")),
	}
	if by := attr.Get(el.Attr, "by"); by != "" {
		j, err := jid.Parse(by)
		if err != nil {
			return Error{}, err
		}
		se.By = j
	}
	for _, c := range el.ChildElements() {
		if c.Name.Space != ns.Stanza {
			continue
		}
		if c.Name.Local == "text" {
			se.Text = c.Text()
			for _, a := range c.Attr {
				if a.Name.Space == ns.XML && a.Name.Local == "lang" {
					se.Lang = a.Value
				}
			}
			continue
		}
		if se.Condition == "" {
			se.Condition = Condition(c.Name.Local)
		}
	}
	return se, nil
}
