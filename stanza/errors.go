// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

// MalformedError is returned when an element cannot be turned into a stanza.
// Malformed input is never answered on the wire.
type MalformedError struct {
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return "stanza: malformed: " + e.Reason + ": " + e.Err.Error()
	}
	return "stanza: malformed: " + e.Reason
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

func malformed(reason string, err error) *MalformedError {
	return &MalformedError{Reason: reason, Err: err}
}
