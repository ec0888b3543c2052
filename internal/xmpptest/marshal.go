// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpptest

import (
	"encoding/xml"
	"errors"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"mellium.im/xmlstream"

	"mellium.im/xmppd/jid"
)

// CmpOptions are the comparison options used by the helpers in this package.
// JIDs are compared with their Equal method.
var CmpOptions = []cmp.Option{
	cmp.Comparer(func(a, b jid.JID) bool { return a.Equal(b) }),
}

// EncodingTestCase is a test that marshals the value and checks that the result
// matches XML, then unmarshals XML into a new zero value of the type in value
// and checks that it matches the original value.
// If NoMarshal or NoUnmarshal is set then the corresponding part of the test is
// not run (for payloads that are not roundtrippable).
type EncodingTestCase struct {
	Value       interface{}
	XML         string
	Err         error
	NoMarshal   bool
	NoUnmarshal bool
}

// RunEncodingTests iterates over the test cases and runs each one.
func RunEncodingTests(t *testing.T, testCases []EncodingTestCase) {
	t.Helper()
	for i, tc := range testCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			if !tc.NoMarshal {
				t.Run("marshal", func(t *testing.T) {
					x, err := xml.Marshal(tc.Value)
					if !errors.Is(err, tc.Err) {
						t.Fatalf("unexpected error: want=%v, got=%v", tc.Err, err)
					}
					if out := string(x); out != tc.XML {
						t.Fatalf("unexpected output:\nwant=%q,\n got=%q", tc.XML, out)
					}
				})
			}
			if !tc.NoUnmarshal {
				t.Run("unmarshal", func(t *testing.T) {
					valType := reflect.TypeOf(tc.Value).Elem()
					newVal := reflect.New(valType).Interface()
					err := xml.Unmarshal([]byte(tc.XML), newVal)
					if !errors.Is(err, tc.Err) {
						t.Fatalf("unexpected error: want=%v, got=%v", tc.Err, err)
					}
					if diff := cmp.Diff(tc.Value, newVal, CmpOptions...); diff != "" {
						t.Fatalf("unexpected value (-want +got):\n%s", diff)
					}
				})
			}
		})
	}
}

// Marshal encodes m and returns the resulting XML.
// Errors are reported on t.
func Marshal(t testing.TB, m xmlstream.Marshaler) string {
	t.Helper()
	var b strings.Builder
	e := xml.NewEncoder(&b)
	if _, err := xmlstream.Copy(e, m.TokenReader()); err != nil {
		t.Fatalf("error encoding: %v", err)
	}
	if err := e.Flush(); err != nil {
		t.Fatalf("error flushing: %v", err)
	}
	return b.String()
}
