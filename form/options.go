// Copyright 2017 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package form

import (
	"strconv"
)

// An Option is used to define the behavior and appearance of a data form.
type Option func(*Data)

// Title sets a form's title.
func Title(s string) Option {
	return func(data *Data) {
		data.Title = s
	}
}

// Instructions adds new textual instructions to the form.
func Instructions(s string) Option {
	return func(data *Data) {
		data.Instructions = s
	}
}

var (
	// Result marks a form as the result type.
	Result Option = result
)

var (
	result Option = func(data *Data) {
		data.Type = TypeResult
	}
)

func addField(typ, v string, o ...FieldOption) Option {
	return func(data *Data) {
		f := Field{Var: v, Type: typ}
		for _, opt := range o {
			opt(&f)
		}
		data.Fields = append(data.Fields, f)
	}
}

// Boolean adds a boolean field.
func Boolean(v string, o ...FieldOption) Option {
	return addField(FieldBoolean, v, o...)
}

// Fixed adds a field of static text.
func Fixed(o ...FieldOption) Option {
	return addField(FieldFixed, "", o...)
}

// Hidden adds a field that is not shown to the user.
func Hidden(v string, o ...FieldOption) Option {
	return addField(FieldHidden, v, o...)
}

// JID adds a field that holds a single address.
func JID(v string, o ...FieldOption) Option {
	return addField(FieldJIDSingle, v, o...)
}

// Text adds a field that holds a single line of text.
func Text(v string, o ...FieldOption) Option {
	return addField(FieldTextSingle, v, o...)
}

// TextMulti adds a field that holds several lines of text.
func TextMulti(v string, o ...FieldOption) Option {
	return addField(FieldTextMulti, v, o...)
}

// A FieldOption is used to define the behavior and appearance of a form
// field.
type FieldOption func(*Field)

var (
	// Required flags the field as required in order for the form to be considered
	// valid.
	Required FieldOption = required
)

var (
	required FieldOption = func(f *Field) {
		f.Required = true
	}
)

// Desc provides a natural-language description of the field, intended for
// presentation in a user-agent (e.g., as a "tool-tip", help button, or
// explanatory text provided near the field).
func Desc(s string) FieldOption {
	return func(f *Field) {
		f.Desc = s
	}
}

// Value defines the default value for the field.
// Multi-valued fields may contain more than one Value.
func Value(s string) FieldOption {
	return func(f *Field) {
		f.Values = append(f.Values, s)
	}
}

// IntValue is like Value for an integer.
func IntValue(i int) FieldOption {
	return Value(strconv.Itoa(i))
}

// Label defines a human-readable name for the field.
func Label(s string) FieldOption {
	return func(f *Field) {
		f.Label = s
	}
}
