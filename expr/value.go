// Copyright 2025 Specware Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package expr parses and evaluates the RPM expression sublanguage used by
// %[...] groups and %if conditions: integer and string arithmetic,
// comparisons, short-circuiting boolean operators, the ternary operator, and
// v"..." version comparisons following RPM EVR rules.
package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the value variants of the expression language.
type Kind int

const (
	KindInt Kind = iota
	KindString
	KindVersion
)

// Value is the result of evaluating an expression or one of its operands.
type Value struct {
	Kind Kind
	Int  int64
	Str  string // set for KindString and KindVersion
}

// IntValue wraps an integer.
func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// VersionValue wraps an EVR version string.
func VersionValue(s string) Value { return Value{Kind: KindVersion, Str: s} }

// Truthy reports whether the value counts as true: nonzero integers, and
// strings other than "" and "0".
func (v Value) Truthy() bool {
	if v.Kind == KindInt {
		return v.Int != 0
	}
	return v.Str != "" && v.Str != "0"
}

// String renders the value the way the expander emits it back into the
// document.
func (v Value) String() string {
	if v.Kind == KindInt {
		return strconv.FormatInt(v.Int, 10)
	}
	return v.Str
}

// SyntaxError reports a malformed expression or an operation applied to
// operands of the wrong type. Inside %[...] the expander demotes it to
// literal passthrough; from %if it surfaces to the caller.
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("expression error: %s", e.Msg)
}

func syntaxErrorf(format string, args ...any) error {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...)}
}

// ExpandFunc expands macro references in an operand before the operand value
// is used. It runs lazily at evaluation time, so skipped branches of &&, ||
// and ?: never expand (and never trigger side effects).
type ExpandFunc func(string) (string, error)

// asInt coerces a value to an integer the way RPM does for numeric contexts:
// empty strings count as 0, decimal strings convert, anything else fails.
func asInt(v Value) (int64, error) {
	switch v.Kind {
	case KindInt:
		return v.Int, nil
	default:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return 0, nil
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, syntaxErrorf("%q is not a number", v.Str)
		}
		return i, nil
	}
}
