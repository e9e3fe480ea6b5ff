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

package specfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specware/rpmmacro/macro"
)

// %dnl consumes the rest of its line including the newline; the curly form
// only swallows its argument.
func TestDnl(t *testing.T) {
	reg := macro.NewRegistry()
	spec := "%dnl %define foo bar\n" +
		"%foo\n" +
		"%dnl bar\n" +
		"%{dnl aaa}after\n"
	assert.Equal(t, "%foo\nafter\n", mustExpandString(t, spec, reg))
	// The commented-out %define never ran.
	assert.False(t, reg.Contains("foo"))
}

// %{len:ARG} measures the argument verbatim; the whitespace form measures
// the first word.
func TestLen(t *testing.T) {
	reg := macro.NewRegistry()
	spec := "%global text  Hello   World\n" +
		"%len %text\n" +
		"%{len:%text}\n" +
		"%{len: %text }\n"
	assert.Equal(t, "5\n13\n15\n", mustExpandString(t, spec, reg))
}

func TestSub(t *testing.T) {
	reg := macro.NewRegistry()
	testCases := []struct {
		input    string
		expected string
	}{
		{"%{sub hello 1 3}", "hel"},
		{"%{sub hello 2 4}", "ell"},
		{"%{sub hello 1 -2}", "hell"},
		{"%{sub hello 3 99}", "llo"},
		// Malformed arguments keep the call literal.
		{"%{sub hello one 3}", "%{sub hello one 3}"},
		{"%{sub hello}", "%{sub hello}"},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, mustExpand(t, tc.input, reg))
		})
	}
}

func TestQuoteAndLen(t *testing.T) {
	reg := macro.NewRegistry()
	assert.Equal(t, "6", mustExpand(t, "%{len:%{quote:a b  c}}", reg))
}

// A quoted value stays one argument through parametric splitting.
func TestQuoteKeepsArgumentsWhole(t *testing.T) {
	reg := macro.NewRegistry()
	require.NoError(t, reg.DefineParametric("count", "%#", ""))
	assert.Equal(t, "1", mustExpand(t, "%count %{quote:a b  c}", reg))
	assert.Equal(t, "3", mustExpand(t, "%count a b  c", reg))
}

func TestGsub(t *testing.T) {
	reg := macro.NewRegistry()
	spec := "%define foo %{quote:hello world. I like you!}\n" +
		"%define bar %{gsub %foo hello hi}\n" +
		"%define baz %{gsub %foo %w+ X}\n" +
		"%bar\n" +
		"%{gsub %foo o X}\n" +
		"%{gsub %foo o X 1}\n" +
		"%{gsub %foo %w X 1}\n" +
		"%{gsub %foo %w+ X}\n" +
		"%{len:%baz}\n" +
		"%{len %baz}\n" +
		"%{gsub %foo %. !}\n" +
		"%{gsub %foo . _}\n"
	expected := "hi world. I like you!\n" +
		"hellX wXrld. I like yXu!\n" +
		"hellX world. I like you!\n" +
		"Xello world. I like you!\n" +
		"X X. X X X!\n" +
		"11\n" +
		"1\n" +
		"hello world! I like you!\n" +
		"________________________\n"
	assert.Equal(t, expected, mustExpandString(t, spec, reg))
}

func TestGsubEmptyReplacement(t *testing.T) {
	reg := macro.NewRegistry()
	assert.Equal(t, "1.1.1-2", mustExpand(t, "%{gsub 666:1.1.1-2 %d+: %{quote:}}", reg))
}

func TestUndefineBuiltin(t *testing.T) {
	reg := macro.NewRegistry()
	require.NoError(t, reg.Define("foo", "v1"))
	require.NoError(t, reg.Define("foo", "v2"))

	// %undefine pops one definition per call and expands to nothing; the
	// line's newline stays.
	assert.Equal(t, "\n", mustExpand(t, "%undefine foo\n", reg))
	assert.Equal(t, "v1", reg.Value("foo", ""))
	mustExpand(t, "%{undefine:foo}", reg)
	assert.False(t, reg.Contains("foo"))
}

func TestExpandBuiltin(t *testing.T) {
	reg := macro.NewRegistry()
	require.NoError(t, reg.Define("foo", "bar"))
	assert.Equal(t, "bar", mustExpand(t, "%{expand:%foo}", reg))
	// Double expansion: %% collapses first, then the reference resolves.
	assert.Equal(t, "bar", mustExpand(t, "%{expand:%%foo}", reg))
}

// Built-ins are suppressed in untaken branches and produce nothing.
func TestBuiltinSuppressed(t *testing.T) {
	reg := macro.NewRegistry()
	require.NoError(t, reg.Define("keepme", "x"))
	assert.Equal(t, "", mustExpand(t, "%if 0\n%{undefine:keepme}\n%endif\n", reg))
	assert.True(t, reg.Contains("keepme"))
}
