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

package macrofile

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specware/rpmmacro/macro"
)

func params(s string) *string { return &s }

func definitions(text string, inspec bool) []ParsedDefinition {
	return slices.Collect(SplitDefinitions(text, inspec))
}

func TestBasicDefinitions(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []ParsedDefinition
	}{
		{
			name:     "single definition",
			input:    "%foo bar",
			expected: []ParsedDefinition{{Name: "foo", Body: "bar"}},
		},
		{
			name:  "braces suspend the line terminator",
			input: "%baz bar %{\n foo}\n",
			expected: []ParsedDefinition{
				{Name: "baz", Body: "bar %{\n foo}"},
			},
		},
		{
			name:  "parametric definition",
			input: "%blah(p:) %x %y -p*",
			expected: []ParsedDefinition{
				{Name: "blah", Body: "%x %y -p*", Params: params("p:")},
			},
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name:     "junk lines are skipped until newline",
			input:    "foo %bar baz\nblah\n%recover foo",
			expected: []ParsedDefinition{{Name: "recover", Body: "foo"}},
		},
		{
			name:     "whitespace between percent and name",
			input:    " % bar baz",
			expected: []ParsedDefinition{{Name: "bar", Body: "baz"}},
		},
		{
			name:  "escaped brace does not close the group",
			input: "%foo %{\\}\n}\n",
			expected: []ParsedDefinition{
				{Name: "foo", Body: "%{}\n}"},
			},
		},
		{
			name:  "two definitions",
			input: "%one aaa\n%two bbb\n",
			expected: []ParsedDefinition{
				{Name: "one", Body: "aaa"},
				{Name: "two", Body: "bbb"},
			},
		},
		{
			name:     "continuation keeps the newline in the body",
			input:    "%foo a\\\nb",
			expected: []ParsedDefinition{{Name: "foo", Body: "a\nb"}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, definitions(tc.input, false))
		})
	}
}

func TestInspecDefinitions(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []ParsedDefinition
	}{
		{
			name:     "body on the continued line",
			input:    "%foo \\\n%bar",
			expected: []ParsedDefinition{{Name: "foo", Body: "\n%bar"}},
		},
		{
			name:     "parametric with continued body",
			input:    "%blah() \\\nnewline",
			expected: []ParsedDefinition{{Name: "blah", Body: "\nnewline", Params: params("")}},
		},
		{
			name:     "plain body",
			input:    "% abc foo",
			expected: []ParsedDefinition{{Name: "abc", Body: "foo"}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, definitions(tc.input, true))
		})
	}
}

func TestParseIntoRegistry(t *testing.T) {
	reg := macro.NewRegistry()
	Parse("%foo bar\n%blah(p:) body\n", reg, false)

	assert.Equal(t, "bar", reg.Value("foo", ""))
	m, ok := reg.Get("blah")
	require.True(t, ok)
	assert.True(t, m.Parametric())
	assert.Equal(t, "p:", *m.Params())
}

// Invalid names (too short, leading digit) are silently skipped when
// reading macro files.
func TestParseSkipsInvalidNames(t *testing.T) {
	reg := macro.NewRegistry()
	Parse("%x y\n%1bad z\n%good value\n", reg, false)

	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, "value", reg.Value("good", ""))
}
