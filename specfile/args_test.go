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
)

func plainWords(texts ...string) []word {
	words := make([]word, len(texts))
	for i, text := range texts {
		words[i] = word{text: text}
	}
	return words
}

func TestParseArgs(t *testing.T) {
	testCases := []struct {
		name         string
		words        []word
		spec         string
		expectedOpts []option
		expectedArgs []word
	}{
		{
			name:         "positionals only",
			words:        plainWords("a", "b"),
			spec:         "p:isv",
			expectedArgs: plainWords("a", "b"),
		},
		{
			name:         "flag option",
			words:        plainWords("-v", "a"),
			spec:         "p:isv",
			expectedOpts: []option{{flag: 'v'}},
			expectedArgs: plainWords("a"),
		},
		{
			name:         "option with separate value",
			words:        plainWords("-p", "1", "src"),
			spec:         "p:isv",
			expectedOpts: []option{{flag: 'p', value: "1", hasVal: true}},
			expectedArgs: plainWords("src"),
		},
		{
			name:         "option with attached value",
			words:        plainWords("-p1", "src"),
			spec:         "p:isv",
			expectedOpts: []option{{flag: 'p', value: "1", hasVal: true}},
			expectedArgs: plainWords("src"),
		},
		{
			name:         "double dash ends options",
			words:        plainWords("-v", "--", "-p", "x"),
			spec:         "p:isv",
			expectedOpts: []option{{flag: 'v'}},
			expectedArgs: plainWords("-p", "x"),
		},
		{
			name:         "first positional stops option parsing",
			words:        plainWords("a", "-v"),
			spec:         "p:isv",
			expectedArgs: plainWords("a", "-v"),
		},
		{
			name:         "lone dash is positional",
			words:        plainWords("-"),
			spec:         "p:isv",
			expectedArgs: plainWords("-"),
		},
		{
			name:         "empty spec takes no options",
			words:        plainWords("a", "b c"),
			spec:         "",
			expectedArgs: plainWords("a", "b c"),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts, args, err := parseArgs(tc.words, tc.spec)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedOpts, opts)
			assert.Equal(t, tc.expectedArgs, args)
		})
	}
}

func TestParseArgsUnknownOption(t *testing.T) {
	_, _, err := parseArgs(plainWords("-x", "a"), "p:isv")
	var unknown *UnknownOptionError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, byte('x'), unknown.Option)

	// A value option at the end of input has nothing to consume.
	_, _, err = parseArgs(plainWords("-p"), "p:")
	assert.Error(t, err)
}

func TestSplitWords(t *testing.T) {
	testCases := []struct {
		name     string
		parts    []part
		expected []word
	}{
		{
			name:     "whitespace split",
			parts:    []part{{text: " a  b\tc\n"}},
			expected: plainWords("a", "b", "c"),
		},
		{
			name:     "opaque part is one word",
			parts:    []part{{text: "a b", opaque: true}},
			expected: []word{{text: "a b", opaque: true}},
		},
		{
			name:     "opaque glues to adjacent text",
			parts:    []part{{text: "pre"}, {text: "mid dle", opaque: true}, {text: "post x"}},
			expected: []word{{text: "premid dlepost", opaque: true}, {text: "x"}},
		},
		{
			name:     "empty opaque survives as empty word",
			parts:    []part{{text: "", opaque: true}},
			expected: []word{{text: "", opaque: true}},
		},
		{
			name:     "nil input",
			parts:    nil,
			expected: nil,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, splitWords(tc.parts))
		})
	}
}
