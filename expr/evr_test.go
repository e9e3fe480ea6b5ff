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

package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEVR(t *testing.T) {
	testCases := []struct {
		input    string
		expected EVR
	}{
		{"1.0", EVR{Epoch: 0, Version: "1.0"}},
		{"2:1.0", EVR{Epoch: 2, Version: "1.0"}},
		{"1.0-3", EVR{Epoch: 0, Version: "1.0", Release: "3"}},
		{"666:1.1.1-2", EVR{Epoch: 666, Version: "1.1.1", Release: "2"}},
		{"1.0-3.fc41", EVR{Epoch: 0, Version: "1.0", Release: "3.fc41"}},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseEVR(tc.input))
		})
	}
}

func TestVersionCompare(t *testing.T) {
	testCases := []struct {
		a, b     string
		expected int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "1.1", -1},
		{"1.10", "1.9", 1},
		{"2.5", "2.005", 0},
		{"1.0.1", "1.0", 1},
		// Numeric segments beat alphabetic ones.
		{"1.0.1", "1.0.a", 1},
		{"alpha", "beta", -1},
		// Tilde sorts before everything, including end of string.
		{"1.0~rc1", "1.0", -1},
		{"1.0~rc1", "1.0~rc1", 0},
		{"1.0~rc2", "1.0~rc1", 1},
		{"1.0~~", "1.0~", -1},
		// Caret sorts after end of string but before other suffixes.
		{"1.0^", "1.0", 1},
		{"1.0^", "1.0.1", -1},
		{"1.0^git1", "1.0^git1", 0},
		// Separators only delimit segments.
		{"1_0", "1.0", 0},
		{"1.0", "1..0", 0},
	}
	for _, tc := range testCases {
		t.Run(tc.a+" vs "+tc.b, func(t *testing.T) {
			assert.Equal(t, tc.expected, VersionCompare(tc.a, tc.b))
			assert.Equal(t, -tc.expected, VersionCompare(tc.b, tc.a))
		})
	}
}

func TestEVRCompare(t *testing.T) {
	testCases := []struct {
		a, b     string
		expected int
	}{
		{"1:2.5", "3.0", 1},
		{"0:2.5", "2.005", 0},
		{"0:2.5", "1:2.5", -1},
		{"1.0-2", "1.0-1", 1},
		// A missing release compares equal against any release.
		{"1.0", "1.0-5", 0},
		{"2:0.1", "1:9.9", 1},
	}
	for _, tc := range testCases {
		t.Run(tc.a+" vs "+tc.b, func(t *testing.T) {
			assert.Equal(t, tc.expected, EVRCompare(tc.a, tc.b))
		})
	}
}
