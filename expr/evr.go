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
	"strconv"
	"strings"
)

// EVR is an RPM epoch-version-release triple.
type EVR struct {
	Epoch   int64
	Version string
	Release string
}

// ParseEVR splits "epoch:version-release" into its parts. Epoch defaults to
// 0, release to empty.
func ParseEVR(s string) EVR {
	evr := EVR{Version: s}
	if colon := strings.IndexByte(evr.Version, ':'); colon >= 0 {
		if epoch, err := strconv.ParseInt(evr.Version[:colon], 10, 64); err == nil {
			evr.Epoch = epoch
			evr.Version = evr.Version[colon+1:]
		}
	}
	if dash := strings.IndexByte(evr.Version, '-'); dash >= 0 {
		evr.Release = evr.Version[dash+1:]
		evr.Version = evr.Version[:dash]
	}
	return evr
}

// EVRCompare compares two EVR strings: epochs numerically, then version and
// release with VersionCompare. A missing release on either side makes the
// release segment compare equal. Returns -1, 0 or +1.
func EVRCompare(a, b string) int {
	ae, be := ParseEVR(a), ParseEVR(b)
	switch {
	case ae.Epoch < be.Epoch:
		return -1
	case ae.Epoch > be.Epoch:
		return 1
	}
	if cmp := VersionCompare(ae.Version, be.Version); cmp != 0 {
		return cmp
	}
	if ae.Release == "" || be.Release == "" {
		return 0
	}
	return VersionCompare(ae.Release, be.Release)
}

// VersionCompare implements RPM's segment-wise version comparison: versions
// split into alternating numeric and alphabetic segments, numeric segments
// compare as integers with leading zeros ignored, a numeric segment beats an
// alphabetic one, tilde sorts before end of string and caret after it.
// Returns -1, 0 or +1.
func VersionCompare(a, b string) int {
	ai, bi := 0, 0
	for {
		// Skip separator characters.
		for ai < len(a) && !isVersionRune(a[ai]) {
			ai++
		}
		for bi < len(b) && !isVersionRune(b[bi]) {
			bi++
		}

		// Tilde sorts before anything, including the end of string.
		aTilde, bTilde := hasAt(a, ai, '~'), hasAt(b, bi, '~')
		if aTilde || bTilde {
			if aTilde && bTilde {
				ai++
				bi++
				continue
			}
			if aTilde {
				return -1
			}
			return 1
		}

		// Caret sorts after end of string but before any other suffix.
		aCaret, bCaret := hasAt(a, ai, '^'), hasAt(b, bi, '^')
		if aCaret || bCaret {
			if aCaret && bCaret {
				ai++
				bi++
				continue
			}
			if aCaret {
				if bi == len(b) {
					return 1
				}
				return -1
			}
			if ai == len(a) {
				return -1
			}
			return 1
		}

		if ai == len(a) || bi == len(b) {
			switch {
			case ai < len(a):
				return 1
			case bi < len(b):
				return -1
			}
			return 0
		}

		aSeg, aNumeric := takeSegment(a, &ai)
		bSeg, bNumeric := takeSegment(b, &bi)
		if aNumeric != bNumeric {
			// A numeric segment always beats an alphabetic one.
			if aNumeric {
				return 1
			}
			return -1
		}
		if cmp := compareSegments(aSeg, bSeg, aNumeric); cmp != 0 {
			return cmp
		}
	}
}

func isVersionRune(b byte) bool {
	return b == '~' || b == '^' || isAlnumByte(b)
}

func isAlnumByte(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func hasAt(s string, i int, ch byte) bool {
	return i < len(s) && s[i] == ch
}

// takeSegment consumes a maximal run of digits or a maximal run of letters
// starting at *i.
func takeSegment(s string, i *int) (segment string, numeric bool) {
	start := *i
	numeric = s[start] >= '0' && s[start] <= '9'
	for *i < len(s) {
		digit := s[*i] >= '0' && s[*i] <= '9'
		if !isAlnumByte(s[*i]) || digit != numeric {
			break
		}
		*i++
	}
	return s[start:*i], numeric
}

func compareSegments(a, b string, numeric bool) int {
	if numeric {
		a = strings.TrimLeft(a, "0")
		b = strings.TrimLeft(b, "0")
		if len(a) != len(b) {
			if len(a) > len(b) {
				return 1
			}
			return -1
		}
	}
	return strings.Compare(a, b)
}
