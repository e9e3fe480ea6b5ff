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

package macro

import "strings"

// Call is a parsed macro invocation, either the interior of a %{...} group
// or a bare %name reference with optional conditional prefixes.
type Call struct {
	Name string
	// Cond is set when a '?' prefix was present, Neg for '!'.
	Cond bool
	Neg  bool
	// Param is the argument region following the name. SepColon tells a
	// colon separator apart from whitespace; the distinction matters for
	// built-ins and parametric argument splitting.
	Param    string
	HasParam bool
	SepColon bool
	// Alt is the alternative text of a %{?name:ALT} form. It is only
	// populated when a '?' prefix was present together with a colon.
	Alt    string
	HasAlt bool
}

// ParseCall parses the call syntax of text, which must be either a bare
// reference like "?!name" (the %{ } or % already stripped) or include the
// argument tail. Reports false when text does not form a macro call, in
// which case the caller keeps the original text literal.
func ParseCall(text string) (Call, bool) {
	var call Call
	rest := text

	for len(rest) > 0 {
		switch rest[0] {
		case '?':
			call.Cond = true
			rest = rest[1:]
			continue
		case '!':
			call.Neg = true
			rest = rest[1:]
			continue
		}
		break
	}

	end := 0
	for end < len(rest) && isNameByte(rest[end]) {
		end++
	}
	if end == 0 {
		return Call{}, false
	}
	call.Name, rest = rest[:end], rest[end:]

	if rest == "" {
		return call, true
	}

	switch {
	case rest[0] == ':':
		if call.Cond {
			call.Alt = rest[1:]
			call.HasAlt = true
		} else {
			call.Param = rest[1:]
			call.HasParam = true
			call.SepColon = true
		}
	case rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n':
		call.Param = strings.TrimLeft(rest, " \t\n")
		call.HasParam = true
	default:
		return Call{}, false
	}
	return call, true
}

func isNameByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
