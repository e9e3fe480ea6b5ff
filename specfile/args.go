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
	"fmt"
	"strings"
)

// word is one whitespace-delimited argument of a parametric invocation.
// Opaque words came from %{quote:...} and are never re-split.
type word struct {
	text   string
	opaque bool
}

// option is a parsed command-line style option of a parametric call.
type option struct {
	flag   byte
	value  string
	hasVal bool
}

// UnknownOptionError reports an option character not declared in the
// macro's parameter spec, or a value-taking option with no value left to
// consume. The expander reacts by leaving the whole call unexpanded.
type UnknownOptionError struct {
	Option byte
	Spec   string
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("unknown option -%c (spec %q)", e.Option, e.Spec)
}

// parseArgs splits the words of a parametric call into options and
// positional arguments following POSIX getopt conventions driven by the
// macro's parameter spec: each spec letter declares an option, a trailing
// ':' makes it take a value (from the rest of the token or the next one).
// "--" terminates option parsing.
func parseArgs(words []word, spec string) (opts []option, args []word, err error) {
	i := 0
	for i < len(words) {
		w := words[i]
		if w.opaque || !strings.HasPrefix(w.text, "-") || w.text == "-" {
			break
		}
		i++
		if w.text == "--" {
			break
		}
		body := w.text[1:]
		for j := 0; j < len(body); j++ {
			flag := body[j]
			takesValue, known := specOption(spec, flag)
			if !known {
				return nil, nil, &UnknownOptionError{Option: flag, Spec: spec}
			}
			if !takesValue {
				opts = append(opts, option{flag: flag})
				continue
			}
			if j+1 < len(body) {
				// Value attached to the option, as in -p1.
				opts = append(opts, option{flag: flag, value: body[j+1:], hasVal: true})
			} else if i < len(words) {
				opts = append(opts, option{flag: flag, value: words[i].text, hasVal: true})
				i++
			} else {
				return nil, nil, &UnknownOptionError{Option: flag, Spec: spec}
			}
			break
		}
	}
	return opts, words[i:], nil
}

// specOption looks a flag up in a getopt parameter spec like "p:isv".
func specOption(spec string, flag byte) (takesValue, known bool) {
	for j := 0; j < len(spec); j++ {
		if spec[j] != flag {
			continue
		}
		return j+1 < len(spec) && spec[j+1] == ':', true
	}
	return false, false
}

// splitWords groups expanded argument parts into whitespace-separated
// words. Opaque parts form exactly one word each, regardless of embedded
// whitespace; adjacent non-blank text glues onto the same word.
func splitWords(parts []part) []word {
	var words []word
	var current strings.Builder
	currentOpaque := false
	pending := false

	flush := func() {
		if pending {
			words = append(words, word{text: current.String(), opaque: currentOpaque})
			current.Reset()
			currentOpaque = false
			pending = false
		}
	}

	for _, p := range parts {
		if p.opaque {
			current.WriteString(p.text)
			currentOpaque = true
			pending = true
			continue
		}
		for _, ch := range p.text {
			if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f' {
				flush()
				continue
			}
			current.WriteRune(ch)
			pending = true
		}
	}
	flush()
	return words
}
