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
	"regexp"
	"strconv"
	"strings"

	"github.com/specware/rpmmacro/internal/collections"
)

// builtin is an internal macro operator. The expander expands the argument
// region first unless expandArgs is false, then invokes eval with the
// argument words; snippet is the original call text for literal fallback.
// A non-nil refeed is pushed back into the expander for another round of
// expansion.
type builtin struct {
	expandArgs bool
	eval       func(e *expander, snippet string, args []word) (out []part, refeed *string, err error)
}

var builtinNames = collections.SetOf(
	"dnl", "expand", "quote", "len", "sub", "gsub", "undefine",
)

var builtins = map[string]builtin{
	"dnl": {expandArgs: false, eval: func(*expander, string, []word) ([]part, *string, error) {
		return nil, nil, nil
	}},

	// The argument was expanded once as the argument region; re-feeding it
	// through the expander yields the documented double expansion.
	"expand": {expandArgs: true, eval: func(_ *expander, _ string, args []word) ([]part, *string, error) {
		body := joinWords(args)
		return nil, &body, nil
	}},

	"quote": {expandArgs: true, eval: func(_ *expander, _ string, args []word) ([]part, *string, error) {
		return []part{{text: joinWords(args), opaque: true}}, nil, nil
	}},

	"len": {expandArgs: true, eval: func(_ *expander, _ string, args []word) ([]part, *string, error) {
		text := ""
		if len(args) > 0 {
			text = args[0].text
		}
		return textParts(strconv.Itoa(len(text))), nil, nil
	}},

	"sub":      {expandArgs: true, eval: evalSub},
	"gsub":     {expandArgs: true, eval: evalGsub},
	"undefine": {expandArgs: true, eval: evalUndefine},
}

func textParts(s string) []part {
	if s == "" {
		return nil
	}
	return []part{{text: s}}
}

func joinWords(args []word) string {
	var sb strings.Builder
	for i, w := range args {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(w.text)
	}
	return sb.String()
}

// evalSub implements %{sub STRING START STOP}: 1-based inclusive indices,
// negative STOP counting backward from the end. Malformed arguments keep
// the call literal.
func evalSub(_ *expander, snippet string, args []word) ([]part, *string, error) {
	if len(args) != 3 {
		return textParts(snippet), nil, nil
	}
	start, err1 := strconv.Atoi(args[1].text)
	stop, err2 := strconv.Atoi(args[2].text)
	if err1 != nil || err2 != nil {
		return textParts(snippet), nil, nil
	}
	s := args[0].text
	if start >= 1 {
		start--
	}
	if stop < 0 {
		stop++
	}
	return textParts(sliceString(s, start, stop)), nil, nil
}

// sliceString mimics s[start:stop] sequence slicing with negative indices
// counting from the end and out-of-range bounds clamped.
func sliceString(s string, start, stop int) string {
	n := len(s)
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	start = min(max(start, 0), n)
	stop = min(max(stop, 0), n)
	if start >= stop {
		return ""
	}
	return s[start:stop]
}

// evalGsub implements %{gsub STRING PATTERN REPL [N]} with a subset of Lua
// patterns (%w, %d, %a, %s, %., '.', quantifiers +, *, -, ?).
func evalGsub(_ *expander, snippet string, args []word) ([]part, *string, error) {
	if len(args) < 3 || len(args) > 4 {
		return textParts(snippet), nil, nil
	}
	limit := -1
	if len(args) == 4 {
		n, err := strconv.Atoi(args[3].text)
		if err != nil {
			return textParts(snippet), nil, nil
		}
		limit = n
	}
	re, err := luaPatternToRegexp(args[1].text)
	if err != nil {
		return textParts(snippet), nil, nil
	}
	replaced := 0
	result := re.ReplaceAllStringFunc(args[0].text, func(match string) string {
		if limit >= 0 && replaced >= limit {
			return match
		}
		replaced++
		return args[2].text
	})
	return textParts(result), nil, nil
}

func evalUndefine(e *expander, snippet string, args []word) ([]part, *string, error) {
	if len(args) == 0 {
		return textParts(snippet), nil, nil
	}
	e.reg.Undefine(args[0].text)
	return nil, nil, nil
}

var luaClasses = map[byte]string{
	'w': `[0-9A-Za-z]`,
	'W': `[^0-9A-Za-z]`,
	'd': `[0-9]`,
	'D': `[^0-9]`,
	'a': `[A-Za-z]`,
	'A': `[^A-Za-z]`,
	's': `[ \t\n\v\f\r]`,
	'S': `[^ \t\n\v\f\r]`,
	'u': `[A-Z]`,
	'l': `[a-z]`,
}

// luaPatternToRegexp translates the supported Lua pattern subset into Go
// regexp syntax: %-classes, '.', the +/*/?/- quantifiers ('-' is Lua's lazy
// star) and ^/$ anchors; everything else matches literally.
func luaPatternToRegexp(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		switch {
		case ch == '%' && i+1 < len(pattern):
			i++
			if class, ok := luaClasses[pattern[i]]; ok {
				sb.WriteString(class)
			} else {
				sb.WriteString(regexp.QuoteMeta(string(pattern[i])))
			}
		case ch == '.':
			sb.WriteString(`(?s:.)`)
		case ch == '+' || ch == '*' || ch == '?':
			sb.WriteByte(ch)
		case ch == '-':
			sb.WriteString(`*?`)
		case ch == '^' && i == 0:
			sb.WriteByte('^')
		case ch == '$' && i == len(pattern)-1:
			sb.WriteByte('$')
		default:
			sb.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	return regexp.Compile(sb.String())
}
