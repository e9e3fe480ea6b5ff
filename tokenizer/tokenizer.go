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

// Package tokenizer breaks RPM spec and macro-file text into a stream of
// tokens. A token is a single character, optionally marked as escaped when it
// was introduced by a backslash. Escaped newlines mark line continuations;
// escaped brackets are inert for the bracket matching done by the consumers.
package tokenizer

import (
	"iter"
	"strings"
	"unicode"
)

// Token is a single character of the input. Escaped is set when the character
// followed a backslash and belongs to the escapable set; the backslash itself
// is never part of the token.
type Token struct {
	Ch      rune
	Escaped bool
}

// Escapable characters. A backslash followed by any other character is yielded
// as a literal backslash token, followed by that character as a literal token.
const escapable = "\n{}()[]"

// Bracket pairs honored by group scanning.
var bracketPairs = map[rune]rune{
	'{': '}',
	'[': ']',
	'(': ')',
}

// ClosingBracket returns the closing counterpart of an opening bracket
// character and whether ch opens a group at all.
func ClosingBracket(ch rune) (rune, bool) {
	closing, ok := bracketPairs[ch]
	return closing, ok
}

// IsSpace reports whether the token is literal whitespace. Escaped tokens are
// never whitespace, including the escaped newline.
func (t Token) IsSpace() bool {
	return !t.Escaped && unicode.IsSpace(t.Ch)
}

// Is reports whether the token is the literal (unescaped) character ch.
// Escaped tokens compare unequal to their plain character.
func (t Token) Is(ch rune) bool {
	return !t.Escaped && t.Ch == ch
}

// IsContinuation reports whether the token is an escaped newline.
func (t Token) IsContinuation() bool {
	return t.Escaped && t.Ch == '\n'
}

// Source returns the textual form the token had in the input: the character
// itself, or backslash + character for escaped tokens.
func (t Token) Source() string {
	if t.Escaped {
		return "\\" + string(t.Ch)
	}
	return string(t.Ch)
}

// IsNameRune reports whether ch may appear in a macro name.
func IsNameRune(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

// Tokenize returns the token stream of the input text. A backslash followed
// by a newline or bracket yields a single escaped token; before any other
// character the backslash stays a literal of its own, so text without macro
// syntax survives a tokenize/join round trip unchanged. A trailing lone
// backslash is kept as a literal.
func Tokenize(text string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		backslash := false
		for _, ch := range text {
			if backslash {
				backslash = false
				if strings.ContainsRune(escapable, ch) {
					if !yield(Token{Ch: ch, Escaped: true}) {
						return
					}
					continue
				}
				if !yield(Token{Ch: '\\'}) {
					return
				}
				if ch == '\\' {
					backslash = true
					continue
				}
				if !yield(Token{Ch: ch}) {
					return
				}
				continue
			}
			if ch == '\\' {
				backslash = true
				continue
			}
			if !yield(Token{Ch: ch}) {
				return
			}
		}
		if backslash {
			yield(Token{Ch: '\\'})
		}
	}
}
