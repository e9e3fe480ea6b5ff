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
	"iter"
	"slices"
	"strings"

	"github.com/specware/rpmmacro/internal/collections"
	"github.com/specware/rpmmacro/macro"
	"github.com/specware/rpmmacro/tokenizer"
)

// Keywords whose invocation consumes an argument tail up to the end of the
// line, like a parametric macro does.
var parametricKeywords = collections.SetOf(
	"if", "ifarch", "ifnarch", "else", "endif", "setup", "package",
)

// Keywords whose terminating newline is consumed together with the snippet
// instead of staying in the output stream.
var newlineConsumingNames = collections.SetOf(
	"if", "ifarch", "ifnarch", "else", "endif", "dnl",
)

type splitterState int

const (
	splitText splitterState = iota
	splitMacroStart
	splitMacroName
	splitGroup
	splitParametric
	splitDefinition
)

// Split returns the snippet stream of spec-file text. The registry is
// consulted lazily, at the moment each macro name is classified, so
// definitions made earlier in the same expansion influence how later calls
// are chunked (a known-parametric name swallows its argument tail).
func Split(text string, reg *macro.Registry) iter.Seq[Snippet] {
	return func(yield func(Snippet) bool) {
		tokens := slices.Collect(tokenizer.Tokenize(text))

		var (
			state        = splitText
			buf          strings.Builder // literal text accumulator
			mbuf         strings.Builder // macro snippet accumulator
			name         strings.Builder // macro name without % and prefixes
			lineStart    = true
			inComment    bool
			macroLine    bool // AtLineStart captured when % was seen
			macroComment bool // InComment captured when % was seen
			questions    int
			negations    int
			groupClose   rune
			groupOpen    rune
			groupDepth   int
			defnClose    rune
			defnOpen     rune
			defnDepth    int
		)

		emitText := func() bool {
			if buf.Len() == 0 {
				return true
			}
			sn := Snippet{Text: buf.String(), InComment: inComment}
			buf.Reset()
			return yield(sn)
		}
		emitMacro := func() bool {
			sn := Snippet{Text: mbuf.String(), InComment: macroComment, AtLineStart: macroLine}
			mbuf.Reset()
			name.Reset()
			questions, negations = 0, 0
			state = splitText
			return yield(sn)
		}

		for i := 0; i < len(tokens); i++ {
			t := tokens[i]
			switch state {
			case splitText:
				if t.Is('%') {
					if !emitText() {
						return
					}
					macroLine, macroComment = lineStart, inComment
					lineStart = false
					mbuf.WriteByte('%')
					state = splitMacroStart
					continue
				}
				switch {
				case t.Is('\n') || t.IsContinuation():
					lineStart = true
					inComment = false
				case t.Is('#') && lineStart:
					inComment = true
					lineStart = false
				case !t.IsSpace():
					lineStart = false
				}
				buf.WriteString(t.Source())

			case splitMacroStart:
				switch {
				case t.Is('%'):
					mbuf.WriteByte('%')
					if !emitMacro() {
						return
					}
				case t.Is('{') || t.Is('(') || t.Is('['):
					groupOpen = t.Ch
					groupClose, _ = tokenizer.ClosingBracket(t.Ch)
					groupDepth = 0
					mbuf.WriteRune(t.Ch)
					state = splitGroup
				case t.Is('?') && questions < 2:
					questions++
					mbuf.WriteByte('?')
				case t.Is('!') && negations < 2:
					negations++
					mbuf.WriteByte('!')
				case t.Is('#') || t.Is('*'):
					// Ephemeral argument references %# and %*.
					mbuf.WriteRune(t.Ch)
					if !emitMacro() {
						return
					}
				case t.Is('-'):
					// Option argument references %-x and %-x*.
					name.WriteByte('-')
					mbuf.WriteByte('-')
					state = splitMacroName
				case !t.Escaped && tokenizer.IsNameRune(t.Ch):
					name.WriteRune(t.Ch)
					mbuf.WriteRune(t.Ch)
					state = splitMacroName
				default:
					// Lone % (or % with dangling prefixes); the character
					// that ended it belongs to the next snippet.
					if !emitMacro() {
						return
					}
					i--
				}

			case splitMacroName:
				if strings.HasPrefix(name.String(), "-") {
					// Option references are a dash plus one letter, with an
					// optional '*' selecting the bare value: %-x, %-x*.
					switch {
					case name.Len() == 1 && !t.Escaped && tokenizer.IsNameRune(t.Ch):
						name.WriteRune(t.Ch)
						mbuf.WriteRune(t.Ch)
					case name.Len() > 1 && t.Is('*'):
						mbuf.WriteByte('*')
						if !emitMacro() {
							return
						}
					default:
						if !emitMacro() {
							return
						}
						i--
					}
					continue
				}
				if !t.Escaped && tokenizer.IsNameRune(t.Ch) {
					name.WriteRune(t.Ch)
					mbuf.WriteRune(t.Ch)
					continue
				}
				switch nm := name.String(); {
				case nm == "define" || nm == "global":
					defnDepth = 0
					state = splitDefinition
					i--
				case parametricKeywords.Contains(nm),
					builtinNames.Contains(nm),
					isParametricMacro(reg, nm):
					state = splitParametric
					i--
				default:
					if !emitMacro() {
						return
					}
					i--
				}

			case splitParametric:
				if t.Is('\n') || t.IsContinuation() {
					// The newline is consumed together with the snippet for
					// control keywords that will actually act; a %else
					// buried in a comment or mid-line keeps its newline.
					nm := name.String()
					consumed := t.IsContinuation() ||
						(newlineConsumingNames.Contains(nm) && !macroComment &&
							(macroLine || nm == "dnl"))
					if !emitMacro() {
						return
					}
					if consumed {
						lineStart = true
						inComment = false
					} else {
						i--
					}
					continue
				}
				mbuf.WriteString(t.Source())

			case splitDefinition:
				if t.Is('\n') && defnDepth == 0 {
					// The terminating newline of a definition is consumed.
					if !emitMacro() {
						return
					}
					lineStart = true
					inComment = false
					continue
				}
				if !t.Escaped {
					if defnDepth == 0 {
						if close, ok := tokenizer.ClosingBracket(t.Ch); ok {
							defnOpen, defnClose = t.Ch, close
							defnDepth = 1
						}
					} else {
						switch t.Ch {
						case defnOpen:
							defnDepth++
						case defnClose:
							defnDepth--
						}
					}
				}
				mbuf.WriteString(t.Source())

			case splitGroup:
				mbuf.WriteString(t.Source())
				if !t.Escaped {
					switch t.Ch {
					case groupOpen:
						groupDepth++
					case groupClose:
						if groupDepth == 0 {
							if !emitMacro() {
								return
							}
							continue
						}
						groupDepth--
					}
				}
			}
		}

		// Unterminated constructs yield whatever was accumulated.
		if state == splitText {
			emitText()
		} else {
			emitMacro()
		}
	}
}

// SplitAll collects the snippet stream into a slice.
func SplitAll(text string, reg *macro.Registry) []Snippet {
	return slices.Collect(Split(text, reg))
}

func isParametricMacro(reg *macro.Registry, name string) bool {
	m, ok := reg.Get(name)
	return ok && m.Parametric()
}
