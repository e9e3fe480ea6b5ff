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

// Package macrofile parses RPM macro definition files ("%name[(params)]
// body" lines) into a macro registry. The same parser handles the bodies of
// in-spec %define/%global statements through the inspec mode, which changes
// how newlines terminate a definition.
package macrofile

import (
	"iter"

	"github.com/specware/rpmmacro/macro"
	"github.com/specware/rpmmacro/tokenizer"
)

// ParsedDefinition is one macro definition extracted from macro-file text.
// Params is nil for a plain macro and non-nil (possibly empty) for a
// parametric one.
type ParsedDefinition struct {
	Name   string
	Body   string
	Params *string
}

type splitState int

const (
	stateStart splitState = iota
	stateMacroStart
	stateMacroName
	stateParams
	stateValueStart
	stateValue
	stateIgnoreLine
)

// Parse ingests macro-file text into the registry. Definitions with invalid
// names are skipped; macro files in the wild contain junk lines and RPM
// ignores them too. Escaped newlines always become part of the body; with
// inspec set, embedded newlines do too instead of terminating it (the
// %define/%global behavior).
func Parse(text string, reg *macro.Registry, inspec bool) {
	for def := range SplitDefinitions(text, inspec) {
		if !macro.IsValidName(def.Name) {
			continue
		}
		if def.Params != nil {
			_ = reg.DefineParametric(def.Name, def.Body, *def.Params)
		} else {
			_ = reg.Define(def.Name, def.Body)
		}
	}
}

// SplitDefinitions yields the (name, body, params) triples found in
// macro-file text without touching a registry. Name validity is not
// checked here; callers decide whether an invalid name is an error.
func SplitDefinitions(text string, inspec bool) iter.Seq[ParsedDefinition] {
	return func(yield func(ParsedDefinition) bool) {
		var (
			state    = stateStart
			name     []rune
			params   []rune
			value    []rune
			isParam  bool
			depth    int
			closing  rune
			brackets rune
		)

		reset := func() {
			state = stateStart
			name = name[:0]
			params = params[:0]
			value = value[:0]
			isParam = false
			depth = 0
		}
		emit := func() bool {
			def := ParsedDefinition{Name: string(name), Body: string(value)}
			if isParam {
				p := string(params)
				def.Params = &p
			}
			ok := yield(def)
			reset()
			return ok
		}
		appendValue := func(t tokenizer.Token) {
			if t.IsContinuation() {
				value = append(value, '\n')
				return
			}
			if depth == 0 {
				if close, ok := tokenizer.ClosingBracket(t.Ch); ok && !t.Escaped {
					brackets, closing = t.Ch, close
					depth = 1
				}
			} else if !t.Escaped {
				switch t.Ch {
				case brackets:
					depth++
				case closing:
					depth--
				}
			}
			value = append(value, t.Ch)
		}

		for t := range tokenizer.Tokenize(text) {
			switch state {
			case stateStart:
				switch {
				case t.IsSpace():
				case t.Is('%'):
					state = stateMacroStart
				default:
					state = stateIgnoreLine
				}

			case stateMacroStart:
				if t.IsSpace() {
					continue
				}
				name = append(name, t.Ch)
				state = stateMacroName

			case stateMacroName:
				switch {
				case t.IsContinuation():
					value = append(value, '\n')
					state = stateValue
				case t.IsSpace():
					state = stateValueStart
				case t.Is('('):
					isParam = true
					state = stateParams
				default:
					name = append(name, t.Ch)
				}

			case stateParams:
				if t.Is(')') {
					state = stateValueStart
					continue
				}
				params = append(params, t.Ch)

			case stateValueStart:
				switch {
				case t.IsContinuation():
					value = append(value, '\n')
					state = stateValue
				case t.Is('\n') && inspec:
					value = append(value, '\n')
					state = stateValue
				case t.IsSpace():
					// Leading whitespace (and, in macro files, blank
					// continuation) is not part of the body.
				default:
					appendValue(t)
					state = stateValue
				}

			case stateValue:
				if t.Is('\n') && depth == 0 && !inspec {
					if !emit() {
						return
					}
					continue
				}
				appendValue(t)

			case stateIgnoreLine:
				if t.Is('\n') {
					reset()
				}
			}
		}

		if state == stateValue {
			emit()
		}
	}
}
