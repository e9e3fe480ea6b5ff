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
	"errors"
	"iter"
	"regexp"
	"strconv"
	"strings"

	"github.com/specware/rpmmacro/expr"
	"github.com/specware/rpmmacro/macro"
	"github.com/specware/rpmmacro/macrofile"
)

// part is one piece of expanded output. Opaque parts stem from
// %{quote:...} and survive argument splitting as a single word.
type part struct {
	text   string
	opaque bool
}

// condFrame is one %if level: taken is the condition result, flipped is set
// by %else. Tokens pass through only while taken XOR flipped holds on every
// frame.
type condFrame struct {
	taken   bool
	flipped bool
}

// expander drives snippet rewriting. Expansions that produce new input push
// a splitter frame onto an explicit work stack instead of recursing through
// the host stack, which keeps the depth limit exact and cancellation cheap.
type expander struct {
	reg    *macro.Registry
	cfg    Config
	conds  []condFrame
	inExpr bool
	depth  int
}

// frame is one level of the work stack: a pulled snippet source plus the
// cleanup releasing ephemeral argument bindings when the level drains.
type frame struct {
	next    func() (Snippet, bool)
	stop    func()
	cleanup func()
}

// pushReq asks the run loop to descend into body once the current snippet
// is handled.
type pushReq struct {
	body    string
	cleanup func()
}

func (e *expander) expanding() bool {
	for _, c := range e.conds {
		if c.taken == c.flipped {
			return false
		}
	}
	return true
}

// run expands text and returns the produced parts. Every part is also
// handed to sink (when non-nil) the moment it is produced; the preamble
// tag wrapper depends on that ordering because captured tags feed back
// into the registry mid-stream.
func (e *expander) run(text string, sink func(part)) ([]part, error) {
	var out []part
	var frames []frame

	push := func(body string, cleanup func()) error {
		if e.depth >= MaxDepth {
			if cleanup != nil {
				cleanup()
			}
			return &RecursionError{Depth: MaxDepth}
		}
		e.depth++
		next, stop := iter.Pull(Split(body, e.reg))
		frames = append(frames, frame{next: next, stop: stop, cleanup: cleanup})
		return nil
	}
	defer func() {
		for i := len(frames) - 1; i >= 0; i-- {
			frames[i].stop()
			if frames[i].cleanup != nil {
				frames[i].cleanup()
			}
			e.depth--
		}
		frames = nil
	}()

	if err := push(text, nil); err != nil {
		return nil, err
	}
	for len(frames) > 0 {
		top := &frames[len(frames)-1]
		sn, ok := top.next()
		if !ok {
			top.stop()
			if top.cleanup != nil {
				top.cleanup()
			}
			frames = frames[:len(frames)-1]
			e.depth--
			continue
		}
		parts, req, err := e.processSnippet(sn)
		if err != nil {
			return out, err
		}
		for _, p := range parts {
			if sink != nil {
				sink(p)
			}
			out = append(out, p)
		}
		if req != nil {
			if err := push(req.body, req.cleanup); err != nil {
				return out, err
			}
		}
	}
	return out, nil
}

func (e *expander) expandToString(text string) (string, error) {
	parts, err := e.run(text, nil)
	return joinParts(parts), err
}

func joinParts(parts []part) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.text)
	}
	return sb.String()
}

func (e *expander) processSnippet(sn Snippet) ([]part, *pushReq, error) {
	if !sn.IsMacro() {
		if e.expanding() {
			return []part{{text: sn.Text}}, nil, nil
		}
		return nil, nil, nil
	}

	txt := sn.Text
	if txt == "%" || txt == "%%" {
		return e.literal("%"), nil, nil
	}

	switch keyword := leadingName(txt[1:]); keyword {
	case "if", "ifarch", "ifnarch", "else", "endif":
		if sn.InComment || !sn.AtLineStart {
			return e.literal(txt), nil, nil
		}
		rest := strings.TrimSpace(txt[1+len(keyword):])
		return nil, nil, e.handleConditional(keyword, rest)
	case "define", "global":
		if !e.expanding() {
			return nil, nil, nil
		}
		return nil, nil, e.handleDefine(txt[1+len(keyword):], keyword == "global")
	}

	switch {
	case strings.HasPrefix(txt, "%("):
		return e.handleShell(txt)
	case strings.HasPrefix(txt, "%["):
		return e.handleExprGroup(txt)
	default:
		return e.handleCall(txt)
	}
}

// literal emits text unchanged, honoring the conditional gate.
func (e *expander) literal(text string) []part {
	if !e.expanding() {
		return nil
	}
	return textParts(text)
}

func leadingName(s string) string {
	end := 0
	for end < len(s) && isNameByteSpec(s[end]) {
		end++
	}
	return s[:end]
}

func isNameByteSpec(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// handleConditional maintains the %if/%else/%endif stack. A suppressed %if
// pushes an untaken frame without evaluating its expression, so skipped
// branches stay free of side effects while the nesting stays balanced.
func (e *expander) handleConditional(keyword, rest string) error {
	switch keyword {
	case "if":
		if !e.expanding() {
			e.conds = append(e.conds, condFrame{})
			return nil
		}
		if e.inExpr {
			return parseErrorf("%%if inside a %%if expression")
		}
		if rest == "" {
			return parseErrorf("%%if without an expression")
		}
		e.inExpr = true
		cond, err := e.expandToString(rest)
		e.inExpr = false
		if err != nil {
			return err
		}
		taken := false
		if !strings.Contains(cond, "%") {
			value, err := expr.Eval(cond, nil)
			if err != nil {
				return err
			}
			taken = value.Truthy()
		}
		e.conds = append(e.conds, condFrame{taken: taken})

	case "ifarch", "ifnarch":
		taken := false
		if e.expanding() {
			taken = true
			if e.cfg.ArchMatches != nil {
				matches := e.cfg.ArchMatches(strings.Fields(rest))
				taken = (keyword == "ifarch") == matches
			}
		}
		e.conds = append(e.conds, condFrame{taken: taken})

	case "else":
		if len(e.conds) == 0 {
			return nil
		}
		top := &e.conds[len(e.conds)-1]
		if top.flipped {
			return parseErrorf("double %%else")
		}
		top.flipped = true

	case "endif":
		if len(e.conds) > 0 {
			e.conds = e.conds[:len(e.conds)-1]
		}
	}
	return nil
}

// handleDefine stores the definitions of a %define/%global body. %global
// expands the body at definition time; %define stores it literally for
// expansion at the call site.
func (e *expander) handleDefine(body string, global bool) error {
	for def := range macrofile.SplitDefinitions("%"+body, true) {
		if !macro.IsValidName(def.Name) {
			return &macro.NameError{Name: def.Name}
		}
		value := def.Body
		if global {
			expanded, err := e.expandToString(value)
			if err != nil {
				return err
			}
			value = expanded
		}
		var err error
		if def.Params != nil {
			err = e.reg.DefineParametric(def.Name, value, *def.Params)
		} else {
			err = e.reg.Define(def.Name, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Recognized shell constructs that have a pure-text equivalent. Anything
// else inside %(...) stays opaque.
var (
	reShellEchoCut = regexp.MustCompile(`^%\(\s*echo\s+(\S+)\s*\|\s*cut\s+-c\s*(\d+)-(\d+)\s*\)$`)
	reShellEcho    = regexp.MustCompile(`^%\(\s*echo\s+(\S+)\s*\)$`)
)

func (e *expander) handleShell(txt string) ([]part, *pushReq, error) {
	if !e.expanding() {
		return nil, nil, nil
	}
	if m := reShellEchoCut.FindStringSubmatch(txt); m != nil {
		return nil, &pushReq{body: "%{sub " + m[1] + " " + m[2] + " " + m[3] + "}"}, nil
	}
	if m := reShellEcho.FindStringSubmatch(txt); m != nil {
		return nil, &pushReq{body: m[1]}, nil
	}
	return textParts(txt), nil, nil
}

// handleExprGroup evaluates a %[...] group. A malformed expression demotes
// to literal passthrough; recursion and parse errors from lazily expanded
// operands propagate.
func (e *expander) handleExprGroup(txt string) ([]part, *pushReq, error) {
	if !e.expanding() {
		return nil, nil, nil
	}
	interior := strings.TrimPrefix(txt, "%[")
	interior = strings.TrimSuffix(interior, "]")
	value, err := e.evalProtected(interior)
	if err != nil {
		var syntaxErr *expr.SyntaxError
		if errors.As(err, &syntaxErr) {
			return textParts(txt), nil, nil
		}
		return nil, nil, err
	}
	return textParts(value.String()), nil, nil
}

// evalProtected evaluates expression text that may contain macro calls.
// Each macro snippet is replaced by a placeholder before parsing and
// expanded only when the operand holding it evaluates, which gives &&, ||
// and ?: their short-circuit side-effect semantics.
func (e *expander) evalProtected(text string) (expr.Value, error) {
	var protected strings.Builder
	var table []string
	for sn := range Split(text, e.reg) {
		if sn.IsMacro() {
			protected.WriteString(expr.PlaceholderMark)
			protected.WriteString(strconv.Itoa(len(table)))
			protected.WriteString(expr.PlaceholderMark)
			table = append(table, sn.Text)
			continue
		}
		protected.WriteString(sn.Text)
	}

	expand := func(raw string) (string, error) {
		var sb strings.Builder
		rest := raw
		for {
			begin := strings.Index(rest, expr.PlaceholderMark)
			if begin < 0 {
				sb.WriteString(rest)
				return sb.String(), nil
			}
			sb.WriteString(rest[:begin])
			rest = rest[begin+1:]
			end := strings.Index(rest, expr.PlaceholderMark)
			if end < 0 {
				return "", &expr.SyntaxError{Msg: "unterminated operand placeholder"}
			}
			index, err := strconv.Atoi(rest[:end])
			if err != nil {
				return "", err
			}
			rest = rest[end+1:]
			expanded, err := e.expandToString(table[index])
			if err != nil {
				return "", err
			}
			sb.WriteString(expanded)
		}
	}
	return expr.Eval(protected.String(), expand)
}

// handleCall expands a %name or %{...} macro call: conditionals (?/!),
// built-ins, parametric invocations with getopt argument binding, and plain
// body substitution.
func (e *expander) handleCall(txt string) ([]part, *pushReq, error) {
	interior := txt[1:]
	if strings.HasPrefix(txt, "%{") {
		interior = strings.TrimSuffix(txt[2:], "}")
	}
	if isSpecialArgName(interior) {
		if !e.expanding() {
			return nil, nil, nil
		}
		if m, ok := e.reg.Get(interior); ok {
			return nil, &pushReq{body: m.Value()}, nil
		}
		return textParts(txt), nil, nil
	}
	call, ok := macro.ParseCall(interior)
	if !ok {
		return e.literal(txt), nil, nil
	}

	if b, isBuiltin := builtins[call.Name]; isBuiltin {
		return e.handleBuiltin(b, call, txt)
	}
	if !e.expanding() {
		return nil, nil, nil
	}

	defined := e.reg.Contains(call.Name)
	if call.Cond {
		positive := defined != call.Neg
		if call.HasAlt {
			if positive {
				return nil, &pushReq{body: call.Alt}, nil
			}
			return nil, nil, nil
		}
		if call.Neg || !defined {
			return nil, nil, nil
		}
		// %{?name} with name defined: fall through to the invocation.
	}
	if !defined {
		// Unknown macros (including the %with_*/%without_* bcond family)
		// keep their literal spelling.
		return textParts(txt), nil, nil
	}

	m, _ := e.reg.Get(call.Name)
	if !m.Parametric() {
		return nil, &pushReq{body: m.Value()}, nil
	}
	return e.invokeParametric(m, call, txt)
}

func (e *expander) handleBuiltin(b builtin, call macro.Call, txt string) ([]part, *pushReq, error) {
	if !e.expanding() {
		return nil, nil, nil
	}
	var args []word
	if b.expandArgs && call.HasParam {
		parts, err := e.run(call.Param, nil)
		if err != nil {
			return nil, nil, err
		}
		if call.SepColon {
			args = []word{partsToWord(parts)}
		} else {
			args = splitWords(parts)
		}
	}
	out, refeed, err := b.eval(e, txt, args)
	if err != nil {
		return nil, nil, err
	}
	var req *pushReq
	if refeed != nil {
		req = &pushReq{body: *refeed}
	}
	return out, req, nil
}

// invokeParametric expands the argument region, splits it into words
// (opaque quote results stay whole), parses options against the macro's
// parameter spec, installs the ephemeral %0/%1../%#/%*/%-x/%-x* bindings,
// and schedules the body with a cleanup that pops them again in reverse.
func (e *expander) invokeParametric(m *macro.Macro, call macro.Call, txt string) ([]part, *pushReq, error) {
	var words []word
	if call.HasParam {
		parts, err := e.run(call.Param, nil)
		if err != nil {
			return nil, nil, err
		}
		if call.SepColon {
			words = []word{partsToWord(parts)}
		} else {
			words = splitWords(parts)
		}
	}

	opts, positional, err := parseArgs(words, *m.Params())
	if err != nil {
		var unknown *UnknownOptionError
		if errors.As(err, &unknown) {
			// An undeclared option leaves the whole call literal.
			return textParts(txt), nil, nil
		}
		return nil, nil, err
	}
	cleanup := e.bindArgs(call.Name, opts, positional)
	return nil, &pushReq{body: m.Value(), cleanup: cleanup}, nil
}

func (e *expander) bindArgs(name string, opts []option, positional []word) func() {
	var bound []string
	bind := func(n, v string) {
		e.reg.DefineSpecial(n, v)
		bound = append(bound, n)
	}

	bind("0", name)
	for _, o := range opts {
		flag := "-" + string(o.flag)
		if o.hasVal {
			bind(flag, flag+" "+o.value)
			bind(flag+"*", o.value)
		} else {
			bind(flag, flag)
			bind(flag+"*", "")
		}
	}
	texts := make([]string, len(positional))
	for i, w := range positional {
		texts[i] = w.text
		bind(strconv.Itoa(i+1), w.text)
	}
	bind("#", strconv.Itoa(len(positional)))
	bind("*", strings.Join(texts, " "))

	return func() {
		for i := len(bound) - 1; i >= 0; i-- {
			e.reg.Undefine(bound[i])
		}
	}
}

// isSpecialArgName recognizes the ephemeral argument references of a
// parametric invocation that fall outside regular call syntax: %#, %* and
// the option forms %-x / %-x*.
func isSpecialArgName(s string) bool {
	switch s {
	case "#", "*":
		return true
	}
	if !strings.HasPrefix(s, "-") || len(s) < 2 {
		return false
	}
	body := strings.TrimSuffix(s[1:], "*")
	if body == "" {
		return false
	}
	for i := 0; i < len(body); i++ {
		if !isNameByteSpec(body[i]) {
			return false
		}
	}
	return true
}

func partsToWord(parts []part) word {
	return word{
		text:   joinParts(parts),
		opaque: len(parts) == 1 && parts[0].opaque,
	}
}
