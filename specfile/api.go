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
	"github.com/specware/rpmmacro/expr"
	"github.com/specware/rpmmacro/macro"
)

// Expand runs the full spec-file pipeline including preamble tag capture
// and returns the expanded document. The registry is mutated by %define,
// %global, %undefine and captured tags.
func Expand(text string, reg *macro.Registry) (string, error) {
	return ExpandConfigured(text, reg, Config{})
}

// ExpandConfigured is Expand with explicit collaborators: a Hooks sink for
// captured preamble tags and an optional %ifarch/%ifnarch resolver.
func ExpandConfigured(text string, reg *macro.Registry, cfg Config) (string, error) {
	e := &expander{reg: reg, cfg: cfg}
	capture := &tagCapture{reg: reg, hooks: cfg.Hooks}
	parts, err := e.run(text, func(p part) { capture.feed(p.text) })
	if err != nil {
		return joinParts(parts), err
	}
	capture.finish()
	return joinParts(parts), nil
}

// ExpandString expands text without the preamble tag capture layer. Use it
// for macro-only strings and for post-pass queries like "%version" against
// an already populated registry.
func ExpandString(text string, reg *macro.Registry) (string, error) {
	e := &expander{reg: reg}
	parts, err := e.run(text, nil)
	return joinParts(parts), err
}

// EvalExpr evaluates standalone expression text, expanding any macro
// references against the registry with the same lazy, short-circuit
// semantics as %[...] groups.
func EvalExpr(text string, reg *macro.Registry) (expr.Value, error) {
	e := &expander{reg: reg}
	return e.evalProtected(text)
}
