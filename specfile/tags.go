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
	"strings"

	"github.com/specware/rpmmacro/internal/collections"
	"github.com/specware/rpmmacro/macro"
)

// Lines whose trimmed form starts with one of these end the preamble; tag
// capture stops there for the rest of the document.
var preambleTerminators = []string{
	"%prep",
	"%build",
	"%install",
	"%description",
	"%generate_buildrequires",
	"%package ",
}

// Preamble tags whose values become macros (lowercase and uppercase).
var capturedTags = collections.SetOf("name", "version", "release", "epoch")

var reTagLine = regexp.MustCompile(`^[ \t]*([A-Za-z][A-Za-z0-9]*)[ \t]*:[ \t]*(.*?)[ \t\r]*$`)

// tagCapture consumes expanded output line by line and mirrors preamble
// Name/Version/Release/Epoch tags into the registry as they stream past.
// Definitions happen mid-expansion on purpose: later parts of the document
// refer to %version and friends.
type tagCapture struct {
	reg     *macro.Registry
	hooks   Hooks
	pending string
	done    bool
}

func (c *tagCapture) feed(text string) {
	if c.done {
		return
	}
	c.pending += text
	for {
		idx := strings.IndexByte(c.pending, '\n')
		if idx < 0 {
			return
		}
		line := c.pending[:idx]
		c.pending = c.pending[idx+1:]
		if c.processLine(line) {
			c.done = true
			return
		}
	}
}

// finish handles a final line without a trailing newline.
func (c *tagCapture) finish() {
	if !c.done && c.pending != "" {
		c.processLine(c.pending)
		c.pending = ""
	}
}

func (c *tagCapture) processLine(line string) (terminated bool) {
	trimmed := strings.TrimSpace(line)
	for _, terminator := range preambleTerminators {
		if strings.HasPrefix(trimmed, terminator) {
			return true
		}
	}
	m := reTagLine.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	lower := strings.ToLower(m[1])
	if !capturedTags.Contains(lower) {
		return false
	}
	value := m[2]
	_ = c.reg.Define(lower, value)
	_ = c.reg.Define(strings.ToUpper(lower), value)
	if c.hooks != nil {
		c.hooks.TagFound(lower, value, m[1])
	}
	return false
}
