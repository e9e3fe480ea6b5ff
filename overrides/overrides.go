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

// Package overrides applies per-distribution macro override tables to a
// registry. A table maps macro names to a list of candidate definitions,
// each valid for a set of tags (distribution names); applying a tag
// undefines every listed macro and re-defines the ones matching the tag.
package overrides

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/specware/rpmmacro/macro"
)

// Definition is the macro body carried by an override, with the optional
// parametric spec.
type Definition struct {
	Value  string  `json:"value" yaml:"value"`
	Params *string `json:"params" yaml:"params"`
}

// Entry is one override candidate: the definition (nil means "leave the
// macro undefined") and the tags it applies to.
type Entry struct {
	Definition *Definition `json:"definition" yaml:"definition"`
	Tags       []string    `json:"tags" yaml:"tags"`
}

// Table maps macro names to their override candidates.
type Table map[string][]Entry

// Load reads an override table from a JSON or YAML file, chosen by
// extension (.yaml/.yml, everything else parses as JSON).
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var table Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &table)
	default:
		err = json.Unmarshal(data, &table)
	}
	if err != nil {
		return nil, fmt.Errorf("override table %s: %w", path, err)
	}
	return table, nil
}

// Apply returns a copy of the registry with the tag's overrides applied.
// Every macro named by the table is undefined first, no matter whether the
// tag selects a replacement: a definition inherited from the host is wrong
// for any other distribution. An unknown tag is reported once via the
// standard logger and leaves the affected macros undefined.
func Apply(reg *macro.Registry, table Table, tag string) *macro.Registry {
	result := reg.Clone()

	warned := false
	names := slices.Sorted(slices.Values(keys(table)))
	for _, name := range names {
		result.Clear(name)
		found := false
		for _, entry := range table[name] {
			if !slices.Contains(entry.Tags, tag) {
				continue
			}
			found = true
			if entry.Definition == nil {
				continue
			}
			if entry.Definition.Params != nil {
				_ = result.DefineParametric(name, entry.Definition.Value, *entry.Definition.Params)
			} else {
				_ = result.Define(name, entry.Definition.Value)
			}
		}
		if !found && !warned {
			warned = true
			log.Printf("tag %q is not covered by the override table, macros may have unexpected values", tag)
		}
	}
	return result
}

func keys(table Table) []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	return names
}
