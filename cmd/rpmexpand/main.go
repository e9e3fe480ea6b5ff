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

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/specware/rpmmacro/macro"
	"github.com/specware/rpmmacro/macrofile"
	"github.com/specware/rpmmacro/overrides"
	"github.com/specware/rpmmacro/specfile"
)

// Expands an RPM spec file using the host's macro definitions (or an
// explicit macro source) and prints the result. With -expand-string the
// spec file is still interpreted for its side effects, but only the extra
// string's expansion is printed.
func main() {
	specPath := flag.String("specfile", "", "RPM spec file to expand (required)")
	expandString := flag.String("expand-string", "", "Interpret the spec file first, then print only this string's expansion")
	macrosGlob := flag.String("macros", "", "Load macro files matching this glob instead of the system locations")
	archivePath := flag.String("archive", "", "Additionally load macro files from this tarball")
	overridesPath := flag.String("overrides", "", "Apply a JSON/YAML macro override table")
	tag := flag.String("tag", "", "Distribution tag selecting the override entries")
	flag.Parse()

	if *specPath == "" {
		flag.Usage()
		log.Fatal("-specfile is required")
	}

	registry := macro.NewRegistry()
	if *macrosGlob != "" {
		if err := macrofile.LoadGlob(*macrosGlob, registry); err != nil {
			log.Fatalf("loading macros: %v", err)
		}
	} else if err := macrofile.LoadSystem(registry); err != nil {
		log.Printf("loading system macros: %v", err)
	}
	if *archivePath != "" {
		if err := macrofile.LoadArchive(*archivePath, registry); err != nil {
			log.Fatalf("loading macro archive: %v", err)
		}
	}
	_ = registry.Define("dist", "")
	registry.KnownHacks()
	// Overrides apply last: their entries undefine and redefine on top of
	// whatever the host macros and compatibility hacks seeded.
	if *overridesPath != "" {
		table, err := overrides.Load(*overridesPath)
		if err != nil {
			log.Fatalf("loading overrides: %v", err)
		}
		registry = overrides.Apply(registry, table, *tag)
	}

	content, err := os.ReadFile(*specPath)
	if err != nil {
		log.Fatalf("reading spec file: %v", err)
	}
	expanded, err := specfile.Expand(string(content), registry)
	if err != nil {
		var recursion *specfile.RecursionError
		if errors.As(err, &recursion) {
			log.Fatalf("expanding %s: %v", *specPath, err)
		}
		log.Fatalf("%s: %v", *specPath, err)
	}

	if *expandString != "" {
		query := *expandString
		if !strings.HasSuffix(query, "\n") {
			query += "\n"
		}
		result, err := specfile.ExpandString(query, registry)
		if err != nil {
			log.Fatalf("expanding string: %v", err)
		}
		fmt.Print(result)
		return
	}
	fmt.Print(expanded)
}
