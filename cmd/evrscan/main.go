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
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/specware/rpmmacro/macro"
	"github.com/specware/rpmmacro/macrofile"
	"github.com/specware/rpmmacro/specfile"
)

// Extracts "name:epoch:version" from every spec file matching the given
// glob, expanding each file against the host macro definitions. One line is
// printed per file, sorted by file name; parse failures yield an error
// marker instead of a version so batch comparisons stay line-aligned.
func main() {
	macrosGlob := flag.String("macros", "", "Load macro files matching this glob instead of the system locations")
	jobs := flag.Int("jobs", runtime.NumCPU(), "Number of spec files expanded in parallel")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatal("exactly one spec-file glob is required, e.g. '/rpm-specs/*.spec'")
	}

	base := macro.NewRegistry()
	if *macrosGlob != "" {
		if err := macrofile.LoadGlob(*macrosGlob, base); err != nil {
			log.Fatalf("loading macros: %v", err)
		}
	} else if err := macrofile.LoadSystem(base); err != nil {
		log.Printf("loading system macros: %v", err)
	}
	_ = base.Define("dist", "")
	base.KnownHacks()

	specs, err := doublestar.FilepathGlob(flag.Arg(0))
	if err != nil {
		log.Fatalf("bad glob %q: %v", flag.Arg(0), err)
	}
	slices.Sort(specs)

	var mu sync.Mutex
	results := make(map[string]string, len(specs))

	var group errgroup.Group
	group.SetLimit(max(*jobs, 1))
	for _, spec := range specs {
		group.Go(func() error {
			// Definitions must not leak between spec files, and a
			// Registry is single-owner: every worker gets its own clone.
			line := scanOne(spec, base.Clone())
			mu.Lock()
			results[spec] = line
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		log.Fatal(err)
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Println(results[name])
	}
}

func scanOne(path string, reg *macro.Registry) string {
	basename := filepath.Base(path)
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("%s:error reading: %v", basename, err)
	}
	if _, err := specfile.Expand(string(content), reg); err != nil {
		return fmt.Sprintf("%s:%v", basename, err)
	}

	epoch := "(none)"
	if reg.Contains("epoch") {
		if value, err := specfile.ExpandString("%epoch", reg); err == nil {
			epoch = value
		}
	}
	version := ""
	if value, err := specfile.ExpandString("%version", reg); err == nil {
		version = value
	}
	return fmt.Sprintf("%s:%s:%s", basename, epoch, version)
}
