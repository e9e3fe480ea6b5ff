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

package macrofile

import (
	"archive/tar"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ulikunitz/xz"

	"github.com/specware/rpmmacro/macro"
)

// SystemGlobs are the default locations of macro definition files on an
// rpm-based host, in load order. Later files override earlier ones through
// the registry's redefinition stacking.
var SystemGlobs = []string{
	"/usr/lib/rpm/macros",
	"/usr/lib/rpm/macros.d/macros.*",
	"/etc/rpm/macros.*",
	"/etc/rpm/macros",
}

// LoadFile parses a single macro file into the registry.
func LoadFile(path string, reg *macro.Registry) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	Parse(string(data), reg, false)
	return nil
}

// LoadGlob parses every file matching the doublestar pattern, in sorted
// order so that the override order is stable.
func LoadGlob(pattern string, reg *macro.Registry) error {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return fmt.Errorf("bad macro file pattern %q: %w", pattern, err)
	}
	slices.Sort(matches)
	var errs []error
	for _, path := range matches {
		if err := LoadFile(path, reg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadSystem builds a registry from the host's macro files (SystemGlobs
// plus the user's ~/.rpmmacros). Missing locations are not an error; a
// host without rpm simply yields fewer definitions.
func LoadSystem(reg *macro.Registry) error {
	patterns := slices.Clone(SystemGlobs)
	if home, err := os.UserHomeDir(); err == nil {
		patterns = append(patterns, filepath.Join(home, ".rpmmacros"))
	}
	var errs []error
	for _, pattern := range patterns {
		if err := LoadGlob(pattern, reg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadArchive parses every regular file inside a macro-file tarball
// (.tar, .tar.gz/.tgz, .tar.xz or .tar.bz2), in archive order. Distribution
// macro sets commonly ship as such archives.
func LoadArchive(path string, reg *macro.Registry) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var reader io.Reader = f
	switch name := strings.ToLower(filepath.Base(path)); {
	case strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz"):
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gzr.Close()
		reader = gzr
	case strings.HasSuffix(name, ".tar.xz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			return err
		}
		reader = xzr
	case strings.HasSuffix(name, ".tar.bz2"):
		reader = bzip2.NewReader(f)
	case strings.HasSuffix(name, ".tar"):
	default:
		return fmt.Errorf("unsupported macro archive: %s", name)
	}

	tr := tar.NewReader(reader)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return fmt.Errorf("reading %s from %s: %w", header.Name, path, err)
		}
		Parse(string(data), reg, false)
	}
}
