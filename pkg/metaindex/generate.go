// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metaindex

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

const maxGoroutines = 4

// prefixDepth is how many directory levels a generated prefix keeps.
const prefixDepth = 2

// Build scans the named JARs in dir and returns one entry per JAR in the
// order given. With no names, every "*.jar" file in dir is scanned in name
// order. JARs whose contents cannot be summarised soundly are left out, so
// they are always opened.
func Build(ctx context.Context, dir string, jars []string) ([]Entry, error) {
	if len(jars) == 0 {
		matches, err := filepath.Glob(filepath.Join(dir, "*.jar"))
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			jars = append(jars, filepath.Base(m))
		}
		slices.Sort(jars)
	}

	results := make([]*Entry, len(jars))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(maxGoroutines)

	for i, name := range jars {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			e, err := scanJar(filepath.Join(dir, filepath.FromSlash(name)))
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if e == nil {
				return nil
			}
			e.Jar = filepath.ToSlash(name)
			results[i] = e

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	var entries []Entry
	for _, e := range results {
		if e != nil {
			entries = append(entries, *e)
		}
	}

	return entries, nil
}

func scanJar(path string) (*Entry, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	seen := make(map[string]bool)
	var prefixes []string
	classes, others := 0, 0

	for _, f := range rc.File {
		if f.Name == "" {
			continue
		}
		// directory entries resolve like any other name
		if strings.HasSuffix(f.Name, ".class") {
			classes++
		} else {
			others++
		}

		p := prefixOf(f.Name)
		if strings.ContainsAny(p[:1], "!@#%") {
			// would be read back as a section marker or comment
			return nil, nil
		}
		if !seen[p] {
			seen[p] = true
			prefixes = append(prefixes, p)
		}
	}

	if len(prefixes) == 0 {
		return nil, nil
	}
	slices.Sort(prefixes)

	return &Entry{
		ResourceOnly: classes == 0,
		Index:        &Index{prefixes: prefixes, classOnly: others == 0},
	}, nil
}

// prefixOf returns the first prefixDepth directories of name including the
// trailing slash, or name itself when it has no directory. A directory entry
// shallower than prefixDepth is its own prefix.
func prefixOf(name string) string {
	end := 0
	for range prefixDepth {
		i := strings.IndexByte(name[end:], '/')
		if i < 0 {
			break
		}
		end += i + 1
	}
	if end == 0 {
		return name
	}

	return name[:end]
}

// Generate builds the meta-index for dir and writes it to dir/meta-index.
// It returns the written entries.
func Generate(ctx context.Context, dir string, jars []string) ([]Entry, error) {
	entries, err := Build(ctx, dir, jars)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := Write(&buf, entries); err != nil {
		return nil, err
	}

	if err := os.WriteFile(filepath.Join(dir, FileName), buf.Bytes(), 0o644); err != nil {
		return nil, err
	}

	return entries, nil
}
