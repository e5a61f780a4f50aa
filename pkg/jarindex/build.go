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

package jarindex

import (
	"archive/zip"
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/jarpath/internal/uniqueq"
	"github.com/google/jarpath/pkg/manifest"
	"golang.org/x/sync/errgroup"
)

const maxGoroutines = 4

// BuildFromFiles indexes the JARs named by files, which are slash-separated
// paths relative to dir. The names are recorded as given and in the given
// order, regardless of the order the archives finish scanning in.
func BuildFromFiles(ctx context.Context, dir string, files []string, opts ...Option) (*JarIndex, error) {
	entries := make([][]string, len(files))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(maxGoroutines)

	for i, name := range files {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			names, err := entryNames(filepath.Join(dir, filepath.FromSlash(name)))
			if err != nil {
				return fmt.Errorf("indexing %s: %w", name, err)
			}
			entries[i] = names

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	x := New(opts...)
	for i, name := range files {
		x.addJar(name)
		for _, e := range entries[i] {
			x.addEntry(e, name)
		}
	}

	return x, nil
}

func entryNames(path string) ([]string, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	names := make([]string, 0, len(rc.File))
	for _, f := range rc.File {
		names = append(names, f.Name)
	}

	return names, nil
}

// ClassPathClosure follows the Class-Path manifest attributes starting at
// rootJar and returns every reachable JAR, breadth first, as slash-separated
// names relative to rootJar's directory. rootJar itself comes first.
// Class-Path entries naming directories or URLs, and JARs that cannot be
// opened, are skipped.
func ClassPathClosure(ctx context.Context, rootJar string) ([]string, error) {
	dir := filepath.Dir(rootJar)
	q := uniqueq.New[string, struct{}](nil)
	q.Push(filepath.Base(rootJar), struct{}{})

	var files []string
	for !q.Empty() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name, _ := q.Pop()
		m, err := readManifest(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			if len(files) == 0 {
				return nil, err
			}
			slog.Warn("skipping class path entry", "jar", name, "error", err)

			continue
		}
		files = append(files, name)

		if m == nil {
			continue
		}

		base := path.Dir(name)
		for _, entry := range m.ClassPath() {
			if strings.HasSuffix(entry, "/") || strings.Contains(entry, ":") {
				continue
			}
			q.Push(path.Join(base, entry), struct{}{})
		}
	}

	return files, nil
}

func readManifest(path string) (*manifest.Manifest, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return manifest.FromJAR(&rc.Reader)
}

// Build indexes rootJar together with every JAR reachable through its
// Class-Path attributes.
func Build(ctx context.Context, rootJar string, opts ...Option) (*JarIndex, error) {
	files, err := ClassPathClosure(ctx, rootJar)
	if err != nil {
		return nil, err
	}

	return BuildFromFiles(ctx, filepath.Dir(rootJar), files, opts...)
}
