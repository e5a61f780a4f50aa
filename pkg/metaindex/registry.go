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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Registry maps canonical JAR paths to the meta-index entries registered
// for their directories.
type Registry struct {
	mu   sync.RWMutex
	jars map[string]*Index
	dirs map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		jars: make(map[string]*Index),
		dirs: make(map[string]bool),
	}
}

// RegisterDirectory reads dir's meta-index, if any, and records an Index for
// each JAR it lists. A missing file or an unrecognised version registers
// nothing. Registering the same directory again is a no-op.
func (r *Registry) RegisterDirectory(dir string) error {
	canonDir := Canonical(dir)

	r.mu.RLock()
	done := r.dirs[canonDir]
	r.mu.RUnlock()
	if done {
		return nil
	}

	f, err := os.Open(filepath.Join(canonDir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		r.markDone(canonDir)
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	entries, err := Parse(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", f.Name(), err)
	}
	if entries == nil {
		slog.Debug("ignoring meta-index", "dir", canonDir)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.dirs[canonDir] = true
	for _, e := range entries {
		r.jars[Canonical(filepath.Join(canonDir, filepath.FromSlash(e.Jar)))] = e.Index
	}

	return nil
}

func (r *Registry) markDone(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dirs[dir] = true
}

// ForJar returns the Index registered for the JAR at path, or nil.
func (r *Registry) ForJar(path string) *Index {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.jars[Canonical(path)]
}

// Len returns the number of JARs with a registered Index.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.jars)
}

// Canonical returns an absolute, symlink-free form of path. Components that
// do not exist are kept as written below the nearest resolvable parent.
func Canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}

	parent := filepath.Dir(abs)
	if parent == abs {
		return abs
	}

	return filepath.Join(Canonical(parent), filepath.Base(abs))
}
