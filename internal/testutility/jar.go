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

package testutility

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/jarpath/internal/jarwriter"
)

// JAR returns the bytes of an archive holding files. Entries are written in
// name order; names ending in "/" become directory entries.
func JAR(t *testing.T, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	entries := make([]jarwriter.Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, jarwriter.Entry{Name: name, Data: []byte(files[name])})
	}

	var buf bytes.Buffer
	if err := jarwriter.Write(&buf, entries); err != nil {
		t.Fatalf("failed to build jar: %v", err)
	}

	return buf.Bytes()
}

// WriteJAR writes an archive holding files to path, creating any parent
// directories, and returns path.
func WriteJAR(t *testing.T, path string, files map[string]string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, JAR(t, files), 0o600); err != nil {
		t.Fatalf("failed to write jar: %v", err)
	}

	return path
}

// WriteTree writes files below dir, creating directories as needed. Names
// ending in "/" create empty directories.
func WriteTree(t *testing.T, dir string, files map[string]string) string {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if strings.HasSuffix(name, "/") {
			if err := os.MkdirAll(path, 0o755); err != nil {
				t.Fatalf("failed to create directory: %v", err)
			}

			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}

	return dir
}
