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

// Package metaindex reads and writes meta-index files: coarse per-directory
// summaries of which name prefixes each JAR can contain, used to skip
// opening JARs that cannot hold a requested resource.
package metaindex

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"
)

// FileName is the name of the meta-index file inside a directory.
const FileName = "meta-index"

// Version is the only header line accepted. Files with any other first line
// are ignored.
const Version = "% VERSION 2"

// Section markers.
const (
	markerClassOnly    = '!'
	markerResourceOnly = '@'
	markerMixed        = '#'
	markerComment      = '%'
)

// Index answers whether a JAR might contain a name. It never reports false
// for a name the JAR holds; it may report true for names it does not.
type Index struct {
	prefixes  []string
	classOnly bool
}

// NewIndex returns an index over prefixes. When classOnly is set the JAR is
// known to hold only ".class" files.
func NewIndex(prefixes []string, classOnly bool) *Index {
	return &Index{prefixes: slices.Clone(prefixes), classOnly: classOnly}
}

// MayContain reports whether name might be present in the JAR.
func (ix *Index) MayContain(name string) bool {
	if ix.classOnly && !strings.HasSuffix(name, ".class") {
		return false
	}

	for _, p := range ix.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}

	return false
}

// ClassOnly reports whether the JAR holds only class files.
func (ix *Index) ClassOnly() bool {
	return ix.classOnly
}

// Prefixes returns a copy of the recorded prefixes.
func (ix *Index) Prefixes() []string {
	return slices.Clone(ix.prefixes)
}

// Entry is one JAR section of a meta-index file.
type Entry struct {
	// Jar is the JAR file name relative to the directory holding the
	// meta-index.
	Jar string
	// ResourceOnly marks JARs without any class files. It only affects the
	// section marker that is written.
	ResourceOnly bool
	Index        *Index
}

func (e Entry) marker() byte {
	switch {
	case e.Index.classOnly:
		return markerClassOnly
	case e.ResourceOnly:
		return markerResourceOnly
	default:
		return markerMixed
	}
}

// Parse reads a meta-index. If the first line is not exactly Version the
// file is ignored and Parse returns no entries and no error. Sections
// without any prefix are dropped.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return nil, scanner.Err()
	}
	if scanner.Text() != Version {
		return nil, nil
	}

	var entries []Entry
	var cur *Entry
	flush := func() {
		if cur != nil && len(cur.Index.prefixes) > 0 {
			entries = append(entries, *cur)
		}
		cur = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		switch line[0] {
		case markerClassOnly, markerResourceOnly, markerMixed:
			flush()
			name := ""
			if len(line) > 2 {
				name = line[2:]
			}
			cur = &Entry{
				Jar:          name,
				ResourceOnly: line[0] == markerResourceOnly,
				Index:        &Index{classOnly: line[0] == markerClassOnly},
			}
		case markerComment:
		default:
			if cur != nil {
				cur.Index.prefixes = append(cur.Index.prefixes, line)
			}
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// Write writes entries in the meta-index format.
func Write(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, Version)
	fmt.Fprintln(bw, "% generated by jarpath; do not edit")

	for _, e := range entries {
		fmt.Fprintf(bw, "%c %s\n", e.marker(), e.Jar)
		for _, p := range e.Index.prefixes {
			fmt.Fprintln(bw, p)
		}
	}

	return bw.Flush()
}
