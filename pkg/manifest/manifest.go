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

// Package manifest parses JAR manifests (META-INF/MANIFEST.MF).
package manifest

import (
	"archive/zip"
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
)

// Path is the location of the manifest inside a JAR.
const Path = "META-INF/MANIFEST.MF"

// Well known main attributes.
const (
	AttrClassPath       = "Class-Path"
	AttrMainClass       = "Main-Class"
	AttrExtensionList   = "Extension-List"
	AttrManifestVersion = "Manifest-Version"

	// startClass is Spring Boot specific metadata.
	startClass = "Start-Class"
)

// ErrMalformed is returned for manifests that cannot be parsed.
var ErrMalformed = errors.New("malformed manifest")

// Attributes is an ordered set of manifest headers. Names compare case
// insensitively, as they do in the JAR format.
type Attributes struct {
	names  []string
	values map[string]string
}

// Set adds or replaces a header.
func (a *Attributes) Set(name, value string) {
	if a.values == nil {
		a.values = map[string]string{}
	}
	key := strings.ToLower(name)
	if _, ok := a.values[key]; !ok {
		a.names = append(a.names, name)
	}
	a.values[key] = value
}

// Lookup returns the value of a header and whether it is present.
func (a Attributes) Lookup(name string) (string, bool) {
	v, ok := a.values[strings.ToLower(name)]
	return v, ok
}

// Get returns the value of a header, or "" if absent.
func (a Attributes) Get(name string) string {
	v, _ := a.Lookup(name)
	return v
}

// Names returns header names in the order they first appeared.
func (a Attributes) Names() []string {
	return append([]string(nil), a.names...)
}

// Len returns the number of headers.
func (a Attributes) Len() int {
	return len(a.names)
}

// Manifest holds the main section and the per-entry sections.
type Manifest struct {
	Main    Attributes
	Entries map[string]Attributes
}

// Parse reads a manifest. The first section holds the main attributes;
// every later section must start with a Name header. Long values may be
// wrapped onto continuation lines starting with a single space.
func Parse(r io.Reader) (*Manifest, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var sections []*Attributes
	var cur *Attributes
	var last string
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		switch {
		case line == "":
			cur, last = nil, ""
		case strings.HasPrefix(line, " "):
			if cur == nil || last == "" {
				return nil, fmt.Errorf("%w: line %d: continuation without header", ErrMalformed, lineNo)
			}
			cur.Set(last, cur.Get(last)+line[1:])
		default:
			name, value, ok := strings.Cut(line, ":")
			if !ok || name == "" || strings.ContainsAny(name, " \t") {
				return nil, fmt.Errorf("%w: line %d: invalid header %q", ErrMalformed, lineNo, line)
			}
			if cur == nil {
				cur = &Attributes{}
				sections = append(sections, cur)
			}
			cur.Set(name, strings.TrimPrefix(value, " "))
			last = name
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	m := &Manifest{Entries: map[string]Attributes{}}
	for i, sec := range sections {
		if i == 0 {
			m.Main = *sec
			continue
		}
		name, ok := sec.Lookup("Name")
		if !ok {
			return nil, fmt.Errorf("%w: section %d has no Name", ErrMalformed, i)
		}
		m.Entries[name] = *sec
	}

	return m, nil
}

// FromJAR reads the manifest of an opened JAR. It returns nil without an
// error when the JAR has no manifest.
func FromJAR(zr *zip.Reader) (*Manifest, error) {
	f, err := zr.Open(Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

// ClassPath returns the whitespace separated relative URLs of the
// Class-Path main attribute.
func (m *Manifest) ClassPath() []string {
	return strings.Fields(m.Main.Get(AttrClassPath))
}

// MainClasses returns the application entry points in internal form. The
// Spring Boot Start-Class is reported after Main-Class.
func (m *Manifest) MainClasses() []string {
	var classes []string
	for _, name := range []string{AttrMainClass, startClass} {
		if class := strings.TrimSpace(m.Main.Get(name)); class != "" {
			classes = append(classes, strings.ReplaceAll(class, ".", "/"))
		}
	}

	return classes
}
