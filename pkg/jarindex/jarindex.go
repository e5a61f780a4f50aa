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

// Package jarindex implements the META-INF/INDEX.LIST jar index: a map from
// package names to the JARs that contain them, used to find classes and
// resources across a set of JARs without opening each one.
package jarindex

import (
	"archive/zip"
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"slices"
	"strings"
	"sync"
)

const (
	// IndexName is the location of the index inside a JAR.
	IndexName = "META-INF/INDEX.LIST"

	versionPrefix = "JarIndex-Version:"
	versionHeader = versionPrefix + " 1.0"
)

var ErrMalformedIndex = errors.New("malformed jar index")

// JarIndex maps package names (and, optionally, full META-INF file names)
// to JAR names, and each JAR name back to the keys it was recorded under.
// Lists keep insertion order and never hold duplicates.
type JarIndex struct {
	mu sync.RWMutex

	indexMap map[string][]string
	keys     []string
	jarMap   map[string][]string
	jars     []string

	metaInfFilenames bool
}

// Option configures a JarIndex.
type Option func(*JarIndex)

// WithMetaInfFilenames indexes files below META-INF/ by their full name
// rather than by their directory, so that service descriptors and similar
// files can be located precisely.
func WithMetaInfFilenames() Option {
	return func(x *JarIndex) {
		x.metaInfFilenames = true
	}
}

// New returns an empty index.
func New(opts ...Option) *JarIndex {
	x := &JarIndex{
		indexMap: make(map[string][]string),
		jarMap:   make(map[string][]string),
	}
	for _, opt := range opts {
		opt(x)
	}

	return x
}

// packageOf returns the part of name before its last "/", or name itself.
func packageOf(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[:i]
	}

	return name
}

// Get returns the JARs recorded for name. When name itself has no entry the
// JARs of its package are returned. The result is nil when neither is known.
func (x *JarIndex) Get(name string) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if jars, ok := x.indexMap[name]; ok {
		return slices.Clone(jars)
	}
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		if jars, ok := x.indexMap[name[:i]]; ok {
			return slices.Clone(jars)
		}
	}

	return nil
}

// Add records that jar contains fileName, under fileName's package.
func (x *JarIndex) Add(fileName, jar string) {
	x.AddMapping(packageOf(fileName), jar)
}

// AddMapping records key under jar and jar under key.
func (x *JarIndex) AddMapping(key, jar string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.addMapping(key, jar)
}

func (x *JarIndex) addMapping(key, jar string) {
	x.addJar(jar)

	if list, ok := x.indexMap[key]; !ok {
		x.keys = append(x.keys, key)
		x.indexMap[key] = []string{jar}
	} else if !slices.Contains(list, jar) {
		x.indexMap[key] = append(list, jar)
	}

	if list := x.jarMap[jar]; !slices.Contains(list, key) {
		x.jarMap[jar] = append(list, key)
	}
}

// AddJar records jar with no contents, so that it is written even when
// empty.
func (x *JarIndex) AddJar(jar string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.addJar(jar)
}

func (x *JarIndex) addJar(jar string) {
	if _, ok := x.jarMap[jar]; !ok {
		x.jars = append(x.jars, jar)
		x.jarMap[jar] = nil
	}
}

// skipEntry reports whether a JAR entry is left out of the index.
func skipEntry(name string) bool {
	return name == "META-INF/" ||
		name == IndexName ||
		name == "META-INF/MANIFEST.MF" ||
		strings.HasPrefix(name, "META-INF/versions/")
}

// addEntry records one archive entry of jar.
func (x *JarIndex) addEntry(name, jar string) {
	if skipEntry(name) {
		return
	}
	if !x.metaInfFilenames || !strings.HasPrefix(name, "META-INF/") {
		x.addMapping(packageOf(name), jar)
		return
	}
	if !strings.HasSuffix(name, "/") {
		x.addMapping(name, jar)
	}
}

// AddArchive records every entry of the opened archive under the name jar.
func (x *JarIndex) AddArchive(jar string, zr *zip.Reader) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.addJar(jar)
	for _, f := range zr.File {
		x.addEntry(f.Name, jar)
	}
}

// JarFiles returns the JAR names in the order they were first recorded.
func (x *JarIndex) JarFiles() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return slices.Clone(x.jars)
}

// Packages returns every key in the order it was first recorded.
func (x *JarIndex) Packages() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return slices.Clone(x.keys)
}

// PackagesOf returns the keys recorded for jar.
func (x *JarIndex) PackagesOf(jar string) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return slices.Clone(x.jarMap[jar])
}

// Merge adds every mapping of x to dst, prefixing each JAR name with
// relPath. relPath is the location of x's JAR relative to dst's and is
// usually empty or ends in "/".
func (x *JarIndex) Merge(dst *JarIndex, relPath string) {
	type mapping struct{ key, jar string }

	x.mu.RLock()
	var pending []mapping
	for _, key := range x.keys {
		for _, jar := range x.indexMap[key] {
			pending = append(pending, mapping{key, relPath + jar})
		}
	}
	x.mu.RUnlock()

	dst.mu.Lock()
	defer dst.mu.Unlock()

	for _, m := range pending {
		dst.addMapping(m.key, m.jar)
	}
}

// Write writes the index in the INDEX.LIST format.
func (x *JarIndex) Write(w io.Writer) error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	bw := bufio.NewWriter(w)
	bw.WriteString(versionHeader + "\n\n")
	for _, jar := range x.jars {
		bw.WriteString(jar + "\n")
		for _, key := range x.jarMap[jar] {
			bw.WriteString(key + "\n")
		}
		bw.WriteString("\n")
	}

	return bw.Flush()
}

// Read parses an index in the INDEX.LIST format. The first non-blank line
// must be the version header. Header lines continue until a blank line;
// after that each line ending in ".jar" starts a section and the following
// lines name its packages.
func Read(r io.Reader, opts ...Option) (*JarIndex, error) {
	x := New(opts...)
	scanner := bufio.NewScanner(r)

	inHeader, sawVersion := true, false
	current := ""
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if inHeader {
			switch {
			case line == "" && sawVersion:
				inHeader = false
			case line == "":
			case !sawVersion && !strings.HasPrefix(line, versionPrefix):
				return nil, fmt.Errorf("%w: line %d: missing %s header", ErrMalformedIndex, lineNo, versionPrefix)
			default:
				sawVersion = true
			}

			continue
		}

		switch {
		case line == "":
		case strings.HasSuffix(line, ".jar"):
			current = line
			x.addJar(current)
		case current == "":
			return nil, fmt.Errorf("%w: line %d: %q appears before any jar", ErrMalformedIndex, lineNo, line)
		default:
			x.addMapping(line, current)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !sawVersion {
		return nil, fmt.Errorf("%w: missing %s header", ErrMalformedIndex, versionPrefix)
	}

	return x, nil
}

// FromJAR reads META-INF/INDEX.LIST from an opened JAR. It returns nil and
// no error when the JAR has no index.
func FromJAR(zr *zip.Reader, opts ...Option) (*JarIndex, error) {
	f, err := zr.Open(IndexName)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f, opts...)
}
