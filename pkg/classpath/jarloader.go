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

package classpath

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	urlutil "github.com/google/jarpath/internal/url"
	"github.com/google/jarpath/pkg/jarindex"
	"github.com/google/jarpath/pkg/manifest"
	"github.com/google/jarpath/pkg/metaindex"
)

// jarLoader serves the entries of one JAR. The archive is opened on first
// use when a meta-index is available for it, and immediately otherwise.
type jarLoader struct {
	r    *Resolver
	csu  *url.URL
	path string // local file, empty for remote JARs
	meta *metaindex.Index

	mu       sync.Mutex
	opened   bool
	openErr  error
	rc       *zip.ReadCloser
	entries  map[string]*zip.File
	index    *jarindex.JarIndex
	tempFile string

	manifest func() (*manifest.Manifest, error)
}

func (r *Resolver) newJarLoader(ctx context.Context, u *url.URL) (*jarLoader, error) {
	l := &jarLoader{r: r, csu: u}
	l.manifest = sync.OnceValues(l.readManifest)

	switch u.Scheme {
	case "file":
		path, err := urlutil.ToFilePath(u)
		if err != nil {
			return nil, err
		}
		l.path = path
		l.meta = r.metaIndex.ForJar(path)
		// a meta-index entry for a JAR that is not installed is ignored
		if l.meta != nil {
			if _, err := os.Stat(path); err != nil {
				l.meta = nil
			}
		}
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedScheme, u)
	}

	if l.meta == nil {
		if err := l.ensureOpen(ctx); err != nil {
			return nil, err
		}
	}

	return l, nil
}

func (l *jarLoader) baseURL() *url.URL {
	return l.csu
}

// ensureOpen opens the archive and loads its index, reserving every JAR the
// index names so the resolver does not open them as separate entries.
func (l *jarLoader) ensureOpen(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.opened {
		return l.openErr
	}

	l.openErr = l.open(ctx)
	// cancellation is retried on the next lookup
	if l.openErr != nil && ctx.Err() != nil {
		return l.openErr
	}
	l.opened = true

	return l.openErr
}

func (l *jarLoader) open(ctx context.Context) error {
	path := l.path
	if path == "" {
		tmp, err := download(ctx, l.r.client, l.csu)
		if err != nil {
			return err
		}
		l.tempFile = tmp
		path = tmp
	}

	rc, err := zip.OpenReader(path)
	if err != nil {
		return err
	}

	entries := make(map[string]*zip.File, len(rc.File))
	for _, f := range rc.File {
		if _, dup := entries[f.Name]; !dup {
			entries[f.Name] = f
		}
	}

	var index *jarindex.JarIndex
	if l.meta == nil || l.meta.MayContain(jarindex.IndexName) {
		index, err = jarindex.FromJAR(&rc.Reader)
		if err != nil {
			rc.Close()
			return fmt.Errorf("%s: %w", l.csu, err)
		}
	}

	l.rc = rc
	l.entries = entries
	l.index = index

	if index != nil {
		for _, jar := range index.JarFiles() {
			u, err := l.csu.Parse(jar)
			if err != nil {
				continue
			}
			l.r.lmap.reserve(urlKey(u))
		}
	}

	return nil
}

// download copies a remote JAR into a temporary file and returns its path.
func download(ctx context.Context, client *http.Client, u *url.URL) (string, error) {
	body, err := fetch(ctx, client, u)
	if err != nil {
		return "", err
	}
	defer body.Close()

	f, err := os.CreateTemp("", "jarpath-*.jar")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(f.Name())

		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}

func (l *jarLoader) entry(name string) *zip.File {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.entries[name]
}

func (l *jarLoader) getIndex() *jarindex.JarIndex {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.index
}

func (l *jarLoader) resource(name string, f *zip.File) *Resource {
	return &Resource{
		Name:          name,
		URL:           &url.URL{Scheme: "jar", Opaque: l.csu.String() + "!/" + name},
		CodeSourceURL: l.csu,
		ContentLength: int64(f.UncompressedSize64),
		open: func(context.Context) (io.ReadCloser, error) {
			return f.Open()
		},
		manifest: l.manifest,
	}
}

func (l *jarLoader) getResource(ctx context.Context, name string) (*Resource, error) {
	if l.meta != nil && !l.meta.MayContain(name) {
		return nil, nil
	}

	if err := l.ensureOpen(ctx); err != nil {
		return nil, l.openFailed(ctx, err)
	}

	if f := l.entry(name); f != nil {
		return l.resource(name, f), nil
	}
	if l.getIndex() == nil {
		return nil, nil
	}

	return l.getIndexedResource(ctx, name, make(map[string]bool))
}

// openFailed decides whether a failure to open the archive stops the
// lookup. Only cancellation and malformed indexes do.
func (l *jarLoader) openFailed(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, jarindex.ErrMalformedIndex) {
		return err
	}
	slog.Debug("cannot open jar", "jar", l.csu.String(), "error", err)

	return nil
}

// getIndexedResource follows the JAR index to the JARs that may hold name.
// visited holds the keys of JARs already searched during this lookup.
func (l *jarLoader) getIndexedResource(ctx context.Context, name string, visited map[string]bool) (*Resource, error) {
	index := l.getIndex()
	jars := index.Get(name)
	if jars == nil {
		return nil, nil
	}

	count := 0
	for {
		for count < len(jars) {
			jarName := jars[count]
			count++

			u, err := l.csu.Parse(jarName)
			if err != nil {
				continue
			}
			key := urlKey(u)

			nl, err := l.indexedLoader(ctx, key, u, jarName)
			if err != nil {
				return nil, err
			}
			if nl == nil {
				continue
			}

			firstVisit := !visited[key]
			visited[key] = true

			if firstVisit {
				if err := nl.ensureOpen(ctx); err != nil {
					if err := nl.openFailed(ctx, err); err != nil {
						return nil, err
					}

					continue
				}
				if f := nl.entry(name); f != nil {
					return nl.resource(name, f), nil
				}
				if !nl.validIndex(name) {
					invalid := &InvalidIndexError{Index: l.csu.String(), Jar: u.String(), Name: name}
					if l.r.policy == Abort {
						return nil, invalid
					}
					slog.Warn("ignoring invalid jar index entry", "error", invalid.Error())

					continue
				}
			}

			if !firstVisit || nl == l || nl.getIndex() == nil {
				continue
			}

			res, err := nl.getIndexedResource(ctx, name, visited)
			if res != nil || err != nil {
				return res, err
			}
		}

		// merging may have added candidates
		jars = index.Get(name)
		if count >= len(jars) {
			return nil, nil
		}
	}
}

// indexedLoader returns the loader for a JAR named by this loader's index,
// creating it if needed. A newly created loader's own index is merged into
// this one relative to jarName. It returns nil when the JAR cannot be
// opened or is not a JAR.
func (l *jarLoader) indexedLoader(ctx context.Context, key string, u *url.URL, jarName string) (*jarLoader, error) {
	if existing := l.r.lmap.get(key); existing != nil {
		jl, _ := existing.(*jarLoader)
		return jl, nil
	}

	nl, err := l.r.newJarLoader(ctx, u)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, jarindex.ErrMalformedIndex) {
			return nil, err
		}
		slog.Debug("cannot open indexed jar", "jar", u.String(), "error", err)

		return nil, nil
	}

	if stored := l.r.lmap.putIfUnset(key, nl); stored != loader(nl) {
		nl.close()
		jl, _ := stored.(*jarLoader)

		return jl, nil
	}

	if idx := nl.getIndex(); idx != nil {
		prefix := ""
		if i := strings.LastIndexByte(jarName, '/'); i >= 0 {
			prefix = jarName[:i+1]
		}
		idx.Merge(l.getIndex(), prefix)
	}

	return nl, nil
}

// validIndex reports whether the JAR holds any entry in the package of name.
func (l *jarLoader) validIndex(name string) bool {
	pkg := name
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		pkg = name[:i]
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for entryName := range l.entries {
		if i := strings.LastIndexByte(entryName, '/'); i >= 0 {
			entryName = entryName[:i]
		}
		if entryName == pkg {
			return true
		}
	}

	return false
}

func (l *jarLoader) readManifest() (*manifest.Manifest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rc == nil {
		return nil, nil
	}

	return manifest.FromJAR(&l.rc.Reader)
}

// classPath returns the JAR's Class-Path entries resolved against its URL.
// JARs with an index or a meta-index contribute none, since the index
// already covers them.
func (l *jarLoader) classPath(ctx context.Context) ([]*url.URL, error) {
	if l.meta != nil || l.getIndex() != nil {
		return nil, nil
	}
	if err := l.ensureOpen(ctx); err != nil {
		return nil, err
	}

	m, err := l.manifest()
	if err != nil {
		slog.Debug("cannot read manifest", "jar", l.csu.String(), "error", err)
		return nil, nil
	}
	if m == nil {
		return nil, nil
	}

	if l.r.extensions != nil {
		if err := l.r.extensions.Check(ctx, m); err != nil {
			slog.Warn("extension dependencies not satisfied", "jar", l.csu.String(), "error", err)
		}
	}

	var urls []*url.URL
	for _, entry := range m.ClassPath() {
		u, err := l.csu.Parse(entry)
		if err != nil {
			slog.Debug("skipping class path entry", "jar", l.csu.String(), "entry", entry, "error", err)
			continue
		}
		urls = append(urls, u)
	}

	return urls, nil
}

func (l *jarLoader) close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	if l.rc != nil {
		errs = append(errs, l.rc.Close())
		l.rc = nil
	}
	if l.tempFile != "" {
		errs = append(errs, os.Remove(l.tempFile))
		l.tempFile = ""
	}

	return errors.Join(errs...)
}
