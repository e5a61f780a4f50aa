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
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// loader resolves names below one class path entry.
type loader interface {
	// baseURL is the class path entry the loader serves.
	baseURL() *url.URL
	// getResource returns nil and no error when name is absent. Errors are
	// reserved for faults that must stop the lookup.
	getResource(ctx context.Context, name string) (*Resource, error)
	// classPath returns further entries to search after this one.
	classPath(ctx context.Context) ([]*url.URL, error)
	close() error
}

// urlKey identifies a class path entry: its URL without a fragment.
func urlKey(u *url.URL) string {
	nf := *u
	nf.Fragment = ""
	nf.RawFragment = ""

	return nf.String()
}

// isDirectory reports whether u names a directory rather than a JAR.
func isDirectory(u *url.URL) bool {
	if u.Opaque != "" {
		return strings.HasSuffix(u.Opaque, "/")
	}

	return strings.HasSuffix(u.Path, "/")
}

// loaderMap holds every loader created for a Resolver, keyed by urlKey. A
// key present with a nil loader is reserved: a JAR index names it, and it is
// only opened when the index is followed.
type loaderMap struct {
	mu sync.Mutex
	m  map[string]loader
}

func newLoaderMap() *loaderMap {
	return &loaderMap{m: make(map[string]loader)}
}

func (lm *loaderMap) contains(key string) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	_, ok := lm.m[key]

	return ok
}

func (lm *loaderMap) get(key string) loader {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	return lm.m[key]
}

func (lm *loaderMap) reserve(key string) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if _, ok := lm.m[key]; !ok {
		lm.m[key] = nil
	}
}

func (lm *loaderMap) put(key string, l loader) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.m[key] = l
}

// putIfUnset stores l unless another loader was stored first, and returns
// the loader that ends up in the map.
func (lm *loaderMap) putIfUnset(key string, l loader) loader {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if existing := lm.m[key]; existing != nil {
		return existing
	}
	lm.m[key] = l

	return l
}

func (lm *loaderMap) loaders() []loader {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	all := make([]loader, 0, len(lm.m))
	for _, l := range lm.m {
		if l != nil {
			all = append(all, l)
		}
	}

	return all
}

// newLoader creates the loader for u. Directories get a directory loader;
// anything else is treated as a JAR.
func (r *Resolver) newLoader(ctx context.Context, u *url.URL) (loader, error) {
	if !isDirectory(u) {
		return r.newJarLoader(ctx, u)
	}

	switch u.Scheme {
	case "file":
		return newDirLoader(u)
	case "http", "https":
		return newRemoteDirLoader(r.client, u), nil
	}

	return nil, fmt.Errorf("%w: %s", errUnsupportedScheme, u)
}
