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

// Package classpath resolves resources against an ordered list of JARs and
// directories, opening entries lazily and following JAR indexes.
package classpath

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	urlutil "github.com/google/jarpath/internal/url"
	"github.com/google/jarpath/pkg/extension"
	"github.com/google/jarpath/pkg/jarindex"
	"github.com/google/jarpath/pkg/metaindex"
)

const defaultHTTPTimeout = 30 * time.Second

// Resolver searches an ordered class path. Entries are opened the first
// time a lookup reaches them, and each distinct URL is opened at most once.
// Earlier entries always take precedence over later ones. A Resolver is
// safe for concurrent use.
type Resolver struct {
	metaIndex  *metaindex.Registry
	extensions *extension.Checker
	policy     InvalidIndexPolicy
	client     *http.Client
	cache      *lookupCache

	lmap *loaderMap
	// loaders is the materialized search order; it only grows.
	loaders atomic.Pointer[[]loader]
	closed  atomic.Bool

	// mu guards materialization and the fields below.
	mu    sync.Mutex
	stack []*url.URL // unopened entries, next on top
	path  []*url.URL
}

// New returns a Resolver over locations, which may be file paths or
// file, http or https URLs. A location ending in "/" is a directory;
// anything else is a JAR. Nothing is opened here, so a malformed JAR index
// is only reported by the first lookup that reaches its JAR.
func New(locations []string, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		lmap:   newLoaderMap(),
		client: &http.Client{Timeout: defaultHTTPTimeout},
	}
	r.loaders.Store(&[]loader{})
	for _, opt := range opts {
		opt(r)
	}

	urls := make([]*url.URL, 0, len(locations))
	for _, loc := range locations {
		u, err := urlutil.Parse(loc)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	for _, u := range urls {
		r.AddURL(u)
	}

	return r, nil
}

// Add parses location and appends it to the search path.
func (r *Resolver) Add(location string) error {
	u, err := urlutil.Parse(location)
	if err != nil {
		return err
	}
	r.AddURL(u)

	return nil
}

// AddURL appends u to the end of the search path unless it is already
// present. It does nothing once the Resolver is closed.
func (r *Resolver) AddURL(u *url.URL) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() || u == nil {
		return
	}
	key := urlKey(u)
	if slices.ContainsFunc(r.path, func(p *url.URL) bool { return urlKey(p) == key }) {
		return
	}

	// bottom of the stack: searched after everything already pending
	r.stack = slices.Insert(r.stack, 0, u)
	r.path = append(r.path, u)
	r.cache.clear()
}

// URLs returns the search path as given, without entries discovered
// through Class-Path attributes.
func (r *Resolver) URLs() []*url.URL {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.path)
}

func (r *Resolver) push(urls []*url.URL) {
	for i := len(urls) - 1; i >= 0; i-- {
		r.stack = append(r.stack, urls[i])
	}
}

// getLoader returns the loader at position i, opening pending entries until
// there are enough. It returns nil once the search path is exhausted.
func (r *Resolver) getLoader(ctx context.Context, i int) (loader, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	if loaders := *r.loaders.Load(); i < len(loaders) {
		return loaders[i], nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		if r.closed.Load() {
			return nil, ErrClosed
		}
		loaders := *r.loaders.Load()
		if i < len(loaders) {
			return loaders[i], nil
		}
		if len(r.stack) == 0 {
			return nil, nil
		}

		u := r.stack[len(r.stack)-1]
		r.stack = r.stack[:len(r.stack)-1]

		key := urlKey(u)
		if r.lmap.contains(key) {
			continue
		}

		l, err := r.newLoader(ctx, u)
		if err == nil {
			var urls []*url.URL
			urls, err = l.classPath(ctx)
			if err == nil {
				r.push(urls)
			} else {
				l.close()
			}
		}
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, jarindex.ErrMalformedIndex) {
				// leave it pending so later lookups report the same failure
				r.stack = append(r.stack, u)
				return nil, err
			}
			slog.Debug("skipping class path entry", "url", u.String(), "error", err)

			continue
		}

		r.lmap.put(key, l)
		next := append(slices.Clone(loaders), l)
		r.loaders.Store(&next)
	}
}

// FindResource returns the URL of the first resource called name.
func (r *Resolver) FindResource(ctx context.Context, name string) (*url.URL, error) {
	res, err := r.GetResource(ctx, name)
	if err != nil {
		return nil, err
	}

	return res.URL, nil
}

// GetResource returns the first resource called name, or ErrNotFound.
// Unreadable class path entries are skipped, but a JAR whose index is
// malformed fails the lookup with an error wrapping
// jarindex.ErrMalformedIndex, and does so again on every later lookup that
// reaches it.
func (r *Resolver) GetResource(ctx context.Context, name string) (*Resource, error) {
	if pos, ok := r.cache.get(name); ok {
		l, err := r.getLoader(ctx, pos)
		if err != nil {
			return nil, err
		}
		if l != nil {
			res, err := l.getResource(ctx, name)
			if err != nil {
				return nil, err
			}
			if res != nil {
				return res, nil
			}
		}
		r.cache.remove(name)
	}

	for res, err := range r.search(ctx, name) {
		if err != nil {
			return nil, err
		}

		return res, nil
	}

	return nil, ErrNotFound
}

// search yields every match for name in search order, remembering where the
// first one was found.
func (r *Resolver) search(ctx context.Context, name string) iter.Seq2[*Resource, error] {
	return func(yield func(*Resource, error) bool) {
		first := true
		for i := 0; ; i++ {
			l, err := r.getLoader(ctx, i)
			if err != nil {
				yield(nil, err)
				return
			}
			if l == nil {
				return
			}

			res, err := l.getResource(ctx, name)
			if err != nil {
				yield(nil, err)
				return
			}
			if res == nil {
				continue
			}

			if first {
				r.cache.add(name, i)
				first = false
			}
			if !yield(res, nil) {
				return
			}
		}
	}
}

// GetResources returns every resource called name, in search order. The
// sequence is lazy: entries are opened only as iteration reaches them. It
// may be ranged over more than once. Iteration stops after the first error.
func (r *Resolver) GetResources(ctx context.Context, name string) iter.Seq2[*Resource, error] {
	return r.search(ctx, name)
}

// FindResources is GetResources reporting URLs.
func (r *Resolver) FindResources(ctx context.Context, name string) iter.Seq2[*url.URL, error] {
	return func(yield func(*url.URL, error) bool) {
		for res, err := range r.search(ctx, name) {
			var u *url.URL
			if res != nil {
				u = res.URL
			}
			if !yield(u, err) {
				return
			}
		}
	}
}

// Close releases every opened entry. It returns the failures of the
// individual entries rather than stopping at the first. Closing twice is a
// no-op.
func (r *Resolver) Close() []error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Swap(true) {
		return nil
	}
	r.cache.clear()

	var errs []error
	for _, l := range r.lmap.loaders() {
		if err := l.close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}
