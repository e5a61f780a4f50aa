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
	"net/http"
	"strings"

	"github.com/google/jarpath/pkg/extension"
	"github.com/google/jarpath/pkg/metaindex"
)

// InvalidIndexPolicy decides what a lookup does when a JAR index turns out
// to be wrong.
type InvalidIndexPolicy int

const (
	// Abort fails the lookup with an *InvalidIndexError.
	Abort InvalidIndexPolicy = iota
	// Skip logs the inconsistency and continues with the next candidate.
	Skip
)

func (p InvalidIndexPolicy) String() string {
	if p == Skip {
		return "skip"
	}

	return "abort"
}

// ParseInvalidIndexPolicy parses "abort" or "skip". The empty string means
// Abort.
func ParseInvalidIndexPolicy(s string) (InvalidIndexPolicy, bool) {
	switch strings.ToLower(s) {
	case "", "abort":
		return Abort, true
	case "skip":
		return Skip, true
	}

	return Abort, false
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMetaIndex makes JAR loaders consult reg before opening local JARs.
func WithMetaIndex(reg *metaindex.Registry) Option {
	return func(r *Resolver) {
		r.metaIndex = reg
	}
}

// WithExtensionChecker checks the Extension-List of every JAR whose
// Class-Path is read.
func WithExtensionChecker(c *extension.Checker) Option {
	return func(r *Resolver) {
		r.extensions = c
	}
}

// WithInvalidIndexPolicy sets what a lookup does when a JAR index names a
// JAR that lacks the requested package. The default is Abort.
func WithInvalidIndexPolicy(p InvalidIndexPolicy) Option {
	return func(r *Resolver) {
		r.policy = p
	}
}

// WithLookupCacheSize remembers the loader position of up to n resolved
// names. Zero disables the cache.
func WithLookupCacheSize(n int) Option {
	return func(r *Resolver) {
		r.cache = newLookupCache(n)
	}
}

// WithHTTPClient sets the client used for http and https locations.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) {
		r.client = c
	}
}
