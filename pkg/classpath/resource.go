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
	// digest.Canonical needs sha256 registered.
	_ "crypto/sha256"
	"io"
	"net/url"

	"github.com/google/jarpath/pkg/manifest"
	"github.com/opencontainers/go-digest"
)

// Resource is a resolved class path entry. Its content is read on demand;
// reading may fail once the Resolver that produced it is closed.
type Resource struct {
	// Name is the name that was looked up.
	Name string
	// URL locates the resource itself, e.g. "jar:file:///lib/a.jar!/a/B.class".
	URL *url.URL
	// CodeSourceURL is the class path entry the resource came from.
	CodeSourceURL *url.URL
	// ContentLength is the size in bytes, or -1 if unknown.
	ContentLength int64

	open     func(ctx context.Context) (io.ReadCloser, error)
	manifest func() (*manifest.Manifest, error)
}

// Open returns a reader for the resource content. A directory below a local
// class path directory reads as its sorted entry names, one per line.
func (r *Resource) Open(ctx context.Context) (io.ReadCloser, error) {
	return r.open(ctx)
}

// Bytes reads the whole resource.
func (r *Resource) Bytes(ctx context.Context) ([]byte, error) {
	rc, err := r.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// Manifest returns the manifest of the JAR holding the resource. It is nil
// for resources outside a JAR and for JARs without a manifest.
func (r *Resource) Manifest() (*manifest.Manifest, error) {
	if r.manifest == nil {
		return nil, nil
	}

	return r.manifest()
}

// Digest returns the sha256 digest of the resource content.
func (r *Resource) Digest(ctx context.Context) (digest.Digest, error) {
	rc, err := r.Open(ctx)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	return digest.Canonical.FromReader(rc)
}
