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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	urlutil "github.com/google/jarpath/internal/url"
)

// dirLoader serves files below a local directory. Names that would escape
// the directory are never resolved.
type dirLoader struct {
	base *url.URL
	root *os.Root
}

func newDirLoader(base *url.URL) (*dirLoader, error) {
	path, err := urlutil.ToFilePath(base)
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}

	root, err := os.OpenRoot(path)
	if err != nil {
		return nil, err
	}

	return &dirLoader{base: base, root: root}, nil
}

func (l *dirLoader) baseURL() *url.URL {
	return l.base
}

func (l *dirLoader) getResource(_ context.Context, name string) (*Resource, error) {
	if name == "" || strings.HasPrefix(name, "/") {
		return nil, nil
	}

	local := filepath.FromSlash(strings.TrimSuffix(name, "/"))
	info, err := l.root.Stat(local)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("cannot stat resource", "dir", l.base.String(), "name", name, "error", err)
		}

		return nil, nil
	}

	size := info.Size()
	open := func(context.Context) (io.ReadCloser, error) {
		return l.root.Open(local)
	}
	if info.IsDir() {
		size = -1
		open = func(context.Context) (io.ReadCloser, error) {
			return l.listing(local)
		}
	}

	return &Resource{
		Name:          name,
		URL:           l.base.ResolveReference(&url.URL{Path: name}),
		CodeSourceURL: l.base,
		ContentLength: size,
		open:          open,
	}, nil
}

// listing returns the names in a directory, sorted, one per line.
func (l *dirLoader) listing(local string) (io.ReadCloser, error) {
	f, err := l.root.Open(local)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteByte('\n')
	}

	return io.NopCloser(strings.NewReader(sb.String())), nil
}

func (l *dirLoader) classPath(context.Context) ([]*url.URL, error) {
	return nil, nil
}

func (l *dirLoader) close() error {
	return l.root.Close()
}

// remoteDirLoader serves files below an http(s) directory URL. A HEAD
// request decides whether a name exists; content is fetched on Open.
type remoteDirLoader struct {
	base   *url.URL
	client *http.Client
}

func newRemoteDirLoader(client *http.Client, base *url.URL) *remoteDirLoader {
	return &remoteDirLoader{base: base, client: client}
}

func (l *remoteDirLoader) baseURL() *url.URL {
	return l.base
}

func (l *remoteDirLoader) getResource(ctx context.Context, name string) (*Resource, error) {
	u := l.base.ResolveReference(&url.URL{Path: name})
	if u.Host != l.base.Host || !strings.HasPrefix(u.Path, l.base.Path) {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return nil, nil
	}
	resp, err := l.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Debug("cannot probe resource", "url", u.String(), "error", err)

		return nil, nil
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, nil
	}

	return &Resource{
		Name:          name,
		URL:           u,
		CodeSourceURL: l.base,
		ContentLength: resp.ContentLength,
		open: func(ctx context.Context) (io.ReadCloser, error) {
			return fetch(ctx, l.client, u)
		},
	}, nil
}

func (l *remoteDirLoader) classPath(context.Context) ([]*url.URL, error) {
	return nil, nil
}

func (l *remoteDirLoader) close() error {
	return nil
}

var errFetch = errors.New("fetch failed")

// fetch issues a GET for u and returns the body of a 200 response.
func fetch(ctx context.Context, client *http.Client, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s: %s", errFetch, u, resp.Status)
	}

	return resp.Body, nil
}
