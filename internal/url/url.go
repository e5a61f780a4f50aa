// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package url converts between file paths and file: URLs, and parses
// classpath locations that may be either.
package url

import (
	"errors"
	"net/url"
	"path/filepath"
	"strings"
)

// Code adapted from https://github.com/golang/go/blob/7c2b69080a0b9e35174cc9c93497b6e7176f8275/src/cmd/go/internal/web/url.go

var errNotAbsolute = errors.New("path is not absolute")

// ToFilePath returns the local path named by a file: URL.
func ToFilePath(u *url.URL) (string, error) {
	if u.Scheme != "file" {
		return "", errors.New("non-file URL")
	}

	checkAbs := func(path string) (string, error) {
		if !filepath.IsAbs(path) {
			return "", errNotAbsolute
		}

		return path, nil
	}

	if u.Path == "" {
		if u.Host != "" || u.Opaque == "" {
			return "", errors.New("file URL missing path")
		}

		return checkAbs(filepath.FromSlash(u.Opaque))
	}

	path, err := convertFileURLPath(u.Host, u.Path)
	if err != nil {
		return path, err
	}

	return checkAbs(path)
}

// FromFilePath returns the file: URL for an absolute path.
func FromFilePath(path string) (*url.URL, error) {
	if !filepath.IsAbs(path) {
		return nil, errNotAbsolute
	}

	// If path has a Windows volume name, convert the volume to a host and prefix
	// per https://blogs.msdn.microsoft.com/ie/2006/12/06/file-uris-in-windows/.
	if vol := filepath.VolumeName(path); vol != "" {
		if strings.HasPrefix(vol, `\\`) {
			path = filepath.ToSlash(path[2:])
			i := strings.IndexByte(path, '/')

			if i < 0 {
				// A degenerate UNC path.
				// The behavior of "file://" URLs with a host is not well-defined, and we
				// use a URL that leaves the host empty to avoid surprising behavior.
				return &url.URL{
					Scheme: "file",
					Host:   path,
					Path:   "/",
				}, nil
			}

			return &url.URL{
				Scheme: "file",
				Host:   path[:i],
				Path:   filepath.ToSlash(path[i:]),
			}, nil
		}

		return &url.URL{
			Scheme: "file",
			Path:   "/" + filepath.ToSlash(path),
		}, nil
	}

	return &url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(path),
	}, nil
}

func convertFileURLPath(host, path string) (string, error) {
	switch host {
	case "", "localhost":
	default:
		return "", errors.New("file URL specifies non-local host")
	}

	return filepath.FromSlash(path), nil
}

// IsURL reports whether location has a scheme of more than one letter.
// Single letters are Windows drive names.
func IsURL(location string) bool {
	i := strings.Index(location, ":")
	if i <= 1 {
		return false
	}
	u, err := url.Parse(location)

	return err == nil && u.Scheme != ""
}

// Parse interprets location as a URL when it has a scheme of more than one
// letter, and as a file path otherwise. Relative paths are made absolute. A
// trailing separator on a path is kept as a trailing "/" on the URL.
func Parse(location string) (*url.URL, error) {
	if IsURL(location) {
		return url.Parse(location)
	}

	dir := strings.HasSuffix(location, "/") || strings.HasSuffix(location, string(filepath.Separator))
	abs, err := filepath.Abs(location)
	if err != nil {
		return nil, err
	}

	u, err := FromFilePath(abs)
	if err != nil {
		return nil, err
	}
	if dir && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	return u, nil
}
