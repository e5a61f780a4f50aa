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

// Package jarwriter writes reproducible JAR archives and rewrites existing
// ones in place.
package jarwriter

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// FixedTime is stamped on every written entry so archives are byte-for-byte
// reproducible (1980-01-01 UTC).
var FixedTime = time.Unix(315532800, 0).UTC()

// lockRetryDelay is how often Update retries a held lock.
const lockRetryDelay = 50 * time.Millisecond

var ErrLocked = errors.New("jar is locked by another writer")

// Entry is a single archive member. Names ending in "/" are directories.
type Entry struct {
	Name string
	Data []byte
}

// Write writes entries to w in the given order.
func Write(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		if err := writeEntry(zw, e); err != nil {
			return err
		}
	}

	return zw.Close()
}

func writeEntry(zw *zip.Writer, e Entry) error {
	h := &zip.FileHeader{Name: e.Name, Method: zip.Deflate, Modified: FixedTime}
	if strings.HasSuffix(e.Name, "/") {
		h.Method = zip.Store
		h.SetMode(os.ModeDir | 0o755)
	} else {
		h.SetMode(0o644)
	}

	w, err := zw.CreateHeader(h)
	if err != nil {
		return fmt.Errorf("create %s: %w", e.Name, err)
	}
	if _, err := w.Write(e.Data); err != nil {
		return fmt.Errorf("write %s: %w", e.Name, err)
	}

	return nil
}

// Update rewrites the archive at path with the given entries added or
// replaced. New entries are placed right after META-INF/MANIFEST.MF, or
// first when there is no manifest, so readers that stop early find them.
// All other members are copied unchanged. The archive is replaced
// atomically while holding an advisory lock on path + ".lock".
func Update(ctx context.Context, path string, entries []Entry) (err error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("cannot acquire lock on %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLocked, path)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	src, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = rewrite(tmp, &src.Reader, entries); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

func rewrite(w io.Writer, src *zip.Reader, entries []Entry) error {
	replaced := make(map[string]bool, len(entries))
	for _, e := range entries {
		replaced[e.Name] = true
	}

	insertAt := 0
	if i := slices.IndexFunc(src.File, func(f *zip.File) bool {
		return strings.EqualFold(f.Name, "META-INF/MANIFEST.MF")
	}); i >= 0 {
		insertAt = i + 1
	}

	zw := zip.NewWriter(w)
	for i, f := range src.File {
		if i == insertAt {
			for _, e := range entries {
				if err := writeEntry(zw, e); err != nil {
					return err
				}
			}
		}
		if replaced[f.Name] {
			continue
		}
		if err := zw.Copy(f); err != nil {
			return fmt.Errorf("copy %s: %w", f.Name, err)
		}
	}
	if insertAt >= len(src.File) {
		for _, e := range entries {
			if err := writeEntry(zw, e); err != nil {
				return err
			}
		}
	}

	return zw.Close()
}
