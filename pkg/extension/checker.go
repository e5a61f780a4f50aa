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

package extension

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/jarpath/pkg/manifest"
)

// ErrNotInstalled is returned when a declared extension dependency is not
// satisfied by any installed extension and no provider could install it.
var ErrNotInstalled = errors.New("extension not installed")

// archiveSuffixes are the file name suffixes recognised as installed
// extensions.
var archiveSuffixes = []string{".jar", ".zip"}

// A Provider installs or upgrades an extension on demand. installed is nil
// when no installed extension matched by name. Install reports whether it
// succeeded.
type Provider interface {
	Install(ctx context.Context, required Info, installed *Info) (bool, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, required Info, installed *Info) (bool, error)

func (f ProviderFunc) Install(ctx context.Context, required Info, installed *Info) (bool, error) {
	return f(ctx, required, installed)
}

// Checker resolves Extension-List dependencies against the extension
// archives found in Dirs, falling back to the registered providers.
type Checker struct {
	Dirs []string

	mu        sync.Mutex
	providers []Provider
}

// NewChecker returns a Checker looking in the given extension directories.
func NewChecker(dirs ...string) *Checker {
	return &Checker{Dirs: dirs}
}

// AddProvider registers p. Providers are consulted in registration order.
func (c *Checker) AddProvider(p Provider) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.providers = append(c.providers, p)
}

// Providers returns a snapshot of the registered providers.
func (c *Checker) Providers() []Provider {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.providers)
}

// Check verifies every dependency listed in the Extension-List attribute of
// m. Dependencies that lack the matching "<name>-Extension-Name" attribute
// are ignored. The returned error wraps ErrNotInstalled once per missing
// extension.
func (c *Checker) Check(ctx context.Context, m *manifest.Manifest) error {
	if m == nil {
		return nil
	}

	list, ok := m.Main.Lookup(manifest.AttrExtensionList)
	if !ok {
		return nil
	}

	var errs []error
	for _, key := range strings.Fields(list) {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, ok := m.Main.Lookup(key + "-" + AttrExtensionName); !ok {
			slog.Debug("extension dependency has no name attribute", "extension", key)
			continue
		}

		satisfied, err := c.checkExtension(ctx, key, m.Main)
		if err != nil {
			errs = append(errs, fmt.Errorf("installing extension %s: %w", key, err))
			continue
		}
		if !satisfied {
			errs = append(errs, fmt.Errorf("%w: %s", ErrNotInstalled, key))
		}
	}

	return errors.Join(errs...)
}

func (c *Checker) checkExtension(ctx context.Context, key string, attrs manifest.Attributes) (bool, error) {
	required := InfoFromAttributes(key, attrs)

	candidates := c.namedArchives(key)
	if len(candidates) == 0 {
		var err error
		candidates, err = c.Installed()
		if err != nil {
			return false, err
		}
	}

	for _, path := range candidates {
		ok, err := c.checkAgainst(ctx, required, path)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}

	slog.Debug("extension not currently installed", "extension", key)

	return c.install(ctx, required, nil)
}

// checkAgainst compares the requirement with the installed archive at path.
func (c *Checker) checkAgainst(ctx context.Context, required Info, path string) (bool, error) {
	installed, err := readInfo(path)
	if err != nil {
		slog.Debug("skipping unreadable extension", "path", path, "error", err)
		return false, nil
	}
	if installed == nil {
		return false, nil
	}

	switch compat := installed.CompatibleWith(required); compat {
	case Compatible:
		return true, nil
	case Incompatible:
		return false, nil
	default:
		slog.Debug("installed extension needs attention", "path", path, "status", compat.String())
		return c.install(ctx, required, installed)
	}
}

func (c *Checker) install(ctx context.Context, required Info, installed *Info) (bool, error) {
	for _, p := range c.Providers() {
		ok, err := p.Install(ctx, required, installed)
		if err != nil {
			return false, err
		}
		if ok {
			slog.Debug("extension installed", "extension", required.Name)
			return true, nil
		}
	}

	return false, nil
}

// namedArchives returns the archives in Dirs whose base name is key.
func (c *Checker) namedArchives(key string) []string {
	var found []string
	for _, dir := range c.Dirs {
		for _, suffix := range archiveSuffixes {
			path := filepath.Join(dir, key+suffix)
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				found = append(found, path)
			}
		}
	}

	return found
}

// Installed lists every extension archive in Dirs. Missing directories are
// skipped.
func (c *Checker) Installed() ([]string, error) {
	var found []string
	for _, dir := range c.Dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if slices.ContainsFunc(archiveSuffixes, func(s string) bool { return strings.HasSuffix(e.Name(), s) }) {
				found = append(found, filepath.Join(dir, e.Name()))
			}
		}
	}

	return found, nil
}

func readInfo(path string) (*Info, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	m, err := manifest.FromJAR(&rc.Reader)
	if err != nil || m == nil {
		return nil, err
	}
	info := InfoFromAttributes("", m.Main)

	return &info, nil
}
