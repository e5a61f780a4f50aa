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

// Package config manages the configuration for jarpath.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	urlutil "github.com/google/jarpath/internal/url"
	"github.com/google/jarpath/pkg/classpath"
	"github.com/google/jarpath/pkg/extension"
	"github.com/google/jarpath/pkg/metaindex"
)

var JarpathConfigName = "jarpath.toml"

// ErrInvalidConfig is returned for config files that cannot be decoded or
// that hold unknown keys or values.
var ErrInvalidConfig = errors.New("invalid config file")

// defaultProxyName is used when a proxy class is requested without a name.
const defaultProxyName = "$Proxy0"

type Config struct {
	// ClassPath entries are file paths or URLs; relative paths are taken
	// from the directory holding the config file.
	ClassPath       []string      `toml:"ClassPath"`
	MetaIndexDirs   []string      `toml:"MetaIndexDirs"`
	ExtensionDirs   []string      `toml:"ExtensionDirs"`
	InvalidIndex    string        `toml:"InvalidIndex,omitempty"`
	LookupCacheSize int           `toml:"LookupCacheSize,omitempty"`
	HTTPTimeout     time.Duration `toml:"HTTPTimeout,omitempty"`
	Proxy           Proxy         `toml:"Proxy"`
	// The path to config file that this config was loaded from,
	// set by the manager after having successfully parsed the file
	LoadPath string `toml:"-"`
}

type Proxy struct {
	MajorVersion  uint16 `toml:"MajorVersion,omitempty"`
	PackagePrefix string `toml:"PackagePrefix,omitempty"`
}

// ClassName qualifies name with the package prefix unless it already names
// a package.
func (p Proxy) ClassName(name string) string {
	if name == "" {
		name = defaultProxyName
	}
	if p.PackagePrefix == "" || strings.Contains(name, ".") {
		return name
	}

	return strings.TrimSuffix(p.PackagePrefix, ".") + "." + name
}

// base is the directory relative paths are resolved against.
func (c *Config) base() string {
	if c.LoadPath == "" {
		return ""
	}

	return filepath.Dir(c.LoadPath)
}

func (c *Config) resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.base() == "" {
		return p
	}

	return filepath.Join(c.base(), p)
}

// ResolvedClassPath returns ClassPath with relative file paths resolved
// against the config file's directory. URLs are returned unchanged.
func (c *Config) ResolvedClassPath() []string {
	entries := make([]string, 0, len(c.ClassPath))
	for _, entry := range c.ClassPath {
		if urlutil.IsURL(entry) {
			entries = append(entries, entry)
			continue
		}

		resolved := c.resolvePath(entry)
		// keep the trailing slash that marks a directory
		if strings.HasSuffix(entry, "/") && !strings.HasSuffix(resolved, "/") {
			resolved += "/"
		}
		entries = append(entries, resolved)
	}

	return entries
}

// ResolverOptions turns the config into options for classpath.New. The
// meta-index directories are read here.
func (c *Config) ResolverOptions() ([]classpath.Option, error) {
	var opts []classpath.Option

	if c.InvalidIndex != "" {
		policy, ok := classpath.ParseInvalidIndexPolicy(c.InvalidIndex)
		if !ok {
			return nil, fmt.Errorf("%w: InvalidIndex must be \"abort\" or \"skip\", got %q", ErrInvalidConfig, c.InvalidIndex)
		}
		opts = append(opts, classpath.WithInvalidIndexPolicy(policy))
	}

	if c.LookupCacheSize < 0 {
		return nil, fmt.Errorf("%w: LookupCacheSize must not be negative", ErrInvalidConfig)
	}
	if c.LookupCacheSize > 0 {
		opts = append(opts, classpath.WithLookupCacheSize(c.LookupCacheSize))
	}

	if c.HTTPTimeout > 0 {
		opts = append(opts, classpath.WithHTTPClient(&http.Client{Timeout: c.HTTPTimeout}))
	}

	if len(c.MetaIndexDirs) > 0 {
		reg := metaindex.NewRegistry()
		for _, dir := range c.MetaIndexDirs {
			if err := reg.RegisterDirectory(c.resolvePath(dir)); err != nil {
				return nil, fmt.Errorf("reading meta-index in %s: %w", dir, err)
			}
		}
		opts = append(opts, classpath.WithMetaIndex(reg))
	}

	if len(c.ExtensionDirs) > 0 {
		dirs := make([]string, 0, len(c.ExtensionDirs))
		for _, dir := range c.ExtensionDirs {
			dirs = append(dirs, c.resolvePath(dir))
		}
		opts = append(opts, classpath.WithExtensionChecker(extension.NewChecker(dirs...)))
	}

	return opts, nil
}
