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

// Package extension checks the optional-package dependencies a JAR declares
// in its manifest Extension-List against installed extension JARs.
package extension

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/jarpath/pkg/manifest"
)

// Manifest attribute suffixes. A dependency named "foo" is described by
// "foo-Extension-Name", "foo-Specification-Version" and so on; an installed
// extension describes itself with the bare names.
const (
	AttrExtensionName          = "Extension-Name"
	AttrSpecificationTitle     = "Specification-Title"
	AttrSpecificationVersion   = "Specification-Version"
	AttrSpecificationVendor    = "Specification-Vendor"
	AttrImplementationVersion  = "Implementation-Version"
	AttrImplementationVendor   = "Implementation-Vendor"
	AttrImplementationVendorID = "Implementation-Vendor-Id"
	AttrImplementationURL      = "Implementation-URL"
)

// Compatibility is the result of comparing an installed extension with a
// required one.
type Compatibility int

const (
	Compatible Compatibility = iota
	RequireSpecificationUpgrade
	RequireImplementationUpgrade
	RequireVendorSwitch
	Incompatible
)

func (c Compatibility) String() string {
	switch c {
	case Compatible:
		return "compatible"
	case RequireSpecificationUpgrade:
		return "requires specification upgrade"
	case RequireImplementationUpgrade:
		return "requires implementation upgrade"
	case RequireVendorSwitch:
		return "requires vendor switch"
	case Incompatible:
		return "incompatible"
	}

	return "unknown(" + strconv.Itoa(int(c)) + ")"
}

// Info describes an extension, either installed or required.
type Info struct {
	Name                   string
	Title                  string
	SpecificationVersion   string
	SpecificationVendor    string
	ImplementationVersion  string
	ImplementationVendor   string
	ImplementationVendorID string
	ImplementationURL      string
}

// InfoFromAttributes reads the extension attributes prefixed with key and a
// dash. An empty key reads the unprefixed attributes of an installed
// extension.
func InfoFromAttributes(key string, attrs manifest.Attributes) Info {
	prefix := ""
	if key != "" {
		prefix = key + "-"
	}
	get := func(name string) string {
		return strings.TrimSpace(attrs.Get(prefix + name))
	}

	return Info{
		Name:                   get(AttrExtensionName),
		Title:                  get(AttrSpecificationTitle),
		SpecificationVersion:   get(AttrSpecificationVersion),
		SpecificationVendor:    get(AttrSpecificationVendor),
		ImplementationVersion:  get(AttrImplementationVersion),
		ImplementationVendor:   get(AttrImplementationVendor),
		ImplementationVendorID: get(AttrImplementationVendorID),
		ImplementationURL:      get(AttrImplementationURL),
	}
}

// CompatibleWith reports whether the installed extension i satisfies the
// requirement req. Missing versions or vendor ids are not compared.
func (i Info) CompatibleWith(req Info) Compatibility {
	if i.Name == "" || req.Name == "" || i.Name != req.Name {
		return Incompatible
	}
	if i.SpecificationVersion == "" || req.SpecificationVersion == "" {
		return Compatible
	}

	vendorsDiffer := i.ImplementationVendorID != "" && req.ImplementationVendorID != "" &&
		i.ImplementationVendorID != req.ImplementationVendorID

	if CompareVersions(i.SpecificationVersion, req.SpecificationVersion) < 0 {
		if vendorsDiffer {
			return RequireVendorSwitch
		}

		return RequireSpecificationUpgrade
	}

	if vendorsDiffer {
		return RequireVendorSwitch
	}
	if i.ImplementationVendorID != "" && req.ImplementationVendorID != "" &&
		i.ImplementationVersion != "" && req.ImplementationVersion != "" &&
		CompareVersions(i.ImplementationVersion, req.ImplementationVersion) < 0 {
		return RequireImplementationUpgrade
	}

	return Compatible
}

// CompareVersions compares two dotted extension versions and returns -1, 0
// or 1. Components may carry a patch suffix ("1_02"), a special release
// letter ("1_02a") or a milestone ("1-ea", "1-alpha2", "1-beta", "1-rc1"),
// which sort before the final release.
func CompareVersions(a, b string) int {
	s, t := strings.ToLower(a), strings.ToLower(b)
	for s != t {
		n, m := convertToken(firstToken(s)), convertToken(firstToken(t))
		switch {
		case n > m:
			return 1
		case n < m:
			return -1
		}
		s, t = afterDot(s), afterDot(t)
	}

	return 0
}

func firstToken(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == ',' })
	if len(fields) == 0 {
		return ""
	}

	return fields[0]
}

func afterDot(s string) string {
	_, rest, ok := strings.Cut(s, ".")
	if !ok {
		return ""
	}

	return rest
}

// convertToken maps one version component onto an integer scale where
// every release step is worth 100.
func convertToken(token string) int {
	if token == "" {
		return 0
	}

	invalid := func() int {
		slog.Debug("invalid extension version component", "token", token)
		return 0
	}

	pre := strings.Index(token, "-")
	patch := strings.Index(token, "_")

	switch {
	case pre == -1 && patch == -1:
		v, err := strconv.Atoi(token)
		if err != nil {
			return invalid()
		}

		return v * 100
	case patch != -1:
		v, err := strconv.Atoi(token[:patch])
		if err != nil {
			return invalid()
		}
		rest := token[patch+1:]
		letter := 0
		if n := len(rest); n > 0 && rest[n-1] >= 'a' && rest[n-1] <= 'z' {
			// a-z count 10-35.
			letter = int(rest[n-1]-'a') + 10
			rest = rest[:n-1]
		}
		p, err := strconv.Atoi(rest)
		if err != nil {
			return invalid()
		}
		if letter > 0 {
			return v*100 + p + p*100 + letter
		}

		return v*100 + p
	default:
		v, err := strconv.Atoi(token[:pre])
		if err != nil {
			return invalid()
		}
		milestone := token[pre+1:]
		var num string
		delta := 0
		switch {
		case strings.HasPrefix(milestone, "ea"):
			num, delta = milestone[2:], 50
		case strings.HasPrefix(milestone, "alpha"):
			num, delta = milestone[5:], 40
		case strings.HasPrefix(milestone, "beta"):
			num, delta = milestone[4:], 30
		case strings.HasPrefix(milestone, "rc"):
			num, delta = milestone[2:], 20
		}
		if num == "" {
			return v*100 - delta
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return invalid()
		}

		return v*100 - delta + n
	}
}
