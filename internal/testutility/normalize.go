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

package testutility

import (
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"testing"
)

// normalizeFilePaths attempts to normalize any file paths in the given `output`
// so that they can be compared reliably regardless of the file path separator
// being used.
func normalizeFilePaths(t *testing.T, output string) string {
	t.Helper()
	return strings.ReplaceAll(strings.ReplaceAll(output, "\\\\", "/"), "\\", "/")
}

// normalizeReplacements replaces the literal keys with their values, longest
// key first so nested directories are replaced before their parents
func normalizeReplacements(t *testing.T, str string, replacements map[string]string) string {
	t.Helper()

	keys := slices.Collect(maps.Keys(replacements))
	slices.SortFunc(keys, func(a, b string) int { return len(b) - len(a) })

	for _, k := range keys {
		str = strings.ReplaceAll(str, normalizeFilePaths(t, k), replacements[k])
	}

	return str
}

// normalizeRootDirectory replaces the working directory of the test, which
// is the directory of the package being tested, with "<rootdir>"
func normalizeRootDirectory(t *testing.T, str string) string {
	t.Helper()

	cwd, err := os.Getwd()
	if err != nil {
		t.Errorf("could not get cwd (%v) - results and diff might be inaccurate!", err)
	}

	cwd = normalizeFilePaths(t, cwd)

	// file uris with Windows end up with three slashes, so we normalize that too
	str = strings.ReplaceAll(str, "file:///"+cwd, "file://<rootdir>")
	str = strings.ReplaceAll(str, cwd, "<rootdir>")

	// Replace versions without the root as well
	var root string
	if runtime.GOOS == "windows" {
		root = filepath.VolumeName(cwd) + "\\"
	}

	if strings.HasPrefix(cwd, "/") {
		root = "/"
	}
	str = strings.ReplaceAll(str, cwd[len(root):], "<rootdir>")

	return str
}

// normalizeTempDirectory attempts to replace references to per-test
// temporary directories with "<tempdir>", to ensure tests pass across
// different runs and OSs
func normalizeTempDirectory(t *testing.T, str string) string {
	t.Helper()

	//nolint:gocritic // ensure that the directory doesn't end with a trailing slash
	tempDir := normalizeFilePaths(t, filepath.Join(os.TempDir()))
	re := regexp.MustCompile(regexp.QuoteMeta(tempDir+"/") + `Test[^/\s"]*/\d+`)

	return re.ReplaceAllString(str, "<tempdir>")
}

// normalizeErrors attempts to replace error messages on alternative OSs with their
// known linux equivalents, to ensure tests pass across different OSs
func normalizeErrors(t *testing.T, str string) string {
	t.Helper()

	str = strings.ReplaceAll(str, "The system cannot find the path specified.", "no such file or directory")
	str = strings.ReplaceAll(str, "The system cannot find the file specified.", "no such file or directory")

	return str
}

// normalizeSnapshot applies a series of normalizes to the buffer from a std stream like stdout and stderr
func normalizeSnapshot(t *testing.T, str string, replacements map[string]string) string {
	t.Helper()

	str = normalizeFilePaths(t, str)
	str = normalizeReplacements(t, str, replacements)
	str = normalizeRootDirectory(t, str)
	str = normalizeTempDirectory(t, str)
	str = normalizeErrors(t, str)

	return str
}
