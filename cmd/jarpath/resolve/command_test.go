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

package resolve_test

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/jarpath/cmd/jarpath/internal/testcmd"
	"github.com/google/jarpath/internal/testutility"
)

func TestCommand(t *testing.T) {
	t.Parallel()

	tests := []testcmd.Case{
		{
			Name: "first match wins",
			Args: []string{"", "resolve", "--classpath", "./testdata/classes/,./testdata/more/", "shared.txt"},
			Exit: 0,
		},
		{
			Name: "every match with --all",
			Args: []string{"", "resolve", "--all", "--classpath", "./testdata/classes/", "--classpath", "./testdata/more/", "shared.txt"},
			Exit: 0,
		},
		{
			Name: "directories do not need a trailing slash",
			Args: []string{"", "resolve", "--classpath", "./testdata/classes", "app.properties"},
			Exit: 0,
		},
		{
			Name: "some resources are missing",
			Args: []string{"", "resolve", "--classpath", "./testdata/classes/,./testdata/more/", "extra.txt", "missing.txt"},
			Exit: 1,
		},
		{
			Name: "names cannot leave a directory",
			Args: []string{"", "resolve", "--classpath", "./testdata/classes/", "../more/extra.txt"},
			Exit: 1,
		},
		{
			Name: "json output",
			Args: []string{"", "resolve", "--format", "json", "--all", "--classpath", "./testdata/classes/,./testdata/more/", "shared.txt", "missing.txt"},
			Exit: 1,
		},
		{
			Name: "json output with only urls",
			Args: []string{"", "resolve", "--format=json", "--all", "--classpath", "./testdata/classes/,./testdata/more/", "shared.txt"},
			Exit: 0,
			ReplaceRules: []testcmd.JSONReplaceRule{
				testcmd.OnlyURLResourcesRule,
			},
		},
		{
			Name: "class path from config",
			Args: []string{"", "resolve", "--config", "./testdata/jarpath.toml", "app.properties", "extra.txt"},
			Exit: 0,
		},
		{
			Name: "flag takes precedence over config",
			Args: []string{"", "resolve", "--config", "./testdata/jarpath.toml", "--classpath", "./testdata/more/", "app.properties"},
			Exit: 1,
		},
		{
			Name: "config with unknown keys",
			Args: []string{"", "resolve", "--config", "./testdata/unknown-key.toml", "app.properties"},
			Exit: 130,
		},
		{
			Name: "config with invalid index policy",
			Args: []string{"", "resolve", "--config", "./testdata/bad-policy.toml", "app.properties"},
			Exit: 130,
		},
		{
			Name: "no resource names",
			Args: []string{"", "resolve", "--classpath", "./testdata/classes/"},
			Exit: 128,
		},
		{
			Name: "no class path",
			Args: []string{"", "resolve", "app.properties"},
			Exit: 128,
		},
		{
			Name: "unsupported format",
			Args: []string{"", "resolve", "--format", "xml", "--classpath", "./testdata/classes/", "app.properties"},
			Exit: 127,
		},
		{
			Name: "invalid verbosity",
			Args: []string{"", "resolve", "--verbosity", "loud", "--classpath", "./testdata/classes/", "app.properties"},
			Exit: 127,
		},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			t.Parallel()

			testcmd.RunAndMatchSnapshots(t, tt)
		})
	}
}

func TestCommand_JARs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	main := testutility.WriteJAR(t, filepath.Join(dir, "main.jar"), map[string]string{
		"META-INF/MANIFEST.MF": "Manifest-Version: 1.0\r\nClass-Path: lib/dep.jar\r\n\r\n",
		"main.txt":             "main\n",
	})
	testutility.WriteJAR(t, filepath.Join(dir, "lib", "dep.jar"), map[string]string{
		"dep.txt":  "dep\n",
		"main.txt": "shadowed\n",
	})

	tests := []testcmd.Case{
		{
			Name: "class path attribute is followed",
			Args: []string{"", "resolve", "--format", "json", "--classpath", main, "dep.txt"},
			Exit: 0,
		},
		{
			Name: "every match across jars",
			Args: []string{"", "resolve", "--format", "json", "--all", "--classpath", main, "main.txt"},
			Exit: 0,
		},
		{
			Name: "unreadable jars are skipped",
			Args: []string{"", "resolve", "--format", "json", "--classpath", filepath.Join(dir, "missing.jar") + "," + main, "main.txt"},
			Exit: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			t.Parallel()

			testcmd.RunAndMatchSnapshots(t, tt)
		})
	}
}

func TestCommand_TableShowsRelativePaths(t *testing.T) {
	t.Parallel()

	stdout, stderr := testcmd.Run(t, testcmd.Case{
		Args: []string{"", "resolve", "--classpath", "./testdata/classes/", "app.properties"},
		Exit: 0,
	})

	if stderr != "" {
		t.Errorf("expected nothing on stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "testdata/classes/") {
		t.Errorf("expected the code source to be shown relative to the working directory:\n%s", stdout)
	}
	if strings.Contains(stdout, "file:") {
		t.Errorf("expected no file URLs in the table:\n%s", stdout)
	}
}

func TestCommand_DirectoryEntry(t *testing.T) {
	t.Parallel()

	dir := testutility.WriteTree(t, t.TempDir(), map[string]string{
		"com/example/A.class": "a",
	})

	stdout, _ := testcmd.Run(t, testcmd.Case{
		Args: []string{"", "resolve", "--format", "json", "--classpath", dir + "/", "com/example/"},
		Exit: 0,
	})

	var got struct {
		Results []struct {
			Resources []struct {
				Size   int64  `json:"size"`
				Digest string `json:"digest"`
			} `json:"resources"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("output is not json: %v\n%s", err, stdout)
	}
	if len(got.Results) != 1 || len(got.Results[0].Resources) != 1 {
		t.Fatalf("expected one resource for the directory:\n%s", stdout)
	}
	if res := got.Results[0].Resources[0]; res.Size != -1 || !strings.HasPrefix(res.Digest, "sha256:") {
		t.Errorf("directory resource = %+v, want size -1 and a sha256 digest", res)
	}
}
