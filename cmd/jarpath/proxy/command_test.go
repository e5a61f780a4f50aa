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

package proxy_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/jarpath/cmd/jarpath/internal/testcmd"
	"github.com/google/jarpath/pkg/classfile"
)

func TestCommand(t *testing.T) {
	t.Parallel()

	tests := []testcmd.Case{
		{
			Name: "every interface in the file",
			Args: []string{"", "proxy", "--interfaces", "./testdata/api.toml"},
			Exit: 0,
		},
		{
			Name: "named class and interface",
			Args: []string{"", "proxy", "--interfaces", "./testdata/api.toml", "--name", "com.example.StoreProxy", "com.example.Sized"},
			Exit: 0,
		},
		{
			Name: "inherited methods",
			Args: []string{"", "proxy", "-i", "./testdata/api.toml", "--name", "StoreProxy", "com.example.Store"},
			Exit: 0,
		},
		{
			Name: "yaml definitions without a config",
			Args: []string{"", "proxy", "--interfaces", "./testdata/plain/api.yaml", "--name", "Counter"},
			Exit: 0,
		},
		{
			Name: "major version flag",
			Args: []string{"", "proxy", "--interfaces", "./testdata/plain/api.yaml", "--major-version", "50"},
			Exit: 0,
		},
		{
			Name: "major version out of range",
			Args: []string{"", "proxy", "--interfaces", "./testdata/plain/api.yaml", "--major-version", "12"},
			Exit: 127,
		},
		{
			Name: "unknown interface",
			Args: []string{"", "proxy", "--interfaces", "./testdata/api.toml", "com.example.Nope"},
			Exit: 127,
		},
		{
			Name: "unknown keys in definitions",
			Args: []string{"", "proxy", "--interfaces", "./testdata/unknown.toml"},
			Exit: 127,
		},
		{
			Name: "missing definition file",
			Args: []string{"", "proxy", "--interfaces", "./testdata/nope.toml"},
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

func TestCommand_Output(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "StoreProxy.class")

	testcmd.Run(t, testcmd.Case{
		Args: []string{"", "proxy", "--interfaces", "./testdata/api.toml", "--name", "StoreProxy", "--output", out, "com.example.Store"},
		Exit: 0,
	})

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("expected a class file to be written: %v", err)
	}

	cf, err := classfile.ParseClass(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("could not parse class file: %v", err)
	}

	name, err := cf.ThisClassName()
	if err != nil {
		t.Fatalf("could not read class name: %v", err)
	}
	if name != "com/example/proxy/StoreProxy" {
		t.Errorf("class name = %q, want %q", name, "com/example/proxy/StoreProxy")
	}
	if cf.MajorVersion != 52 {
		t.Errorf("major version = %d, want 52", cf.MajorVersion)
	}

	interfaces, err := cf.InterfaceNames()
	if err != nil {
		t.Fatalf("could not read interfaces: %v", err)
	}
	if diff := cmp.Diff([]string{"com/example/Store"}, interfaces); diff != "" {
		t.Errorf("interfaces mismatch (-want +got):\n%s", diff)
	}
}
