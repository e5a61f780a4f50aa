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

package jarindex_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/jarpath/internal/testutility"
	"github.com/google/jarpath/pkg/jarindex"
	"github.com/google/jarpath/pkg/manifest"
)

func TestBuildFromFiles_PackageGranularity(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutility.WriteJAR(t, filepath.Join(dir, "x.jar"), map[string]string{
		"a/B.class": "",
		"a/C.class": "",
		"d/E.class": "",
	})

	x, err := jarindex.BuildFromFiles(context.Background(), dir, []string{"x.jar"})
	if err != nil {
		t.Fatalf("BuildFromFiles() error = %v", err)
	}

	if diff := cmp.Diff([]string{"a", "d"}, x.Packages()); diff != "" {
		t.Errorf("Packages() mismatch (-want +got):\n%s", diff)
	}

	for _, name := range []string{"a", "a/B.class", "a/anything-else"} {
		if diff := cmp.Diff([]string{"x.jar"}, x.Get(name)); diff != "" {
			t.Errorf("Get(%q) mismatch (-want +got):\n%s", name, diff)
		}
	}

	if got := x.Get("b/B.class"); got != nil {
		t.Errorf("Get(b/B.class) = %v, want nil", got)
	}
	if got := x.Get("nopackage"); got != nil {
		t.Errorf("Get(nopackage) = %v, want nil", got)
	}
}

func TestAdd_Idempotent(t *testing.T) {
	t.Parallel()

	x := jarindex.New()
	for range 3 {
		x.Add("a/B.class", "j.jar")
		x.Add("a/C.class", "j.jar")
	}
	x.Add("a/D.class", "k.jar")
	x.Add("Top.class", "k.jar")

	if diff := cmp.Diff([]string{"j.jar", "k.jar"}, x.Get("a/B.class")); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a"}, x.PackagesOf("j.jar")); diff != "" {
		t.Errorf("PackagesOf(j.jar) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "Top.class"}, x.PackagesOf("k.jar")); diff != "" {
		t.Errorf("PackagesOf(k.jar) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"j.jar", "k.jar"}, x.JarFiles()); diff != "" {
		t.Errorf("JarFiles() mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	t.Parallel()

	x := jarindex.New()
	x.Add("a/B.class", "main.jar")
	x.Add("a/b/C.class", "main.jar")
	x.Add("org/x/Y.class", "lib/dep.jar")
	x.Add("a/Z.class", "lib/dep.jar")
	x.AddJar("empty.jar")
	x.AddMapping("META-INF/services/foo.Bar", "lib/dep.jar")

	var buf bytes.Buffer
	if err := x.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	want := "JarIndex-Version: 1.0\n\n" +
		"main.jar\na\na/b\n\n" +
		"lib/dep.jar\norg/x\na\nMETA-INF/services/foo.Bar\n\n" +
		"empty.jar\n\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("Write() mismatch (-want +got):\n%s", diff)
	}

	y, err := jarindex.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	for _, pkg := range x.Packages() {
		if diff := cmp.Diff(x.Get(pkg), y.Get(pkg)); diff != "" {
			t.Errorf("Get(%q) after round trip mismatch (-want +got):\n%s", pkg, diff)
		}
	}
	if diff := cmp.Diff(x.JarFiles(), y.JarFiles()); diff != "" {
		t.Errorf("JarFiles() after round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    map[string][]string
		wantErr error
	}{
		{
			name:  "extra_header_lines",
			input: "JarIndex-Version: 1.0\nCreated-By: 1.8.0 (Oracle)\n\nmain.jar\na\n",
			want:  map[string][]string{"a": {"main.jar"}},
		},
		{
			name:  "crlf_and_leading_blank_lines",
			input: "\r\nJarIndex-Version: 1.0\r\n\r\nmain.jar\r\na\r\n\r\nother.jar\r\na\r\nb\r\n",
			want:  map[string][]string{"a": {"main.jar", "other.jar"}, "b": {"other.jar"}},
		},
		{
			name:  "header_only",
			input: "JarIndex-Version: 1.0\n",
			want:  map[string][]string{},
		},
		{
			name:    "missing_header",
			input:   "main.jar\na\n",
			wantErr: jarindex.ErrMalformedIndex,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: jarindex.ErrMalformedIndex,
		},
		{
			name:    "package_before_jar",
			input:   "JarIndex-Version: 1.0\n\na\nmain.jar\n",
			wantErr: jarindex.ErrMalformedIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			x, err := jarindex.Read(strings.NewReader(tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Read() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			got := map[string][]string{}
			for _, pkg := range x.Packages() {
				got[pkg] = x.Get(pkg)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Read() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	dst := jarindex.New()
	dst.Add("a/A.class", "main.jar")

	src := jarindex.New()
	src.Add("a/B.class", "x.jar")
	src.Add("b/C.class", "y.jar")
	src.Add("a/D.class", "main.jar")

	src.Merge(dst, "lib/")

	if diff := cmp.Diff([]string{"main.jar", "lib/x.jar", "lib/main.jar"}, dst.Get("a")); diff != "" {
		t.Errorf("Get(a) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"lib/y.jar"}, dst.Get("b")); diff != "" {
		t.Errorf("Get(b) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"main.jar", "lib/x.jar", "lib/main.jar", "lib/y.jar"}, dst.JarFiles()); diff != "" {
		t.Errorf("JarFiles() mismatch (-want +got):\n%s", diff)
	}

	// merging again changes nothing
	src.Merge(dst, "lib/")
	if got := len(dst.Get("a")); got != 3 {
		t.Errorf("Get(a) has %d entries after a repeated merge, want 3", got)
	}
}

func TestBuildFromFiles_SkippedEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutility.WriteJAR(t, filepath.Join(dir, "x.jar"), map[string]string{
		"META-INF/":                        "",
		"META-INF/MANIFEST.MF":             "Manifest-Version: 1.0\n",
		"META-INF/INDEX.LIST":              "JarIndex-Version: 1.0\n",
		"META-INF/versions/9/a/A.class":    "",
		"META-INF/services/":               "",
		"META-INF/services/com.example.Sp": "",
		"a/A.class":                        "",
	})

	tests := []struct {
		name string
		opts []jarindex.Option
		want []string
	}{
		{
			name: "default",
			want: []string{"META-INF/services", "a"},
		},
		{
			name: "meta_inf_filenames",
			opts: []jarindex.Option{jarindex.WithMetaInfFilenames()},
			want: []string{"META-INF/services/com.example.Sp", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			x, err := jarindex.BuildFromFiles(context.Background(), dir, []string{"x.jar"}, tt.opts...)
			if err != nil {
				t.Fatalf("BuildFromFiles() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, x.Packages()); diff != "" {
				t.Errorf("Packages() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildFromFiles_MissingJar(t *testing.T) {
	t.Parallel()

	_, err := jarindex.BuildFromFiles(context.Background(), t.TempDir(), []string{"nope.jar"})
	if err == nil {
		t.Fatal("BuildFromFiles() expected an error")
	}
}

func writeClassPathFixture(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	testutility.WriteJAR(t, filepath.Join(dir, "root.jar"), map[string]string{
		manifest.Path:    "Manifest-Version: 1.0\nClass-Path: lib/a.jar lib/b.jar classes/\n",
		"app/Main.class": "",
	})
	testutility.WriteJAR(t, filepath.Join(dir, "lib", "a.jar"), map[string]string{
		manifest.Path:  "Manifest-Version: 1.0\nClass-Path: b.jar ../c.jar missing.jar http://example.com/r.jar\n",
		"liba/A.class": "",
	})
	testutility.WriteJAR(t, filepath.Join(dir, "lib", "b.jar"), map[string]string{
		"libb/B.class": "",
	})
	testutility.WriteJAR(t, filepath.Join(dir, "c.jar"), map[string]string{
		manifest.Path:  "Manifest-Version: 1.0\nClass-Path: root.jar\n",
		"libc/C.class": "",
	})

	return filepath.Join(dir, "root.jar")
}

func TestClassPathClosure(t *testing.T) {
	t.Parallel()

	root := writeClassPathFixture(t)

	got, err := jarindex.ClassPathClosure(context.Background(), root)
	if err != nil {
		t.Fatalf("ClassPathClosure() error = %v", err)
	}

	want := []string{"root.jar", "lib/a.jar", "lib/b.jar", "c.jar"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ClassPathClosure() mismatch (-want +got):\n%s", diff)
	}
}

func TestClassPathClosure_MissingRoot(t *testing.T) {
	t.Parallel()

	_, err := jarindex.ClassPathClosure(context.Background(), filepath.Join(t.TempDir(), "nope.jar"))
	if err == nil {
		t.Fatal("ClassPathClosure() expected an error")
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	x, err := jarindex.Build(context.Background(), writeClassPathFixture(t))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var buf bytes.Buffer
	if err := x.Write(&buf); err != nil {
		t.Fatal(err)
	}

	want := "JarIndex-Version: 1.0\n\n" +
		"root.jar\napp\n\n" +
		"lib/a.jar\nliba\n\n" +
		"lib/b.jar\nlibb\n\n" +
		"c.jar\nlibc\n\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("Write() mismatch (-want +got):\n%s", diff)
	}
}

func TestFromJAR(t *testing.T) {
	t.Parallel()

	withIndex := testutility.JAR(t, map[string]string{
		jarindex.IndexName: "JarIndex-Version: 1.0\n\nmain.jar\na\n\nlib/x.jar\nb\n",
		"a/A.class":        "",
	})
	withoutIndex := testutility.JAR(t, map[string]string{"a/A.class": ""})
	brokenIndex := testutility.JAR(t, map[string]string{jarindex.IndexName: "nonsense\n"})

	open := func(b []byte) *zip.Reader {
		zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
		if err != nil {
			t.Fatal(err)
		}

		return zr
	}

	x, err := jarindex.FromJAR(open(withIndex))
	if err != nil {
		t.Fatalf("FromJAR() error = %v", err)
	}
	if diff := cmp.Diff([]string{"lib/x.jar"}, x.Get("b/B.class")); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	x, err = jarindex.FromJAR(open(withoutIndex))
	if err != nil || x != nil {
		t.Errorf("FromJAR() = %v, %v; want nil, nil", x, err)
	}

	if _, err := jarindex.FromJAR(open(brokenIndex)); !errors.Is(err, jarindex.ErrMalformedIndex) {
		t.Errorf("FromJAR() error = %v, want %v", err, jarindex.ErrMalformedIndex)
	}
}
