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

package metaindex_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/jarpath/internal/testutility"
	"github.com/google/jarpath/pkg/metaindex"
)

func TestMain(m *testing.M) {
	m.Run()
	testutility.CleanSnapshots(m)
}

type parsed struct {
	Jar          string
	ResourceOnly bool
	ClassOnly    bool
	Prefixes     []string
}

func summarize(entries []metaindex.Entry) []parsed {
	var out []parsed
	for _, e := range entries {
		out = append(out, parsed{
			Jar:          e.Jar,
			ResourceOnly: e.ResourceOnly,
			ClassOnly:    e.Index.ClassOnly(),
			Prefixes:     e.Index.Prefixes(),
		})
	}

	return out
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []parsed
	}{
		{
			name:  "wrong_version_is_ignored",
			input: "% VERSION 1\n! rt.jar\njava/\n",
		},
		{
			name:  "version_must_match_exactly",
			input: "% VERSION 2 \n! rt.jar\njava/\n",
		},
		{
			name:  "empty",
			input: "",
		},
		{
			name: "sections",
			input: "% VERSION 2\n" +
				"% a comment\n" +
				"! rt.jar\n" +
				"java/\n" +
				"javax/\n" +
				"\n" +
				"@ resources.jar\n" +
				"META-INF/\n" +
				"# mixed.jar\n" +
				"com/example/\n" +
				"README\n",
			want: []parsed{
				{Jar: "rt.jar", ClassOnly: true, Prefixes: []string{"java/", "javax/"}},
				{Jar: "resources.jar", ResourceOnly: true, Prefixes: []string{"META-INF/"}},
				{Jar: "mixed.jar", Prefixes: []string{"com/example/", "README"}},
			},
		},
		{
			name: "sections_without_prefixes_are_dropped",
			input: "% VERSION 2\n" +
				"! empty.jar\n" +
				"# other.jar\n" +
				"org/\n",
			want: []parsed{
				{Jar: "other.jar", Prefixes: []string{"org/"}},
			},
		},
		{
			name:  "prefixes_before_any_section_are_ignored",
			input: "% VERSION 2\norphan/\n! a.jar\na/\n",
			want: []parsed{
				{Jar: "a.jar", ClassOnly: true, Prefixes: []string{"a/"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := metaindex.Parse(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			if diff := cmp.Diff(tt.want, summarize(got)); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIndex_MayContain(t *testing.T) {
	t.Parallel()

	classOnly := metaindex.NewIndex([]string{"java/lang/", "javax/"}, true)
	mixed := metaindex.NewIndex([]string{"com/example/", "README"}, false)

	tests := []struct {
		name  string
		index *metaindex.Index
		entry string
		want  bool
	}{
		{name: "class_in_prefix", index: classOnly, entry: "java/lang/Object.class", want: true},
		{name: "class_outside_prefixes", index: classOnly, entry: "org/Foo.class", want: false},
		{name: "resource_in_class_only_jar", index: classOnly, entry: "java/lang/messages.properties", want: false},
		{name: "resource_in_mixed_jar", index: mixed, entry: "com/example/app.properties", want: true},
		{name: "top_level_file", index: mixed, entry: "README", want: true},
		{name: "prefix_is_not_a_directory_match", index: mixed, entry: "com/other/A.class", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.index.MayContain(tt.entry); got != tt.want {
				t.Errorf("MayContain(%q) = %v, want %v", tt.entry, got, tt.want)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutility.WriteTree(t, dir, map[string]string{
		metaindex.FileName: "% VERSION 2\n! a.jar\na/\n# lib/b.jar\nb/\n",
	})

	r := metaindex.NewRegistry()
	if err := r.RegisterDirectory(dir); err != nil {
		t.Fatalf("RegisterDirectory() error = %v", err)
	}
	// registering twice is harmless
	if err := r.RegisterDirectory(filepath.Join(dir, ".")); err != nil {
		t.Fatalf("RegisterDirectory() error = %v", err)
	}

	if got := r.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}

	a := r.ForJar(filepath.Join(dir, "sub", "..", "a.jar"))
	if a == nil {
		t.Fatal("ForJar(a.jar) = nil")
	}
	if !a.MayContain("a/A.class") || a.MayContain("b/B.class") {
		t.Errorf("ForJar(a.jar) returned the wrong index: %v", a.Prefixes())
	}

	if r.ForJar(filepath.Join(dir, "lib", "b.jar")) == nil {
		t.Errorf("ForJar(lib/b.jar) = nil")
	}
	if r.ForJar(filepath.Join(dir, "c.jar")) != nil {
		t.Errorf("ForJar(c.jar) should not be registered")
	}
}

func TestRegistry_MissingOrIgnored(t *testing.T) {
	t.Parallel()

	missing := t.TempDir()
	ignored := testutility.WriteTree(t, t.TempDir(), map[string]string{
		metaindex.FileName: "% VERSION 3\n! a.jar\na/\n",
	})

	r := metaindex.NewRegistry()
	for _, dir := range []string{missing, ignored} {
		if err := r.RegisterDirectory(dir); err != nil {
			t.Errorf("RegisterDirectory(%s) error = %v", dir, err)
		}
	}

	if got := r.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}

	var nilRegistry *metaindex.Registry
	if nilRegistry.ForJar(filepath.Join(ignored, "a.jar")) != nil {
		t.Errorf("nil Registry should not return an index")
	}
}

func jarFixtures() map[string]map[string]string {
	return map[string]map[string]string{
		"classes.jar": {
			"com/":                       "",
			"com/example/":               "",
			"com/example/a/A.class":      "",
			"com/example/b/deep/B.class": "",
			"Top.class":                  "",
		},
		"resources.jar": {
			"META-INF/MANIFEST.MF":  "Manifest-Version: 1.0\n",
			"config/app.properties": "",
			"config/nested/x.yaml":  "",
		},
		"mixed.jar": {
			"META-INF/INDEX.LIST":  "JarIndex-Version: 1.0\n\nmixed.jar\norg\n",
			"org/Thing.class":      "",
			"org/thing.properties": "",
		},
		"odd.jar": {
			"#weird.txt": "",
		},
	}
}

func TestBuild_IsSound(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fixtures := jarFixtures()
	for name, files := range fixtures {
		testutility.WriteJAR(t, filepath.Join(dir, name), files)
	}

	entries, err := metaindex.Build(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	byJar := map[string]*metaindex.Index{}
	for _, e := range entries {
		byJar[e.Jar] = e.Index
	}

	if _, ok := byJar["odd.jar"]; ok {
		t.Errorf("odd.jar has names that cannot be written as prefixes and should be left out")
	}
	if ix := byJar["mixed.jar"]; ix == nil || ix.ClassOnly() {
		t.Errorf("mixed.jar holds an index and resources and must not be class-only")
	}
	if ix := byJar["classes.jar"]; ix == nil || ix.ClassOnly() {
		t.Errorf("classes.jar holds directory entries and must not be class-only")
	}

	for jar, files := range fixtures {
		ix, ok := byJar[jar]
		if !ok {
			continue
		}
		for name := range files {
			if !ix.MayContain(name) {
				t.Errorf("%s: MayContain(%q) = false for a name the jar holds", jar, name)
			}
		}
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for name, files := range jarFixtures() {
		testutility.WriteJAR(t, filepath.Join(dir, name), files)
	}

	written, err := metaindex.Generate(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, metaindex.FileName))
	if err != nil {
		t.Fatal(err)
	}
	testutility.NewSnapshot().MatchText(t, string(content))

	reread, err := metaindex.Parse(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff(summarize(written), summarize(reread)); diff != "" {
		t.Errorf("Generate() did not round trip (-written +parsed):\n%s", diff)
	}
}

func TestBuild_MissingJar(t *testing.T) {
	t.Parallel()

	_, err := metaindex.Build(context.Background(), t.TempDir(), []string{"nope.jar"})
	if err == nil {
		t.Fatal("Build() expected an error for a missing jar")
	}
}
