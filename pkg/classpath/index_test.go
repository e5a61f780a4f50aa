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

package classpath_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/jarpath/internal/testutility"
	"github.com/google/jarpath/pkg/classpath"
	"github.com/google/jarpath/pkg/extension"
	"github.com/google/jarpath/pkg/jarindex"
	"github.com/google/jarpath/pkg/manifest"
	"github.com/google/jarpath/pkg/metaindex"
)

const indexHeader = "JarIndex-Version: 1.0\n\n"

func TestResolver_IndexRedirect(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	main := testutility.WriteJAR(t, filepath.Join(dir, "main.jar"), map[string]string{
		manifest.Path:      "Manifest-Version: 1.0\nClass-Path: ignored.jar\n",
		jarindex.IndexName: indexHeader + "main.jar\napp\n\nlib/x.jar\nx\n",
		"app/Main.class":   "",
	})
	x := testutility.WriteJAR(t, filepath.Join(dir, "lib", "x.jar"), map[string]string{
		"x/X.class":  "",
		"y/Y.class":  "",
		"x/data.txt": "",
	})
	testutility.WriteJAR(t, filepath.Join(dir, "ignored.jar"), map[string]string{
		"z/Z.class": "",
	})

	tests := []struct {
		name string
		want string
	}{
		{name: "app/Main.class", want: jarURL(main, "app/Main.class")},
		{name: "x/X.class", want: jarURL(x, "x/X.class")},
		{name: "x/data.txt", want: jarURL(x, "x/data.txt")},
		// only the packages listed in the index are followed
		{name: "y/Y.class", want: ""},
		// a JAR with an index does not follow its Class-Path
		{name: "z/Z.class", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newResolver(t, []string{main})
			if got := findURL(t, r, tt.name); got != tt.want {
				t.Errorf("FindResource() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolver_IndexReservesJars(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	main := testutility.WriteJAR(t, filepath.Join(dir, "main.jar"), map[string]string{
		jarindex.IndexName: indexHeader + "main.jar\napp\n\nlib/x.jar\nx\n",
		"app/Main.class":   "",
	})
	x := testutility.WriteJAR(t, filepath.Join(dir, "lib", "x.jar"), map[string]string{
		"x/X.class": "",
		"y/Y.class": "",
	})

	r := newResolver(t, []string{main, x})

	// lib/x.jar is owned by the index, so its unindexed packages stay hidden
	if got := findURL(t, r, "y/Y.class"); got != "" {
		t.Errorf("FindResource(y/Y.class) = %q, want not found", got)
	}
	if got, want := findURL(t, r, "x/X.class"), jarURL(x, "x/X.class"); got != want {
		t.Errorf("FindResource(x/X.class) = %q, want %q", got, want)
	}
}

func TestResolver_NestedIndexIsMerged(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	main := testutility.WriteJAR(t, filepath.Join(dir, "main.jar"), map[string]string{
		jarindex.IndexName: indexHeader + "lib/a.jar\np\n",
	})
	testutility.WriteJAR(t, filepath.Join(dir, "lib", "a.jar"), map[string]string{
		jarindex.IndexName: indexHeader + "a.jar\np\n\nb.jar\np\nr\n",
		"p/P.class":        "",
	})
	b := testutility.WriteJAR(t, filepath.Join(dir, "lib", "b.jar"), map[string]string{
		"p/P2.class": "",
		"r/R.class":  "",
	})

	r := newResolver(t, []string{main})

	if got, want := findURL(t, r, "p/P2.class"), jarURL(b, "p/P2.class"); got != want {
		t.Errorf("FindResource(p/P2.class) = %q, want %q", got, want)
	}
	// known to main.jar only through the index merged from lib/a.jar
	if got, want := findURL(t, r, "r/R.class"), jarURL(b, "r/R.class"); got != want {
		t.Errorf("FindResource(r/R.class) = %q, want %q", got, want)
	}
}

func TestResolver_InvalidIndex(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	main := testutility.WriteJAR(t, filepath.Join(dir, "main.jar"), map[string]string{
		jarindex.IndexName: indexHeader + "lib/x.jar\nq\n",
	})
	testutility.WriteJAR(t, filepath.Join(dir, "lib", "x.jar"), map[string]string{
		"x/X.class": "",
	})
	other := testutility.WriteJAR(t, filepath.Join(dir, "other.jar"), map[string]string{
		"q/Q.class": "",
	})

	tests := []struct {
		name    string
		policy  classpath.InvalidIndexPolicy
		want    string
		wantErr error
	}{
		{
			name:    "abort",
			policy:  classpath.Abort,
			wantErr: classpath.ErrInvalidIndex,
		},
		{
			name:   "skip",
			policy: classpath.Skip,
			want:   jarURL(other, "q/Q.class"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newResolver(t, []string{main, other}, classpath.WithInvalidIndexPolicy(tt.policy))

			u, err := r.FindResource(context.Background(), "q/Q.class")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("FindResource() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				var invalid *classpath.InvalidIndexError
				if !errors.As(err, &invalid) || invalid.Name != "q/Q.class" {
					t.Errorf("FindResource() error = %#v, want an InvalidIndexError for q/Q.class", err)
				}

				return
			}
			if got := u.String(); got != tt.want {
				t.Errorf("FindResource() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolver_MetaIndex(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jars := map[string]map[string]string{
		"a.jar": {
			"com/example/a/A.class": "",
			"com/example/a/a.txt":   "",
		},
		"b.jar": {
			"com/example/b/B.class": "",
			"com/example/a/A.class": "",
		},
		"c.jar": {
			"res/c.properties": "",
		},
	}
	var paths []string
	for _, name := range []string{"a.jar", "b.jar", "c.jar"} {
		paths = append(paths, testutility.WriteJAR(t, filepath.Join(dir, name), jars[name]))
	}

	if _, err := metaindex.Generate(context.Background(), dir, nil); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	reg := metaindex.NewRegistry()
	if err := reg.RegisterDirectory(dir); err != nil {
		t.Fatalf("RegisterDirectory() error = %v", err)
	}

	plain := newResolver(t, paths)
	indexed := newResolver(t, paths, classpath.WithMetaIndex(reg))

	names := []string{
		"com/example/a/A.class",
		"com/example/a/a.txt",
		"com/example/b/B.class",
		"res/c.properties",
		"res/missing.properties",
		"META-INF/MANIFEST.MF",
	}
	for _, name := range names {
		if diff := cmp.Diff(allURLs(t, plain, name), allURLs(t, indexed, name)); diff != "" {
			t.Errorf("FindResources(%q) differs with a meta-index (-plain +indexed):\n%s", name, diff)
		}
	}
}

func TestResolver_MetaIndexDirectoryEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jar := testutility.WriteJAR(t, filepath.Join(dir, "classes.jar"), map[string]string{
		"com/":                  "",
		"com/example/":          "",
		"com/example/a/":        "",
		"com/example/a/A.class": "",
	})

	if _, err := metaindex.Generate(context.Background(), dir, nil); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	reg := metaindex.NewRegistry()
	if err := reg.RegisterDirectory(dir); err != nil {
		t.Fatalf("RegisterDirectory() error = %v", err)
	}

	plain := newResolver(t, []string{jar})
	indexed := newResolver(t, []string{jar}, classpath.WithMetaIndex(reg))

	for _, name := range []string{"com/", "com/example/", "com/example/a/", "com/example/a/A.class"} {
		want := allURLs(t, plain, name)
		if len(want) != 1 {
			t.Fatalf("FindResources(%q) without a meta-index = %v, want one match", name, want)
		}
		if diff := cmp.Diff(want, allURLs(t, indexed, name)); diff != "" {
			t.Errorf("FindResources(%q) differs with a meta-index (-plain +indexed):\n%s", name, diff)
		}
	}
}

func TestResolver_Remote(t *testing.T) {
	t.Parallel()

	srv := testutility.NewMockHTTPServer(t)
	srv.SetJAR(t, "lib/a.jar", map[string]string{"a.txt": "from jar"})
	srv.SetResponse(t, "classes/x.txt", []byte("from dir"))
	srv.SetResponse(t, "secret.txt", []byte("secret"))

	r := newResolver(t, []string{srv.URL + "/classes/", srv.URL + "/lib/a.jar"})
	ctx := context.Background()

	for range 2 {
		if got, want := findURL(t, r, "a.txt"), "jar:"+srv.URL+"/lib/a.jar!/a.txt"; got != want {
			t.Errorf("FindResource(a.txt) = %q, want %q", got, want)
		}
	}
	if got := srv.Hits("lib/a.jar"); got != 1 {
		t.Errorf("lib/a.jar was requested %d times, want 1", got)
	}

	res, err := r.GetResource(ctx, "x.txt")
	if err != nil {
		t.Fatalf("GetResource(x.txt) error = %v", err)
	}
	if got, want := res.URL.String(), srv.URL+"/classes/x.txt"; got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
	b, err := res.Bytes(ctx)
	if err != nil || string(b) != "from dir" {
		t.Errorf("Bytes() = %q, %v", b, err)
	}

	if got := findURL(t, r, "../secret.txt"); got != "" {
		t.Errorf("FindResource(../secret.txt) = %q, want not found", got)
	}
	if got := srv.Hits("secret.txt"); got != 0 {
		t.Errorf("secret.txt was requested %d times, want 0", got)
	}
}

func TestResolver_ExtensionCheck(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	app := testutility.WriteJAR(t, filepath.Join(dir, "app.jar"), map[string]string{
		manifest.Path: "Manifest-Version: 1.0\n" +
			"Class-Path: dep.jar\n" +
			"Extension-List: foo\n" +
			"foo-Extension-Name: com.example.foo\n" +
			"foo-Specification-Version: 1.2\n",
	})
	dep := testutility.WriteJAR(t, filepath.Join(dir, "dep.jar"), map[string]string{"dep.txt": ""})

	var requested []string
	checker := extension.NewChecker(filepath.Join(dir, "ext"))
	checker.AddProvider(extension.ProviderFunc(func(_ context.Context, required extension.Info, _ *extension.Info) (bool, error) {
		requested = append(requested, required.Name+" "+required.SpecificationVersion)
		return false, nil
	}))

	r := newResolver(t, []string{app}, classpath.WithExtensionChecker(checker))

	// an unsatisfied dependency does not stop the class path from loading
	if got, want := findURL(t, r, "dep.txt"), jarURL(dep, "dep.txt"); got != want {
		t.Errorf("FindResource() = %q, want %q", got, want)
	}
	if diff := cmp.Diff([]string{"com.example.foo 1.2"}, requested); diff != "" {
		t.Errorf("providers were asked for (-want +got):\n%s", diff)
	}
}
