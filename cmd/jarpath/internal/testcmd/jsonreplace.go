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

package testcmd

import (
	"strconv"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type JSONReplaceRule struct {
	Path        string
	ReplaceFunc func(toReplace gjson.Result) any
}

var (
	// OnlyURLResourcesRule simplifies resources to only their URL
	OnlyURLResourcesRule = JSONReplaceRule{
		Path: "results.#.resources",
		ReplaceFunc: func(toReplace gjson.Result) any {
			return toReplace.Get("#.url").Value()
		},
	}
	// ShortenDigests truncates resource digests to `sha256:` and the first
	// eight hex characters
	ShortenDigests = JSONReplaceRule{
		Path: "results.#.resources.#.digest",
		ReplaceFunc: func(toReplace gjson.Result) any {
			if len(toReplace.String()) > 15 {
				return toReplace.String()[:15] + "..."
			}

			return toReplace.String()
		},
	}
)

func expandArrayPaths(t *testing.T, jsonInput string, path string) []string {
	t.Helper()

	// split on the first intermediate #, if present
	pathToArray, restOfPath, hasArrayPlaceholder := strings.Cut(path, ".#.")

	// if there is no intermediate placeholder, check for (and cut) a terminal one
	if !hasArrayPlaceholder {
		pathToArray, hasArrayPlaceholder = strings.CutSuffix(path, ".#")
	}

	// if there are no array placeholders in the path, just return it
	if !hasArrayPlaceholder {
		return []string{path}
	}

	r := gjson.Get(jsonInput, pathToArray)

	// skip properties that are not arrays
	if !r.IsArray() {
		return []string{}
	}

	// if property exists and is actually an array, build out the path to each item
	// within that array
	paths := make([]string, 0, len(r.Array()))

	for i := range r.Array() {
		static := pathToArray + "." + strconv.Itoa(i)

		if restOfPath != "" {
			static += "." + restOfPath
		}
		paths = append(paths, expandArrayPaths(t, jsonInput, static)...)
	}

	return paths
}

// replaceJSONInput takes a gjson path and replaces all elements the path matches with the output of matcher
func replaceJSONInput(t *testing.T, jsonInput string, path string, replacer func(toReplace gjson.Result) any) string {
	t.Helper()

	var err error
	json := jsonInput
	for _, pathElem := range expandArrayPaths(t, jsonInput, path) {
		res := gjson.Get(jsonInput, pathElem)

		if !res.Exists() {
			continue
		}

		// optimistically replace the element, since we know at this point it does exist
		json, err = sjson.SetOptions(json, pathElem, replacer(res), &sjson.Options{Optimistic: true})
		if err != nil {
			t.Fatalf("failed to set element")
		}
	}

	return json
}
