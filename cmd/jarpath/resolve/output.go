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

package resolve

import (
	"encoding/json"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/jarpath/cmd/jarpath/internal/helper"
	urlutil "github.com/google/jarpath/internal/url"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/opencontainers/go-digest"
)

// Results is what the resolve command reports, one Result per name looked up
type Results struct {
	Results []Result `json:"results"`
}

type Result struct {
	Name      string     `json:"name"`
	Resources []Resource `json:"resources"`
}

type Resource struct {
	URL        string `json:"url"`
	CodeSource string `json:"code_source"`
	Size       int64  `json:"size"`
	Digest     string `json:"digest"`
}

func (r Results) missing() int {
	n := 0
	for _, res := range r.Results {
		if len(res.Resources) == 0 {
			n++
		}
	}

	return n
}

func printResults(w io.Writer, format string, res Results) error {
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return encoder.Encode(res)
	}

	printTable(w, res, helper.TerminalWidth(w))

	return nil
}

func printTable(w io.Writer, res Results, terminalWidth int) {
	outputTable := helper.NewTable(w, terminalWidth)
	outputTable.AppendHeader(table.Row{"Resource", "Code Source", "Size", "Digest"})

	for _, result := range res.Results {
		if len(result.Resources) == 0 {
			outputTable.AppendRow(table.Row{result.Name, "(not found)", "", ""})
			continue
		}
		for _, r := range result.Resources {
			size := ""
			if r.Size >= 0 {
				size = strconv.FormatInt(r.Size, 10)
			}
			outputTable.AppendRow(table.Row{result.Name, displayLocation(r.CodeSource), size, shortDigest(r.Digest)})
		}
	}

	outputTable.Render()
}

// displayLocation shows local class path entries relative to the working
// directory where possible, and anything else as a URL.
func displayLocation(location string) string {
	u, err := url.Parse(location)
	if err != nil || u.Scheme != "file" {
		return location
	}

	path, err := urlutil.ToFilePath(u)
	if err != nil {
		return location
	}

	if cwd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(cwd, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}

	path = filepath.ToSlash(path)
	if strings.HasSuffix(u.Path, "/") && !strings.HasSuffix(path, "/") {
		path += "/"
	}

	return path
}

func shortDigest(s string) string {
	d, err := digest.Parse(s)
	if err != nil {
		return s
	}

	encoded := d.Encoded()
	if len(encoded) > 12 {
		encoded = encoded[:12]
	}

	return encoded
}
