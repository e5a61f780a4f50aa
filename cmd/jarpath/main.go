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

package main

import (
	"os"

	"github.com/google/jarpath/cmd/jarpath/index"
	"github.com/google/jarpath/cmd/jarpath/internal/cmd"
	"github.com/google/jarpath/cmd/jarpath/metaindex"
	"github.com/google/jarpath/cmd/jarpath/proxy"
	"github.com/google/jarpath/cmd/jarpath/resolve"
)

func main() {
	exitCode := cmd.Run(
		os.Args,
		os.Stdout,
		os.Stderr,
		[]cmd.CommandBuilder{
			resolve.Command,
			index.Command,
			metaindex.Command,
			proxy.Command,
		},
	)

	os.Exit(exitCode)
}
