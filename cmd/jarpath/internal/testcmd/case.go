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

type Case struct {
	Name string
	Args []string
	Exit int

	// ReplaceRules are only used for JSON output
	ReplaceRules []JSONReplaceRule
}

func (c Case) isOutputtingJSON() bool {
	for i, arg := range c.Args {
		if arg == "--format=json" {
			return true
		}

		if arg == "--format" && i+1 < len(c.Args) && c.Args[i+1] == "json" {
			return true
		}
	}

	return false
}
