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

// Package cmd provides the entry point shared by the jarpath CLI commands.
package cmd

func getCustomHelpTemplate() string {
	return `
NAME:
	{{.Name}} - {{.Usage}}

USAGE:
	{{.Name}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}}

EXAMPLES:
	# Find which class path entry provides a class
	$ {{.Name}} resolve --classpath lib/app.jar,classes/ com/example/Main.class

	# List every match of a resource as JSON
	$ {{.Name}} resolve --classpath lib/app.jar --all --format json META-INF/services/java.sql.Driver

	# Add an INDEX.LIST to a JAR and the JARs on its Class-Path
	$ {{.Name}} index --update lib/app.jar

	# Write a meta-index for a directory of JARs
	$ {{.Name}} metaindex lib/

	# Generate a proxy class for the interfaces in a definition file
	$ {{.Name}} proxy --interfaces api.toml --name com.example.StoreProxy --output StoreProxy.class com.example.Store

	For full usage details, please refer to the help command of each subcommand (e.g. {{.Name}} resolve --help).

VERSION:
	{{.Version}}

COMMANDS:
{{range .Commands}}{{if and (not .HideHelp) (not .Hidden)}}  {{join .Names ", "}}{{ "\t"}}{{.Usage}}{{ "\n" }}{{end}}{{end}}
{{if .VisibleFlags}}
GLOBAL OPTIONS:
	{{range .VisibleFlags}}  {{.}}{{end}}
{{end}}
`
}
