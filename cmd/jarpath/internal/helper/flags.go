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

package helper

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/jarpath/internal/cmdlogger"
	"github.com/urfave/cli/v3"
)

// ConfigFlag builds the --config flag of commands that read a config file
func ConfigFlag() cli.Flag {
	return &cli.StringFlag{
		Name:      "config",
		Usage:     "set/override config file",
		TakesFile: true,
	}
}

// GetGlobalFlags returns the flags shared by every jarpath command
func GetGlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "verbosity",
			Usage: "specify the level of information that should be provided during runtime; value can be: " + strings.Join(cmdlogger.Levels(), ", "),
			Value: "info",
			Action: func(_ context.Context, _ *cli.Command, s string) error {
				lvl, err := cmdlogger.ParseLevel(s)

				if err != nil {
					return err
				}

				cmdlogger.SetLevel(lvl)

				return nil
			},
		},
	}
}

// Formats returns the output formats supported by commands that print results
func Formats() []string {
	return []string{"table", "json"}
}

// FormatFlag builds the --format flag; any structured format sends all logs
// to stderr so stdout only holds the result
func FormatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "sets the output format; value can be: " + strings.Join(Formats(), ", "),
		Value:   "table",
		Action: func(_ context.Context, _ *cli.Command, s string) error {
			if !slices.Contains(Formats(), s) {
				return fmt.Errorf("unsupported output format \"%s\" - must be one of: %s", s, strings.Join(Formats(), ", "))
			}

			if s != "table" {
				cmdlogger.SendEverythingToStderr()
			}

			return nil
		},
	}
}
