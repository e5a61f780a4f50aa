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

// Package metaindex implements the metaindex command, which summarises a
// directory of JARs in a meta-index file.
package metaindex

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/jarpath/cmd/jarpath/internal/helper"
	"github.com/google/jarpath/internal/cmdlogger"
	"github.com/google/jarpath/pkg/metaindex"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

func Command(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "metaindex",
		Usage: "writes the " + metaindex.FileName + " file of a directory of JARs",
		Description: "records the name prefixes held by each JAR in the directory, so class paths " +
			"can skip opening JARs that cannot contain a resource. Without JAR names every *.jar in the directory is summarised.",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "prints the meta-index instead of writing it",
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "prints a table of the summarised JARs",
			},
		}, helper.GetGlobalFlags()...),
		ArgsUsage: "[directory] [jars...]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return action(ctx, cmd, stdout, stderr)
		},
	}
}

func action(ctx context.Context, cmd *cli.Command, stdout, _ io.Writer) error {
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("%w: expected a directory", helper.ErrNoInput)
	}

	dir := cmd.Args().First()
	jars := cmd.Args().Tail()

	var entries []metaindex.Entry
	var err error

	if cmd.Bool("dry-run") {
		entries, err = metaindex.Build(ctx, dir, jars)
		if err != nil {
			return err
		}
		if !cmd.Bool("list") {
			if err := metaindex.Write(stdout, entries); err != nil {
				return err
			}
		}
	} else {
		entries, err = metaindex.Generate(ctx, dir, jars)
		if err != nil {
			return err
		}
		cmdlogger.Infof("Wrote %d entries to %s", len(entries), filepath.Join(dir, metaindex.FileName))
	}

	if cmd.Bool("list") {
		printTable(stdout, entries)
	}

	return nil
}

func kind(e metaindex.Entry) string {
	switch {
	case e.Index.ClassOnly():
		return "classes"
	case e.ResourceOnly:
		return "resources"
	default:
		return "mixed"
	}
}

func printTable(w io.Writer, entries []metaindex.Entry) {
	outputTable := helper.NewTable(w, helper.TerminalWidth(w))
	outputTable.AppendHeader(table.Row{"Jar", "Contents", "Prefixes"})

	for _, e := range entries {
		outputTable.AppendRow(table.Row{e.Jar, kind(e), strings.Join(e.Index.Prefixes(), "\n")})
	}

	outputTable.Render()
}
