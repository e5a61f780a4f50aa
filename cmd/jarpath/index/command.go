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

// Package index implements the index command, which builds the
// META-INF/INDEX.LIST of a JAR.
package index

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/jarpath/cmd/jarpath/internal/helper"
	"github.com/google/jarpath/internal/cmdlogger"
	"github.com/google/jarpath/internal/jarwriter"
	"github.com/google/jarpath/pkg/jarindex"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

var errConflictingOutputs = errors.New("--output and --update cannot be used together")

func Command(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "builds the jar index of a JAR and the JARs on its class path",
		Description: "indexes the first JAR together with every JAR reachable through Class-Path manifest attributes, " +
			"or together with the JARs given after it. The index is printed unless --output or --update is set.",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:      "output",
				Aliases:   []string{"o"},
				Usage:     "saves the index to the given file path",
				TakesFile: true,
			},
			&cli.BoolFlag{
				Name:  "update",
				Usage: "stores the index as " + jarindex.IndexName + " inside the first JAR",
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "prints a table of the indexed JARs and their packages",
			},
			&cli.BoolFlag{
				Name:  "meta-inf-filenames",
				Usage: "indexes files below META-INF/ by their full name",
			},
		}, helper.GetGlobalFlags()...),
		ArgsUsage: "[jar] [jars...]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return action(ctx, cmd, stdout, stderr)
		},
	}
}

func action(ctx context.Context, cmd *cli.Command, stdout, _ io.Writer) error {
	jars := cmd.Args().Slice()
	if len(jars) == 0 {
		return fmt.Errorf("%w: expected a JAR file", helper.ErrNoInput)
	}

	outputPath := cmd.String("output")
	update := cmd.Bool("update")
	if outputPath != "" && update {
		return errConflictingOutputs
	}

	var opts []jarindex.Option
	if cmd.Bool("meta-inf-filenames") {
		opts = append(opts, jarindex.WithMetaInfFilenames())
	}

	ix, err := build(ctx, jars, opts)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := ix.Write(&buf); err != nil {
		return err
	}

	switch {
	case update:
		if err := jarwriter.Update(ctx, jars[0], []jarwriter.Entry{{Name: jarindex.IndexName, Data: buf.Bytes()}}); err != nil {
			return fmt.Errorf("failed to update %s: %w", jars[0], err)
		}
		cmdlogger.Infof("Indexed %d JARs into %s", len(ix.JarFiles()), jars[0])
	case outputPath != "":
		if err := helper.WriteFile(stdout, outputPath, buf.Bytes()); err != nil {
			return err
		}
		cmdlogger.Infof("Indexed %d JARs into %s", len(ix.JarFiles()), outputPath)
	case !cmd.Bool("list"):
		if _, err := stdout.Write(buf.Bytes()); err != nil {
			return err
		}
	}

	if cmd.Bool("list") {
		printTable(stdout, ix)
	}

	return nil
}

// build indexes the Class-Path closure of a single JAR, or exactly the
// given JARs, named relative to the first one.
func build(ctx context.Context, jars []string, opts []jarindex.Option) (*jarindex.JarIndex, error) {
	if len(jars) == 1 {
		return jarindex.Build(ctx, jars[0], opts...)
	}

	dir := filepath.Dir(jars[0])
	files := make([]string, 0, len(jars))
	for _, jar := range jars {
		rel, err := filepath.Rel(dir, jar)
		if err != nil || strings.HasPrefix(rel, "..") {
			return nil, fmt.Errorf("%s is not below %s", jar, dir)
		}
		files = append(files, filepath.ToSlash(rel))
	}

	return jarindex.BuildFromFiles(ctx, dir, files, opts...)
}

func printTable(w io.Writer, ix *jarindex.JarIndex) {
	outputTable := helper.NewTable(w, helper.TerminalWidth(w))
	outputTable.AppendHeader(table.Row{"Jar", "Packages"})

	for _, jar := range ix.JarFiles() {
		outputTable.AppendRow(table.Row{jar, strings.Join(ix.PackagesOf(jar), "\n")})
	}

	outputTable.Render()
}
