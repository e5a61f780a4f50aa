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

// Package helper provides helper functions for the jarpath CLI.
package helper

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/jarpath/internal/config"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// ErrNoInput is returned by commands run without their required arguments
var ErrNoInput = errors.New("no input given")

// GetConfig returns the config for target, or the file named by --config
// if that flag was given
func GetConfig(cmd *cli.Command, target string) (config.Config, error) {
	manager := config.Manager{}

	if p := cmd.String("config"); p != "" {
		if err := manager.UseOverride(p); err != nil {
			return config.Config{}, err
		}
	}

	return manager.Get(target)
}

// TerminalWidth returns the width of stdout, or 0 if it is not a terminal
func TerminalWidth(stdout io.Writer) int {
	stdoutAsFile, ok := stdout.(*os.File)
	if !ok {
		return 0
	}

	termWidth, _, err := term.GetSize(int(stdoutAsFile.Fd()))
	if err != nil { // output is not a terminal
		return 0
	}

	return termWidth
}

// NewTable returns a table writer that renders to w
func NewTable(w io.Writer, terminalWidth int) table.Writer {
	if terminalWidth <= 0 {
		text.DisableColors()
	}

	outputTable := table.NewWriter()
	outputTable.SetOutputMirror(w)

	// use fancy characters if we're outputting to a terminal
	if terminalWidth > 0 {
		outputTable.SetStyle(table.StyleRounded)
		outputTable.SetAllowedRowLength(terminalWidth)
	}

	outputTable.Style().Options.DoNotColorBordersAndSeparators = true
	outputTable.Style().Color.Row = text.Colors{text.Reset, text.BgHiBlack}
	outputTable.Style().Color.RowAlternate = text.Colors{text.Reset, text.BgBlack}

	return outputTable
}

// WriteFile writes data to path, or to stdout when path is empty
func WriteFile(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	return nil
}
