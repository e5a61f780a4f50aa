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

package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/jarpath/cmd/jarpath/internal/helper"
	"github.com/google/jarpath/internal/cmdlogger"
	"github.com/google/jarpath/internal/config"
	"github.com/google/jarpath/internal/testlogger"
	"github.com/google/jarpath/internal/version"
	"github.com/google/jarpath/pkg/classpath"
	"github.com/urfave/cli/v3"
)

var (
	commit = "n/a"
	date   = "n/a"
)

type CommandBuilder = func(stdout, stderr io.Writer) *cli.Command

func Run(args []string, stdout, stderr io.Writer, commands []CommandBuilder) int {
	// urfave/cli uses a global for its help flag which makes it possible for a nil
	// pointer dereference if running in a parallel setting, which our test suite
	// does, so this is used to hide the help flag so the global won't be used
	// unless a particular env variable is set
	//
	// see https://github.com/urfave/cli/issues/2176
	shouldHideHelp := testing.Testing() && os.Getenv("TEST_SHOW_HELP") != "true"

	// --- Setup Logger ---
	logHandler := cmdlogger.New(stdout, stderr)

	// If in testing mode, set logger via Handler
	// Otherwise, set default global logger
	if testing.Testing() {
		handler, ok := slog.Default().Handler().(*testlogger.Handler)
		if !ok {
			panic("Test failed to initialize default logger with Handler")
		}

		handler.AddInstance(logHandler)
		defer handler.Delete()
	} else {
		slog.SetDefault(slog.New(logHandler))
	}
	// ---

	cli.VersionPrinter = func(cmd *cli.Command) {
		cmdlogger.Infof("jarpath version: %s", cmd.Version)
		cmdlogger.Infof("commit: %s", commit)
		cmdlogger.Infof("built at: %s", date)
	}

	cmds := make([]*cli.Command, 0, len(commands))
	for _, cmd := range commands {
		c := cmd(stdout, stderr)
		c.HideHelp = shouldHideHelp

		cmds = append(cmds, c)
	}

	app := &cli.Command{
		Name:      "jarpath",
		Version:   version.JarpathVersion,
		Usage:     "resolves resources across a class path of JARs and directories",
		Suggest:   true,
		HideHelp:  shouldHideHelp,
		Writer:    stdout,
		ErrWriter: stderr,
		Commands:  cmds,

		CustomRootCommandHelpTemplate: getCustomHelpTemplate(),
	}

	// If ExitErrHandler is not set, cli will use the default cli.HandleExitCoder,
	// which exits early for any error that happens to have an ExitCode() method.
	// Exit codes are decided below instead.
	app.ExitErrHandler = func(_ context.Context, _ *cli.Command, _ error) {}

	err := app.Run(context.Background(), args)

	if err != nil {
		switch {
		case errors.Is(err, config.ErrInvalidConfig):
			// an invalid config may be why anything else went wrong,
			// so this exit code takes priority
			cmdlogger.Errorf("%v", err)
			return 130
		case errors.Is(err, classpath.ErrNotFound):
			return 1
		case errors.Is(err, helper.ErrNoInput):
			cmdlogger.Errorf("%v, --help for usage information.", err)
			return 128
		}
		cmdlogger.Errorf("%v", err)
	}

	// if we've been told to print an error, and not already exited with
	// a specific error code, then exit with a generic non-zero code
	if logHandler.HasErrored() {
		return 127
	}

	return 0
}
