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

// Package proxy implements the proxy command, which generates the class
// file of a dynamic proxy class.
package proxy

import (
	"context"
	"fmt"
	"io"

	"github.com/google/jarpath/cmd/jarpath/internal/helper"
	"github.com/google/jarpath/internal/cmdlogger"
	"github.com/google/jarpath/pkg/proxygen"
	"github.com/urfave/cli/v3"
)

// minMajorVersion is the oldest class file version the JVM accepts.
const minMajorVersion = 45

func Command(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "proxy",
		Usage: "generates a proxy class implementing interfaces from a definition file",
		Description: "generates a class extending java.lang.reflect.Proxy that forwards every interface method " +
			"to its InvocationHandler. Without interface names every interface in the file is implemented. " +
			"The class file is summarised unless --output is set.",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:      "interfaces",
				Aliases:   []string{"i"},
				Usage:     "the .toml or .yaml file defining the interfaces",
				TakesFile: true,
				Required:  true,
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "binary name of the proxy class; names without a package get the configured package prefix",
			},
			&cli.StringFlag{
				Name:      "output",
				Aliases:   []string{"o"},
				Usage:     "saves the class file to the given file path",
				TakesFile: true,
			},
			&cli.IntFlag{
				Name:  "major-version",
				Usage: fmt.Sprintf("class file major version (default: from config, else %d)", proxygen.DefaultMajorVersion),
			},
			helper.ConfigFlag(),
		}, helper.GetGlobalFlags()...),
		ArgsUsage: "[interface names...]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return action(ctx, cmd, stdout, stderr)
		},
	}
}

func action(_ context.Context, cmd *cli.Command, stdout, _ io.Writer) error {
	defsPath := cmd.String("interfaces")

	defs, err := proxygen.LoadDefinitions(defsPath)
	if err != nil {
		return err
	}

	cfg, err := helper.GetConfig(cmd, defsPath)
	if err != nil {
		return err
	}

	interfaces, err := selectInterfaces(defs, cmd.Args().Slice())
	if err != nil {
		return err
	}

	gen := defs.Generator()
	gen.MajorVersion = cfg.Proxy.MajorVersion
	if cmd.IsSet("major-version") {
		v := cmd.Int("major-version")
		if v < minMajorVersion || v > 0xFFFF {
			return fmt.Errorf("--major-version must be between %d and %d, got %d", minMajorVersion, 0xFFFF, v)
		}
		gen.MajorVersion = uint16(v)
	}

	className := cfg.Proxy.ClassName(cmd.String("name"))
	out, err := gen.Generate(className, interfaces)
	if err != nil {
		return fmt.Errorf("generating %s: %w", className, err)
	}

	if outputPath := cmd.String("output"); outputPath != "" {
		if err := helper.WriteFile(stdout, outputPath, out); err != nil {
			return err
		}
		cmdlogger.Infof("Wrote %s (%d bytes) to %s", className, len(out), outputPath)

		return nil
	}

	return printSummary(stdout, out)
}

// selectInterfaces looks names up in defs, or returns every interface in
// definition order when names is empty.
func selectInterfaces(defs *proxygen.Definitions, names []string) ([]*proxygen.Interface, error) {
	if len(names) == 0 {
		if len(defs.Interfaces) == 0 {
			return nil, fmt.Errorf("%w: the definition file has no interfaces", helper.ErrNoInput)
		}

		return defs.Interfaces, nil
	}

	interfaces := make([]*proxygen.Interface, 0, len(names))
	for _, name := range names {
		iface, ok := defs.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not defined", proxygen.ErrInvalidInterface, name)
		}
		interfaces = append(interfaces, iface)
	}

	return interfaces, nil
}
