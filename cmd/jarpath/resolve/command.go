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

// Package resolve implements the resolve command, which looks resources up
// on a class path.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/jarpath/cmd/jarpath/internal/helper"
	"github.com/google/jarpath/internal/cmdlogger"
	urlutil "github.com/google/jarpath/internal/url"
	"github.com/google/jarpath/pkg/classpath"
	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"
)

func Command(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "finds which class path entries provide the given resources",
		Description: "searches the class path in order for each resource name and reports the first match, " +
			"or every match with --all. Entries are JAR files, directories (ending in /) or http(s) URLs.",
		Flags: append([]cli.Flag{
			&cli.StringSliceFlag{
				Name:    "classpath",
				Aliases: []string{"cp"},
				Usage:   "class path entries to search, in order; defaults to the ClassPath of the config file",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "report every match of each resource instead of only the first",
			},
			helper.FormatFlag(),
			helper.ConfigFlag(),
		}, helper.GetGlobalFlags()...),
		ArgsUsage: "[resource names...]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return action(ctx, cmd, stdout, stderr)
		},
	}
}

func action(ctx context.Context, cmd *cli.Command, stdout, _ io.Writer) error {
	names := cmd.Args().Slice()
	if len(names) == 0 {
		return fmt.Errorf("%w: expected at least one resource name", helper.ErrNoInput)
	}

	cfg, err := helper.GetConfig(cmd, ".")
	if err != nil {
		return err
	}

	locations := cmd.StringSlice("classpath")
	for i, loc := range locations {
		locations[i] = markDirectory(loc)
	}
	if len(locations) == 0 {
		locations = cfg.ResolvedClassPath()
	}
	if len(locations) == 0 {
		return fmt.Errorf("%w: the class path is empty, use --classpath or a config file", helper.ErrNoInput)
	}

	opts, err := cfg.ResolverOptions()
	if err != nil {
		return err
	}

	r, err := classpath.New(locations, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := multierr.Combine(r.Close()...); err != nil {
			cmdlogger.Warnf("Failed to close class path: %v", err)
		}
	}()

	cmdlogger.Debugf("Searching %d class path entries", len(locations))

	res := Results{Results: make([]Result, 0, len(names))}
	for _, name := range names {
		result, err := lookup(ctx, r, name, cmd.Bool("all"))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		res.Results = append(res.Results, result)
	}

	if err := printResults(stdout, cmd.String("format"), res); err != nil {
		return err
	}

	if missing := res.missing(); missing > 0 {
		return fmt.Errorf("%d of %d resources: %w", missing, len(names), classpath.ErrNotFound)
	}

	return nil
}

// markDirectory adds the trailing separator that marks a class path entry
// as a directory when loc names an existing local directory.
func markDirectory(loc string) string {
	if urlutil.IsURL(loc) || strings.HasSuffix(loc, "/") || strings.HasSuffix(loc, string(filepath.Separator)) {
		return loc
	}

	if info, err := os.Stat(loc); err == nil && info.IsDir() {
		return loc + "/"
	}

	return loc
}

func lookup(ctx context.Context, r *classpath.Resolver, name string, all bool) (Result, error) {
	result := Result{Name: name, Resources: []Resource{}}

	add := func(res *classpath.Resource) error {
		d, err := res.Digest(ctx)
		if err != nil {
			return err
		}
		result.Resources = append(result.Resources, Resource{
			URL:        res.URL.String(),
			CodeSource: res.CodeSourceURL.String(),
			Size:       res.ContentLength,
			Digest:     d.String(),
		})

		return nil
	}

	if !all {
		res, err := r.GetResource(ctx, name)
		if errors.Is(err, classpath.ErrNotFound) {
			return result, nil
		}
		if err != nil {
			return result, err
		}

		return result, add(res)
	}

	for res, err := range r.GetResources(ctx, name) {
		if err != nil {
			return result, err
		}
		if err := add(res); err != nil {
			return result, err
		}
	}

	return result, nil
}
