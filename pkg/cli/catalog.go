// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/server-builder/pkg/api"
	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/engine"
	"github.com/NVIDIA/server-builder/pkg/resolver"
	"github.com/NVIDIA/server-builder/pkg/schema"
)

// categoryList is the table form of the registered categories.
type categoryList []api.CategoryInfo

func (l categoryList) Columns() []string {
	return []string{"category", "name", "multiple", "required", "cascade", "slot"}
}

func (l categoryList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, i := range l {
		rows = append(rows, []string{
			string(i.Category), i.Name,
			strconv.FormatBool(i.Multiple), strconv.FormatBool(i.Required),
			strconv.FormatBool(i.Cascade), strconv.FormatBool(i.Slot),
		})
	}
	return rows
}

// catalogView is a filtered catalog. Published to a ConfigMap it is stored
// under the category name.
type catalogView struct {
	engine.CatalogResult `yaml:",inline"`
}

func (v catalogView) DataKey() string {
	return string(v.Category)
}

func (v catalogView) Columns() []string {
	return []string{"id", "name", "lineage"}
}

func (v catalogView) Rows() [][]string {
	rows := make([][]string, 0, len(v.Records))
	for _, r := range v.Records {
		var lineage []string
		for _, e := range r.Lineage {
			lineage = append(lineage, e.Value)
		}
		rows = append(rows, []string{r.ID, r.DisplayName, strings.Join(lineage, " / ")})
	}
	return rows
}

func catalogCmd() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Browse component catalogs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List registered categories",
				Flags: []cli.Flag{outputFlag(), formatFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := openApp(ctx, cmd)
					if err != nil {
						return err
					}
					defer a.Close()

					reg := a.engine.Registry()
					out := make(categoryList, 0, reg.Count())
					for _, c := range reg.Categories() {
						b, _ := reg.Get(c)
						out = append(out, api.CategoryInfo{Info: b.Info, Cascade: b.HasCascade, Slot: b.HasSlot})
					}
					return write(ctx, cmd, out)
				},
			},
			{
				Name:      "show",
				Usage:     "Show the records of a category",
				ArgsUsage: "<category>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "search",
						Usage: "Case-insensitive text matched against record fields",
					},
					&cli.StringSliceFlag{
						Name:  "filter",
						Usage: "Filter selection (format: key=value, can be repeated)",
					},
					outputFlag(),
					formatFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return showCatalog(ctx, cmd)
				},
			},
			{
				Name:      "record",
				Usage:     "Show one catalog record",
				ArgsUsage: "<category> <id>",
				Flags:     []cli.Flag{outputFlag(), formatFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := requireArgs(cmd, 2, "<category> <id>"); err != nil {
						return err
					}
					a, err := openApp(ctx, cmd)
					if err != nil {
						return err
					}
					defer a.Close()

					c := catalog.Category(strings.ToLower(cmd.Args().Get(0)))
					recs, err := a.engine.Records(ctx, c)
					if err != nil {
						return err
					}
					rec, err := resolver.NewIndex(c, recs).Resolve(cmd.Args().Get(1))
					if err != nil {
						return err
					}
					return write(ctx, cmd, rec)
				},
			},
			{
				Name:  "lint",
				Usage: "Check that catalog records carry the paths rules and cascades read",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "fail",
						Usage: "Exit non-zero when findings are reported",
					},
					outputFlag(),
					formatFlag(),
					kubeconfigFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := openApp(ctx, cmd)
					if err != nil {
						return err
					}
					defer a.Close()

					report, err := schema.LintEngine(ctx, a.engine)
					if err != nil {
						return err
					}
					if err := write(ctx, cmd, report); err != nil {
						return err
					}
					if cmd.Bool("fail") && !report.OK() {
						return cli.Exit(fmt.Sprintf("lint reported %d finding(s)", len(report.Findings)), 2)
					}
					return nil
				},
			},
			{
				Name:      "export",
				Usage:     "Export a category, typically to a ConfigMap",
				ArgsUsage: "<category>",
				Description: `Write the records of a category. When the output is a ConfigMap URI
the catalog is stored under the key <category>.<format>, so several
categories can share one ConfigMap:

  sbctl catalog export ram --format json --output cm://hw/catalogs`,
				Flags: []cli.Flag{outputFlag(), formatFlag(), kubeconfigFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return showCatalog(ctx, cmd)
				},
			},
		},
	}
}

func showCatalog(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 1, "<category>"); err != nil {
		return err
	}
	filters, err := parseFilters(cmd.StringSlice("filter"))
	if err != nil {
		return err
	}

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.engine.Catalog(ctx, engine.CatalogQuery{
		Category: catalog.Category(strings.ToLower(cmd.Args().First())),
		Filters:  filters,
		Search:   cmd.String("search"),
	})
	if err != nil {
		return err
	}
	return write(ctx, cmd, catalogView{CatalogResult: *res})
}

// parseFilters parses key=value pairs.
func parseFilters(pairs []string) (catalog.FilterSelection, error) {
	sel := catalog.FilterSelection{}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q, expected key=value", p)
		}
		sel[key] = strings.TrimSpace(value)
	}
	return sel, nil
}
