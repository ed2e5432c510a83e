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
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/engine"
	"github.com/NVIDIA/server-builder/pkg/store"
)

// summaryList is the table form of stored configurations.
type summaryList []store.Summary

func (l summaryList) Columns() []string {
	return []string{"id", "name", "components", "updated"}
}

func (l summaryList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, s := range l {
		rows = append(rows, []string{s.ID, s.Name, fmt.Sprint(s.Components), s.UpdatedAt.Format(time.RFC3339)})
	}
	return rows
}

func configCmd() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Aliases: []string{"configuration"},
		Usage:   "Manage stored configurations",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create an empty configuration",
				ArgsUsage: "<name>",
				Flags:     []cli.Flag{outputFlag(), formatFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := requireArgs(cmd, 1, "<name>"); err != nil {
						return err
					}
					a, err := openApp(ctx, cmd)
					if err != nil {
						return err
					}
					defer a.Close()

					snap, err := a.engine.Create(ctx, strings.TrimSpace(cmd.Args().First()))
					if err != nil {
						return err
					}
					return write(ctx, cmd, snap)
				},
			},
			{
				Name:  "list",
				Usage: "List configurations, most recently updated first",
				Flags: []cli.Flag{outputFlag(), formatFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := openApp(ctx, cmd)
					if err != nil {
						return err
					}
					defer a.Close()

					list, err := a.engine.List(ctx)
					if err != nil {
						return err
					}
					return write(ctx, cmd, summaryList(list))
				},
			},
			{
				Name:      "show",
				Usage:     "Show the derived view: components, layout, issues and summary",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{outputFlag(), formatFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return showView(ctx, cmd, func(v *engine.View) any { return v })
				},
			},
			{
				Name:      "summary",
				Usage:     "Show whether a configuration is complete",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{outputFlag(), formatFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return showView(ctx, cmd, func(v *engine.View) any { return v.Summary })
				},
			},
			{
				Name:      "add",
				Usage:     "Add a component to a configuration",
				ArgsUsage: "<id> <category> <component-id>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "quantity",
						Aliases: []string{"q"},
						Value:   1,
						Usage:   "Number of units",
					},
					&cli.IntFlag{
						Name:  "slot",
						Usage: "Preferred slot position, starting at 1",
					},
					outputFlag(),
					formatFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := requireArgs(cmd, 3, "<id> <category> <component-id>"); err != nil {
						return err
					}
					a, err := openApp(ctx, cmd)
					if err != nil {
						return err
					}
					defer a.Close()

					req := engine.AddRequest{
						ConfigurationID: cmd.Args().Get(0),
						Category:        catalog.Category(strings.ToLower(cmd.Args().Get(1))),
						ComponentID:     cmd.Args().Get(2),
						Quantity:        int(cmd.Int("quantity")),
					}
					if cmd.IsSet("slot") {
						pos := int(cmd.Int("slot"))
						req.SlotPosition = &pos
					}
					res, err := a.engine.Add(ctx, req)
					if err != nil {
						return err
					}
					return write(ctx, cmd, res)
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a component instance from a configuration",
				ArgsUsage: "<id> <category> <instance-id>",
				Flags:     []cli.Flag{outputFlag(), formatFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := requireArgs(cmd, 3, "<id> <category> <instance-id>"); err != nil {
						return err
					}
					a, err := openApp(ctx, cmd)
					if err != nil {
						return err
					}
					defer a.Close()

					res, err := a.engine.Remove(ctx, engine.RemoveRequest{
						ConfigurationID: cmd.Args().Get(0),
						Category:        catalog.Category(strings.ToLower(cmd.Args().Get(1))),
						InstanceID:      cmd.Args().Get(2),
					})
					if err != nil {
						return err
					}
					return write(ctx, cmd, res)
				},
			},
		},
	}
}

func showView(ctx context.Context, cmd *cli.Command, pick func(*engine.View) any) error {
	if err := requireArgs(cmd, 1, "<id>"); err != nil {
		return err
	}
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	view, err := a.engine.View(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	return write(ctx, cmd, pick(view))
}
