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
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/engine"
)

func cascadeCmd() *cli.Command {
	return &cli.Command{
		Name:      "cascade",
		Usage:     "Replay cascade choices for a category",
		ArgsUsage: "<category>",
		Description: `Apply the given choices level by level and print the resulting state:
the options of every level, the terminal records and, with --record, the
resolved component.

  sbctl cascade ram --choice DDR4 --choice 16 --choice DIMM`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "choice",
				Aliases: []string{"c"},
				Usage:   "Value picked at the next level (can be repeated)",
			},
			&cli.StringFlag{
				Name:  "record",
				Usage: "Terminal record to resolve",
			},
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 1, "<category>"); err != nil {
				return err
			}
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.engine.Cascade(ctx, engine.CascadeRequest{
				Category: catalog.Category(strings.ToLower(cmd.Args().First())),
				Choices:  cmd.StringSlice("choice"),
				RecordID: cmd.String("record"),
			})
			if err != nil {
				return err
			}
			return write(ctx, cmd, state)
		},
	}
}
