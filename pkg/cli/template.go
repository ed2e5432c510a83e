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

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/server-builder/pkg/template"
)

func templateCmd() *cli.Command {
	return &cli.Command{
		Name:  "template",
		Usage: "Preview and import build templates",
		Commands: []*cli.Command{
			{
				Name:      "preview",
				Usage:     "Resolve every template item against the catalogs",
				ArgsUsage: "<file>",
				Flags:     []cli.Flag{outputFlag(), formatFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := requireArgs(cmd, 1, "<file>"); err != nil {
						return err
					}
					tpl, err := template.Load(cmd.Args().First())
					if err != nil {
						return err
					}
					a, err := openApp(ctx, cmd)
					if err != nil {
						return err
					}
					defer a.Close()

					p, err := template.Preview(ctx, a.engine, tpl)
					if err != nil {
						return err
					}
					return write(ctx, cmd, p)
				},
			},
			{
				Name:      "import",
				Usage:     "Add the template items to a configuration, claiming inventory",
				ArgsUsage: "<id> <file>",
				Flags:     []cli.Flag{outputFlag(), formatFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := requireArgs(cmd, 2, "<id> <file>"); err != nil {
						return err
					}
					tpl, err := template.Load(cmd.Args().Get(1))
					if err != nil {
						return err
					}
					a, err := openApp(ctx, cmd)
					if err != nil {
						return err
					}
					defer a.Close()

					id := cmd.Args().First()
					if _, err := a.engine.View(ctx, id); err != nil {
						return err
					}
					report, err := template.NewImporter(a.engine, a.store).Import(ctx, id, tpl)
					if err != nil {
						return err
					}
					return write(ctx, cmd, report)
				},
			},
		},
	}
}
