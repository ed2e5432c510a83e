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

package template

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/engine"
	"github.com/NVIDIA/server-builder/pkg/header"
	"github.com/NVIDIA/server-builder/pkg/resolver"
)

// PreviewItem is a template item with its catalog match.
type PreviewItem struct {
	Category    string `json:"type" yaml:"type"`
	Model       string `json:"model" yaml:"model"`
	Quantity    int    `json:"quantity" yaml:"quantity"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	ComponentID string `json:"componentId,omitempty" yaml:"componentId,omitempty"`
	Matched     bool   `json:"matched" yaml:"matched"`
	Supported   bool   `json:"supported" yaml:"supported"`
}

// PreviewReport lists every item of a template resolved against the catalogs.
type PreviewReport struct {
	header.Header `yaml:",inline"`

	Template string        `json:"template,omitempty" yaml:"template,omitempty"`
	Items    []PreviewItem `json:"items" yaml:"items"`
}

// Preview resolves the display names of every item of t. Catalogs of all
// categories are fetched in parallel before anything is returned.
func Preview(ctx context.Context, eng *engine.Engine, t *Template) (*PreviewReport, error) {
	keys := t.Categories()
	resolved := make([][]PreviewItem, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		g.Go(func() error {
			items, err := previewCategory(gctx, eng, key, t.Components[key])
			if err != nil {
				return err
			}
			resolved[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p := &PreviewReport{Template: t.Name, Items: []PreviewItem{}}
	p.Init(header.KindTemplatePreview, header.APIVersion, "")
	for _, items := range resolved {
		p.Items = append(p.Items, items...)
	}
	return p, nil
}

func previewCategory(ctx context.Context, eng *engine.Engine, key string, items []Item) ([]PreviewItem, error) {
	c := catalog.Category(key)
	_, supported := eng.Registry().Get(c)

	var recs []catalog.Record
	if supported {
		var err error
		if recs, err = eng.Records(ctx, c); err != nil {
			return nil, err
		}
	}

	out := make([]PreviewItem, 0, len(items))
	for _, it := range items {
		p := PreviewItem{
			Category:    key,
			Model:       it.Key(),
			Quantity:    it.Units(),
			DisplayName: resolver.UnknownLabel,
			Supported:   supported,
		}
		if p.Model == "" {
			p.Model = UnknownModel
		} else if rec, ok := findRecord(recs, p.Model); ok {
			p.DisplayName = rec.DisplayName
			p.ComponentID = rec.ID
			p.Matched = true
		}
		out = append(out, p)
	}
	return out, nil
}

func findRecord(recs []catalog.Record, model string) (catalog.Record, bool) {
	for _, r := range recs {
		if strings.EqualFold(r.Attributes.String("model"), model) ||
			strings.EqualFold(r.Attributes.String("name"), model) ||
			strings.EqualFold(r.DisplayName, model) {
			return r, true
		}
	}
	return catalog.Record{}, false
}
