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

package catalog

// ShapeKind is the closed set of catalog document shapes the normalizer
// understands. Add a variant only when a new document format is observed.
type ShapeKind string

const (
	// ShapeUnrecognized marks a document that matches none of a category's shapes.
	ShapeUnrecognized ShapeKind = "unrecognized"

	// ShapeFlat is an array whose elements are the models themselves.
	ShapeFlat ShapeKind = "flat"

	// ShapeGroupModels is an array of groups each carrying models[].
	ShapeGroupModels ShapeKind = "group-models"

	// ShapeGroupSeries is an array of groups each carrying series[] with models[].
	ShapeGroupSeries ShapeKind = "group-series"

	// ShapeGroupTiers is an array of groups carrying series[] with tiers[] with models[].
	ShapeGroupTiers ShapeKind = "group-tiers"

	// ShapeSpecifications is {<key>: {manufacturers: [{series: [{models: []}]}]}}.
	ShapeSpecifications ShapeKind = "specifications"

	// ShapeSeries is {series: [...]} where each series carries models[] or tiers[].
	ShapeSeries ShapeKind = "series"

	// ShapeNamedArray is an object exposing the models through one named array.
	ShapeNamedArray ShapeKind = "named-array"
)

// Shape is one registered document shape. Key names the wrapper property for
// ShapeSpecifications and ShapeNamedArray.
type Shape struct {
	Kind ShapeKind `json:"kind" yaml:"kind"`
	Key  string    `json:"key,omitempty" yaml:"key,omitempty"`
}

// String renders the shape for logs.
func (s Shape) String() string {
	if s.Key == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + "(" + s.Key + ")"
}

// arrayShapes apply to every category whose catalog is a top-level array.
var arrayShapes = []Shape{
	{Kind: ShapeGroupTiers},
	{Kind: ShapeGroupSeries},
	{Kind: ShapeGroupModels},
	{Kind: ShapeFlat},
}

func namedArrays(keys ...string) []Shape {
	out := make([]Shape, 0, len(keys))
	for _, k := range keys {
		out = append(out, Shape{Kind: ShapeNamedArray, Key: k})
	}
	return out
}

func shapes(groups ...[]Shape) []Shape {
	var out []Shape
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var specificationShapes = map[Category]Shape{
	CategoryChassis:     {Kind: ShapeSpecifications, Key: "chassis_specifications"},
	CategoryMotherboard: {Kind: ShapeSpecifications, Key: "motherboard_specifications"},
	CategoryStorage:     {Kind: ShapeSpecifications, Key: "storage_specifications"},
}

var seriesShape = Shape{Kind: ShapeSeries}

// categoryShapes lists, per category, the shapes in detection precedence.
var categoryShapes = map[Category][]Shape{
	CategoryCPU: shapes(arrayShapes,
		[]Shape{seriesShape}, namedArrays("models", "cpu", "cpus")),
	CategoryMotherboard: shapes(arrayShapes,
		[]Shape{specificationShapes[CategoryMotherboard], seriesShape}, namedArrays("models")),
	CategoryRAM: shapes(arrayShapes,
		[]Shape{seriesShape}, namedArrays("models", "ram", "memory")),
	CategoryStorage: shapes(arrayShapes,
		[]Shape{specificationShapes[CategoryStorage], seriesShape}, namedArrays("models", "storage", "storage_devices")),
	CategoryChassis: shapes(arrayShapes,
		[]Shape{specificationShapes[CategoryChassis], seriesShape}, namedArrays("models", "chassis", "chassis_models")),
	CategoryCaddy: shapes(arrayShapes,
		namedArrays("caddies", "models"), []Shape{seriesShape}),
	CategoryPCIeCard: shapes(arrayShapes,
		[]Shape{seriesShape}, namedArrays("models", "pciecard", "pcie_cards")),
	CategoryNIC: shapes(arrayShapes,
		[]Shape{seriesShape}, namedArrays("models", "nic", "network_cards")),
	CategoryHBACard: shapes(arrayShapes,
		[]Shape{seriesShape}, namedArrays("models", "hbacard", "hba_cards")),
	CategorySFP: shapes(arrayShapes,
		[]Shape{seriesShape}, namedArrays("models", "sfp", "sfp_modules")),
}

// ShapesFor returns the shapes registered for c in detection order.
func ShapesFor(c Category) []Shape {
	src := categoryShapes[c]
	out := make([]Shape, len(src))
	copy(out, src)
	return out
}

// DetectShape returns the first of c's registered shapes that doc matches.
func DetectShape(c Category, doc Document) Shape {
	return detect(categoryShapes[c], doc.root)
}

func detect(candidates []Shape, root any) Shape {
	for _, s := range candidates {
		if s.matches(root) {
			return s
		}
	}
	return Shape{Kind: ShapeUnrecognized}
}

func (s Shape) matches(root any) bool {
	switch s.Kind {
	case ShapeFlat:
		arr, ok := root.([]any)
		if !ok {
			return false
		}
		for _, e := range arr {
			if _, isObj := e.(*Attributes); !isObj {
				return false
			}
		}
		return true
	case ShapeGroupModels:
		return anyGroup(root, func(g *Attributes) bool {
			return isArray(g, "models")
		})
	case ShapeGroupSeries:
		return anyGroup(root, func(g *Attributes) bool {
			return len(g.Objects("series")) > 0
		})
	case ShapeGroupTiers:
		return anyGroup(root, func(g *Attributes) bool {
			for _, s := range g.Objects("series") {
				if isArray(s, "tiers") {
					return true
				}
			}
			return false
		})
	case ShapeSpecifications:
		obj, ok := root.(*Attributes)
		if !ok {
			return false
		}
		spec, ok := obj.values[s.Key].(*Attributes)
		return ok && isArray(spec, "manufacturers")
	case ShapeSeries:
		obj, ok := root.(*Attributes)
		return ok && isArray(obj, "series")
	case ShapeNamedArray:
		obj, ok := root.(*Attributes)
		return ok && isArray(obj, s.Key)
	default:
		return false
	}
}

func anyGroup(root any, pred func(*Attributes) bool) bool {
	for _, g := range objectsOf(root) {
		if pred(g) {
			return true
		}
	}
	return false
}

func isArray(a *Attributes, key string) bool {
	v, ok := a.Get(key)
	if !ok {
		return false
	}
	_, isArr := v.([]any)
	return isArr
}

// rawItem is one model object found while walking a document, with the
// names of the groups enclosing it.
type rawItem struct {
	attrs   *Attributes
	lineage Lineage
}

// items walks root according to the shape and returns the model objects in
// document order.
func (s Shape) items(root any) []rawItem {
	var out []rawItem

	switch s.Kind {
	case ShapeFlat:
		for _, m := range objectsOf(root) {
			out = append(out, rawItem{attrs: m})
		}
	case ShapeGroupModels, ShapeGroupSeries, ShapeGroupTiers:
		for _, g := range objectsOf(root) {
			out = append(out, walkGroup(g, groupLineage(g))...)
		}
	case ShapeSpecifications:
		spec := root.(*Attributes).values[s.Key].(*Attributes)
		for _, m := range spec.Objects("manufacturers") {
			out = append(out, walkGroup(m, groupLineage(m))...)
		}
	case ShapeSeries:
		out = walkSeries(root.(*Attributes).Objects("series"), nil)
	case ShapeNamedArray:
		for _, m := range root.(*Attributes).Objects(s.Key) {
			out = append(out, rawItem{attrs: m})
		}
	}
	return out
}

// walkGroup collects a group's direct models followed by its series models.
func walkGroup(g *Attributes, lineage Lineage) []rawItem {
	var out []rawItem
	for _, m := range g.Objects("models") {
		out = append(out, rawItem{attrs: m, lineage: lineage})
	}
	out = append(out, walkSeries(g.Objects("series"), lineage)...)
	return out
}

func walkSeries(series []*Attributes, parent Lineage) []rawItem {
	var out []rawItem
	for _, s := range series {
		lineage := parent.with(seriesLineage(s)...)
		for _, m := range s.Objects("models") {
			out = append(out, rawItem{attrs: m, lineage: lineage})
		}
		for _, t := range s.Objects("tiers") {
			tl := lineage.with(tierLineage(t)...)
			for _, m := range t.Objects("models") {
				out = append(out, rawItem{attrs: m, lineage: tl})
			}
		}
	}
	return out
}

// groupLineage keeps the scalar fields of a brand or manufacturer group.
// A bare "name" on a group is recorded as "group".
func groupLineage(g *Attributes) Lineage {
	return scalarLineage(g, map[string]string{"name": "group"})
}

// seriesLineage records the series name under "series" whichever key carries it.
func seriesLineage(s *Attributes) Lineage {
	return scalarLineage(s, map[string]string{"name": "series", "series_name": "series"})
}

func tierLineage(t *Attributes) Lineage {
	return scalarLineage(t, map[string]string{"name": "tier"})
}

func scalarLineage(a *Attributes, rename map[string]string) Lineage {
	var out Lineage
	for _, k := range a.keys {
		s, scalar := FormatScalar(a.values[k])
		if !scalar || s == "" {
			continue
		}
		key := k
		if r, ok := rename[k]; ok {
			key = r
		}
		out = out.with(LineageEntry{Key: key, Value: s})
	}
	return out
}
