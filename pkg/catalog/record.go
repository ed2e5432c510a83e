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

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
)

// Record is the normalized unit of a catalog: one component model.
type Record struct {
	// ID is unique within the category.
	ID string `json:"id" yaml:"id"`

	Category Category `json:"category" yaml:"category"`

	// DisplayName is derived from attributes and never empty.
	DisplayName string `json:"displayName" yaml:"displayName"`

	// Lineage holds the names of the groups enclosing the model.
	Lineage Lineage `json:"lineage,omitempty" yaml:"lineage,omitempty"`

	// Attributes is the category-specific spec payload. Lineage values are
	// merged in under their own keys when the model does not carry them.
	Attributes *Attributes `json:"attributes" yaml:"attributes"`
}

// LineageEntry is one named grouping above a model.
type LineageEntry struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Lineage is the ordered list of groupings above a model, outermost first.
type Lineage []LineageEntry

// Get returns the value recorded for key.
func (l Lineage) Get(key string) string {
	for _, e := range l {
		if e.Key == key {
			return e.Value
		}
	}
	return ""
}

// Brand returns the brand or manufacturer grouping.
func (l Lineage) Brand() string {
	if b := l.Get("brand"); b != "" {
		return b
	}
	return l.Get("manufacturer")
}

// Series returns the series grouping.
func (l Lineage) Series() string {
	return l.Get("series")
}

// with returns a copy of l with entries appended; an existing key is replaced in place.
func (l Lineage) with(entries ...LineageEntry) Lineage {
	out := make(Lineage, len(l), len(l)+len(entries))
	copy(out, l)
	for _, e := range entries {
		replaced := false
		for i := range out {
			if out[i].Key == e.Key {
				out[i].Value = e.Value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, e)
		}
	}
	return out
}

// idKeys are the attribute paths carrying a document-provided id, in precedence order.
var idKeys = []string{"uuid", "UUID", "inventory.UUID"}

// idNamespace scopes derived record IDs.
var idNamespace = uuid.MustParse("5d3e9f0a-51c4-4c1e-9b7a-8e2f6a1d0c47")

// Normalizer flattens documents of one category into records.
type Normalizer struct {
	Category Category
	Shapes   []Shape
	Namer    Namer
}

// DefaultNormalizer returns the normalizer registered for c.
func DefaultNormalizer(c Category) Normalizer {
	return Normalizer{
		Category: c,
		Shapes:   categoryShapes[c],
		Namer:    DefaultNamer(c),
	}
}

// Normalize flattens doc into records using c's default normalizer.
func Normalize(c Category, doc Document) []Record {
	return DefaultNormalizer(c).Normalize(doc)
}

// Normalize flattens doc into records. An unrecognized shape yields an
// empty, non-nil slice. The input document is not modified.
func (n Normalizer) Normalize(doc Document) []Record {
	shape := detect(n.Shapes, doc.root)
	if shape.Kind == ShapeUnrecognized {
		slog.Debug("catalog shape not recognized", "category", n.Category)
		return []Record{}
	}

	namer := n.Namer
	if namer == nil {
		namer = DefaultNamer(n.Category)
	}

	items := shape.items(doc.root)
	records := make([]Record, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for ordinal, item := range items {
		attrs := item.attrs.Clone()
		for _, e := range item.lineage {
			if e.Key == "group" || attrs.Has(e.Key) {
				continue
			}
			attrs.Set(e.Key, e.Value)
		}

		name := namer(n.Category, attrs)
		id := documentID(attrs)
		if _, dup := seen[id]; id == "" || dup {
			id = deriveID(n.Category, item.lineage, name, ordinal)
		}
		seen[id] = struct{}{}

		records = append(records, Record{
			ID:          id,
			Category:    n.Category,
			DisplayName: name,
			Lineage:     item.lineage,
			Attributes:  attrs,
		})
	}

	return records
}

func documentID(attrs *Attributes) string {
	for _, k := range idKeys {
		if v, ok := attrs.Lookup(k); ok {
			if s, isStr := v.(string); isStr && s != "" {
				return s
			}
		}
	}
	return ""
}

type idSeed struct {
	Category    Category    `json:"category"`
	Lineage     [][2]string `json:"lineage"`
	DisplayName string      `json:"displayName"`
	Ordinal     int         `json:"ordinal"`
}

// deriveID builds a name-based UUID over the canonical JSON of the seed.
func deriveID(c Category, lineage Lineage, name string, ordinal int) string {
	seed := idSeed{
		Category:    c,
		Lineage:     make([][2]string, 0, len(lineage)),
		DisplayName: name,
		Ordinal:     ordinal,
	}
	for _, e := range lineage {
		seed.Lineage = append(seed.Lineage, [2]string{e.Key, e.Value})
	}

	// seed holds only strings and ints, encoding cannot fail
	raw, _ := json.Marshal(seed)
	canonical, err := jcs.Transform(raw)
	if err != nil {
		canonical = raw
	}
	return uuid.NewSHA1(idNamespace, canonical).String()
}
