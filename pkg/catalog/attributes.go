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
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Attributes is an ordered string-keyed map of attribute values.
//
// Values are one of: nil, bool, int64, float64, string, []any or *Attributes.
// Iteration and serialization follow insertion order.
type Attributes struct {
	keys   []string
	values map[string]any
}

// NewAttributes returns an empty attribute map.
func NewAttributes() *Attributes {
	return &Attributes{values: make(map[string]any)}
}

// AttributesFromMap builds attributes from plain Go values. Keys are sorted
// at every level since map order is unknown.
func AttributesFromMap(m map[string]any) *Attributes {
	out, _ := fromPlain(m).(*Attributes)
	if out == nil {
		return NewAttributes()
	}
	return out
}

// Set stores v under key, keeping the original position of an existing key.
func (a *Attributes) Set(key string, v any) {
	if a.values == nil {
		a.values = make(map[string]any)
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = v
}

// Get returns the value stored directly under key.
func (a *Attributes) Get(key string) (any, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a.values[key]
	return v, ok
}

// Has reports whether key is present at the top level.
func (a *Attributes) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Keys returns the top-level keys in order.
func (a *Attributes) Keys() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of top-level keys.
func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Lookup resolves a dotted attribute path such as "memory.slots".
// A key that itself contains dots is matched before the path is split.
func (a *Attributes) Lookup(path string) (any, bool) {
	if a == nil || path == "" {
		return nil, false
	}
	if v, ok := a.values[path]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(path, ".")
	if !found {
		return nil, false
	}
	next, ok := a.values[head].(*Attributes)
	if !ok {
		return nil, false
	}
	return next.Lookup(rest)
}

// String returns the scalar at path formatted as text, or "" when the path
// is missing or does not hold a scalar.
func (a *Attributes) String(path string) string {
	v, ok := a.Lookup(path)
	if !ok {
		return ""
	}
	s, _ := FormatScalar(v)
	return s
}

// Float returns the numeric value at path. Numeric strings are accepted.
func (a *Attributes) Float(path string) (float64, bool) {
	v, ok := a.Lookup(path)
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// Int returns the value at path as an integer, truncating floats. Values
// outside the int range, NaN included, are reported as missing.
func (a *Attributes) Int(path string) (int, bool) {
	f, ok := a.Float(path)
	if !ok || math.IsNaN(f) || f >= math.MaxInt || f <= math.MinInt {
		return 0, false
	}
	return int(f), true
}

// Bool returns the boolean at path.
func (a *Attributes) Bool(path string) bool {
	v, _ := a.Lookup(path)
	b, _ := v.(bool)
	return b
}

// Strings returns the scalar elements at path. A single scalar yields a
// one-element slice; non-scalar array elements are skipped.
func (a *Attributes) Strings(path string) []string {
	v, ok := a.Lookup(path)
	if !ok {
		return nil
	}
	if arr, isArr := v.([]any); isArr {
		out := make([]string, 0, len(arr))
		for _, e := range arr {
			if s, scalar := FormatScalar(e); scalar && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s, scalar := FormatScalar(v); scalar && s != "" {
		return []string{s}
	}
	return nil
}

// Objects returns the object elements of the array at path.
func (a *Attributes) Objects(path string) []*Attributes {
	v, ok := a.Lookup(path)
	if !ok {
		return nil
	}
	return objectsOf(v)
}

// Clone returns a deep copy.
func (a *Attributes) Clone() *Attributes {
	if a == nil {
		return nil
	}
	out := &Attributes{
		keys:   make([]string, len(a.keys)),
		values: make(map[string]any, len(a.values)),
	}
	copy(out.keys, a.keys)
	for k, v := range a.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

// ToMap converts the attributes into plain Go maps and slices.
func (a *Attributes) ToMap() map[string]any {
	if a == nil {
		return nil
	}
	out := make(map[string]any, len(a.keys))
	for _, k := range a.keys {
		out[k] = plainValue(a.values[k])
	}
	return out
}

// MarshalJSON encodes the attributes as a JSON object in key order.
func (a *Attributes) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(a.values[k])
		if err != nil {
			return nil, fmt.Errorf("failed to encode attribute %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object preserving key order.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	v, err := decodeJSON(data)
	if err != nil {
		return err
	}
	obj, ok := v.(*Attributes)
	if !ok {
		return fmt.Errorf("attributes must be a JSON object")
	}
	*a = *obj
	return nil
}

// MarshalYAML encodes the attributes as a YAML mapping in key order.
func (a *Attributes) MarshalYAML() (any, error) {
	return toYAMLNode(a)
}

// UnmarshalYAML decodes a YAML mapping preserving key order.
func (a *Attributes) UnmarshalYAML(node *yaml.Node) error {
	v, err := fromYAMLNode(node)
	if err != nil {
		return err
	}
	obj, ok := v.(*Attributes)
	if !ok {
		return fmt.Errorf("attributes must be a YAML mapping")
	}
	*a = *obj
	return nil
}

// FormatScalar renders a scalar value as text. The second result is false
// for arrays and objects.
func FormatScalar(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int:
		return strconv.Itoa(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

// ToFloat converts numeric values and numeric strings to float64.
func ToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func objectsOf(v any) []*Attributes {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]*Attributes, 0, len(arr))
	for _, e := range arr {
		if obj, isObj := e.(*Attributes); isObj {
			out = append(out, obj)
		}
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Attributes:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func plainValue(v any) any {
	switch t := v.(type) {
	case *Attributes:
		return t.ToMap()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	default:
		return v
	}
}

// fromPlain converts plain Go values into the ordered representation.
// Map keys are sorted since their original order is unknown.
func fromPlain(v any) any {
	switch t := v.(type) {
	case *Attributes:
		return t
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := NewAttributes()
		for _, k := range keys {
			out.Set(k, fromPlain(t[k]))
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromPlain(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromPlain(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}
