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

// ValueType is the JSON type an attribute path is expected to hold.
type ValueType string

const (
	TypeAny    ValueType = "any"
	TypeString ValueType = "string"
	TypeNumber ValueType = "number"
	TypeBool   ValueType = "boolean"
	TypeArray  ValueType = "array"
	TypeObject ValueType = "object"
)

// PathRef declares that a consumer reads Path from records of Category.
// Linting uses these to flag paths no record carries.
type PathRef struct {
	Category Category  `json:"category" yaml:"category"`
	Path     string    `json:"path" yaml:"path"`
	Type     ValueType `json:"type" yaml:"type"`

	// Owner names the level or rule that declared the path.
	Owner string `json:"owner,omitempty" yaml:"owner,omitempty"`
}

// TypeOf returns the ValueType of an attribute value.
func TypeOf(v any) ValueType {
	switch v.(type) {
	case string:
		return TypeString
	case int64, int, float64:
		return TypeNumber
	case bool:
		return TypeBool
	case []any:
		return TypeArray
	case *Attributes:
		return TypeObject
	default:
		return TypeAny
	}
}
