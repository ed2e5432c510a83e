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

package header

import (
	"time"
)

// APIVersion is the current document API version.
const APIVersion = "serverbuilder.nvidia.com/v1"

// Kind is the type of a server builder document.
type Kind string

const (
	KindTemplate          Kind = "Template"
	KindCatalog           Kind = "Catalog"
	KindCascadeState      Kind = "CascadeState"
	KindConfigurationView Kind = "ConfigurationView"
	KindConfigurationList Kind = "ConfigurationList"
	KindImportReport      Kind = "ImportReport"
	KindTemplatePreview   Kind = "TemplatePreview"
	KindLintReport        Kind = "LintReport"
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindTemplate, KindCatalog, KindCascadeState, KindConfigurationView,
		KindConfigurationList, KindImportReport, KindTemplatePreview, KindLintReport:
		return true
	default:
		return false
	}
}

// Option configures a Header.
type Option func(*Header)

// WithMetadata adds a metadata key-value pair.
func WithMetadata(key, value string) Option {
	return func(h *Header) {
		if h.Metadata == nil {
			h.Metadata = make(map[string]string)
		}
		h.Metadata[key] = value
	}
}

// WithKind sets the document kind.
func WithKind(kind Kind) Option {
	return func(h *Header) {
		h.Kind = kind
	}
}

// WithAPIVersion sets the document API version.
func WithAPIVersion(version string) Option {
	return func(h *Header) {
		h.APIVersion = version
	}
}

// New returns a Header with the options applied.
func New(opts ...Option) *Header {
	h := &Header{Metadata: make(map[string]string)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Header identifies a document.
type Header struct {
	Kind       Kind              `json:"kind,omitempty" yaml:"kind,omitempty"`
	APIVersion string            `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Init resets the header to kind and apiVersion and stamps the current time
// and, when set, the tool version.
func (h *Header) Init(kind Kind, apiVersion, version string) {
	h.Kind = kind
	h.APIVersion = apiVersion
	h.Metadata = map[string]string{"timestamp": time.Now().UTC().Format(time.RFC3339)}
	if version != "" {
		h.Metadata["version"] = version
	}
}

// GetKind returns the document kind.
func (h *Header) GetKind() Kind {
	return h.Kind
}

// GetMetadata returns the document metadata.
func (h *Header) GetMetadata() map[string]string {
	return h.Metadata
}
