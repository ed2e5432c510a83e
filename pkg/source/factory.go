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

package source

import (
	"fmt"
	"time"

	"github.com/NVIDIA/server-builder/pkg/k8s/client"
)

// Config selects and configures a source.
type Config struct {
	Kind Kind `json:"kind" yaml:"kind" mapstructure:"kind"`

	// Location is a directory for dir and layered, a base URL for http and
	// cm://namespace/name for configmap.
	Location string `json:"location" yaml:"location" mapstructure:"location"`

	RequestsPerSecond int           `json:"requestsPerSecond" yaml:"requestsPerSecond" mapstructure:"requests_per_second"`
	Timeout           time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	Kubeconfig        string        `json:"kubeconfig,omitempty" yaml:"kubeconfig,omitempty" mapstructure:"kubeconfig"`
}

// New builds the source described by cfg. An empty kind means embedded.
func New(cfg Config) (CatalogSource, error) {
	switch cfg.Kind {
	case "", KindEmbedded:
		return NewEmbedded(), nil
	case KindDir:
		return NewDir(DirConfig{Path: cfg.Location})
	case KindLayered:
		dir, err := NewDir(DirConfig{Path: cfg.Location})
		if err != nil {
			return nil, err
		}
		return NewLayered(dir, NewEmbedded()), nil
	case KindHTTP:
		return NewHTTP(HTTPConfig{
			BaseURL:           cfg.Location,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Timeout:           cfg.Timeout,
		})
	case KindConfigMap:
		namespace, name, err := ParseConfigMapURI(cfg.Location)
		if err != nil {
			return nil, err
		}
		cs, _, err := client.GetKubeClientWithConfig(cfg.Kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to get kubernetes client: %w", err)
		}
		return NewConfigMap(cs, namespace, name), nil
	default:
		return nil, fmt.Errorf("unknown catalog source kind %q", cfg.Kind)
	}
}
