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
	"context"
	"fmt"
	"log/slog"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/defaults"
	"github.com/NVIDIA/server-builder/pkg/k8s/client"
)

// ConfigMapURIScheme prefixes ConfigMap locations: cm://namespace/name.
const ConfigMapURIScheme = "cm://"

// ConfigMap reads catalogs from the data (or binaryData) keys of one
// ConfigMap, named like catalog files.
type ConfigMap struct {
	client    client.Interface
	namespace string
	name      string
}

// NewConfigMap returns a ConfigMap source using cs.
func NewConfigMap(cs client.Interface, namespace, name string) *ConfigMap {
	return &ConfigMap{client: cs, namespace: namespace, name: name}
}

// FetchCatalog implements CatalogSource. The ConfigMap is read on every
// call; the engine cache bounds how often that happens.
func (s *ConfigMap) FetchCatalog(ctx context.Context, c catalog.Category) (catalog.Document, error) {
	readCtx, cancel := context.WithTimeout(ctx, defaults.K8sConfigMapReadTimeout)
	defer cancel()

	cm, err := s.client.CoreV1().ConfigMaps(s.namespace).Get(readCtx, s.name, metav1.GetOptions{})
	if err != nil {
		result := resultError
		if apierrors.IsNotFound(err) {
			result = resultMiss
		}
		recordFetch(string(KindConfigMap), c, result)
		return catalog.Document{}, unavailable(string(KindConfigMap), c, err)
	}

	for _, key := range fileNames(c) {
		if v, ok := cm.Data[key]; ok {
			slog.Debug("catalog found in configmap", "namespace", s.namespace, "name", s.name, "key", key)
			return decode(string(KindConfigMap), c, []byte(v))
		}
		if v, ok := cm.BinaryData[key]; ok {
			return decode(string(KindConfigMap), c, v)
		}
	}

	recordFetch(string(KindConfigMap), c, resultMiss)
	return catalog.Document{}, unavailable(string(KindConfigMap), c,
		fmt.Errorf("configmap %s/%s has no key for %s", s.namespace, s.name, c))
}

// ParseConfigMapURI splits cm://namespace/name.
func ParseConfigMapURI(uri string) (namespace, name string, err error) {
	if !strings.HasPrefix(uri, ConfigMapURIScheme) {
		return "", "", fmt.Errorf("invalid ConfigMap URI: must start with %s", ConfigMapURIScheme)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, ConfigMapURIScheme), "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid ConfigMap URI format: expected %snamespace/name, got %s", ConfigMapURIScheme, uri)
	}

	namespace = strings.TrimSpace(parts[0])
	name = strings.TrimSpace(parts[1])
	if namespace == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: namespace cannot be empty")
	}
	if name == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: name cannot be empty")
	}
	return namespace, name, nil
}
