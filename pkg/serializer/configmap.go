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

package serializer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/NVIDIA/server-builder/pkg/defaults"
	"github.com/NVIDIA/server-builder/pkg/header"
	"github.com/NVIDIA/server-builder/pkg/k8s/client"
)

// ConfigMapURIScheme prefixes ConfigMap outputs: cm://namespace/name.
const ConfigMapURIScheme = "cm://"

// Keyed values name the ConfigMap data key they are stored under, without
// extension. A catalog published as "ram" lands in ram.json and can be read
// back by the ConfigMap catalog source.
type Keyed interface {
	DataKey() string
}

// ConfigMapWriter stores serialized documents as keys of one ConfigMap.
// Keys already present are kept, so several documents can share a map.
type ConfigMapWriter struct {
	namespace string
	name      string
	format    Format
	client    client.Interface
}

// ConfigMapOption configures a ConfigMapWriter.
type ConfigMapOption func(*ConfigMapWriter)

// WithConfigMapClient sets the Kubernetes client. By default the shared
// client from pkg/k8s/client is used.
func WithConfigMapClient(cs client.Interface) ConfigMapOption {
	return func(w *ConfigMapWriter) {
		w.client = cs
	}
}

// NewConfigMapWriter returns a writer to namespace/name. Table output is
// stored as JSON since tables cannot be read back.
func NewConfigMapWriter(namespace, name string, format Format, opts ...ConfigMapOption) *ConfigMapWriter {
	if format.IsUnknown() || format == FormatTable {
		format = FormatJSON
	}
	w := &ConfigMapWriter{namespace: namespace, name: name, format: format}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Serialize writes v under its data key, creating the ConfigMap if needed.
func (w *ConfigMapWriter) Serialize(ctx context.Context, v any) error {
	writeCtx, cancel := context.WithTimeout(ctx, defaults.K8sConfigMapWriteTimeout)
	defer cancel()

	cs := w.client
	if cs == nil {
		var err error
		if cs, _, err = client.GetKubeClient(); err != nil {
			return fmt.Errorf("failed to get kubernetes client: %w", err)
		}
	}

	content, err := Marshal(w.format, v)
	if err != nil {
		return err
	}
	key := dataKey(v) + "." + w.format.Extension()
	labels := map[string]string{"app.kubernetes.io/name": "server-builder"}
	if h, ok := v.(interface{ GetKind() header.Kind }); ok && h.GetKind() != "" {
		labels["app.kubernetes.io/component"] = strings.ToLower(h.GetKind().String())
	}

	cms := cs.CoreV1().ConfigMaps(w.namespace)
	cm, err := cms.Get(writeCtx, w.name, metav1.GetOptions{})
	switch {
	case apierrors.IsNotFound(err):
		cm = &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Name: w.name, Namespace: w.namespace, Labels: labels},
			Data:       map[string]string{},
		}
		setData(cm, key, content)
		if _, err := cms.Create(writeCtx, cm, metav1.CreateOptions{FieldManager: "sbctl"}); err != nil {
			return fmt.Errorf("failed to create ConfigMap %s/%s: %w", w.namespace, w.name, err)
		}
	case err != nil:
		return fmt.Errorf("failed to read ConfigMap %s/%s: %w", w.namespace, w.name, err)
	default:
		if cm.Labels == nil {
			cm.Labels = map[string]string{}
		}
		for k, v := range labels {
			cm.Labels[k] = v
		}
		setData(cm, key, content)
		if _, err := cms.Update(writeCtx, cm, metav1.UpdateOptions{FieldManager: "sbctl"}); err != nil {
			return fmt.Errorf("failed to update ConfigMap %s/%s: %w", w.namespace, w.name, err)
		}
	}

	slog.Info("configmap written", "namespace", w.namespace, "name", w.name, "key", key, "format", w.format)
	return nil
}

// Close is a no-op.
func (w *ConfigMapWriter) Close() error {
	return nil
}

func setData(cm *corev1.ConfigMap, key string, content []byte) {
	if cm.Data == nil {
		cm.Data = map[string]string{}
	}
	cm.Data[key] = string(content)
	cm.Data["updated"] = time.Now().UTC().Format(time.RFC3339)
}

func dataKey(v any) string {
	if k, ok := v.(Keyed); ok && k.DataKey() != "" {
		return k.DataKey()
	}
	if h, ok := v.(interface{ GetKind() header.Kind }); ok && h.GetKind() != "" {
		return strings.ToLower(h.GetKind().String())
	}
	return "document"
}

// ParseConfigMapURI splits a cm://namespace/name URI.
func ParseConfigMapURI(uri string) (namespace, name string, err error) {
	if !strings.HasPrefix(uri, ConfigMapURIScheme) {
		return "", "", fmt.Errorf("invalid ConfigMap URI: must start with %s", ConfigMapURIScheme)
	}
	namespace, name, ok := strings.Cut(strings.TrimPrefix(uri, ConfigMapURIScheme), "/")
	if !ok {
		return "", "", fmt.Errorf("invalid ConfigMap URI format: expected %snamespace/name, got %s", ConfigMapURIScheme, uri)
	}
	namespace, name = strings.TrimSpace(namespace), strings.TrimSpace(name)
	if namespace == "" || name == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI %s: namespace and name are required", uri)
	}
	return namespace, name, nil
}
