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

// Package client builds and shares Kubernetes clients.
//
// Clients are cached per kubeconfig path and safe for concurrent use. The
// catalog ConfigMap source and the ConfigMap serializer obtain their client
// here unless one is injected:
//
//	cs, _, err := client.GetKubeClientWithConfig(kubeconfig)
//	if err != nil {
//	    return fmt.Errorf("failed to get kubernetes client: %w", err)
//	}
//	src := source.NewConfigMap(cs, "hw", "catalogs")
//
// An empty kubeconfig path resolves to KUBECONFIG, then ~/.kube/config, then
// the in-cluster service account.
//
// Tests use k8s.io/client-go/kubernetes/fake:
//
//	src := source.NewConfigMap(fake.NewClientset(cm), "hw", "catalogs")
package client
