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

package client

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

// Interface is an alias for kubernetes.Interface so fake clientsets can
// stand in for real ones.
type Interface = kubernetes.Interface

const (
	// UserAgent identifies server-builder requests in API server audit logs.
	UserAgent = "server-builder"

	defaultQPS   = 10
	defaultBurst = 20
)

// inClusterKey caches the client built from the service account.
const inClusterKey = ""

type entry struct {
	client Interface
	config *rest.Config
}

var (
	mu      sync.Mutex
	clients = map[string]entry{}
)

// GetKubeClient returns the shared client for the auto-discovered
// configuration: KUBECONFIG, then ~/.kube/config, then the in-cluster
// service account.
func GetKubeClient() (Interface, *rest.Config, error) {
	return GetKubeClientWithConfig("")
}

// GetKubeClientWithConfig returns the shared client for kubeconfig, building
// it on first use. An empty path means auto-discovery. Failed builds are not
// cached, so a later call can succeed once the file exists.
func GetKubeClientWithConfig(kubeconfig string) (Interface, *rest.Config, error) {
	key := ResolveKubeconfig(kubeconfig)

	mu.Lock()
	defer mu.Unlock()

	if e, ok := clients[key]; ok {
		return e.client, e.config, nil
	}
	cs, cfg, err := build(key)
	if err != nil {
		return nil, nil, err
	}
	clients[key] = entry{client: cs, config: cfg}
	return cs, cfg, nil
}

// BuildKubeClient creates an uncached client from kubeconfig. An empty path
// means auto-discovery.
func BuildKubeClient(kubeconfig string) (*kubernetes.Clientset, *rest.Config, error) {
	return build(ResolveKubeconfig(kubeconfig))
}

// ResolveKubeconfig returns the kubeconfig file to use, or an empty string
// when only the in-cluster configuration remains.
func ResolveKubeconfig(kubeconfig string) string {
	if kubeconfig != "" {
		return kubeconfig
	}
	if env := os.Getenv("KUBECONFIG"); env != "" {
		return env
	}
	path := filepath.Join(homedir.HomeDir(), ".kube", "config")
	if _, err := os.Stat(path); err != nil {
		return inClusterKey
	}
	return path
}

func build(kubeconfig string) (*kubernetes.Clientset, *rest.Config, error) {
	var (
		cfg *rest.Config
		err error
	)
	if kubeconfig == inClusterKey {
		// InClusterConfig avoids the "Neither --kubeconfig nor --master" warning
		if cfg, err = rest.InClusterConfig(); err != nil {
			return nil, nil, fmt.Errorf("failed to get in-cluster config: %w", err)
		}
	} else if cfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig); err != nil {
		return nil, nil, fmt.Errorf("failed to build kube config from %s: %w", kubeconfig, err)
	}

	cfg.UserAgent = rest.DefaultKubernetesUserAgent() + " " + UserAgent
	if cfg.QPS == 0 {
		cfg.QPS = defaultQPS
	}
	if cfg.Burst == 0 {
		cfg.Burst = defaultBurst
	}

	cs, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return cs, cfg, nil
}

// reset drops cached clients.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	clients = map[string]entry{}
}
