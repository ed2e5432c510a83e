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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/NVIDIA/server-builder/pkg/catalog"
)

const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

var catalogFetches = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sb_catalog_fetches_total",
		Help: "Total number of catalog fetches by source, category and result",
	},
	[]string{"source", "category", "result"},
)

func recordFetch(src string, c catalog.Category, result string) {
	catalogFetches.WithLabelValues(src, string(c), result).Inc()
}
