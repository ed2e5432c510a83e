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

package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	normalizeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sb_normalize_duration_seconds",
			Help:    "Duration of catalog normalization by category",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"category"},
	)

	catalogDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sb_catalog_degraded_total",
			Help: "Total number of catalog loads that degraded to an empty record set",
		},
		[]string{"category"},
	)

	viewDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sb_view_duration_seconds",
			Help:    "Duration of building a configuration view",
			Buckets: prometheus.DefBuckets,
		},
	)

	mutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sb_mutations_total",
			Help: "Total number of configuration mutations by operation and result",
		},
		[]string{"operation", "result"},
	)
)
