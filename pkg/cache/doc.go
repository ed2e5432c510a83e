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

// Package cache provides the TTL cache the engine keeps normalized catalogs
// in.
//
// A Cache is an explicit object owned by its caller. Entries expire after
// the configured TTL and can be dropped individually or all at once:
//
//	c := cache.New[catalog.Category, []catalog.Record](defaults.CatalogCacheTTL,
//	    cache.WithName("catalog"))
//	recs, err := c.GetOrLoad(ctx, catalog.CategoryRAM, func(ctx context.Context) ([]catalog.Record, error) {
//	    return fetch(ctx, catalog.CategoryRAM)
//	})
//
// Concurrent GetOrLoad calls for the same key share one load. Failed loads
// are not cached. Hits and misses are counted in sb_cache_hits_total and
// sb_cache_misses_total, labelled by cache name.
package cache
