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

// Package logging configures the slog default used by sbctl and sbd.
//
// Every record is JSON on stderr and carries the binary name and build
// version, so CLI diagnostics never mix with command output on stdout:
//
//	{"time":"2026-03-02T09:14:07Z","level":"WARN","msg":"catalog request failed",
//	 "module":"sbd","version":"v0.4.1","category":"ram","status":503}
//
// The level comes from an explicit setting (the --log-level flag or the
// log_level config key) and falls back to LOG_LEVEL. Names are matched
// case-insensitively; anything unrecognized means info. At debug level
// records also carry their source location.
//
// Binaries install the logger before they touch a catalog or a store:
//
//	logging.SetDefaultStructuredLoggerWithLevel("sbd", version, cfg.LogLevel)
//	slog.Debug("catalog unavailable, falling back to manual entry", "category", c)
//
// NewLogLogger bridges components that only accept a *log.Logger, such as
// http.Server.ErrorLog:
//
//	srv.ErrorLog = logging.NewLogLogger(slog.LevelError, false)
package logging
