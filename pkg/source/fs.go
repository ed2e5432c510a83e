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
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
)

//go:embed data/*.json data/*.yaml
var dataFS embed.FS

// DefaultMaxFileSize is the largest catalog file a directory source reads (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// FS serves catalog files from a filesystem.
type FS struct {
	fsys        fs.FS
	name        string
	maxFileSize int64
}

// NewEmbedded returns the source of the catalogs compiled into the binary.
func NewEmbedded() *FS {
	sub, err := fs.Sub(dataFS, "data")
	if err != nil {
		// the embed pattern guarantees the directory
		panic(fmt.Sprintf("embedded catalogs: %v", err))
	}
	return &FS{fsys: sub, name: string(KindEmbedded)}
}

// DirConfig configures a directory source.
type DirConfig struct {
	// Path is the catalog directory.
	Path string

	// MaxFileSize is the maximum allowed file size in bytes (default: 10MB).
	MaxFileSize int64

	// AllowSymlinks allows symlinked catalog files (default: false).
	AllowSymlinks bool
}

// NewDir returns a source reading the catalog files of a directory. The
// directory must exist; individual catalogs may be missing.
func NewDir(cfg DirConfig) (*FS, error) {
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}

	info, err := os.Stat(cfg.Path)
	if err != nil {
		return nil, cberrors.Wrap(cberrors.ErrCodeNotFound,
			fmt.Sprintf("catalog directory not found: %s", cfg.Path), err)
	}
	if !info.IsDir() {
		return nil, cberrors.New(cberrors.ErrCodeInvalidRequest,
			fmt.Sprintf("catalog path is not a directory: %s", cfg.Path))
	}

	if !cfg.AllowSymlinks {
		for _, c := range catalog.SupportedCategories() {
			for _, name := range fileNames(c) {
				fi, lerr := os.Lstat(filepath.Join(cfg.Path, name))
				if lerr != nil {
					continue
				}
				if fi.Mode()&os.ModeSymlink != 0 {
					return nil, cberrors.New(cberrors.ErrCodeInvalidRequest,
						fmt.Sprintf("symlinks not allowed: %s", name))
				}
			}
		}
	}

	slog.Debug("directory catalog source initialized", "path", cfg.Path, "max_file_size", cfg.MaxFileSize)
	return &FS{fsys: os.DirFS(cfg.Path), name: string(KindDir), maxFileSize: cfg.MaxFileSize}, nil
}

// NewFS returns a source over any filesystem, labelled name in logs and metrics.
func NewFS(fsys fs.FS, name string) *FS {
	return &FS{fsys: fsys, name: name}
}

// FetchCatalog implements CatalogSource.
func (s *FS) FetchCatalog(ctx context.Context, c catalog.Category) (catalog.Document, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Document{}, unavailable(s.name, c, err)
	}

	for _, name := range fileNames(c) {
		if s.maxFileSize > 0 {
			info, err := fs.Stat(s.fsys, name)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err == nil && info.Size() > s.maxFileSize {
				recordFetch(s.name, c, resultError)
				return catalog.Document{}, unavailable(s.name, c,
					fmt.Errorf("file too large (%d bytes, max %d): %s", info.Size(), s.maxFileSize, name))
			}
		}

		data, err := fs.ReadFile(s.fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			recordFetch(s.name, c, resultError)
			return catalog.Document{}, unavailable(s.name, c, err)
		}
		return decode(s.name, c, data)
	}

	recordFetch(s.name, c, resultMiss)
	return catalog.Document{}, unavailable(s.name, c, fs.ErrNotExist)
}
