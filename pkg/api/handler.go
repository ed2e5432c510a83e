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

package api

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/defaults"
	"github.com/NVIDIA/server-builder/pkg/engine"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
	"github.com/NVIDIA/server-builder/pkg/resolver"
	"github.com/NVIDIA/server-builder/pkg/schema"
	"github.com/NVIDIA/server-builder/pkg/serializer"
	"github.com/NVIDIA/server-builder/pkg/server"
	"github.com/NVIDIA/server-builder/pkg/store"
	"github.com/NVIDIA/server-builder/pkg/template"
)

const filterPrefix = "filter."

// Handler serves the engine.
type Handler struct {
	engine   *engine.Engine
	importer *template.Importer
}

// NewHandler returns handlers over eng. Template imports claim from inv.
func NewHandler(eng *engine.Engine, inv store.Inventory) *Handler {
	return &Handler{engine: eng, importer: template.NewImporter(eng, inv)}
}

// Routes returns the handlers keyed by ServeMux pattern.
func (h *Handler) Routes() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"GET /v1/catalog":                                                 h.ListCategories,
		"GET /v1/catalog/{category}":                                      h.Catalog,
		"GET /v1/catalog/{category}/records/{id}":                         h.Record,
		"POST /v1/catalog/{category}/cascade":                             h.Cascade,
		"POST /v1/catalog/invalidate":                                     h.Invalidate,
		"GET /v1/lint":                                                    h.Lint,
		"GET /v1/configurations":                                          h.ListConfigurations,
		"POST /v1/configurations":                                         h.CreateConfiguration,
		"GET /v1/configurations/{id}":                                     h.View,
		"POST /v1/configurations/{id}/components":                         h.AddComponent,
		"DELETE /v1/configurations/{id}/components/{category}/{instance}": h.RemoveComponent,
		"POST /v1/configurations/{id}/import":                             h.Import,
		"POST /v1/templates/preview":                                      h.Preview,
	}
}

// CategoryInfo describes one registered category.
type CategoryInfo struct {
	catalog.Info `yaml:",inline"`

	Cascade bool `json:"cascade" yaml:"cascade"`
	Slot    bool `json:"slot" yaml:"slot"`
}

// ListCategories handles GET /v1/catalog. It lists the registered categories
// in presentation order, flagging those with a cascade or slot binding.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	reg := h.engine.Registry()
	out := make([]CategoryInfo, 0, reg.Count())
	for _, c := range reg.Categories() {
		b, _ := reg.Get(c)
		out = append(out, CategoryInfo{Info: b.Info, Cascade: b.HasCascade, Slot: b.HasSlot})
	}
	serializer.Respond(w, r, http.StatusOK, out)
}

// Catalog handles GET /v1/catalog/{category}. The search query parameter
// narrows by display name and architecture; filter.<key>=<value> parameters
// apply the category filters. Unsupported categories yield 400.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.ViewHandlerTimeout)
	defer cancel()

	q := engine.CatalogQuery{
		Category: category(r),
		Search:   r.URL.Query().Get("search"),
		Filters:  catalog.FilterSelection{},
	}
	for key, values := range r.URL.Query() {
		if name, ok := strings.CutPrefix(key, filterPrefix); ok && len(values) > 0 {
			q.Filters[name] = values[0]
		}
	}

	res, err := h.engine.Catalog(ctx, q)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "catalog query failed", nil)
		return
	}
	serializer.Respond(w, r, http.StatusOK, res)
}

// Record handles GET /v1/catalog/{category}/records/{id}. Unknown ids yield
// 404 with COMPONENT_NOT_FOUND.
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.ViewHandlerTimeout)
	defer cancel()

	c := category(r)
	recs, err := h.engine.Records(ctx, c)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "catalog read failed", nil)
		return
	}
	rec, err := resolver.NewIndex(c, recs).Resolve(r.PathValue("id"))
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "record lookup failed", nil)
		return
	}
	serializer.Respond(w, r, http.StatusOK, rec)
}

// Cascade handles POST /v1/catalog/{category}/cascade. The body lists the
// choices made so far; the response carries the options of the next level,
// or the matching record once every level is chosen.
func (h *Handler) Cascade(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.ViewHandlerTimeout)
	defer cancel()

	var req engine.CascadeRequest
	if err := serializer.ReadJSON(r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	req.Category = category(r)

	state, err := h.engine.Cascade(ctx, req)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "cascade failed", nil)
		return
	}
	serializer.Respond(w, r, http.StatusOK, state)
}

// Invalidate handles POST /v1/catalog/invalidate. Without a category query
// parameter every cached catalog is dropped.
func (h *Handler) Invalidate(w http.ResponseWriter, r *http.Request) {
	if c := r.URL.Query().Get("category"); c != "" {
		h.engine.Invalidate(catalog.Category(strings.ToLower(c)))
	} else {
		h.engine.InvalidateAll()
	}
	w.WriteHeader(http.StatusNoContent)
}

// Lint handles GET /v1/lint.
func (h *Handler) Lint(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.ViewHandlerTimeout)
	defer cancel()

	report, err := schema.LintEngine(ctx, h.engine)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "lint failed", nil)
		return
	}
	serializer.Respond(w, r, http.StatusOK, report)
}

// ListConfigurations handles GET /v1/configurations.
func (h *Handler) ListConfigurations(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.List(r.Context())
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "list failed", nil)
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	serializer.Respond(w, r, http.StatusOK, list)
}

// CreateRequest is the body of POST /v1/configurations.
type CreateRequest struct {
	Name string `json:"name"`
}

// CreateConfiguration handles POST /v1/configurations and returns 201 with
// the new configuration in the Location header.
func (h *Handler) CreateConfiguration(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := serializer.ReadJSON(r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	snap, err := h.engine.Create(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "create failed", nil)
		return
	}
	w.Header().Set("Location", "/v1/configurations/"+snap.ID)
	serializer.Respond(w, r, http.StatusCreated, snap)
}

// View handles GET /v1/configurations/{id}: components, slot layout,
// compatibility report, summary and power estimate.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.ViewHandlerTimeout)
	defer cancel()

	view, err := h.engine.View(ctx, r.PathValue("id"))
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "view failed", nil)
		return
	}
	serializer.Respond(w, r, http.StatusOK, view)
}

// AddComponent handles POST /v1/configurations/{id}/components. Requests the
// store rejects, such as a second motherboard, yield 409 with the store
// message.
func (h *Handler) AddComponent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.MutationHandlerTimeout)
	defer cancel()

	var req engine.AddRequest
	if err := serializer.ReadJSON(r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	req.ConfigurationID = r.PathValue("id")
	req.Category = catalog.Category(strings.ToLower(string(req.Category)))

	res, err := h.engine.Add(ctx, req)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "add failed", nil)
		return
	}
	serializer.Respond(w, r, http.StatusCreated, res)
}

// RemoveComponent handles
// DELETE /v1/configurations/{id}/components/{category}/{instance}.
func (h *Handler) RemoveComponent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.MutationHandlerTimeout)
	defer cancel()

	res, err := h.engine.Remove(ctx, engine.RemoveRequest{
		ConfigurationID: r.PathValue("id"),
		Category:        category(r),
		InstanceID:      r.PathValue("instance"),
	})
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "remove failed", nil)
		return
	}
	serializer.Respond(w, r, http.StatusOK, res)
}

// Import handles POST /v1/configurations/{id}/import. The body is a YAML or
// JSON template; items that cannot be placed are listed as skipped and do
// not fail the request.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.ViewHandlerTimeout)
	defer cancel()

	tpl, ok := readTemplate(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if _, err := h.engine.View(ctx, id); err != nil {
		server.WriteErrorFromErr(w, r, err, "import failed", nil)
		return
	}
	report, err := h.importer.Import(ctx, id, tpl)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "import failed", nil)
		return
	}
	serializer.Respond(w, r, http.StatusOK, report)
}

// Preview handles POST /v1/templates/preview. Nothing is stored.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.ViewHandlerTimeout)
	defer cancel()

	tpl, ok := readTemplate(w, r)
	if !ok {
		return
	}
	p, err := template.Preview(ctx, h.engine, tpl)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "preview failed", nil)
		return
	}
	serializer.Respond(w, r, http.StatusOK, p)
}

// readTemplate parses a YAML or JSON template body.
func readTemplate(w http.ResponseWriter, r *http.Request) (*template.Template, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, serializer.MaxRequestBody))
	if err != nil {
		writeBadRequest(w, r, err)
		return nil, false
	}
	tpl, err := template.Parse(body)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "invalid template", nil)
		return nil, false
	}
	return tpl, true
}

func category(r *http.Request) catalog.Category {
	return catalog.Category(strings.ToLower(r.PathValue("category")))
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	server.WriteErrorFromErr(w, r, cberrors.Wrap(cberrors.ErrCodeInvalidRequest, "invalid request body", err), "invalid request body", nil)
}
