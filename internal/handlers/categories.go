// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"wavecms/internal/cache"
	"wavecms/internal/category"
)

// Categories groups the category CRUD handlers and their dependencies.
// listings may be nil when Valkey is not configured.
type Categories struct {
	svc      *category.Service
	listings *cache.ListingCache
}

// NewCategories creates the category handler group.
func NewCategories(svc *category.Service, listings *cache.ListingCache) *Categories {
	return &Categories{svc: svc, listings: listings}
}

// List serves GET /api/categories. Query parameters: format (tree|flat),
// includeInactive, includeCount, parentId, level.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	key := q.Key()
	if h.listings != nil {
		if body, ok := h.listings.Get(r.Context(), key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(body)
			return
		}
	}

	items, err := h.svc.List(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := json.Marshal(map[string]any{"categories": items})
	if err != nil {
		writeError(w, err)
		return
	}
	if h.listings != nil {
		h.listings.Set(r.Context(), key, body)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Create serves POST /api/categories.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var req category.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if msg := validateCategoryInput(req.Name, req.Color); msg != "" {
		badRequest(w, msg)
		return
	}

	created, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update serves PUT /api/categories/{id} with an optional-field patch.
func (h *Categories) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid category id")
		return
	}

	var patch category.UpdateRequest
	if err := decodeJSON(r, &patch); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if patch.Name != nil {
		var color string
		if patch.Color != nil {
			color = *patch.Color
		}
		if msg := validateCategoryInput(*patch.Name, color); msg != "" {
			badRequest(w, msg)
			return
		}
	}

	updated, err := h.svc.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete serves DELETE /api/categories/{id}?force=&cascade=.
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid category id")
		return
	}

	opts := category.DeleteOptions{
		Force:   r.URL.Query().Get("force") == "true",
		Cascade: r.URL.Query().Get("cascade") == "true",
	}
	if err := h.svc.Delete(r.Context(), id, opts); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// batchRequest is the wire shape of POST /api/categories/batch.
type batchRequest struct {
	Op      string                 `json:"op"`
	IDs     []uuid.UUID            `json:"ids"`
	Options category.DeleteOptions `json:"options"`
}

// Batch serves POST /api/categories/batch: one operation applied to a
// list of ids as a single atomic unit.
func (h *Categories) Batch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		badRequest(w, "ids is required")
		return
	}

	result, err := h.svc.Batch(r.Context(), req.Op, req.IDs, req.Options)
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Info("batch operation applied", "op", req.Op, "applied", result.Applied)
	writeJSON(w, http.StatusOK, result)
}

// parseListQuery extracts a ListQuery from request query parameters.
func parseListQuery(r *http.Request) (category.ListQuery, error) {
	values := r.URL.Query()
	q := category.ListQuery{
		Format:          values.Get("format"),
		IncludeInactive: values.Get("includeInactive") == "true",
		IncludeCount:    values.Get("includeCount") == "true",
	}
	if q.Format == "" {
		q.Format = category.FormatFlat
	}

	if raw := values.Get("parentId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return q, errInvalidParent
		}
		q.ParentID = &id
	}
	if raw := values.Get("level"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil || level < 1 || level > category.MaxDepth {
			return q, errInvalidLevel
		}
		q.Level = level
	}
	return q, nil
}
