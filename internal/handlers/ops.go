// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// ops.go holds the operator-facing handlers: consistency diagnostics,
// repair actions, legacy-subject sync, and cache tooling.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"wavecms/internal/category"
)

// Ops groups the operator endpoints around the category service.
type Ops struct {
	svc *category.Service
}

// NewOps creates the operator handler group.
func NewOps(svc *category.Service) *Ops {
	return &Ops{svc: svc}
}

// Diagnostic serves GET /api/admin/diagnostic.
func (h *Ops) Diagnostic(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.RunDiagnostic(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Drift serves GET /api/admin/drift.
func (h *Ops) Drift(w http.ResponseWriter, r *http.Request) {
	drift, err := h.svc.DetectDrift(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"drift": drift, "count": len(drift)})
}

// repairRequest is the wire shape of POST /api/admin/repair.
type repairRequest struct {
	Action string `json:"action"`
}

// Repair serves POST /api/admin/repair with one of the repair actions:
// fix-structure, fix-data, cleanup-orphans.
func (h *Ops) Repair(w http.ResponseWriter, r *http.Request) {
	var req repairRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	result, err := h.svc.RunRepair(r.Context(), req.Action)
	if err != nil {
		switch err.(type) {
		case *category.ValidationError, *category.NotFoundError, *category.ConflictError, *category.CycleError:
			writeError(w, err)
		default:
			badRequest(w, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SyncAudio serves POST /api/admin/audios/{id}/sync.
func (h *Ops) SyncAudio(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid audio id")
		return
	}

	result, err := h.svc.SyncAudio(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CacheStats serves GET /api/admin/cache/stats.
func (h *Ops) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Cache().Stats())
}

// warmRequest is the wire shape of the cache warm-up and benchmark
// endpoints; an empty queries list means the default set.
type warmRequest struct {
	Queries []category.QuerySpec `json:"queries"`
}

// WarmCache serves POST /api/admin/cache/warm.
func (h *Ops) WarmCache(w http.ResponseWriter, r *http.Request) {
	var req warmRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			badRequest(w, "invalid request body")
			return
		}
	}

	result, err := h.svc.WarmCache(r.Context(), req.Queries)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// BenchmarkCache serves POST /api/admin/cache/benchmark.
func (h *Ops) BenchmarkCache(w http.ResponseWriter, r *http.Request) {
	var req warmRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			badRequest(w, "invalid request body")
			return
		}
	}

	result, err := h.svc.BenchmarkCache(r.Context(), req.Queries)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
