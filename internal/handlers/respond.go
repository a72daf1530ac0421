// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON HTTP handlers for the WaveCMS
// category subsystem. Handlers only parse requests and serialize
// responses; every rule lives in internal/category.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"wavecms/internal/category"
)

// apiError is the wire shape of a failed request.
type apiError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	ID      string   `json:"id,omitempty"`
	Rules   []string `json:"rules,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// writeError maps the category error taxonomy onto HTTP statuses. The
// structured fields (offending id, violated rules) travel with the
// response so the operator can correct root cause.
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *category.ValidationError
		notFoundErr   *category.NotFoundError
		conflictErr   *category.ConflictError
		cycleErr      *category.CycleError
	)

	switch {
	case errors.As(err, &validationErr):
		rules := make([]string, len(validationErr.Rules))
		for i, r := range validationErr.Rules {
			rules[i] = string(r)
		}
		writeJSON(w, http.StatusBadRequest, map[string]apiError{"error": {
			Code:    "validation_failed",
			Message: validationErr.Error(),
			ID:      validationErr.ID.String(),
			Rules:   rules,
		}})
	case errors.As(err, &notFoundErr):
		writeJSON(w, http.StatusNotFound, map[string]apiError{"error": {
			Code:    "not_found",
			Message: notFoundErr.Error(),
			ID:      notFoundErr.ID.String(),
		}})
	case errors.As(err, &conflictErr):
		writeJSON(w, http.StatusConflict, map[string]apiError{"error": {
			Code:    "conflict",
			Message: conflictErr.Error(),
			ID:      conflictErr.ID.String(),
		}})
	case errors.As(err, &cycleErr):
		writeJSON(w, http.StatusBadRequest, map[string]apiError{"error": {
			Code:    "cycle",
			Message: cycleErr.Error(),
			ID:      cycleErr.ID.String(),
		}})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]apiError{"error": {
			Code:    "internal",
			Message: "internal server error",
		}})
	}
}

// decodeJSON parses a request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// badRequest writes a plain 400 with a message.
func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]apiError{"error": {
		Code:    "bad_request",
		Message: msg,
	}})
}
