/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the pacing engines over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/orderpacing/internal/pacing"
	"github.com/friendsincode/orderpacing/internal/rules"
	"github.com/friendsincode/orderpacing/internal/store"
	"github.com/friendsincode/orderpacing/internal/version"
)

// maxBodyBytes caps order and rule document uploads.
const maxBodyBytes = 1 << 20

// API exposes HTTP handlers.
type API struct {
	registry *pacing.Registry
	now      func() time.Time
	logger   zerolog.Logger
}

// New creates the API router wrapper.
func New(registry *pacing.Registry, logger zerolog.Logger) *API {
	return &API{
		registry: registry,
		now:      time.Now,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// Routes mounts the API under /api/v1.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Route("/buckets/{bucket}", func(r chi.Router) {
			r.Post("/orders", a.handleOrdersCreate)
			r.Get("/orders", a.handleOrdersList)
			r.Get("/busy-times", a.handleBusyTimesList)
			r.Get("/stats", a.handleOrdersStats)
			r.Get("/wait", a.handleWait)
		})

		r.Get("/rules", a.handleRulesGet)
		r.Put("/rules", a.handleRulesReplace)
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Version,
		"rules":   a.registry.Rules().Len(),
	})
}

// engine resolves the bucket path parameter. It writes the error response
// and returns nil when the engine cannot be built.
func (a *API) engine(w http.ResponseWriter, r *http.Request) *pacing.Engine {
	bucket := chi.URLParam(r, "bucket")
	if bucket == "" {
		writeError(w, http.StatusBadRequest, "bucket_required")
		return nil
	}
	e, err := a.registry.Engine(bucket)
	if err != nil {
		a.logger.Error().Err(err).Str("bucket", bucket).Msg("engine unavailable")
		writeError(w, http.StatusInternalServerError, "engine_unavailable")
		return nil
	}
	return e
}

// writeEngineError maps engine failures onto status codes.
func (a *API) writeEngineError(w http.ResponseWriter, op string, err error) {
	var storeErr *store.StoreError
	switch {
	case errors.As(err, &storeErr):
		a.logger.Error().Err(err).Str("operation", op).Msg("store failure")
		writeError(w, http.StatusServiceUnavailable, "store_unavailable")
	default:
		a.logger.Error().Err(err).Str("operation", op).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeConfigError(w http.ResponseWriter, cfgErr *rules.ConfigurationError) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":  "invalid_rules",
		"index":  cfgErr.Index,
		"ruleId": cfgErr.RuleID,
		"field":  cfgErr.Field,
		"reason": cfgErr.Reason,
	})
}
