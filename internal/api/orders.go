/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/friendsincode/orderpacing/internal/models"
)

type orderRequest struct {
	OrderID          string             `json:"orderId"`
	Items            []models.OrderItem `json:"items"`
	TotalAmountCents *float64           `json:"totalAmountCents"`
	Source           models.OrderSource `json:"source"`
	OrderTime        *time.Time         `json:"orderTime"`
}

// toOrder validates the request and fills defaults. The returned code is
// empty when the request is acceptable.
func (req orderRequest) toOrder(now time.Time) (models.Order, string) {
	order := models.Order{
		OrderID: strings.TrimSpace(req.OrderID),
		Items:   req.Items,
		Source:  req.Source,
	}
	if order.OrderID == "" {
		order.OrderID = uuid.NewString()
	}
	if order.Source == "" {
		order.Source = models.SourceOwn
	}
	if !order.Source.Valid() {
		return models.Order{}, "invalid_source"
	}

	order.OrderTime = now
	if req.OrderTime != nil {
		order.OrderTime = *req.OrderTime
	}

	var itemTotal float64
	for _, item := range req.Items {
		if item.Quantity < 0 || item.AmountCents < 0 {
			return models.Order{}, "invalid_item"
		}
		itemTotal += item.AmountCents
	}
	order.TotalAmountCents = itemTotal
	if req.TotalAmountCents != nil {
		if *req.TotalAmountCents < 0 {
			return models.Order{}, "invalid_total"
		}
		order.TotalAmountCents = *req.TotalAmountCents
	}
	return order, ""
}

func (a *API) handleOrdersCreate(w http.ResponseWriter, r *http.Request) {
	e := a.engine(w, r)
	if e == nil {
		return
	}

	var req orderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	order, code := req.toOrder(a.now())
	if code != "" {
		writeError(w, http.StatusBadRequest, code)
		return
	}

	if err := e.Add(r.Context(), order); err != nil {
		a.writeEngineError(w, "add_order", err)
		return
	}

	periods, err := e.GetBusyTimes(r.Context())
	if err != nil {
		a.writeEngineError(w, "get_busy_times", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"orderId":   order.OrderID,
		"orderTime": order.OrderTime.UTC(),
		"busyTimes": periods,
	})
}

func (a *API) handleOrdersList(w http.ResponseWriter, r *http.Request) {
	e := a.engine(w, r)
	if e == nil {
		return
	}
	orders, err := e.GetOrders(r.Context())
	if err != nil {
		a.writeEngineError(w, "get_orders", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (a *API) handleBusyTimesList(w http.ResponseWriter, r *http.Request) {
	e := a.engine(w, r)
	if e == nil {
		return
	}
	periods, err := e.GetBusyTimes(r.Context())
	if err != nil {
		a.writeEngineError(w, "get_busy_times", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"busyTimes": periods})
}

func (a *API) handleOrdersStats(w http.ResponseWriter, r *http.Request) {
	e := a.engine(w, r)
	if e == nil {
		return
	}

	start, err := parseTimeParam(r, "start", time.Time{})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_start")
		return
	}
	end, err := parseTimeParam(r, "end", time.Time{})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_end")
		return
	}
	if start.IsZero() || end.IsZero() {
		writeError(w, http.StatusBadRequest, "start_and_end_required")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end_before_start")
		return
	}

	stats, err := e.GetOrdersStats(r.Context(), start, end)
	if err != nil {
		a.writeEngineError(w, "get_orders_stats", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": stats})
}

func (a *API) handleWait(w http.ResponseWriter, r *http.Request) {
	e := a.engine(w, r)
	if e == nil {
		return
	}
	at, err := parseTimeParam(r, "at", a.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_at")
		return
	}

	wait, err := e.ValidateOrderTime(r.Context(), at)
	if err != nil {
		a.writeEngineError(w, "validate_order_time", err)
		return
	}
	writeJSON(w, http.StatusOK, wait)
}

// parseTimeParam reads an RFC3339 query parameter, returning def when it is
// absent.
func parseTimeParam(r *http.Request, name string, def time.Time) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	return time.Parse(time.RFC3339, raw)
}
