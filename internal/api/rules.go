/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/friendsincode/orderpacing/internal/pacing"
	"github.com/friendsincode/orderpacing/internal/rules"
)

func (a *API) handleRulesGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rules.Document{Rules: a.registry.Rules().Definitions()})
}

// handleRulesReplace swaps the whole rule set for every bucket. The body is
// a rules document in JSON or YAML.
func (a *API) handleRulesReplace(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	set, err := rules.Parse(body)
	if err != nil {
		var cfgErr *rules.ConfigurationError
		if errors.As(err, &cfgErr) {
			writeConfigError(w, cfgErr)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	if err := a.registry.SetRules(set); err != nil {
		if errors.Is(err, pacing.ErrNoRules) {
			writeError(w, http.StatusUnprocessableEntity, "no_rules")
			return
		}
		a.writeEngineError(w, "set_rules", err)
		return
	}

	a.logger.Info().Int("rules", set.Len()).Msg("rule set replaced via api")
	writeJSON(w, http.StatusOK, rules.Document{Rules: set.Definitions()})
}
