/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package rules

import "fmt"

// ConfigurationError reports an invalid rule definition. It is raised while a
// RuleSet is built and is never retryable.
type ConfigurationError struct {
	Index  int    // Position of the rule in the supplied list, -1 if unknown
	RuleID string
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	target := fmt.Sprintf("rule %d", e.Index)
	if e.RuleID != "" {
		target = fmt.Sprintf("rule %q (index %d)", e.RuleID, e.Index)
	}
	if e.Index < 0 {
		target = "rules document"
	}
	if e.Field == "" {
		return fmt.Sprintf("invalid %s: %s", target, e.Reason)
	}
	return fmt.Sprintf("invalid %s: field %s %s", target, e.Field, e.Reason)
}

func fieldError(index int, ruleID, field, reason string) *ConfigurationError {
	return &ConfigurationError{Index: index, RuleID: ruleID, Field: field, Reason: reason}
}
