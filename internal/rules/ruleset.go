/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package rules validates pacing rules and evaluates them against windows of orders.
package rules

import (
	"fmt"

	"github.com/friendsincode/orderpacing/internal/models"
)

// Rule is a validated rule with its time-of-day bounds and category scope
// precomputed. Rules are immutable.
type Rule struct {
	models.PacingRule

	startMinute int
	endMinute   int
	hasStart    bool
	hasEnd      bool
	weekDays    map[int]struct{}
	categories  map[string]struct{}
}

// Compile validates rule and prepares it for matching.
func Compile(index int, rule models.PacingRule) (Rule, error) {
	if err := Validate(index, rule); err != nil {
		return Rule{}, err
	}

	if rule.RuleID == "" {
		rule.RuleID = fmt.Sprintf("rule-%d", index)
	}

	compiled := Rule{PacingRule: rule}
	if rule.StartTime != "" {
		seconds, _ := ParseClock(rule.StartTime)
		compiled.startMinute = seconds / 60
		compiled.hasStart = true
	}
	if rule.EndTime != "" {
		seconds, _ := ParseClock(rule.EndTime)
		compiled.endMinute = seconds / 60
		compiled.hasEnd = true
	}
	if len(rule.WeekDays) > 0 {
		compiled.weekDays = make(map[int]struct{}, len(rule.WeekDays))
		for _, day := range rule.WeekDays {
			compiled.weekDays[day] = struct{}{}
		}
	}
	if len(rule.CategoryIDs) > 0 {
		compiled.categories = make(map[string]struct{}, len(rule.CategoryIDs))
		for _, category := range rule.CategoryIDs {
			compiled.categories[category] = struct{}{}
		}
	}
	return compiled, nil
}

// RuleSet is an ordered, immutable collection of validated rules. Replacing
// rules means building a new RuleSet.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet validates every rule eagerly. The first invalid rule aborts
// construction with a *ConfigurationError.
func NewRuleSet(defs []models.PacingRule) (*RuleSet, error) {
	compiled := make([]Rule, 0, len(defs))
	for i, def := range defs {
		rule, err := Compile(i, def)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, rule)
	}
	return &RuleSet{rules: compiled}, nil
}

// Rules returns the rules in configuration order.
func (s *RuleSet) Rules() []Rule {
	if s == nil {
		return nil
	}
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Definitions returns the rule configurations as supplied (with defaulted IDs).
func (s *RuleSet) Definitions() []models.PacingRule {
	if s == nil {
		return []models.PacingRule{}
	}
	out := make([]models.PacingRule, 0, len(s.rules))
	for _, rule := range s.rules {
		out = append(out, rule.PacingRule)
	}
	return out
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}
