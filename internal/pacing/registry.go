/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package pacing

import (
	"sync"

	"github.com/friendsincode/orderpacing/internal/events"
	"github.com/friendsincode/orderpacing/internal/rules"
)

// Registry hands out one Engine per bucket. Engines share the template's
// store, mode, timezone and rule set; buckets never share state.
type Registry struct {
	template Options

	mu      sync.Mutex
	engines map[string]*Engine
}

// NewRegistry validates template by building a probe engine and returns a
// registry. template.Bucket is ignored.
func NewRegistry(template Options) (*Registry, error) {
	probe := template
	probe.Bucket = "_probe"
	if _, err := New(probe); err != nil {
		return nil, err
	}
	template.Bucket = ""
	return &Registry{template: template, engines: make(map[string]*Engine)}, nil
}

// Engine returns the engine for bucket, creating it on first use.
func (r *Registry) Engine(bucket string) (*Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.engines[bucket]; ok {
		return e, nil
	}

	opts := r.template
	opts.Bucket = bucket
	e, err := New(opts)
	if err != nil {
		return nil, err
	}
	r.engines[bucket] = e
	return e, nil
}

// Rules returns the rule set new engines start with.
func (r *Registry) Rules() *rules.RuleSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.template.Rules
}

// SetRules replaces the rule set on every engine and for engines created
// later. It fails without changing anything if the set is rejected.
func (r *Registry) SetRules(set *rules.RuleSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if set.Len() == 0 && r.template.EmptyRules == EmptyRulesReject {
		return ErrNoRules
	}
	for _, e := range r.engines {
		if err := e.SetRules(set); err != nil {
			return err
		}
	}
	r.template.Rules = set

	r.template.Bus.Publish(events.EventRulesReplaced, events.Payload{
		"rules":   set.Len(),
		"buckets": len(r.engines),
	})
	return nil
}

// Buckets returns the buckets with a live engine.
func (r *Registry) Buckets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.engines))
	for bucket := range r.engines {
		out = append(out, bucket)
	}
	return out
}
