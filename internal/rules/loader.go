/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/orderpacing/internal/models"
)

// Document is the on-disk rules format. JSON documents parse as well since
// the YAML decoder accepts them.
type Document struct {
	Rules []models.PacingRule `yaml:"rules" json:"rules"`
}

// sequenceFields must decode from YAML sequences; a scalar here is a
// configuration error rather than a decode failure.
var sequenceFields = map[string]bool{
	"weekDays":    true,
	"categoryIds": true,
}

// LoadFile reads and validates a rules document from path.
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a rules document.
func Parse(data []byte) (*RuleSet, error) {
	defs, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return NewRuleSet(defs)
}

// Decode decodes a rules document without validating rule semantics.
func Decode(data []byte) ([]models.PacingRule, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ConfigurationError{Index: -1, Reason: fmt.Sprintf("malformed document: %v", err)}
	}
	if len(root.Content) == 0 {
		return []models.PacingRule{}, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, &ConfigurationError{Index: -1, Field: "rules", Reason: "document must be a mapping"}
	}

	var list *yaml.Node
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == "rules" {
			list = doc.Content[i+1]
		}
	}
	if list == nil {
		return []models.PacingRule{}, nil
	}
	if list.Kind != yaml.SequenceNode {
		return nil, &ConfigurationError{Index: -1, Field: "rules", Reason: "must be an array"}
	}

	defs := make([]models.PacingRule, 0, len(list.Content))
	for i, node := range list.Content {
		if node.Kind != yaml.MappingNode {
			return nil, &ConfigurationError{Index: i, Reason: "must be a mapping"}
		}
		for j := 0; j+1 < len(node.Content); j += 2 {
			key, value := node.Content[j].Value, node.Content[j+1]
			if sequenceFields[key] && value.Kind != yaml.SequenceNode {
				return nil, &ConfigurationError{Index: i, Field: key, Reason: "must be an array"}
			}
		}

		var def models.PacingRule
		if err := node.Decode(&def); err != nil {
			return nil, &ConfigurationError{Index: i, Reason: err.Error()}
		}
		defs = append(defs, def)
	}
	return defs, nil
}
