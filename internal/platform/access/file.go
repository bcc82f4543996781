// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Table is the on-disk form of the route protection table.
//
//	default: PUBLIC
//	rules:
//	  - pattern: /api/person/**
//	    access: AUTHENTICATED
type Table struct {
	Default Level  `yaml:"default"`
	Rules   []Rule `yaml:"rules"`
}

// Parse decodes a YAML table and builds the policy. Unknown keys are rejected.
func Parse(data []byte) (*Policy, error) {
	var table Table

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&table); err != nil {
		return nil, fmt.Errorf("access: failed to decode route table: %w", err)
	}

	return NewPolicy(table.Rules, table.Default)
}

// LoadFile reads the route table at path.
func LoadFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("access: failed to read route table %s: %w", path, err)
	}
	return Parse(data)
}

// Load returns the policy from path, or the built-in table when path is empty.
func Load(path string) (*Policy, error) {
	if path == "" {
		return NewPolicy(DefaultRules(), LevelPublic)
	}
	return LoadFile(path)
}
