// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package access implements the route protection table.

A [Policy] is an ordered list of (pattern, access level) rules evaluated
first-match-wins against the request path. Patterns use doublestar globbing,
so "/api/person/**" protects the whole person subtree. Paths matched by no rule
fall back to the table's default level, which is PUBLIC unless configured otherwise.

The policy holds no session state: every request is decided from its method,
path and the security principal installed by the authenticator.
*/
package access

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// # Access Levels

// Level is the access rule attached to a route pattern.
type Level string

const (
	// LevelPublic routes are served with or without a principal.
	LevelPublic Level = "PUBLIC"

	// LevelAuthenticated routes require an installed principal.
	LevelAuthenticated Level = "AUTHENTICATED"
)

// Valid reports whether the level is one of the known values.
func (level Level) Valid() bool {
	return level == LevelPublic || level == LevelAuthenticated
}

// # Rules

// Rule maps a path pattern to an access level.
//
// Methods restricts the rule to the listed HTTP methods (any method when empty).
// Roles, when set on an AUTHENTICATED rule, additionally requires the principal
// to hold at least one of the listed authorities.
type Rule struct {
	Pattern string   `yaml:"pattern"`
	Methods []string `yaml:"methods,omitempty"`
	Access  Level    `yaml:"access"`
	Roles   []string `yaml:"roles,omitempty"`
}

// matches reports whether the rule applies to the method and cleaned path.
func (rule Rule) matches(method, cleanPath string) bool {
	if len(rule.Methods) > 0 && !slices.Contains(rule.Methods, method) {
		return false
	}
	// Patterns are validated at construction, so Match cannot fail here.
	matched, _ := doublestar.Match(rule.Pattern, cleanPath)
	return matched
}

// DefaultRules returns the built-in protection table: the person API requires authentication.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "/api/person/**", Access: LevelAuthenticated},
	}
}

// # Policy

// Decision is the outcome of evaluating the policy for one request.
type Decision struct {
	Access  Level
	Roles   []string
	Pattern string
}

// Policy is an immutable, ordered route protection table.
type Policy struct {
	rules    []Rule
	fallback Level
}

// NewPolicy validates and normalizes the rules.
//
// Every pattern must be an absolute doublestar pattern, every level must be known,
// and roles are only allowed on AUTHENTICATED rules.
func NewPolicy(rules []Rule, fallback Level) (*Policy, error) {
	if fallback == "" {
		fallback = LevelPublic
	}
	if !fallback.Valid() {
		return nil, fmt.Errorf("access: unknown default level %q", fallback)
	}

	normalized := make([]Rule, 0, len(rules))
	for index, rule := range rules {
		rule.Access = Level(strings.ToUpper(strings.TrimSpace(string(rule.Access))))
		if !rule.Access.Valid() {
			return nil, fmt.Errorf("access: rule %d (%s): unknown level %q", index, rule.Pattern, rule.Access)
		}
		if !strings.HasPrefix(rule.Pattern, "/") || !doublestar.ValidatePattern(rule.Pattern) {
			return nil, fmt.Errorf("access: rule %d: invalid pattern %q", index, rule.Pattern)
		}
		if len(rule.Roles) > 0 && rule.Access != LevelAuthenticated {
			return nil, fmt.Errorf("access: rule %d (%s): roles require AUTHENTICATED access", index, rule.Pattern)
		}

		methods := make([]string, 0, len(rule.Methods))
		for _, method := range rule.Methods {
			methods = append(methods, strings.ToUpper(strings.TrimSpace(method)))
		}
		rule.Methods = methods
		rule.Roles = slices.Clone(rule.Roles)

		normalized = append(normalized, rule)
	}

	return &Policy{rules: normalized, fallback: fallback}, nil
}

// Decide returns the access rule for a request. The first matching rule wins.
func (policy *Policy) Decide(method, requestPath string) Decision {
	cleanPath := path.Clean("/" + requestPath)

	for _, rule := range policy.rules {
		if rule.matches(method, cleanPath) {
			return Decision{Access: rule.Access, Roles: rule.Roles, Pattern: rule.Pattern}
		}
	}
	return Decision{Access: policy.fallback}
}

// Rules returns a copy of the normalized rules in evaluation order.
func (policy *Policy) Rules() []Rule {
	return slices.Clone(policy.rules)
}
