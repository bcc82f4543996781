// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/personapi/internal/platform/constants"
	"github.com/taibuivan/personapi/internal/platform/validate"
)

var (
	lowerCaser = cases.Lower(language.Und)
	upperCaser = cases.Upper(language.Und)

	roleNamePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

// NormalizeUsername folds compatibility characters (NFKC) and trims spaces,
// so visually identical usernames collide on the unique constraint.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(norm.NFKC.String(username))
}

// NormalizeEmail applies NFKC, trims and lower-cases the address.
func NormalizeEmail(email string) string {
	return lowerCaser.String(strings.TrimSpace(norm.NFKC.String(email)))
}

// NormalizeRoles upper-cases, trims and deduplicates role names, preserving first-seen order.
// An empty result yields the default role.
func NormalizeRoles(roles []string) ([]string, error) {
	normalized := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))

	validator := &validate.Validator{}
	validator.Custom(FieldRoles, len(roles) > MaxRolesPerSignup, fmt.Sprintf("At most %d roles", MaxRolesPerSignup))

	for _, role := range roles {
		name := upperCaser.String(strings.TrimSpace(role))
		if name == "" {
			continue
		}
		validator.MaxLen(FieldRoles, name, RoleMaxLength).
			Pattern(FieldRoles, name, roleNamePattern, "Must start with a letter and contain only letters, digits and underscores")

		if _, duplicate := seen[name]; duplicate {
			continue
		}
		seen[name] = struct{}{}
		normalized = append(normalized, name)
	}

	if err := validator.Err(); err != nil {
		return nil, err
	}
	if len(normalized) == 0 {
		return []string{constants.DefaultRole}, nil
	}
	return normalized, nil
}
