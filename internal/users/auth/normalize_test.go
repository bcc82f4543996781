// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/personapi/internal/users/auth"
)

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "raj", auth.NormalizeUsername("  raj "))
	assert.Equal(t, "raj", auth.NormalizeUsername("ｒａｊ"))
	assert.Equal(t, "Raj", auth.NormalizeUsername("Raj"), "usernames keep their case")
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "raj@x.com", auth.NormalizeEmail(" Raj@X.com\t"))
	assert.Equal(t, "raj@x.com", auth.NormalizeEmail("ＲＡＪ＠ｘ.com"))
}

func TestNormalizeRoles(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil_defaults", nil, []string{"USER"}},
		{"blank_defaults", []string{" ", ""}, []string{"USER"}},
		{"upper_and_dedupe", []string{"admin", "Admin", "user"}, []string{"ADMIN", "USER"}},
		{"underscore", []string{"read_only"}, []string{"READ_ONLY"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roles, err := auth.NormalizeRoles(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, roles)
		})
	}

	invalid := [][]string{
		{"ROLE-X"},
		{"1ST"},
		{strings.Repeat("A", auth.RoleMaxLength+1)},
		strings.Split(strings.Repeat("R,", auth.MaxRolesPerSignup+1), ",")[:auth.MaxRolesPerSignup+1],
	}
	for _, roles := range invalid {
		_, err := auth.NormalizeRoles(roles)
		assert.Error(t, err, roles)
	}
}
