// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

/*
TestDuplicateIdentity verifies the colliding column is named while the sentinel stays matchable.
*/
func TestDuplicateIdentity(t *testing.T) {
	tests := []struct {
		constraint string
		want       string
	}{
		{"principal_username_key", "postgres_credential_store_username_taken"},
		{"principal_email_key", "postgres_credential_store_email_taken"},
		{"principal_pkey", "postgres_credential_store_identity_taken"},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			err := duplicateIdentity(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: tt.constraint})
			assert.ErrorIs(t, err, ErrDuplicateIdentity)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
