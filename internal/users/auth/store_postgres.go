// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/personapi/internal/platform/database/schema"
	"github.com/taibuivan/personapi/internal/platform/dberr"
	"github.com/taibuivan/personapi/pkg/uuid"
)

// # Credential Repository

// PostgresCredentialStore implements [CredentialStore] using pgx.
//
// # Schema Table Mapping
//   - users.principal: Identity and password hash.
//   - users.role: Role names, unique.
//   - users.principal_role: Principal to role links.
type PostgresCredentialStore struct {
	pool *pgxpool.Pool
}

// NewCredentialStore creates a new PostgreSQL implementation of the CredentialStore.
func NewCredentialStore(pool *pgxpool.Pool) *PostgresCredentialStore {
	return &PostgresCredentialStore{pool: pool}
}

// selectPrincipal builds the principal lookup, aggregating role names in one round trip.
func selectPrincipal(whereColumn string) string {
	principal, role, link := schema.UserPrincipal, schema.UserRole, schema.UserPrincipalRole

	return fmt.Sprintf(`
		SELECT p.%s, p.%s, p.%s, p.%s, p.%s,
		       COALESCE(array_agg(r.%s ORDER BY r.%s) FILTER (WHERE r.%s IS NOT NULL), '{}')
		FROM %s p
		LEFT JOIN %s pr ON pr.%s = p.%s
		LEFT JOIN %s r ON r.%s = pr.%s
		WHERE p.%s = $1
		GROUP BY p.%s`,
		principal.ID, principal.Username, principal.Email, principal.PasswordHash, principal.CreatedAt,
		role.Name, role.Name, role.Name,
		principal.Table,
		link.Table, link.PrincipalID, principal.ID,
		role.Table, role.ID, link.RoleID,
		whereColumn,
		principal.ID,
	)
}

var (
	findByUsernameQuery = selectPrincipal(schema.UserPrincipal.Username)
	findByEmailQuery    = selectPrincipal(schema.UserPrincipal.Email)
)

/*
FindByUsername retrieves a principal by their unique username.

Returns:
  - *Principal: Hydrated entity with role names
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresCredentialStore) FindByUsername(context context.Context, username string) (*Principal, error) {
	principal, err := repository.findOne(context, findByUsernameQuery, username)
	if err != nil {
		return nil, fmt.Errorf("postgres_credential_store_find_by_username_failed: %w", err)
	}
	return principal, nil
}

/*
FindByEmail retrieves a principal by their unique email address.

Returns:
  - *Principal: Hydrated entity with role names
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresCredentialStore) FindByEmail(context context.Context, email string) (*Principal, error) {
	principal, err := repository.findOne(context, findByEmailQuery, email)
	if err != nil {
		return nil, fmt.Errorf("postgres_credential_store_find_by_email_failed: %w", err)
	}
	return principal, nil
}

func (repository *PostgresCredentialStore) findOne(context context.Context, query string, value string) (*Principal, error) {
	principal := &Principal{}
	err := repository.pool.QueryRow(context, query, value).Scan(
		&principal.ID,
		&principal.Username,
		&principal.Email,
		&principal.PasswordHash,
		&principal.CreatedAt,
		&principal.Roles,
	)

	if err != nil {
		return nil, dberr.Wrap(err, "Principal")
	}

	return principal, nil
}

// ExistsByUsernameOrEmail reports whether the username or the email is already registered.
func (repository *PostgresCredentialStore) ExistsByUsernameOrEmail(context context.Context, username, email string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 OR %s = $2)`,
		schema.UserPrincipal.Table, schema.UserPrincipal.Username, schema.UserPrincipal.Email,
	)

	var exists bool
	if err := repository.pool.QueryRow(context, query, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres_credential_store_exists_failed: %w", err)
	}
	return exists, nil
}

/*
Create persists a new principal and its role links in one transaction.

Description: Missing roles are inserted with ON CONFLICT DO NOTHING in name
order and their ids read back afterwards, so existing role rows are never
locked and two concurrent signups introducing the same new role converge on a
single row. Any failure rolls back the whole signup, including roles created
on the way.

Returns:
  - error: ErrDuplicateIdentity on a unique violation, or database errors
*/
func (repository *PostgresCredentialStore) Create(context context.Context, principal *Principal) error {
	if principal.CreatedAt.IsZero() {
		principal.CreatedAt = time.Now().UTC()
	}

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_credential_store_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	// 1. Resolve or create every role
	roleIDs, err := ensureRoles(context, transaction, principal.Roles)
	if err != nil {
		return fmt.Errorf("postgres_credential_store_role_upsert_failed: %w", err)
	}

	// 2. Insert the principal
	insertPrincipal := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5)`,
		schema.UserPrincipal.Table,
		schema.UserPrincipal.ID, schema.UserPrincipal.Username, schema.UserPrincipal.Email,
		schema.UserPrincipal.PasswordHash, schema.UserPrincipal.CreatedAt,
	)
	_, err = transaction.Exec(context, insertPrincipal,
		principal.ID,
		principal.Username,
		principal.Email,
		principal.PasswordHash,
		principal.CreatedAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return duplicateIdentity(err)
		}
		return fmt.Errorf("postgres_credential_store_insert_failed: %w", dberr.Wrap(err, "Principal"))
	}

	// 3. Link the roles
	insertLink := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		schema.UserPrincipalRole.Table, schema.UserPrincipalRole.PrincipalID, schema.UserPrincipalRole.RoleID,
	)
	batch := &pgx.Batch{}
	for _, roleID := range roleIDs {
		batch.Queue(insertLink, principal.ID, roleID)
	}
	if err := transaction.SendBatch(context, batch).Close(); err != nil {
		return fmt.Errorf("postgres_credential_store_link_failed: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_credential_store_commit_failed: %w", err)
	}

	return nil
}

// ensureRoles creates the missing roles and returns the ids of all named roles.
//
// Inserts run in sorted name order so concurrent transactions waiting on each
// other's uncommitted roles always wait in the same order.
func ensureRoles(context context.Context, transaction pgx.Tx, names []string) ([]string, error) {
	sorted := slices.Compact(slices.Sorted(slices.Values(names)))
	if len(sorted) == 0 {
		return nil, nil
	}

	insertRole := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT (%s) DO NOTHING`,
		schema.UserRole.Table, schema.UserRole.ID, schema.UserRole.Name, schema.UserRole.Name,
	)
	batch := &pgx.Batch{}
	for _, name := range sorted {
		batch.Queue(insertRole, uuid.New(), name)
	}
	if err := transaction.SendBatch(context, batch).Close(); err != nil {
		return nil, err
	}

	selectRoles := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1)`,
		schema.UserRole.ID, schema.UserRole.Table, schema.UserRole.Name,
	)
	rows, err := transaction.Query(context, selectRoles, sorted)
	if err != nil {
		return nil, err
	}
	roleIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if len(roleIDs) != len(sorted) {
		return nil, fmt.Errorf("resolved %d of %d roles", len(roleIDs), len(sorted))
	}
	return roleIDs, nil
}

// duplicateIdentity names the colliding identifier while keeping [ErrDuplicateIdentity] in the chain.
func duplicateIdentity(err error) error {
	field := "identity"
	switch dberr.ConstraintName(err) {
	case "principal_username_key":
		field = "username"
	case "principal_email_key":
		field = "email"
	}
	return fmt.Errorf("postgres_credential_store_%s_taken: %w", field, ErrDuplicateIdentity)
}
