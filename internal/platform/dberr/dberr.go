// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/personapi/internal/platform/apperr"
)

// IsNotFound reports whether err is a missing row, either raw from pgx or
// already mapped to a NOT_FOUND [apperr.AppError].
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || apperr.HasCode(err, apperr.CodeNotFound)
}

// IsUniqueViolation reports whether err is a Postgres unique constraint violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// ConstraintName returns the violated constraint name, or "" if err is not a Postgres error.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// Wrap classifies a database error into an [apperr.AppError] naming the resource.
// Database details stay in the Cause and never reach the client.
//
//	dberr.Wrap(pgx.ErrNoRows, "Principal") // 404 "Principal not found"
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		notFound := apperr.NotFound(resource)
		notFound.Cause = err
		return notFound
	}

	// 2. Unique constraint violations become conflicts
	if IsUniqueViolation(err) {
		conflict := apperr.Conflict(resource + " already exists")
		conflict.Cause = err
		return conflict
	}

	// 3. Anything else is an internal failure
	return apperr.Internal(err)
}
