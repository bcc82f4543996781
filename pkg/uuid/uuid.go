// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid generates the time-ordered identifiers used across personapi.

Principal and role primary keys, as well as the token ID (jti) claim, are
Version 7 UUIDs: they sort by creation time, which keeps PostgreSQL B-tree
indexes append-only.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
func New() string {

	// entropy failure is an unrecoverable system-level error
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}

	return id.String()
}

// # Inspection

// IsValid reports whether value is a canonical Version 7 UUID string.
func IsValid(value string) bool {
	id, err := uuid.Parse(value)
	return err == nil && id.Version() == 7 && id.String() == value
}
