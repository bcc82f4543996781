// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the bcrypt input limit; longer inputs are rejected rather than truncated.
const maxPasswordBytes = 72

var (
	// ErrEmptyPassword is returned when an empty secret is submitted for hashing.
	ErrEmptyPassword = errors.New("sec: password must not be empty")

	// ErrPasswordTooLong is returned when a secret exceeds the bcrypt input limit.
	ErrPasswordTooLong = fmt.Errorf("sec: password exceeds %d bytes", maxPasswordBytes)
)

// PasswordHasher performs salted, one-way hashing of secrets with bcrypt.
//
// The produced hash embeds its own salt and cost, so [PasswordHasher.Verify]
// needs nothing but the plain-text candidate and the stored value.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher using the given bcrypt cost.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("sec: bcrypt cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &PasswordHasher{cost: cost}, nil
}

// Hash hashes a plain-text password using the bcrypt algorithm.
func (hasher *PasswordHasher) Hash(plainTextPassword string) (string, error) {
	if plainTextPassword == "" {
		return "", ErrEmptyPassword
	}
	if len(plainTextPassword) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), hasher.cost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify compares a plain-text password with its hashed version.
// Any failure, including a corrupt hash, is reported as a mismatch.
func (hasher *PasswordHasher) Verify(plainTextPassword, existingHash string) bool {
	if existingHash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}
