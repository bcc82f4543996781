// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError].
//
// Every rule runs, so a signup with three bad fields reports all three at once.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/taibuivan/personapi/internal/platform/apperr"
)

// ErrInvalidJSON is returned when the request body cannot be decoded.
var ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")

// Validator accumulates failures. Use one instance per request; it is not safe
// for concurrent use.
type Validator struct {
	errs []apperr.FieldError
}

// # Rules

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MaxLen fails if the value has more than max Unicode characters.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

// MaxBytes fails if the UTF-8 encoded value is longer than max bytes.
//
// bcrypt only reads the first 72 bytes of a secret, so byte length matters there.
func (v *Validator) MaxBytes(field, value string, max int) *Validator {
	if len(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d bytes", max))
	}
	return v
}

// Email fails unless value is a bare address such as "raj@x.com".
// Display-name forms like "Raj <raj@x.com>" are rejected.
func (v *Validator) Email(field, value string) *Validator {
	if value == "" {
		return v
	}
	address, err := mail.ParseAddress(value)
	if err != nil || address.Name != "" || address.Address != value {
		v.add(field, "Must be a valid email address")
	}
	return v
}

// Printable fails if the value contains control or invisible format characters.
func (v *Validator) Printable(field, value string) *Validator {
	for _, r := range value {
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			v.add(field, "Must not contain control characters")
			return v
		}
	}
	return v
}

// Pattern fails if the value does not match the expression.
func (v *Validator) Pattern(field, value string, expression *regexp.Regexp, message string) *Validator {
	if !expression.MatchString(value) {
		v.add(field, message)
	}
	return v
}

// Custom records message when failed is true.
//
//	v.Custom("roles", len(roles) > 16, "At most 16 roles")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.add(field, message)
	}
	return v
}

// # Result

// Err returns a VALIDATION_ERROR listing every failed rule, or nil.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}
