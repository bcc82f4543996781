// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey defines the typed keys for per-request context values.
//
// The key type is unexported, so no other package can read or overwrite the
// security principal by constructing an equal key.
package ctxkey

type key uint8

const (
	// KeyRequestID holds the X-Request-ID correlation value (string).
	KeyRequestID key = iota + 1

	// KeyIdentity holds the request-scoped security principal (*sec.Identity).
	KeyIdentity

	// KeyLogger holds the per-request *slog.Logger.
	KeyLogger
)
