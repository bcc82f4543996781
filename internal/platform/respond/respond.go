// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package respond writes the JSON envelopes every endpoint answers with.

	success: {"data": ...}
	failure: {"error": "...", "code": "...", "details": [...]}

Errors are rendered from [apperr.AppError]. A 401 always carries a Bearer
challenge and a 429 carries Retry-After, so clients learn how to recover from
the headers alone.
*/
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/taibuivan/personapi/internal/platform/apperr"
	"github.com/taibuivan/personapi/internal/platform/constants"
	"github.com/taibuivan/personapi/internal/platform/ctxutil"
)

// # Envelopes

// SuccessEnvelope wraps successful payloads.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope is the client-facing shape of an [apperr.AppError].
type ErrorEnvelope struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// # Writers

// JSON writes payload with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload any) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.Header().Set("Cache-Control", "no-store")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 response with the data envelope.
func OK(writer http.ResponseWriter, data any) {
	Status(writer, http.StatusOK, data)
}

// Created writes a 201 response with the data envelope.
func Created(writer http.ResponseWriter, data any) {
	Status(writer, http.StatusCreated, data)
}

// Status writes the data envelope with an explicit status code.
func Status(writer http.ResponseWriter, statusCode int, data any) {
	JSON(writer, statusCode, SuccessEnvelope{Data: data})
}

// # Errors

// Error renders err as the error envelope.
//
// Errors that are not an [apperr.AppError] become INTERNAL_ERROR; their text is
// logged and never written to the client.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	ctx := request.Context()
	logger := ctxutil.GetLogger(ctx)

	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		logger.ErrorContext(ctx, "unhandled_error_swallowed", slog.String("error", err.Error()))
		appError = apperr.Internal(err)
	}

	switch {
	case appError.HTTPStatus >= http.StatusInternalServerError:
		logger.ErrorContext(ctx, "api_server_error",
			slog.String("code", appError.Code),
			slog.Any("cause", appError.Cause),
		)
	default:
		logger.DebugContext(ctx, "api_client_error", slog.String("code", appError.Code))
	}

	header := writer.Header()
	if appError.HTTPStatus == http.StatusUnauthorized {
		header.Set(constants.HeaderWWWAuthenticate, bearerChallenge)
	}
	if appError.RetryAfter > 0 {
		header.Set(constants.HeaderRetryAfter, strconv.Itoa(appError.RetryAfter))
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Error:   appError.Message,
		Code:    appError.Code,
		Details: appError.Details,
	})
}

// bearerChallenge is the WWW-Authenticate value sent with every 401.
const bearerChallenge = constants.TokenType + ` realm="` + constants.AppName + `"`
