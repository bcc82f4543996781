// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/personapi/internal/platform/ctxutil"
	"github.com/taibuivan/personapi/internal/platform/dberr"
	"github.com/taibuivan/personapi/internal/platform/sec"
)

/*
LoadIdentity resolves a token subject to its security principal.

Description: Lookups go through the identity cache when one is configured. A
cache failure degrades to a store read. Principals are never mutated or deleted
by this service, so entries only expire by TTL.

Returns:
  - *sec.Identity: A fresh value owned by the caller, or nil when the principal does not exist
  - error: Store failures
*/
func (service *Service) LoadIdentity(context context.Context, username string) (*sec.Identity, error) {
	logger := ctxutil.GetLogger(context)

	// 1. Cache
	if service.cache != nil {
		identity, found, err := service.cache.Get(context, username)
		if err != nil {
			logger.WarnContext(context, "identity_cache_get_failed", slog.String("error", err.Error()))
		} else if found {
			return identity, nil
		}
	}

	// 2. Credential store
	principal, err := service.store.FindByUsername(context, username)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("auth_service_load_identity_failed: %w", err)
	}

	identity := principal.Identity()

	// 3. Fill
	if service.cache != nil {
		if err := service.cache.Set(context, identity); err != nil {
			logger.WarnContext(context, "identity_cache_set_failed", slog.String("error", err.Error()))
		}
	}

	return identity, nil
}
