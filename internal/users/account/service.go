// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"

	"github.com/taibuivan/personapi/internal/platform/sec"
)

// Service implements the person resource use cases.
type Service struct {
	principals PrincipalReader
}

// NewService constructs a new account [Service].
func NewService(principals PrincipalReader) *Service {
	return &Service{principals: principals}
}

/*
Me builds the profile of the authenticated caller.

Parameters:
  - context: context.Context
  - identity: *sec.Identity (installed by the authenticator)

Returns:
  - *Profile: Stored principal plus the authorities granted to this request
  - error: apperr.NotFound or storage failures
*/
func (service *Service) Me(context context.Context, identity *sec.Identity) (*Profile, error) {
	principal, err := service.principals.Principal(context, identity.Username)
	if err != nil {
		return nil, fmt.Errorf("account_service_me_failed: %w", err)
	}

	return &Profile{
		ID:          principal.ID,
		Username:    principal.Username,
		Email:       principal.Email,
		Roles:       principal.Roles,
		Authorities: identity.Authorities,
		CreatedAt:   principal.CreatedAt,
	}, nil
}
