// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "slices"

// Identity is the security principal attached to one in-flight request.
//
// It is built by the request authenticator from a validated token and the
// principal's stored roles, lives only in that request's context, and is never
// cached or shared across requests.
type Identity struct {
	Username    string   `json:"username"`
	Authorities []string `json:"authorities"`
}

// HasAuthority reports whether the identity was granted the named authority.
func (identity *Identity) HasAuthority(authority string) bool {
	if identity == nil {
		return false
	}
	return slices.Contains(identity.Authorities, authority)
}

// HasAnyAuthority reports whether the identity holds at least one of the authorities.
// An empty list is satisfied by any identity.
func (identity *Identity) HasAnyAuthority(authorities ...string) bool {
	if identity == nil {
		return false
	}
	if len(authorities) == 0 {
		return true
	}
	for _, authority := range authorities {
		if identity.HasAuthority(authority) {
			return true
		}
	}
	return false
}
