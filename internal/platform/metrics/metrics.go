// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics exposes the Prometheus counters of the authentication layer.

Every recording method is safe on a nil [*Auth], so components can be built
without metrics in tests and tools.
*/
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the login and signup counters.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Denial reasons for the access-denied counter.
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonForbidden       = "forbidden"
)

// Auth holds the authentication counters.
type Auth struct {
	TokenChecksTotal  *prometheus.CounterVec
	LoginsTotal       *prometheus.CounterVec
	SignupsTotal      *prometheus.CounterVec
	AccessDeniedTotal *prometheus.CounterVec
}

// NewAuth creates and registers the authentication counters.
func NewAuth(registry prometheus.Registerer) *Auth {
	auth := &Auth{
		TokenChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "personapi_auth_token_checks_total",
				Help: "Bearer tokens inspected by the authenticator, by validation status",
			},
			[]string{"status"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "personapi_auth_logins_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		SignupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "personapi_auth_signups_total",
				Help: "Signup attempts by outcome",
			},
			[]string{"outcome"},
		),
		AccessDeniedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "personapi_auth_access_denied_total",
				Help: "Requests rejected by the route policy, by reason",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(
		auth.TokenChecksTotal,
		auth.LoginsTotal,
		auth.SignupsTotal,
		auth.AccessDeniedTotal,
	)

	return auth
}

// TokenChecked records one bearer token inspection.
func (auth *Auth) TokenChecked(status string) {
	if auth == nil {
		return
	}
	auth.TokenChecksTotal.WithLabelValues(status).Inc()
}

// Login records a login attempt.
func (auth *Auth) Login(outcome string) {
	if auth == nil {
		return
	}
	auth.LoginsTotal.WithLabelValues(outcome).Inc()
}

// Signup records a signup attempt.
func (auth *Auth) Signup(outcome string) {
	if auth == nil {
		return
	}
	auth.SignupsTotal.WithLabelValues(outcome).Inc()
}

// AccessDenied records a request rejected by the route policy.
func (auth *Auth) AccessDenied(reason string) {
	if auth == nil {
		return
	}
	auth.AccessDeniedTotal.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
