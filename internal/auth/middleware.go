// Package auth gates routes behind a Google access token.
package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"eventreg-backend/internal/components/assert"
	"eventreg-backend/internal/components/serviceutil"
	"eventreg-backend/internal/components/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_middleware_verify = "middleware.verify"
)

type Config struct {
	Enabled bool `json:"enabled"`
	// AllowedDomains restricts identities to these email domains, empty
	// allows every verified email.
	AllowedDomains []string `json:"allowed_domains"`
	UserInfoUrl    string   `json:"userinfo_url"`
}

type identityCtxKeyType int

var identityCtxKey identityCtxKeyType

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey).(Identity)
	if !ok {
		return Identity{}, false
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("identity.email", identity.Email))
	return identity, true
}

type Middleware struct {
	verifier       Verifier
	allowedDomains []string
	tel            telemetry.API
}

func NewMiddleware(verifier Verifier, allowedDomains []string, tel telemetry.API) Middleware {
	assert.NotNil(verifier)
	assert.NotNil(tel)

	domains := make([]string, 0, len(allowedDomains))
	for _, d := range allowedDomains {
		domains = append(domains, strings.ToLower(strings.TrimPrefix(d, "@")))
	}
	return Middleware{
		verifier:       verifier,
		allowedDomains: domains,
		tel:            telemetry.NewScopedAPI("auth", tel),
	}
}

func (m Middleware) allowed(identity Identity) bool {
	if len(m.allowedDomains) == 0 {
		return true
	}
	return slices.Contains(m.allowedDomains, identity.Domain())
}

// Wrap requires an "Authorization: Bearer <token>" header and puts the
// verified identity into the request context.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
		if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
			serviceutil.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}

		identity, err := m.verifier.VerifyToken(r.Context(), token)
		if errors.Is(err, ErrUnauthenticated) {
			serviceutil.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}
		if err != nil {
			m.tel.ReportBroken(report_middleware_verify, err)
			serviceutil.WriteError(w, http.StatusBadGateway, "Could not verify identity", err.Error())
			return
		}
		if !m.allowed(identity) {
			m.tel.ReportWarning(report_middleware_verify, "identity outside allowed domains", identity.Email)
			serviceutil.WriteError(w, http.StatusForbidden, "Forbidden", "")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}
