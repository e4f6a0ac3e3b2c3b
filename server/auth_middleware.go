package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-control-plane/auth"
	"github.com/jrsteele09/go-control-plane/internal/errors"
	"github.com/jrsteele09/go-control-plane/users"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyPrincipal stores the authenticated *auth.Principal
const ContextKeyPrincipal ContextKey = "principal"

// PrincipalFromContext returns the principal set by RequireAuth, or nil.
func PrincipalFromContext(ctx context.Context) *auth.Principal {
	p, _ := ctx.Value(ContextKeyPrincipal).(*auth.Principal)
	return p
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth resolves the bearer credential into a principal. The credential
// must verify and its session must still be active.
func (s *Server) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := bearerToken(r)
		if credential == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		principal, err := s.svc.Auth.Principal(r.Context(), credential)
		switch {
		case errors.Is(err, errors.ErrAccountDeactivated):
			writeError(w, http.StatusUnauthorized, "unauthorized", errors.ErrAccountDeactivated.Error())
			return
		case errors.Is(err, errors.ErrInvalidOrExpiredSession):
			writeError(w, http.StatusUnauthorized, "unauthorized", errors.ErrInvalidOrExpiredSession.Error())
			return
		case err != nil:
			log.Error().Err(err).Msg("resolving principal")
			writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyPrincipal, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles admits principals whose role is at least the highest of roles.
func (s *Server) RequireRoles(roles ...users.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
				return
			}
			if !auth.Authorize(p.Role, roles...) {
				writeError(w, http.StatusForbidden, "forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireFeature admits principals whose organization holds a valid license
// granting feature.
func (s *Server) RequireFeature(feature string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
				return
			}
			if p.OrganizationID == "" {
				writeError(w, http.StatusForbidden, "feature_not_licensed", "feature "+feature+" is not licensed")
				return
			}
			granted, err := s.svc.Entitlements.HasFeature(r.Context(), p.OrganizationID, feature)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			if !granted {
				writeError(w, http.StatusForbidden, "feature_not_licensed", "feature "+feature+" is not licensed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
