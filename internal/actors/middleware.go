package actors

import (
	"net/http"
	"strings"

	"github.com/bmarket-ims/bmarket/internal/platform/httpx"
	"github.com/bmarket-ims/bmarket/internal/shared"
)

// Authenticate extracts the bearer token, validates it and stores the
// resolved identity in the request context. Requests without a valid
// identity are rejected; there is no anonymous fallback.
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
				return
			}
			claims, err := ValidateToken(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
				return
			}
			identity := &shared.Identity{
				ActorID: claims.ActorID,
				Role:    claims.Role,
				Email:   claims.Email,
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole allows the request through only when the caller holds one
// of the listed roles. Admin passes everywhere.
func RequireRole(roles ...shared.Role) func(http.Handler) http.Handler {
	allowed := make(map[shared.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := shared.IdentityFromContext(r.Context())
			if identity == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
				return
			}
			if identity.Role != shared.RoleAdmin {
				if _, ok := allowed[identity.Role]; !ok {
					httpx.Problem(w, http.StatusForbidden, "Forbidden", "role not permitted")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
