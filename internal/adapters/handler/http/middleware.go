package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/vncsmyrnk/keyvote/internal/core/domain"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
)

type contextKey string

const AdminClaimsKey contextKey = "admin_claims"

const tokenHeader = "x-auth-token"

// tokenFromRequest reads the token from x-auth-token, falling back to an
// Authorization bearer token.
func tokenFromRequest(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(tokenHeader)); token != "" {
		return token
	}

	auth := r.Header.Get("Authorization")
	if len(auth) > len("Bearer ") && strings.EqualFold(auth[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return ""
}

// RequireAdmin rejects requests without a valid admin token.
func RequireAdmin(verifier ports.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				writeFailure(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}

			claims, err := verifier.VerifyAdminToken(token)
			if err != nil {
				writeError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), AdminClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func adminFromContext(ctx context.Context) *domain.AdminClaims {
	claims, _ := ctx.Value(AdminClaimsKey).(*domain.AdminClaims)
	return claims
}
