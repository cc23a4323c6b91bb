package ports

import (
	"context"

	"github.com/vncsmyrnk/keyvote/internal/core/domain"
)

// TokenVerifier checks self-contained signed tokens without any server side
// session state.
type TokenVerifier interface {
	VerifyVoterToken(token string) (*domain.VoterClaims, error)
	VerifyAdminToken(token string) (*domain.AdminClaims, error)
}

type AuthService interface {
	TokenVerifier
	// RedeemKey validates a raw voting key and returns a capability token
	// for it. The key is not consumed.
	RedeemKey(ctx context.Context, key string) (string, error)
	AdminLogin(ctx context.Context, username, password string) (string, error)
}
