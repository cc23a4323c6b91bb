package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
	"golang.org/x/crypto/bcrypt"
)

const (
	voterAudience = "voter"
	adminAudience = "admin"
	tokenIssuer   = "keyvote"
)

type AuthConfig struct {
	JWTSecret         []byte
	AdminUsername     string
	AdminPasswordHash []byte
	VoterTokenTTL     time.Duration
	AdminTokenTTL     time.Duration
}

type AuthService struct {
	store ports.Store
	cfg   AuthConfig
	now   func() time.Time
}

type voterClaims struct {
	KeyID     string `json:"keyId"`
	VotingKey string `json:"votingKey"`
	jwt.RegisteredClaims
}

type adminClaims struct {
	IsAdmin  bool   `json:"isAdmin"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func NewAuthService(store ports.Store, cfg AuthConfig) *AuthService {
	if len(cfg.JWTSecret) == 0 {
		slog.Warn("JWT secret is empty, tokens are trivially forgeable")
	}
	if cfg.VoterTokenTTL == 0 {
		cfg.VoterTokenTTL = time.Hour
	}
	if cfg.AdminTokenTTL == 0 {
		cfg.AdminTokenTTL = 24 * time.Hour
	}
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = "admin"
	}

	return &AuthService{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// HashAdminPassword returns the bcrypt hash stored as ADMIN_PASSWORD_HASH.
func HashAdminPassword(password string) ([]byte, error) {
	if password == "" {
		return nil, domain.Validationf("password is required")
	}
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

func (s *AuthService) RedeemKey(ctx context.Context, key string) (string, error) {
	if len(key) != domain.KeyLength {
		return "", domain.ErrInvalidKeyFormat
	}

	found, err := s.store.Keys().GetByKey(ctx, key)
	if err != nil {
		return "", err
	}
	if found.Used {
		return "", domain.ErrKeyAlreadyUsed
	}

	token, err := s.generateVoterToken(found)
	if err != nil {
		return "", fmt.Errorf("failed to generate voting token: %w", err)
	}

	return token, nil
}

func (s *AuthService) AdminLogin(ctx context.Context, username, password string) (string, error) {
	if password == "" {
		return "", domain.Validationf("password is required")
	}
	if username == "" {
		username = s.cfg.AdminUsername
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.AdminUsername)) == 1
	if len(s.cfg.AdminPasswordHash) == 0 {
		return "", domain.ErrInvalidCredentials
	}
	passErr := bcrypt.CompareHashAndPassword(s.cfg.AdminPasswordHash, []byte(password))
	if !userOK || passErr != nil {
		slog.Warn("admin login rejected", "username", username)
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.generateAdminToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate admin token: %w", err)
	}

	slog.Info("admin logged in", "username", username)
	return token, nil
}

func (s *AuthService) VerifyVoterToken(token string) (*domain.VoterClaims, error) {
	claims := &voterClaims{}
	if err := s.parse(token, claims, voterAudience); err != nil {
		return nil, err
	}

	keyID, err := uuid.Parse(claims.KeyID)
	if err != nil || len(claims.VotingKey) != domain.KeyLength {
		return nil, domain.ErrInvalidToken
	}

	return &domain.VoterClaims{
		KeyID:     keyID,
		Key:       claims.VotingKey,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *AuthService) VerifyAdminToken(token string) (*domain.AdminClaims, error) {
	claims := &adminClaims{}
	if err := s.parse(token, claims, adminAudience); err != nil {
		return nil, err
	}
	if !claims.IsAdmin {
		return nil, domain.ErrInvalidToken
	}

	return &domain.AdminClaims{
		Username:  claims.Username,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *AuthService) parse(token string, claims jwt.Claims, audience string) error {
	if token == "" {
		return domain.ErrInvalidToken
	}

	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.cfg.JWTSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: token expired", domain.ErrInvalidToken)
		}
		return domain.ErrInvalidToken
	}
	return nil
}

func (s *AuthService) generateVoterToken(key *domain.VotingKey) (string, error) {
	now := s.now()
	claims := voterClaims{
		KeyID:     key.ID.String(),
		VotingKey: key.Key,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{voterAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.VoterTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.cfg.JWTSecret)
}

func (s *AuthService) generateAdminToken() (string, error) {
	now := s.now()
	claims := adminClaims{
		IsAdmin:  true,
		Username: s.cfg.AdminUsername,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   s.cfg.AdminUsername,
			Audience:  jwt.ClaimStrings{adminAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AdminTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.cfg.JWTSecret)
}
