package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
)

type keyService struct {
	store ports.Store
	now   func() time.Time
}

func NewKeyService(store ports.Store) ports.KeyService {
	return &keyService{
		store: store,
		now:   time.Now,
	}
}

// GenerateKeys replaces the whole key store with a fresh batch. Keys issued
// before are no longer redeemable; the ledger is left untouched.
func (s *keyService) GenerateKeys(ctx context.Context) ([]string, error) {
	raw, err := newKeyBatch(domain.KeyBatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keys: %w", err)
	}

	now := s.now().UTC()
	keys := make([]domain.VotingKey, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, domain.VotingKey{
			ID:        uuid.New(),
			Key:       k,
			CreatedAt: now,
		})
	}

	err = s.store.Atomic(ctx, func(tx ports.Store) error {
		return tx.Keys().ReplaceAll(ctx, keys)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("voting keys generated", "count", len(raw))
	return raw, nil
}

func (s *keyService) ListKeys(ctx context.Context) ([]domain.VotingKey, error) {
	return s.store.Keys().List(ctx)
}

func newKeyBatch(n int) ([]string, error) {
	seen := make(map[string]struct{}, n)
	keys := make([]string, 0, n)
	for len(keys) < n {
		k, err := newKey()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys, nil
}

// newKey returns KeyLength lowercase hex characters from a CSPRNG.
func newKey() (string, error) {
	b := make([]byte, domain.KeyLength/2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
