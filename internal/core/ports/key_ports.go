package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
)

type KeyRepository interface {
	// ReplaceAll drops every existing key and stores keys in their place.
	ReplaceAll(ctx context.Context, keys []domain.VotingKey) error
	GetByKey(ctx context.Context, key string) (*domain.VotingKey, error)
	// MarkUsed flips used from false to true. It returns
	// domain.ErrKeyAlreadyUsed if the key was already used and
	// domain.ErrKeyNotFound if it does not exist.
	MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context) ([]domain.VotingKey, error)
	Count(ctx context.Context) (total int, used int, err error)
	DeleteAll(ctx context.Context) error
}

type KeyService interface {
	GenerateKeys(ctx context.Context) ([]string, error)
	ListKeys(ctx context.Context) ([]domain.VotingKey, error)
}
