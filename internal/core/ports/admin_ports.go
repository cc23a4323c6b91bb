package ports

import (
	"context"

	"github.com/vncsmyrnk/keyvote/internal/core/domain"
)

type AdminService interface {
	Stats(ctx context.Context) (*domain.Stats, error)
	Reset(ctx context.Context) error
}

type ReconcileService interface {
	Reconcile(ctx context.Context, repair bool) (*domain.ReconcileReport, error)
}
