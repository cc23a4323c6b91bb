package services

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
)

type candidateService struct {
	store ports.Store
	now   func() time.Time
}

func NewCandidateService(store ports.Store) ports.CandidateService {
	return &candidateService{
		store: store,
		now:   time.Now,
	}
}

// Configure replaces every candidate. Positions follow input order and all
// tallies restart at zero.
func (s *candidateService) Configure(ctx context.Context, input []domain.CandidateDescriptor) ([]domain.Candidate, error) {
	if len(input) == 0 || len(input) > domain.MaxCandidates {
		return nil, domain.ErrInvalidCandidates
	}

	now := s.now().UTC()
	candidates := make([]domain.Candidate, 0, len(input))
	for i, in := range input {
		name := strings.TrimSpace(in.Name)
		description := strings.TrimSpace(in.Description)
		photo := strings.TrimSpace(in.Photo)

		if name == "" {
			return nil, domain.Validationf("candidate %d: name is required", i+1)
		}
		if utf8.RuneCountInString(name) > domain.MaxCandidateNameLen {
			return nil, domain.Validationf("candidate %d: name must be at most %d characters", i+1, domain.MaxCandidateNameLen)
		}
		if utf8.RuneCountInString(description) > domain.MaxCandidateDescription {
			return nil, domain.Validationf("candidate %d: description must be at most %d characters", i+1, domain.MaxCandidateDescription)
		}

		candidates = append(candidates, domain.Candidate{
			ID:          uuid.New(),
			Name:        name,
			Description: description,
			Photo:       photo,
			Position:    i + 1,
			CreatedAt:   now,
		})
	}

	err := s.store.Atomic(ctx, func(tx ports.Store) error {
		return tx.Candidates().ReplaceAll(ctx, candidates)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("candidates configured", "count", len(candidates))
	return candidates, nil
}

func (s *candidateService) ListCandidates(ctx context.Context) ([]domain.Candidate, error) {
	return s.store.Candidates().List(ctx)
}

func (s *candidateService) GetCandidate(ctx context.Context, id string) (*domain.Candidate, error) {
	candidateID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrCandidateNotFound
	}
	return s.store.Candidates().GetByID(ctx, candidateID)
}
