package branch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/pricing"
)

// RepriceScheduler queues a rebuild of every menu matrix of a branch.
type RepriceScheduler interface {
	EnqueueReprice(ctx context.Context, branchID uuid.UUID, version time.Time) error
}

// Service manages branch tax profiles.
type Service struct {
	Store  Store
	Jobs   RepriceScheduler
	Logger zerolog.Logger
}

// UpsertInput is the writable part of a branch.
type UpsertInput struct {
	Name        string                      `json:"name" validate:"required,max=120"`
	PricingMode string                      `json:"pricingMode" validate:"omitempty,oneof=inclusive exclusive"`
	GSTConfig   map[string]pricing.RatePair `json:"gstConfig" validate:"required,min=1,dive"`
}

// Get returns one branch.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Branch, error) {
	if s == nil || s.Store == nil {
		return Branch{}, ErrStoreUnavailable
	}
	b, err := s.Store.Get(ctx, id)
	if err != nil {
		return Branch{}, fmt.Errorf("get branch %s: %w", id, err)
	}
	return b, nil
}

// List returns all branches ordered by name.
func (s *Service) List(ctx context.Context) ([]Branch, error) {
	if s == nil || s.Store == nil {
		return nil, ErrStoreUnavailable
	}
	branches, err := s.Store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	if branches == nil {
		branches = []Branch{}
	}
	return branches, nil
}

// Upsert creates or replaces the tax profile of branch id. Order type labels
// must be recognised; an unknown label is rejected instead of being read as
// dining. Updating an existing branch schedules a reprice of its menu.
func (s *Service) Upsert(ctx context.Context, id uuid.UUID, in UpsertInput) (Branch, error) {
	if s == nil || s.Store == nil {
		return Branch{}, ErrStoreUnavailable
	}
	in.PricingMode = strings.ToLower(strings.TrimSpace(in.PricingMode))
	if err := common.ValidateStruct(in); err != nil {
		return Branch{}, err
	}
	cfg, unknown := pricing.ParseGSTConfig(in.GSTConfig)
	if len(unknown) > 0 {
		return Branch{}, common.ValidationFailed("unknown order type", map[string]any{"orderTypes": unknown})
	}
	mode := in.PricingMode
	if mode == "" {
		mode = ModeInclusive
	}

	saved, created, err := s.Store.Upsert(ctx, Branch{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		PricingMode: mode,
		GSTConfig:   cfg,
	})
	if err != nil {
		return Branch{}, fmt.Errorf("save branch %s: %w", id, err)
	}
	if created || s.Jobs == nil {
		return saved, nil
	}
	if err := s.Jobs.EnqueueReprice(ctx, id, saved.UpdatedAt); err != nil {
		s.Logger.Error().Err(err).Str("branch_id", id.String()).Msg("schedule branch reprice")
		return Branch{}, fmt.Errorf("schedule reprice of branch %s: %w", id, err)
	}
	s.Logger.Info().Str("branch_id", id.String()).Msg("branch reprice scheduled")
	return saved, nil
}

func toAppError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return common.NotFound("branch not found", err)
	}
	return err
}
