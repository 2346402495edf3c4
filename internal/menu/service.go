package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/branch"
	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/ordertype"
	"github.com/noah-isme/backend-resto/internal/pricing"
)

// BranchReader loads the tax profile an item inherits.
type BranchReader interface {
	Get(ctx context.Context, id uuid.UUID) (branch.Branch, error)
}

// Locker serialises matrix rebuilds.
type Locker interface {
	Key(parts ...string) string
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Service manages menu items and keeps their pricing matrices current.
type Service struct {
	Store    Store
	Branches BranchReader
	Cache    *Cache
	Locker   Locker
	LockTTL  time.Duration
	Builder  pricing.Builder
	Events   events.Publisher
	Logger   zerolog.Logger
}

// SaveInput is the writable part of a menu item.
type SaveInput struct {
	BranchID    uuid.UUID                   `json:"branchId" validate:"required"`
	Name        string                      `json:"name" validate:"required,max=160"`
	Category    string                      `json:"category" validate:"max=80"`
	Price       float64                     `json:"price" validate:"gte=0"`
	Sizes       map[string]float64          `json:"sizes" validate:"omitempty,dive,keys,required,endkeys,gte=0"`
	PricingMode string                      `json:"pricingMode" validate:"omitempty,oneof=inclusive exclusive"`
	GSTRates    map[string]pricing.RatePair `json:"gstRates" validate:"omitempty,dive"`
}

// Page is one page of a branch menu.
type Page struct {
	Items []Item
	Total int
}

// Save validates the item, builds its matrix from the item and its branch
// profile, persists both and refreshes the cache. The branch is read under the
// branch lock so a concurrent RepriceBranch cannot be overwritten with a matrix
// built from older rates.
func (s *Service) Save(ctx context.Context, id uuid.UUID, in SaveInput) (Item, error) {
	if err := s.ready(); err != nil {
		return Item{}, err
	}
	in.PricingMode = strings.ToLower(strings.TrimSpace(in.PricingMode))
	if err := common.ValidateStruct(in); err != nil {
		return Item{}, err
	}
	if _, unknown := pricing.ParseGSTConfig(in.GSTRates); len(unknown) > 0 {
		return Item{}, common.ValidationFailed("unknown order type", map[string]any{"orderTypes": unknown})
	}

	item := Item{
		ID:          id,
		BranchID:    in.BranchID,
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price,
		Sizes:       in.Sizes,
		PricingMode: in.PricingMode,
		GSTRates:    in.GSTRates,
	}

	var saved Item
	err := s.withLock(ctx, s.branchLockKey(in.BranchID), func(ctx context.Context) error {
		b, err := s.Branches.Get(ctx, in.BranchID)
		if err != nil {
			if errors.Is(err, branch.ErrNotFound) {
				return common.ValidationFailed("unknown branch", map[string]any{"branchId": in.BranchID})
			}
			return fmt.Errorf("load branch %s: %w", in.BranchID, err)
		}
		item.Pricing = s.Builder.FromItem(item.pricingView(b))
		obs.CountMatrixBuild("item")
		saved, err = s.Store.Save(ctx, item)
		return err
	})
	if err != nil {
		return Item{}, fmt.Errorf("save menu item %s: %w", id, err)
	}
	s.cacheItem(ctx, saved)
	return saved, nil
}

// Get returns an item, reading through the cache.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	if err := s.ready(); err != nil {
		return Item{}, err
	}
	var cached Item
	if ok, err := s.Cache.GetJSON(ctx, itemKey(id), &cached); err != nil {
		s.Logger.Warn().Err(err).Str("item_id", id.String()).Msg("read menu cache")
	} else if ok {
		return cached, nil
	}
	item, err := s.Store.Get(ctx, id)
	if err != nil {
		return Item{}, fmt.Errorf("get menu item %s: %w", id, err)
	}
	s.cacheItem(ctx, item)
	return item, nil
}

// ListByBranch returns one page of a branch's items ordered by name.
func (s *Service) ListByBranch(ctx context.Context, branchID uuid.UUID, page, perPage int) (Page, error) {
	if err := s.ready(); err != nil {
		return Page{}, err
	}
	items, err := s.Store.ListByBranch(ctx, branchID, perPage, common.Offset(page, perPage))
	if err != nil {
		return Page{}, fmt.Errorf("list menu of branch %s: %w", branchID, err)
	}
	total, err := s.Store.CountByBranch(ctx, branchID)
	if err != nil {
		return Page{}, fmt.Errorf("count menu of branch %s: %w", branchID, err)
	}
	if items == nil {
		items = []Item{}
	}
	return Page{Items: items, Total: total}, nil
}

// Breakdown looks up the precomputed breakdown of an item for an order type
// and size. Unrecognised order type labels are read as dining.
func (s *Service) Breakdown(ctx context.Context, id uuid.UUID, orderType, size string) (*pricing.ResolvedBreakdown, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := ordertype.Parse(orderType); !ok && orderType != "" {
		obs.CountOrderTypeFallback("menu_breakdown")
	}
	rb := pricing.BreakdownFromMetadata(&item.Pricing, orderType, size)
	if rb == nil {
		return nil, ErrNoBreakdown
	}
	obs.CountBreakdown("menu", rb.PriceIncludesTax)
	return rb, nil
}

// RepriceBranch rebuilds the matrix of every item in a branch from the current
// branch profile. It returns the number of items rebuilt.
func (s *Service) RepriceBranch(ctx context.Context, branchID uuid.UUID) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	start := time.Now()
	var count int
	err := s.withLock(ctx, s.branchLockKey(branchID), func(ctx context.Context) error {
		b, err := s.Branches.Get(ctx, branchID)
		if err != nil {
			return fmt.Errorf("load branch: %w", err)
		}
		items, err := s.Store.ListByBranch(ctx, branchID, 0, 0)
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}
		for _, item := range items {
			item.Pricing = s.Builder.FromItem(item.pricingView(b))
			obs.CountMatrixBuild("reprice")
			if err := s.Store.UpdatePricing(ctx, item.ID, item.Pricing); err != nil {
				return fmt.Errorf("update pricing of item %s: %w", item.ID, err)
			}
			if err := s.Cache.Delete(ctx, itemKey(item.ID)); err != nil {
				s.Logger.Warn().Err(err).Str("item_id", item.ID.String()).Msg("evict menu cache")
			}
			count++
		}
		return nil
	})
	elapsed := obs.DurationMillis(time.Since(start))
	if err != nil {
		obs.ObserveReprice("error", elapsed)
		return count, fmt.Errorf("reprice branch %s: %w", branchID, err)
	}
	obs.ObserveReprice("ok", elapsed)
	s.publishRepriced(ctx, branchID, count)
	return count, nil
}

func (s *Service) publishRepriced(ctx context.Context, branchID uuid.UUID, count int) {
	if s.Events == nil {
		return
	}
	ev, err := events.New(events.TypeMenuRepriced, branchID.String(), map[string]any{"branchId": branchID, "items": count})
	if err == nil {
		err = s.Events.Publish(ctx, ev)
	}
	if err != nil {
		s.Logger.Warn().Err(err).Str("branch_id", branchID.String()).Msg("publish menu repriced")
	}
}

func (s *Service) ready() error {
	if s == nil || s.Store == nil || s.Branches == nil {
		return ErrStoreUnavailable
	}
	return nil
}

func (s *Service) lockKey(parts ...string) string {
	parts = append([]string{"menu"}, parts...)
	if s.Locker == nil {
		return strings.Join(parts, ":")
	}
	return s.Locker.Key(parts...)
}

// branchLockKey guards every matrix build that reads the profile of branchID.
func (s *Service) branchLockKey(branchID uuid.UUID) string {
	return s.lockKey("branch", branchID.String())
}

func (s *Service) withLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if s.Locker == nil {
		return fn(ctx)
	}
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return s.Locker.WithLock(ctx, key, ttl, fn)
}

func (s *Service) cacheItem(ctx context.Context, item Item) {
	if err := s.Cache.SetJSON(ctx, itemKey(item.ID), item); err != nil {
		s.Logger.Warn().Err(err).Str("item_id", item.ID.String()).Msg("write menu cache")
	}
}

func toAppError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return common.NotFound("menu item not found", err)
	case errors.Is(err, ErrNoBreakdown):
		return common.NotFound("no price for order type and size", err)
	}
	return err
}
