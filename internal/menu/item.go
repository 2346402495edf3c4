package menu

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-resto/internal/branch"
	"github.com/noah-isme/backend-resto/internal/pricing"
)

var (
	// ErrNotFound is returned when a menu item does not exist.
	ErrNotFound = errors.New("menu: item not found")
	// ErrNoBreakdown is returned when an item's matrix has no entry for the
	// requested order type and size.
	ErrNoBreakdown = errors.New("menu: no breakdown for order type and size")
	// ErrStoreUnavailable indicates the store dependency is not configured.
	ErrStoreUnavailable = errors.New("menu: store unavailable")
)

// Item is a menu item together with its precomputed pricing matrix.
type Item struct {
	ID          uuid.UUID                   `json:"id"`
	BranchID    uuid.UUID                   `json:"branchId"`
	Name        string                      `json:"name"`
	Category    string                      `json:"category"`
	Price       float64                     `json:"price"`
	Sizes       map[string]float64          `json:"sizes,omitempty"`
	PricingMode string                      `json:"pricingMode,omitempty"`
	GSTRates    map[string]pricing.RatePair `json:"gstRates,omitempty"`
	Pricing     pricing.Matrix              `json:"pricing"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}

// pricingView returns the engine view of the item. The item's own rates and
// pricing mode win; the branch profile fills whatever the item leaves empty.
func (it Item) pricingView(b branch.Branch) pricing.Item {
	view := pricing.Item{
		Price:       it.Price,
		PricingMode: it.PricingMode,
		GSTRates:    it.GSTRates,
	}
	if view.PricingMode == "" {
		view.PricingMode = b.PricingMode
	}
	if len(view.GSTRates) == 0 {
		view.GSTRates = b.RatesByLabel()
	}
	if len(it.Sizes) > 0 {
		view.Sizes = make(map[string]pricing.SizePrice, len(it.Sizes))
		for size, price := range it.Sizes {
			view.Sizes[size] = pricing.SizePrice{Price: price}
		}
	}
	return view
}
