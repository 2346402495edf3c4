package branch

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-resto/internal/ordertype"
	"github.com/noah-isme/backend-resto/internal/pricing"
)

var (
	// ErrNotFound is returned when a branch does not exist.
	ErrNotFound = errors.New("branch: not found")
	// ErrStoreUnavailable indicates the store dependency is not configured.
	ErrStoreUnavailable = errors.New("branch: store unavailable")
)

// Pricing modes of a branch.
const (
	ModeInclusive = "inclusive"
	ModeExclusive = pricing.PricingModeExclusive
)

// Branch is the tax profile of one outlet.
type Branch struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	PricingMode string            `json:"pricingMode"`
	GSTConfig   pricing.GSTConfig `json:"gstConfig"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// IncludesTax reports whether prices entered at the branch are tax-inclusive.
func (b Branch) IncludesTax() bool {
	return b.PricingMode != ModeExclusive
}

// Rates returns the branch rate pair for an order type; missing entries are 0/0.
func (b Branch) Rates(key ordertype.Key) pricing.RatePair {
	return b.GSTConfig[key]
}

// RatesByLabel returns the config keyed by canonical key strings, the shape
// menu items store their own overrides in.
func (b Branch) RatesByLabel() map[string]pricing.RatePair {
	out := make(map[string]pricing.RatePair, len(b.GSTConfig))
	for key, rates := range b.GSTConfig {
		out[string(key)] = rates
	}
	return out
}
