package sales

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-resto/internal/ordertype"
	"github.com/noah-isme/backend-resto/internal/pricing"
)

var (
	// ErrStoreUnavailable indicates the store dependency is not configured.
	ErrStoreUnavailable = errors.New("sales: store unavailable")
	// ErrInvalidRange is returned for a filter whose bounds are reversed or too wide.
	ErrInvalidRange = errors.New("sales: invalid date range")
)

// Transaction is a recorded invoice. Its summary is always computed server side.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	BranchID    uuid.UUID       `json:"branchId"`
	OrderType   ordertype.Key   `json:"orderType"`
	PaymentMode string          `json:"paymentMode,omitempty"`
	StaffID     string          `json:"staffId,omitempty"`
	Summary     pricing.Summary `json:"summary"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Filter selects transactions created in [From, To).
type Filter struct {
	BranchID uuid.UUID
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}
