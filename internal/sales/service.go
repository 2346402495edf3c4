package sales

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

// BranchReader checks that a transaction's branch exists.
type BranchReader interface {
	Get(ctx context.Context, id uuid.UUID) (branch.Branch, error)
}

// ReportInvalidator drops cached reports that a late transaction may change.
type ReportInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service records and lists transactions.
type Service struct {
	Store    Store
	Branches BranchReader
	Events   events.Publisher
	Reports  ReportInvalidator
	Logger   zerolog.Logger
	Now      func() time.Time

	// MaxRange bounds the span of a listing filter; zero means unbounded.
	MaxRange time.Duration
}

// RecordInput is a cart submitted for invoicing. Client-side totals are not
// accepted; only the lines are.
type RecordInput struct {
	BranchID    uuid.UUID          `json:"branchId" validate:"required"`
	OrderType   string             `json:"orderType" validate:"required"`
	PaymentMode string             `json:"paymentMode" validate:"omitempty,oneof=cash card upi wallet"`
	Items       []pricing.LineItem `json:"items" validate:"required,min=1,max=500,dive"`

	// CapturedAt is when an offline client took the order.
	CapturedAt *time.Time `json:"capturedAt"`
}

// Page is one page of transactions.
type Page struct {
	Items []Transaction
	Total int
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Record summarizes the cart, persists the transaction and publishes a
// transaction.recorded event. A publish failure is logged; the transaction
// stays recorded.
func (s *Service) Record(ctx context.Context, in RecordInput) (Transaction, error) {
	if s == nil || s.Store == nil || s.Branches == nil {
		return Transaction{}, ErrStoreUnavailable
	}
	in.PaymentMode = strings.ToLower(strings.TrimSpace(in.PaymentMode))
	if err := common.ValidateStruct(in); err != nil {
		return Transaction{}, err
	}
	key, ok := ordertype.Parse(in.OrderType)
	if !ok {
		return Transaction{}, common.ValidationFailed("unknown order type", map[string]any{"orderTypes": []string{in.OrderType}})
	}
	if _, err := s.Branches.Get(ctx, in.BranchID); err != nil {
		if errors.Is(err, branch.ErrNotFound) {
			return Transaction{}, common.ValidationFailed("unknown branch", map[string]any{"branchId": in.BranchID})
		}
		return Transaction{}, fmt.Errorf("load branch %s: %w", in.BranchID, err)
	}

	now := s.now().UTC()
	createdAt := now
	if in.CapturedAt != nil && !in.CapturedAt.IsZero() && !in.CapturedAt.After(now) {
		createdAt = in.CapturedAt.UTC()
	}
	staffID, _ := common.StaffID(ctx)

	tx := Transaction{
		ID:          uuid.New(),
		BranchID:    in.BranchID,
		OrderType:   key,
		PaymentMode: in.PaymentMode,
		StaffID:     staffID,
		Summary:     pricing.Summarize(in.Items, key.Label()),
		CreatedAt:   createdAt,
	}
	if err := s.Store.Insert(ctx, tx); err != nil {
		return Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	if createdAt.Before(now) {
		s.invalidateReports(ctx, tx)
	}

	sum := tx.Summary
	obs.ObserveSale(string(key), sum.TotalBaseAmount, sum.TotalGSTAmount, sum.TotalFinalAmount)
	s.publish(ctx, tx)
	s.Logger.Info().
		Str("transaction_id", tx.ID.String()).
		Str("branch_id", tx.BranchID.String()).
		Str("order_type", string(key)).
		Float64("total", sum.TotalFinalAmount).
		Msg("transaction recorded")
	return tx, nil
}

func (s *Service) publish(ctx context.Context, tx Transaction) {
	if s.Events == nil {
		return
	}
	ev, err := events.New(events.TypeTransactionRecorded, tx.BranchID.String(), tx)
	if err == nil {
		err = s.Events.Publish(ctx, ev)
	}
	if err != nil {
		s.Logger.Error().Err(err).Str("transaction_id", tx.ID.String()).Msg("publish transaction recorded")
	}
}

// invalidateReports runs for transactions captured offline, which can land in
// a period whose report is already cached.
func (s *Service) invalidateReports(ctx context.Context, tx Transaction) {
	if s.Reports == nil {
		return
	}
	if err := s.Reports.Invalidate(ctx); err != nil {
		s.Logger.Error().Err(err).Str("transaction_id", tx.ID.String()).Msg("invalidate cached reports")
	}
}

// List returns transactions matching f, newest first.
func (s *Service) List(ctx context.Context, f Filter) (Page, error) {
	if s == nil || s.Store == nil {
		return Page{}, ErrStoreUnavailable
	}
	if err := s.CheckRange(f); err != nil {
		return Page{}, err
	}
	items, err := s.Store.List(ctx, f)
	if err != nil {
		return Page{}, fmt.Errorf("list transactions: %w", err)
	}
	total := len(items)
	if f.Limit > 0 {
		if total, err = s.Store.Count(ctx, f); err != nil {
			return Page{}, fmt.Errorf("count transactions: %w", err)
		}
	}
	if items == nil {
		items = []Transaction{}
	}
	return Page{Items: items, Total: total}, nil
}

// CheckRange rejects filters whose bounds are reversed or wider than MaxRange.
func (s *Service) CheckRange(f Filter) error {
	if f.From.IsZero() || f.To.IsZero() {
		return nil
	}
	if !f.From.Before(f.To) {
		return fmt.Errorf("%w: from must be before to", ErrInvalidRange)
	}
	if s.MaxRange > 0 && f.To.Sub(f.From) > s.MaxRange {
		return fmt.Errorf("%w: range exceeds %s", ErrInvalidRange, s.MaxRange)
	}
	return nil
}

// ToAppError maps service errors onto HTTP errors.
func ToAppError(err error) error {
	if errors.Is(err, ErrInvalidRange) {
		return common.BadRequest(err.Error(), err)
	}
	return err
}
