package sales

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-resto/internal/ordertype"
)

// Store persists transactions.
type Store interface {
	Insert(ctx context.Context, tx Transaction) error
	List(ctx context.Context, f Filter) ([]Transaction, error)
	Count(ctx context.Context, f Filter) (int, error)
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

type pgStore struct {
	pool *pgxpool.Pool
}

func (s *pgStore) Insert(ctx context.Context, tx Transaction) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	summary, err := json.Marshal(tx.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	sum := tx.Summary
	_, err = s.pool.Exec(ctx, `INSERT INTO transactions (id, branch_id, order_type, payment_mode, staff_id,
    total_base_amount, total_cgst_amount, total_sgst_amount, total_gst_amount, total_final_amount, summary, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		tx.ID, tx.BranchID, string(tx.OrderType), tx.PaymentMode, tx.StaffID,
		sum.TotalBaseAmount, sum.TotalCGSTAmount, sum.TotalSGSTAmount, sum.TotalGSTAmount, sum.TotalFinalAmount,
		summary, tx.CreatedAt)
	return err
}

func (s *pgStore) List(ctx context.Context, f Filter) ([]Transaction, error) {
	if s == nil || s.pool == nil {
		return nil, ErrStoreUnavailable
	}
	where, args := whereClause(f)
	query := `SELECT id, branch_id, order_type, payment_mode, staff_id, summary, created_at FROM transactions` +
		where + ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *pgStore) Count(ctx context.Context, f Filter) (int, error) {
	if s == nil || s.pool == nil {
		return 0, ErrStoreUnavailable
	}
	where, args := whereClause(f)
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM transactions`+where, args...).Scan(&n)
	return n, err
}

func whereClause(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if f.BranchID != uuid.Nil {
		add("branch_id = ?", f.BranchID)
	}
	if !f.From.IsZero() {
		add("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		add("created_at < ?", f.To)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		tx        Transaction
		orderType string
		summary   []byte
	)
	if err := row.Scan(&tx.ID, &tx.BranchID, &orderType, &tx.PaymentMode, &tx.StaffID, &summary, &tx.CreatedAt); err != nil {
		return Transaction{}, err
	}
	key, ok := ordertype.Decode(orderType)
	if !ok {
		key = ordertype.Dining
	}
	tx.OrderType = key
	if err := json.Unmarshal(summary, &tx.Summary); err != nil {
		return Transaction{}, fmt.Errorf("decode summary of transaction %s: %w", tx.ID, err)
	}
	return tx, nil
}
