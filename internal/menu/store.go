package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-resto/internal/pricing"
)

// Store persists menu items and their matrices.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (Item, error)
	ListByBranch(ctx context.Context, branchID uuid.UUID, limit, offset int) ([]Item, error)
	CountByBranch(ctx context.Context, branchID uuid.UUID) (int, error)
	Save(ctx context.Context, item Item) (Item, error)
	UpdatePricing(ctx context.Context, id uuid.UUID, m pricing.Matrix) error
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

type pgStore struct {
	pool *pgxpool.Pool
}

const selectItem = `SELECT id, branch_id, name, category, price::float8, sizes, pricing_mode, gst_rates, pricing, updated_at FROM menu_items`

func (s *pgStore) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	if s == nil || s.pool == nil {
		return Item{}, ErrStoreUnavailable
	}
	it, err := scanItem(s.pool.QueryRow(ctx, selectItem+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

// ListByBranch returns items ordered by name. A non-positive limit returns all rows.
func (s *pgStore) ListByBranch(ctx context.Context, branchID uuid.UUID, limit, offset int) ([]Item, error) {
	if s == nil || s.pool == nil {
		return nil, ErrStoreUnavailable
	}
	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.pool.Query(ctx, selectItem+` WHERE branch_id = $1 ORDER BY name, id LIMIT $2 OFFSET $3`, branchID, limit, offset)
	} else {
		rows, err = s.pool.Query(ctx, selectItem+` WHERE branch_id = $1 ORDER BY name, id`, branchID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *pgStore) CountByBranch(ctx context.Context, branchID uuid.UUID) (int, error) {
	if s == nil || s.pool == nil {
		return 0, ErrStoreUnavailable
	}
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM menu_items WHERE branch_id = $1`, branchID).Scan(&n)
	return n, err
}

func (s *pgStore) Save(ctx context.Context, it Item) (Item, error) {
	if s == nil || s.pool == nil {
		return Item{}, ErrStoreUnavailable
	}
	sizes, rates, matrix, err := encodeItem(it)
	if err != nil {
		return Item{}, err
	}
	err = s.pool.QueryRow(ctx, `INSERT INTO menu_items (id, branch_id, name, category, price, sizes, pricing_mode, gst_rates, pricing)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET branch_id = EXCLUDED.branch_id, name = EXCLUDED.name, category = EXCLUDED.category,
    price = EXCLUDED.price, sizes = EXCLUDED.sizes, pricing_mode = EXCLUDED.pricing_mode,
    gst_rates = EXCLUDED.gst_rates, pricing = EXCLUDED.pricing, updated_at = now()
RETURNING updated_at`, it.ID, it.BranchID, it.Name, it.Category, it.Price, sizes, it.PricingMode, rates, matrix).Scan(&it.UpdatedAt)
	if err != nil {
		return Item{}, err
	}
	return it, nil
}

func (s *pgStore) UpdatePricing(ctx context.Context, id uuid.UUID, m pricing.Matrix) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode pricing: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE menu_items SET pricing = $2, updated_at = now() WHERE id = $1`, id, data)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func encodeItem(it Item) (sizes, rates, matrix []byte, err error) {
	if sizes, err = json.Marshal(nonNil(it.Sizes)); err != nil {
		return nil, nil, nil, fmt.Errorf("encode sizes: %w", err)
	}
	if rates, err = json.Marshal(nonNil(it.GSTRates)); err != nil {
		return nil, nil, nil, fmt.Errorf("encode gst rates: %w", err)
	}
	if matrix, err = json.Marshal(it.Pricing); err != nil {
		return nil, nil, nil, fmt.Errorf("encode pricing: %w", err)
	}
	return sizes, rates, matrix, nil
}

func nonNil[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}

func scanItem(row pgx.Row) (Item, error) {
	var (
		it                   Item
		sizes, rates, matrix []byte
	)
	if err := row.Scan(&it.ID, &it.BranchID, &it.Name, &it.Category, &it.Price, &sizes, &it.PricingMode, &rates, &matrix, &it.UpdatedAt); err != nil {
		return Item{}, err
	}
	if err := unmarshalIfPresent(sizes, &it.Sizes); err != nil {
		return Item{}, fmt.Errorf("decode sizes of item %s: %w", it.ID, err)
	}
	if err := unmarshalIfPresent(rates, &it.GSTRates); err != nil {
		return Item{}, fmt.Errorf("decode gst rates of item %s: %w", it.ID, err)
	}
	if err := unmarshalIfPresent(matrix, &it.Pricing); err != nil {
		return Item{}, fmt.Errorf("decode pricing of item %s: %w", it.ID, err)
	}
	if len(it.Sizes) == 0 {
		it.Sizes = nil
	}
	if len(it.GSTRates) == 0 {
		it.GSTRates = nil
	}
	return it, nil
}

func unmarshalIfPresent(data []byte, dst any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}
