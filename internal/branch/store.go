package branch

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

// Store persists branch tax profiles.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (Branch, error)
	List(ctx context.Context) ([]Branch, error)
	// Upsert writes b and reports whether a new row was inserted.
	Upsert(ctx context.Context, b Branch) (Branch, bool, error)
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

type pgStore struct {
	pool *pgxpool.Pool
}

const selectBranch = `SELECT id, name, pricing_mode, gst_config, updated_at FROM branches`

func (s *pgStore) Get(ctx context.Context, id uuid.UUID) (Branch, error) {
	if s == nil || s.pool == nil {
		return Branch{}, ErrStoreUnavailable
	}
	b, err := scanBranch(s.pool.QueryRow(ctx, selectBranch+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Branch{}, ErrNotFound
	}
	return b, err
}

func (s *pgStore) List(ctx context.Context) ([]Branch, error) {
	if s == nil || s.pool == nil {
		return nil, ErrStoreUnavailable
	}
	rows, err := s.pool.Query(ctx, selectBranch+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *pgStore) Upsert(ctx context.Context, b Branch) (Branch, bool, error) {
	if s == nil || s.pool == nil {
		return Branch{}, false, ErrStoreUnavailable
	}
	cfg, err := json.Marshal(b.GSTConfig)
	if err != nil {
		return Branch{}, false, fmt.Errorf("encode gst config: %w", err)
	}
	var inserted bool
	err = s.pool.QueryRow(ctx, `INSERT INTO branches (id, name, pricing_mode, gst_config)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, pricing_mode = EXCLUDED.pricing_mode,
    gst_config = EXCLUDED.gst_config, updated_at = now()
RETURNING updated_at, (xmax = 0)`, b.ID, b.Name, b.PricingMode, cfg).Scan(&b.UpdatedAt, &inserted)
	if err != nil {
		return Branch{}, false, err
	}
	return b, inserted, nil
}

func scanBranch(row pgx.Row) (Branch, error) {
	var (
		b   Branch
		cfg []byte
	)
	if err := row.Scan(&b.ID, &b.Name, &b.PricingMode, &cfg, &b.UpdatedAt); err != nil {
		return Branch{}, err
	}
	b.GSTConfig = pricing.GSTConfig{}
	if len(cfg) > 0 {
		if err := json.Unmarshal(cfg, &b.GSTConfig); err != nil {
			return Branch{}, fmt.Errorf("decode gst config of branch %s: %w", b.ID, err)
		}
	}
	return b, nil
}
