// Package postgres stores price records in a PostgreSQL database, such as the
// one behind a Supabase project, over a direct pgx connection.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vbonduro/pricecheck/internal/domain"
	"github.com/vbonduro/pricecheck/internal/store"
)

// Querier is the subset of *pgxpool.Pool the store needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresPriceStore struct {
	db Querier
}

func NewPostgresPriceStore(db Querier) *PostgresPriceStore {
	return &PostgresPriceStore{db: db}
}

// Connect opens a connection pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

func (s *PostgresPriceStore) Insert(ctx context.Context, rec domain.PriceRecord) (*domain.PriceRecord, error) {
	out := rec
	err := s.db.QueryRow(ctx, `
		INSERT INTO prices (location, item, price) VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, rec.Location, rec.Item, rec.Price).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert price: %w", err)
	}
	return &out, nil
}

func (s *PostgresPriceStore) SelectExact(ctx context.Context, location, item string) (*domain.PriceRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, location, item, price, created_at FROM prices
		WHERE location = $1 AND item = $2
		LIMIT 2
	`, location, item)
	if err != nil {
		return nil, fmt.Errorf("failed to select price: %w", err)
	}
	defer rows.Close()

	var found []*domain.PriceRecord
	for rows.Next() {
		rec := &domain.PriceRecord{}
		if err := rows.Scan(&rec.ID, &rec.Location, &rec.Item, &rec.Price, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		found = append(found, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, domain.ErrNotFound
	case 1:
		return found[0], nil
	default:
		return nil, domain.ErrAmbiguous
	}
}

func (s *PostgresPriceStore) SelectDistinctLike(ctx context.Context, field domain.Field, substring string, limit int) ([]string, error) {
	col, err := field.Column()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT %[1]s FROM prices
		WHERE %[1]s ILIKE $1 ESCAPE '\'
		ORDER BY %[1]s ASC
		LIMIT $2
	`, col)

	rows, err := s.db.Query(ctx, query, store.ContainsPattern(substring), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", col, err)
	}
	defer rows.Close()

	values := make([]string, 0, limit)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", col, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", col, err)
	}

	return values, nil
}
