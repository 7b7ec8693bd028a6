package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vbonduro/pricecheck/internal/db"
	"github.com/vbonduro/pricecheck/internal/domain"
)

// PriceStore persists price records in SQLite.
type PriceStore struct {
	db *sql.DB
}

func NewPriceStore(database *sql.DB) *PriceStore {
	return &PriceStore{db: database}
}

func (s *PriceStore) Insert(ctx context.Context, rec domain.PriceRecord) (*domain.PriceRecord, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO prices (location, item, price) VALUES (?, ?, ?)
	`, rec.Location, rec.Item, rec.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to insert price: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	saved, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, fmt.Errorf("failed to read back price %d: %w", id, domain.ErrNotFound)
	}
	return saved, nil
}

// GetByID returns nil, nil when no record has the given id.
func (s *PriceStore) GetByID(ctx context.Context, id int64) (*domain.PriceRecord, error) {
	rec := &domain.PriceRecord{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, location, item, price, created_at FROM prices WHERE id = ?
	`, id).Scan(&rec.ID, &rec.Location, &rec.Item, &rec.Price, &rec.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get price: %w", err)
	}

	return rec, nil
}

// SelectExact returns the single record whose location and item equal the
// arguments exactly. It returns domain.ErrNotFound when none match and
// domain.ErrAmbiguous when more than one does.
func (s *PriceStore) SelectExact(ctx context.Context, location, item string) (*domain.PriceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, location, item, price, created_at FROM prices
		WHERE location = ? AND item = ?
		LIMIT 2
	`, location, item)
	if err != nil {
		return nil, fmt.Errorf("failed to select price: %w", err)
	}
	defer closeRows(rows)

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

// SelectDistinctLike returns up to limit distinct values of field containing
// substring, case-insensitively, in ascending order.
func (s *PriceStore) SelectDistinctLike(ctx context.Context, field domain.Field, substring string, limit int) ([]string, error) {
	col, err := field.Column()
	if err != nil {
		return nil, err
	}

	// col comes from the domain.Field allow-list, never from user input.
	query := fmt.Sprintf(`
		SELECT DISTINCT %[1]s FROM prices
		WHERE %[2]s(%[1]s) LIKE ? ESCAPE '\'
		ORDER BY %[1]s ASC
		LIMIT ?
	`, col, db.LowerFunc)

	rows, err := s.db.QueryContext(ctx, query, ContainsPattern(strings.ToLower(substring)), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", col, err)
	}
	defer closeRows(rows)

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

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("failed to close rows", "error", err)
	}
}
