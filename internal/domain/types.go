package domain

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by an exact-match lookup that matches no record.
	ErrNotFound = errors.New("price record not found")

	// ErrAmbiguous is returned by an exact-match lookup that matches more than one record.
	ErrAmbiguous = errors.New("multiple price records match location and item")

	ErrUnknownField = errors.New("unknown field")
)

// PriceRecord is a single crowdsourced price observation. Price is in the
// canonical currency.
type PriceRecord struct {
	ID        int64
	Location  string
	Item      string
	Price     float64
	CreatedAt time.Time
}

// Field names a PriceRecord column that supports substring suggestions.
type Field string

const (
	FieldLocation Field = "location"
	FieldItem     Field = "item"
)

// Column returns the column name for f, or ErrUnknownField.
func (f Field) Column() (string, error) {
	switch f {
	case FieldLocation, FieldItem:
		return string(f), nil
	default:
		return "", ErrUnknownField
	}
}
