package currency

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrUnknownCurrency is returned when a conversion names a code missing from the table.
var ErrUnknownCurrency = errors.New("unknown currency")

// DefaultCanonical is the currency prices are persisted in.
const DefaultCanonical = "USD"

// defaultRates are units of each currency per one USD.
var defaultRates = map[string]float64{
	"USD": 1,
	"EUR": 0.92,
	"GBP": 0.79,
	"JPY": 151.62,
	"INR": 83.12,
	"AUD": 1.52,
	"CAD": 1.35,
	"CHF": 0.90,
	"CNY": 7.23,
	"SGD": 1.35,
}

// Table maps currency codes to fixed exchange rates relative to a canonical
// currency. A Table is immutable once built and safe for concurrent use.
type Table struct {
	canonical string
	rates     map[string]float64
	codes     []string
}

// NewTable validates rates and returns a Table. The canonical code must be
// present with a rate of exactly 1.
func NewTable(canonical string, rates map[string]float64) (*Table, error) {
	if !validCode(canonical) {
		return nil, fmt.Errorf("invalid canonical currency code %q", canonical)
	}
	if r, ok := rates[canonical]; !ok || r != 1 {
		return nil, fmt.Errorf("canonical currency %s must have rate 1", canonical)
	}

	copied := make(map[string]float64, len(rates))
	others := make([]string, 0, len(rates)-1)
	for code, rate := range rates {
		if !validCode(code) {
			return nil, fmt.Errorf("invalid currency code %q", code)
		}
		if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			return nil, fmt.Errorf("currency %s has invalid rate %v", code, rate)
		}
		copied[code] = rate
		if code != canonical {
			others = append(others, code)
		}
	}
	sort.Strings(others)

	return &Table{
		canonical: canonical,
		rates:     copied,
		codes:     append([]string{canonical}, others...),
	}, nil
}

// Default returns the built-in rate table with USD as the canonical currency.
func Default() *Table {
	t, err := NewTable(DefaultCanonical, defaultRates)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Canonical() string {
	return t.canonical
}

// Codes lists the supported codes, canonical first and the rest alphabetically.
func (t *Table) Codes() []string {
	return append([]string(nil), t.codes...)
}

func (t *Table) Supported(code string) bool {
	_, ok := t.rates[code]
	return ok
}

// Rate returns units of code per one unit of the canonical currency.
func (t *Table) Rate(code string) (float64, error) {
	rate, ok := t.rates[code]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return rate, nil
}

// ToCanonical converts amount expressed in code into the canonical currency.
func (t *Table) ToCanonical(amount float64, code string) (float64, error) {
	rate, err := t.Rate(code)
	if err != nil {
		return 0, err
	}
	return amount / rate, nil
}

// FromCanonical converts a canonical amount into code.
func (t *Table) FromCanonical(amount float64, code string) (float64, error) {
	rate, err := t.Rate(code)
	if err != nil {
		return 0, err
	}
	return amount * rate, nil
}

// Format renders amount rounded half away from zero to two decimal places.
// Rounding happens here only; stored and converted values keep full precision.
func Format(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

func validCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}
