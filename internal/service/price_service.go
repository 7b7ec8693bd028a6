package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/vbonduro/pricecheck/internal/currency"
	"github.com/vbonduro/pricecheck/internal/domain"
)

// PriceStore is the record store the workflows run against. It is satisfied
// by store.PriceStore, postgres.PostgresPriceStore and supabase.SupabasePriceStore.
type PriceStore interface {
	Insert(ctx context.Context, rec domain.PriceRecord) (*domain.PriceRecord, error)
	SelectExact(ctx context.Context, location, item string) (*domain.PriceRecord, error)
	SelectDistinctLike(ctx context.Context, field domain.Field, substring string, limit int) ([]string, error)
}

// PriceService runs the lookup, contribution and suggestion workflows. It
// holds no per-request state and is safe for concurrent use.
type PriceService struct {
	store    PriceStore
	rates    *currency.Table
	validate *validator.Validate
	logger   *slog.Logger
}

func NewPriceService(store PriceStore, rates *currency.Table, logger *slog.Logger) *PriceService {
	v := validator.New()
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return rates.Supported(fl.Field().String())
	})

	return &PriceService{
		store:    store,
		rates:    rates,
		validate: v,
		logger:   logger,
	}
}

// Currencies returns the selectable currency codes, canonical first.
func (s *PriceService) Currencies() []string {
	return s.rates.Codes()
}

func (s *PriceService) CanonicalCurrency() string {
	return s.rates.Canonical()
}

// checkInput runs struct validation and maps failures onto a ValidationError.
// Missing fields take precedence over an unknown currency.
func (s *PriceService) checkInput(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	unknownCurrency := false
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return &ValidationError{Reason: ReasonMissingFields, Message: msgMissingFields}
		}
		if fe.Tag() == "currency" {
			unknownCurrency = true
		}
	}
	if unknownCurrency {
		return &ValidationError{Reason: ReasonUnknownCurrency, Message: msgUnknownCurrency}
	}
	return err
}

func (s *PriceService) currencyOrCanonical(code string) string {
	if code == "" {
		return s.rates.Canonical()
	}
	return code
}
