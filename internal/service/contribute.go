package service

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/vbonduro/pricecheck/internal/domain"
)

// ContributeState is the owned state of one contribution form submission.
// Price is the raw text the user entered.
type ContributeState struct {
	Location string
	Item     string
	Price    string
	Currency string

	Phase Phase
	Saved *domain.PriceRecord
	Err   error
}

type contributeInput struct {
	Location string `validate:"required"`
	Item     string `validate:"required"`
	Price    string `validate:"required"`
	Currency string `validate:"currency"`
}

// Contribute validates st, converts its price into the canonical currency and
// stores a new record. On success the returned state has empty inputs and the
// canonical currency selected; on any failure the inputs are returned as given.
func (s *PriceService) Contribute(ctx context.Context, st ContributeState) ContributeState {
	st.Saved = nil
	st.Err = nil
	st.Phase = PhaseValidating

	in := contributeInput{
		Location: strings.TrimSpace(st.Location),
		Item:     strings.TrimSpace(st.Item),
		Price:    strings.TrimSpace(st.Price),
		Currency: s.currencyOrCanonical(st.Currency),
	}
	if err := s.checkInput(in); err != nil {
		st.Phase = PhaseFailed
		st.Err = err
		return st
	}

	price, err := parsePrice(in.Price)
	if err != nil {
		st.Phase = PhaseFailed
		st.Err = err
		return st
	}

	canonical, err := s.rates.ToCanonical(price, in.Currency)
	if err != nil {
		st.Phase = PhaseFailed
		st.Err = &ValidationError{Reason: ReasonUnknownCurrency, Message: msgUnknownCurrency}
		return st
	}

	st.Phase = PhaseInFlight
	saved, err := s.store.Insert(ctx, domain.PriceRecord{
		Location: in.Location,
		Item:     in.Item,
		Price:    canonical,
	})
	if err != nil {
		s.logger.Error("submission failed", "location", in.Location, "item", in.Item, "error", err)
		st.Phase = PhaseFailed
		st.Err = &StoreError{Op: "submission", Err: err}
		return st
	}

	s.logger.Info("price contributed",
		"id", saved.ID,
		"location", saved.Location,
		"item", saved.Item,
		"price", saved.Price,
		"entered_currency", in.Currency,
	)

	return ContributeState{
		Currency: s.rates.Canonical(),
		Phase:    PhaseSuccess,
		Saved:    saved,
	}
}

// parsePrice accepts finite numbers greater than zero.
func parsePrice(raw string) (float64, error) {
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, &ValidationError{Reason: ReasonInvalidPrice, Message: msgInvalidPrice}
	}
	return price, nil
}
