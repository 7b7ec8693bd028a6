package service

import (
	"context"
	"errors"
	"strings"

	"github.com/vbonduro/pricecheck/internal/currency"
	"github.com/vbonduro/pricecheck/internal/domain"
)

// LookupState is the owned state of one price lookup. Inputs are carried
// through unchanged; Phase, Result and Err describe the outcome.
type LookupState struct {
	Location string
	Item     string
	Currency string

	Phase  Phase
	Result *Quote
	Err    error
}

// Quote is a stored price converted into a display currency.
type Quote struct {
	Location string
	Item     string
	Currency string
	Amount   float64
}

// Display renders Amount rounded to two decimals.
func (q *Quote) Display() string {
	return currency.Format(q.Amount)
}

type lookupInput struct {
	Location string `validate:"required"`
	Item     string `validate:"required"`
	Currency string `validate:"currency"`
}

// Lookup finds the price stored for st.Location and st.Item and converts it
// into st.Currency (the canonical currency when empty). Any result or error
// from a previous invocation is cleared first.
func (s *PriceService) Lookup(ctx context.Context, st LookupState) LookupState {
	st.Result = nil
	st.Err = nil
	st.Phase = PhaseValidating
	st.Currency = s.currencyOrCanonical(st.Currency)

	in := lookupInput{
		Location: strings.TrimSpace(st.Location),
		Item:     strings.TrimSpace(st.Item),
		Currency: st.Currency,
	}
	if err := s.checkInput(in); err != nil {
		st.Phase = PhaseFailed
		st.Err = err
		return st
	}

	st.Phase = PhaseInFlight
	rec, err := s.store.SelectExact(ctx, in.Location, in.Item)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debug("no price data", "location", in.Location, "item", in.Item)
		st.Phase = PhaseNotFound
		st.Err = ErrNoPriceData
		return st
	}
	if err != nil {
		s.logger.Error("lookup failed", "location", in.Location, "item", in.Item, "error", err)
		st.Phase = PhaseFailed
		st.Err = &StoreError{Op: "lookup", Err: err}
		return st
	}

	amount, err := s.rates.FromCanonical(rec.Price, in.Currency)
	if err != nil {
		st.Phase = PhaseFailed
		st.Err = &ValidationError{Reason: ReasonUnknownCurrency, Message: msgUnknownCurrency}
		return st
	}

	st.Phase = PhaseSuccess
	st.Result = &Quote{
		Location: rec.Location,
		Item:     rec.Item,
		Currency: in.Currency,
		Amount:   amount,
	}
	return st
}
