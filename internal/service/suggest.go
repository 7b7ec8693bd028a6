package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/vbonduro/pricecheck/internal/domain"
)

const (
	// MinSuggestLen is the shortest search text that triggers a store query.
	MinSuggestLen = 2
	SuggestLimit  = 10
)

func (s *PriceService) SuggestLocations(ctx context.Context, text string) []string {
	return s.Suggest(ctx, domain.FieldLocation, text)
}

func (s *PriceService) SuggestItems(ctx context.Context, text string) []string {
	return s.Suggest(ctx, domain.FieldItem, text)
}

// Suggest returns up to SuggestLimit distinct values of field containing text.
// It never fails: short text yields no query, and store errors are logged and
// degrade to an empty list.
func (s *PriceService) Suggest(ctx context.Context, field domain.Field, text string) []string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinSuggestLen {
		return []string{}
	}

	values, err := s.store.SelectDistinctLike(ctx, field, text, SuggestLimit)
	if err != nil {
		if ctx.Err() != nil {
			s.logger.Debug("suggestion cancelled", "field", field, "text", text)
		} else {
			s.logger.Warn("suggestion query failed", "field", field, "text", text, "error", err)
		}
		return []string{}
	}
	return values
}
