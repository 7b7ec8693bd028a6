// Package supabase stores price records through a Supabase project's
// PostgREST endpoint (/rest/v1).
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vbonduro/pricecheck/internal/domain"
	"github.com/vbonduro/pricecheck/internal/store"
)

const table = "prices"

// PostgREST has no DISTINCT, so suggestion rows are fetched in pages of
// rowFanout rows per requested value and deduplicated client-side.
const (
	rowFanout = 5
	maxPages  = 20
)

type row struct {
	ID        int64   `json:"id"`
	Location  string  `json:"location"`
	Item      string  `json:"item"`
	Price     float64 `json:"price"`
	CreatedAt string  `json:"created_at"`
}

// timestampLayouts covers timestamptz and timestamp columns as PostgREST renders them.
var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"}

func (r row) record() *domain.PriceRecord {
	rec := &domain.PriceRecord{
		ID:       r.ID,
		Location: r.Location,
		Item:     r.Item,
		Price:    r.Price,
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, r.CreatedAt); err == nil {
			rec.CreatedAt = t
			break
		}
	}
	return rec
}

// apiError is the PostgREST error body.
type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

type SupabasePriceStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewSupabasePriceStore returns a store for the project at projectURL
// (e.g. https://xyz.supabase.co) authenticated with apiKey.
func NewSupabasePriceStore(projectURL, apiKey string) *SupabasePriceStore {
	return &SupabasePriceStore{
		baseURL: strings.TrimRight(projectURL, "/") + "/rest/v1/" + table,
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

func (s *SupabasePriceStore) Insert(ctx context.Context, rec domain.PriceRecord) (*domain.PriceRecord, error) {
	payload, err := json.Marshal([]map[string]any{{
		"location": rec.Location,
		"item":     rec.Item,
		"price":    rec.Price,
	}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := s.newRequest(ctx, http.MethodPost, nil, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	var rows []row
	if err := s.do(req, &rows); err != nil {
		return nil, fmt.Errorf("failed to insert price: %w", err)
	}
	if len(rows) == 0 {
		// Row-level security can hide the inserted row from the representation.
		out := rec
		return &out, nil
	}
	return rows[0].record(), nil
}

func (s *SupabasePriceStore) SelectExact(ctx context.Context, location, item string) (*domain.PriceRecord, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("location", "eq."+location)
	q.Set("item", "eq."+item)
	q.Set("limit", "2")

	req, err := s.newRequest(ctx, http.MethodGet, q, nil)
	if err != nil {
		return nil, err
	}

	var rows []row
	if err := s.do(req, &rows); err != nil {
		return nil, fmt.Errorf("failed to select price: %w", err)
	}

	switch len(rows) {
	case 0:
		return nil, domain.ErrNotFound
	case 1:
		return rows[0].record(), nil
	default:
		return nil, domain.ErrAmbiguous
	}
}

// SelectDistinctLike pages through matching rows in column order, skipping
// past each page's last value, until limit distinct values are collected or
// the rows run out.
func (s *SupabasePriceStore) SelectDistinctLike(ctx context.Context, field domain.Field, substring string, limit int) ([]string, error) {
	col, err := field.Column()
	if err != nil {
		return nil, err
	}

	filter := "ilike.*" + ilikeText(substring) + "*"
	pageSize := limit * rowFanout
	needle := strings.ToLower(substring)

	values := make([]string, 0, limit)
	seen := make(map[string]bool, limit)
	after := ""
	for page := 0; page < maxPages && len(values) < limit; page++ {
		q := url.Values{}
		q.Set("select", col)
		q.Add(col, filter)
		if page > 0 {
			q.Add(col, "gt."+after)
		}
		q.Set("order", col+".asc")
		q.Set("limit", strconv.Itoa(pageSize))

		req, err := s.newRequest(ctx, http.MethodGet, q, nil)
		if err != nil {
			return nil, err
		}

		var rows []map[string]string
		if err := s.do(req, &rows); err != nil {
			return nil, fmt.Errorf("failed to search %s: %w", col, err)
		}

		for _, r := range rows {
			v := r[col]
			after = v
			// '*' had to be sent as a single-character wildcard.
			if seen[v] || !strings.Contains(strings.ToLower(v), needle) {
				continue
			}
			seen[v] = true
			values = append(values, v)
			if len(values) == limit {
				break
			}
		}
		if len(rows) < pageSize {
			break
		}
	}
	return values, nil
}

// ilikeText escapes substring for a PostgREST ilike filter. PostgREST turns
// every '*' into '%' and has no escape for it, so a literal '*' is sent as
// '_' and matches are re-checked client-side.
func ilikeText(substring string) string {
	return strings.ReplaceAll(store.EscapeLike(substring), "*", "_")
}

func (s *SupabasePriceStore) newRequest(ctx context.Context, method string, q url.Values, body io.Reader) (*http.Request, error) {
	target := s.baseURL
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends req and decodes a JSON response into out. Non-2xx responses are
// turned into errors carrying the backend's message.
func (s *SupabasePriceStore) do(req *http.Request, out any) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call supabase: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("supabase returned status %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("supabase returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
