package web_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/vbonduro/pricecheck/internal/currency"
	"github.com/vbonduro/pricecheck/internal/db"
	"github.com/vbonduro/pricecheck/internal/domain"
	"github.com/vbonduro/pricecheck/internal/service"
	"github.com/vbonduro/pricecheck/internal/store"
	"github.com/vbonduro/pricecheck/internal/web"
	"github.com/vbonduro/pricecheck/internal/web/templates"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer sets up a real web.Server backed by in-memory SQLite.
func newTestServer(t *testing.T) (*httptest.Server, *store.PriceStore) {
	t.Helper()
	database, err := db.OpenForTesting()
	if err != nil {
		t.Fatalf("OpenForTesting: %v", err)
	}

	prices := store.NewPriceStore(database)
	svc := service.NewPriceService(prices, currency.Default(), quietLogger())
	srv := httptest.NewServer(web.NewServer(svc, templates.FS, quietLogger()))
	t.Cleanup(func() {
		srv.Close()
		_ = database.Close()
	})
	return srv, prices
}

// newStoreServer is newTestServer over an arbitrary PriceStore.
func newStoreServer(t *testing.T, st service.PriceStore) *httptest.Server {
	t.Helper()
	svc := service.NewPriceService(st, currency.Default(), quietLogger())
	srv := httptest.NewServer(web.NewServer(svc, templates.FS, quietLogger()))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, client *http.Client, target string, htmx bool) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return do(t, client, req)
}

func postForm(t *testing.T, client *http.Client, target string, form url.Values, htmx bool) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return do(t, client, req)
}

func do(t *testing.T, client *http.Client, req *http.Request) (int, string) {
	t.Helper()
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func seed(t *testing.T, prices *store.PriceStore, location, item string, price float64) {
	t.Helper()
	if _, err := prices.Insert(context.Background(), domain.PriceRecord{Location: location, Item: item, Price: price}); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func lookupURL(base, location, item, cur string) string {
	return base + "/prices?" + url.Values{"location": {location}, "item": {item}, "currency": {cur}}.Encode()
}

func TestIntegration_LookupPage(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := get(t, http.DefaultClient, srv.URL+"/", false)
	if status != http.StatusOK {
		t.Fatalf("GET / status %d", status)
	}
	for _, want := range []string{"Price Checker", `name="location"`, `name="item"`, `<option value="USD" selected>`, `<option value="JPY"`} {
		if !strings.Contains(body, want) {
			t.Errorf("GET / body missing %q", want)
		}
	}
}

func TestIntegration_LookupConvertsPrice(t *testing.T) {
	srv, prices := newTestServer(t)
	seed(t, prices, "Tokyo", "Ramen", 8.0)

	status, body := get(t, http.DefaultClient, lookupURL(srv.URL, "Tokyo", "Ramen", "JPY"), true)
	if status != http.StatusOK {
		t.Fatalf("status %d: %s", status, body)
	}
	if !strings.Contains(body, "Price in Tokyo: JPY 1212.96") {
		t.Errorf("unexpected fragment: %s", body)
	}
	if strings.Contains(body, "<html") {
		t.Error("HTMX request should receive a fragment, not a full page")
	}
}

func TestIntegration_LookupNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := get(t, http.DefaultClient, lookupURL(srv.URL, "Tokyo", "Ramen", "USD"), true)
	if status != http.StatusOK {
		t.Fatalf("HTMX status %d", status)
	}
	if !strings.Contains(body, "no price data found") || !strings.Contains(body, `class="alert info"`) {
		t.Errorf("expected informational not-found message, got: %s", body)
	}

	status, body = get(t, http.DefaultClient, lookupURL(srv.URL, "Tokyo", "Ramen", "USD"), false)
	if status != http.StatusNotFound {
		t.Errorf("full page status %d, want 404", status)
	}
	if !strings.Contains(body, "<html") {
		t.Error("non-HTMX request should receive a full page")
	}
}

func TestIntegration_LookupValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := get(t, http.DefaultClient, lookupURL(srv.URL, "", "Ramen", "USD"), false)
	if status != http.StatusBadRequest {
		t.Errorf("status %d, want 400", status)
	}
	if !strings.Contains(body, "please fill in all fields") {
		t.Errorf("missing validation message: %s", body)
	}

	status, _ = get(t, http.DefaultClient, lookupURL(srv.URL, "Tokyo", "Ramen", "BTC"), false)
	if status != http.StatusBadRequest {
		t.Errorf("unknown currency status %d, want 400", status)
	}
}

func TestIntegration_LookupAmbiguous(t *testing.T) {
	srv, prices := newTestServer(t)
	seed(t, prices, "Tokyo", "Ramen", 8.0)
	seed(t, prices, "Tokyo", "Ramen", 9.0)

	status, body := get(t, http.DefaultClient, lookupURL(srv.URL, "Tokyo", "Ramen", "USD"), false)
	if status != http.StatusBadGateway {
		t.Errorf("status %d, want 502", status)
	}
	if !strings.Contains(body, "lookup failed") {
		t.Errorf("missing failure message: %s", body)
	}
}

func TestIntegration_ContributeThenLookup(t *testing.T) {
	srv, _ := newTestServer(t)

	form := url.Values{"location": {" Paris "}, "item": {"Coffee"}, "price": {"4.5"}, "currency": {"EUR"}}
	status, body := postForm(t, http.DefaultClient, srv.URL+"/contribute", form, true)
	if status != http.StatusOK {
		t.Fatalf("POST /contribute status %d: %s", status, body)
	}
	if !strings.Contains(body, "Thank you for your contribution") {
		t.Errorf("missing success message: %s", body)
	}
	if !strings.Contains(body, "4.89 USD") {
		t.Errorf("expected canonical amount in success message: %s", body)
	}
	// Inputs are reset and the canonical currency is selected again.
	if !strings.Contains(body, `<option value="USD" selected>`) || strings.Contains(body, `value="Paris"`) {
		t.Errorf("form was not reset: %s", body)
	}

	status, body = get(t, http.DefaultClient, lookupURL(srv.URL, "Paris", "Coffee", "EUR"), true)
	if status != http.StatusOK || !strings.Contains(body, "Price in Paris: EUR 4.50") {
		t.Errorf("lookup after contribute: status %d body %s", status, body)
	}
}

func TestIntegration_ContributeValidation(t *testing.T) {
	srv, prices := newTestServer(t)

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"missing item", url.Values{"location": {"Paris"}, "price": {"4"}, "currency": {"USD"}}, "please fill in all fields"},
		{"negative price", url.Values{"location": {"Paris"}, "item": {"Coffee"}, "price": {"-5"}, "currency": {"USD"}}, "please enter a valid price"},
		{"text price", url.Values{"location": {"Paris"}, "item": {"Coffee"}, "price": {"abc"}, "currency": {"USD"}}, "please enter a valid price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := postForm(t, http.DefaultClient, srv.URL+"/contribute", tt.form, false)
			if status != http.StatusBadRequest {
				t.Errorf("status %d, want 400", status)
			}
			if !strings.Contains(body, tt.want) {
				t.Errorf("body missing %q", tt.want)
			}
			// Entered values are kept in the form.
			if loc := tt.form.Get("location"); loc != "" && !strings.Contains(body, `value="`+loc+`"`) {
				t.Errorf("form lost location value")
			}
		})
	}

	got, err := prices.SelectDistinctLike(context.Background(), domain.FieldLocation, "paris", 10)
	if err != nil {
		t.Fatalf("SelectDistinctLike: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("invalid contributions reached the store: %v", got)
	}
}

// failingStore fails every call.
type failingStore struct{}

func (failingStore) Insert(context.Context, domain.PriceRecord) (*domain.PriceRecord, error) {
	return nil, errors.New("backend unavailable")
}

func (failingStore) SelectExact(context.Context, string, string) (*domain.PriceRecord, error) {
	return nil, errors.New("backend unavailable")
}

func (failingStore) SelectDistinctLike(context.Context, domain.Field, string, int) ([]string, error) {
	return nil, errors.New("backend unavailable")
}

func TestIntegration_ContributeStoreFailure(t *testing.T) {
	srv := newStoreServer(t, failingStore{})

	form := url.Values{"location": {"Paris"}, "item": {"Coffee"}, "price": {"4.5"}, "currency": {"EUR"}}
	status, body := postForm(t, http.DefaultClient, srv.URL+"/contribute", form, true)
	if status != http.StatusOK {
		t.Fatalf("HTMX status %d", status)
	}
	if !strings.Contains(body, "submission failed: backend unavailable") {
		t.Errorf("missing store error: %s", body)
	}
	if !strings.Contains(body, `value="Paris"`) || !strings.Contains(body, `<option value="EUR" selected>`) {
		t.Errorf("inputs were reset after a failed submission: %s", body)
	}
}

func TestIntegration_Suggestions(t *testing.T) {
	srv, prices := newTestServer(t)
	seed(t, prices, "Paris", "Coffee", 4)
	seed(t, prices, "Paris", "Croissant", 2)
	seed(t, prices, "Parma", "Ham", 12)

	status, body := get(t, http.DefaultClient, srv.URL+"/suggestions/locations?location=par", true)
	if status != http.StatusOK {
		t.Fatalf("status %d", status)
	}
	if body != `<option value="Paris"></option><option value="Parma"></option>` {
		t.Errorf("unexpected suggestions: %q", body)
	}

	_, body = get(t, http.DefaultClient, srv.URL+"/suggestions/items?q=CRO", true)
	if body != `<option value="Croissant"></option>` {
		t.Errorf("unexpected item suggestions: %q", body)
	}

	_, body = get(t, http.DefaultClient, srv.URL+"/suggestions/items?q=c", true)
	if body != "" {
		t.Errorf("single character should yield no suggestions, got %q", body)
	}
}

func TestIntegration_SuggestionsUnknownField(t *testing.T) {
	srv, _ := newTestServer(t)

	status, _ := get(t, http.DefaultClient, srv.URL+"/suggestions/prices?q=12", true)
	if status != http.StatusNotFound {
		t.Errorf("status %d, want 404", status)
	}
}

func TestIntegration_SuggestionsStoreFailure(t *testing.T) {
	srv := newStoreServer(t, failingStore{})

	status, body := get(t, http.DefaultClient, srv.URL+"/suggestions/locations?q=paris", true)
	if status != http.StatusOK {
		t.Errorf("status %d, want 200", status)
	}
	if body != "" {
		t.Errorf("expected empty suggestion list, got %q", body)
	}
}

// blockingStore holds suggestion queries until released, so a test can
// overlap two requests from the same session.
type blockingStore struct {
	failingStore
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func (b *blockingStore) SelectDistinctLike(ctx context.Context, _ domain.Field, substring string, _ int) ([]string, error) {
	b.mu.Lock()
	b.calls++
	first := b.calls == 1
	b.mu.Unlock()

	if first {
		close(b.started)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-b.release:
		}
	}
	return []string{strings.ToUpper(substring)}, nil
}

func TestIntegration_SupersededSuggestionIsDropped(t *testing.T) {
	st := &blockingStore{started: make(chan struct{}), release: make(chan struct{})}
	srv := newStoreServer(t, st)
	defer close(st.release)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	client := &http.Client{Jar: jar}

	// Establish the session cookie.
	if status, _ := get(t, client, srv.URL+"/healthz", false); status != http.StatusOK {
		t.Fatalf("healthz status %d", status)
	}

	type result struct {
		status int
		body   string
	}
	firstDone := make(chan result, 1)
	go func() {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/suggestions/locations?q=pa", nil)
		req.Header.Set("HX-Request", "true")
		resp, err := client.Do(req)
		if err != nil {
			firstDone <- result{}
			return
		}
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(resp.Body)
		firstDone <- result{resp.StatusCode, string(body)}
	}()
	<-st.started

	status, body := get(t, client, srv.URL+"/suggestions/locations?q=par", true)
	if status != http.StatusOK || body != `<option value="PAR"></option>` {
		t.Errorf("newest request: status %d body %q", status, body)
	}

	first := <-firstDone
	if first.status != http.StatusNoContent {
		t.Errorf("superseded request status %d, want 204", first.status)
	}
}

func TestIntegration_Headers(t *testing.T) {
	srv, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if got := resp.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q", got)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "pricecheck_session" {
			session = c
		}
	}
	if session == nil || !session.HttpOnly {
		t.Error("missing session cookie")
	}
}

func TestIntegration_ContributePage(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := get(t, http.DefaultClient, srv.URL+"/contribute", false)
	if status != http.StatusOK {
		t.Fatalf("status %d", status)
	}
	if !strings.Contains(body, "Contribute Price Data") || !strings.Contains(body, `hx-post="/contribute"`) {
		t.Errorf("unexpected contribute page: %s", body)
	}
}

func TestIntegration_UnknownPath(t *testing.T) {
	srv, _ := newTestServer(t)

	status, _ := get(t, http.DefaultClient, srv.URL+"/about", false)
	if status != http.StatusNotFound {
		t.Errorf("status %d, want 404", status)
	}
}
