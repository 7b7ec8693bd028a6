package web

import (
	"errors"
	"net/http"

	"github.com/vbonduro/pricecheck/internal/service"
)

type lookupView struct {
	State      service.LookupState
	Currencies []string
	Severity   string
	ActiveNav  string
}

var lookupPageFiles = []string{
	"base.html", "pages/lookup.html", "partials/lookup_result.html",
}

func (s *Server) handleLookupPage(w http.ResponseWriter, r *http.Request) {
	view := lookupView{
		State:      service.LookupState{Currency: s.service.CanonicalCurrency()},
		Currencies: s.service.Currencies(),
		ActiveNav:  "lookup",
	}
	if err := s.renderPage(w, http.StatusOK, view, lookupPageFiles...); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	st := s.service.Lookup(r.Context(), service.LookupState{
		Location: q.Get("location"),
		Item:     q.Get("item"),
		Currency: q.Get("currency"),
	})

	view := lookupView{
		State:      st,
		Currencies: s.service.Currencies(),
		Severity:   severity(st.Phase),
		ActiveNav:  "lookup",
	}

	// HTMX only swaps 2xx responses, so outcomes are reported in the fragment.
	if isHTMX(r) {
		if err := s.renderPartial(w, "partials/lookup_result.html", view); err != nil {
			s.logger.Error("render partial failed", "error", err)
		}
		return
	}

	if err := s.renderPage(w, statusFor(st.Phase, st.Err), view, lookupPageFiles...); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// severity picks the alert style for a finished workflow. Unfinished
// workflows have none.
func severity(p service.Phase) string {
	if !p.Done() {
		return ""
	}
	switch p {
	case service.PhaseSuccess:
		return "success"
	case service.PhaseNotFound:
		return "info"
	default:
		return "error"
	}
}

// statusFor maps a workflow outcome onto an HTTP status for full-page responses.
func statusFor(p service.Phase, err error) int {
	if !p.Done() {
		return http.StatusInternalServerError
	}
	switch p {
	case service.PhaseSuccess:
		return http.StatusOK
	case service.PhaseNotFound:
		return http.StatusNotFound
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	var serr *service.StoreError
	if errors.As(err, &serr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
