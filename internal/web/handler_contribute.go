package web

import (
	"net/http"

	"github.com/vbonduro/pricecheck/internal/service"
)

const maxFormBytes = 16 * 1024

type contributeView struct {
	State      service.ContributeState
	Currencies []string
	Canonical  string
	Severity   string
	ActiveNav  string
}

var contributePageFiles = []string{
	"base.html", "pages/contribute.html", "partials/contribute_form.html",
}

func (s *Server) handleContributePage(w http.ResponseWriter, r *http.Request) {
	view := contributeView{
		State:      service.ContributeState{Currency: s.service.CanonicalCurrency()},
		Currencies: s.service.Currencies(),
		Canonical:  s.service.CanonicalCurrency(),
		ActiveNav:  "contribute",
	}
	if err := s.renderPage(w, http.StatusOK, view, contributePageFiles...); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	st := s.service.Contribute(r.Context(), service.ContributeState{
		Location: r.PostFormValue("location"),
		Item:     r.PostFormValue("item"),
		Price:    r.PostFormValue("price"),
		Currency: r.PostFormValue("currency"),
	})

	view := contributeView{
		State:      st,
		Currencies: s.service.Currencies(),
		Canonical:  s.service.CanonicalCurrency(),
		Severity:   severity(st.Phase),
		ActiveNav:  "contribute",
	}

	if isHTMX(r) {
		if err := s.renderPartial(w, "partials/contribute_form.html", view); err != nil {
			s.logger.Error("render partial failed", "error", err)
		}
		return
	}

	if err := s.renderPage(w, statusFor(st.Phase, st.Err), view, contributePageFiles...); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}
