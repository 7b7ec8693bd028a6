package web

import (
	"net/http"

	"github.com/vbonduro/pricecheck/internal/domain"
)

// suggestFields maps the {field} path segment to the record field it
// searches and the input name the front end sends the text under.
var suggestFields = map[string]struct {
	field domain.Field
	param string
}{
	"locations": {domain.FieldLocation, "location"},
	"items":     {domain.FieldItem, "item"},
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	target, ok := suggestFields[r.PathValue("field")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	text := q.Get("q")
	if text == "" {
		text = q.Get(target.param)
	}

	ctx, ticket := s.tracker.Begin(r.Context(), sessionFromContext(r.Context()), string(target.field))
	defer ticket.Done()

	values := s.service.Suggest(ctx, target.field, text)

	// A newer keystroke from the same session has taken over; leave its list in place.
	if !ticket.Latest() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := s.renderPartial(w, "partials/suggestions.html", values); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}
