package http

import (
	"net/http"
	"time"

	"hearth/internal/access"
	"hearth/internal/analytics"
	applog "hearth/internal/log"
)

// handleAnalyticsSummary serves the monthly aggregate. An omitted or empty
// month query parameter defaults to the current calendar month.
func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if d := access.Authorize(actor, access.ActionViewAnalytics, ""); !d.Allowed() {
		writeDenied(w, d)
		return
	}

	var month analytics.Month
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := analytics.ParseMonth(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
			return
		}
		month = parsed
	}

	summary, err := s.engine.Summarize(r.Context(), actor.FamilyID, month, time.Now())
	if err != nil {
		s.log.ErrorContext(r.Context(), "summarize failed", applog.FieldError, err, applog.FieldFamilyID, actor.FamilyID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
