package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/threew1h/converter/pkg/logger"
	"github.com/threew1h/converter/svc/analyzer"
)

type analyzeHandler struct {
	svc analyzer.Analyzer
	log *slog.Logger
}

type analyzeTextRequest struct {
	Text      string `json:"text"`
	Framework string `json:"framework"`
}

// analyzeTextResponse is the Result plus an optional message set when the
// pipeline failed and an empty fallback was returned instead.
type analyzeTextResponse struct {
	analyzer.Result
	Message string `json:"message,omitempty"`
}

// analyzeText structures free-form text. Pipeline failures degrade to a 200
// with empty rows and a low confidence score rather than an error status:
// the client renders whatever rows it gets, and metering happens through the
// explicit credit deduction call, not here.
func (h *analyzeHandler) analyzeText(w http.ResponseWriter, r *http.Request) {
	var req analyzeTextRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	if req.Framework == "" {
		req.Framework = analyzer.DefaultFramework
	}

	result, err := h.svc.AnalyzeText(r.Context(), req.Text, req.Framework)
	if err != nil {
		if errors.Is(err, analyzer.ErrEmptyText) {
			writeError(r.Context(), w, h.log, err)
			return
		}
		h.log.ErrorContext(r.Context(), "text analysis failed", logger.Error(err))
		writeJSON(w, http.StatusOK, analyzeTextResponse{
			Result: analyzer.Result{
				Framework:        req.Framework,
				ConfidenceScore:  20,
				Rows:             []analyzer.Row{},
				DetectedLanguage: "en",
			},
			Message: "failed to structure text",
		})
		return
	}

	writeJSON(w, http.StatusOK, analyzeTextResponse{Result: *result})
}
