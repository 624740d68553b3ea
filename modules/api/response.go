package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/threew1h/converter/pkg/logger"
	"github.com/threew1h/converter/svc/analyzer"
	"github.com/threew1h/converter/svc/auth"
	"github.com/threew1h/converter/svc/subscription"
)

type errorResponse struct {
	Error            string                `json:"error"`
	RemainingCredits *subscription.Credits `json:"remainingCredits,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates domain errors into HTTP status codes. Unrecognized
// errors become a generic 500 so internals never leak to the client.
func writeError(ctx context.Context, w http.ResponseWriter, log *slog.Logger, err error) {
	var insufficient *subscription.InsufficientCreditsError
	if errors.As(err, &insufficient) {
		remaining := insufficient.Remaining
		writeJSON(w, http.StatusPaymentRequired, errorResponse{
			Error:            "insufficient credits",
			RemainingCredits: &remaining,
		})
		return
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrMissingSubject):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})

	case errors.Is(err, subscription.ErrInvalidAmount),
		errors.Is(err, subscription.ErrMissingPaymentID),
		errors.Is(err, subscription.ErrMissingBillingSubscriptionID),
		errors.Is(err, analyzer.ErrEmptyText),
		errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})

	case errors.Is(err, subscription.ErrPlanNotFound),
		errors.Is(err, subscription.ErrSubscriptionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})

	case errors.Is(err, subscription.ErrStateConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "subscription state does not allow this operation"})

	case errors.Is(err, subscription.ErrBillerRequestFailed):
		log.ErrorContext(ctx, "billing provider request failed", logger.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "billing provider unavailable"})

	case errors.Is(err, subscription.ErrStoreUnavailable):
		log.ErrorContext(ctx, "subscription store unavailable", logger.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "storage unavailable"})

	default:
		log.ErrorContext(ctx, "unhandled request error", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// errBadRequest marks request decoding and validation failures.
var errBadRequest = errors.New("bad request")

// decodeJSON decodes the request body into v. An empty body is allowed when
// allowEmpty is set, for endpoints whose parameters are all optional.
func decodeJSON(r *http.Request, v any, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}
	if allowEmpty && errors.Is(err, io.EOF) {
		return nil
	}
	return errors.Join(errBadRequest, err)
}
