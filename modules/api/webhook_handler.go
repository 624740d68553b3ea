package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/threew1h/converter/pkg/logger"
	"github.com/threew1h/converter/svc/subscription"
)

// signatureHeader carries the hex HMAC of the raw request body.
const signatureHeader = "X-Razorpay-Signature"

// maxWebhookBody bounds webhook payload reads.
const maxWebhookBody = 1 << 20

type webhookHandler struct {
	svc *subscription.Service
	log *slog.Logger
}

// handle verifies and applies a billing event. The signature covers the raw
// body bytes, so the body is read before any JSON parsing. Processing
// failures after authentication are acknowledged with a 200 to keep the
// provider from redelivering events that will never succeed.
func (h *webhookHandler) handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to read webhook body", logger.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unreadable payload"})
		return
	}

	signature := r.Header.Get(signatureHeader)
	if signature == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing signature"})
		return
	}

	if err := h.svc.HandleWebhook(r.Context(), payload, signature); err != nil {
		switch {
		case errors.Is(err, subscription.ErrMissingWebhookSecret):
			h.log.ErrorContext(r.Context(), "webhook secret is not configured")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "webhook not configured"})
		case errors.Is(err, subscription.ErrWebhookVerificationFailed):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid signature"})
		default:
			h.log.ErrorContext(r.Context(), "webhook processing failed", logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
