package api

import (
	"log/slog"
	"net/http"

	"github.com/threew1h/converter/svc/auth"
	"github.com/threew1h/converter/svc/subscription"
)

type subscriptionHandler struct {
	svc *subscription.Service
	log *slog.Logger
}

type createSubscriptionRequest struct {
	PlanID string `json:"planId"`
}

type activateSubscriptionRequest struct {
	PlanID    string `json:"planId"`
	PaymentID string `json:"paymentId"`
}

type lifecycleRequest struct {
	SubscriptionID string `json:"subscriptionId"`
}

type deductCreditsRequest struct {
	Amount int64 `json:"amount"`
}

// create opens a billing subscription so the client can collect payment
// authorization. The ledger is untouched until activation.
func (h *subscriptionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}

	user := auth.GetUserFromContext(r.Context())
	billing, err := h.svc.CreateBillingSubscription(r.Context(), user.ID, user.Email, req.PlanID)
	if err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, billing)
}

func (h *subscriptionHandler) activate(w http.ResponseWriter, r *http.Request) {
	var req activateSubscriptionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}

	user := auth.GetUserFromContext(r.Context())
	sub, err := h.svc.Activate(r.Context(), user.ID, req.PlanID, req.PaymentID)
	if err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *subscriptionHandler) status(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r.Context())
	sub, err := h.svc.Status(r.Context(), user.ID)
	if err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *subscriptionHandler) pause(w http.ResponseWriter, r *http.Request) {
	var req lifecycleRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}

	user := auth.GetUserFromContext(r.Context())
	if err := h.svc.Pause(r.Context(), user.ID, req.SubscriptionID); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}

	sub, err := h.svc.Status(r.Context(), user.ID)
	if err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *subscriptionHandler) resume(w http.ResponseWriter, r *http.Request) {
	var req lifecycleRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}

	user := auth.GetUserFromContext(r.Context())
	if err := h.svc.Resume(r.Context(), user.ID, req.SubscriptionID); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}

	sub, err := h.svc.Status(r.Context(), user.ID)
	if err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// cancel reports the CANCELLED record from this call once; the stored record
// is already the fresh trial the next read returns.
func (h *subscriptionHandler) cancel(w http.ResponseWriter, r *http.Request) {
	var req lifecycleRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}

	user := auth.GetUserFromContext(r.Context())
	sub, err := h.svc.Cancel(r.Context(), user.ID, req.SubscriptionID)
	if err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *subscriptionHandler) deductCredits(w http.ResponseWriter, r *http.Request) {
	var req deductCreditsRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}

	user := auth.GetUserFromContext(r.Context())
	result, err := h.svc.DeductCredits(r.Context(), user.ID, subscription.Credits(req.Amount))
	if err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
