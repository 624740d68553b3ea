package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/threew1h/converter/svc/auth"
	"github.com/threew1h/converter/svc/subscription"
)

type userHandler struct {
	subs *subscription.Service
	log  *slog.Logger
}

type userExport struct {
	ExportID     string                     `json:"exportId"`
	Profile      auth.User                  `json:"profile"`
	Subscription *subscription.Subscription `json:"subscription"`
	GeneratedAt  time.Time                  `json:"generatedAt"`
}

// exportData returns the caller's profile and subscription record as a JSON
// download.
func (h *userHandler) exportData(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r.Context())

	sub, err := h.subs.Status(r.Context(), user.ID)
	if err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "user-data-"+user.ID+".json"))
	writeJSON(w, http.StatusOK, userExport{
		ExportID:     uuid.NewString(),
		Profile:      *user,
		Subscription: sub,
		GeneratedAt:  time.Now().UTC(),
	})
}
