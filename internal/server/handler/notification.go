package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/MooMaker/moo-solver/internal/domain"
	"github.com/MooMaker/moo-solver/internal/notify"
)

// NotificationHandler receives auction-result notifications. The result is
// purely observational: it is logged and forwarded to the notifier, never fed
// back into the solving pipeline.
type NotificationHandler struct {
	notifier *notify.Notifier // may be nil
	logger   *slog.Logger
}

// NewNotificationHandler creates a NotificationHandler. notifier is optional.
func NewNotificationHandler(notifier *notify.Notifier, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifier: notifier,
		logger:   logger.With(slog.String("handler", "notification")),
	}
}

// Notify handles POST /notify.
func (h *NotificationHandler) Notify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var result domain.AuctionResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrKindMalformedInput, err.Error())
		return
	}

	h.logger.InfoContext(ctx, "auction result notification",
		slog.String("result", result.String()),
	)

	if h.notifier != nil {
		event, title := "result", "Auction result"
		if result.Won() {
			event, title = "won", "Auction won"
		} else if result.Rejected != nil {
			event, title = "rejected", "Settlement rejected"
		}
		if err := h.notifier.Notify(ctx, event, title, result.String()); err != nil {
			h.logger.WarnContext(ctx, "failed to dispatch notification",
				slog.String("error", err.Error()),
			)
		}
	}

	writeJSON(w, http.StatusOK, struct{}{})
}
