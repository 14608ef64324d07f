package httptransport

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aircrew/internal/intake"
	"aircrew/internal/telegram"
	"aircrew/pkg/requestcontext"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookHandler receives Bot API updates and feeds them to intake.
type WebhookHandler struct {
	intake *intake.Handler
	secret string
	logger *slog.Logger
}

// NewWebhook constructs the webhook handler. secret must match the token
// registered with setWebhook; an empty secret disables the check.
func NewWebhook(intakeHandler *intake.Handler, secret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		intake: intakeHandler,
		secret: secret,
		logger: logger,
	}
}

// Register mounts the webhook endpoint on the router.
func (h *WebhookHandler) Register(r chi.Router) {
	r.Post("/telegram/webhook", h.HandleUpdate)
}

// HandleUpdate handles POST /telegram/webhook. Once the secret checks out
// the response is always 200: a non-2xx reply makes the Bot API redeliver
// the same update, and a broken update stays broken.
func (h *WebhookHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.secret != "" {
		got := r.Header.Get(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.logger.WarnContext(ctx, "webhook secret mismatch",
				"request_id", requestcontext.RequestID(ctx),
			)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	update, err := telegram.ParseUpdate(r.Body)
	if err != nil {
		h.logger.WarnContext(ctx, "malformed update",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.intake.HandleUpdate(ctx, update); err != nil {
		h.logger.ErrorContext(ctx, "update handling failed",
			"request_id", requestcontext.RequestID(ctx),
			"update_id", update.UpdateID,
			"error", err,
		)
	}
	w.WriteHeader(http.StatusOK)
}
