package telegram

import (
	"context"
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/OgnevOA/spendy-pants/internal/log"
)

// EventHandler processes one normalized inbound event.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev Event) error
}

// WebhookHandler decodes Telegram update payloads and feeds them to h. It
// always answers 200: Telegram redelivers on any other status, and a payload
// we cannot parse today will not parse on redelivery either.
func WebhookHandler(h EventHandler) http.Handler {
	logger := log.New(log.ComponentWebhook)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			logger.WarnContext(r.Context(), "undecodable update payload",
				log.FieldError, err.Error())
			w.WriteHeader(http.StatusOK)
			return
		}

		ev, ok := NormalizeUpdate(update)
		if !ok {
			w.WriteHeader(http.StatusOK)
			return
		}

		if err := h.HandleEvent(r.Context(), ev); err != nil {
			logger.ErrorContext(r.Context(), "event handling failed",
				log.FieldUserID, ev.UserID, log.FieldError, err.Error())
		}
		w.WriteHeader(http.StatusOK)
	})
}
