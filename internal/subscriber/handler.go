package subscriber

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Update mirrors the Telegram webhook payload, trimmed to what the
// lifecycle needs.
type Update struct {
	Message *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			Username  string `json:"username"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			IsBot     bool   `json:"is_bot"`
		} `json:"from"`
	} `json:"message"`
}

// Handler exposes the Telegram webhook endpoint.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates the webhook handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the webhook route on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/telegram/webhook", h.handleWebhook)
}

// handleWebhook processes one Telegram update. Telegram expects a fast
// 200 for anything it can retry; only an undecodable body earns a 400.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var update Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.logger.Warn("undecodable webhook body", "error", err)
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}

	if update.Message == nil {
		// Edited messages, callbacks and the like; nothing to do.
		w.WriteHeader(http.StatusOK)
		return
	}

	channelID := strconv.FormatInt(update.Message.Chat.ID, 10)
	profile := Profile{
		Username:  update.Message.From.Username,
		FirstName: update.Message.From.FirstName,
		LastName:  update.Message.From.LastName,
		IsBot:     update.Message.From.IsBot,
	}
	if err := h.service.HandleCommand(ctx, channelID, update.Message.Text, profile); err != nil {
		h.logger.Error("webhook command failed", "channel_id", channelID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
