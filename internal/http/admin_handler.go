package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nashcompany/storefront/internal/domain"
	"github.com/nashcompany/storefront/internal/notify"
)

// Resender re-sends a logged notification.
type Resender interface {
	Resend(ctx context.Context, id string) (notify.ResendResult, error)
}

// AdminHandler serves the notification log endpoints.
type AdminHandler struct {
	sender  Resender
	log     notify.MessageLog
	timeout time.Duration
	logger  *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(sender Resender, messageLog notify.MessageLog, timeout time.Duration, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{sender: sender, log: messageLog, timeout: timeout, logger: logger}
}

type MessagesResponseDTO struct {
	Messages   []domain.NotificationLogEntry `json:"messages"`
	Stats      domain.MessageStats           `json:"stats"`
	LastUpdate time.Time                     `json:"lastUpdate"`
}

// GET /admin/messages
func (h *AdminHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	messages, err := h.log.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list messages failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", msgInternalError, nil)
		return
	}
	stats, err := h.log.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "message stats failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", msgInternalError, nil)
		return
	}
	if messages == nil {
		messages = []domain.NotificationLogEntry{}
	}

	respondJSON(w, http.StatusOK, MessagesResponseDTO{
		Messages:   messages,
		Stats:      stats,
		LastUpdate: time.Now(),
	})
}

// POST /admin/resend-message/{id}
func (h *AdminHandler) Resend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	res, err := h.sender.Resend(ctx, id)
	switch {
	case errors.Is(err, notify.ErrEntryNotFound):
		respondJSON(w, http.StatusNotFound, notify.ResendResult{Message: "Mensagem não encontrada"})
	case err != nil:
		h.logger.ErrorContext(ctx, "resend failed", "id", id, "error", err)
		respondJSON(w, http.StatusInternalServerError, notify.ResendResult{Message: "Erro ao reenviar mensagem"})
	default:
		respondJSON(w, http.StatusOK, res)
	}
}
