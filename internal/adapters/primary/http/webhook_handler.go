package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lorrc/insuredesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/insuredesk-backend/internal/core/errors"
	"github.com/lorrc/insuredesk-backend/internal/core/ports"
)

// WebhookHandler receives ticketing-platform webhook deliveries.
type WebhookHandler struct {
	webhookService ports.WebhookService
	auditLog       ports.AuditLogRepository
	errorHandler   *ErrorHandler
	logger         *slog.Logger
}

// NewWebhookHandler creates a new webhook receiver
func NewWebhookHandler(
	webhookService ports.WebhookService,
	auditLog ports.AuditLogRepository,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		auditLog:       auditLog,
		errorHandler:   errorHandler,
		logger:         logger.With("component", "webhook_handler"),
	}
}

// HandleZendeskWebhook accepts one delivery and acknowledges immediately.
// Deliveries are at-least-once; duplicates are processed like any other
// delivery since every mapped event is a snapshot refresh for consumers.
func (h *WebhookHandler) HandleZendeskWebhook(w http.ResponseWriter, r *http.Request) {
	var delivery domain.WebhookDelivery
	if err := json.NewDecoder(r.Body).Decode(&delivery); err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Invalid webhook body"))
		return
	}

	if delivery.Event == "" {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(apperrors.ErrBadRequest, "Missing event name"))
		return
	}

	h.webhookService.Process(r.Context(), delivery)

	if h.auditLog != nil {
		entry := domain.AuditEntry{
			Action:     "webhook.received",
			EntityType: "ticket",
			EntityID:   fmt.Sprint(delivery.Payload.ID),
			Details:    map[string]any{"event": delivery.Event},
			IPAddress:  r.RemoteAddr,
			UserAgent:  r.UserAgent(),
		}
		if err := h.auditLog.Record(r.Context(), entry); err != nil {
			h.logger.Warn("failed to record webhook audit entry", "error", err)
		}
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
