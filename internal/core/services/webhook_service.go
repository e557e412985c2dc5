package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/lorrc/insuredesk-backend/internal/core/domain"
	"github.com/lorrc/insuredesk-backend/internal/core/ports"
)

// WebhookService normalizes ticketing-platform webhooks into broadcast
// events. Each external event maps to exactly one internal event with a
// fixed target audience; unknown events are dropped with a warning.
type WebhookService struct {
	broadcaster ports.Broadcaster
	logger      *slog.Logger
	now         func() time.Time
}

var _ ports.WebhookService = (*WebhookService)(nil)

// NewWebhookService creates a new webhook normalizer.
func NewWebhookService(broadcaster ports.Broadcaster, logger *slog.Logger) *WebhookService {
	return &WebhookService{
		broadcaster: broadcaster,
		logger:      logger.With("component", "webhook_service"),
		now:         time.Now,
	}
}

// Process maps one inbound delivery to its broadcast. Processing is
// fire-and-forget: it never returns an error to the sender, and absent
// payload fields pass through as zero values.
func (s *WebhookService) Process(ctx context.Context, delivery domain.WebhookDelivery) {
	timestamp := s.now().UTC().Format(time.RFC3339)
	payload := delivery.Payload

	switch delivery.Event {
	case domain.WebhookTicketCreated:
		s.broadcaster.ToRole(domain.RoleAgent, domain.EventCallIncoming, domain.IncomingCallPayload{
			TicketID:     payload.ID,
			CustomerName: payload.RequesterName(),
			Subject:      payload.Subject,
			Priority:     payload.Priority,
			Timestamp:    timestamp,
		})

	case domain.WebhookTicketAssigned:
		s.broadcaster.ToRole(domain.RoleAgent, domain.EventCallAssigned, domain.CallAssignedPayload{
			TicketID:  payload.ID,
			AgentID:   payload.AssigneeID,
			Timestamp: timestamp,
		})

	case domain.WebhookTicketUpdated:
		s.broadcaster.ToRole(domain.RoleManager, domain.EventTicketUpdated, domain.TicketUpdatedPayload{
			TicketID:  payload.ID,
			Status:    payload.Status,
			AgentID:   payload.AssigneeID,
			Timestamp: timestamp,
		})

	case domain.WebhookRatingCreated:
		s.broadcaster.ToRole(domain.RoleManager, domain.EventCSATReceived, domain.CSATPayload{
			Score:     payload.Score,
			TicketID:  payload.TicketID,
			AgentID:   payload.AssigneeID,
			Timestamp: timestamp,
		})

	default:
		s.logger.Warn("unhandled webhook event, dropping", "event", delivery.Event)
	}
}
