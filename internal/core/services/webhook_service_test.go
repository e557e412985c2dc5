package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lorrc/insuredesk-backend/internal/core/domain"
	"github.com/lorrc/insuredesk-backend/internal/core/mocks"
)

func fixedClock() func() time.Time {
	fixed := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return fixed }
}

func TestWebhookService_TicketCreatedGoesToAgents(t *testing.T) {
	bc := mocks.NewMockBroadcaster()
	svc := NewWebhookService(bc, testLogger())
	svc.now = fixedClock()

	bc.On("ToRole", domain.RoleAgent, domain.EventCallIncoming, domain.IncomingCallPayload{
		TicketID:     42,
		CustomerName: "Pat Jones",
		Subject:      "Water damage claim",
		Priority:     "high",
		Timestamp:    "2024-05-20T12:00:00Z",
	}).Once()

	svc.Process(context.Background(), domain.WebhookDelivery{
		Event: domain.WebhookTicketCreated,
		Payload: domain.WebhookPayload{
			ID:        42,
			Requester: &domain.WebhookRequester{Name: "Pat Jones"},
			Subject:   "Water damage claim",
			Priority:  "high",
		},
	})

	bc.AssertExpectations(t)
}

func TestWebhookService_TicketCreatedToleratesMissingRequester(t *testing.T) {
	bc := mocks.NewMockBroadcaster()
	svc := NewWebhookService(bc, testLogger())
	svc.now = fixedClock()

	bc.On("ToRole", domain.RoleAgent, domain.EventCallIncoming, domain.IncomingCallPayload{
		TicketID:  7,
		Timestamp: "2024-05-20T12:00:00Z",
	}).Once()

	svc.Process(context.Background(), domain.WebhookDelivery{
		Event:   domain.WebhookTicketCreated,
		Payload: domain.WebhookPayload{ID: 7},
	})

	bc.AssertExpectations(t)
}

func TestWebhookService_TicketAssignedGoesToAgents(t *testing.T) {
	bc := mocks.NewMockBroadcaster()
	svc := NewWebhookService(bc, testLogger())
	svc.now = fixedClock()

	bc.On("ToRole", domain.RoleAgent, domain.EventCallAssigned, domain.CallAssignedPayload{
		TicketID:  42,
		AgentID:   9,
		Timestamp: "2024-05-20T12:00:00Z",
	}).Once()

	svc.Process(context.Background(), domain.WebhookDelivery{
		Event:   domain.WebhookTicketAssigned,
		Payload: domain.WebhookPayload{ID: 42, AssigneeID: 9},
	})

	bc.AssertExpectations(t)
}

func TestWebhookService_TicketUpdatedGoesToManagers(t *testing.T) {
	bc := mocks.NewMockBroadcaster()
	svc := NewWebhookService(bc, testLogger())
	svc.now = fixedClock()

	bc.On("ToRole", domain.RoleManager, domain.EventTicketUpdated, domain.TicketUpdatedPayload{
		TicketID:  42,
		Status:    "solved",
		AgentID:   9,
		Timestamp: "2024-05-20T12:00:00Z",
	}).Once()

	svc.Process(context.Background(), domain.WebhookDelivery{
		Event:   domain.WebhookTicketUpdated,
		Payload: domain.WebhookPayload{ID: 42, Status: "solved", AssigneeID: 9},
	})

	bc.AssertExpectations(t)
}

func TestWebhookService_RatingCreatedGoesToManagers(t *testing.T) {
	bc := mocks.NewMockBroadcaster()
	svc := NewWebhookService(bc, testLogger())
	svc.now = fixedClock()

	bc.On("ToRole", domain.RoleManager, domain.EventCSATReceived, domain.CSATPayload{
		Score:     "good",
		TicketID:  42,
		AgentID:   9,
		Timestamp: "2024-05-20T12:00:00Z",
	}).Once()

	svc.Process(context.Background(), domain.WebhookDelivery{
		Event:   domain.WebhookRatingCreated,
		Payload: domain.WebhookPayload{Score: "good", TicketID: 42, AssigneeID: 9},
	})

	bc.AssertExpectations(t)
}

func TestWebhookService_UnknownEventIsDropped(t *testing.T) {
	bc := mocks.NewMockBroadcaster()
	svc := NewWebhookService(bc, testLogger())

	assert.NotPanics(t, func() {
		svc.Process(context.Background(), domain.WebhookDelivery{
			Event:   "organization.created",
			Payload: domain.WebhookPayload{ID: 1},
		})
	})

	// Nothing was broadcast.
	bc.AssertNotCalled(t, "ToRole")
	bc.AssertNotCalled(t, "ToAll")
	bc.AssertNotCalled(t, "ToUser")
}
