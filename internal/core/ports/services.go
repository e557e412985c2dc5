package ports

import (
	"context"

	"github.com/lorrc/insuredesk-backend/internal/core/domain"
)

// Broadcaster is the fan-out port of the real-time layer. Every method is
// one-way and fire-and-forget: delivery to zero subscribers is a silent
// no-op, and no acknowledgment flows back to the producer. Implementations
// stamp the delivery timestamp at dispatch.
type Broadcaster interface {
	// ToAll delivers to every admitted connection.
	ToAll(event domain.EventType, data any)
	// ToRole delivers to every connection in the given role room.
	ToRole(role domain.Role, event domain.EventType, data any)
	// ToRoles delivers to the union of the given role rooms.
	ToRoles(roles []domain.Role, event domain.EventType, data any)
	// ToUser delivers to every connection in the identity room for key
	// (a user may have zero, one, or many live connections).
	ToUser(userKey string, event domain.EventType, data any)
}

// AuthService defines the port for authentication business logic.
type AuthService interface {
	Register(ctx context.Context, params domain.UserRegistrationParams) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
}

// WebhookService normalizes inbound ticketing-platform webhooks into
// broadcast events. Processing is fire-and-forget; unknown events are
// dropped with a warning.
type WebhookService interface {
	Process(ctx context.Context, delivery domain.WebhookDelivery)
}

// PushFeedService routes decoded CRM push messages to the right rooms.
type PushFeedService interface {
	HandleClaimChange(change domain.ClaimChange)
	HandlePolicyChange(change domain.PolicyChange)
}

// TelephonyGateway is the request/response surface of the ticketing and
// telephony platform consumed by the pollers and the calls API.
type TelephonyGateway interface {
	QueueStats(ctx context.Context) (*domain.QueueStats, error)
	AgentActivity(ctx context.Context) ([]domain.AgentActivity, error)
	Ticket(ctx context.Context, ticketID int64) (*domain.TicketDetails, error)
	CSATScores(ctx context.Context, agentID int64) (*domain.CSATSummary, error)
}

// CRMGateway is the synchronous query surface of the CRM. Login must
// succeed before any query or push subscription is attempted.
type CRMGateway interface {
	Login(ctx context.Context) error
	Connected() bool
	CustomerProfile(ctx context.Context, policyNumber string) (*domain.CustomerProfile, error)
	PolicyDetails(ctx context.Context, policyNumber string) (*domain.PolicyDetails, error)
	Claims(ctx context.Context, policyID string) ([]domain.Claim, error)
	BillingHistory(ctx context.Context, policyID string) ([]domain.Payment, error)
}
