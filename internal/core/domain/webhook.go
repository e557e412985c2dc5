package domain

// Webhook event names sent by the ticketing platform. Anything outside
// this set is dropped with a warning.
const (
	WebhookTicketCreated  = "ticket.created"
	WebhookTicketAssigned = "ticket.assigned"
	WebhookTicketUpdated  = "ticket.updated"
	WebhookRatingCreated  = "satisfaction_rating.created"
)

// WebhookRequester is the optional requester block inside a webhook
// payload. Absent fields pass through as zero values.
type WebhookRequester struct {
	Name string `json:"name"`
}

// WebhookPayload is the union of fields the ticketing platform sends
// across all webhook event types. Every field is optional on the wire;
// the normalizer picks the ones relevant to each event.
type WebhookPayload struct {
	ID         int64             `json:"id"`
	Requester  *WebhookRequester `json:"requester"`
	Subject    string            `json:"subject"`
	Priority   string            `json:"priority"`
	Status     string            `json:"status"`
	AssigneeID int64             `json:"assignee_id"`
	Score      string            `json:"score"`
	TicketID   int64             `json:"ticket_id"`
}

// RequesterName returns the requester's name, tolerating an absent block.
func (p WebhookPayload) RequesterName() string {
	if p.Requester == nil {
		return ""
	}
	return p.Requester.Name
}

// WebhookDelivery is one inbound webhook POST body:
// {"event": "...", "payload": {...}}. Deliveries are at-least-once;
// duplicates are tolerated because consumers treat each event as an
// idempotent snapshot refresh.
type WebhookDelivery struct {
	Event   string         `json:"event"`
	Payload WebhookPayload `json:"payload"`
}
