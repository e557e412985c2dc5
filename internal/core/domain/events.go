package domain

// EventType identifies a real-time event delivered to dashboard clients.
// The taxonomy is fixed: producers never forward unrecognized external
// events verbatim.
type EventType string

const (
	EventQueueUpdated  EventType = "queue.updated"
	EventCallIncoming  EventType = "call.incoming"
	EventCallAssigned  EventType = "call.assigned"
	EventTicketUpdated EventType = "ticket.updated"
	EventClaimUpdated  EventType = "claim.updated"
	EventPolicyUpdated EventType = "policy.updated"
	EventAgentsUpdated EventType = "agents.updated"
	EventCSATReceived  EventType = "csat.received"
)

// Envelope is the wire shape sent over WebSocket. DeliveredAt is stamped
// by the broadcast router at dispatch time (epoch milliseconds); it is the
// delivery timestamp, not the producer's origin timestamp, which may still
// appear inside Data.
type Envelope struct {
	Event       EventType `json:"event"`
	Data        any       `json:"data"`
	DeliveredAt int64     `json:"_ts"`
}

// --- Broadcast payloads ---

// IncomingCallPayload announces a newly created ticket to agents.
type IncomingCallPayload struct {
	TicketID     int64  `json:"ticketId"`
	CustomerName string `json:"customerName"`
	Subject      string `json:"subject"`
	Priority     string `json:"priority"`
	Timestamp    string `json:"timestamp"`
}

// CallAssignedPayload announces a ticket assignment to agents.
type CallAssignedPayload struct {
	TicketID  int64  `json:"ticketId"`
	AgentID   int64  `json:"agentId"`
	Timestamp string `json:"timestamp"`
}

// TicketUpdatedPayload announces a ticket status change to managers.
type TicketUpdatedPayload struct {
	TicketID  int64  `json:"ticketId"`
	Status    string `json:"status"`
	AgentID   int64  `json:"agentId"`
	Timestamp string `json:"timestamp"`
}

// CSATPayload announces a new satisfaction rating to managers.
type CSATPayload struct {
	Score     string `json:"score"`
	TicketID  int64  `json:"ticketId"`
	AgentID   int64  `json:"agentId"`
	Timestamp string `json:"timestamp"`
}

// AgentsUpdatedPayload carries the full agent-activity snapshot.
type AgentsUpdatedPayload struct {
	Agents []AgentActivity `json:"agents"`
}

// ClaimUpdatedPayload announces a claim change to managers.
type ClaimUpdatedPayload struct {
	ClaimID     string `json:"claimId"`
	ClaimNumber string `json:"claimNumber"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
}

// CustomerClaimPayload is the reduced shape sent to the affected
// customer's identity room.
type CustomerClaimPayload struct {
	ClaimNumber string `json:"claimNumber"`
	Status      string `json:"status"`
}

// PolicyUpdatedPayload announces a policy change to agents. Changes holds
// the full raw changed-record snapshot from the CRM.
type PolicyUpdatedPayload struct {
	PolicyID     string         `json:"policyId"`
	PolicyNumber string         `json:"policyNumber"`
	Changes      map[string]any `json:"changes"`
	Timestamp    string         `json:"timestamp"`
}
