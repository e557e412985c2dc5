package domain

// QueueStats is the current call-queue snapshot pulled from the telephony
// platform.
type QueueStats struct {
	Waiting     int    `json:"waiting"`
	AvgWait     int    `json:"avgWait"`
	ActiveCalls int    `json:"activeCalls"`
	Timestamp   string `json:"timestamp"`
}

// AgentActivity is one agent's live telephony status. Status is one of
// online, offline, on_call, wrap_up as reported by the platform.
type AgentActivity struct {
	AgentID             int64  `json:"id"`
	Name                string `json:"name"`
	Status              string `json:"status"`
	CallsHandled        int    `json:"callsHandled"`
	AvgHandleTime       int    `json:"avgHandleTime"`
	CurrentCallDuration int    `json:"currentCallDuration"`
}

// TicketDetails is a single support ticket as the dashboard presents it.
type TicketDetails struct {
	ID          int64    `json:"id"`
	Subject     string   `json:"subject"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	Type        string   `json:"type"`
	AssigneeID  int64    `json:"assigneeId"`
	RequesterID int64    `json:"requesterId"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
	Tags        []string `json:"tags"`
}

// CSATSummary aggregates recent satisfaction ratings for one agent.
// Good ratings count as 5, bad as 1, anything else as 3.
type CSATSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
