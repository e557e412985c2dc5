package domain

// AuditEntry records a sensitive action for the audit trail. UserID is
// nil for unauthenticated actions (for example inbound webhooks).
type AuditEntry struct {
	UserID     *int64
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
	IPAddress  string
	UserAgent  string
}
