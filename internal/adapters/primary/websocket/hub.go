package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/lorrc/insuredesk-backend/internal/core/domain"
	"github.com/lorrc/insuredesk-backend/internal/core/ports"
	"github.com/lorrc/insuredesk-backend/internal/infrastructure/metrics"
)

// Hub is both the connection registry and the broadcast router. It tracks
// every admitted client and its room memberships (one role room, one
// identity room per connection) and fans events out to them.
//
// Rooms have no independent existence: they are derived entirely from the
// current membership maps and vanish when their last client leaves.
// Events are delivered to whoever is admitted at dispatch time and then
// discarded; there is no queueing, no retry and no retroactive delivery.
type Hub struct {
	// users maps identity-room keys to the user's active connections.
	// A single user can have multiple connections (multiple tabs/devices).
	users map[string]map[*Client]bool

	// roles maps each role to its member connections.
	roles map[domain.Role]map[*Client]bool

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// mu protects the users and roles maps
	mu sync.RWMutex

	logger  *slog.Logger
	metrics *metrics.HubMetrics
}

// Ensure Hub implements the Broadcaster interface.
var _ ports.Broadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub. metrics may be nil (tests).
func NewHub(logger *slog.Logger, m *metrics.HubMetrics) *Hub {
	return &Hub{
		users:      make(map[string]map[*Client]bool),
		roles:      make(map[domain.Role]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger.With("component", "websocket_hub"),
		metrics:    m,
	}
}

// Run starts the hub's registration loop. This MUST be run as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			if err := h.Admit(client); err != nil {
				h.logger.Warn("client admission rejected", "error", err)
				client.CloseSend()
			}

		case client := <-h.Unregister:
			h.Remove(client)
		}
	}
}

// Admit registers the connection and joins it to the role room and the
// identity room for its authenticated identity. A connection with a
// missing or malformed identity is never admitted: it joins no rooms and
// the hub retains no reference to it.
func (h *Hub) Admit(client *Client) error {
	if err := client.Identity.Validate(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	userKey := client.Identity.UserKey()
	if h.users[userKey] == nil {
		h.users[userKey] = make(map[*Client]bool)
	}
	h.users[userKey][client] = true

	role := client.Identity.Role
	if h.roles[role] == nil {
		h.roles[role] = make(map[*Client]bool)
	}
	h.roles[role][client] = true

	if h.metrics != nil {
		h.metrics.ActiveConnections.Inc()
	}

	h.logger.Info("client admitted",
		"user_id", client.Identity.UserID,
		"role", role,
		"connections", len(h.users[userKey]),
	)
	return nil
}

// Remove drops the connection from all rooms and closes its send channel.
// Removing an already-removed (or never-admitted) connection is a no-op.
func (h *Hub) Remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := false

	userKey := client.Identity.UserKey()
	if userClients, ok := h.users[userKey]; ok {
		if _, exists := userClients[client]; exists {
			delete(userClients, client)
			removed = true
			if len(userClients) == 0 {
				delete(h.users, userKey)
			}
		}
	}

	if roleClients, ok := h.roles[client.Identity.Role]; ok {
		delete(roleClients, client)
		if len(roleClients) == 0 {
			delete(h.roles, client.Identity.Role)
		}
	}

	// Safe to call repeatedly; the channel closes exactly once.
	client.CloseSend()

	if removed {
		if h.metrics != nil {
			h.metrics.ActiveConnections.Dec()
		}
		h.logger.Info("client removed",
			"user_id", client.Identity.UserID,
			"role", client.Identity.Role,
		)
	}
}

// ToAll delivers an event to every admitted connection.
func (h *Hub) ToAll(event domain.EventType, data any) {
	envelope := h.stamp(event, data)

	h.mu.RLock()
	var stalled []*Client
	count := 0
	for _, userClients := range h.users {
		for client := range userClients {
			count++
			if !trySend(client, envelope) {
				stalled = append(stalled, client)
			}
		}
	}
	h.mu.RUnlock()

	h.countBroadcast(event, count)
	h.dropStalled(stalled)
	h.logger.Debug("broadcast", "target", "all", "event", event, "clients", count)
}

// ToRole delivers an event to every connection in the given role room.
func (h *Hub) ToRole(role domain.Role, event domain.EventType, data any) {
	envelope := h.stamp(event, data)
	count, stalled := h.sendToRole(role, envelope)
	h.countBroadcast(event, count)
	h.dropStalled(stalled)
	h.logger.Debug("broadcast", "target", string(role), "event", event, "clients", count)
}

// ToRoles delivers an event to the union of the given role rooms.
// Each role holds disjoint connections, so no client is hit twice.
func (h *Hub) ToRoles(roles []domain.Role, event domain.EventType, data any) {
	envelope := h.stamp(event, data)
	for _, role := range roles {
		count, stalled := h.sendToRole(role, envelope)
		h.countBroadcast(event, count)
		h.dropStalled(stalled)
		h.logger.Debug("broadcast", "target", string(role), "event", event, "clients", count)
	}
}

// ToUser delivers an event to all of a user's live connections. Zero
// connections is a silent no-op: there is no offline durability guarantee.
func (h *Hub) ToUser(userKey string, event domain.EventType, data any) {
	envelope := h.stamp(event, data)

	h.mu.RLock()
	var stalled []*Client
	count := 0
	for client := range h.users[userKey] {
		count++
		if !trySend(client, envelope) {
			stalled = append(stalled, client)
		}
	}
	h.mu.RUnlock()

	h.countBroadcast(event, count)
	h.dropStalled(stalled)
	h.logger.Debug("broadcast", "target", "user:"+userKey, "event", event, "clients", count)
}

// stamp builds the wire envelope, assigning the delivery timestamp at the
// moment of dispatch. Producers may carry their own timestamps inside
// data; this one is always ours.
func (h *Hub) stamp(event domain.EventType, data any) domain.Envelope {
	return domain.Envelope{
		Event:       event,
		Data:        data,
		DeliveredAt: time.Now().UnixMilli(),
	}
}

// sendToRole queues the envelope on every member of one role room while
// holding the read lock, reporting the clients whose buffer was full.
func (h *Hub) sendToRole(role domain.Role, envelope domain.Envelope) (int, []*Client) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var stalled []*Client
	count := 0
	for client := range h.roles[role] {
		count++
		if !trySend(client, envelope) {
			stalled = append(stalled, client)
		}
	}
	return count, stalled
}

// trySend queues the envelope without blocking. Callers hold at least
// the read lock; Remove closes the channel only under the write lock,
// so a send can never race a close.
func trySend(client *Client, envelope domain.Envelope) bool {
	select {
	case client.Send <- envelope:
		return true
	default:
		return false
	}
}

// dropStalled unregisters clients whose send buffer was full rather than
// letting them stall the producers. Runs after the read lock is released
// because Remove takes the write lock.
func (h *Hub) dropStalled(stalled []*Client) {
	for _, client := range stalled {
		h.logger.Warn("client send buffer full, removing",
			"user_id", client.Identity.UserID,
		)
		if h.metrics != nil {
			h.metrics.EventsDropped.Inc()
		}
		h.Remove(client)
	}
}

func (h *Hub) countBroadcast(event domain.EventType, clients int) {
	if h.metrics != nil && clients > 0 {
		h.metrics.EventsBroadcast.WithLabelValues(string(event)).Inc()
	}
}

// ClientCount returns the total number of admitted connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, userClients := range h.users {
		count += len(userClients)
	}
	return count
}

// RoleCount returns the number of connections in a role room.
func (h *Hub) RoleCount(role domain.Role) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.roles[role])
}

// IsUserConnected checks if a user has any active connections.
func (h *Hub) IsUserConnected(userKey string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.users[userKey]
	return ok && len(clients) > 0
}
