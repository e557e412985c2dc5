package zendesk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/lorrc/insuredesk-backend/internal/config"
	"github.com/lorrc/insuredesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/insuredesk-backend/internal/core/errors"
	"github.com/lorrc/insuredesk-backend/internal/core/ports"
)

// Client talks to the Zendesk REST and Talk APIs. Authentication is HTTP
// basic with the "email/token" convention.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
	logger     *slog.Logger
}

var _ ports.TelephonyGateway = (*Client)(nil)

// NewClient creates a Zendesk API client from configuration.
func NewClient(cfg config.ZendeskConfig, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    cfg.APIBaseURL(),
		username:   cfg.Email + "/token",
		password:   cfg.APIToken,
		logger:     logger.With("component", "zendesk_client"),
	}
}

// get performs an authenticated GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("zendesk request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("zendesk api error", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("zendesk %s returned %d: %w", path, resp.StatusCode, apperrors.ErrUpstreamStatus)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("zendesk %s: %w: %v", path, apperrors.ErrMalformedUpstream, err)
	}
	return nil
}

// QueueStats fetches the current voice queue activity snapshot.
func (c *Client) QueueStats(ctx context.Context) (*domain.QueueStats, error) {
	var body struct {
		CurrentQueueActivity struct {
			WaitingInQueue  int `json:"waiting_in_queue"`
			AverageWaitTime int `json:"average_wait_time"`
			CallsActive     int `json:"calls_active"`
		} `json:"current_queue_activity"`
	}

	if err := c.get(ctx, "/channels/voice/stats/current_queue_activity", &body); err != nil {
		return nil, err
	}

	return &domain.QueueStats{
		Waiting:     body.CurrentQueueActivity.WaitingInQueue,
		AvgWait:     body.CurrentQueueActivity.AverageWaitTime,
		ActiveCalls: body.CurrentQueueActivity.CallsActive,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// AgentActivity fetches the live per-agent telephony status list.
func (c *Client) AgentActivity(ctx context.Context) ([]domain.AgentActivity, error) {
	var body struct {
		AgentsActivity []struct {
			AgentID             int64  `json:"agent_id"`
			AgentName           string `json:"agent_name"`
			Status              string `json:"status"`
			CallsCount          int    `json:"calls_count"`
			AverageHandleTime   int    `json:"average_handle_time"`
			CurrentCallDuration int    `json:"current_call_duration"`
		} `json:"agents_activity"`
	}

	if err := c.get(ctx, "/channels/voice/stats/agents_activity", &body); err != nil {
		return nil, err
	}

	agents := make([]domain.AgentActivity, 0, len(body.AgentsActivity))
	for _, a := range body.AgentsActivity {
		agents = append(agents, domain.AgentActivity{
			AgentID:             a.AgentID,
			Name:                a.AgentName,
			Status:              a.Status,
			CallsHandled:        a.CallsCount,
			AvgHandleTime:       a.AverageHandleTime,
			CurrentCallDuration: a.CurrentCallDuration,
		})
	}
	return agents, nil
}

// Ticket fetches a single ticket by ID.
func (c *Client) Ticket(ctx context.Context, ticketID int64) (*domain.TicketDetails, error) {
	var body struct {
		Ticket struct {
			ID          int64    `json:"id"`
			Subject     string   `json:"subject"`
			Status      string   `json:"status"`
			Priority    string   `json:"priority"`
			Type        string   `json:"type"`
			AssigneeID  int64    `json:"assignee_id"`
			RequesterID int64    `json:"requester_id"`
			CreatedAt   string   `json:"created_at"`
			UpdatedAt   string   `json:"updated_at"`
			Tags        []string `json:"tags"`
		} `json:"ticket"`
	}

	if err := c.get(ctx, fmt.Sprintf("/tickets/%d.json", ticketID), &body); err != nil {
		return nil, err
	}

	t := body.Ticket
	return &domain.TicketDetails{
		ID:          t.ID,
		Subject:     t.Subject,
		Status:      t.Status,
		Priority:    t.Priority,
		Type:        t.Type,
		AssigneeID:  t.AssigneeID,
		RequesterID: t.RequesterID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Tags:        t.Tags,
	}, nil
}

// CSATScores fetches an agent's recent satisfaction ratings and reduces
// them to an average. Good counts as 5, bad as 1, anything else as 3.
func (c *Client) CSATScores(ctx context.Context, agentID int64) (*domain.CSATSummary, error) {
	var body struct {
		SatisfactionRatings []struct {
			Score string `json:"score"`
		} `json:"satisfaction_ratings"`
	}

	path := fmt.Sprintf("/satisfaction_ratings.json?assignee_id=%d&sort_order=desc&per_page=50", agentID)
	if err := c.get(ctx, path, &body); err != nil {
		return nil, err
	}

	if len(body.SatisfactionRatings) == 0 {
		return &domain.CSATSummary{}, nil
	}

	total := 0
	for _, r := range body.SatisfactionRatings {
		switch r.Score {
		case "good":
			total += 5
		case "bad":
			total += 1
		default:
			total += 3
		}
	}

	count := len(body.SatisfactionRatings)
	avg := float64(total) / float64(count)
	return &domain.CSATSummary{
		Average: math.Round(avg*10) / 10,
		Count:   count,
	}, nil
}
