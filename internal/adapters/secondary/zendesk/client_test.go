package zendesk

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/insuredesk-backend/internal/config"
	apperrors "github.com/lorrc/insuredesk-backend/internal/core/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(serverURL string) *Client {
	return NewClient(config.ZendeskConfig{
		Email:          "ops@example.com",
		APIToken:       "secret-token",
		BaseURL:        serverURL,
		RequestTimeout: 5 * time.Second,
	}, testLogger())
}

func TestClient_QueueStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels/voice/stats/current_queue_activity", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "ops@example.com/token", user)
		assert.Equal(t, "secret-token", pass)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"current_queue_activity": {
				"waiting_in_queue": 4,
				"average_wait_time": 95,
				"calls_active": 7
			}
		}`))
	}))
	defer server.Close()

	stats, err := newTestClient(server.URL).QueueStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, stats.Waiting)
	assert.Equal(t, 95, stats.AvgWait)
	assert.Equal(t, 7, stats.ActiveCalls)
	assert.NotEmpty(t, stats.Timestamp)
}

func TestClient_QueueStats_EmptyBodyDefaultsToZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	stats, err := newTestClient(server.URL).QueueStats(context.Background())

	require.NoError(t, err)
	assert.Zero(t, stats.Waiting)
	assert.Zero(t, stats.ActiveCalls)
}

func TestClient_AgentActivity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels/voice/stats/agents_activity", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"agents_activity": [
				{
					"agent_id": 101,
					"agent_name": "Dana Reyes",
					"status": "on_call",
					"calls_count": 12,
					"average_handle_time": 240,
					"current_call_duration": 33
				},
				{
					"agent_id": 102,
					"agent_name": "Lee Park",
					"status": "online"
				}
			]
		}`))
	}))
	defer server.Close()

	agents, err := newTestClient(server.URL).AgentActivity(context.Background())

	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, int64(101), agents[0].AgentID)
	assert.Equal(t, "Dana Reyes", agents[0].Name)
	assert.Equal(t, "on_call", agents[0].Status)
	assert.Equal(t, 12, agents[0].CallsHandled)
	assert.Zero(t, agents[1].CallsHandled)
}

func TestClient_Ticket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tickets/42.json", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"ticket": {
				"id": 42,
				"subject": "Water damage claim",
				"status": "open",
				"priority": "high",
				"type": "incident",
				"assignee_id": 101,
				"requester_id": 555,
				"created_at": "2024-05-20T09:00:00Z",
				"updated_at": "2024-05-20T10:30:00Z",
				"tags": ["claims", "voice"]
			}
		}`))
	}))
	defer server.Close()

	ticket, err := newTestClient(server.URL).Ticket(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, int64(42), ticket.ID)
	assert.Equal(t, "Water damage claim", ticket.Subject)
	assert.Equal(t, int64(101), ticket.AssigneeID)
	assert.Equal(t, []string{"claims", "voice"}, ticket.Tags)
}

func TestClient_CSATScores(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/satisfaction_ratings.json", r.URL.Path)
		assert.Equal(t, "101", r.URL.Query().Get("assignee_id"))
		assert.Equal(t, "50", r.URL.Query().Get("per_page"))

		_, _ = w.Write([]byte(`{
			"satisfaction_ratings": [
				{"score": "good"},
				{"score": "good"},
				{"score": "bad"},
				{"score": "offered"}
			]
		}`))
	}))
	defer server.Close()

	summary, err := newTestClient(server.URL).CSATScores(context.Background(), 101)

	require.NoError(t, err)
	// (5 + 5 + 1 + 3) / 4 = 3.5
	assert.Equal(t, 3.5, summary.Average)
	assert.Equal(t, 4, summary.Count)
}

func TestClient_CSATScores_NoRatings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"satisfaction_ratings": []}`))
	}))
	defer server.Close()

	summary, err := newTestClient(server.URL).CSATScores(context.Background(), 101)

	require.NoError(t, err)
	assert.Zero(t, summary.Average)
	assert.Zero(t, summary.Count)
}

func TestClient_NonSuccessStatusIsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).QueueStats(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrUpstreamStatus)
}

func TestClient_MalformedBodyIsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"current_queue_activity":`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).QueueStats(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrMalformedUpstream)
}
