package salesforce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/insuredesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/insuredesk-backend/internal/core/errors"
)

// newStreamingServer fakes the OAuth endpoint plus a minimal CometD
// endpoint. Each long-poll connect returns the next batch from events;
// once exhausted, connects return empty batches after a short hold.
func newStreamingServer(t *testing.T, events [][]bayeuxMessage) *httptest.Server {
	t.Helper()

	var connects atomic.Int64
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/services/oauth2/token" {
			_ = json.NewEncoder(w).Encode(map[string]string{
				"access_token": "session-token",
				"instance_url": server.URL,
			})
			return
		}

		require.Equal(t, "/cometd/59.0", r.URL.Path)
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))

		var batch []bayeuxMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&batch))
		require.NotEmpty(t, batch)

		ok := true
		switch batch[0].Channel {
		case "/meta/handshake":
			_ = json.NewEncoder(w).Encode([]bayeuxMessage{{
				Channel:    "/meta/handshake",
				ClientID:   "cometd-client-1",
				Successful: &ok,
			}})

		case "/meta/subscribe":
			assert.Equal(t, "cometd-client-1", batch[0].ClientID)
			_ = json.NewEncoder(w).Encode([]bayeuxMessage{{
				Channel:      "/meta/subscribe",
				Subscription: batch[0].Subscription,
				Successful:   &ok,
			}})

		case "/meta/connect":
			n := int(connects.Add(1)) - 1
			response := []bayeuxMessage{{Channel: "/meta/connect", Successful: &ok}}
			if n < len(events) {
				response = append(response, events[n]...)
			} else {
				time.Sleep(20 * time.Millisecond)
			}
			_ = json.NewEncoder(w).Encode(response)

		default:
			t.Errorf("unexpected bayeux channel: %s", batch[0].Channel)
		}
	}))
	return server
}

func TestStreamer_RequiresSession(t *testing.T) {
	client := NewClient(testConfig("http://localhost:1"), testLogger())
	streamer := NewStreamer(client, testLogger())

	err := streamer.Start(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrCRMNotConnected)
}

func TestStreamer_DeliversClaimAndPolicyChanges(t *testing.T) {
	claimEvent := bayeuxMessage{
		Channel: topicClaimUpdates,
		Data: json.RawMessage(`{
			"event": {"type": "updated"},
			"sobject": {
				"Id": "500xx0000001",
				"CaseNumber": "CLM-2024-0042",
				"Status": "Approved",
				"ContactId": "003xx0000017"
			}
		}`),
	}
	policyEvent := bayeuxMessage{
		Channel: topicPolicyUpdates,
		Data: json.RawMessage(`{
			"event": {"type": "updated"},
			"sobject": {
				"Id": "a01xx000003",
				"Name": "HO-558212",
				"Status__c": "Lapsed"
			}
		}`),
	}

	server := newStreamingServer(t, [][]bayeuxMessage{{claimEvent, policyEvent}})
	defer server.Close()

	client := NewClient(testConfig(server.URL), testLogger())
	require.NoError(t, client.Login(context.Background()))

	claims := make(chan domain.ClaimChange, 1)
	policies := make(chan domain.PolicyChange, 1)

	streamer := NewStreamer(client, testLogger())
	streamer.SubscribeClaimUpdates(func(c domain.ClaimChange) { claims <- c })
	streamer.SubscribePolicyUpdates(func(p domain.PolicyChange) { policies <- p })

	require.NoError(t, streamer.Start(context.Background()))
	defer streamer.Stop()

	select {
	case change := <-claims:
		assert.Equal(t, "CLM-2024-0042", change.CaseNumber)
		assert.Equal(t, "Approved", change.Status)
		assert.Equal(t, "003xx0000017", change.ContactID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for claim change")
	}

	select {
	case change := <-policies:
		assert.Equal(t, "a01xx000003", change.ID)
		assert.Equal(t, "HO-558212", change.Name)
		assert.Equal(t, "Lapsed", change.Raw["Status__c"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for policy change")
	}
}

func TestStreamer_MalformedMessageIsDropped(t *testing.T) {
	garbage := bayeuxMessage{
		Channel: topicClaimUpdates,
		Data:    json.RawMessage(`"not an object"`),
	}
	good := bayeuxMessage{
		Channel: topicClaimUpdates,
		Data: json.RawMessage(`{
			"sobject": {"Id": "1", "CaseNumber": "CLM-1", "Status": "New"}
		}`),
	}

	server := newStreamingServer(t, [][]bayeuxMessage{{garbage}, {good}})
	defer server.Close()

	client := NewClient(testConfig(server.URL), testLogger())
	require.NoError(t, client.Login(context.Background()))

	claims := make(chan domain.ClaimChange, 2)
	streamer := NewStreamer(client, testLogger())
	streamer.SubscribeClaimUpdates(func(c domain.ClaimChange) { claims <- c })

	require.NoError(t, streamer.Start(context.Background()))
	defer streamer.Stop()

	// The bad message is skipped; the next one still arrives.
	select {
	case change := <-claims:
		assert.Equal(t, "CLM-1", change.CaseNumber)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for claim change")
	}
}

func TestStreamer_StopHaltsTheLoop(t *testing.T) {
	server := newStreamingServer(t, nil)
	defer server.Close()

	client := NewClient(testConfig(server.URL), testLogger())
	require.NoError(t, client.Login(context.Background()))

	streamer := NewStreamer(client, testLogger())
	streamer.SubscribeClaimUpdates(func(domain.ClaimChange) {})

	require.NoError(t, streamer.Start(context.Background()))

	done := make(chan struct{})
	go func() {
		streamer.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	// Idempotent.
	assert.NotPanics(t, func() { streamer.Stop() })
}
