package salesforce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lorrc/insuredesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/insuredesk-backend/internal/core/errors"
)

// PushTopic channels published by the CRM.
const (
	topicClaimUpdates  = "/topic/ClaimUpdates"
	topicPolicyUpdates = "/topic/PolicyUpdates"
)

// longPollTimeout must exceed the server-side hold of roughly 110s.
const longPollTimeout = 2 * time.Minute

// bayeuxMessage is one frame of the CometD protocol, covering both
// handshake bookkeeping and delivered events.
type bayeuxMessage struct {
	Channel                  string          `json:"channel"`
	ClientID                 string          `json:"clientId,omitempty"`
	Version                  string          `json:"version,omitempty"`
	SupportedConnectionTypes []string        `json:"supportedConnectionTypes,omitempty"`
	ConnectionType           string          `json:"connectionType,omitempty"`
	Subscription             string          `json:"subscription,omitempty"`
	Successful               *bool           `json:"successful,omitempty"`
	Error                    string          `json:"error,omitempty"`
	Data                     json.RawMessage `json:"data,omitempty"`
}

func (m bayeuxMessage) failed() bool {
	return m.Successful != nil && !*m.Successful
}

// eventData is the payload of a delivered PushTopic event.
type eventData struct {
	SObject json.RawMessage `json:"sobject"`
}

// Streamer subscribes to the CRM push feed over CometD long-polling and
// routes decoded messages to registered handlers. The initial connection
// is fail-fast; once established, a broken stream reconnects with
// exponential backoff.
type Streamer struct {
	client     *Client
	httpClient *http.Client
	logger     *slog.Logger

	mu            sync.Mutex
	clientID      string
	claimHandler  func(domain.ClaimChange)
	policyHandler func(domain.PolicyChange)
	cancel        context.CancelFunc
	done          chan struct{}
}

// NewStreamer creates a push feed subscriber bound to an authenticated
// CRM client.
func NewStreamer(client *Client, logger *slog.Logger) *Streamer {
	return &Streamer{
		client:     client,
		httpClient: &http.Client{Timeout: longPollTimeout},
		logger:     logger.With("component", "salesforce_streamer"),
	}
}

// SubscribeClaimUpdates registers the handler for claim change messages.
// Must be called before Start.
func (s *Streamer) SubscribeClaimUpdates(handler func(domain.ClaimChange)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimHandler = handler
}

// SubscribePolicyUpdates registers the handler for policy change messages.
// Must be called before Start.
func (s *Streamer) SubscribePolicyUpdates(handler func(domain.PolicyChange)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policyHandler = handler
}

// Start performs the handshake, subscribes to the registered topics and
// launches the long-poll loop. It fails fast when the CRM session is
// missing or the initial establishment is rejected.
func (s *Streamer) Start(ctx context.Context) error {
	if !s.client.Connected() {
		return apperrors.ErrCRMNotConnected
	}

	if err := s.establish(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go s.run(runCtx, done)
	s.logger.Info("push feed subscription established")
	return nil
}

// Stop halts the long-poll loop and waits for it to drain.
func (s *Streamer) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("push feed subscription stopped")
}

// establish handshakes and subscribes to every topic with a registered
// handler.
func (s *Streamer) establish(ctx context.Context) error {
	if err := s.handshake(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	claim, policy := s.claimHandler, s.policyHandler
	s.mu.Unlock()

	if claim != nil {
		if err := s.subscribe(ctx, topicClaimUpdates); err != nil {
			return err
		}
	}
	if policy != nil {
		if err := s.subscribe(ctx, topicPolicyUpdates); err != nil {
			return err
		}
	}
	return nil
}

func (s *Streamer) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0 // retry until stopped

	for {
		if ctx.Err() != nil {
			return
		}

		messages, err := s.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			wait := bo.NextBackOff()
			s.logger.Warn("push feed connection lost, reconnecting", "error", err, "backoff", wait)

			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}

			if err := s.establish(ctx); err != nil {
				s.logger.Warn("push feed re-establish failed", "error", err)
			}
			continue
		}

		bo.Reset()
		for _, msg := range messages {
			s.dispatch(msg)
		}
	}
}

// post sends a batch of Bayeux frames and decodes the response batch.
func (s *Streamer) post(ctx context.Context, messages []bayeuxMessage) ([]bayeuxMessage, error) {
	token, instance := s.client.session()
	if token == "" {
		return nil, apperrors.ErrCRMNotConnected
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/cometd/%s", instance, s.client.cfg.APIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cometd returned %d: %w", resp.StatusCode, apperrors.ErrUpstreamStatus)
	}

	var out []bayeuxMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedUpstream, err)
	}
	return out, nil
}

func (s *Streamer) handshake(ctx context.Context) error {
	out, err := s.post(ctx, []bayeuxMessage{{
		Channel:                  "/meta/handshake",
		Version:                  "1.0",
		SupportedConnectionTypes: []string{"long-polling"},
	}})
	if err != nil {
		return err
	}

	for _, msg := range out {
		if msg.Channel == "/meta/handshake" {
			if msg.failed() {
				return fmt.Errorf("handshake rejected: %s: %w", msg.Error, apperrors.ErrSubscriptionClosed)
			}
			s.mu.Lock()
			s.clientID = msg.ClientID
			s.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("no handshake response: %w", apperrors.ErrMalformedUpstream)
}

func (s *Streamer) subscribe(ctx context.Context, topic string) error {
	s.mu.Lock()
	clientID := s.clientID
	s.mu.Unlock()

	out, err := s.post(ctx, []bayeuxMessage{{
		Channel:      "/meta/subscribe",
		ClientID:     clientID,
		Subscription: topic,
	}})
	if err != nil {
		return err
	}

	for _, msg := range out {
		if msg.Channel == "/meta/subscribe" && msg.failed() {
			return fmt.Errorf("subscribe %s rejected: %s: %w", topic, msg.Error, apperrors.ErrSubscriptionClosed)
		}
	}

	s.logger.Info("subscribed to push topic", "topic", topic)
	return nil
}

// connect issues one long-poll cycle. The response carries any events
// delivered while the poll was held open.
func (s *Streamer) connect(ctx context.Context) ([]bayeuxMessage, error) {
	s.mu.Lock()
	clientID := s.clientID
	s.mu.Unlock()

	out, err := s.post(ctx, []bayeuxMessage{{
		Channel:        "/meta/connect",
		ClientID:       clientID,
		ConnectionType: "long-polling",
	}})
	if err != nil {
		return nil, err
	}

	for _, msg := range out {
		if msg.Channel == "/meta/connect" && msg.failed() {
			return nil, fmt.Errorf("connect rejected: %s: %w", msg.Error, apperrors.ErrSubscriptionClosed)
		}
	}
	return out, nil
}

// dispatch routes one delivered event to its topic handler. Malformed
// messages are logged and dropped.
func (s *Streamer) dispatch(msg bayeuxMessage) {
	switch msg.Channel {
	case topicClaimUpdates:
		s.dispatchClaim(msg.Data)
	case topicPolicyUpdates:
		s.dispatchPolicy(msg.Data)
	}
}

func (s *Streamer) dispatchClaim(data json.RawMessage) {
	s.mu.Lock()
	handler := s.claimHandler
	s.mu.Unlock()
	if handler == nil {
		return
	}

	var event eventData
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Warn("malformed claim push message", "error", err)
		return
	}

	var sobject struct {
		ID         string `json:"Id"`
		CaseNumber string `json:"CaseNumber"`
		Status     string `json:"Status"`
		ContactID  string `json:"ContactId"`
	}
	if err := json.Unmarshal(event.SObject, &sobject); err != nil {
		s.logger.Warn("malformed claim push message", "error", err)
		return
	}

	handler(domain.ClaimChange{
		ID:         sobject.ID,
		CaseNumber: sobject.CaseNumber,
		Status:     sobject.Status,
		ContactID:  sobject.ContactID,
	})
}

func (s *Streamer) dispatchPolicy(data json.RawMessage) {
	s.mu.Lock()
	handler := s.policyHandler
	s.mu.Unlock()
	if handler == nil {
		return
	}

	var event eventData
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Warn("malformed policy push message", "error", err)
		return
	}

	var raw map[string]any
	if err := json.Unmarshal(event.SObject, &raw); err != nil {
		s.logger.Warn("malformed policy push message", "error", err)
		return
	}

	change := domain.PolicyChange{Raw: raw}
	if id, ok := raw["Id"].(string); ok {
		change.ID = id
	}
	if name, ok := raw["Name"].(string); ok {
		change.Name = name
	}
	handler(change)
}
