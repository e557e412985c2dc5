package services

import (
	"log/slog"
	"time"

	"github.com/lorrc/insuredesk-backend/internal/core/domain"
	"github.com/lorrc/insuredesk-backend/internal/core/ports"
)

// PushFeedService routes decoded CRM push messages to dashboard rooms.
// Claim changes go to managers, plus a reduced copy to the affected
// customer's identity room when the change names a contact. Policy
// changes go to agents with the full changed-record snapshot.
type PushFeedService struct {
	broadcaster ports.Broadcaster
	logger      *slog.Logger
	now         func() time.Time
}

var _ ports.PushFeedService = (*PushFeedService)(nil)

// NewPushFeedService creates a new push feed router.
func NewPushFeedService(broadcaster ports.Broadcaster, logger *slog.Logger) *PushFeedService {
	return &PushFeedService{
		broadcaster: broadcaster,
		logger:      logger.With("component", "pushfeed_service"),
		now:         time.Now,
	}
}

// HandleClaimChange broadcasts a claim update to managers and notifies the
// affected customer directly when the change carries a contact reference.
func (s *PushFeedService) HandleClaimChange(change domain.ClaimChange) {
	timestamp := s.now().UTC().Format(time.RFC3339)

	s.broadcaster.ToRole(domain.RoleManager, domain.EventClaimUpdated, domain.ClaimUpdatedPayload{
		ClaimID:     change.ID,
		ClaimNumber: change.CaseNumber,
		Status:      change.Status,
		Timestamp:   timestamp,
	})

	if change.ContactID != "" {
		// The customer sees a reduced payload without internal identifiers.
		s.broadcaster.ToUser(change.ContactID, domain.EventClaimUpdated, domain.CustomerClaimPayload{
			ClaimNumber: change.CaseNumber,
			Status:      change.Status,
		})
	}

	s.logger.Debug("claim change routed", "claim_number", change.CaseNumber, "status", change.Status)
}

// HandlePolicyChange broadcasts a policy update to agents.
func (s *PushFeedService) HandlePolicyChange(change domain.PolicyChange) {
	s.broadcaster.ToRole(domain.RoleAgent, domain.EventPolicyUpdated, domain.PolicyUpdatedPayload{
		PolicyID:     change.ID,
		PolicyNumber: change.Name,
		Changes:      change.Raw,
		Timestamp:    s.now().UTC().Format(time.RFC3339),
	})

	s.logger.Debug("policy change routed", "policy_number", change.Name)
}
