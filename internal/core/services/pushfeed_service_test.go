package services

import (
	"testing"

	"github.com/lorrc/insuredesk-backend/internal/core/domain"
	"github.com/lorrc/insuredesk-backend/internal/core/mocks"
)

func TestPushFeedService_ClaimChangeNotifiesManagersAndCustomer(t *testing.T) {
	bc := mocks.NewMockBroadcaster()
	svc := NewPushFeedService(bc, testLogger())
	svc.now = fixedClock()

	bc.On("ToRole", domain.RoleManager, domain.EventClaimUpdated, domain.ClaimUpdatedPayload{
		ClaimID:     "500xx0000001",
		ClaimNumber: "CLM-2024-0042",
		Status:      "Approved",
		Timestamp:   "2024-05-20T12:00:00Z",
	}).Once()

	// The customer copy omits internal identifiers.
	bc.On("ToUser", "003xx0000017", domain.EventClaimUpdated, domain.CustomerClaimPayload{
		ClaimNumber: "CLM-2024-0042",
		Status:      "Approved",
	}).Once()

	svc.HandleClaimChange(domain.ClaimChange{
		ID:         "500xx0000001",
		CaseNumber: "CLM-2024-0042",
		Status:     "Approved",
		ContactID:  "003xx0000017",
	})

	bc.AssertExpectations(t)
}

func TestPushFeedService_ClaimChangeWithoutContactSkipsCustomerCopy(t *testing.T) {
	bc := mocks.NewMockBroadcaster()
	svc := NewPushFeedService(bc, testLogger())
	svc.now = fixedClock()

	bc.On("ToRole", domain.RoleManager, domain.EventClaimUpdated, domain.ClaimUpdatedPayload{
		ClaimID:     "500xx0000002",
		ClaimNumber: "CLM-2024-0043",
		Status:      "Under Review",
		Timestamp:   "2024-05-20T12:00:00Z",
	}).Once()

	svc.HandleClaimChange(domain.ClaimChange{
		ID:         "500xx0000002",
		CaseNumber: "CLM-2024-0043",
		Status:     "Under Review",
	})

	bc.AssertExpectations(t)
	bc.AssertNotCalled(t, "ToUser")
}

func TestPushFeedService_PolicyChangeGoesToAgents(t *testing.T) {
	bc := mocks.NewMockBroadcaster()
	svc := NewPushFeedService(bc, testLogger())
	svc.now = fixedClock()

	raw := map[string]any{"Id": "POL-1", "Name": "HO-558212", "Status__c": "Active"}

	bc.On("ToRole", domain.RoleAgent, domain.EventPolicyUpdated, domain.PolicyUpdatedPayload{
		PolicyID:     "POL-1",
		PolicyNumber: "HO-558212",
		Changes:      raw,
		Timestamp:    "2024-05-20T12:00:00Z",
	}).Once()

	svc.HandlePolicyChange(domain.PolicyChange{
		ID:   "POL-1",
		Name: "HO-558212",
		Raw:  raw,
	})

	bc.AssertExpectations(t)
}
