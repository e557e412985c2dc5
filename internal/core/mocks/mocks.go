package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lorrc/insuredesk-backend/internal/core/domain"
)

// MockBroadcaster is a mock implementation of ports.Broadcaster
type MockBroadcaster struct {
	mock.Mock
}

func NewMockBroadcaster() *MockBroadcaster {
	return &MockBroadcaster{}
}

func (m *MockBroadcaster) ToAll(event domain.EventType, data any) {
	m.Called(event, data)
}

func (m *MockBroadcaster) ToRole(role domain.Role, event domain.EventType, data any) {
	m.Called(role, event, data)
}

func (m *MockBroadcaster) ToRoles(roles []domain.Role, event domain.EventType, data any) {
	m.Called(roles, event, data)
}

func (m *MockBroadcaster) ToUser(userKey string, event domain.EventType, data any) {
	m.Called(userKey, event, data)
}

// MockTelephonyGateway is a mock implementation of ports.TelephonyGateway
type MockTelephonyGateway struct {
	mock.Mock
}

func NewMockTelephonyGateway() *MockTelephonyGateway {
	return &MockTelephonyGateway{}
}

func (m *MockTelephonyGateway) QueueStats(ctx context.Context) (*domain.QueueStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueueStats), args.Error(1)
}

func (m *MockTelephonyGateway) AgentActivity(ctx context.Context) ([]domain.AgentActivity, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AgentActivity), args.Error(1)
}

func (m *MockTelephonyGateway) Ticket(ctx context.Context, ticketID int64) (*domain.TicketDetails, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TicketDetails), args.Error(1)
}

func (m *MockTelephonyGateway) CSATScores(ctx context.Context, agentID int64) (*domain.CSATSummary, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CSATSummary), args.Error(1)
}

// MockCRMGateway is a mock implementation of ports.CRMGateway
type MockCRMGateway struct {
	mock.Mock
}

func NewMockCRMGateway() *MockCRMGateway {
	return &MockCRMGateway{}
}

func (m *MockCRMGateway) Login(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCRMGateway) Connected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockCRMGateway) CustomerProfile(ctx context.Context, policyNumber string) (*domain.CustomerProfile, error) {
	args := m.Called(ctx, policyNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CustomerProfile), args.Error(1)
}

func (m *MockCRMGateway) PolicyDetails(ctx context.Context, policyNumber string) (*domain.PolicyDetails, error) {
	args := m.Called(ctx, policyNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PolicyDetails), args.Error(1)
}

func (m *MockCRMGateway) Claims(ctx context.Context, policyID string) ([]domain.Claim, error) {
	args := m.Called(ctx, policyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Claim), args.Error(1)
}

func (m *MockCRMGateway) BillingHistory(ctx context.Context, policyID string) ([]domain.Payment, error) {
	args := m.Called(ctx, policyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

// MockUserRepository is a mock implementation of ports.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAuditLogRepository is a mock implementation of ports.AuditLogRepository
type MockAuditLogRepository struct {
	mock.Mock
}

func NewMockAuditLogRepository() *MockAuditLogRepository {
	return &MockAuditLogRepository{}
}

func (m *MockAuditLogRepository) Record(ctx context.Context, entry domain.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
