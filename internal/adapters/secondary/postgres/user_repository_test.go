package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/insuredesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/insuredesk-backend/internal/core/errors"
)

func newTestUser(email string) *domain.User {
	return &domain.User{
		Email:        email,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		FullName:     "Test User",
		Role:         domain.RoleAgent,
		IsActive:     true,
	}
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

func TestUserRepository_CreateGet(t *testing.T) {
	require.NotNil(t, testPool, "testPool is nil. TestMain may not have run.")
	ctx := context.Background()
	repo := NewUserRepository(testPool)

	email := uniqueEmail("create-get")
	created, err := repo.Create(ctx, newTestUser(email))
	require.NoError(t, err, "Failed to create user")
	assert.NotZero(t, created.ID)
	assert.True(t, created.IsActive)
	assert.Nil(t, created.LastLogin)

	found, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err, "Failed to get user by email")
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Test User", found.FullName)
	assert.Equal(t, domain.RoleAgent, found.Role)

	foundByID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err, "Failed to get user by ID")
	assert.Equal(t, created.ID, foundByID.ID)
}

func TestUserRepository_PersistsContactID(t *testing.T) {
	require.NotNil(t, testPool)
	ctx := context.Background()
	repo := NewUserRepository(testPool)

	user := newTestUser(uniqueEmail("contact"))
	user.Role = domain.RoleCustomer
	user.ContactID = "003XX0000012AbC"

	created, err := repo.Create(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "003XX0000012AbC", created.ContactID)

	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "003XX0000012AbC", found.ContactID)
	assert.Equal(t, "003XX0000012AbC", found.Identity().UserKey())
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	require.NotNil(t, testPool)
	repo := NewUserRepository(testPool)

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	require.NotNil(t, testPool)
	ctx := context.Background()
	repo := NewUserRepository(testPool)

	email := uniqueEmail("dup")
	_, err := repo.Create(ctx, newTestUser(email))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newTestUser(email))
	assert.ErrorIs(t, err, apperrors.ErrUserExists)
}

func TestUserRepository_TouchLastLogin(t *testing.T) {
	require.NotNil(t, testPool)
	ctx := context.Background()
	repo := NewUserRepository(testPool)

	created, err := repo.Create(ctx, newTestUser(uniqueEmail("touch")))
	require.NoError(t, err)

	require.NoError(t, repo.TouchLastLogin(ctx, created.ID))

	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLogin)
	assert.WithinDuration(t, time.Now(), *found.LastLogin, time.Minute)
}

func TestUserRepository_TouchLastLogin_UnknownUser(t *testing.T) {
	require.NotNil(t, testPool)
	repo := NewUserRepository(testPool)

	err := repo.TouchLastLogin(context.Background(), 999999)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestAuditLogRepository_Record(t *testing.T) {
	require.NotNil(t, testPool)
	ctx := context.Background()

	userRepo := NewUserRepository(testPool)
	auditRepo := NewAuditLogRepository(testPool)

	user, err := userRepo.Create(ctx, newTestUser(uniqueEmail("audit")))
	require.NoError(t, err)

	entry := domain.AuditEntry{
		UserID:     &user.ID,
		Action:     "user.login",
		EntityType: "user",
		EntityID:   fmt.Sprint(user.ID),
		Details:    map[string]any{"method": "password"},
		IPAddress:  "203.0.113.9",
		UserAgent:  "insuredesk-test",
	}
	require.NoError(t, auditRepo.Record(ctx, entry))

	var action string
	var details map[string]any
	err = testPool.QueryRow(ctx,
		"SELECT action, details FROM audit_logs WHERE user_id = $1", user.ID,
	).Scan(&action, &details)
	require.NoError(t, err)
	assert.Equal(t, "user.login", action)
	assert.Equal(t, "password", details["method"])
}

func TestAuditLogRepository_Record_AnonymousAction(t *testing.T) {
	require.NotNil(t, testPool)
	auditRepo := NewAuditLogRepository(testPool)

	// Webhook deliveries have no authenticated user.
	err := auditRepo.Record(context.Background(), domain.AuditEntry{
		Action:     "webhook.received",
		EntityType: "ticket",
		EntityID:   "42",
	})
	assert.NoError(t, err)
}
