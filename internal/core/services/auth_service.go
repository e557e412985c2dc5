package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lorrc/insuredesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/insuredesk-backend/internal/core/errors"
	"github.com/lorrc/insuredesk-backend/internal/core/ports"
)

// AuthService implements authentication business logic
type AuthService struct {
	userRepo ports.UserRepository
	auditLog ports.AuditLogRepository
	logger   *slog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService creates a new authentication service
func NewAuthService(userRepo ports.UserRepository, auditLog ports.AuditLogRepository, logger *slog.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		auditLog: auditLog,
		logger:   logger.With("component", "auth_service"),
	}
}

// Register creates a new user account with validated credentials
func (s *AuthService) Register(ctx context.Context, params domain.UserRegistrationParams) (*domain.User, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	// Check if user already exists
	_, err := s.userRepo.GetByEmail(ctx, params.Email)
	if err == nil {
		return nil, apperrors.ErrUserExists
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err // An actual DB error occurred
	}

	user, err := domain.NewUser(params)
	if err != nil {
		return nil, err
	}

	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, created.ID, "user.registered")
	return created, nil
}

// Login authenticates a user with email and password
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" {
		return nil, apperrors.ErrEmailRequired
	}
	if password == "" {
		return nil, apperrors.ErrPasswordRequired
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Don't reveal whether email exists
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.CheckPassword(password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperrors.ErrUserInactive
	}

	if err := s.userRepo.TouchLastLogin(ctx, user.ID); err != nil {
		// Not fatal for login
		s.logger.Warn("failed to update last login", "user_id", user.ID, "error", err)
	}

	s.audit(ctx, user.ID, "user.login")
	return user, nil
}

// audit records an auth event. Recording is best-effort.
func (s *AuthService) audit(ctx context.Context, userID int64, action string) {
	if s.auditLog == nil {
		return
	}
	entry := domain.AuditEntry{
		UserID:     &userID,
		Action:     action,
		EntityType: "user",
	}
	if err := s.auditLog.Record(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit entry", "action", action, "error", err)
	}
}
