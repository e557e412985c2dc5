package ports

import (
	"context"

	"github.com/lorrc/insuredesk-backend/internal/core/domain"
)

// UserRepository defines persistence operations for dashboard accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id int64) error
}

// AuditLogRepository persists audit trail entries. Recording is
// best-effort: implementations log failures but never fail the caller.
type AuditLogRepository interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
}
