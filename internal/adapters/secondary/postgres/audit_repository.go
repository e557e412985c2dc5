package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/insuredesk-backend/internal/core/domain"
	"github.com/lorrc/insuredesk-backend/internal/core/ports"
)

type AuditLogRepository struct {
	pool *pgxpool.Pool
}

var _ ports.AuditLogRepository = (*AuditLogRepository)(nil)

func NewAuditLogRepository(pool *pgxpool.Pool) *AuditLogRepository {
	return &AuditLogRepository{pool: pool}
}

func (r *AuditLogRepository) Record(ctx context.Context, entry domain.AuditEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, details, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.UserID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.Details,
		entry.IPAddress,
		entry.UserAgent,
	)
	return err
}
