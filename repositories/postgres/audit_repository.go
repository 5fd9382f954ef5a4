package postgres

import (
	"context"
	"database/sql"

	"github.com/upb/readers-hub/models"
	"github.com/upb/readers-hub/repositories"
	"go.uber.org/zap"
)

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) *AuditRepository {
	return &AuditRepository{db: db, logger: logger}
}

const auditSelect = `
	SELECT id, actor_id, action, resource_type, resource_id, details, request_id, timestamp
	FROM audit_logs
`

func scanAuditLog(row rowScanner) (*models.AuditLog, error) {
	log := &models.AuditLog{}
	var (
		details   []byte
		requestID sql.NullString
	)
	err := row.Scan(&log.ID, &log.ActorID, &log.Action, &log.ResourceType, &log.ResourceID,
		&details, &requestID, &log.Timestamp)
	if err != nil {
		return nil, err
	}
	log.Details = details
	log.RequestID = requestID.String
	return log, nil
}

// Insert inserts a new audit log entry
func (r *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	var details interface{}
	if len(log.Details) > 0 {
		details = []byte(log.Details)
	}

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_id, action, resource_type, resource_id, details, request_id, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, log.ID, log.ActorID, log.Action, log.ResourceType, log.ResourceID, details, log.RequestID, log.Timestamp)
	if err != nil {
		return mapError("insert audit log", err)
	}

	r.logger.Debug("audit log inserted", zap.String("id", log.ID.String()), zap.String("action", string(log.Action)))
	return nil
}

// List returns entries newest first, and the total count
func (r *AuditRepository) List(ctx context.Context, opts repositories.ListOptions) ([]*models.AuditLog, int, error) {
	opts = clampList(opts)
	executor := GetExecutor(ctx, r.db)

	var total int
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`).Scan(&total); err != nil {
		return nil, 0, mapError("count audit logs", err)
	}

	rows, err := executor.QueryContext(ctx,
		auditSelect+` ORDER BY timestamp DESC, id DESC LIMIT $1 OFFSET $2`, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, mapError("list audit logs", err)
	}
	defer rows.Close()

	out := make([]*models.AuditLog, 0, opts.Limit)
	for rows.Next() {
		log, err := scanAuditLog(rows)
		if err != nil {
			return nil, 0, mapError("scan audit log", err)
		}
		out = append(out, log)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError("iterate audit logs", err)
	}
	return out, total, nil
}
