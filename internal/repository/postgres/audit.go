package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/repository"
)

type auditRepository struct {
	BaseRepository
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{NewBaseRepository(db)}
}

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	metadata := "{}"
	if len(log.Metadata) > 0 {
		metadata = string(log.Metadata)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, action, metadata, user_id, target_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, log.ID, log.Action, metadata, log.UserID, log.TargetID, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func logWhere(filter model.LogFilter, withAction bool) (string, []interface{}) {
	where := " WHERE 1=1"
	var args []interface{}

	if withAction && filter.Action != "" {
		args = append(args, filter.Action)
		where += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	return where, args
}

func (r *auditRepository) List(ctx context.Context, filter model.LogFilter) ([]*model.AuditLog, int, error) {
	where, args := logWhere(filter, true)
	page := filter.Page.Normalize()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM audit_logs`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query := `SELECT id, action, metadata, user_id, target_id, created_at FROM audit_logs` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	var logs []*model.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, append(args, page.Limit, page.Offset)...); err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}

func (r *auditRepository) CreateAccess(ctx context.Context, log *model.AccessLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO access_logs (id, user_id, method, path, status, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, log.ID, log.UserID, log.Method, log.Path, log.Status, log.IPAddress, log.UserAgent, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create access log: %w", err)
	}
	return nil
}

func (r *auditRepository) ListAccess(ctx context.Context, filter model.LogFilter) ([]*model.AccessLog, int, error) {
	where, args := logWhere(filter, false)
	page := filter.Page.Normalize()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM access_logs`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count access logs: %w", err)
	}

	query := `SELECT id, user_id, method, path, status, ip_address, user_agent, created_at FROM access_logs` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	var logs []*model.AccessLog
	if err := r.db.SelectContext(ctx, &logs, query, append(args, page.Limit, page.Offset)...); err != nil {
		return nil, 0, fmt.Errorf("failed to list access logs: %w", err)
	}
	return logs, total, nil
}

func (r *auditRepository) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	var total int64
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"audit_logs", "access_logs"} {
			res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE created_at < $1`, before)
			if err != nil {
				return fmt.Errorf("failed to clean %s: %w", table, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
