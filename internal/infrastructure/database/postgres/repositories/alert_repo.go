package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/turtacn/foia-tracker/internal/domain/alert"
	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/internal/infrastructure/database/postgres"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/pkg/errors"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

const alertColumns = `id, request_id, agency, jurisdiction, kind, threshold_id, level, due_date, generated_at, message, guidance_text`

type postgresAlertRepo struct {
	baseRepo
}

// NewPostgresAlertRepo returns the PostgreSQL alert store.
func NewPostgresAlertRepo(conn *postgres.Connection, log logging.Logger) alert.Repository {
	return &postgresAlertRepo{
		baseRepo: baseRepo{conn: conn, log: log},
	}
}

// Insert relies on the (request_id, threshold_id) unique key, so concurrent
// scans cannot both record the same threshold.
func (r *postgresAlertRepo) Insert(ctx context.Context, a *alert.Alert) (bool, error) {
	query := `
		INSERT INTO alerts (` + alertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (request_id, threshold_id) DO NOTHING
	`
	res, err := r.executor().ExecContext(ctx, query,
		a.ID, a.RequestID, a.Agency, string(a.Jurisdiction), string(a.Kind), a.ThresholdID, string(a.Level),
		a.DueDate, a.GeneratedAt, a.Message, a.GuidanceText,
	)
	if err != nil {
		r.log.Error("failed to insert alert", logging.RequestID(a.RequestID), logging.String("threshold", a.ThresholdID), logging.Err(err))
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert alert")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read insert result")
	}
	return n == 1, nil
}

func (r *postgresAlertRepo) Exists(ctx context.Context, requestID, thresholdID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM alerts WHERE request_id = $1 AND threshold_id = $2)`
	if err := r.executor().QueryRowContext(ctx, query, requestID, thresholdID).Scan(&exists); err != nil {
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to check alert")
	}
	return exists, nil
}

func (r *postgresAlertRepo) ListByRequest(ctx context.Context, requestID string) ([]*alert.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE request_id = $1 ORDER BY generated_at DESC, id`
	return r.query(ctx, query, requestID)
}

func (r *postgresAlertRepo) List(ctx context.Context, opts alert.ListOptions) ([]*alert.Alert, int64, error) {
	p := common.Page{Limit: opts.Limit, Offset: opts.Offset}.Normalize()

	var (
		where []string
		args  []interface{}
	)
	if opts.RequestID != "" {
		args = append(args, opts.RequestID)
		where = append(where, fmt.Sprintf("request_id = $%d", len(args)))
	}
	if opts.Kind != "" {
		args = append(args, string(opts.Kind))
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if !opts.Since.IsZero() {
		args = append(args, opts.Since)
		where = append(where, fmt.Sprintf("generated_at >= $%d", len(args)))
	}
	baseQuery := `FROM alerts`
	if len(where) > 0 {
		baseQuery += ` WHERE ` + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.executor().QueryRowContext(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count alerts")
	}

	dataQuery := fmt.Sprintf("SELECT %s %s ORDER BY generated_at DESC, id LIMIT $%d OFFSET $%d",
		alertColumns, baseQuery, len(args)+1, len(args)+2)
	args = append(args, p.Limit, p.Offset)

	list, err := r.query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *postgresAlertRepo) query(ctx context.Context, query string, args ...interface{}) ([]*alert.Alert, error) {
	rows, err := r.executor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query alerts")
	}
	defer rows.Close()

	out := make([]*alert.Alert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate alerts")
	}
	return out, nil
}

func scanAlert(row scanner) (*alert.Alert, error) {
	var (
		a                 alert.Alert
		code, kind, level string
	)
	err := row.Scan(&a.ID, &a.RequestID, &a.Agency, &code, &kind, &a.ThresholdID, &level,
		&a.DueDate, &a.GeneratedAt, &a.Message, &a.GuidanceText)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan alert")
	}
	a.Jurisdiction = jurisdiction.Code(code)
	a.Kind = alert.Kind(kind)
	a.Level = alert.Level(level)
	a.DueDate = a.DueDate.UTC()
	a.GeneratedAt = a.GeneratedAt.UTC()
	return &a, nil
}

var _ alert.Repository = (*postgresAlertRepo)(nil)

//Personal.AI order the ending
