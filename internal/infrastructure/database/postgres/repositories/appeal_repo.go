package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/turtacn/foia-tracker/internal/domain/appeal"
	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/internal/infrastructure/database/postgres"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

const appealColumns = `id, request_id, round, jurisdiction, appeal_type, appeal_body, status, grounds,
		anchor_date, filed_deadline, document_key, history, version, created_at, updated_at`

type postgresAppealRepo struct {
	baseRepo
}

// NewPostgresAppealRepo returns the PostgreSQL appeal store.
func NewPostgresAppealRepo(conn *postgres.Connection, log logging.Logger) appeal.Repository {
	return &postgresAppealRepo{
		baseRepo: baseRepo{conn: conn, log: log},
	}
}

func (r *postgresAppealRepo) Create(ctx context.Context, a *appeal.Record) error {
	grounds, err := marshalJSON(a.Grounds, "grounds")
	if err != nil {
		return err
	}
	history, err := marshalJSON(a.History, "appeal history")
	if err != nil {
		return err
	}
	query := `
		INSERT INTO appeals (` + appealColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = r.executor().ExecContext(ctx, query,
		a.ID, a.RequestID, a.Round, string(a.Jurisdiction), string(a.Type), a.Body, string(a.Status()), grounds,
		a.AnchorDate, a.FiledDeadline, a.DocumentKey, history, a.Version, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict("appeal round already exists").
				WithDetail(fmt.Sprintf("request_id=%s round=%d", a.RequestID, a.Round))
		}
		r.log.Error("failed to insert appeal", logging.RequestID(a.RequestID), logging.Int("round", a.Round), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create appeal")
	}
	return nil
}

func (r *postgresAppealRepo) Get(ctx context.Context, id string) (*appeal.Record, error) {
	query := `SELECT ` + appealColumns + ` FROM appeals WHERE id = $1`
	a, err := scanAppeal(r.executor().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.AppealNotFound(id)
	}
	return a, err
}

func (r *postgresAppealRepo) Update(ctx context.Context, a *appeal.Record, expectedVersion int) error {
	grounds, err := marshalJSON(a.Grounds, "grounds")
	if err != nil {
		return err
	}
	history, err := marshalJSON(a.History, "appeal history")
	if err != nil {
		return err
	}
	query := `
		UPDATE appeals SET
			status = $3, grounds = $4, document_key = $5, history = $6, updated_at = $7,
			version = version + 1
		WHERE id = $1 AND version = $2
	`
	res, err := r.executor().ExecContext(ctx, query,
		a.ID, expectedVersion, string(a.Status()), grounds, a.DocumentKey, history, a.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update appeal")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read update result")
	}
	if n == 0 {
		var exists bool
		if err := r.executor().QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM appeals WHERE id = $1)`, a.ID).Scan(&exists); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to check appeal")
		}
		if !exists {
			return errors.AppealNotFound(a.ID)
		}
		return errors.ConcurrentModification(a.ID, expectedVersion)
	}
	a.Version = expectedVersion + 1
	return nil
}

func (r *postgresAppealRepo) ListByRequest(ctx context.Context, requestID string) ([]*appeal.Record, error) {
	query := `SELECT ` + appealColumns + ` FROM appeals WHERE request_id = $1 ORDER BY round`
	rows, err := r.executor().QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query appeals")
	}
	defer rows.Close()

	out := make([]*appeal.Record, 0)
	for rows.Next() {
		a, err := scanAppeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate appeals")
	}
	return out, nil
}

func scanAppeal(row scanner) (*appeal.Record, error) {
	var (
		a                 appeal.Record
		code, typ, status string
		grounds, history  []byte
	)
	err := row.Scan(&a.ID, &a.RequestID, &a.Round, &code, &typ, &a.Body, &status, &grounds,
		&a.AnchorDate, &a.FiledDeadline, &a.DocumentKey, &history, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan appeal")
	}
	a.Jurisdiction = jurisdiction.Code(code)
	a.Type = appeal.Type(typ)
	if err := unmarshalJSON(grounds, &a.Grounds, "grounds"); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(history, &a.History, "appeal history"); err != nil {
		return nil, err
	}
	a.AnchorDate = a.AnchorDate.UTC()
	a.FiledDeadline = a.FiledDeadline.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	if string(a.Status()) != status {
		return nil, errors.Validation("status column disagrees with history").
			WithDetail(fmt.Sprintf("appeal_id=%s column=%s history=%s", a.ID, status, a.Status()))
	}
	return &a, nil
}

var _ appeal.Repository = (*postgresAppealRepo)(nil)

//Personal.AI order the ending
