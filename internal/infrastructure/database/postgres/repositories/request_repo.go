package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/internal/domain/request"
	"github.com/turtacn/foia-tracker/internal/infrastructure/database/postgres"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

const requestColumns = `id, reference_id, agency, jurisdiction, topic, template_id, document_key, flags,
		status, date_filed, deadline, overdue_at, history, notes, extension, response, exemptions, fee,
		version, created_at, updated_at, deadline_unit`

type postgresRequestRepo struct {
	baseRepo
}

// NewPostgresRequestRepo returns the PostgreSQL request store.
func NewPostgresRequestRepo(conn *postgres.Connection, log logging.Logger) request.Repository {
	return &postgresRequestRepo{
		baseRepo: baseRepo{conn: conn, log: log},
	}
}

// requestRow is the column projection of a record.  The status and
// overdue_at columns are derived so that queries can filter on them.
type requestRow struct {
	flags      []string
	history    []byte
	notes      []byte
	extension  []byte
	response   []byte
	exemptions []string
	fee        []byte
}

func toRow(r *request.Record) (*requestRow, error) {
	row := &requestRow{
		flags:      make([]string, 0, len(r.Flags)),
		exemptions: append([]string{}, r.Response.Exemptions...),
	}
	for _, f := range r.Flags {
		row.flags = append(row.flags, string(f))
	}
	var err error
	if row.history, err = marshalJSON(r.History, "history"); err != nil {
		return nil, err
	}
	if row.notes, err = marshalJSON(r.Notes, "notes"); err != nil {
		return nil, err
	}
	if row.extension, err = marshalJSON(r.Extension, "extension"); err != nil {
		return nil, err
	}
	if row.response, err = marshalJSON(r.Response, "response"); err != nil {
		return nil, err
	}
	if row.fee, err = marshalJSON(r.Fee, "fee"); err != nil {
		return nil, err
	}
	return row, nil
}

func (r *postgresRequestRepo) Create(ctx context.Context, rec *request.Record) error {
	row, err := toRow(rec)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`
	_, err = r.executor().ExecContext(ctx, query,
		rec.ID, rec.ReferenceID, rec.Agency, string(rec.Jurisdiction), rec.Topic, rec.TemplateID, rec.DocumentKey,
		pq.Array(row.flags), string(rec.Status()), rec.DateFiled, rec.Deadline, rec.OverdueAt(),
		row.history, row.notes, row.extension, row.response, pq.Array(row.exemptions), row.fee,
		rec.Version, rec.CreatedAt, rec.UpdatedAt, string(rec.DeadlineUnit),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict("request already exists").WithDetail("id=" + rec.ID)
		}
		r.log.Error("failed to insert request", logging.RequestID(rec.ID), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create request")
	}
	return nil
}

func (r *postgresRequestRepo) Get(ctx context.Context, id string) (*request.Record, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`
	rec, err := scanRecord(r.executor().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.RequestNotFound(id)
	}
	return rec, err
}

func (r *postgresRequestRepo) Update(ctx context.Context, rec *request.Record, expectedVersion int) error {
	row, err := toRow(rec)
	if err != nil {
		return err
	}
	query := `
		UPDATE requests SET
			reference_id = $3, agency = $4, topic = $5, template_id = $6, document_key = $7, flags = $8,
			status = $9, date_filed = $10, deadline = $11, overdue_at = $12, history = $13, notes = $14,
			extension = $15, response = $16, exemptions = $17, fee = $18, updated_at = $19,
			deadline_unit = $20, version = version + 1
		WHERE id = $1 AND version = $2
	`
	res, err := r.executor().ExecContext(ctx, query,
		rec.ID, expectedVersion, rec.ReferenceID, rec.Agency, rec.Topic, rec.TemplateID, rec.DocumentKey,
		pq.Array(row.flags), string(rec.Status()), rec.DateFiled, rec.Deadline, rec.OverdueAt(),
		row.history, row.notes, row.extension, row.response, pq.Array(row.exemptions), row.fee, rec.UpdatedAt,
		string(rec.DeadlineUnit),
	)
	if err != nil {
		r.log.Error("failed to update request", logging.RequestID(rec.ID), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update request")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read update result")
	}
	if n == 0 {
		var exists bool
		if err := r.executor().QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM requests WHERE id = $1)`, rec.ID).Scan(&exists); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to check request")
		}
		if !exists {
			return errors.RequestNotFound(rec.ID)
		}
		return errors.ConcurrentModification(rec.ID, expectedVersion)
	}
	rec.Version = expectedVersion + 1
	return nil
}

func (r *postgresRequestRepo) List(ctx context.Context, opts ...request.ListOption) ([]*request.Record, int64, error) {
	o := request.ApplyListOptions(opts...)

	var (
		where []string
		args  []interface{}
	)
	if o.Jurisdiction != "" {
		args = append(args, string(o.Jurisdiction))
		where = append(where, fmt.Sprintf("jurisdiction = $%d", len(args)))
	}
	if o.Status != "" {
		args = append(args, string(o.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if o.Agency != "" {
		args = append(args, o.Agency)
		where = append(where, fmt.Sprintf("LOWER(agency) = LOWER($%d)", len(args)))
	}
	baseQuery := `FROM requests`
	if len(where) > 0 {
		baseQuery += ` WHERE ` + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.executor().QueryRowContext(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count requests")
	}

	dataQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d",
		requestColumns, baseQuery, len(args)+1, len(args)+2)
	args = append(args, o.Limit, o.Offset)

	list, err := r.query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *postgresRequestRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]*request.Record, error) {
	query := `SELECT ` + requestColumns + ` FROM requests
		WHERE overdue_at <= $1 AND status <> ALL($2)
		ORDER BY deadline, id`
	return r.query(ctx, query, asOf, pq.Array(overdueExcluded()))
}

// ListOpen skips rows whose JSON columns or status do not decode and reports
// them as load errors, so one bad row cannot stall every scan.
func (r *postgresRequestRepo) ListOpen(ctx context.Context) ([]*request.Record, []request.LoadError, error) {
	query := `SELECT ` + requestColumns + ` FROM requests
		WHERE status <> ALL($1)
		ORDER BY deadline, id`
	rows, err := r.executor().QueryContext(ctx, query, pq.Array(terminalStatuses()))
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query requests")
	}
	defer rows.Close()

	var broken []request.LoadError
	out := make([]*request.Record, 0)
	for rows.Next() {
		sr, err := scanRequest(rows)
		if err != nil {
			return nil, nil, err
		}
		rec, err := sr.decode()
		if err != nil {
			r.log.Warn("skipping undecodable request row", logging.RequestID(sr.rec.ID), logging.Err(err))
			broken = append(broken, request.LoadError{ID: sr.rec.ID, Err: err})
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate requests")
	}
	return out, broken, nil
}

func (r *postgresRequestRepo) Stats(ctx context.Context, asOf time.Time) (*request.Stats, error) {
	query := `
		SELECT status, jurisdiction, COUNT(*),
			COUNT(*) FILTER (WHERE overdue_at <= $1 AND status <> ALL($2))
		FROM requests
		GROUP BY status, jurisdiction
	`
	rows, err := r.executor().QueryContext(ctx, query, asOf, pq.Array(overdueExcluded()))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query request stats")
	}
	defer rows.Close()

	st := &request.Stats{
		ByStatus:       make(map[request.Status]int64),
		ByJurisdiction: make(map[jurisdiction.Code]int64),
	}
	for rows.Next() {
		var (
			status, code   string
			count, overdue int64
		)
		if err := rows.Scan(&status, &code, &count, &overdue); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan request stats")
		}
		st.Total += count
		st.Overdue += overdue
		st.ByStatus[request.Status(status)] += count
		st.ByJurisdiction[jurisdiction.Code(code)] += count
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate request stats")
	}
	return st, nil
}

func (r *postgresRequestRepo) query(ctx context.Context, query string, args ...interface{}) ([]*request.Record, error) {
	rows, err := r.executor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query requests")
	}
	defer rows.Close()

	out := make([]*request.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate requests")
	}
	return out, nil
}

// scannedRequest is a row as read, before its JSON columns are decoded.
type scannedRequest struct {
	requestRow
	rec       request.Record
	code      string
	status    string
	unit      string
	overdueAt time.Time
}

// scanRecord returns sql.ErrNoRows unwrapped so that Get can map it.
func scanRecord(row scanner) (*request.Record, error) {
	sr, err := scanRequest(row)
	if err != nil {
		return nil, err
	}
	return sr.decode()
}

func scanRequest(row scanner) (*scannedRequest, error) {
	sr := &scannedRequest{}
	rec := &sr.rec
	err := row.Scan(
		&rec.ID, &rec.ReferenceID, &rec.Agency, &sr.code, &rec.Topic, &rec.TemplateID, &rec.DocumentKey,
		pq.Array(&sr.flags), &sr.status, &rec.DateFiled, &rec.Deadline, &sr.overdueAt,
		&sr.history, &sr.notes, &sr.extension, &sr.response, pq.Array(&sr.exemptions), &sr.fee,
		&rec.Version, &rec.CreatedAt, &rec.UpdatedAt, &sr.unit,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan request")
	}
	return sr, nil
}

func (sr *scannedRequest) decode() (*request.Record, error) {
	rec := sr.rec
	rec.Jurisdiction = jurisdiction.Code(sr.code)
	rec.DeadlineUnit = jurisdiction.Unit(sr.unit)
	for _, f := range sr.flags {
		rec.Flags = append(rec.Flags, jurisdiction.Condition(f))
	}
	if err := unmarshalJSON(sr.history, &rec.History, "history"); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(sr.notes, &rec.Notes, "notes"); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(sr.extension, &rec.Extension, "extension"); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(sr.response, &rec.Response, "response"); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(sr.fee, &rec.Fee, "fee"); err != nil {
		return nil, err
	}
	if rec.Notes == nil {
		rec.Notes = []request.Note{}
	}
	rec.Response.Exemptions = append([]string{}, sr.exemptions...)

	// Day-granular deadlines are UTC midnights; keep them in UTC so the
	// date arithmetic in the domain sees the same calendar day.
	rec.DateFiled = rec.DateFiled.UTC()
	rec.Deadline = rec.Deadline.UTC()
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()

	if s := rec.Status(); string(s) != sr.status {
		return nil, errors.Validation("status column disagrees with history").
			WithDetail(fmt.Sprintf("id=%s column=%s history=%s", rec.ID, sr.status, s))
	}
	return &rec, nil
}

func terminalStatuses() []string {
	var out []string
	for _, s := range request.AllStatuses {
		if s.IsTerminal() {
			out = append(out, string(s))
		}
	}
	return out
}

func overdueExcluded() []string {
	var out []string
	for _, s := range request.AllStatuses {
		if request.ExcludedFromOverdue(s) {
			out = append(out, string(s))
		}
	}
	return out
}

var _ request.Repository = (*postgresRequestRepo)(nil)

//Personal.AI order the ending
