// internal/application/tracking/service.go
//
// Application service for tracked public-records requests.
// Owns record creation, the status machine entry points, analyzer and
// transport callbacks, and the overdue / statistics queries.
//
// Dependencies:
//   Depends on: domain/request, domain/jurisdiction, domain/appeal, application/ports
//   Depended by: interfaces/http/handlers, interfaces/cli, cmd/worker

package tracking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/foia-tracker/internal/application/ports"
	"github.com/turtacn/foia-tracker/internal/domain/appeal"
	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/internal/domain/request"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/pkg/errors"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

// DefaultActor is recorded in history when the context carries no actor.
const DefaultActor = "system"

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// CreateInput is the generator payload plus tracking metadata.
type CreateInput struct {
	ReferenceID        string    `json:"reference_id,omitempty"`
	Agency             string    `json:"agency"`
	Jurisdiction       string    `json:"jurisdiction"`
	Topic              string    `json:"topic"`
	TemplateID         string    `json:"template_id,omitempty"`
	RenderedText       string    `json:"rendered_text,omitempty"`
	DateFiled          time.Time `json:"date_filed"`
	Flags              []string  `json:"flags,omitempty"`
	FeeWaiverRequested bool      `json:"fee_waiver_requested,omitempty"`
}

// ListInput filters a record listing.
type ListInput struct {
	Jurisdiction string `json:"jurisdiction,omitempty"`
	Status       string `json:"status,omitempty"`
	Agency       string `json:"agency,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Offset       int    `json:"offset,omitempty"`
}

// ListResult is one page of records.
type ListResult = common.PageResponse[*request.Record]

// UpdateStatusInput moves a record through its status machine.
// ExpectedVersion is the version the caller read; zero means "the current
// stored version".
type UpdateStatusInput struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	Note            string `json:"note,omitempty"`
	ExpectedVersion int    `json:"expected_version,omitempty"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

// Service defines the application-level contract for request tracking.
type Service interface {
	// Create registers a newly filed request and computes its deadline.
	Create(ctx context.Context, in *CreateInput) (*request.Record, error)

	// Get returns a single record.
	Get(ctx context.Context, id string) (*request.Record, error)

	// List returns records matching the filters.
	List(ctx context.Context, in *ListInput) (*ListResult, error)

	// UpdateStatus applies a manual status transition.
	UpdateStatus(ctx context.Context, in *UpdateStatusInput) (*request.Record, error)

	// ConfirmFiling re-anchors the filing date to the transport confirmation.
	ConfirmFiling(ctx context.Context, conf request.FilingConfirmation) (*request.Record, error)

	// RecordResponse applies an analyzer event.
	RecordResponse(ctx context.Context, ev request.ResponseEvent) (*request.Record, error)

	// ApplyExtension grants the jurisdiction's statutory extension.
	ApplyExtension(ctx context.Context, id, reason string) (*request.Record, error)

	// AddNote appends a free-text note.
	AddNote(ctx context.Context, id, text string) (*request.Record, error)

	// GetOverdue lists records past their deadline at asOf.
	GetOverdue(ctx context.Context, asOf time.Time) ([]*request.Record, error)

	// Stats summarizes the store at the clock's now.
	Stats(ctx context.Context) (*request.Stats, error)

	// Document returns the rendered request text stored at filing time.
	Document(ctx context.Context, id string) ([]byte, error)
}

// AppealLister is the slice of the appeal store tracking needs to decide
// whether an appealed record may be closed.
type AppealLister interface {
	ListByRequest(ctx context.Context, requestID string) ([]*appeal.Record, error)
}

// Option configures optional collaborators.
type Option func(*serviceImpl)

// WithClock replaces the system clock.
func WithClock(c common.Clock) Option { return func(s *serviceImpl) { s.clock = c } }

// WithPublisher sets the event publisher.
func WithPublisher(p ports.EventPublisher) Option { return func(s *serviceImpl) { s.publisher = p } }

// WithDocumentStore sets where rendered request text is kept.
func WithDocumentStore(d ports.DocumentStore) Option { return func(s *serviceImpl) { s.docs = d } }

// WithCache fronts Get with a record cache.
func WithCache(c ports.RecordCache) Option { return func(s *serviceImpl) { s.cache = c } }

// WithAppeals enables the open-round check when leaving Appealed.
func WithAppeals(a AppealLister) Option { return func(s *serviceImpl) { s.appeals = a } }

// WithMetrics sets the metrics sink.
func WithMetrics(m ports.Metrics) Option { return func(s *serviceImpl) { s.metrics = m } }

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type serviceImpl struct {
	repo      request.Repository
	calc      *jurisdiction.Calculator
	logger    logging.Logger
	clock     common.Clock
	publisher ports.EventPublisher
	docs      ports.DocumentStore
	cache     ports.RecordCache
	appeals   AppealLister
	metrics   ports.Metrics
}

// NewService constructs a tracking Service.
func NewService(repo request.Repository, calc *jurisdiction.Calculator, logger logging.Logger, opts ...Option) Service {
	if calc == nil {
		calc = jurisdiction.DefaultCalculator()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &serviceImpl{
		repo:      repo,
		calc:      calc,
		logger:    logger.Named("tracking"),
		clock:     common.SystemClock{},
		publisher: ports.NopPublisher{},
		metrics:   ports.NopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DocumentKey is the object key for a request's rendered text.
func DocumentKey(id string) string {
	return "requests/" + id + "/request.txt"
}

func (s *serviceImpl) Create(ctx context.Context, in *CreateInput) (*request.Record, error) {
	if in == nil {
		return nil, errors.InvalidParam("create input is required")
	}
	code, err := s.calc.Registry().Normalize(in.Jurisdiction)
	if err != nil {
		return nil, err
	}
	flags, err := jurisdiction.ParseConditions(in.Flags)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	rec, err := request.NewRecord(request.NewRecordInput{
		ReferenceID:        in.ReferenceID,
		Agency:             in.Agency,
		Jurisdiction:       code,
		Topic:              in.Topic,
		TemplateID:         in.TemplateID,
		DateFiled:          in.DateFiled,
		Flags:              flags,
		FeeWaiverRequested: in.FeeWaiverRequested,
	}, s.calc, now)
	if err != nil {
		return nil, err
	}
	rec.History[0].Actor = ports.ActorFrom(ctx, DefaultActor)

	if s.docs != nil && in.RenderedText != "" {
		key := DocumentKey(rec.ID)
		if err := s.docs.PutDocument(ctx, key, "text/plain; charset=utf-8", []byte(in.RenderedText)); err != nil {
			s.logger.Error("failed to store request text", logging.RequestID(rec.ID), logging.Err(err))
			return nil, errors.Wrap(err, errors.ErrCodeStorageError, "store request text")
		}
		rec.DocumentKey = key
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		s.logger.Error("failed to create request", logging.RequestID(rec.ID), logging.Err(err))
		return nil, err
	}
	s.metrics.RequestCreated(string(rec.Jurisdiction))

	ev := ports.RequestFiledEvent{
		RequestID:    rec.ID,
		ReferenceID:  rec.ReferenceID,
		Agency:       rec.Agency,
		Jurisdiction: string(rec.Jurisdiction),
		TemplateID:   rec.TemplateID,
		DocumentKey:  rec.DocumentKey,
		DateFiled:    rec.DateFiled,
		Deadline:     rec.Deadline,
	}
	if err := s.publisher.RequestFiled(ctx, ev); err != nil {
		// The record is durable; the transport can be re-driven from it.
		s.logger.Warn("failed to publish request.filed", logging.RequestID(rec.ID), logging.Err(err))
	}

	s.logger.Info("request created",
		logging.RequestID(rec.ID),
		logging.Jurisdiction(string(rec.Jurisdiction)),
		logging.String("deadline", rec.Deadline.Format(time.RFC3339)))
	return rec, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (*request.Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.InvalidParam("request id is required")
	}
	if s.cache != nil {
		return s.cache.Get(ctx, id, func(ctx context.Context) (*request.Record, error) {
			return s.repo.Get(ctx, id)
		})
	}
	return s.repo.Get(ctx, id)
}

func (s *serviceImpl) List(ctx context.Context, in *ListInput) (*ListResult, error) {
	if in == nil {
		in = &ListInput{}
	}
	opts := []request.ListOption{request.WithLimit(in.Limit), request.WithOffset(in.Offset)}
	if in.Jurisdiction != "" {
		code, err := s.calc.Registry().Normalize(in.Jurisdiction)
		if err != nil {
			return nil, err
		}
		opts = append(opts, request.WithJurisdiction(code))
	}
	if in.Status != "" {
		st, err := request.ParseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		opts = append(opts, request.WithStatus(st))
	}
	if in.Agency != "" {
		opts = append(opts, request.WithAgency(in.Agency))
	}

	applied := request.ApplyListOptions(opts...)
	records, total, err := s.repo.List(ctx, opts...)
	if err != nil {
		s.logger.Error("failed to list requests", logging.Err(err))
		return nil, err
	}
	return &ListResult{
		Items:  records,
		Total:  total,
		Limit:  applied.Limit,
		Offset: applied.Offset,
	}, nil
}

func (s *serviceImpl) UpdateStatus(ctx context.Context, in *UpdateStatusInput) (*request.Record, error) {
	if in == nil {
		return nil, errors.InvalidParam("update input is required")
	}
	to, err := request.ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, in.ID, in.ExpectedVersion, func(rec *request.Record, now time.Time, actor string) error {
		from := rec.Status()
		if from == request.StatusAppealed && to.IsTerminal() {
			if err := s.checkAppealsConcluded(ctx, rec, to); err != nil {
				return err
			}
		}
		if err := rec.Transition(to, strings.TrimSpace(in.Note), actor, now); err != nil {
			return err
		}
		s.metrics.StatusChanged(string(from), string(to))
		return nil
	})
}

func (s *serviceImpl) checkAppealsConcluded(ctx context.Context, rec *request.Record, to request.Status) error {
	if s.appeals == nil {
		return nil
	}
	rounds, err := s.appeals.ListByRequest(ctx, rec.ID)
	if err != nil {
		return err
	}
	if appeal.AllConcluded(rounds) {
		return nil
	}
	open := appeal.Latest(rounds)
	return errors.InvalidTransition(string(rec.Status()), string(to)).
		WithDetail(fmt.Sprintf("current=%s attempted=%s: appeal round %d is %s",
			rec.Status(), to, open.Round, open.Status()))
}

func (s *serviceImpl) ConfirmFiling(ctx context.Context, conf request.FilingConfirmation) (*request.Record, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if conf.Failed {
		// Failures go back to the caller; the record stays as filed.
		s.logger.Warn("filing transport reported failure",
			logging.RequestID(conf.RequestID), logging.String("reason", conf.Error))
		return nil, errors.New(errors.ErrCodeFilingFailed, "filing failed").
			WithDetail(fmt.Sprintf("id=%s reason=%s", conf.RequestID, conf.Error))
	}
	return s.mutate(ctx, conf.RequestID, 0, func(rec *request.Record, now time.Time, actor string) error {
		return rec.ConfirmFiling(s.calc, conf.FiledAt, now, actor)
	})
}

func (s *serviceImpl) RecordResponse(ctx context.Context, ev request.ResponseEvent) (*request.Record, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, ev.RequestID, 0, func(rec *request.Record, now time.Time, actor string) error {
		from := rec.Status()
		if err := rec.RecordResponse(ev, actor, now); err != nil {
			return err
		}
		s.metrics.StatusChanged(string(from), string(rec.Status()))
		return nil
	})
}

func (s *serviceImpl) ApplyExtension(ctx context.Context, id, reason string) (*request.Record, error) {
	return s.mutate(ctx, id, 0, func(rec *request.Record, now time.Time, actor string) error {
		return rec.ApplyExtension(s.calc, reason, actor, now)
	})
}

func (s *serviceImpl) AddNote(ctx context.Context, id, text string) (*request.Record, error) {
	return s.mutate(ctx, id, 0, func(rec *request.Record, now time.Time, actor string) error {
		return rec.AddNote(text, actor, now)
	})
}

func (s *serviceImpl) GetOverdue(ctx context.Context, asOf time.Time) ([]*request.Record, error) {
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}
	out, err := s.repo.ListOverdue(ctx, asOf)
	if err != nil {
		s.logger.Error("failed to list overdue requests", logging.Err(err))
		return nil, err
	}
	return out, nil
}

func (s *serviceImpl) Stats(ctx context.Context) (*request.Stats, error) {
	return s.repo.Stats(ctx, s.clock.Now())
}

func (s *serviceImpl) Document(ctx context.Context, id string) ([]byte, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.DocumentKey == "" || s.docs == nil {
		return nil, errors.NotFound("request text").WithDetail("id=" + id)
	}
	return s.docs.GetDocument(ctx, rec.DocumentKey)
}

// mutate loads a record, applies fn and performs a conditional write at the
// version that was read.  ConcurrentModification is returned as-is; the
// caller decides whether to reload.
func (s *serviceImpl) mutate(ctx context.Context, id string, expected int,
	fn func(rec *request.Record, now time.Time, actor string) error) (*request.Record, error) {

	if strings.TrimSpace(id) == "" {
		return nil, errors.InvalidParam("request id is required")
	}
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if expected > 0 && expected != rec.Version {
		return nil, errors.ConcurrentModification(id, expected)
	}
	read := rec.Version

	if err := fn(rec, s.clock.Now(), ports.ActorFrom(ctx, DefaultActor)); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, rec, read); err != nil {
		if !errors.IsConflict(err) {
			s.logger.Error("failed to update request", logging.RequestID(id), logging.Err(err))
		}
		return nil, err
	}
	s.invalidate(ctx, id)
	return rec, nil
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("failed to invalidate cached request", logging.RequestID(id), logging.Err(err))
	}
}

//Personal.AI order the ending
