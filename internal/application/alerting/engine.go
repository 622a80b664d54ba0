// internal/application/alerting/engine.go
//
// Periodic deadline scan.  For every request still awaiting an answer the
// engine evaluates the jurisdiction's thresholds, raises each crossed alert
// at most once, and persists the constructive denial on the first overdue
// crossing.
//
// Dependencies:
//   Depends on: domain/request, domain/alert, application/ports
//   Depended by: cmd/worker, interfaces/http/handlers, interfaces/cli

package alerting

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/foia-tracker/internal/application/ports"
	"github.com/turtacn/foia-tracker/internal/domain/alert"
	"github.com/turtacn/foia-tracker/internal/domain/request"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/pkg/errors"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

// Actor is recorded on transitions made by the scan.
const Actor = "alert-engine"

// ---------------------------------------------------------------------------
// Results
// ---------------------------------------------------------------------------

// ScanWarning describes a record the scan could not fully process.
type ScanWarning struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message"`
}

// ScanResult is the outcome of one scan.
type ScanResult struct {
	AsOf         time.Time      `json:"as_of"`
	Alerts       []*alert.Alert `json:"alerts"`
	Transitioned []string       `json:"transitioned"`
	Warnings     []ScanWarning  `json:"warnings"`
	Scanned      int            `json:"scanned"`
}

func (r *ScanResult) warn(requestID string, err error) {
	w := ScanWarning{RequestID: requestID, Message: err.Error()}
	if code := errors.GetCode(err); code != errors.CodeOK && code != errors.CodeUnknown {
		w.Code = string(code)
	}
	r.Warnings = append(r.Warnings, w)
}

// ---------------------------------------------------------------------------
// Engine
// ---------------------------------------------------------------------------

// Engine runs deadline scans.
type Engine interface {
	// Scan evaluates every open request at asOf.  A zero asOf means now.
	// Per-record failures are reported as warnings; only a failure to read
	// the request set fails the scan.
	Scan(ctx context.Context, asOf time.Time) (*ScanResult, error)

	// List returns stored alerts.
	List(ctx context.Context, opts alert.ListOptions) ([]*alert.Alert, int64, error)

	// SetThresholds swaps the threshold set used by later scans.
	SetThresholds(set *alert.ThresholdSet)

	// Thresholds returns the set in use.
	Thresholds() *alert.ThresholdSet
}

// Option configures optional collaborators.
type Option func(*engineImpl)

// WithClock replaces the system clock.
func WithClock(c common.Clock) Option { return func(e *engineImpl) { e.clock = c } }

// WithThresholds sets the initial threshold set.
func WithThresholds(s *alert.ThresholdSet) Option { return func(e *engineImpl) { e.thresholds = s } }

// WithPublisher sets where raised alerts are published.
func WithPublisher(p ports.EventPublisher) Option { return func(e *engineImpl) { e.publisher = p } }

// WithLocker serializes scans across processes.
func WithLocker(l ports.ScanLocker) Option { return func(e *engineImpl) { e.locker = l } }

// WithMetrics sets the metrics sink.
func WithMetrics(m ports.Metrics) Option { return func(e *engineImpl) { e.metrics = m } }

type engineImpl struct {
	requests  request.Repository
	alerts    alert.Repository
	logger    logging.Logger
	clock     common.Clock
	publisher ports.EventPublisher
	locker    ports.ScanLocker
	metrics   ports.Metrics

	mu         sync.RWMutex
	thresholds *alert.ThresholdSet
}

// NewEngine constructs an alert Engine.
func NewEngine(requests request.Repository, alerts alert.Repository, logger logging.Logger, opts ...Option) Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	e := &engineImpl{
		requests:   requests,
		alerts:     alerts,
		logger:     logger.Named("alerting"),
		clock:      common.SystemClock{},
		publisher:  ports.NopPublisher{},
		metrics:    ports.NopMetrics{},
		thresholds: alert.DefaultThresholdSet(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *engineImpl) SetThresholds(set *alert.ThresholdSet) {
	if set == nil {
		return
	}
	e.mu.Lock()
	e.thresholds = set
	e.mu.Unlock()
	e.logger.Info("alert thresholds replaced")
}

func (e *engineImpl) Thresholds() *alert.ThresholdSet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.thresholds
}

func (e *engineImpl) List(ctx context.Context, opts alert.ListOptions) ([]*alert.Alert, int64, error) {
	return e.alerts.List(ctx, opts)
}

func (e *engineImpl) Scan(ctx context.Context, asOf time.Time) (*ScanResult, error) {
	started := time.Now()
	if asOf.IsZero() {
		asOf = e.clock.Now()
	}
	res := &ScanResult{AsOf: asOf, Alerts: []*alert.Alert{}, Transitioned: []string{}, Warnings: []ScanWarning{}}

	if e.locker != nil {
		release, acquired, err := e.locker.TryLock(ctx)
		switch {
		case err != nil:
			// Alert uniqueness is enforced by the store, so scanning unlocked is safe.
			e.logger.Warn("scan lock unavailable, scanning without it", logging.Err(err))
			res.warn("", errors.Wrap(err, errors.ErrCodeLockNotAcquired, "scan lock unavailable"))
		case !acquired:
			e.logger.Info("scan skipped, lock held elsewhere")
			res.warn("", errors.New(errors.ErrCodeLockNotAcquired, "scan already running elsewhere"))
			return res, nil
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					e.logger.Warn("failed to release scan lock", logging.Err(err))
				}
			}()
		}
	}

	records, broken, err := e.requests.ListOpen(ctx)
	if err != nil {
		e.logger.Error("failed to load open requests", logging.Err(err))
		return nil, err
	}
	for _, b := range broken {
		e.logger.Warn("skipping unreadable request", logging.RequestID(b.ID), logging.Err(b.Err))
		res.warn(b.ID, b.Err)
	}

	set := e.Thresholds()
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.scanRecord(ctx, rec, set, asOf, res)
	}

	e.metrics.ScanCompleted(time.Since(started), res.Scanned, len(res.Warnings))
	e.logger.Info("scan finished",
		logging.Time("as_of", asOf),
		logging.Int("scanned", res.Scanned),
		logging.Int("alerts", len(res.Alerts)),
		logging.Int("transitioned", len(res.Transitioned)),
		logging.Int("warnings", len(res.Warnings)),
		logging.Duration("took", time.Since(started)))
	return res, nil
}

func awaitingResponse(s request.Status) bool {
	return s.IsPending() || s == request.StatusConstructiveDenial
}

func (e *engineImpl) scanRecord(ctx context.Context, rec *request.Record, set *alert.ThresholdSet, asOf time.Time, res *ScanResult) {
	if err := rec.Validate(); err != nil {
		e.logger.Warn("skipping malformed request", logging.RequestID(rec.ID), logging.Err(err))
		res.warn(rec.ID, err)
		return
	}
	if !awaitingResponse(rec.Status()) {
		return
	}
	res.Scanned++

	sub := alert.Subject{
		RequestID:    rec.ID,
		Agency:       rec.Agency,
		Jurisdiction: rec.Jurisdiction,
		Deadline:     rec.Deadline,
	}
	overdueAt := rec.OverdueAt()
	for _, t := range set.For(rec.Jurisdiction) {
		if !t.Crossed(rec.Deadline, overdueAt, asOf) {
			continue
		}
		a := alert.New(sub, t, asOf)
		inserted, err := e.alerts.Insert(ctx, a)
		if err != nil {
			e.logger.Warn("failed to store alert",
				logging.RequestID(rec.ID), logging.String("threshold", t.ID), logging.Err(err))
			res.warn(rec.ID, err)
			continue
		}
		if !inserted {
			continue
		}
		res.Alerts = append(res.Alerts, a)
		e.metrics.AlertEmitted(string(a.Kind), a.ThresholdID)
		if err := e.publisher.AlertRaised(ctx, a); err != nil {
			e.logger.Warn("failed to publish alert",
				logging.RequestID(rec.ID), logging.String("threshold", t.ID), logging.Err(err))
		}
	}

	if rec.Status().IsPending() && rec.IsOverdue(asOf) {
		read := rec.Version
		from := rec.Status()
		if err := rec.MarkConstructiveDenial(asOf, Actor); err != nil {
			res.warn(rec.ID, err)
			return
		}
		if err := e.requests.Update(ctx, rec, read); err != nil {
			e.logger.Warn("failed to persist constructive denial", logging.RequestID(rec.ID), logging.Err(err))
			res.warn(rec.ID, err)
			return
		}
		e.metrics.StatusChanged(string(from), string(request.StatusConstructiveDenial))
		res.Transitioned = append(res.Transitioned, rec.ID)
	}
}

//Personal.AI order the ending
