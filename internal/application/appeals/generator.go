// internal/application/appeals/generator.go
//
// Appeal generation.  Decides whether a request can be appealed, which kind
// of appeal it is and on what grounds, computes the filing deadline and
// moves the parent request to Appealed.  Prose is left to the downstream
// letter generator; this service only produces the structured record.
//
// Dependencies:
//   Depends on: domain/request, domain/appeal, domain/jurisdiction, application/ports
//   Depended by: interfaces/http/handlers, interfaces/cli

package appeals

import (
	"context"
	"encoding/json"
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

// DefaultActor is recorded on parent transitions when ctx carries none.
const DefaultActor = "appeal-generator"

// Generator defines the application-level contract for appeals.
type Generator interface {
	// Generate creates the next appeal round for a request.  override
	// grounds are appended after the computed ones.
	Generate(ctx context.Context, requestID string, override []appeal.Ground) (*appeal.Record, error)

	// UpdateAppealStatus runs the round's own status machine.
	UpdateAppealStatus(ctx context.Context, appealID, status, note string) (*appeal.Record, error)

	// GetAppeal returns one round.
	GetAppeal(ctx context.Context, appealID string) (*appeal.Record, error)

	// ListAppeals returns a request's rounds in order.
	ListAppeals(ctx context.Context, requestID string) ([]*appeal.Record, error)
}

// Option configures optional collaborators.
type Option func(*generatorImpl)

// WithClock replaces the system clock.
func WithClock(c common.Clock) Option { return func(g *generatorImpl) { g.clock = c } }

// WithPublisher sets where generated appeals are published.
func WithPublisher(p ports.EventPublisher) Option { return func(g *generatorImpl) { g.publisher = p } }

// WithDocumentStore keeps a JSON packet of each round.
func WithDocumentStore(d ports.DocumentStore) Option { return func(g *generatorImpl) { g.docs = d } }

// WithCache invalidates cached requests after parent updates.
func WithCache(c ports.RecordCache) Option { return func(g *generatorImpl) { g.cache = c } }

// WithMetrics sets the metrics sink.
func WithMetrics(m ports.Metrics) Option { return func(g *generatorImpl) { g.metrics = m } }

type generatorImpl struct {
	requests  request.Repository
	appeals   appeal.Repository
	calc      *jurisdiction.Calculator
	logger    logging.Logger
	clock     common.Clock
	publisher ports.EventPublisher
	docs      ports.DocumentStore
	cache     ports.RecordCache
	metrics   ports.Metrics
}

// NewGenerator constructs an appeal Generator.
func NewGenerator(requests request.Repository, appeals appeal.Repository, calc *jurisdiction.Calculator, logger logging.Logger, opts ...Option) Generator {
	if calc == nil {
		calc = jurisdiction.DefaultCalculator()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	g := &generatorImpl{
		requests:  requests,
		appeals:   appeals,
		calc:      calc,
		logger:    logger.Named("appeals"),
		clock:     common.SystemClock{},
		publisher: ports.NopPublisher{},
		metrics:   ports.NopMetrics{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// DocumentKey is the object key for a round's JSON packet.
func DocumentKey(requestID string, round int) string {
	return fmt.Sprintf("appeals/%s/round-%d.json", requestID, round)
}

// eligibility works out which round comes next.  previous is the denied
// round being escalated, if any.
func eligibility(rec *request.Record, rounds []*appeal.Record, eff request.Status) (round int, previous *appeal.Record, err error) {
	latest := appeal.Latest(rounds)
	switch eff {
	case request.StatusConstructiveDenial, request.StatusPartialResponse:
	case request.StatusFullResponse:
		if !rec.HasAdverseDetermination() {
			return 0, nil, errors.NotAppealable(string(eff)).
				WithDetail("status=full_response: response withheld nothing")
		}
	case request.StatusAppealed:
		if latest == nil {
			break
		}
		if latest.Status() != appeal.StatusDenied {
			return 0, nil, errors.NotAppealable(string(eff)).
				WithDetail(fmt.Sprintf("status=appealed: round %d is %s", latest.Round, latest.Status()))
		}
		previous = latest
	default:
		return 0, nil, errors.NotAppealable(string(eff))
	}
	if latest != nil {
		return latest.Round + 1, previous, nil
	}
	return 1, previous, nil
}

func checkOverride(override []appeal.Ground) ([]appeal.Ground, error) {
	out := make([]appeal.Ground, 0, len(override))
	for i, g := range override {
		g.Citation = strings.TrimSpace(g.Citation)
		g.Argument = strings.TrimSpace(g.Argument)
		if g.Citation == "" && g.Argument == "" {
			return nil, errors.Validation("override ground is empty").WithDetail(fmt.Sprintf("index=%d", i))
		}
		out = append(out, g)
	}
	return out, nil
}

func (g *generatorImpl) Generate(ctx context.Context, requestID string, override []appeal.Ground) (*appeal.Record, error) {
	extra, err := checkOverride(override)
	if err != nil {
		return nil, err
	}
	rec, err := g.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if s := rec.Status(); s.IsTerminal() {
		return nil, errors.RecordClosed(rec.ID, string(s))
	}
	rounds, err := g.appeals.ListByRequest(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	now := g.clock.Now()
	eff := rec.EffectiveStatus(now)
	round, previous, err := eligibility(rec, rounds, eff)
	if err != nil {
		return nil, err
	}

	typ, grounds := appeal.Decide(rec, previous, now)
	grounds = append(grounds, extra...)

	anchor := rec.DenialDate(now)
	if previous != nil {
		anchor = previous.DecidedAt()
	}
	deadline, err := g.calc.CalculateAppeal(string(rec.Jurisdiction), anchor)
	if err != nil {
		return nil, err
	}

	a, err := appeal.NewRecord(appeal.NewRecordInput{
		RequestID:     rec.ID,
		Round:         round,
		Jurisdiction:  rec.Jurisdiction,
		Type:          typ,
		Grounds:       grounds,
		AnchorDate:    anchor,
		FiledDeadline: deadline,
	}, now)
	if err != nil {
		return nil, err
	}

	// The parent write goes first: its version check serializes concurrent
	// first-round generation, and the (request_id, round) key covers the rest.
	// If Create then fails the parent stays Appealed with no round; a retry
	// decides and anchors from the status held before Appealed.
	if err := g.advanceParent(ctx, rec, round, now); err != nil {
		return nil, err
	}

	if g.docs != nil {
		if err := g.storePacket(ctx, a); err != nil {
			g.logger.Warn("failed to store appeal packet", logging.RequestID(rec.ID), logging.Err(err))
		}
	}
	if err := g.appeals.Create(ctx, a); err != nil {
		g.logger.Error("failed to persist appeal", logging.RequestID(rec.ID), logging.Int("round", round), logging.Err(err))
		return nil, err
	}
	g.metrics.AppealGenerated(string(a.Type))
	if err := g.publisher.AppealGenerated(ctx, a); err != nil {
		g.logger.Warn("failed to publish appeal", logging.RequestID(rec.ID), logging.Err(err))
	}

	g.logger.Info("appeal generated",
		logging.RequestID(rec.ID),
		logging.Jurisdiction(string(rec.Jurisdiction)),
		logging.Int("round", round),
		logging.String("type", string(a.Type)),
		logging.Int("grounds", len(a.Grounds)),
		logging.String("deadline", deadline.Format(common.DateLayout)))
	return a, nil
}

func (g *generatorImpl) advanceParent(ctx context.Context, rec *request.Record, round int, now time.Time) error {
	actor := ports.ActorFrom(ctx, DefaultActor)
	read := rec.Version
	note := fmt.Sprintf("appeal round %d generated", round)

	if rec.Status() == request.StatusAppealed {
		if err := rec.AddNote(note, actor, now); err != nil {
			return err
		}
	} else {
		from := rec.Status()
		if from.IsPending() {
			if err := rec.MarkConstructiveDenial(now, actor); err != nil {
				return err
			}
		}
		if err := rec.Transition(request.StatusAppealed, note, actor, now); err != nil {
			return err
		}
		g.metrics.StatusChanged(string(from), string(request.StatusAppealed))
	}
	if err := g.requests.Update(ctx, rec, read); err != nil {
		return err
	}
	if g.cache != nil {
		if err := g.cache.Invalidate(ctx, rec.ID); err != nil {
			g.logger.Warn("failed to invalidate cached request", logging.RequestID(rec.ID), logging.Err(err))
		}
	}
	return nil
}

func (g *generatorImpl) storePacket(ctx context.Context, a *appeal.Record) error {
	body, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encode appeal packet")
	}
	key := DocumentKey(a.RequestID, a.Round)
	if err := g.docs.PutDocument(ctx, key, "application/json", body); err != nil {
		return err
	}
	a.DocumentKey = key
	return nil
}

func (g *generatorImpl) UpdateAppealStatus(ctx context.Context, appealID, status, note string) (*appeal.Record, error) {
	to, err := appeal.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	a, err := g.appeals.Get(ctx, appealID)
	if err != nil {
		return nil, err
	}
	read := a.Version
	if err := a.Transition(to, strings.TrimSpace(note), g.clock.Now()); err != nil {
		return nil, err
	}
	if err := g.appeals.Update(ctx, a, read); err != nil {
		return nil, err
	}
	g.logger.Info("appeal status changed",
		logging.RequestID(a.RequestID), logging.Int("round", a.Round), logging.String("status", string(to)))
	return a, nil
}

func (g *generatorImpl) GetAppeal(ctx context.Context, appealID string) (*appeal.Record, error) {
	if strings.TrimSpace(appealID) == "" {
		return nil, errors.InvalidParam("appeal id is required")
	}
	return g.appeals.Get(ctx, appealID)
}

func (g *generatorImpl) ListAppeals(ctx context.Context, requestID string) ([]*appeal.Record, error) {
	if _, err := g.requests.Get(ctx, requestID); err != nil {
		return nil, err
	}
	return g.appeals.ListByRequest(ctx, requestID)
}

//Personal.AI order the ending
