package tracking

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/foia-tracker/internal/application/ports"
	"github.com/turtacn/foia-tracker/internal/domain/appeal"
	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/internal/domain/request"
	"github.com/turtacn/foia-tracker/internal/infrastructure/database/memory"
	"github.com/turtacn/foia-tracker/internal/testutil"
	"github.com/turtacn/foia-tracker/pkg/errors"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	svc     Service
	repo    *memory.RequestStore
	appeals *memory.AppealStore
	clock   *testutil.ManualClock
	pub     *testutil.RecordingPublisher
	docs    *testutil.MemoryDocuments
	logger  *testutil.MockLogger
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		repo:    memory.NewRequestStore(),
		appeals: memory.NewAppealStore(),
		clock:   testutil.NewManualClock(day(2024, 1, 10)),
		pub:     &testutil.RecordingPublisher{},
		docs:    testutil.NewMemoryDocuments(),
		logger:  testutil.NewMockLogger(),
	}
	base := []Option{
		WithClock(f.clock),
		WithPublisher(f.pub),
		WithDocumentStore(f.docs),
		WithAppeals(f.appeals),
	}
	f.svc = NewService(f.repo, jurisdiction.DefaultCalculator(), f.logger, append(base, opts...)...)
	return f
}

func usInput() *CreateInput {
	return &CreateInput{
		Agency:       "Federal Bureau of Investigation",
		Jurisdiction: "us",
		Topic:        "surveillance contracts",
		TemplateID:   "tpl-1",
		RenderedText: "Dear FOIA Officer, ...",
		DateFiled:    day(2024, 1, 2),
	}
}

func create(t *testing.T, f *fixture, in *CreateInput) *request.Record {
	t.Helper()
	rec, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	return rec
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreate_ComputesDeadlineStoresTextAndPublishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.WithValue(context.Background(), common.ContextKeyActor, "alice")

	rec, err := f.svc.Create(ctx, usInput())
	require.NoError(t, err)

	assert.Equal(t, jurisdiction.USFederal, rec.Jurisdiction)
	assert.Equal(t, day(2024, 1, 31), rec.Deadline)
	assert.Equal(t, request.StatusFiled, rec.Status())
	assert.Equal(t, "alice", rec.History[0].Actor)
	assert.Equal(t, DocumentKey(rec.ID), rec.DocumentKey)

	body, err := f.docs.GetDocument(ctx, rec.DocumentKey)
	require.NoError(t, err)
	assert.Equal(t, "Dear FOIA Officer, ...", string(body))

	require.Len(t, f.pub.Filed, 1)
	assert.Equal(t, rec.ID, f.pub.Filed[0].RequestID)
	assert.Equal(t, rec.DocumentKey, f.pub.Filed[0].DocumentKey)
	assert.Equal(t, "US-FEDERAL", f.pub.Filed[0].Jurisdiction)

	stored, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Deadline, stored.Deadline)
	assert.True(t, f.logger.HasMessage("info", "request created"))
}

func TestCreate_Flags(t *testing.T) {
	f := newFixture(t)
	rec := create(t, f, &CreateInput{
		Agency:       "CPIO, Ministry of Home Affairs",
		Jurisdiction: "RTI",
		Topic:        "detention records",
		DateFiled:    time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC),
		Flags:        []string{"life_or_liberty"},
	})
	assert.Equal(t, jurisdiction.India, rec.Jurisdiction)
	assert.Equal(t, time.Date(2024, 1, 11, 10, 0, 0, 0, time.UTC), rec.Deadline)
	assert.True(t, rec.HasFlag(jurisdiction.ConditionLifeOrLiberty))
}

func TestCreate_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := usInput()
	in.DateFiled = day(2024, 1, 11)
	_, err := f.svc.Create(ctx, in)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidFilingDate))

	in = usInput()
	in.Jurisdiction = "Atlantis"
	_, err = f.svc.Create(ctx, in)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownJurisdiction))

	in = usInput()
	in.Flags = []string{"very-urgent"}
	_, err = f.svc.Create(ctx, in)
	assert.True(t, errors.IsValidation(err))

	in = usInput()
	in.Agency = " "
	_, err = f.svc.Create(ctx, in)
	assert.True(t, errors.IsValidation(err))

	_, err = f.svc.Create(ctx, nil)
	assert.Error(t, err)

	_, total, _ := f.repo.List(ctx)
	assert.Zero(t, total)
	assert.Empty(t, f.pub.Filed)
}

func TestCreate_DocumentStoreFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.docs.Err = stderrors.New("bucket unavailable")

	_, err := f.svc.Create(context.Background(), usInput())
	assert.True(t, errors.IsCode(err, errors.ErrCodeStorageError))

	_, total, _ := f.repo.List(context.Background())
	assert.Zero(t, total)
}

func TestCreate_PublishFailureIsLoggedNotReturned(t *testing.T) {
	pub := &testutil.MockPublisher{}
	pub.On("RequestFiled", mock.Anything, mock.AnythingOfType("ports.RequestFiledEvent")).
		Return(stderrors.New("broker down")).Once()
	f := newFixture(t, WithPublisher(pub))

	rec, err := f.svc.Create(context.Background(), usInput())
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.True(t, f.logger.HasMessage("warn", "request.filed"))
	pub.AssertExpectations(t)
}

// ---------------------------------------------------------------------------
// Status machine
// ---------------------------------------------------------------------------

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := create(t, f, usInput())

	got, err := f.svc.UpdateStatus(ctx, &UpdateStatusInput{ID: rec.ID, Status: "Acknowledged", Note: "ack letter", ExpectedVersion: 1})
	require.NoError(t, err)
	assert.Equal(t, request.StatusAcknowledged, got.Status())
	assert.Equal(t, 2, got.Version)

	_, err = f.svc.UpdateStatus(ctx, &UpdateStatusInput{ID: rec.ID, Status: "filed", ExpectedVersion: 2})
	require.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))
	assert.Contains(t, err.Error(), "current=acknowledged attempted=filed")

	_, err = f.svc.UpdateStatus(ctx, &UpdateStatusInput{ID: rec.ID, Status: "constructive_denial"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))

	_, err = f.svc.UpdateStatus(ctx, &UpdateStatusInput{ID: rec.ID, Status: "closed", ExpectedVersion: 1})
	assert.True(t, errors.IsCode(err, errors.ErrCodeConcurrentModification))

	_, err = f.svc.UpdateStatus(ctx, &UpdateStatusInput{ID: rec.ID, Status: "closed", Note: "withdrawn"})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, &UpdateStatusInput{ID: rec.ID, Status: "resolved"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeRecordClosed))

	_, err = f.svc.UpdateStatus(ctx, &UpdateStatusInput{ID: rec.ID, Status: "bogus"})
	assert.True(t, errors.IsValidation(err))

	_, err = f.svc.UpdateStatus(ctx, &UpdateStatusInput{ID: "missing", Status: "closed"})
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdateStatus_AppealedNeedsConcludedRounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := create(t, f, usInput())

	_, err := f.svc.RecordResponse(ctx, request.ResponseEvent{
		RequestID: rec.ID, ReceivedAt: day(2024, 1, 9), PagesReceived: 10, PagesWithheld: 3, Exemptions: []string{"b5"},
	})
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, &UpdateStatusInput{ID: rec.ID, Status: "appealed"})
	require.NoError(t, err)

	round, err := appeal.NewRecord(appeal.NewRecordInput{
		RequestID: rec.ID, Round: 1, Jurisdiction: jurisdiction.USFederal, Type: appeal.TypePartialDenial,
		Grounds: []appeal.Ground{{Citation: "5 U.S.C. § 552(b)(5)", Argument: "x"}},
	}, f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, f.appeals.Create(ctx, round))

	_, err = f.svc.UpdateStatus(ctx, &UpdateStatusInput{ID: rec.ID, Status: "resolved"})
	require.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))
	assert.Contains(t, err.Error(), "appeal round 1 is drafted")

	require.NoError(t, round.Transition(appeal.StatusWithdrawn, "settled", f.clock.Now()))
	require.NoError(t, f.appeals.Update(ctx, round, 1))

	got, err := f.svc.UpdateStatus(ctx, &UpdateStatusInput{ID: rec.ID, Status: "resolved"})
	require.NoError(t, err)
	assert.Equal(t, request.StatusResolved, got.Status())
}

func TestConfirmFiling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := create(t, f, usInput())

	got, err := f.svc.ConfirmFiling(ctx, request.FilingConfirmation{RequestID: rec.ID, FiledAt: day(2024, 1, 5)})
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 5), got.DateFiled)
	assert.Equal(t, day(2024, 2, 5), got.Deadline)
	assert.Equal(t, request.StatusFiled, got.Status())

	_, err = f.svc.ConfirmFiling(ctx, request.FilingConfirmation{RequestID: rec.ID, Failed: true, Error: "smtp 550"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeFilingFailed))
	assert.True(t, f.logger.HasMessage("warn", "filing transport reported failure"))

	_, err = f.svc.ConfirmFiling(ctx, request.FilingConfirmation{RequestID: rec.ID})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidFilingDate))
}

func TestRecordResponseAndExtension(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := create(t, f, usInput())

	ext, err := f.svc.ApplyExtension(ctx, rec.ID, "unusual circumstances")
	require.NoError(t, err)
	assert.Equal(t, day(2024, 2, 14), ext.Deadline)

	_, err = f.svc.ApplyExtension(ctx, rec.ID, "again")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))

	fee := 25.0
	got, err := f.svc.RecordResponse(ctx, request.ResponseEvent{
		RequestID: rec.ID, PagesReceived: 40, FeeAssessed: &fee,
	})
	require.NoError(t, err)
	assert.Equal(t, request.StatusFullResponse, got.Status())
	require.NotNil(t, got.Fee.Assessed)
	assert.Equal(t, 25.0, *got.Fee.Assessed)

	_, err = f.svc.RecordResponse(ctx, request.ResponseEvent{RequestID: rec.ID, PagesWithheld: -1})
	assert.True(t, errors.IsValidation(err))
}

func TestApplyExtension_UnavailableJurisdiction(t *testing.T) {
	f := newFixture(t)
	rec := create(t, f, &CreateInput{Agency: "Home Office", Jurisdiction: "GB", Topic: "visas", DateFiled: day(2024, 1, 2)})

	_, err := f.svc.ApplyExtension(context.Background(), rec.ID, "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeExtensionNotAvailable))
}

func TestAddNote_AllowedOnClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := create(t, f, usInput())
	_, err := f.svc.UpdateStatus(ctx, &UpdateStatusInput{ID: rec.ID, Status: "closed"})
	require.NoError(t, err)

	got, err := f.svc.AddNote(ctx, rec.ID, "archived in box 4")
	require.NoError(t, err)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, DefaultActor, got.Notes[0].Actor)

	_, err = f.svc.AddNote(ctx, rec.ID, "  ")
	assert.True(t, errors.IsValidation(err))
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func TestGetOverdueListAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	late := create(t, f, usInput())
	create(t, f, &CreateInput{Agency: "Cabinet Office", Jurisdiction: "UK", Topic: "minutes", DateFiled: day(2024, 1, 10)})

	f.clock.Set(day(2024, 2, 2))
	overdue, err := f.svc.GetOverdue(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)
	assert.Equal(t, request.StatusConstructiveDenial, overdue[0].EffectiveStatus(f.clock.Now()))

	page, err := f.svc.List(ctx, &ListInput{Jurisdiction: "gb", Limit: 500})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, common.MaxPageLimit, page.Limit)

	_, err = f.svc.List(ctx, &ListInput{Status: "pending-forever"})
	assert.True(t, errors.IsValidation(err))

	st, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, st.Total)
	assert.EqualValues(t, 1, st.Overdue)
}

func TestDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := create(t, f, usInput())

	body, err := f.svc.Document(ctx, rec.ID)
	require.NoError(t, err)
	assert.Contains(t, string(body), "FOIA Officer")

	in := usInput()
	in.RenderedText = ""
	bare := create(t, f, in)
	_, err = f.svc.Document(ctx, bare.ID)
	assert.True(t, errors.IsNotFound(err))
}

type countingCache struct {
	loads       int
	invalidated []string
	entries     map[string]*request.Record
}

func (c *countingCache) Get(ctx context.Context, id string, load func(context.Context) (*request.Record, error)) (*request.Record, error) {
	if r, ok := c.entries[id]; ok {
		return r.Clone(), nil
	}
	c.loads++
	r, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.entries[id] = r.Clone()
	return r, nil
}

func (c *countingCache) Invalidate(_ context.Context, id string) error {
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

var _ ports.RecordCache = (*countingCache)(nil)

func TestGet_UsesCacheAndInvalidatesOnWrite(t *testing.T) {
	cache := &countingCache{entries: map[string]*request.Record{}}
	f := newFixture(t, WithCache(cache))
	ctx := context.Background()
	rec := create(t, f, usInput())

	for i := 0; i < 3; i++ {
		_, err := f.svc.Get(ctx, rec.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, cache.loads)

	_, err := f.svc.AddNote(ctx, rec.ID, "called the FOIA desk")
	require.NoError(t, err)
	assert.Equal(t, []string{rec.ID}, cache.invalidated)

	got, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, got.Notes, 1)
	assert.Equal(t, 2, cache.loads)
}

//Personal.AI order the ending
