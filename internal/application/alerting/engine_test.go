package alerting

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/foia-tracker/internal/domain/alert"
	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/internal/domain/request"
	"github.com/turtacn/foia-tracker/internal/infrastructure/database/memory"
	"github.com/turtacn/foia-tracker/internal/testutil"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	engine   Engine
	requests *memory.RequestStore
	alerts   *memory.AlertStore
	pub      *testutil.RecordingPublisher
	logger   *testutil.MockLogger
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		requests: memory.NewRequestStore(),
		alerts:   memory.NewAlertStore(),
		pub:      &testutil.RecordingPublisher{},
		logger:   testutil.NewMockLogger(),
	}
	f.engine = NewEngine(f.requests, f.alerts, f.logger, append([]Option{WithPublisher(f.pub)}, opts...)...)
	return f
}

func seed(t *testing.T, repo request.Repository, code jurisdiction.Code, filed time.Time) *request.Record {
	t.Helper()
	r, err := request.NewRecord(request.NewRecordInput{
		Agency: "Agency " + string(code), Jurisdiction: code, Topic: "records", DateFiled: filed,
	}, jurisdiction.DefaultCalculator(), filed)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), r))
	return r
}

func thresholdIDs(list []*alert.Alert) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ThresholdID)
	}
	return out
}

func TestScan_ThresholdProgressionIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := seed(t, f.requests, jurisdiction.USFederal, day(2024, 1, 2)) // due 2024-01-31

	res, err := f.engine.Scan(ctx, day(2024, 1, 15))
	require.NoError(t, err)
	assert.Empty(t, res.Alerts)
	assert.Equal(t, 1, res.Scanned)

	res, err = f.engine.Scan(ctx, day(2024, 1, 22))
	require.NoError(t, err)
	assert.Equal(t, []string{"T-10"}, thresholdIDs(res.Alerts))

	res, err = f.engine.Scan(ctx, day(2024, 1, 22))
	require.NoError(t, err)
	assert.Empty(t, res.Alerts, "second scan at the same instant must not re-emit")

	res, err = f.engine.Scan(ctx, day(2024, 1, 29))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"T-5", "T-2"}, thresholdIDs(res.Alerts))
	assert.Empty(t, res.Transitioned)

	// The last day of the period is not yet overdue.
	res, err = f.engine.Scan(ctx, time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, res.Alerts)

	res, err = f.engine.Scan(ctx, day(2024, 2, 1))
	require.NoError(t, err)
	require.Equal(t, []string{"overdue"}, thresholdIDs(res.Alerts))
	assert.Equal(t, []string{rec.ID}, res.Transitioned)
	assert.Contains(t, res.Alerts[0].GuidanceText, "552(a)(6)(A)")
	assert.Contains(t, res.Alerts[0].Message, "overdue")

	stored, _ := f.requests.Get(ctx, rec.ID)
	assert.Equal(t, request.StatusConstructiveDenial, stored.Status())
	assert.Equal(t, Actor, stored.History[len(stored.History)-1].Actor)

	res, err = f.engine.Scan(ctx, day(2024, 2, 2))
	require.NoError(t, err)
	assert.Empty(t, res.Alerts)
	assert.Empty(t, res.Transitioned)

	all, total, err := f.engine.List(ctx, alert.ListOptions{RequestID: rec.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, all, 4)
	assert.Len(t, f.pub.Alerts, 4)
}

func TestScan_FirstScanLateEmitsAllCrossed(t *testing.T) {
	f := newFixture(t)
	seed(t, f.requests, jurisdiction.India, day(2024, 1, 1)) // due 2024-01-31

	res, err := f.engine.Scan(context.Background(), day(2024, 2, 10))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"T-10", "T-5", "T-2", "overdue"}, thresholdIDs(res.Alerts))
	for _, a := range res.Alerts {
		if a.Kind == alert.KindOverdue {
			assert.Contains(t, a.GuidanceText, "19(1)")
		}
	}
}

func TestScan_HoursDeadlineOverdueAtInstant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	filed := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	r, err := request.NewRecord(request.NewRecordInput{
		Agency: "CPIO", Jurisdiction: jurisdiction.India, Topic: "custody", DateFiled: filed,
		Flags: []jurisdiction.Condition{jurisdiction.ConditionLifeOrLiberty},
	}, jurisdiction.DefaultCalculator(), filed)
	require.NoError(t, err)
	require.NoError(t, f.requests.Create(ctx, r))

	res, err := f.engine.Scan(ctx, time.Date(2024, 3, 6, 9, 29, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NotContains(t, thresholdIDs(res.Alerts), "overdue")

	res, err = f.engine.Scan(ctx, time.Date(2024, 3, 6, 9, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, thresholdIDs(res.Alerts), "overdue")
	assert.Equal(t, []string{r.ID}, res.Transitioned)
}

func TestScan_SkipsAnsweredRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := seed(t, f.requests, jurisdiction.USFederal, day(2024, 1, 2))
	stored, _ := f.requests.Get(ctx, rec.ID)
	require.NoError(t, stored.RecordResponse(request.ResponseEvent{RequestID: rec.ID, PagesReceived: 3}, "t", day(2024, 1, 20)))
	require.NoError(t, f.requests.Update(ctx, stored, 1))

	res, err := f.engine.Scan(ctx, day(2024, 3, 1))
	require.NoError(t, err)
	assert.Zero(t, res.Scanned)
	assert.Empty(t, res.Alerts)
}

func TestScan_PerThresholdOverrides(t *testing.T) {
	set, err := alert.NewThresholdSet(alert.DefaultThresholds(), map[jurisdiction.Code][]alert.Threshold{
		jurisdiction.UK: {
			{ID: "T-3", Kind: alert.KindUpcoming, OffsetDays: 3, Level: alert.LevelUrgent},
			{ID: "overdue", Kind: alert.KindOverdue, Level: alert.LevelOverdue},
		},
	})
	require.NoError(t, err)
	f := newFixture(t, WithThresholds(set))
	seed(t, f.requests, jurisdiction.UK, day(2024, 1, 2)) // due 2024-01-30

	res, err := f.engine.Scan(context.Background(), day(2024, 1, 27))
	require.NoError(t, err)
	assert.Equal(t, []string{"T-3"}, thresholdIDs(res.Alerts))

	f.engine.SetThresholds(alert.DefaultThresholdSet())
	assert.Equal(t, alert.DefaultThresholdSet().For(jurisdiction.UK), f.engine.Thresholds().For(jurisdiction.UK))
}

type conflictingRepo struct {
	*memory.RequestStore
}

func (c conflictingRepo) Update(_ context.Context, r *request.Record, expected int) error {
	return errors.ConcurrentModification(r.ID, expected)
}

func TestScan_WarningsDoNotAbort(t *testing.T) {
	store := memory.NewRequestStore()
	repo := conflictingRepo{store}
	alerts := memory.NewAlertStore()
	logger := testutil.NewMockLogger()
	engine := NewEngine(repo, alerts, logger)
	ctx := context.Background()

	good := seed(t, store, jurisdiction.USFederal, day(2024, 1, 2))
	broken := &request.Record{ID: "broken", Agency: "X", Jurisdiction: jurisdiction.USFederal, Deadline: day(2024, 1, 1)}
	require.NoError(t, store.Create(ctx, broken))

	res, err := engine.Scan(ctx, day(2024, 2, 5))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Scanned)
	assert.Len(t, res.Alerts, 4)
	assert.Empty(t, res.Transitioned)
	require.Len(t, res.Warnings, 2)

	codes := map[string]string{}
	for _, w := range res.Warnings {
		codes[w.RequestID] = w.Code
	}
	assert.Equal(t, string(errors.ErrCodeValidation), codes["broken"])
	assert.Equal(t, string(errors.ErrCodeConcurrentModification), codes[good.ID])
	assert.True(t, logger.HasMessage("warn", "constructive denial"))
}

type unreadableRowsRepo struct {
	*memory.RequestStore
	broken []request.LoadError
}

func (u unreadableRowsRepo) ListOpen(ctx context.Context) ([]*request.Record, []request.LoadError, error) {
	list, _, err := u.RequestStore.ListOpen(ctx)
	return list, u.broken, err
}

func TestScan_UnreadableRowsBecomeWarnings(t *testing.T) {
	store := memory.NewRequestStore()
	repo := unreadableRowsRepo{RequestStore: store, broken: []request.LoadError{{
		ID:  "corrupt",
		Err: errors.Wrap(stderrors.New("invalid character 'n'"), errors.ErrCodeSerialization, "failed to decode history"),
	}}}
	logger := testutil.NewMockLogger()
	engine := NewEngine(repo, memory.NewAlertStore(), logger)
	ctx := context.Background()
	good := seed(t, store, jurisdiction.USFederal, day(2024, 1, 2))

	res, err := engine.Scan(ctx, day(2024, 2, 5))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Scanned)
	assert.Contains(t, res.Transitioned, good.ID)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "corrupt", res.Warnings[0].RequestID)
	assert.Equal(t, string(errors.ErrCodeSerialization), res.Warnings[0].Code)
	assert.True(t, logger.HasMessage("warn", "unreadable request"))
}

type fakeLocker struct {
	acquired bool
	err      error
	released int
}

func (l *fakeLocker) TryLock(context.Context) (func(context.Context) error, bool, error) {
	if l.err != nil || !l.acquired {
		return nil, false, l.err
	}
	return func(context.Context) error { l.released++; return nil }, true, nil
}

func TestScan_Lock(t *testing.T) {
	ctx := context.Background()

	held := &fakeLocker{acquired: false}
	f := newFixture(t, WithLocker(held))
	seed(t, f.requests, jurisdiction.USFederal, day(2024, 1, 2))
	res, err := f.engine.Scan(ctx, day(2024, 2, 5))
	require.NoError(t, err)
	assert.Empty(t, res.Alerts)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, string(errors.ErrCodeLockNotAcquired), res.Warnings[0].Code)

	free := &fakeLocker{acquired: true}
	f = newFixture(t, WithLocker(free))
	seed(t, f.requests, jurisdiction.USFederal, day(2024, 1, 2))
	res, err = f.engine.Scan(ctx, day(2024, 2, 5))
	require.NoError(t, err)
	assert.Len(t, res.Alerts, 4)
	assert.Equal(t, 1, free.released)

	broken := &fakeLocker{err: stderrors.New("redis: connection refused")}
	f = newFixture(t, WithLocker(broken))
	seed(t, f.requests, jurisdiction.USFederal, day(2024, 1, 2))
	res, err = f.engine.Scan(ctx, day(2024, 2, 5))
	require.NoError(t, err)
	assert.Len(t, res.Alerts, 4)
	assert.Len(t, res.Warnings, 1)
}

func TestScan_ZeroAsOfUsesClock(t *testing.T) {
	clock := testutil.NewManualClock(day(2024, 1, 22))
	f := newFixture(t, WithClock(clock))
	seed(t, f.requests, jurisdiction.USFederal, day(2024, 1, 2))

	res, err := f.engine.Scan(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 22), res.AsOf)
	assert.Equal(t, []string{"T-10"}, thresholdIDs(res.Alerts))
}

//Personal.AI order the ending
