package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/foia-tracker/internal/domain/alert"
	"github.com/turtacn/foia-tracker/internal/domain/appeal"
	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/internal/domain/request"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newRecord(t *testing.T, code jurisdiction.Code, agency string, filed time.Time) *request.Record {
	t.Helper()
	r, err := request.NewRecord(request.NewRecordInput{
		Agency:       agency,
		Jurisdiction: code,
		Topic:        "contracts",
		DateFiled:    filed,
	}, jurisdiction.DefaultCalculator(), filed)
	require.NoError(t, err)
	return r
}

func TestRequestStore_CreateGetIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewRequestStore()
	r := newRecord(t, jurisdiction.USFederal, "FBI", day(2024, 1, 2))

	require.NoError(t, s.Create(ctx, r))
	assert.True(t, errors.IsConflict(s.Create(ctx, r)))

	got, err := s.Get(ctx, r.ID)
	require.NoError(t, err)
	got.Agency = "mutated"
	again, _ := s.Get(ctx, r.ID)
	assert.Equal(t, "FBI", again.Agency)

	_, err = s.Get(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestRequestStore_UpdateVersionCheck(t *testing.T) {
	ctx := context.Background()
	s := NewRequestStore()
	r := newRecord(t, jurisdiction.USFederal, "FBI", day(2024, 1, 2))
	require.NoError(t, s.Create(ctx, r))

	a, _ := s.Get(ctx, r.ID)
	b, _ := s.Get(ctx, r.ID)

	require.NoError(t, a.Transition(request.StatusAcknowledged, "", "t", day(2024, 1, 3)))
	require.NoError(t, s.Update(ctx, a, 1))
	assert.Equal(t, 2, a.Version)

	require.NoError(t, b.AddNote("late writer", "t", day(2024, 1, 3)))
	err := s.Update(ctx, b, 1)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConcurrentModification))

	stored, _ := s.Get(ctx, r.ID)
	assert.Equal(t, request.StatusAcknowledged, stored.Status())
	assert.Empty(t, stored.Notes)
}

func TestRequestStore_ConcurrentUpdatesOneWins(t *testing.T) {
	ctx := context.Background()
	s := NewRequestStore()
	r := newRecord(t, jurisdiction.UK, "Home Office", day(2024, 1, 2))
	require.NoError(t, s.Create(ctx, r))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, _ := s.Get(ctx, r.ID)
			_ = rec.AddNote("n", "t", day(2024, 1, 3))
			if s.Update(ctx, rec, 1) == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestRequestStore_ListFiltersAndPaging(t *testing.T) {
	ctx := context.Background()
	s := NewRequestStore()
	for i := 0; i < 5; i++ {
		r := newRecord(t, jurisdiction.USFederal, "FBI", day(2024, 1, 2))
		r.CreatedAt = r.CreatedAt.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Create(ctx, r))
	}
	require.NoError(t, s.Create(ctx, newRecord(t, jurisdiction.UK, "Cabinet Office", day(2024, 1, 2))))

	all, total, err := s.List(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 6, total)
	assert.Len(t, all, 6)

	page, total, err := s.List(ctx, request.WithJurisdiction(jurisdiction.USFederal), request.WithLimit(2), request.WithOffset(4))
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, page, 1)

	uk, _, _ := s.List(ctx, request.WithAgency("cabinet office"))
	require.Len(t, uk, 1)
	assert.Equal(t, jurisdiction.UK, uk[0].Jurisdiction)

	none, total, _ := s.List(ctx, request.WithStatus(request.StatusClosed))
	assert.Empty(t, none)
	assert.Zero(t, total)
}

func TestRequestStore_OverdueOpenStats(t *testing.T) {
	ctx := context.Background()
	s := NewRequestStore()

	late := newRecord(t, jurisdiction.USFederal, "FBI", day(2024, 1, 2)) // due 2024-01-31
	onTime := newRecord(t, jurisdiction.USFederal, "CIA", day(2024, 3, 1))
	appealed := newRecord(t, jurisdiction.USFederal, "NSA", day(2024, 1, 2))
	require.NoError(t, appealed.RecordResponse(request.ResponseEvent{
		RequestID: appealed.ID, PagesReceived: 4, PagesWithheld: 2, Exemptions: []string{"b5"},
	}, "t", day(2024, 1, 10)))
	require.NoError(t, appealed.Transition(request.StatusAppealed, "", "t", day(2024, 1, 11)))
	closed := newRecord(t, jurisdiction.USFederal, "DOJ", day(2024, 1, 2))
	require.NoError(t, closed.Transition(request.StatusClosed, "withdrawn", "t", day(2024, 1, 3)))
	answered := newRecord(t, jurisdiction.USFederal, "DOE", day(2024, 1, 2))
	require.NoError(t, answered.RecordResponse(request.ResponseEvent{
		RequestID: answered.ID, PagesReceived: 12,
	}, "t", day(2024, 1, 5)))
	require.Equal(t, request.StatusFullResponse, answered.Status())

	for _, r := range []*request.Record{late, onTime, appealed, closed, answered} {
		require.NoError(t, s.Create(ctx, r))
	}

	asOf := day(2024, 2, 15)
	overdue, err := s.ListOverdue(ctx, asOf)
	require.NoError(t, err)
	require.Len(t, overdue, 1, "a fully answered request is not overdue")
	assert.Equal(t, late.ID, overdue[0].ID)

	open, broken, err := s.ListOpen(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 4)
	assert.Empty(t, broken)

	st, err := s.Stats(ctx, asOf)
	require.NoError(t, err)
	assert.EqualValues(t, 5, st.Total)
	assert.EqualValues(t, 1, st.Overdue)
	assert.EqualValues(t, 2, st.ByStatus[request.StatusFiled])
	assert.EqualValues(t, 1, st.ByStatus[request.StatusFullResponse])
	assert.EqualValues(t, 1, st.ByStatus[request.StatusClosed])
	assert.EqualValues(t, 5, st.ByJurisdiction[jurisdiction.USFederal])
}

func TestAlertStore_InsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewAlertStore()
	a := &alert.Alert{ID: "a1", RequestID: "r1", ThresholdID: "T-5", Kind: alert.KindUpcoming, GeneratedAt: day(2024, 1, 20)}

	var inserted int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Insert(ctx, a)
			if err == nil && ok {
				atomic.AddInt32(&inserted, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), inserted)

	exists, err := s.Exists(ctx, "r1", "T-5")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, _ = s.Exists(ctx, "r1", "overdue")
	assert.False(t, exists)
}

func TestAlertStore_List(t *testing.T) {
	ctx := context.Background()
	s := NewAlertStore()
	_, _ = s.Insert(ctx, &alert.Alert{RequestID: "r1", ThresholdID: "T-10", Kind: alert.KindUpcoming, GeneratedAt: day(2024, 1, 21)})
	_, _ = s.Insert(ctx, &alert.Alert{RequestID: "r1", ThresholdID: "overdue", Kind: alert.KindOverdue, GeneratedAt: day(2024, 2, 1)})
	_, _ = s.Insert(ctx, &alert.Alert{RequestID: "r2", ThresholdID: "T-10", Kind: alert.KindUpcoming, GeneratedAt: day(2024, 1, 25)})

	byReq, err := s.ListByRequest(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, byReq, 2)
	assert.Equal(t, "overdue", byReq[0].ThresholdID)

	overdue, total, err := s.List(ctx, alert.ListOptions{Kind: alert.KindOverdue})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "r1", overdue[0].RequestID)

	recent, _, _ := s.List(ctx, alert.ListOptions{Since: day(2024, 1, 22)})
	assert.Len(t, recent, 2)
}

func TestAppealStore(t *testing.T) {
	ctx := context.Background()
	s := NewAppealStore()
	now := day(2024, 3, 1)
	grounds := []appeal.Ground{{Citation: "5 U.S.C. § 552(a)(6)(C)(i)", Argument: "no response"}}

	first, err := appeal.NewRecord(appeal.NewRecordInput{RequestID: "r1", Round: 1, Jurisdiction: jurisdiction.USFederal,
		Type: appeal.TypeConstructiveDenial, Grounds: grounds}, now)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, first))

	dup, _ := appeal.NewRecord(appeal.NewRecordInput{RequestID: "r1", Round: 1, Jurisdiction: jurisdiction.USFederal,
		Type: appeal.TypeConstructiveDenial, Grounds: grounds}, now)
	assert.True(t, errors.IsConflict(s.Create(ctx, dup)))

	second, _ := appeal.NewRecord(appeal.NewRecordInput{RequestID: "r1", Round: 2, Jurisdiction: jurisdiction.USFederal,
		Type: appeal.TypeConstructiveDenial, Grounds: grounds}, now)
	require.NoError(t, s.Create(ctx, second))

	rounds, err := s.ListByRequest(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, 1, rounds[0].Round)
	assert.Equal(t, 2, rounds[1].Round)

	got, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	require.NoError(t, got.Transition(appeal.StatusFiled, "", now))
	require.NoError(t, s.Update(ctx, got, 1))
	assert.True(t, errors.IsCode(s.Update(ctx, got, 1), errors.ErrCodeConcurrentModification))

	_, err = s.Get(ctx, "nope")
	assert.True(t, errors.IsNotFound(err))
}

func TestDocumentStore(t *testing.T) {
	ctx := context.Background()
	s := NewDocumentStore()

	body := []byte("Please produce all contracts.")
	require.NoError(t, s.PutDocument(ctx, "requests/r1/request.txt", "text/plain", body))
	body[0] = 'X'

	got, err := s.GetDocument(ctx, "requests/r1/request.txt")
	require.NoError(t, err)
	assert.Equal(t, "Please produce all contracts.", string(got))

	_, err = s.GetDocument(ctx, "requests/r2/request.txt")
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.IsCode(s.PutDocument(ctx, "", "text/plain", body), errors.ErrCodeBadRequest))
}

//Personal.AI order the ending
