package redis

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/internal/domain/request"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

func testRecord(t *testing.T) *request.Record {
	t.Helper()
	filed := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	rec, err := request.NewRecord(request.NewRecordInput{
		Agency:       "Department of Energy",
		Jurisdiction: jurisdiction.USFederal,
		Topic:        "reactor inspection reports",
		DateFiled:    filed,
	}, jurisdiction.DefaultCalculator(), filed)
	require.NoError(t, err)
	return rec
}

func TestRecordCache_MissLoadsThenHits(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewRecordCache(client, logging.NewNopLogger(), WithoutJitter())
	ctx := context.Background()
	rec := testRecord(t)

	loads := 0
	load := func(context.Context) (*request.Record, error) {
		loads++
		return rec, nil
	}

	got, err := cache.Get(ctx, rec.ID, load)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, 10*time.Minute, mr.TTL("foia:request:"+rec.ID))

	got, err = cache.Get(ctx, rec.ID, load)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
	assert.True(t, rec.Deadline.Equal(got.Deadline))
	assert.Equal(t, rec.Status(), got.Status())
	assert.Equal(t, rec.Version, got.Version)
}

func TestRecordCache_AccessObserver(t *testing.T) {
	client, _ := newTestClient(t)
	var seen []bool
	cache := NewRecordCache(client, logging.NewNopLogger(), WithAccessObserver(func(hit bool) { seen = append(seen, hit) }))
	rec := testRecord(t)
	load := func(context.Context) (*request.Record, error) { return rec, nil }

	_, err := cache.Get(context.Background(), rec.ID, load)
	require.NoError(t, err)
	_, err = cache.Get(context.Background(), rec.ID, load)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, seen)
}

func TestRecordCache_Invalidate(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewRecordCache(client, logging.NewNopLogger())
	ctx := context.Background()
	rec := testRecord(t)

	_, err := cache.Get(ctx, rec.ID, func(context.Context) (*request.Record, error) { return rec, nil })
	require.NoError(t, err)
	require.True(t, mr.Exists("foia:request:"+rec.ID))

	require.NoError(t, cache.Invalidate(ctx, rec.ID))
	assert.False(t, mr.Exists("foia:request:"+rec.ID))
}

func TestRecordCache_LoadErrorNotCached(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewRecordCache(client, logging.NewNopLogger())

	_, err := cache.Get(context.Background(), "missing", func(context.Context) (*request.Record, error) {
		return nil, errors.RequestNotFound("missing")
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeRequestNotFound))
	assert.False(t, mr.Exists("foia:request:missing"))
}

func TestRecordCache_ConcurrentMissesShareOneLoad(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewRecordCache(client, logging.NewNopLogger())
	rec := testRecord(t)

	var loads int32
	gate := make(chan struct{})
	load := func(context.Context) (*request.Record, error) {
		atomic.AddInt32(&loads, 1)
		<-gate
		return rec, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := cache.Get(context.Background(), rec.ID, load)
			assert.NoError(t, err)
			assert.Equal(t, rec.ID, got.ID)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&loads), int32(2))
}

func TestRecordCache_ExpiryJitterWithinTenPercent(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewRecordCache(client, logging.NewNopLogger(), WithCacheTTL(time.Minute))
	for i := 0; i < 50; i++ {
		d := cache.expiry()
		assert.GreaterOrEqual(t, d, 54*time.Second)
		assert.LessOrEqual(t, d, 66*time.Second)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Fault handling against a scripted server
// ─────────────────────────────────────────────────────────────────────────────

type RecordCacheFaultSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	cache *RecordCache
}

func (s *RecordCacheFaultSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	log := logging.NewNopLogger()

	cfg := &RedisConfig{KeyPrefix: "test:"}
	applyDefaults(cfg)
	client := &Client{rdb: db, config: cfg, logger: log}
	s.cache = NewRecordCache(client, log, WithoutJitter())
}

func (s *RecordCacheFaultSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *RecordCacheFaultSuite) TestReadFailureFallsBackToLoader() {
	rec := testRecord(s.T())
	data, err := json.Marshal(rec)
	s.Require().NoError(err)

	s.mock.ExpectGet("test:request:" + rec.ID).SetErr(context.DeadlineExceeded)
	s.mock.ExpectSet("test:request:"+rec.ID, data, 10*time.Minute).SetVal("OK")

	got, err := s.cache.Get(context.Background(), rec.ID, func(context.Context) (*request.Record, error) { return rec, nil })
	s.Require().NoError(err)
	s.Equal(rec.ID, got.ID)
}

func (s *RecordCacheFaultSuite) TestCorruptEntryIsReloaded() {
	rec := testRecord(s.T())
	data, err := json.Marshal(rec)
	s.Require().NoError(err)

	s.mock.ExpectGet("test:request:" + rec.ID).SetVal("{not json")
	s.mock.ExpectSet("test:request:"+rec.ID, data, 10*time.Minute).SetVal("OK")

	got, err := s.cache.Get(context.Background(), rec.ID, func(context.Context) (*request.Record, error) { return rec, nil })
	s.Require().NoError(err)
	s.Equal(rec.Agency, got.Agency)
}

func (s *RecordCacheFaultSuite) TestWriteFailureStillReturnsRecord() {
	rec := testRecord(s.T())
	data, err := json.Marshal(rec)
	s.Require().NoError(err)

	s.mock.ExpectGet("test:request:" + rec.ID).RedisNil()
	s.mock.ExpectSet("test:request:"+rec.ID, data, 10*time.Minute).SetErr(context.DeadlineExceeded)

	got, err := s.cache.Get(context.Background(), rec.ID, func(context.Context) (*request.Record, error) { return rec, nil })
	s.Require().NoError(err)
	s.Equal(rec.ID, got.ID)
}

func (s *RecordCacheFaultSuite) TestInvalidateFailure() {
	s.mock.ExpectDel("test:request:r1").SetErr(context.DeadlineExceeded)

	err := s.cache.Invalidate(context.Background(), "r1")
	s.True(errors.IsCode(err, errors.ErrCodeCacheError))
}

func TestRecordCacheFaultSuite(t *testing.T) {
	suite.Run(t, new(RecordCacheFaultSuite))
}

//Personal.AI order the ending
