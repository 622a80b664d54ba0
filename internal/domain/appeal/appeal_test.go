package appeal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newRound(t *testing.T, round int) *Record {
	t.Helper()
	a, err := NewRecord(NewRecordInput{
		RequestID:     "req-1",
		Round:         round,
		Jurisdiction:  jurisdiction.India,
		Type:          TypeConstructiveDenial,
		Grounds:       ConstructiveDenialGrounds(jurisdiction.India),
		AnchorDate:    day(2024, 1, 31),
		FiledDeadline: day(2024, 3, 1),
	}, day(2024, 2, 2))
	require.NoError(t, err)
	return a
}

func TestNewRecord(t *testing.T) {
	a := newRound(t, 1)
	assert.Equal(t, StatusDrafted, a.Status())
	assert.Contains(t, a.Body, "19(1)")

	second := newRound(t, 2)
	assert.Contains(t, second.Body, "19(3)")

	_, err := NewRecord(NewRecordInput{RequestID: "r", Round: 0, Grounds: []Ground{{}}}, day(2024, 1, 1))
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = NewRecord(NewRecordInput{RequestID: "r", Round: 1}, day(2024, 1, 1))
	assert.Error(t, err)
}

func TestRecord_Transition(t *testing.T) {
	a := newRound(t, 1)

	err := a.Transition(StatusGranted, "", day(2024, 2, 3))
	assert.True(t, errors.IsCode(err, errors.ErrCodeAppealInvalidTransition))

	require.NoError(t, a.Transition(StatusFiled, "sent", day(2024, 2, 3)))
	require.NoError(t, a.Transition(StatusAcknowledged, "", day(2024, 2, 5)))
	require.NoError(t, a.Transition(StatusDenied, "upheld", day(2024, 2, 20)))
	assert.True(t, a.Status().IsTerminal())
	assert.Equal(t, day(2024, 2, 20), a.DecidedAt())

	err = a.Transition(StatusWithdrawn, "", day(2024, 2, 21))
	assert.Error(t, err)
}

func TestRecord_WithdrawFromAnyOpenState(t *testing.T) {
	for _, s := range []Status{StatusDrafted, StatusFiled, StatusAcknowledged} {
		assert.True(t, CanTransition(s, StatusWithdrawn), s)
	}
	assert.False(t, CanTransition(StatusGranted, StatusWithdrawn))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("PartiallyGranted")
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyGranted, s)

	_, err = ParseStatus("lost")
	assert.Error(t, err)
}

func TestLatestAndAllConcluded(t *testing.T) {
	one := newRound(t, 1)
	two := newRound(t, 2)
	require.NoError(t, one.Transition(StatusWithdrawn, "", day(2024, 2, 3)))

	assert.Equal(t, two, Latest([]*Record{two, one}))
	assert.Nil(t, Latest(nil))
	assert.False(t, AllConcluded([]*Record{one, two}))
	assert.True(t, AllConcluded([]*Record{one}))
	assert.True(t, AllConcluded(nil))
}

func TestRecord_MarshalJSON(t *testing.T) {
	raw, err := json.Marshal(newRound(t, 1))
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "drafted", out["status"])
	assert.Equal(t, "constructive_denial", out["appeal_type"])
}

//Personal.AI order the ending
