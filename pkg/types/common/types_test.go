package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_Validate_ValidUUID(t *testing.T) {
	id := ID("550e8400-e29b-41d4-a716-446655440000")
	assert.NoError(t, id.Validate())
}

func TestID_Validate_EmptyString(t *testing.T) {
	err := ID("").Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestID_Validate_InvalidFormat(t *testing.T) {
	err := ID("not-a-uuid").Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ID format")
}

func TestNewID_GeneratesValidUUID(t *testing.T) {
	assert.NoError(t, NewID().Validate())
	assert.NotEqual(t, NewID(), NewID())
}

func TestDateOf_TruncatesToMidnightUTC(t *testing.T) {
	in := time.Date(2024, 3, 15, 23, 59, 1, 5, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), DateOf(in))

	loc := time.FixedZone("IST", 5*3600+1800)
	local := time.Date(2024, 3, 16, 1, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), DateOf(local))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("05/01/2024")
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 11, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, 10, DaysBetween(a, b))
	assert.Equal(t, -10, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))
}

func TestPage_Normalize(t *testing.T) {
	assert.Equal(t, Page{Limit: 20, Offset: 0}, Page{}.Normalize())
	assert.Equal(t, Page{Limit: 100, Offset: 5}, Page{Limit: 1000, Offset: 5}.Normalize())
	assert.Equal(t, Page{Limit: 10, Offset: 0}, Page{Limit: 10, Offset: -3}.Normalize())
}

func TestFixedClock(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	var c Clock = FixedClock{T: ts}
	assert.Equal(t, ts, c.Now())
	assert.Equal(t, time.UTC, SystemClock{}.Now().Location())
}

func TestZoneClock_ReportsLocalWallTimeAsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+14", 14*3600)
	now := ZoneClock{Location: loc}.Now()
	local := time.Now().In(loc)

	assert.Equal(t, time.UTC, now.Location())
	y, m, d := local.Date()
	// Allow for a midnight rollover between the two reads.
	if now.Day() == d {
		assert.Equal(t, time.Date(y, m, d, 0, 0, 0, 0, time.UTC), DateOf(now))
	}
	assert.Equal(t, time.UTC, ZoneClock{}.Now().Location())
}

//Personal.AI order the ending
