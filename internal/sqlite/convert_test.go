package sqlite

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimeSortsLexically(t *testing.T) {
	a := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	b := a.Add(time.Nanosecond)
	c := time.Date(2026, 1, 2, 4, 4, 5, 6, time.FixedZone("CET", 3600))

	assert.Less(t, formatTime(a), formatTime(b))
	assert.Equal(t, formatTime(a.Add(-time.Hour).Add(time.Hour)), formatTime(a))
	assert.Equal(t, formatTime(a), formatTime(c), "zones are normalized to UTC")

	got, err := parseTime(formatTime(c))
	require.NoError(t, err)
	assert.True(t, got.Equal(c))
	assert.Equal(t, time.UTC, got.Location())
}

func TestNullableConversions(t *testing.T) {
	assert.Nil(t, nullTime(nil))
	assert.Nil(t, nullDate(nil))
	assert.Nil(t, nullString(""))
	assert.Equal(t, "x", nullString("x"))

	d := time.Date(2000, 2, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2000-02-29", nullDate(&d))

	parsed, err := parseNullDate(sql.NullString{String: "2000-02-29", Valid: true})
	require.NoError(t, err)
	assert.True(t, parsed.Equal(d))

	parsed, err = parseNullTime(sql.NullString{})
	require.NoError(t, err)
	assert.Nil(t, parsed)
}

func TestListEncoding(t *testing.T) {
	s, err := encodeList(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", s)

	values, err := decodeList(s)
	require.NoError(t, err)
	assert.Nil(t, values)

	s, err = encodeList([]string{"a", "b,c"})
	require.NoError(t, err)
	values, err = decodeList(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b,c"}, values)

	_, err = decodeList("not json")
	assert.Error(t, err)
}
