package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"unix ms", "1700000000000", 1700000000000},
		{"negative ms", "-1500", -1500},
		{"rfc3339 utc", "2023-11-14T22:13:20Z", 1700000000000},
		{"rfc3339 offset", "2023-11-15T00:13:20+02:00", 1700000000000},
		{"fractional seconds", "2023-11-14T22:13:20.250Z", 1700000000250},
		{"naive is utc", "2023-11-14T22:13:20", 1700000000000},
		{"space separator", "2023-11-14 22:13:20", 1700000000000},
		{"date only", "1970-01-02", 86_400_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTimestampRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "1700000000.5", "yesterday", "2023-13-01", "-", "1e12"} {
		_, err := ParseTimestamp(in)
		assert.ErrorIs(t, err, ErrInvalidTimestamp, in)
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := NormalizeTimestamp(ts)
	require.NoError(t, err)
	assert.Equal(t, ts.UnixMilli(), got)

	got, err = NormalizeTimestamp(42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	_, err = NormalizeTimestamp(4.2)
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}

func TestFormatISO(t *testing.T) {
	assert.Equal(t, "2023-11-14T22:13:20.000Z", FormatISO(1700000000000))
}
