package period

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMillis(t *testing.T) {
	tests := []struct {
		token string
		want  int64
	}{
		{"1m", 60_000},
		{"5m", 300_000},
		{"60m", 3_600_000},
		{"1h", 3_600_000},
		{"4H", 14_400_000},
		{" 1d ", 86_400_000},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ToMillis(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToMillisRejectsInvalid(t *testing.T) {
	for _, token := range []string{"", "m", "0m", "5s", "1w", "-5m", "1.5h", "5 m", "99999999999999999999m", "9999999999999999d"} {
		_, err := ToMillis(token)
		assert.ErrorIs(t, err, ErrInvalidTimeframe, token)
	}
}

func TestToMillisMonotonic(t *testing.T) {
	for _, unit := range []string{"m", "h", "d"} {
		prev := int64(0)
		for n := 1; n <= 500; n++ {
			got, err := ToMillis(strconv.Itoa(n) + unit)
			require.NoError(t, err)
			assert.Greater(t, got, prev)
			prev = got
		}
	}
}

func TestMillisToString(t *testing.T) {
	assert.Equal(t, "1h", MillisToString(3_600_000))
	assert.Equal(t, "90m", MillisToString(5_400_000))
	assert.Equal(t, "2d", MillisToString(2*MillisPerDay))
	assert.Equal(t, "1500ms", MillisToString(1500))
}

func TestBucketStart(t *testing.T) {
	assert.Equal(t, int64(1000), BucketStart(1000, 1000))
	assert.Equal(t, int64(1000), BucketStart(1999, 1000))
	assert.Equal(t, int64(2000), BucketStart(2000, 1000))
	assert.Equal(t, int64(-1000), BucketStart(-1, 1000))
	assert.Equal(t, int64(-2000), BucketStart(-1000-1, 1000))
}
