package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"00:00:00", 0},
		{"00:01:30", 90},
		{"01:02:03", 3723},
		{"10:00:00", 36000},
		{"100:00:00", 360000},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseDurationRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "90", "1:30", "01:02:03:04", "aa:bb:cc", "-1:00:00", "00:60:00", "00:00:60", "00:1.5:00"} {
		_, err := ParseDuration(in)
		assert.Error(t, err, in)
	}
}

func TestTotalMinutes(t *testing.T) {
	// 3723s + 1800s = 5523s, 92 whole minutes.
	assert.Equal(t, 92, TotalMinutes([]string{"01:02:03", "00:30:00"}))
}

func TestTotalMinutesEmpty(t *testing.T) {
	assert.Equal(t, 0, TotalMinutes(nil))
	assert.Equal(t, 0, TotalMinutes([]string{}))
}

func TestTotalMinutesSkipsBadEntries(t *testing.T) {
	assert.Equal(t, 30, TotalMinutes([]string{"00:30:00", "", "not-a-duration"}))
}
