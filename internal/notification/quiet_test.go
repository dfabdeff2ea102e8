package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clockAt(hour, minute int) time.Time {
	return time.Date(2025, time.March, 10, hour, minute, 0, 0, time.Local)
}

func TestInQuietHours_WrapsMidnight(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"late evening inside", clockAt(23, 15), true},
		{"early morning inside", clockAt(8, 30), true},
		{"midday outside", clockAt(12, 30), false},
		{"start boundary inclusive", clockAt(22, 0), true},
		{"end boundary exclusive", clockAt(9, 0), false},
		{"just before start", clockAt(21, 59), false},
		{"midnight inside", clockAt(0, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InQuietHours(tt.now, true, "22:00", "09:00"))
		})
	}
}

func TestInQuietHours_SameDayWindow(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before window", clockAt(12, 59), false},
		{"at start", clockAt(13, 0), true},
		{"inside", clockAt(14, 30), true},
		{"at end", clockAt(15, 0), false},
		{"after window", clockAt(18, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InQuietHours(tt.now, true, "13:00", "15:00"))
		})
	}
}

func TestInQuietHours_Disabled(t *testing.T) {
	assert.False(t, InQuietHours(clockAt(23, 15), false, "22:00", "09:00"))
}

func TestInQuietHours_StartEqualsEnd(t *testing.T) {
	// A degenerate window is never active rather than always active.
	assert.False(t, InQuietHours(clockAt(22, 0), true, "22:00", "22:00"))
	assert.False(t, InQuietHours(clockAt(3, 0), true, "22:00", "22:00"))
}

func TestInQuietHours_InvalidBounds(t *testing.T) {
	assert.False(t, InQuietHours(clockAt(23, 0), true, "not-a-time", "09:00"))
	assert.False(t, InQuietHours(clockAt(23, 0), true, "22:00", "25:61"))
	assert.False(t, InQuietHours(clockAt(23, 0), true, "", ""))
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		value   string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{" 08:15 ", 495, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"12", 0, true},
		{"ab:cd", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseClock(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
