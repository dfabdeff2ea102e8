package notification

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// InQuietHours reports whether now falls inside the user's quiet-hours
// window. Bounds are "HH:MM" wall-clock strings compared against the
// process-local clock; no timezone is stored, so all users share the
// server's frame. A window with start > end wraps midnight. start == end
// means the window is never active.
func InQuietHours(now time.Time, enabled bool, start, end string) bool {
	if !enabled {
		return false
	}
	startMin, err := parseClock(start)
	if err != nil {
		return false
	}
	endMin, err := parseClock(end)
	if err != nil {
		return false
	}
	if startMin == endMin {
		return false
	}

	nowMin := now.Hour()*60 + now.Minute()
	if startMin < endMin {
		return nowMin >= startMin && nowMin < endMin
	}
	// Wraps midnight: the window covers [start, 24:00) and [00:00, end).
	return nowMin >= startMin || nowMin < endMin
}

// parseClock converts an "HH:MM" string to minutes since midnight.
func parseClock(value string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock value %q out of range", value)
	}
	return hours*60 + minutes, nil
}
