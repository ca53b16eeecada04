package timekeeper

import (
	"strconv"
	"strings"
	"time"

	"stillpoint/internal/core/model"
)

// ParseDuration reads "minutes[:seconds]". Seconds are clamped to [0,59],
// negative or unreadable minutes count as zero, and a zero total or more
// than two fields falls back to the default duration.
func ParseDuration(text string) time.Duration {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) > 2 {
		return model.DefaultDuration
	}
	minutes := parseField(parts[0])
	seconds := 0
	if len(parts) == 2 {
		seconds = min(max(parseField(parts[1]), 0), 59)
	}
	minutes = max(minutes, 0)

	total := time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
	if total <= 0 {
		return model.DefaultDuration
	}
	return total
}

func parseField(value string) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return parsed
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	rest := seconds % 60
	return twoDigits(minutes) + ":" + twoDigits(rest)
}

func twoDigits(value int) string {
	if value < 10 {
		return "0" + strconv.Itoa(value)
	}
	return strconv.Itoa(value)
}
