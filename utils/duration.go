package utils

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var durationPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

var durationUnits = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
}

// MaxDuration is the longest duration ParseDuration returns.
const MaxDuration = time.Duration(math.MaxInt64)

// ParseDuration converts a token such as "30m" or "2d" into a duration.
// Empty input, "0" and anything unparseable yield 0, which callers treat as unbounded.
// Well-formed tokens too large to represent are clamped to MaxDuration.
func ParseDuration(token string) time.Duration {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" || token == "0" {
		return 0
	}
	matches := durationPattern.FindStringSubmatch(token)
	if matches == nil {
		return 0
	}
	n, err := strconv.ParseInt(matches[1], 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return MaxDuration
	}
	if err != nil {
		return 0
	}
	unit := durationUnits[matches[2]]
	if n > int64(MaxDuration/unit) {
		return MaxDuration
	}
	return time.Duration(n) * unit
}

// FormatDuration renders d in its largest whole unit, e.g. "90 min" or "2 d".
func FormatDuration(d time.Duration) string {
	seconds := int64(d / time.Second)
	switch {
	case seconds < 60:
		return fmt.Sprintf("%d sec", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%d min", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%d h", seconds/3600)
	default:
		return fmt.Sprintf("%d d", seconds/86400)
	}
}
