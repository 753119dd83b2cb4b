package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	tests := map[string]time.Duration{
		"":                      0,
		"0":                     0,
		"   ":                   0,
		"1h":                    time.Hour,
		"30m":                   30 * time.Minute,
		"2d":                    48 * time.Hour,
		"45s":                   45 * time.Second,
		"1H":                    time.Hour,
		" 10M ":                 10 * time.Minute,
		"garbage":               0,
		"10":                    0,
		"h":                     0,
		"1w":                    0,
		"-5m":                   0,
		"1h30m":                 0,
		"106751d":               106751 * 24 * time.Hour,
		"106752d":               MaxDuration,
		"200000d":               MaxDuration,
		"999999999999999999d":   MaxDuration,
		"99999999999999999999s": MaxDuration,
	}

	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, ParseDuration(input))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "30 sec", FormatDuration(30*time.Second))
	assert.Equal(t, "30 min", FormatDuration(30*time.Minute))
	assert.Equal(t, "1 h", FormatDuration(time.Hour))
	assert.Equal(t, "23 h", FormatDuration(23*time.Hour+59*time.Minute))
	assert.Equal(t, "2 d", FormatDuration(48*time.Hour))
}
