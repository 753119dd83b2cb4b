package model

import "time"

// Config stores the application configuration.
type Config struct {
	BotToken           string
	GuildID            string
	GroupChannelID     string
	AdminIDs           []string
	MuteRoleID         string
	LogChannelID       string
	DBPath             string
	ForbiddenWordsPath string
	SweepInterval      time.Duration
	ReportInterval     time.Duration
	WizardTTL          time.Duration
	ResolverCacheTTL   time.Duration
	MetricsAddr        string
	LogLevel           string
	LogFormat          string
}

// IsAdmin reports whether userID is on the static administrator allow-list.
func (c *Config) IsAdmin(userID string) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
