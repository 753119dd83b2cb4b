package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"group-moderator/model"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// DefaultConfigFile is the optional YAML file read on top of the environment.
const DefaultConfigFile = "data/config.yaml"

var defaults = map[string]interface{}{
	"db_path":              "data/moderation.db",
	"forbidden_words_path": "data/forbidden_words.txt",
	"sweep_interval":       "60s",
	"report_interval":      "24h",
	"wizard_ttl":           "10m",
	"resolver_cache_ttl":   "5m",
	"log_level":            "info",
	"log_format":           "console",
}

// Loader reads the configuration from the environment and an optional config file.
// Environment variables win over the file.
type Loader struct {
	v    *viper.Viper
	file string
}

// NewLoader creates a loader for configFile. An empty path disables the file.
func NewLoader(configFile string) *Loader {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	return &Loader{v: v, file: configFile}
}

// Load reads the .env file and the default config file.
func Load() (*model.Config, *Loader, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg(".env file not found, relying on environment variables")
	}
	loader := NewLoader(DefaultConfigFile)
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, loader, nil
}

// Load reads and validates the configuration.
func (l *Loader) Load() (*model.Config, error) {
	if l.file != "" {
		if _, err := os.Stat(l.file); err == nil {
			if err := l.v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", l.file, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", l.file, err)
		}
	}
	return l.build()
}

func (l *Loader) build() (*model.Config, error) {
	v := l.v
	cfg := &model.Config{
		BotToken:           v.GetString("bot_token"),
		GuildID:            v.GetString("guild_id"),
		GroupChannelID:     v.GetString("group_channel_id"),
		AdminIDs:           splitList(v.Get("admin_ids")),
		MuteRoleID:         v.GetString("mute_role_id"),
		LogChannelID:       v.GetString("log_channel_id"),
		DBPath:             v.GetString("db_path"),
		ForbiddenWordsPath: v.GetString("forbidden_words_path"),
		SweepInterval:      v.GetDuration("sweep_interval"),
		ReportInterval:     v.GetDuration("report_interval"),
		WizardTTL:          v.GetDuration("wizard_ttl"),
		ResolverCacheTTL:   v.GetDuration("resolver_cache_ttl"),
		MetricsAddr:        v.GetString("metrics_addr"),
		LogLevel:           strings.ToLower(v.GetString("log_level")),
		LogFormat:          strings.ToLower(v.GetString("log_format")),
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *model.Config) error {
	var errs []error
	required := []struct{ key, value string }{
		{"BOT_TOKEN", cfg.BotToken},
		{"GUILD_ID", cfg.GuildID},
		{"GROUP_CHANNEL_ID", cfg.GroupChannelID},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s is not set", r.key))
		}
	}
	durations := []struct {
		key   string
		value time.Duration
	}{
		{"SWEEP_INTERVAL", cfg.SweepInterval},
		{"WIZARD_TTL", cfg.WizardTTL},
		{"RESOLVER_CACHE_TTL", cfg.ResolverCacheTTL},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be a positive duration", d.key))
		}
	}
	if cfg.ReportInterval < 0 {
		errs = append(errs, errors.New("REPORT_INTERVAL must not be negative"))
	}
	if len(cfg.AdminIDs) == 0 {
		log.Warn().Msg("ADMIN_IDS is empty, nobody can use the moderation commands")
	}
	if cfg.LogChannelID == "" {
		log.Warn().Msg("LOG_CHANNEL_ID not set, channel logging will be disabled")
	}
	return errors.Join(errs...)
}

// Watch calls onChange with the new configuration whenever the config file changes.
// Invalid edits are logged and ignored.
func (l *Loader) Watch(onChange func(*model.Config)) {
	if l.file == "" {
		return
	}
	if _, err := os.Stat(l.file); err != nil {
		log.Debug().Str("path", l.file).Msg("config file absent, not watching")
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := l.build()
		if err != nil {
			log.Error().Err(err).Str("path", e.Name).Msg("ignoring invalid config change")
			return
		}
		log.Info().Str("path", e.Name).Msg("config reloaded")
		onChange(cfg)
	})
	l.v.WatchConfig()
}

func splitList(raw interface{}) []string {
	var items []string
	switch value := raw.(type) {
	case string:
		items = strings.Split(value, ",")
	case []string:
		items = value
	case []interface{}:
		for _, item := range value {
			items = append(items, fmt.Sprint(item))
		}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
