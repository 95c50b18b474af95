// Package config loads slotkeeper configuration from defaults, an optional
// config file and SLOTKEEPER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides.
// calendar.id is read from SLOTKEEPER_CALENDAR_ID.
const EnvPrefix = "SLOTKEEPER"

// Calendar backends.
const (
	BackendGoogle = "google"
	BackendMemory = "memory"
)

// Booking lock modes.
const (
	LockNone  = "none"
	LockRedis = "redis"
)

// Config holds all configuration values.
type Config struct {
	Calendar CalendarConfig `mapstructure:"calendar"`
	Slots    SlotsConfig    `mapstructure:"slots"`
	Time     TimeConfig     `mapstructure:"time"`
	Booking  BookingConfig  `mapstructure:"booking"`
	Redis    RedisConfig    `mapstructure:"redis"`
	LLM      LLMConfig      `mapstructure:"llm"`
}

// CalendarConfig configures the calendar gateway.
type CalendarConfig struct {
	ID              string        `mapstructure:"id"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	CredentialsJSON string        `mapstructure:"credentials_json"`
	Backend         string        `mapstructure:"backend"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	EventTimezone   string        `mapstructure:"event_timezone"`
	Description     string        `mapstructure:"description"`
}

// SlotsConfig configures the slot grid.
type SlotsConfig struct {
	Duration    time.Duration `mapstructure:"duration"`
	WindowStart string        `mapstructure:"window_start"`
	WindowEnd   string        `mapstructure:"window_end"`
}

// TimeConfig configures time text normalization.
type TimeConfig struct {
	Location string `mapstructure:"location"`
	DayFirst bool   `mapstructure:"day_first"`
}

// BookingConfig configures the booking orchestrator.
type BookingConfig struct {
	Lock    string        `mapstructure:"lock"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// RedisConfig configures the redis slot lock store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LLMConfig configures the chat front end.
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	History     int           `mapstructure:"history"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("calendar.id", "primary")
	v.SetDefault("calendar.credentials_file", "")
	v.SetDefault("calendar.credentials_json", "")
	v.SetDefault("calendar.backend", BackendGoogle)
	v.SetDefault("calendar.timeout", 10*time.Second)
	v.SetDefault("calendar.rate_limit", 5.0)
	v.SetDefault("calendar.event_timezone", "Asia/Kolkata")
	v.SetDefault("calendar.description", "Booking done through agent")

	v.SetDefault("slots.duration", 30*time.Minute)
	v.SetDefault("slots.window_start", "09:00")
	v.SetDefault("slots.window_end", "17:00")

	v.SetDefault("time.location", "Local")
	v.SetDefault("time.day_first", false)

	v.SetDefault("booking.lock", LockNone)
	v.SetDefault("booking.lock_ttl", 30*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.4)
	v.SetDefault("llm.history", 20)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads configuration. An explicit path must exist; without one,
// slotkeeper.{yaml,toml,json} is looked up in the working directory and in
// $HOME/.config/slotkeeper, and a missing file is not an error. Flags that
// were set on the command line override every other source.
func Load(v *viper.Viper, path string, flags *pflag.FlagSet) (*Config, error) {
	if v == nil {
		v = New()
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("slotkeeper")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/slotkeeper")
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Calendar.CredentialsFile == "" && cfg.Calendar.CredentialsJSON == "" {
		cfg.Calendar.CredentialsFile = os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")
	}
	if id := os.Getenv("GOOGLE_CALENDAR_ID"); id != "" && !calendarIDSet(v, flags) {
		cfg.Calendar.ID = id
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// calendarIDSet reports whether calendar.id came from a config file, the
// SLOTKEEPER_ environment or a changed flag rather than the default.
func calendarIDSet(v *viper.Viper, flags *pflag.FlagSet) bool {
	if v.InConfig("calendar.id") || os.Getenv(EnvPrefix+"_CALENDAR_ID") != "" {
		return true
	}
	return flags != nil && flags.Changed("calendar-id")
}

// flagKeys maps command line flag names to config keys.
var flagKeys = map[string]string{
	"calendar-id":      "calendar.id",
	"credentials-file": "calendar.credentials_file",
	"backend":          "calendar.backend",
	"timezone":         "time.location",
	"day-first":        "time.day_first",
	"slot-duration":    "slots.duration",
	"model":            "llm.model",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}
