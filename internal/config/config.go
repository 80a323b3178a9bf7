// Package config loads bot settings from defaults, an optional YAML file and
// the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

var ErrNoToken = errors.New("DISCORD_TOKEN is not set")

type Config struct {
	DiscordToken string   `yaml:"discord_token" env:"DISCORD_TOKEN"`
	Owners       []string `yaml:"owners" env:"OWNERS"`
	Invite       string   `yaml:"invite" env:"INVITE"`
	Status       string   `yaml:"status" env:"BOT_STATUS"`

	CommandPrefix string `yaml:"command_prefix" env:"COMMAND_PREFIX"`
	// MentionOnly ignores CommandPrefix and answers mentions only.
	MentionOnly bool `yaml:"mention_only" env:"MENTION_ONLY"`

	CommandEditableDuration         time.Duration `yaml:"command_editable_duration" env:"COMMAND_EDITABLE_DURATION"`
	NonCommandEditable              bool          `yaml:"non_command_editable" env:"NON_COMMAND_EDITABLE"`
	UnknownCommandResponse          bool          `yaml:"unknown_command_response" env:"UNKNOWN_COMMAND_RESPONSE"`
	CommandBlockedMessagePattern    bool          `yaml:"command_blocked_message_pattern" env:"COMMAND_BLOCKED_MESSAGE_PATTERN"`
	CommandThrottlingMessagePattern bool          `yaml:"command_throttling_message_pattern" env:"COMMAND_THROTTLING_MESSAGE_PATTERN"`
	PromptTimeout                   time.Duration `yaml:"prompt_timeout" env:"PROMPT_TIMEOUT"`
	GuildBlacklist                  []string      `yaml:"guild_blacklist" env:"DISCORD_GUILD_BLACKLIST"`

	SettingsDriver string `yaml:"settings_driver" env:"SETTINGS_DRIVER"`
	StoragePath    string `yaml:"storage_path" env:"STORAGE_PATH"`
	SQLitePath     string `yaml:"sqlite_path" env:"SQLITE_PATH"`

	StatusAddr string `yaml:"status_addr" env:"STATUS_ADDR"`
	LogLevel   string `yaml:"log_level" env:"LOG_LEVEL"`
}

func Default() *Config {
	return &Config{
		CommandPrefix:                   "!",
		CommandEditableDuration:         30 * time.Second,
		NonCommandEditable:              true,
		UnknownCommandResponse:          true,
		CommandBlockedMessagePattern:    true,
		CommandThrottlingMessagePattern: true,
		PromptTimeout:                   30 * time.Second,
		SettingsDriver:                  DriverJSON,
		StoragePath:                     "datastore.json",
		SQLitePath:                      "settings.db",
		LogLevel:                        "info",
	}
}

// Load reads .env when present, then path (skipped when empty or missing),
// then environment variables.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("[Config] no .env file found, falling back to system environment variables")
	}

	cfg := Default()
	if path != "" {
		if err := cfg.readYAML(path); err != nil {
			return nil, err
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) readYAML(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.WithField("path", path).Warn("[Config] config file not found, using defaults")
		return nil
	}
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Validate checks the settings needed to connect to Discord.
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return ErrNoToken
	}
	switch c.SettingsDriver {
	case DriverJSON, DriverSQLite:
	default:
		return fmt.Errorf("unknown settings driver %q", c.SettingsDriver)
	}
	if c.CommandPrefix == "" && !c.MentionOnly {
		return errors.New("command prefix is empty; set MENTION_ONLY to answer mentions only")
	}
	return nil
}

// Level parses LogLevel, defaulting to info.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
