package config

import (
	"errors"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	PostgresURL        string `mapstructure:"postgres_url"`
	ClickHouseURL      string `mapstructure:"clickhouse_url"`
	TwitchClientID     string `mapstructure:"twitch_client_id"`
	TwitchClientSecret string `mapstructure:"twitch_client_secret"`
	PollIntervalSec    int    `mapstructure:"poll_interval_sec"`
	SweepIntervalSec   int    `mapstructure:"sweep_interval_sec"`
	EventSubEnabled    bool   `mapstructure:"eventsub_enabled"`
	EventBufferSize    int    `mapstructure:"event_buffer_size"`
	DebugLogging       bool   `mapstructure:"debug_logging"`
	LogFile            string `mapstructure:"log_file"`
}

const (
	DefaultPollIntervalSec  = 60
	DefaultSweepIntervalSec = 300
	DefaultEventBufferSize  = 256
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"poll_interval_sec":  DefaultPollIntervalSec,
		"sweep_interval_sec": DefaultSweepIntervalSec,
		"event_buffer_size":  DefaultEventBufferSize,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvironmentVariables(v, &cfg)

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.PostgresURL == "" {
		return errors.New("missing postgres_url in configuration")
	}
	if err := validateURL(cfg.PostgresURL, "postgres"); err != nil {
		return errors.New("invalid postgres URL protocol")
	}
	if cfg.ClickHouseURL != "" {
		if err := validateURL(cfg.ClickHouseURL, "clickhouse"); err != nil {
			return errors.New("invalid clickhouse URL protocol")
		}
	}
	if cfg.TwitchClientID == "" || cfg.TwitchClientSecret == "" {
		return errors.New("missing twitch credentials in configuration")
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.PollIntervalSec <= 0 {
		return errors.New("invalid poll_interval_sec")
	}
	if cfg.SweepIntervalSec <= 0 {
		return errors.New("invalid sweep_interval_sec")
	}
	if cfg.EventBufferSize <= 0 {
		return errors.New("invalid event_buffer_size")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) {
	v.AutomaticEnv()
	v.SetEnvPrefix("ZEROGLAZE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if env := v.GetString("POSTGRES_URL"); env != "" {
		cfg.PostgresURL = env
	}
	if env := v.GetString("CLICKHOUSE_URL"); env != "" {
		cfg.ClickHouseURL = env
	}
	if env := v.GetString("TWITCH_CLIENT_ID"); env != "" {
		cfg.TwitchClientID = env
	}
	if env := v.GetString("TWITCH_CLIENT_SECRET"); env != "" {
		cfg.TwitchClientSecret = env
	}
}
