package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Reminder ReminderConfig `yaml:"reminder"`
	Face     FaceConfig     `yaml:"face"`
	Voice    VoiceConfig    `yaml:"voice"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// ReminderConfig drives the dose scheduling engine.
type ReminderConfig struct {
	TickInterval   time.Duration `yaml:"tick_interval"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	MaxAttempts    int           `yaml:"max_attempts"`
	CatchupWindow  time.Duration `yaml:"catchup_window"`
	Timezone       string        `yaml:"timezone"`
}

// Location resolves the configured timezone. Schedules are time-of-day
// based, so all due-time comparisons happen in this location.
func (r ReminderConfig) Location() (*time.Location, error) {
	if r.Timezone == "" || strings.EqualFold(r.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(r.Timezone)
}

type FaceConfig struct {
	Tolerance float64 `yaml:"tolerance"`
	// Convention is "higher" (similarity, bigger is better) or "distance"
	// (metric distance, smaller is better).
	Convention string        `yaml:"convention"`
	Freshness  time.Duration `yaml:"freshness"`
}

type VoiceConfig struct {
	// ConfirmationPhrases is the accepted phrase set, matched
	// case-insensitively against recognized speech. An empty list disables
	// the voice channel entirely.
	ConfirmationPhrases []string `yaml:"confirmation_phrases"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfirmationPhrases is the phrase set shipped out of the box.
var DefaultConfirmationPhrases = []string{
	"i took my medicine",
	"i have taken my medicine",
	"i took my pills",
	"i have taken my pills",
	"medicine taken",
	"confirm medicine",
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

// Default returns a config with every default applied and no file read.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Reminder.TickInterval == 0 {
		cfg.Reminder.TickInterval = 60 * time.Second
	}
	if cfg.Reminder.AttemptTimeout == 0 {
		cfg.Reminder.AttemptTimeout = 20 * time.Second
	}
	if cfg.Reminder.MaxAttempts == 0 {
		cfg.Reminder.MaxAttempts = 3
	}
	if cfg.Reminder.CatchupWindow == 0 {
		cfg.Reminder.CatchupWindow = 10 * time.Minute
	}
	if cfg.Face.Tolerance == 0 {
		cfg.Face.Tolerance = 0.6
	}
	if cfg.Face.Convention == "" {
		cfg.Face.Convention = "higher"
	}
	if cfg.Face.Freshness == 0 {
		cfg.Face.Freshness = 5 * time.Second
	}
	if cfg.Voice.ConfirmationPhrases == nil {
		cfg.Voice.ConfirmationPhrases = DefaultConfirmationPhrases
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MED_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MED_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("MED_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("MED_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("MED_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("MED_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("MED_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("MED_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("MED_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("MED_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("MED_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("MED_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("MED_FACE_TOLERANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Face.Tolerance = f
		}
	}
	if v := os.Getenv("MED_FACE_CONVENTION"); v != "" {
		cfg.Face.Convention = v
	}
	if v := os.Getenv("MED_CONFIRMATION_PHRASES"); v != "" {
		var phrases []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				phrases = append(phrases, p)
			}
		}
		cfg.Voice.ConfirmationPhrases = phrases
	}
	if v := os.Getenv("MED_TIMEZONE"); v != "" {
		cfg.Reminder.Timezone = v
	}
}
