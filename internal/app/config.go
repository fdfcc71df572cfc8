package app

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/xoelrdgz/ironwatch/internal/adapters/input"
	"github.com/xoelrdgz/ironwatch/internal/adapters/reputation"
	"github.com/xoelrdgz/ironwatch/internal/adapters/storage"
	"github.com/xoelrdgz/ironwatch/internal/domain"
)

// ErrNoRules is returned when a scan is requested without any rule configured.
var ErrNoRules = errors.New("no detection rules configured")

// EnvPrefix prefixes environment overrides, e.g. IRONWATCH_DATABASE.
const EnvPrefix = "IRONWATCH"

type Config struct {
	Name           string
	Server         ServerConfig
	Rules          []domain.Rule
	Database       string
	DatabaseDriver string
	AbuseIP        AbuseIPConfig
	Whitelist      domain.Whitelist
	Metrics        MetricsConfig
	Logging        LoggingConfig

	// TimestampLayout is server.log.timestamp resolved to a Go layout.
	TimestampLayout string
}

type ServerConfig struct {
	Conf ConfTarget `mapstructure:"conf"`
	Log  LogSource  `mapstructure:"log"`
}

// ConfTarget describes the generated web server deny configuration.
type ConfTarget struct {
	Location string `mapstructure:"location"`
	Template string `mapstructure:"template"`
	Reload   string `mapstructure:"reload"`
}

// LogSource describes the access log read by every rule without its own log.
type LogSource struct {
	Location  string `mapstructure:"location"`
	Timestamp string `mapstructure:"timestamp"`
}

type AbuseIPConfig struct {
	Tokens            []string `mapstructure:"token"`
	URL               string   `mapstructure:"url"`
	TimeoutSeconds    int      `mapstructure:"timeout_seconds"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second"`
	Concurrency       int      `mapstructure:"concurrency"`
	MaxAgeDays        int      `mapstructure:"max_age_days"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// fileConfig mirrors the on-disk layout before rules are converted.
type fileConfig struct {
	Name           string        `mapstructure:"name"`
	Server         ServerConfig  `mapstructure:"server"`
	Rules          []ruleConfig  `mapstructure:"rules"`
	Database       string        `mapstructure:"database"`
	DatabaseDriver string        `mapstructure:"database_driver"`
	AbuseIP        AbuseIPConfig `mapstructure:"abuseip"`
	Whitelists     []string      `mapstructure:"whitelists"`
	WhitelistFile  string        `mapstructure:"whitelist_file"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
	Logging        LoggingConfig `mapstructure:"logging"`
}

type ruleConfig struct {
	Type       string `mapstructure:"type"`
	Name       string `mapstructure:"name"`
	Path       string `mapstructure:"path"`
	Requests   int    `mapstructure:"requests"`
	Window     int    `mapstructure:"window"`
	Confidence int    `mapstructure:"confidence"`
	Delta      int    `mapstructure:"delta"`
	Log        string `mapstructure:"log"`
}

// SetDefaults registers the default of every optional key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("name", "ironwatch")
	v.SetDefault("server.log.timestamp", input.DefaultTimestampFormat)
	v.SetDefault("database", "ironwatch.db")
	v.SetDefault("database_driver", storage.DriverSQLite)
	v.SetDefault("abuseip.url", reputation.DefaultURL)
	v.SetDefault("abuseip.timeout_seconds", 10)
	v.SetDefault("abuseip.requests_per_second", 5)
	v.SetDefault("abuseip.concurrency", 4)
	v.SetDefault("abuseip.max_age_days", 90)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
}

// NewViper creates a viper instance reading path (JSON or YAML by extension)
// with IRONWATCH_ environment overrides and defaults applied.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return v, nil
}

// ReadConfig reads, converts and validates the configuration at path.
func ReadConfig(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return LoadConfig(v)
}

// LoadConfig converts and validates the configuration held by v.
//
// Returns:
//   - Validated Config
//   - *ConfigValidationError for structurally invalid settings
func LoadConfig(v *viper.Viper) (*Config, error) {
	var raw fileConfig
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg := &Config{
		Name:           raw.Name,
		Server:         raw.Server,
		Database:       raw.Database,
		DatabaseDriver: raw.DatabaseDriver,
		AbuseIP:        raw.AbuseIP,
		Metrics:        raw.Metrics,
		Logging:        raw.Logging,
		Whitelist:      domain.NewWhitelist(raw.Whitelists...),
	}

	for i, rc := range raw.Rules {
		rule, err := convertRule(i, rc)
		if err != nil {
			return nil, err
		}
		cfg.Rules = append(cfg.Rules, rule)
	}

	layout, err := input.ResolveTimestampLayout(raw.Server.Log.Timestamp)
	if err != nil {
		return nil, &ConfigValidationError{Field: "server.log.timestamp", Value: raw.Server.Log.Timestamp, Reason: err.Error()}
	}
	cfg.TimestampLayout = layout

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if raw.WhitelistFile != "" {
		loadWhitelistFile(cfg.Whitelist, raw.WhitelistFile)
	}

	log.Debug().
		Str("name", cfg.Name).
		Int("rules", len(cfg.Rules)).
		Int("whitelist", cfg.Whitelist.Len()).
		Int("tokens", len(cfg.AbuseIP.Tokens)).
		Msg("Configuration loaded")
	return cfg, nil
}

func convertRule(i int, rc ruleConfig) (domain.Rule, error) {
	field := func(name string) string { return fmt.Sprintf("rules[%d].%s", i, name) }

	if strings.TrimSpace(rc.Name) == "" {
		return nil, &ConfigValidationError{Field: field("name"), Value: rc.Name, Reason: "must not be empty"}
	}
	if rc.Path == "" {
		return nil, &ConfigValidationError{Field: field("path"), Value: rc.Path, Reason: "must not be empty"}
	}

	switch domain.RuleKind(rc.Type) {
	case domain.RuleKindRateLimit:
		if rc.Requests < 0 {
			return nil, &ConfigValidationError{Field: field("requests"), Value: rc.Requests, Reason: "must not be negative"}
		}
		if rc.Window < 0 {
			return nil, &ConfigValidationError{Field: field("window"), Value: rc.Window, Reason: "must not be negative"}
		}
		return domain.RateLimitRule{
			Name:          rc.Name,
			Path:          rc.Path,
			Requests:      rc.Requests,
			WindowSeconds: rc.Window,
			Log:           rc.Log,
		}, nil

	case domain.RuleKindReputation:
		if rc.Confidence < 0 || rc.Confidence > 100 {
			return nil, &ConfigValidationError{Field: field("confidence"), Value: rc.Confidence, Reason: "must be between 0 and 100"}
		}
		if rc.Delta < 0 {
			return nil, &ConfigValidationError{Field: field("delta"), Value: rc.Delta, Reason: "must not be negative"}
		}
		return domain.ReputationRule{
			Name:           rc.Name,
			Path:           rc.Path,
			Confidence:     rc.Confidence,
			RecencySeconds: rc.Delta,
			Log:            rc.Log,
		}, nil

	default:
		return nil, &ConfigValidationError{
			Field:  field("type"),
			Value:  rc.Type,
			Reason: fmt.Sprintf("must be %s or %s", domain.RuleKindRateLimit, domain.RuleKindReputation),
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Log.Location == "" {
		for _, r := range c.Rules {
			if r.LogTemplate() == "" {
				return &ConfigValidationError{Field: "server.log.location", Value: "", Reason: "required by rule " + r.RuleName()}
			}
		}
	}

	switch c.DatabaseDriver {
	case storage.DriverSQLite, storage.DriverBolt:
	default:
		return &ConfigValidationError{
			Field:  "database_driver",
			Value:  c.DatabaseDriver,
			Reason: fmt.Sprintf("must be %s or %s", storage.DriverSQLite, storage.DriverBolt),
		}
	}

	if c.Database == "" {
		return &ConfigValidationError{Field: "database", Value: "", Reason: "must not be empty"}
	}
	if c.AbuseIP.Concurrency < 1 {
		return &ConfigValidationError{Field: "abuseip.concurrency", Value: c.AbuseIP.Concurrency, Reason: "must be positive"}
	}
	return nil
}

// LogTemplate returns the log location template rule reads.
func (c *Config) LogTemplate(rule domain.Rule) string {
	if t := rule.LogTemplate(); t != "" {
		return t
	}
	return c.Server.Log.Location
}

// ReputationClientConfig maps the abuseip settings onto the HTTP client.
func (c *Config) ReputationClientConfig() reputation.ClientConfig {
	return reputation.ClientConfig{
		URL:               c.AbuseIP.URL,
		Timeout:           time.Duration(c.AbuseIP.TimeoutSeconds) * time.Second,
		RequestsPerSecond: c.AbuseIP.RequestsPerSecond,
		MaxAgeDays:        c.AbuseIP.MaxAgeDays,
	}
}

// loadWhitelistFile adds one address per line to w. Blank lines and lines
// starting with # are skipped. A missing or unreadable file leaves w as is.
func loadWhitelistFile(w domain.Whitelist, path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to open whitelist file, ignoring")
		return
	}
	defer f.Close()

	before := w.Len()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		w.Add(line)
	}
	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to read whitelist file")
	}
	log.Debug().Str("path", path).Int("added", w.Len()-before).Msg("Whitelist file loaded")
}

type ConfigValidationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s = %v - %s", e.Field, e.Value, e.Reason)
}
