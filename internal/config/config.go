// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for chatterm.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.chatterm/config.toml
//   - ~/.chatterm/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/jeranaias/chatterm/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chatterm configuration.
type Config struct {
	// Exchange endpoint configuration
	Exchange ExchangeConfig `toml:"exchange" json:"exchange"`

	// History persistence configuration
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Session controller behavior
	Session SessionConfig `toml:"session" json:"session"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Log output configuration
	Log LogConfig `toml:"log" json:"log"`
}

// ExchangeConfig configures the chat endpoint.
type ExchangeConfig struct {
	// Endpoint is the URL that receives POST {"message": ...}
	Endpoint string `toml:"endpoint" json:"endpoint"`
	// Timeout bounds one exchange. Zero waits forever.
	Timeout time.Duration `toml:"timeout" json:"timeout"`
	// MinInterval is the minimum spacing between two exchanges. Zero disables pacing.
	MinInterval time.Duration `toml:"min_interval" json:"min_interval"`
}

// StorageConfig configures where the history is persisted.
type StorageConfig struct {
	// Backend is one of: "file", "sqlite", "redis", "memory"
	Backend string `toml:"backend" json:"backend"`
	// Dir is the directory for the file backend
	Dir string `toml:"dir" json:"dir"`
	// Key is the slot key the history is stored under
	Key string `toml:"key" json:"key"`
	// SQLitePath is the database file for the sqlite backend
	SQLitePath string `toml:"sqlite_path" json:"sqlite_path"`
	// RedisAddr is host:port for the redis backend
	RedisAddr string `toml:"redis_addr" json:"redis_addr"`
	// RedisPassword is the optional redis AUTH password
	RedisPassword string `toml:"redis_password" json:"redis_password,omitempty"`
	// RedisDB selects the redis logical database
	RedisDB int `toml:"redis_db" json:"redis_db"`
	// RedisPrefix is prepended to the key in redis
	RedisPrefix string `toml:"redis_prefix" json:"redis_prefix"`
	// QuotaBytes caps the memory backend (0 = unlimited)
	QuotaBytes int `toml:"quota_bytes" json:"quota_bytes"`
}

// SessionConfig configures the session controller.
type SessionConfig struct {
	// BusyPolicy decides what a submit does while a reply is pending: "ignore" or "queue"
	BusyPolicy string `toml:"busy_policy" json:"busy_policy"`
	// HydrateTimeout bounds the initial history load
	HydrateTimeout time.Duration `toml:"hydrate_timeout" json:"hydrate_timeout"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// Markup selects how assistant replies are rendered: "glamour", "plain", "raw"
	Markup string `toml:"markup" json:"markup"`
	// WordWrap is the wrap width for rendered replies (0 = terminal width)
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
	// CodeStyle is the chroma style used for fenced code blocks
	CodeStyle string `toml:"code_style" json:"code_style"`
}

// LogConfig configures the log file.
type LogConfig struct {
	// Level is one of: "debug", "info", "warn", "error"
	Level string `toml:"level" json:"level"`
	// File is the log file path
	File string `toml:"file" json:"file"`
	// MaxSizeMB is the size at which the log file is rotated
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb"`
	// MaxBackups is the number of rotated files to keep
	MaxBackups int `toml:"max_backups" json:"max_backups"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// DefaultEndpoint is the chat endpoint used when none is configured.
const DefaultEndpoint = "http://127.0.0.1:8080/chat"

// Default returns a new Config with sensible default values.
func Default() *Config {
	dir, err := ConfigDir()
	if err != nil {
		dir = ".chatterm"
	}

	return &Config{
		Exchange: ExchangeConfig{
			Endpoint:    DefaultEndpoint,
			Timeout:     0,
			MinInterval: 0,
		},
		Storage: StorageConfig{
			Backend:     "file",
			Dir:         dir,
			Key:         "chatHistory",
			SQLitePath:  filepath.Join(dir, "history.db"),
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "chatterm:",
		},
		Session: SessionConfig{
			BusyPolicy:     "ignore",
			HydrateTimeout: 5 * time.Second,
		},
		UI: UIConfig{
			Theme:     "auto",
			Markup:    "glamour",
			WordWrap:  0,
			CodeStyle: "monokai",
		},
		Log: LogConfig{
			Level:      "info",
			File:       filepath.Join(dir, "chatterm.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chatterm configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatterm"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			return LoadFromPath(tomlPath)
		}
	}

	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			return LoadFromPath(jsonPath)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return errors.Wrap(err, "failed to decode TOML file")
	}
	return fillDefaults(cfg)
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read JSON file")
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return errors.Wrap(err, "failed to decode JSON file")
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		// Default to TOML
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	// Exchange
	if cfg.Exchange.Endpoint == "" {
		cfg.Exchange.Endpoint = defaults.Exchange.Endpoint
	}

	// Storage
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = defaults.Storage.Dir
	}
	if cfg.Storage.Key == "" {
		cfg.Storage.Key = defaults.Storage.Key
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = filepath.Join(cfg.Storage.Dir, "history.db")
	}
	if cfg.Storage.RedisAddr == "" {
		cfg.Storage.RedisAddr = defaults.Storage.RedisAddr
	}

	// Session
	if cfg.Session.BusyPolicy == "" {
		cfg.Session.BusyPolicy = defaults.Session.BusyPolicy
	}
	if cfg.Session.HydrateTimeout == 0 {
		cfg.Session.HydrateTimeout = defaults.Session.HydrateTimeout
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.Markup == "" {
		cfg.UI.Markup = defaults.UI.Markup
	}
	if cfg.UI.CodeStyle == "" {
		cfg.UI.CodeStyle = defaults.UI.CodeStyle
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.File == "" {
		cfg.Log.File = defaults.Log.File
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = defaults.Log.MaxSizeMB
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = defaults.Log.MaxBackups
	}

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Config files may hold a redis password, so they are written 0600.
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# chatterm configuration file\n")
	sb.WriteString("# Generated by chatterm - edit with care\n")
	sb.WriteString("\n")

	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return errors.Wrap(err, "failed to encode config")
	}

	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode config")
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validBackends   = map[string]bool{"file": true, "sqlite": true, "redis": true, "memory": true}
	validBusyPolicy = map[string]bool{"ignore": true, "queue": true}
	validThemes     = map[string]bool{"dark": true, "light": true, "auto": true}
	validMarkups    = map[string]bool{"glamour": true, "plain": true, "raw": true}
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validURLSchemes = map[string]bool{"http": true, "https": true}
)

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Exchange
	if u, err := url.Parse(c.Exchange.Endpoint); err != nil || !validURLSchemes[u.Scheme] || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "exchange.endpoint",
			Message: fmt.Sprintf("invalid URL '%s', must be an absolute http or https URL", c.Exchange.Endpoint),
		})
	}
	if c.Exchange.Timeout < 0 {
		errs = append(errs, ValidationError{Field: "exchange.timeout", Message: "must not be negative"})
	}
	if c.Exchange.MinInterval < 0 {
		errs = append(errs, ValidationError{Field: "exchange.min_interval", Message: "must not be negative"})
	}

	// Storage
	if !validBackends[strings.ToLower(c.Storage.Backend)] {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, redis, memory", c.Storage.Backend),
		})
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		errs = append(errs, ValidationError{Field: "storage.key", Message: "must not be empty"})
	}
	if c.Storage.RedisDB < 0 {
		errs = append(errs, ValidationError{Field: "storage.redis_db", Message: "must not be negative"})
	}
	if c.Storage.QuotaBytes < 0 {
		errs = append(errs, ValidationError{Field: "storage.quota_bytes", Message: "must not be negative"})
	}

	// Session
	if !validBusyPolicy[strings.ToLower(c.Session.BusyPolicy)] {
		errs = append(errs, ValidationError{
			Field:   "session.busy_policy",
			Message: fmt.Sprintf("invalid policy '%s', must be one of: ignore, queue", c.Session.BusyPolicy),
		})
	}
	if c.Session.HydrateTimeout < 0 {
		errs = append(errs, ValidationError{Field: "session.hydrate_timeout", Message: "must not be negative"})
	}

	// UI
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}
	if !validMarkups[strings.ToLower(c.UI.Markup)] {
		errs = append(errs, ValidationError{
			Field:   "ui.markup",
			Message: fmt.Sprintf("invalid markup '%s', must be one of: glamour, plain, raw", c.UI.Markup),
		})
	}
	if c.UI.WordWrap < 0 {
		errs = append(errs, ValidationError{Field: "ui.word_wrap", Message: "must not be negative"})
	}

	// Log
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}
	if c.Log.MaxSizeMB < 0 {
		errs = append(errs, ValidationError{Field: "log.max_size_mb", Message: "must not be negative"})
	}
	if c.Log.MaxBackups < 0 {
		errs = append(errs, ValidationError{Field: "log.max_backups", Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CHATTERM_ENDPOINT: overrides exchange.endpoint
//   - CHATTERM_STORAGE: overrides storage.backend
//   - CHATTERM_STORAGE_DIR: overrides storage.dir
//   - CHATTERM_REDIS_ADDR: overrides storage.redis_addr
//   - CHATTERM_REDIS_DB: overrides storage.redis_db
//   - CHATTERM_BUSY_POLICY: overrides session.busy_policy
//   - CHATTERM_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if endpoint := os.Getenv("CHATTERM_ENDPOINT"); endpoint != "" {
		c.Exchange.Endpoint = endpoint
	}

	if backend := os.Getenv("CHATTERM_STORAGE"); backend != "" {
		c.Storage.Backend = strings.ToLower(backend)
	}

	if dir := os.Getenv("CHATTERM_STORAGE_DIR"); dir != "" {
		c.Storage.Dir = dir
	}

	if addr := os.Getenv("CHATTERM_REDIS_ADDR"); addr != "" {
		c.Storage.RedisAddr = addr
	}

	if db := os.Getenv("CHATTERM_REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			c.Storage.RedisDB = n
		}
	}

	if policy := os.Getenv("CHATTERM_BUSY_POLICY"); policy != "" {
		c.Session.BusyPolicy = strings.ToLower(policy)
	}

	if level := os.Getenv("CHATTERM_LOG_LEVEL"); level != "" {
		c.Log.Level = strings.ToLower(level)
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "storage.backend").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "storage.backend").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("field '%s' cannot be set", key)
	}
	return setFieldValue(field, value)
}

// lookup walks the config struct following the TOML names in key.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTOMLName(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// fieldByTOMLName finds the struct field whose toml tag matches name.
func fieldByTOMLName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("toml"), ",")[0]
		if strings.EqualFold(tag, name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue assigns value to field, parsing strings as needed.
func setFieldValue(field reflect.Value, value interface{}) error {
	s, isString := value.(string)
	if !isString {
		rv := reflect.ValueOf(value)
		if !rv.Type().AssignableTo(field.Type()) {
			return fmt.Errorf("cannot assign %T to %s", value, field.Type())
		}
		field.Set(rv)
		return nil
	}

	if field.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration '%s': %w", s, err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(s)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer '%s': %w", s, err)
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid boolean '%s': %w", s, err)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// GetAllKeys returns every dot-notation key in the config.
func GetAllKeys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		prefix := section.Tag.Get("toml")
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, prefix+"."+section.Type.Field(j).Tag.Get("toml"))
		}
	}
	return keys
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the config for debugging.
// SECURITY: Redacts the redis password.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Storage.RedisPassword != "" {
		safe.Storage.RedisPassword = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
