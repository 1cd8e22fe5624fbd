/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"goscreenwriter/internal/interchange"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/script"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Fields absent from the file keep their defaults.

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	TelemetryURL   string `yaml:"telemetry_url"`
}

// ParseConfig mirrors script.ParseOptions.
type ParseConfig struct {
	Markup           bool `yaml:"markup"`
	Shorthand        bool `yaml:"shorthand"`
	NormalizeSpacing bool `yaml:"normalize_spacing"`
	NormalizePaging  bool `yaml:"normalize_paging"`
}

type FDXConfig struct {
	PreserveHeader bool `yaml:"preserve_header"`
}

type BackendConfig struct {
	BaseURL   string `yaml:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
	// rotation of File; zero keeps the logger defaults
	MaxSizeMB  int `yaml:"max_size_mb,omitempty"`
	MaxBackups int `yaml:"max_backups,omitempty"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Parse         ParseConfig   `yaml:"parse"`
	FDX           FDXConfig     `yaml:"fdx"`
	Backend       BackendConfig `yaml:"backend"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	po := script.DefaultParseOptions()
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false},
		Parse: ParseConfig{
			Markup:           po.Markup,
			Shorthand:        po.Shorthand,
			NormalizeSpacing: po.NormalizeSpacing,
			NormalizePaging:  po.NormalizePaging,
		},
		FDX:     FDXConfig{PreserveHeader: false},
		Backend: BackendConfig{BaseURL: "http://localhost:8080", TimeoutMs: 15000},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath       = "GSW_CONFIG"
	EnvBackendURL       = "GSW_BACKEND_URL"
	EnvBackendTimeoutMs = "GSW_BACKEND_TIMEOUT_MS"
	EnvTelemetryOptIn   = "GSW_TELEMETRY_OPT_IN"
	EnvTelemetryURL     = "GSW_TELEMETRY_URL"
	EnvParseMarkup      = "GSW_PARSE_MARKUP"
	EnvParseShorthand   = "GSW_PARSE_SHORTHAND"
	EnvParseSpacing     = "GSW_PARSE_SPACING"
	EnvParsePaging      = "GSW_PARSE_PAGING"
	EnvPreserveHeader   = "GSW_FDX_PRESERVE_HEADER"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GSW_LOG_LEVEL"
	EnvLogFormat = "GSW_LOG_FORMAT"
	EnvLogSource = "GSW_LOG_SOURCE"
	EnvLogFile   = "GSW_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "GoScreenwriter"
	keyringToken   = "backend_token"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// SetTokenStore swaps the token backend and returns the previous one.
func SetTokenStore(ts TokenStore) TokenStore {
	prev := tokenStore
	tokenStore = ts
	return prev
}

// ConfigPath returns the per-user config file path. GSW_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoScreenwriter")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoScreenwriter")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "goscreenwriter")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "goscreenwriter")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// It also loads the backend token from keyring (not kept inside the struct; returned separately).
// A missing keyring entry yields an empty token.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := mergeFile(&cfg, data); err != nil {
			applog.WithComponent("config").Warn("ignoring unreadable config file", "path", path, "err", err)
		}
	}
	applyEnvOverrides(&cfg)
	tok, err := tokenStore.Get(keyringService, keyringToken)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		applog.WithComponent("config").Debug("keyring unavailable", "err", err)
	}
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return fmt.Errorf("store token: %w", err)
		}
	}
	return nil
}

// ClearToken removes the backend token from the keyring.
func ClearToken() error {
	err := tokenStore.Delete(keyringService, keyringToken)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// mergeFile decodes a YAML document over cfg; keys the file omits keep their value.
func mergeFile(cfg *AppConfig, data []byte) error {
	merged := *cfg
	if err := yaml.Unmarshal(data, &merged); err != nil {
		return err
	}
	if merged.ConfigVersion == 0 {
		merged.ConfigVersion = cfg.ConfigVersion
	}
	merged.Logging.Level = strings.ToLower(strings.TrimSpace(merged.Logging.Level))
	merged.Logging.Format = strings.ToLower(strings.TrimSpace(merged.Logging.Format))
	merged.Logging.File = strings.TrimSpace(merged.Logging.File)
	if merged.Logging.Level == "" {
		merged.Logging.Level = cfg.Logging.Level
	}
	if merged.Logging.Format == "" {
		merged.Logging.Format = cfg.Logging.Format
	}
	if merged.Backend.BaseURL == "" {
		merged.Backend.BaseURL = cfg.Backend.BaseURL
	}
	*cfg = merged
	return nil
}

func envBool(key string, dst *bool) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		lv := strings.ToLower(v)
		*dst = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	envBool(EnvTelemetryOptIn, &cfg.General.TelemetryOptIn)
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryURL)); v != "" {
		cfg.General.TelemetryURL = v
	}
	envBool(EnvParseMarkup, &cfg.Parse.Markup)
	envBool(EnvParseShorthand, &cfg.Parse.Shorthand)
	envBool(EnvParseSpacing, &cfg.Parse.NormalizeSpacing)
	envBool(EnvParsePaging, &cfg.Parse.NormalizePaging)
	envBool(EnvPreserveHeader, &cfg.FDX.PreserveHeader)
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	envBool(EnvLogSource, &cfg.Logging.Source)
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"backend.base_url":         EnvBackendURL,
	"backend.timeout_ms":       EnvBackendTimeoutMs,
	"general.telemetry_opt_in": EnvTelemetryOptIn,
	"general.telemetry_url":    EnvTelemetryURL,
	"parse.markup":             EnvParseMarkup,
	"parse.shorthand":          EnvParseShorthand,
	"parse.normalize_spacing":  EnvParseSpacing,
	"parse.normalize_paging":   EnvParsePaging,
	"fdx.preserve_header":      EnvPreserveHeader,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// ParseOptions converts the parse section.
func (c AppConfig) ParseOptions() script.ParseOptions {
	return script.ParseOptions{
		Markup:           c.Parse.Markup,
		Shorthand:        c.Parse.Shorthand,
		NormalizeSpacing: c.Parse.NormalizeSpacing,
		NormalizePaging:  c.Parse.NormalizePaging,
	}
}

// FDXOptions converts the fdx section.
func (c AppConfig) FDXOptions() interchange.FDXOptions {
	return interchange.FDXOptions{PreserveHeader: c.FDX.PreserveHeader}
}

// LogOptions converts the logging section.
func (c AppConfig) LogOptions() applog.Options {
	return applog.Options{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		AddSource: c.Logging.Source,
		File:      c.Logging.File,
		Rotate:    applog.RotateOptions{MaxSizeMB: c.Logging.MaxSizeMB, MaxBackups: c.Logging.MaxBackups},
	}
}

// Timeout returns the backend timeout, falling back to the default for non-positive values.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutMs <= 0 {
		return time.Duration(Defaults().Backend.TimeoutMs) * time.Millisecond
	}
	return time.Duration(b.TimeoutMs) * time.Millisecond
}
