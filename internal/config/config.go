// Package config loads settings from defaults, an optional YAML file, an
// optional .env file and ECHOFORM_* environment variables, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/soaringjerry/Echoform/internal/backend"
	"github.com/soaringjerry/Echoform/internal/utils"
)

const envPrefix = "ECHOFORM_"

type Backend struct {
	BaseURL              string            `yaml:"base_url"`
	Timeout              time.Duration     `yaml:"timeout"`
	WriteTimeout         time.Duration     `yaml:"write_timeout"`
	RetryMax             int               `yaml:"retry_max"`
	MaxConcurrentFetches int               `yaml:"max_concurrent_fetches"`
	Endpoints            backend.Endpoints `yaml:"endpoints"`
}

type Logging struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Config struct {
	Addr          string `yaml:"addr"`
	PublicBaseURL string `yaml:"public_base_url"`
	SessionDB     string `yaml:"session_db"`
	Locale        string `yaml:"locale"`
	AllowedOrigin string `yaml:"allowed_origin"`
	// StaticDir serves a built console frontend; DevFrontendURL proxies
	// to a dev server instead. StaticDir wins when both are set.
	StaticDir      string  `yaml:"static_dir"`
	DevFrontendURL string  `yaml:"dev_frontend_url"`
	Backend        Backend `yaml:"backend"`
	Logging        Logging `yaml:"logging"`
	// FallbackQuestions maps question IDs to texts used when a survey's
	// questions cannot be loaded.
	FallbackQuestions map[string]string `yaml:"fallback_questions"`
}

func Default() Config {
	return Config{
		Addr:      ":8080",
		SessionDB: defaultSessionPath(),
		Locale:    "en",
		Backend: Backend{
			Timeout:              15 * time.Second,
			WriteTimeout:         30 * time.Second,
			MaxConcurrentFetches: 8,
			Endpoints:            backend.DefaultEndpoints(),
		},
		Logging:           Logging{Level: "info"},
		FallbackQuestions: map[string]string{},
	}
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "echoform-session.db"
	}
	return filepath.Join(dir, "echoform", "session.db")
}

// Load builds the configuration. path may be empty; ECHOFORM_CONFIG is
// consulted then. A missing .env file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}
	if path != "" {
		if err := loadFile(&cfg, path); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	cfg.Backend.Endpoints = cfg.Backend.Endpoints.Merge(backend.DefaultEndpoints())
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Addr = utils.SafeEnv(envPrefix+"ADDR", cfg.Addr)
	cfg.PublicBaseURL = utils.SafeEnv(envPrefix+"PUBLIC_BASE_URL", cfg.PublicBaseURL)
	cfg.SessionDB = utils.SafeEnv(envPrefix+"SESSION_DB", cfg.SessionDB)
	cfg.Locale = utils.SafeEnv(envPrefix+"LOCALE", cfg.Locale)
	cfg.AllowedOrigin = utils.SafeEnv(envPrefix+"ALLOWED_ORIGIN", cfg.AllowedOrigin)
	cfg.StaticDir = utils.SafeEnv(envPrefix+"STATIC_DIR", cfg.StaticDir)
	cfg.DevFrontendURL = utils.SafeEnv(envPrefix+"DEV_FRONTEND_URL", cfg.DevFrontendURL)
	cfg.Backend.BaseURL = utils.SafeEnv(envPrefix+"BACKEND_URL", cfg.Backend.BaseURL)
	cfg.Backend.Timeout = utils.SafeEnvDuration(envPrefix+"BACKEND_TIMEOUT", cfg.Backend.Timeout)
	cfg.Backend.WriteTimeout = utils.SafeEnvDuration(envPrefix+"WRITE_TIMEOUT", cfg.Backend.WriteTimeout)
	cfg.Backend.RetryMax = utils.SafeEnvInt(envPrefix+"RETRY_MAX", cfg.Backend.RetryMax)
	cfg.Backend.MaxConcurrentFetches = utils.SafeEnvInt(envPrefix+"MAX_CONCURRENT_FETCHES", cfg.Backend.MaxConcurrentFetches)
	cfg.Logging.Level = utils.SafeEnv(envPrefix+"LOG_LEVEL", cfg.Logging.Level)
	if v := os.Getenv(envPrefix + "LOG_DEVELOPMENT"); v != "" {
		cfg.Logging.Development = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv(envPrefix + "SURVEY_CREATE_PATHS"); v != "" {
		var paths []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
		cfg.Backend.Endpoints.SurveyCreate = paths
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("backend base url required (backend.base_url or ECHOFORM_BACKEND_URL)")
	}
	if c.Backend.RetryMax < 0 {
		return errors.New("backend.retry_max must not be negative")
	}
	if c.Backend.MaxConcurrentFetches < 1 {
		return errors.New("backend.max_concurrent_fetches must be at least 1")
	}
	return nil
}
