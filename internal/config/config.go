// Package config loads application configuration from an optional YAML file
// and REVIEWCHECKER_ environment variables. The environment always wins.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/ericfisherdev/reviewchecker/internal/domain/model"
)

// ConfigPathEnv names the variable holding an optional YAML config file path.
const ConfigPathEnv = "REVIEWCHECKER_CONFIG"

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds the application configuration.
type Config struct {
	Env        string `yaml:"env" env:"REVIEWCHECKER_ENV" env-default:"local"`
	ListenAddr string `yaml:"listen_addr" env:"REVIEWCHECKER_LISTEN_ADDR" env-default:"127.0.0.1:5000"`
	DBPath     string `yaml:"db_path" env:"REVIEWCHECKER_DB_PATH" env-default:"reviewchecker.db"`
	AppTitle   string `yaml:"app_title" env:"REVIEWCHECKER_APP_TITLE" env-default:"Code Review Checker"`

	GitHubToken    string `yaml:"github_token" env:"REVIEWCHECKER_GITHUB_TOKEN"`
	GitHubUsername string `yaml:"github_username" env:"REVIEWCHECKER_GITHUB_USERNAME"`

	// Repo is "owner/name". When empty the origin remote of RepoPath is used.
	Repo     string `yaml:"repo" env:"REVIEWCHECKER_REPO"`
	RepoPath string `yaml:"repo_path" env:"REVIEWCHECKER_REPO_PATH" env-default:"."`

	DefaultPRState string `yaml:"default_pr_state" env:"REVIEWCHECKER_DEFAULT_PR_STATE" env-default:"open"`

	CacheType string `yaml:"cache_type" env:"REVIEWCHECKER_CACHE_TYPE" env-default:"memory"`
	RedisURL  string `yaml:"redis_url" env:"REVIEWCHECKER_REDIS_URL"`
}

// Load reads the YAML file named by REVIEWCHECKER_CONFIG, if set, then
// applies environment overrides and defaults. The result is validated.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(ConfigPathEnv))
}

// LoadFile is Load with an explicit file path. An empty path reads only the
// environment.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config from environment: %w", err)
	}

	cfg.CacheType = strings.ToLower(strings.TrimSpace(cfg.CacheType))
	cfg.DefaultPRState = strings.ToLower(strings.TrimSpace(cfg.DefaultPRState))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.CacheType {
	case CacheMemory:
	case CacheRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REVIEWCHECKER_REDIS_URL is required when REVIEWCHECKER_CACHE_TYPE is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("REVIEWCHECKER_CACHE_TYPE must be %q or %q, got %q", CacheMemory, CacheRedis, c.CacheType))
	}

	if c.Repo != "" {
		if _, _, ok := c.RepoParts(); !ok {
			errs = append(errs, fmt.Errorf("REVIEWCHECKER_REPO must be owner/name, got %q", c.Repo))
		}
	}

	if _, ok := model.ParsePRState(c.DefaultPRState); !ok {
		errs = append(errs, fmt.Errorf("REVIEWCHECKER_DEFAULT_PR_STATE has invalid state %q", c.DefaultPRState))
	}

	if c.ListenAddr == "" {
		errs = append(errs, errors.New("REVIEWCHECKER_LISTEN_ADDR must not be empty"))
	}

	return errors.Join(errs...)
}

// RepoParts splits Repo into owner and name.
func (c *Config) RepoParts() (owner, name string, ok bool) {
	owner, name, found := strings.Cut(strings.TrimSpace(c.Repo), "/")
	if !found || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", false
	}
	return owner, name, true
}

// HasGitHubToken reports whether a token is configured. Without one the
// GitHub API only serves public data at a low rate limit.
func (c *Config) HasGitHubToken() bool {
	return c.GitHubToken != ""
}
