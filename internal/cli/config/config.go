package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL      = "http://127.0.0.1:8080"
	DefaultTimeout      = 10 * time.Second
	DefaultCallbackAddr = "127.0.0.1:0"
	DefaultLoginTimeout = 5 * time.Minute
)

// Config holds terminal client configuration.
type Config struct {
	BaseURL         string        `yaml:"baseURL"`
	Timeout         time.Duration `yaml:"timeout"`
	CredentialPath  string        `yaml:"credentialPath"`
	CallbackAddr    string        `yaml:"callbackAddr"`
	LoginTimeout    time.Duration `yaml:"loginTimeout"`
	PollMaxAttempts int           `yaml:"pollMaxAttempts"`
	HistoryFile     string        `yaml:"historyFile"`
	Debug           bool          `yaml:"debug"`
}

// Load reads path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config file failed: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file failed: %w", err)
		}
	}
	ApplyDefaults(&cfg, "")
	return cfg, nil
}

// ApplyDefaults fills unset fields. credentialPath is used when the file
// does not name one.
func ApplyDefaults(cfg *Config, credentialPath string) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CredentialPath == "" {
		cfg.CredentialPath = credentialPath
	}
	if cfg.CallbackAddr == "" {
		cfg.CallbackAddr = DefaultCallbackAddr
	}
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = DefaultLoginTimeout
	}
	if cfg.PollMaxAttempts < 0 {
		cfg.PollMaxAttempts = 0
	}
}
