package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const fileName = "adopet.yml"

// Config models adopet.yml.
type Config struct {
	Server struct {
		Addr        string `yaml:"addr"`
		BasePath    string `yaml:"base_path"`
		JWTSecret   string `yaml:"jwt_secret"`
		RequireAuth bool   `yaml:"require_auth"`
		DevLogin    bool   `yaml:"dev_login"`
	} `yaml:"server"`
	Notifications Notifications `yaml:"notifications"`
	Admission     struct {
		DisabledRules []string `yaml:"disabled_rules"`
	} `yaml:"admission"`
}

type Notifications struct {
	Log                     bool            `yaml:"log"`
	DispatchIntervalSeconds int             `yaml:"dispatch_interval_seconds"`
	MaxAttempts             int             `yaml:"max_attempts"`
	BatchSize               int             `yaml:"batch_size"`
	Webhooks                []WebhookConfig `yaml:"webhooks"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Secret         string   `yaml:"secret"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Enabled        *bool    `yaml:"enabled"`
	Kinds          []string `yaml:"kinds"`
}

// Active reports whether the webhook should receive deliveries.
func (w WebhookConfig) Active() bool {
	return (w.Enabled == nil || *w.Enabled) && strings.TrimSpace(w.URL) != ""
}

// DispatchInterval returns the polling interval of the notification dispatcher.
func (n Notifications) DispatchInterval() time.Duration {
	if n.DispatchIntervalSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(n.DispatchIntervalSeconds) * time.Second
}

// Validate ensures the config meets required structure. optionalRules lists
// the admission rule names that may be disabled.
func (c *Config) Validate(optionalRules []string) error {
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	if c.Server.RequireAuth && strings.TrimSpace(c.Server.JWTSecret) == "" {
		return fmt.Errorf("config.server.jwt_secret is required when require_auth is set")
	}
	if c.Notifications.MaxAttempts < 0 {
		return fmt.Errorf("config.notifications.max_attempts must not be negative")
	}
	if c.Notifications.BatchSize < 0 {
		return fmt.Errorf("config.notifications.batch_size must not be negative")
	}
	for i, hook := range c.Notifications.Webhooks {
		if strings.TrimSpace(hook.URL) == "" {
			return fmt.Errorf("config.notifications.webhooks[%d].url is required", i)
		}
		u, err := url.Parse(hook.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("config.notifications.webhooks[%d].url must be an http(s) url", i)
		}
		if hook.TimeoutSeconds < 0 {
			return fmt.Errorf("config.notifications.webhooks[%d].timeout_seconds must not be negative", i)
		}
	}
	allowed := make(map[string]struct{}, len(optionalRules))
	for _, r := range optionalRules {
		allowed[r] = struct{}{}
	}
	for _, r := range c.Admission.DisabledRules {
		if _, ok := allowed[r]; !ok {
			return fmt.Errorf("config.admission.disabled_rules: rule %s cannot be disabled (optional rules: %s)", r, strings.Join(optionalRules, ", "))
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, fileName)
}

// Default returns the configuration used when no adopet.yml exists.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// LoadOptional reads the workspace config, falling back to Default when the
// file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses config from raw YAML bytes on top of the defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	return cfg, nil
}

const defaultTemplate = `server:
  addr: 127.0.0.1:8080
  base_path: /v0
  require_auth: false
  dev_login: false

notifications:
  log: true
  dispatch_interval_seconds: 2
  max_attempts: 5
  batch_size: 100
  webhooks: []

admission:
  disabled_rules: []
`
