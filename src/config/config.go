// Package config assembles runtime settings from a YAML file, the environment
// and the settings table, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/stake-plus/trustek/src/ai/core"
	"github.com/stake-plus/trustek/src/webclient"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	JWTSecret   string   `yaml:"jwt_secret"`
	RateLimit   int      `yaml:"rate_limit"`
	RateWindow  Duration `yaml:"rate_window"`
}

type AI struct {
	Provider     string   `yaml:"provider"`
	APIKey       string   `yaml:"api_key"`
	BaseURL      string   `yaml:"base_url"`
	Model        string   `yaml:"model"`
	SystemPrompt string   `yaml:"system_prompt"`
	Temperature  float64  `yaml:"temperature"`
	Timeout      Duration `yaml:"timeout"`
	DemoMarker   string   `yaml:"demo_marker"`
}

type Retry struct {
	Attempts  int      `yaml:"attempts"`
	BaseDelay Duration `yaml:"base_delay"`
	Policy    string   `yaml:"policy"`
}

type Discord struct {
	Token   string `yaml:"token"`
	GuildID string `yaml:"guild_id"`
	RoleID  string `yaml:"role_id"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// Config is the full application configuration.
type Config struct {
	Server   Server  `yaml:"server"`
	AI       AI      `yaml:"ai"`
	Retry    Retry   `yaml:"retry"`
	Discord  Discord `yaml:"discord"`
	Logging  Logging `yaml:"logging"`
	RedisURL string  `yaml:"redis_url"`
	MySQLDSN string  `yaml:"mysql_dsn"`
}

// Duration accepts Go duration strings ("1s", "250ms") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(value.Value))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: Server{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000"},
			RateLimit:   10,
			RateWindow:  Duration(time.Minute),
		},
		AI: AI{
			Provider:   "gemini25",
			Timeout:    Duration(120 * time.Second),
			DemoMarker: "real",
		},
		Retry: Retry{
			Attempts:  3,
			BaseDelay: Duration(time.Second),
			Policy:    "blanket",
		},
		Logging: Logging{Level: "info"},
	}
}

// Load reads path when it exists, expands ${VAR} references, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			expanded := os.ExpandEnv(string(raw))
			if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.apply(os.Getenv)
	return cfg, nil
}

// FactoryConfig builds the analyzer construction input.
func (c *Config) FactoryConfig() core.FactoryConfig {
	return core.FactoryConfig{
		Provider:     c.AI.Provider,
		APIKey:       c.AI.APIKey,
		BaseURL:      c.AI.BaseURL,
		Model:        core.ResolveModelName(c.AI.Provider, c.AI.Model),
		SystemPrompt: c.AI.SystemPrompt,
		Temperature:  c.AI.Temperature,
		HTTPClient:   webclient.NewDefault(c.AI.Timeout.Std()),
		Retry:        c.RetryPolicy(),
		Extra:        map[string]string{"marker": c.AI.DemoMarker},
	}
}

// RetryPolicy builds the upstream retry policy.
func (c *Config) RetryPolicy() webclient.Policy {
	return webclient.Policy{
		Attempts:  c.Retry.Attempts,
		BaseDelay: c.Retry.BaseDelay.Std(),
		Classify:  webclient.ClassifierByName(c.Retry.Policy),
	}
}

// SlotTTL bounds how long a Redis analysis slot may outlive its holder. It
// covers every attempt timing out plus the backoff between them, with a
// margin for decoding and persistence.
func (c *Config) SlotTTL() time.Duration {
	p := c.RetryPolicy()
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = webclient.DefaultPolicy().Attempts
	}
	ttl := time.Duration(attempts)*c.AI.Timeout.Std() + slotMargin
	for i := 0; i < attempts-1; i++ {
		ttl += p.Backoff(i)
	}
	return ttl
}

const slotMargin = 30 * time.Second

// Validate reports settings that make the server unusable.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.Server.JWTSecret) == "" {
		errs = append(errs, errors.New("server.jwt_secret is required"))
	}
	if c.Retry.Attempts < 1 {
		errs = append(errs, errors.New("retry.attempts must be at least 1"))
	}
	switch strings.ToLower(strings.TrimSpace(c.Retry.Policy)) {
	case "classified", "status", "blanket", "all", "":
	default:
		errs = append(errs, fmt.Errorf("retry.policy %q is not one of classified, blanket", c.Retry.Policy))
	}
	return errors.Join(errs...)
}
