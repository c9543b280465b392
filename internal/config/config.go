// Package config provides configuration for the spend agent.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the YAML file read when SPENDAGENT_CONFIG is unset.
const DefaultConfigFile = "spendagent.yaml"

// ModeMock swaps the LLM and payments provider for in-process fakes.
const ModeMock = "MOCK"

// DefaultSystemPrompt describes the assistant's role to the resolver.
const DefaultSystemPrompt = `You're a finance assistant that helps users spend money and manage their payment methods.

When a user asks to "Pay an invoice" or similar phrases, you should use the "initiate_payment_flow" function to start an interactive payment process.

When a user wants to manage payment methods, use the "list_payment_methods" function to show their current payment methods, or "setup_payment_method" to help them add a new one.

For other queries about invoices, use the appropriate functions to list or pay specific invoices.

Be helpful and guide users through the payment process step by step.`

// Config holds the spend agent configuration.
type Config struct {
	Mode     string   `yaml:"mode"`
	Server   Server   `yaml:"server"`
	Stripe   Stripe   `yaml:"stripe"`
	LLM      LLM      `yaml:"llm"`
	Database Database `yaml:"database"`
	Policy   Policy   `yaml:"policy"`
	Breaker  Breaker  `yaml:"breaker"`
	Log      Log      `yaml:"log"`
}

// Server settings.
type Server struct {
	Port          int     `yaml:"port"`
	CORSOrigin    string  `yaml:"cors_origin"`
	RatePerSecond float64 `yaml:"rate_per_second"`
}

// Stripe holds the payments provider settings.
type Stripe struct {
	SecretKey  string        `yaml:"secret_key"`
	CustomerID string        `yaml:"customer_id"`
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// LLM holds the intent resolver settings.
type LLM struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	Model        string        `yaml:"model"`
	Timeout      time.Duration `yaml:"timeout"`
	SystemPrompt string        `yaml:"system_prompt"`
}

// Database holds the interaction journal settings. An empty URL disables it.
type Database struct {
	URL string `yaml:"url"`
}

// Policy points at an optional rego file replacing the default policy.
type Policy struct {
	Path string `yaml:"path"`
}

// Breaker configures the circuit breaker around provider calls.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Log settings.
type Log struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:          8080,
			CORSOrigin:    "*",
			RatePerSecond: 20,
		},
		Stripe: Stripe{
			Timeout: 30 * time.Second,
		},
		LLM: LLM{
			BaseURL:      "https://api.openai.com",
			Model:        "gpt-3.5-turbo",
			Timeout:      60 * time.Second,
			SystemPrompt: DefaultSystemPrompt,
		},
		Database: Database{
			URL: "file:spendagent.db?cache=shared&mode=rwc",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Log: Log{
			Level:   "info",
			Service: "spendagent",
		},
	}
}

// Load reads configuration using defaults < YAML < environment.
func Load() (*Config, error) {
	path := os.Getenv("SPENDAGENT_CONFIG")
	if path == "" {
		path = DefaultConfigFile
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit YAML path. A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Defaults()
	if err := loadYAML(&cfg, path); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}
	loadEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}
	return &cfg, nil
}

// IsMock reports whether in-process fakes replace external collaborators.
func (c *Config) IsMock() bool {
	return strings.EqualFold(c.Mode, ModeMock)
}

// Validate checks the settings required to talk to real collaborators.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.IsMock() {
		return nil
	}
	var errs []error
	if c.Stripe.SecretKey == "" {
		errs = append(errs, errors.New("stripe.secret_key (STRIPE_SECRET_KEY) is required"))
	}
	if c.Stripe.CustomerID == "" {
		errs = append(errs, errors.New("stripe.customer_id (STRIPE_CUSTOMER_ID) is required"))
	}
	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("llm.api_key (OPENAI_API_KEY) is required"))
	}
	return errors.Join(errs...)
}

func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) {
	setString(&cfg.Mode, "SPENDAGENT_MODE")
	setInt(&cfg.Server.Port, "HTTP_PORT")
	setString(&cfg.Server.CORSOrigin, "CORS_ORIGIN")
	setFloat(&cfg.Server.RatePerSecond, "RATE_PER_SECOND")
	setString(&cfg.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setString(&cfg.Stripe.CustomerID, "STRIPE_CUSTOMER_ID")
	setString(&cfg.Stripe.BaseURL, "STRIPE_BASE_URL")
	setDuration(&cfg.Stripe.Timeout, "STRIPE_TIMEOUT")
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setDuration(&cfg.LLM.Timeout, "LLM_TIMEOUT")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Policy.Path, "POLICY_PATH")
	setInt(&cfg.Breaker.MaxFailures, "BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "BREAKER_TIMEOUT")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Service, "LOG_SERVICE")
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
