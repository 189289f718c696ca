package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the gateway configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Azure     AzureConfig     `yaml:"azure"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// AuthConfig contains authentication settings
type AuthConfig struct {
	APIKeys []APIKey `yaml:"api_keys"`
}

// APIKey represents an API key for authentication
type APIKey struct {
	Name string `yaml:"name"`
	Key  string `yaml:"key"`
}

// AzureConfig contains Azure DevOps connection settings
type AzureConfig struct {
	OrganizationURL string        `yaml:"organization_url"`
	Project         string        `yaml:"project"`
	BuildID         int           `yaml:"build_id"`
	Token           string        `yaml:"token"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

// ArtifactsConfig controls JSON snapshot persistence
type ArtifactsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables in the config
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills unset fields, falling back to the well-known Azure
// Pipelines environment variables for the token and build id
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Azure.Token == "" {
		c.Azure.Token = os.Getenv("AZURE_PIPELINES_TOKEN")
	}
	if c.Azure.BuildID == 0 {
		// BUILD_BUILDID is set by the Azure Pipelines agent
		if id, err := strconv.Atoi(os.Getenv("BUILD_BUILDID")); err == nil {
			c.Azure.BuildID = id
		}
	}
	if c.Azure.RequestTimeout == 0 {
		c.Azure.RequestTimeout = 30 * time.Second
	}
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = "logs"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// validate rejects configurations that cannot produce a working gateway
func (c *Config) validate() error {
	if c.Azure.OrganizationURL == "" {
		return fmt.Errorf("azure.organization_url is required")
	}
	if c.Azure.Project == "" {
		return fmt.Errorf("azure.project is required")
	}
	if c.Azure.BuildID <= 0 {
		return fmt.Errorf("azure.build_id is required: provide an existent build id")
	}
	if c.Azure.Token == "" {
		return fmt.Errorf("azure.token is required: set it in the config or export AZURE_PIPELINES_TOKEN")
	}
	if c.Azure.RequestTimeout < 0 {
		return fmt.Errorf("azure.request_timeout must not be negative")
	}
	return nil
}
