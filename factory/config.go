package factory

import (
	"slices"

	"github.com/effective-security/agentic/reasoners/openai"
	"github.com/effective-security/x/configloader"
)

// Config assembles an agent from a YAML file: the reasoner, the transcript
// store, the enabled tools and the loop limits.
type Config struct {
	// Agent specifies the loop configuration.
	Agent AgentConfig `json:"agent" yaml:"agent"`
	// Reasoner specifies the LLM provider configuration.
	Reasoner openai.Config `json:"reasoner" yaml:"reasoner"`
	// Store specifies the transcript store backend.
	Store StoreConfig `json:"store" yaml:"store"`
	// Tools specifies the enabled tools and their credentials.
	Tools ToolsConfig `json:"tools" yaml:"tools"`
}

// AgentConfig specifies the loop configuration.
type AgentConfig struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// MaxIterations caps reasoning iterations per turn.
	MaxIterations int `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`
	// ToolTimeoutSeconds caps a single tool execution.
	ToolTimeoutSeconds int `json:"tool_timeout_seconds,omitempty" yaml:"tool_timeout_seconds,omitempty"`
}

// StoreConfig specifies the transcript store backend.
type StoreConfig struct {
	// Provider is "memory" or "redis". Defaults to "memory".
	Provider string      `json:"provider,omitempty" yaml:"provider,omitempty"`
	Redis    RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// RedisConfig specifies the Redis connection for the transcript store.
type RedisConfig struct {
	Server   string `json:"server" yaml:"server"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	// SessionTTLHours expires idle sessions. Defaults to 24.
	SessionTTLHours int `json:"session_ttl_hours,omitempty" yaml:"session_ttl_hours,omitempty"`
}

// ToolsConfig specifies the enabled tools and their credentials.
// Credential values support configloader expansion, so they can reference
// environment variables like ${TAVILY_API_KEY}.
type ToolsConfig struct {
	// Enabled lists tool groups to register:
	// web_search, calculate, clock, weather, news, travel.
	Enabled []string `json:"enabled" yaml:"enabled"`

	TavilyAPIKey     string `json:"tavily_api_key,omitempty" yaml:"tavily_api_key,omitempty"`
	NewsAPIKey       string `json:"news_api_key,omitempty" yaml:"news_api_key,omitempty"`
	AmadeusAPIKey    string `json:"amadeus_api_key,omitempty" yaml:"amadeus_api_key,omitempty"`
	AmadeusAPISecret string `json:"amadeus_api_secret,omitempty" yaml:"amadeus_api_secret,omitempty"`
}

// IsEnabled reports whether a tool group is enabled.
func (c *ToolsConfig) IsEnabled(name string) bool {
	return slices.Contains(c.Enabled, name)
}

// LoadConfig from file, expanding environment variables.
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
