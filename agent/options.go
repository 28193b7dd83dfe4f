package agent

import (
	"time"

	"github.com/effective-security/agentic/invoke"
)

// DefaultMaxIterations caps the reasoning round-trips per turn.
const DefaultMaxIterations = 10

// Option is a function that can be used to modify the Agent Config.
type Option func(*Config)

type Config struct {
	// Name identifies the agent in logs, metrics and callbacks.
	Name string

	// MaxIterations caps the reasoning round-trips in one turn.
	MaxIterations int

	// ToolTimeout is the default per-tool execution timeout.
	ToolTimeout time.Duration

	// Callback is the handler for loop and tool events.
	Callback Callback
}

func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		Name:          "agent",
		MaxIterations: DefaultMaxIterations,
		ToolTimeout:   invoke.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithName sets the agent name.
func WithName(name string) Option {
	return func(o *Config) {
		if name != "" {
			o.Name = name
		}
	}
}

// WithMaxIterations overrides the reasoning round-trip cap.
func WithMaxIterations(n int) Option {
	return func(o *Config) {
		if n > 0 {
			o.MaxIterations = n
		}
	}
}

// WithToolTimeout overrides the default per-tool execution timeout.
func WithToolTimeout(d time.Duration) Option {
	return func(o *Config) {
		if d > 0 {
			o.ToolTimeout = d
		}
	}
}

// WithCallback sets the loop event handler.
func WithCallback(cb Callback) Option {
	return func(o *Config) {
		o.Callback = cb
	}
}
