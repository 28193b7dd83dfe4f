// Package factory assembles a runnable agent from configuration: the tool
// registry, the transcript store, the reasoner and the session manager.
package factory

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentic/agent"
	"github.com/effective-security/agentic/reasoners/openai"
	"github.com/effective-security/agentic/session"
	"github.com/effective-security/agentic/tools"
	"github.com/effective-security/agentic/tools/calc"
	"github.com/effective-security/agentic/tools/clock"
	"github.com/effective-security/agentic/tools/news"
	"github.com/effective-security/agentic/tools/travel"
	"github.com/effective-security/agentic/tools/weather"
	"github.com/effective-security/agentic/tools/websearch"
	"github.com/effective-security/agentic/transcript"
	"github.com/redis/go-redis/v9"
)

// Assembly is a fully wired agent runtime.
type Assembly struct {
	Registry *tools.Registry
	Store    transcript.Store
	Reasoner *openai.Reasoner
	Agent    *agent.Agent
	Sessions *session.Manager
}

// Load builds an Assembly from a YAML config file.
func Load(location string, opts ...agent.Option) (*Assembly, error) {
	cfg, err := LoadConfig(location)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// New builds an Assembly from config. Extra agent options are applied after
// the config-derived ones, so callers can attach callbacks.
func New(cfg *Config, opts ...agent.Option) (*Assembly, error) {
	registry, err := NewRegistry(&cfg.Tools)
	if err != nil {
		return nil, err
	}

	store, err := NewStore(&cfg.Store)
	if err != nil {
		return nil, err
	}

	reasoner, err := openai.New(&cfg.Reasoner, registry)
	if err != nil {
		return nil, err
	}

	var agentOpts []agent.Option
	if cfg.Agent.Name != "" {
		agentOpts = append(agentOpts, agent.WithName(cfg.Agent.Name))
	}
	if cfg.Agent.MaxIterations > 0 {
		agentOpts = append(agentOpts, agent.WithMaxIterations(cfg.Agent.MaxIterations))
	}
	if cfg.Agent.ToolTimeoutSeconds > 0 {
		agentOpts = append(agentOpts, agent.WithToolTimeout(time.Duration(cfg.Agent.ToolTimeoutSeconds)*time.Second))
	}
	agentOpts = append(agentOpts, opts...)

	ag := agent.New(reasoner, registry, store, agentOpts...)

	return &Assembly{
		Registry: registry,
		Store:    store,
		Reasoner: reasoner,
		Agent:    ag,
		Sessions: session.NewManager(ag, store),
	}, nil
}

// NewRegistry builds a tool registry from the enabled tool groups.
func NewRegistry(cfg *ToolsConfig) (*tools.Registry, error) {
	var list []tools.ITool

	for _, name := range cfg.Enabled {
		switch name {
		case "web_search":
			tool, err := websearch.New(cfg.TavilyAPIKey)
			if err != nil {
				return nil, err
			}
			list = append(list, tool)
		case "calculate":
			list = append(list, calc.New())
		case "clock":
			list = append(list, clock.Tools()...)
		case "weather":
			list = append(list, weather.Tools(weather.NewClient())...)
		case "news":
			client, err := news.NewClient(cfg.NewsAPIKey)
			if err != nil {
				return nil, err
			}
			list = append(list, news.Tools(client)...)
		case "travel":
			client, err := travel.NewClient(cfg.AmadeusAPIKey, cfg.AmadeusAPISecret)
			if err != nil {
				return nil, err
			}
			list = append(list, travel.Tools(client)...)
		default:
			return nil, errors.Newf("unknown tool group: %s", name)
		}
	}

	return tools.NewRegistry(list...)
}

// NewStore builds the transcript store from config.
func NewStore(cfg *StoreConfig) (transcript.Store, error) {
	switch cfg.Provider {
	case "", "memory":
		return transcript.NewMemoryStore(), nil
	case "redis":
		if cfg.Redis.Server == "" {
			return nil, errors.New("redis store requires a server address")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Server,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		var opts []transcript.RedisOption
		if cfg.Redis.SessionTTLHours > 0 {
			opts = append(opts, transcript.WithSessionTTL(time.Duration(cfg.Redis.SessionTTLHours)*time.Hour))
		}
		return transcript.NewRedisStore(client, cfg.Redis.Prefix, opts...), nil
	default:
		return nil, errors.Newf("unknown store provider: %s", cfg.Provider)
	}
}
