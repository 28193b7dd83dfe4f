// Package openai adapts an OpenAI chat-completions model (or any
// API-compatible endpoint) to the agent.Reasoner interface, using native
// tool calling: registered tools become function declarations, and the
// model's tool_calls become invocation requests.
package openai

import (
	"context"
	"encoding/json"

	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentic/agent"
	"github.com/effective-security/agentic/invoke"
	"github.com/effective-security/agentic/pkg/llmutils"
	"github.com/effective-security/agentic/tools"
	"github.com/effective-security/agentic/transcript"
	"github.com/effective-security/xlog"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentic", "reasoners")

// DefaultSystemPrompt instructs the model to answer directly or request
// tools, never both.
const DefaultSystemPrompt = `You are a helpful assistant.
Use the provided tools when the question requires external data or computation.
When you have enough information, reply with the final answer in plain text and do not request more tools.`

// Config describes the model endpoint.
type Config struct {
	// APIKey authenticates against the endpoint.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	// BaseURL overrides the default endpoint, for OpenAI-compatible providers.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	// Model is the model name, e.g. "gpt-4o".
	Model string `json:"model" yaml:"model"`
	// SystemPrompt overrides DefaultSystemPrompt.
	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	// Temperature for sampling, between 0 and 1.
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

// Reasoner drives an OpenAI chat model with the registry's tools declared.
type Reasoner struct {
	client    openai.Client
	cfg       *Config
	toolDefs  []openai.ChatCompletionToolUnionParam
	sysPrompt string
}

// New creates a Reasoner over the registry's tools. The registry should be
// the same one the agent dispatches against.
func New(cfg *Config, registry *tools.Registry) (*Reasoner, error) {
	if cfg == nil || cfg.Model == "" {
		return nil, errors.New("model is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	toolDefs, err := declareTools(registry.Tools())
	if err != nil {
		return nil, err
	}

	sysPrompt := cfg.SystemPrompt
	if sysPrompt == "" {
		sysPrompt = DefaultSystemPrompt
	}

	return &Reasoner{
		client:    openai.NewClient(opts...),
		cfg:       cfg,
		toolDefs:  toolDefs,
		sysPrompt: sysPrompt,
	}, nil
}

var _ agent.Reasoner = (*Reasoner)(nil)

// Reason sends the transcript to the model and interprets the response as
// either a final answer or a list of tool calls.
func (r *Reasoner) Reason(ctx context.Context, entries []transcript.Entry) (*agent.Outcome, error) {
	messages, err := r.messages(entries)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    r.cfg.Model,
		Messages: messages,
	}
	if len(r.toolDefs) > 0 {
		params.Tools = r.toolDefs
	}
	if r.cfg.Temperature > 0 {
		params.Temperature = openai.Opt(r.cfg.Temperature)
	}

	resp, err := r.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.WithMessage(agent.ErrReasoningParse, "model returned no choices")
	}

	msg := resp.Choices[0].Message
	logger.ContextKV(ctx, xlog.DEBUG,
		"model", r.cfg.Model,
		"tool_calls", len(msg.ToolCalls),
		"finish_reason", resp.Choices[0].FinishReason,
	)

	if len(msg.ToolCalls) == 0 {
		if msg.Content == "" {
			return nil, errors.WithMessage(agent.ErrReasoningParse, "model returned neither content nor tool calls")
		}
		return &agent.Outcome{FinalAnswer: llmutils.TrimBackticks(msg.Content)}, nil
	}

	outcome := &agent.Outcome{
		Commentary: msg.Content,
	}
	for _, tc := range msg.ToolCalls {
		var args map[string]any
		if tc.Function.Arguments != "" {
			if err := ljson.Unmarshal(llmutils.CleanJSON([]byte(tc.Function.Arguments)), &args); err != nil {
				return nil, errors.WithMessagef(agent.ErrReasoningParse,
					"malformed arguments for tool %s", tc.Function.Name)
			}
		}
		outcome.ToolCalls = append(outcome.ToolCalls, invoke.Request{
			ID:        tc.ID,
			Tool:      tc.Function.Name,
			Arguments: args,
		})
	}
	return outcome, nil
}

// messages converts the transcript into the chat wire format: reasoning
// entries become assistant tool_calls messages and observations become tool
// result messages, so the model sees the exchange the way it produced it.
func (r *Reasoner) messages(entries []transcript.Entry) ([]openai.ChatCompletionMessageParamUnion, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(r.sysPrompt),
	}
	for _, entry := range entries {
		switch entry.Kind {
		case transcript.KindUserMessage:
			messages = append(messages, openai.UserMessage(entry.Text))
		case transcript.KindReasoning:
			messages = append(messages, assistantToolCalls(entry))
		case transcript.KindObservation:
			if entry.Request == nil || entry.Result == nil {
				return nil, errors.New("observation entry is missing its request or result")
			}
			messages = append(messages, openai.ToolMessage(entry.Result.Content(), entry.Request.ID))
		case transcript.KindFinalAnswer:
			messages = append(messages, openai.AssistantMessage(entry.Text))
		default:
			return nil, errors.Newf("unsupported entry kind: %s", entry.Kind)
		}
	}
	return messages, nil
}

func assistantToolCalls(entry transcript.Entry) openai.ChatCompletionMessageParamUnion {
	msg := openai.ChatCompletionAssistantMessageParam{}
	if entry.Text != "" {
		msg.Content.OfString = openai.Opt(entry.Text)
	}
	for _, call := range entry.ToolCalls {
		args, _ := json.Marshal(call.Arguments)
		msg.ToolCalls = append(msg.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: call.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      call.Tool,
					Arguments: string(args),
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &msg}
}

// declareTools converts registered tools to function declarations.
func declareTools(list []tools.ITool) ([]openai.ChatCompletionToolUnionParam, error) {
	var defs []openai.ChatCompletionToolUnionParam
	for _, tool := range list {
		var params openai.FunctionParameters
		bs, err := json.Marshal(tool.Schema().Parameters)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal schema for tool %s", tool.Name())
		}
		if err := json.Unmarshal(bs, &params); err != nil {
			return nil, errors.Wrapf(err, "failed to convert schema for tool %s", tool.Name())
		}
		defs = append(defs, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        tool.Name(),
			Description: openai.String(tool.Description()),
			Parameters:  params,
		}))
	}
	return defs, nil
}
