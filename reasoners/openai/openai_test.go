package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentic/agent"
	"github.com/effective-security/agentic/invoke"
	"github.com/effective-security/agentic/pkg/schema"
	oai "github.com/effective-security/agentic/reasoners/openai"
	"github.com/effective-security/agentic/tools"
	"github.com/effective-security/agentic/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weatherInput struct {
	City string `json:"city" jsonschema:"title=city,description=City name."`
}

type weatherTool struct{}

func (t *weatherTool) Name() string           { return "get_weather" }
func (t *weatherTool) Description() string    { return "Returns current weather for a city." }
func (t *weatherTool) Schema() *schema.Schema { return schema.MustNew(weatherInput{}) }
func (t *weatherTool) Call(_ context.Context, _ string) (string, error) {
	return `{"temperature": 21}`, nil
}

// fakeCompletions captures the request body and replies with a canned
// chat completion.
type fakeCompletions struct {
	response string
	lastBody map[string]any
}

func (f *fakeCompletions) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(body, &f.lastBody)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(f.response))
}

func newReasoner(t *testing.T, srv *httptest.Server, list ...tools.ITool) *oai.Reasoner {
	t.Helper()
	r, err := oai.New(&oai.Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "gpt-4o",
	}, tools.MustRegistry(list...))
	require.NoError(t, err)
	return r
}

func Test_Reason_FinalAnswer(t *testing.T) {
	fake := &fakeCompletions{
		response: `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "It is sunny."}
			}]
		}`,
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	r := newReasoner(t, srv, &weatherTool{})

	out, err := r.Reason(context.Background(), []transcript.Entry{
		transcript.UserMessage("how is the weather?"),
	})
	require.NoError(t, err)
	assert.Equal(t, "It is sunny.", out.FinalAnswer)
	assert.Empty(t, out.ToolCalls)

	// the request declares the registered tool
	toolsSent, ok := fake.lastBody["tools"].([]any)
	require.True(t, ok)
	require.Len(t, toolsSent, 1)
	fn := toolsSent[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "get_weather", fn["name"])
	assert.Equal(t, "Returns current weather for a city.", fn["description"])

	params := fn["parameters"].(map[string]any)
	assert.Equal(t, "object", params["type"])
	props := params["properties"].(map[string]any)
	require.Contains(t, props, "city")
}

func Test_Reason_ToolCalls(t *testing.T) {
	fake := &fakeCompletions{
		response: `{
			"id": "chatcmpl-2",
			"object": "chat.completion",
			"model": "gpt-4o",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_abc",
						"type": "function",
						"function": {"name": "get_weather", "arguments": "{\"city\": \"Oslo\"}"}
					}]
				}
			}]
		}`,
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	r := newReasoner(t, srv, &weatherTool{})

	out, err := r.Reason(context.Background(), []transcript.Entry{
		transcript.UserMessage("weather in Oslo?"),
	})
	require.NoError(t, err)
	assert.Empty(t, out.FinalAnswer)
	require.Len(t, out.ToolCalls, 1)
	assert.Equal(t, "call_abc", out.ToolCalls[0].ID)
	assert.Equal(t, "get_weather", out.ToolCalls[0].Tool)
	assert.Equal(t, map[string]any{"city": "Oslo"}, out.ToolCalls[0].Arguments)
}

func Test_Reason_TranscriptWireFormat(t *testing.T) {
	fake := &fakeCompletions{
		response: `{
			"id": "chatcmpl-3",
			"object": "chat.completion",
			"model": "gpt-4o",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "21 degrees."}
			}]
		}`,
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	r := newReasoner(t, srv, &weatherTool{})

	req := invoke.Request{ID: "call_abc", Tool: "get_weather", Arguments: map[string]any{"city": "Oslo"}}
	res := invoke.Result{Tool: "get_weather", Outcome: invoke.OutcomeSuccess, Payload: `{"temperature": 21}`}

	_, err := r.Reason(context.Background(), []transcript.Entry{
		transcript.UserMessage("weather in Oslo?"),
		transcript.Reasoning("", req),
		transcript.Observation(req, res),
	})
	require.NoError(t, err)

	messages := fake.lastBody["messages"].([]any)
	require.Len(t, messages, 4)

	system := messages[0].(map[string]any)
	assert.Equal(t, "system", system["role"])

	user := messages[1].(map[string]any)
	assert.Equal(t, "user", user["role"])
	assert.Equal(t, "weather in Oslo?", user["content"])

	assistant := messages[2].(map[string]any)
	assert.Equal(t, "assistant", assistant["role"])
	calls := assistant["tool_calls"].([]any)
	require.Len(t, calls, 1)
	call := calls[0].(map[string]any)
	assert.Equal(t, "call_abc", call["id"])

	toolMsg := messages[3].(map[string]any)
	assert.Equal(t, "tool", toolMsg["role"])
	assert.Equal(t, "call_abc", toolMsg["tool_call_id"])
	assert.Equal(t, `{"temperature": 21}`, toolMsg["content"])
}

func Test_Reason_EmptyResponse(t *testing.T) {
	fake := &fakeCompletions{
		response: `{
			"id": "chatcmpl-4",
			"object": "chat.completion",
			"model": "gpt-4o",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": ""}
			}]
		}`,
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	r := newReasoner(t, srv, &weatherTool{})

	_, err := r.Reason(context.Background(), []transcript.Entry{
		transcript.UserMessage("hello"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, agent.ErrReasoningParse))
}

func Test_New_RequiresModel(t *testing.T) {
	_, err := oai.New(&oai.Config{}, tools.MustRegistry())
	require.Error(t, err)
	_, err = oai.New(nil, tools.MustRegistry())
	require.Error(t, err)
}
