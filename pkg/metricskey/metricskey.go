// Package metricskey describes the metrics emitted by the agent runtime.
package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	StatsTurnsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_turns_succeeded",
		Help:         "stats_turns_succeeded provides total agent turns succeeded",
		RequiredTags: []string{"agent"},
	}

	StatsTurnsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_turns_failed",
		Help:         "stats_turns_failed provides total agent turns failed",
		RequiredTags: []string{"agent"},
	}

	StatsLoopIterations = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_loop_iterations",
		Help:         "stats_loop_iterations provides total reasoning loop iterations",
		RequiredTags: []string{"agent"},
	}

	StatsReasonerParseErrors = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_reasoner_parse_errors",
		Help:         "stats_reasoner_parse_errors provides total reasoner output parse errors",
		RequiredTags: []string{"agent"},
	}

	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsRejected = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_rejected",
		Help:         "stats_tool_calls_rejected provides total tool calls rejected by argument validation",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsTimedOut = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_timed_out",
		Help:         "stats_tool_calls_timed_out provides total tool calls timed out",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsNotFound = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_not_found",
		Help:         "stats_tool_calls_not_found provides total tool calls not found",
		RequiredTags: []string{"tool"},
	}
)

// Perf
var (
	PerfTurn = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_turn",
		Help:         "perf_turn provides duration of an agent turn",
		RequiredTags: []string{"agent"},
	}

	PerfReasonerCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_reasoner_call",
		Help:         "perf_reasoner_call provides duration of a reasoner call",
		RequiredTags: []string{"agent"},
	}

	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides duration of tool call",
		RequiredTags: []string{"tool"},
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfReasonerCall,
	&PerfToolCall,
	&PerfTurn,
	&StatsLoopIterations,
	&StatsReasonerParseErrors,
	&StatsToolCallsFailed,
	&StatsToolCallsNotFound,
	&StatsToolCallsRejected,
	&StatsToolCallsSucceeded,
	&StatsToolCallsTimedOut,
	&StatsTurnsFailed,
	&StatsTurnsSucceeded,
}
