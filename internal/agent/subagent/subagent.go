// Package subagent implements QuerySubAgent and AnalysisSubAgent: isolated,
// single-task delegates the supervisor dispatches to (spec.md §4.11,
// §4.12). Each call runs in a fresh conversational context seeded only
// with its own system prompt and task description, so raw retrieval
// payloads never reach the supervisor's context.
package subagent

import (
	"context"
	"fmt"
	"strings"

	"github.com/wk-archive/meetingmind/internal/agent/tools"
	"github.com/wk-archive/meetingmind/internal/types"
	"github.com/wk-archive/meetingmind/internal/types/interfaces"
)

const maxSummaryWords = 500

const queryAgentSystemPrompt = `You are a retrieval agent. You have tools to inspect a schema and run
read-only queries against a knowledge graph and its relational mirror. Given
one task description, gather the facts needed and respond with a natural
language summary of at most 500 words that cites Source titles and dates.
Never return raw rows; summarize them. If every query attempt fails, say so
plainly.`

const analysisAgentSystemPrompt = `You are an analysis agent. You have no tools. You are given a data blob
assembled by a supervisor from prior retrieval summaries. Produce themes,
comparisons, or categorizations as the task description requests, in at
most 500 words.`

// SubAgent runs one isolated delegation and returns a bounded natural
// language summary.
type SubAgent interface {
	Run(ctx context.Context, task string) (string, error)
}

// QuerySubAgent retrieves facts via tool calls against the knowledge
// stores, with a hard retry cap of 3 on query error (spec.md §4.11).
type QuerySubAgent struct {
	chat     interfaces.ChatModel
	toolset  []tools.Tool
	maxRetry int
}

// NewQuerySubAgent builds a QuerySubAgent with the standard three tools.
func NewQuerySubAgent(chat interfaces.ChatModel, toolset []tools.Tool) *QuerySubAgent {
	return &QuerySubAgent{chat: chat, toolset: toolset, maxRetry: 3}
}

// Run executes the ReAct-style tool loop until the model stops requesting
// tool calls or the retry cap is hit.
func (a *QuerySubAgent) Run(ctx context.Context, task string) (string, error) {
	specs := toolSpecs(a.toolset)
	messages := []interfaces.ChatMessage{
		{Role: "system", Content: queryAgentSystemPrompt},
		{Role: "user", Content: task},
	}

	var lastErr error
	for attempt := 0; attempt < a.maxRetry; attempt++ {
		resp, err := a.chat.Chat(ctx, messages, specs)
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.ToolCalls) == 0 {
			return boundWords(resp.Content, maxSummaryWords), nil
		}

		messages = append(messages, interfaces.ChatMessage{Role: "assistant", Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			result := a.invoke(ctx, call)
			messages = append(messages, interfaces.ChatMessage{Role: "tool", Content: result, ToolCallID: call.ID})
		}
	}
	if lastErr != nil {
		return fmt.Sprintf("unable to retrieve an answer after %d attempts: %v", a.maxRetry, lastErr), nil
	}
	return "unable to retrieve an answer: query tool loop did not converge", nil
}

func (a *QuerySubAgent) invoke(ctx context.Context, call interfaces.ToolCall) string {
	for _, t := range a.toolset {
		if t.Name() != call.Name {
			continue
		}
		result, err := t.Execute(ctx, []byte(call.Arguments))
		if err != nil {
			return fmt.Sprintf("tool error: %v", err)
		}
		if !result.Success {
			return fmt.Sprintf("tool failed: %s", result.Error)
		}
		return result.Output
	}
	return fmt.Sprintf("unknown tool: %s", call.Name)
}

func toolSpecs(toolset []tools.Tool) []interfaces.ToolSpec {
	specs := make([]interfaces.ToolSpec, len(toolset))
	for i, t := range toolset {
		specs[i] = interfaces.ToolSpec{Name: t.Name(), Description: t.Description(), InputSchema: t.Schema()}
	}
	return specs
}

// AnalysisSubAgent reasons over a supervisor-supplied data blob with no
// tool access (spec.md §4.12).
type AnalysisSubAgent struct {
	chat interfaces.ChatModel
}

// NewAnalysisSubAgent builds an AnalysisSubAgent.
func NewAnalysisSubAgent(chat interfaces.ChatModel) *AnalysisSubAgent {
	return &AnalysisSubAgent{chat: chat}
}

// Run asks the model to analyze the task description (which embeds the
// data blob) and bounds its response to 500 words.
func (a *AnalysisSubAgent) Run(ctx context.Context, task string) (string, error) {
	resp, err := a.chat.Chat(ctx, []interfaces.ChatMessage{
		{Role: "system", Content: analysisAgentSystemPrompt},
		{Role: "user", Content: task},
	}, nil)
	if err != nil {
		return "", err
	}
	return boundWords(resp.Content, maxSummaryWords), nil
}

// ForKind selects the SubAgent implementation for a SubAgentKind.
func ForKind(kind types.SubAgentKind, query, analysis SubAgent) SubAgent {
	if kind == types.SubAgentAnalysis {
		return analysis
	}
	return query
}

func boundWords(text string, limit int) string {
	words := strings.Fields(text)
	if len(words) <= limit {
		return text
	}
	return strings.Join(words[:limit], " ") + " […truncated]"
}
