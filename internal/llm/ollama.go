// Package llm adapts chat-completion backends to the interfaces.ChatModel
// contract shared by EntityExtractor, sub-agents, and the supervisor's
// synthesis step.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	ollamaapi "github.com/ollama/ollama/api"

	"github.com/wk-archive/meetingmind/internal/apperr"
	"github.com/wk-archive/meetingmind/internal/logger"
	"github.com/wk-archive/meetingmind/internal/types/interfaces"
)

// OllamaChat talks to a local or remote Ollama daemon.
type OllamaChat struct {
	client    *ollamaapi.Client
	modelName string
}

// NewOllamaChat wraps an already-configured Ollama client.
func NewOllamaChat(client *ollamaapi.Client, modelName string) *OllamaChat {
	return &OllamaChat{client: client, modelName: modelName}
}

func (c *OllamaChat) convertMessages(messages []interfaces.ChatMessage) []ollamaapi.Message {
	out := make([]ollamaapi.Message, 0, len(messages))
	for _, m := range messages {
		msg := ollamaapi.Message{Role: m.Role, Content: m.Content}
		if m.Role == "tool" {
			msg.ToolName = m.ToolCallID
		}
		out = append(out, msg)
	}
	return out
}

func (c *OllamaChat) convertTools(tools []interfaces.ToolSpec) ollamaapi.Tools {
	if len(tools) == 0 {
		return nil
	}
	out := make(ollamaapi.Tools, 0, len(tools))
	for _, t := range tools {
		out = append(out, ollamaapi.Tool{
			Type: "function",
			Function: ollamaapi.ToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return out
}

// Chat sends one non-streaming chat-completion request.
func (c *OllamaChat) Chat(ctx context.Context, messages []interfaces.ChatMessage, tools []interfaces.ToolSpec) (interfaces.ChatResponse, error) {
	streamFlag := false
	req := &ollamaapi.ChatRequest{
		Model:    c.modelName,
		Messages: c.convertMessages(messages),
		Stream:   &streamFlag,
		Tools:    c.convertTools(tools),
	}

	logger.GetLogger(ctx).Infof("sending chat request to model %s", c.modelName)

	var resp interfaces.ChatResponse
	err := c.client.Chat(ctx, req, func(r ollamaapi.ChatResponse) error {
		resp.Content = r.Message.Content
		resp.ToolCalls = convertToolCallsFromOllama(r.Message.ToolCalls)
		if r.Done {
			resp.FinishReason = "stop"
		}
		return nil
	})
	if err != nil {
		return interfaces.ChatResponse{}, fmt.Errorf("%w: ollama chat: %v", apperr.ErrTransientExternal, err)
	}
	return resp, nil
}

func convertToolCallsFromOllama(calls []ollamaapi.ToolCall) []interfaces.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]interfaces.ToolCall, 0, len(calls))
	for i, tc := range calls {
		args, _ := json.Marshal(tc.Function.Arguments)
		out = append(out, interfaces.ToolCall{
			ID:        fmt.Sprintf("call_%d", i),
			Name:      tc.Function.Name,
			Arguments: string(args),
		})
	}
	return out
}
