package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/wk-archive/meetingmind/internal/apperr"
	"github.com/wk-archive/meetingmind/internal/logger"
	"github.com/wk-archive/meetingmind/internal/types/interfaces"
)

// OpenAIChat talks to any OpenAI-compatible chat completion endpoint
// (OpenAI itself, or a self-hosted gateway exposing the same API shape).
type OpenAIChat struct {
	client    *openai.Client
	modelName string
}

// NewOpenAIChat wraps an already-configured go-openai client.
func NewOpenAIChat(client *openai.Client, modelName string) *OpenAIChat {
	return &OpenAIChat{client: client, modelName: modelName}
}

// NewOpenAIClient builds a go-openai client for provider, resolving a
// default base URL when baseURL is left blank in configuration.
func NewOpenAIClient(provider ProviderName, baseURL, apiKey string) *openai.Client {
	resolved := ResolveBaseURL(provider, baseURL)
	cfg := openai.DefaultConfig(apiKey)
	if resolved != "" {
		cfg.BaseURL = resolved
	}
	return openai.NewClientWithConfig(cfg)
}

func (c *OpenAIChat) convertMessages(messages []interfaces.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := openai.ChatCompletionMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func (c *OpenAIChat) convertTools(tools []interfaces.ToolSpec) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return out
}

// Chat sends one non-streaming chat-completion request.
func (c *OpenAIChat) Chat(ctx context.Context, messages []interfaces.ChatMessage, tools []interfaces.ToolSpec) (interfaces.ChatResponse, error) {
	logger.GetLogger(ctx).Infof("sending chat request to model %s", c.modelName)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.modelName,
		Messages: c.convertMessages(messages),
		Tools:    c.convertTools(tools),
	})
	if err != nil {
		return interfaces.ChatResponse{}, fmt.Errorf("%w: openai chat: %v", apperr.ErrTransientExternal, err)
	}
	if len(resp.Choices) == 0 {
		return interfaces.ChatResponse{}, fmt.Errorf("%w: openai chat: empty choices", apperr.ErrPermanentExternal)
	}

	choice := resp.Choices[0]
	out := interfaces.ChatResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, interfaces.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

// marshalArgs JSON-encodes v as a tool-call argument string, ignoring
// marshal errors.
func marshalArgs(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}
