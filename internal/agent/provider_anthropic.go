package agent

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
)

// AnthropicProvider implements the Provider interface for the Anthropic
// messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-5-sonnet-latest"
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(cfg.APIKey),
		model:  model,
	}, nil
}

func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

func (p *AnthropicProvider) buildRequest(req ChatRequest) anthropic.MessagesRequest {
	messages := make([]anthropic.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		content := msg.Content
		switch msg.Role {
		case "assistant":
			if content == "" && len(msg.ToolCalls) > 0 {
				content = "(requested a search)"
			}
			messages = append(messages, anthropic.NewAssistantTextMessage(content))
		case "tool":
			if content == "" && msg.ToolResult != nil {
				content = msg.ToolResult.Content
			}
			messages = append(messages, anthropic.NewUserTextMessage(content))
		default:
			messages = append(messages, anthropic.NewUserTextMessage(content))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	mreq := anthropic.MessagesRequest{
		Model:     anthropic.Model(p.model),
		System:    req.SystemPrompt,
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		mreq.Temperature = &temp
	}

	if len(req.Tools) > 0 {
		tools := make([]anthropic.ToolDefinition, 0, len(req.Tools))
		for _, tool := range req.Tools {
			tools = append(tools, anthropic.ToolDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: tool.InputSchema,
			})
		}
		mreq.Tools = tools
	}

	return mreq
}

func (p *AnthropicProvider) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	resp, err := p.client.CreateMessages(ctx, p.buildRequest(req))
	if err != nil {
		return ChatResponse{}, fmt.Errorf("anthropic API error: %w", err)
	}

	var out ChatResponse
	for _, block := range resp.Content {
		switch block.Type {
		case anthropic.MessagesContentTypeText:
			out.Content += block.GetText()
		case anthropic.MessagesContentTypeToolUse:
			if block.MessageContentToolUse == nil {
				continue
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:    block.MessageContentToolUse.ID,
				Name:  block.MessageContentToolUse.Name,
				Input: block.MessageContentToolUse.Input,
			})
		}
	}

	out.FinishReason = "stop"
	if resp.StopReason == anthropic.MessagesStopReasonToolUse {
		out.FinishReason = "tool_use"
	}
	return out, nil
}

func (p *AnthropicProvider) Stream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error) {
	mreq := p.buildRequest(req)

	out := make(chan StreamChunk)
	go func() {
		defer close(out)

		_, err := p.client.CreateMessagesStream(ctx, anthropic.MessagesStreamRequest{
			MessagesRequest: mreq,
			OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
				text := data.Delta.GetText()
				if text == "" {
					return
				}
				select {
				case out <- StreamChunk{Content: text}:
				case <-ctx.Done():
				}
			},
		})
		if err != nil && ctx.Err() == nil {
			select {
			case out <- StreamChunk{Err: fmt.Errorf("anthropic stream error: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}
