package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/liteplex/liteplex/internal/config"
	"github.com/liteplex/liteplex/internal/search"
)

// searchPayload is the wire form of a search tool result inside the
// transcript: formatted text for the model plus structured sources for
// the client.
type searchPayload struct {
	Text    string          `json:"text"`
	Sources []search.Source `json:"sources"`
}

const contextAnswerLimit = 200

// lastSearchBlock walks the transcript backwards and returns the most
// recent search result block with its sources. Raw formatted blocks
// without the JSON envelope are accepted too; they just carry no
// sources.
func lastSearchBlock(msgs []Message) (string, []search.Source, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]
		if msg.Role != "tool" {
			continue
		}
		content := msg.Content
		if content == "" && msg.ToolResult != nil {
			content = msg.ToolResult.Content
		}

		var payload searchPayload
		if err := json.Unmarshal([]byte(content), &payload); err == nil && payload.Text != "" {
			return payload.Text, payload.Sources, true
		}
		if search.IsResultBlock(content) {
			return content, nil, true
		}
	}
	return "", nil, false
}

// conversationContext renders the last exchanges before the current
// question, with assistant answers truncated so the summarizer prompt
// stays dominated by search results rather than old prose.
func conversationContext(msgs []Message, maxPairs int) string {
	var pairs []string
	for i := 0; i < len(msgs)-1; i++ {
		if msgs[i].Role != "user" || msgs[i+1].Role != "assistant" {
			continue
		}
		answer := msgs[i+1].Content
		if len(answer) > contextAnswerLimit {
			answer = answer[:contextAnswerLimit] + "..."
		}
		pairs = append(pairs, fmt.Sprintf("User: %s\nAssistant: %s", msgs[i].Content, answer))
		i++
	}
	if len(pairs) > maxPairs {
		pairs = pairs[len(pairs)-maxPairs:]
	}
	return strings.Join(pairs, "\n\n")
}

func buildSummarizePrompt(msgs []Message, question, results string, sources []search.Source) string {
	var b strings.Builder

	if cc := conversationContext(msgs, 2); cc != "" {
		b.WriteString("Previous conversation:\n")
		b.WriteString(cc)
		b.WriteString("\n\n")
	}

	if len(sources) > 0 {
		b.WriteString("Available sources:\n")
		for _, src := range sources {
			fmt.Fprintf(&b, "%d. [%s](%s)\n", src.Index, src.Title, src.URL)
		}
		b.WriteString("\n")
	}

	b.WriteString(results)
	b.WriteString("\n\nUser question: ")
	b.WriteString(question)
	b.WriteString("\n\nWrite a comprehensive answer with citations.")
	return b.String()
}

// streamSummarize turns the latest search block into a cited answer,
// forwarding each token through emit. It returns the full answer and
// whether the stream ran to completion; the caller owns the Sources
// and Done events that follow. When emit reports a dead consumer or
// the model errors mid-stream the second return is false and no
// further events should be sent (Error is already emitted for model
// failures).
func streamSummarize(ctx context.Context, provider Provider, msgs []Message, question string, llm config.LLMConfig, emit func(StreamEvent) bool) (string, []search.Source, bool) {
	results, sources, found := lastSearchBlock(msgs)
	if !found {
		return "", nil, true
	}

	prompt := buildSummarizePrompt(msgs, question, results, sources)

	stream, err := provider.Stream(ctx, ChatRequest{
		SystemPrompt: summarizePolicy,
		Messages:     []Message{{Role: "user", Content: prompt}},
		MaxTokens:    llm.MaxTokens,
		Temperature:  llm.Temperature,
	})
	if err != nil {
		emit(errorEvent((&ProviderError{Provider: provider.Name(), Err: err}).Error()))
		return "", nil, false
	}

	var full strings.Builder
	for chunk := range stream {
		if ctx.Err() != nil {
			return "", nil, false
		}
		if chunk.Err != nil {
			emit(errorEvent((&ProviderError{Provider: provider.Name(), Err: chunk.Err}).Error()))
			return "", nil, false
		}
		full.WriteString(chunk.Content)
		if !emit(tokenEvent(chunk.Content)) {
			return "", nil, false
		}
	}
	if ctx.Err() != nil {
		return "", nil, false
	}

	return full.String(), sources, true
}
