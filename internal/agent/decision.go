package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/liteplex/liteplex/internal/config"
	"github.com/liteplex/liteplex/internal/search"
)

// Decision is the outcome of the first model call: either a finished
// direct answer or a request to search the web.
type Decision struct {
	// Direct is the final answer text when no search is needed.
	Direct string
	// Queries is the normalized query list when a search was requested.
	Queries []string
	// Call is the originating tool call, kept so the transcript can
	// carry the assistant turn and its matching tool result.
	Call *ToolCall
}

func (d Decision) NeedsSearch() bool { return d.Call != nil }

// decide runs the decision step: one blocking model call with the
// search tool offered. The query list is normalized to numQueries
// before return so downstream code never sees a ragged fan-out.
func decide(ctx context.Context, provider Provider, msgs []Message, llm config.LLMConfig, numQueries int) (Decision, error) {
	resp, err := provider.Chat(ctx, ChatRequest{
		SystemPrompt: decisionPolicy,
		Messages:     msgs,
		Tools:        []Tool{googleSearchTool()},
		MaxTokens:    llm.MaxTokens,
		Temperature:  llm.Temperature,
	})
	if err != nil {
		return Decision{}, &ProviderError{Provider: provider.Name(), Err: err}
	}

	for i := range resp.ToolCalls {
		call := resp.ToolCalls[i]
		if call.Name != "google_search" {
			continue
		}
		return Decision{
			Queries: normalizeDecisionQueries(parseQueries(call.Input), numQueries),
			Call:    &call,
		}, nil
	}

	return Decision{Direct: extractDirectAnswer(resp.Content)}, nil
}

// parseQueries pulls a query list out of tool-call arguments. Models
// produce malformed arguments often enough that every shape gets a
// fallback: a bare list, an object with a string instead of a list,
// and finally the raw argument text as a single query.
func parseQueries(raw json.RawMessage) []string {
	var args struct {
		Queries []string `json:"queries"`
	}
	if err := json.Unmarshal(raw, &args); err == nil && len(args.Queries) > 0 {
		return args.Queries
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list
	}

	var single struct {
		Queries string `json:"queries"`
		Query   string `json:"query"`
	}
	if err := json.Unmarshal(raw, &single); err == nil {
		if single.Queries != "" {
			return []string{single.Queries}
		}
		if single.Query != "" {
			return []string{single.Query}
		}
	}

	if text := strings.TrimSpace(string(raw)); text != "" && text != "{}" && text != "null" {
		return []string{text}
	}
	return nil
}

func normalizeDecisionQueries(queries []string, target int) []string {
	cleaned := queries[:0:0]
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			cleaned = append(cleaned, q)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	return search.NormalizeQueries(cleaned, target)
}

// extractDirectAnswer unwraps the {"answer": ...} envelope the
// decision policy asks for, tolerating plain text and fenced JSON.
func extractDirectAnswer(content string) string {
	text := strings.TrimSpace(content)
	if fenced := strings.TrimPrefix(text, "```json"); fenced != text {
		text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(fenced), "```"))
	} else if fenced := strings.TrimPrefix(text, "```"); fenced != text {
		text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(fenced), "```"))
	}

	var envelope struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal([]byte(text), &envelope); err == nil && envelope.Answer != "" {
		return envelope.Answer
	}
	return strings.TrimSpace(content)
}
