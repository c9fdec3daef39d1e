package agent

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/liteplex/liteplex/internal/config"
	"github.com/liteplex/liteplex/internal/search"
)

// RuntimeConfig is the per-request configuration snapshot. Requests
// read one immutable snapshot for their whole lifetime, so a config
// swap mid-stream never produces a half-updated pipeline.
type RuntimeConfig struct {
	LLM    config.LLMConfig
	Search config.SearchConfig
}

// Assistant runs the full answer pipeline: decide, search, summarize.
// It is safe for concurrent use; all mutable state is the atomic
// config pointer and the locked history.
type Assistant struct {
	cfg      atomic.Pointer[RuntimeConfig]
	history  *History
	registry *search.Registry
	log      *zap.Logger

	// newProvider is swappable in tests.
	newProvider func(config.LLMConfig) (Provider, error)
}

func New(cfg *config.Config, log *zap.Logger) *Assistant {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Assistant{
		history:     NewHistory(config.DefaultMemoryPairs),
		registry:    search.NewRegistry(),
		log:         log,
		newProvider: NewProvider,
	}
	a.cfg.Store(&RuntimeConfig{LLM: cfg.LLM, Search: cfg.Search})
	return a
}

// Runtime returns a copy of the current configuration snapshot.
func (a *Assistant) Runtime() RuntimeConfig {
	return *a.cfg.Load()
}

// SetLLMConfig swaps the model configuration. In-flight requests keep
// the snapshot they started with.
func (a *Assistant) SetLLMConfig(llm config.LLMConfig) {
	for {
		old := a.cfg.Load()
		next := *old
		next.LLM = llm
		if a.cfg.CompareAndSwap(old, &next) {
			return
		}
	}
}

// SetSearchConfig swaps the search configuration.
func (a *Assistant) SetSearchConfig(sc config.SearchConfig) {
	for {
		old := a.cfg.Load()
		next := *old
		next.Search = sc
		if a.cfg.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (a *Assistant) ClearHistory() {
	a.history.Clear()
}

// StreamOptions carries per-request overrides. Zero values keep the
// assistant's configured behavior.
type StreamOptions struct {
	// History replaces the server-side memory window when non-nil,
	// letting clients manage their own transcript.
	History []Message
	// LLM overrides the model configuration; empty fields fall back
	// to the snapshot.
	LLM *config.LLMConfig
	// NumQueries overrides the search fan-out when positive.
	NumQueries int
	// MemoryEnabled overrides whether server-side memory is consulted.
	MemoryEnabled *bool
}

func (a *Assistant) snapshot(opts StreamOptions) RuntimeConfig {
	rc := *a.cfg.Load()
	if opts.LLM != nil {
		o := *opts.LLM
		if o.Provider != "" {
			rc.LLM.Provider = o.Provider
		}
		if o.APIKey != "" {
			rc.LLM.APIKey = o.APIKey
		}
		if o.BaseURL != "" {
			rc.LLM.BaseURL = o.BaseURL
		}
		if o.Model != "" {
			rc.LLM.Model = o.Model
		}
		if o.Temperature > 0 {
			rc.LLM.Temperature = o.Temperature
		}
	}
	if opts.NumQueries > 0 {
		rc.Search.NumQueries = opts.NumQueries
	}
	if opts.MemoryEnabled != nil {
		rc.Search.MemoryEnabled = *opts.MemoryEnabled
	}
	if rc.Search.NumQueries < 1 {
		rc.Search.NumQueries = 1
	}
	if rc.Search.NumQueries > config.MaxNumQueries {
		rc.Search.NumQueries = config.MaxNumQueries
	}
	return rc
}

// searchTriggerWords feeds the pre-decision status heuristic: when a
// question looks like it will need a search, the client gets a
// "searching" status immediately instead of after the decision call.
var searchTriggerWords = []string{
	"what", "when", "where", "who", "how", "why",
	"price", "cost", "latest", "current", "today", "news", "stock",
}

func likelySearch(question string) bool {
	q := strings.ToLower(question)
	if strings.Contains(q, "?") {
		return true
	}
	for _, w := range searchTriggerWords {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

// StreamChat answers one question as an event stream. The channel is
// closed when the answer completes, fails, or ctx is cancelled; after
// an error event or a cancellation nothing further is sent.
func (a *Assistant) StreamChat(ctx context.Context, question string, opts StreamOptions) <-chan StreamEvent {
	out := make(chan StreamEvent)

	go func() {
		defer close(out)

		emit := func(ev StreamEvent) bool {
			if ctx.Err() != nil {
				return false
			}
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		rc := a.snapshot(opts)

		provider, err := a.newProvider(rc.LLM)
		if err != nil {
			emit(errorEvent((&ProviderError{Provider: rc.LLM.Provider, Err: err}).Error()))
			return
		}

		msgs := opts.History
		if msgs == nil {
			msgs = a.history.Window(rc.Search.MemoryEnabled)
		}
		msgs = append(msgs, Message{Role: "user", Content: question})

		statusSent := false
		if likelySearch(question) {
			if !emit(statusEvent(StatusSearching)) {
				return
			}
			statusSent = true
		}

		decision, err := decide(ctx, provider, msgs, rc.LLM, rc.Search.NumQueries)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			emit(errorEvent(err.Error()))
			return
		}

		if !decision.NeedsSearch() {
			// A raw result block as the final answer means the model
			// skipped the tool protocol; route it through the
			// summarizer instead of showing it verbatim.
			if search.IsResultBlock(decision.Direct) {
				msgs = append(msgs, Message{Role: "tool", Content: decision.Direct})
				a.summarizeAndFinish(ctx, provider, rc, msgs, question, emit)
				return
			}
			if !emit(tokenEvent(decision.Direct)) {
				return
			}
			if !emit(doneEvent(decision.Direct)) {
				return
			}
			a.history.Append(question, decision.Direct)
			return
		}

		if !statusSent {
			if !emit(statusEvent(StatusSearching)) {
				return
			}
		}

		queries := decision.Queries
		if len(queries) == 0 {
			queries = search.NormalizeQueries([]string{question}, rc.Search.NumQueries)
		}

		engine, err := search.EngineFromConfig(a.registry, rc.Search)
		if err != nil {
			emit(errorEvent(err.Error()))
			return
		}
		executor := search.NewExecutor(engine,
			rc.Search.Workers,
			time.Duration(rc.Search.QueryTimeoutSec)*time.Second,
			rc.Search.ResultsPerQuery,
			a.log)

		batch := executor.Execute(ctx, queries)
		if ctx.Err() != nil {
			return
		}

		text, sources := search.DedupeAndFormat(batch)
		payload, _ := json.Marshal(searchPayload{Text: text, Sources: sources})

		msgs = append(msgs,
			Message{Role: "assistant", ToolCalls: []ToolCall{*decision.Call}},
			Message{Role: "tool", Content: string(payload), ToolResult: &ToolResult{
				ToolCallID: decision.Call.ID,
				Content:    string(payload),
			}},
		)

		a.summarizeAndFinish(ctx, provider, rc, msgs, question, emit)
	}()

	return out
}

func (a *Assistant) summarizeAndFinish(ctx context.Context, provider Provider, rc RuntimeConfig, msgs []Message, question string, emit func(StreamEvent) bool) {
	if !emit(statusEvent(StatusSummarizing)) {
		return
	}

	full, sources, ok := streamSummarize(ctx, provider, msgs, question, rc.LLM, emit)
	if !ok {
		return
	}
	// No search context means nothing was summarized; finish with a
	// bare Done instead of an empty source list.
	if full != "" || sources != nil {
		if !emit(sourcesEvent(sources)) {
			return
		}
	}
	if !emit(doneEvent(full)) {
		return
	}
	if full != "" {
		a.history.Append(question, full)
	}
}

// Chat is the blocking form of StreamChat: it drains the event stream
// and returns the final answer with its sources.
func (a *Assistant) Chat(ctx context.Context, question string, opts StreamOptions) (string, []search.Source, error) {
	var (
		answer  string
		sources []search.Source
	)
	for ev := range a.StreamChat(ctx, question, opts) {
		switch ev.Type {
		case EventSources:
			sources = ev.Sources
		case EventDone:
			answer = ev.Content
		case EventError:
			// Error events already carry their origin (provider,
			// engine config, ...); pass the message through as-is.
			return "", nil, errString(ev.Message)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	return answer, sources, nil
}

type errString string

func (e errString) Error() string { return string(e) }
