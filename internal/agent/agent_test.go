package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/liteplex/liteplex/internal/config"
)

// newSerperStub serves a fixed serper-shaped response and counts calls.
func newSerperStub(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"organic": []map[string]any{
				{"title": "Result", "link": "https://example.com/page", "snippet": "snippet"},
			},
		})
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newTestAssistant(t *testing.T, provider Provider, searchURL string) *Assistant {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Search.NumQueries = 3
	cfg.Search.Engines = []config.SearchEngineConfig{
		{Name: "serper", Type: "serper", BaseURL: searchURL, Enabled: true},
	}

	a := New(cfg, nil)
	a.newProvider = func(config.LLMConfig) (Provider, error) { return provider, nil }
	return a
}

func drain(t *testing.T, events <-chan StreamEvent) []StreamEvent {
	t.Helper()
	var out []StreamEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("stream did not finish; events so far: %+v", out)
		}
	}
}

func eventTypes(events []StreamEvent) []EventType {
	types := make([]EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func TestStreamChatDirectAnswer(t *testing.T) {
	server, searchCalls := newSerperStub(t)
	provider := &fakeProvider{
		responses: []ChatResponse{{Content: `{"answer": "hello!", "sources": []}`}},
	}
	a := newTestAssistant(t, provider, server.URL)

	events := drain(t, a.StreamChat(context.Background(), "hello friend", StreamOptions{}))

	if len(events) != 2 || events[0].Type != EventContent || events[1].Type != EventDone {
		t.Fatalf("unexpected events: %v", eventTypes(events))
	}
	if events[1].Content != "hello!" {
		t.Fatalf("done content = %q", events[1].Content)
	}
	if searchCalls.Load() != 0 {
		t.Fatalf("direct answer must not search")
	}
	if provider.streamCalls != 0 {
		t.Fatalf("direct answer must not summarize")
	}
}

func TestStreamChatSearchFlow(t *testing.T) {
	server, searchCalls := newSerperStub(t)
	provider := &fakeProvider{
		responses: []ChatResponse{searchCall("tesla stock", "tesla news")},
		chunks: []StreamChunk{
			{Content: "Tesla is"},
			{Content: " up today<sup>1</sup>"},
		},
	}
	a := newTestAssistant(t, provider, server.URL)

	events := drain(t, a.StreamChat(context.Background(), "latest tesla stock news", StreamOptions{}))

	want := []EventType{EventStatus, EventStatus, EventContent, EventContent, EventSources, EventDone}
	got := eventTypes(events)
	if len(got) != len(want) {
		t.Fatalf("event sequence %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event sequence %v, want %v", got, want)
		}
	}

	if events[0].Status != StatusSearching || events[1].Status != StatusSummarizing {
		t.Fatalf("status order: %q then %q", events[0].Status, events[1].Status)
	}
	if events[5].Content != "Tesla is up today<sup>1</sup>" {
		t.Fatalf("done content = %q", events[5].Content)
	}
	if len(events[4].Sources) != 1 || events[4].Sources[0].URL != "https://example.com/page" {
		t.Fatalf("sources = %+v", events[4].Sources)
	}

	// 3 normalized queries fan out to 3 engine calls.
	if searchCalls.Load() != 3 {
		t.Fatalf("engine calls = %d, want 3", searchCalls.Load())
	}
	if provider.chatCalls != 1 || provider.streamCalls != 1 {
		t.Fatalf("chat=%d stream=%d, want 1 and 1", provider.chatCalls, provider.streamCalls)
	}
}

func TestStreamChatRawBlockLoopsToSummarizer(t *testing.T) {
	server, _ := newSerperStub(t)
	provider := &fakeProvider{
		responses: []ChatResponse{{Content: "Search results for 5 queries:\n\nSearch Results:\n"}},
		chunks:    []StreamChunk{{Content: "summarized"}},
	}
	a := newTestAssistant(t, provider, server.URL)

	events := drain(t, a.StreamChat(context.Background(), "hello friend", StreamOptions{}))

	last := events[len(events)-1]
	if last.Type != EventDone || last.Content != "summarized" {
		t.Fatalf("raw block should be summarized, got %+v", events)
	}
	if provider.streamCalls != 1 {
		t.Fatalf("summarizer not invoked")
	}
}

func TestStreamChatCancelledBeforeStart(t *testing.T) {
	server, _ := newSerperStub(t)
	provider := &fakeProvider{
		responses: []ChatResponse{{Content: "answer"}},
	}
	a := newTestAssistant(t, provider, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := drain(t, a.StreamChat(ctx, "latest news today", StreamOptions{}))
	for _, ev := range events {
		if ev.Type == EventDone || ev.Type == EventError {
			t.Fatalf("terminal event after cancellation: %+v", ev)
		}
	}
	if a.history.Len() != 0 {
		t.Fatalf("cancelled exchange must not enter history")
	}
}

func TestStreamChatProviderErrorEmitsError(t *testing.T) {
	server, _ := newSerperStub(t)
	a := newTestAssistant(t, &fakeProvider{}, server.URL)
	a.newProvider = func(config.LLMConfig) (Provider, error) {
		return nil, &ProviderError{Provider: "vllm", Err: context.DeadlineExceeded}
	}

	events := drain(t, a.StreamChat(context.Background(), "hello friend", StreamOptions{}))
	if len(events) != 1 || events[0].Type != EventError {
		t.Fatalf("expected single error event, got %v", eventTypes(events))
	}
}

func TestStreamChatAppendsHistory(t *testing.T) {
	server, _ := newSerperStub(t)
	provider := &fakeProvider{
		responses: []ChatResponse{
			{Content: `{"answer": "first answer"}`},
			{Content: `{"answer": "second answer"}`},
		},
	}
	a := newTestAssistant(t, provider, server.URL)

	drain(t, a.StreamChat(context.Background(), "hello friend", StreamOptions{}))
	drain(t, a.StreamChat(context.Background(), "thanks", StreamOptions{}))

	window := a.history.Window(true)
	if len(window) != 4 {
		t.Fatalf("history = %d messages, want 4", len(window))
	}
	if window[1].Content != "first answer" {
		t.Fatalf("first answer not recorded: %+v", window)
	}

	// The second request should have carried the first exchange.
	if len(provider.lastRequest.Messages) != 3 {
		t.Fatalf("second request carried %d messages, want 3", len(provider.lastRequest.Messages))
	}
}

func TestStreamChatMemoryDisabled(t *testing.T) {
	server, _ := newSerperStub(t)
	provider := &fakeProvider{
		responses: []ChatResponse{
			{Content: `{"answer": "a1"}`},
			{Content: `{"answer": "a2"}`},
		},
	}
	a := newTestAssistant(t, provider, server.URL)

	off := false
	drain(t, a.StreamChat(context.Background(), "hello friend", StreamOptions{}))
	drain(t, a.StreamChat(context.Background(), "and again", StreamOptions{MemoryEnabled: &off}))

	if len(provider.lastRequest.Messages) != 1 {
		t.Fatalf("memory-disabled request carried %d messages, want 1", len(provider.lastRequest.Messages))
	}
}

func TestChatBlockingCollectsAnswer(t *testing.T) {
	server, _ := newSerperStub(t)
	provider := &fakeProvider{
		responses: []ChatResponse{searchCall("q")},
		chunks:    []StreamChunk{{Content: "blocking answer"}},
	}
	a := newTestAssistant(t, provider, server.URL)

	answer, sources, err := a.Chat(context.Background(), "what is the latest", StreamOptions{})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if answer != "blocking answer" {
		t.Fatalf("answer = %q", answer)
	}
	if len(sources) != 1 {
		t.Fatalf("sources = %+v", sources)
	}
}

func TestSnapshotClampsNumQueries(t *testing.T) {
	server, _ := newSerperStub(t)
	a := newTestAssistant(t, &fakeProvider{}, server.URL)

	rc := a.snapshot(StreamOptions{NumQueries: 99})
	if rc.Search.NumQueries != config.MaxNumQueries {
		t.Fatalf("NumQueries = %d, want clamped to %d", rc.Search.NumQueries, config.MaxNumQueries)
	}
}

func TestSetLLMConfigDoesNotAffectSnapshot(t *testing.T) {
	server, _ := newSerperStub(t)
	a := newTestAssistant(t, &fakeProvider{}, server.URL)

	before := a.snapshot(StreamOptions{})
	a.SetLLMConfig(config.LLMConfig{Provider: "openai", Model: "other"})

	if before.LLM.Provider == "openai" {
		t.Fatalf("existing snapshot mutated by config swap")
	}
	if a.Runtime().LLM.Model != "other" {
		t.Fatalf("config swap not visible to new snapshots")
	}
}

// midStreamCancelProvider cancels the request context after its first
// chunk and then keeps emitting, like a model backend that does not
// notice disconnects promptly.
type midStreamCancelProvider struct {
	fakeProvider
	cancel context.CancelFunc
}

func (p *midStreamCancelProvider) Stream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error) {
	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		select {
		case out <- StreamChunk{Content: "first"}:
		case <-ctx.Done():
			return
		}
		p.cancel()
		for i := 0; i < 3; i++ {
			select {
			case out <- StreamChunk{Content: "late"}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func TestStreamChatCancelledMidStream(t *testing.T) {
	server, _ := newSerperStub(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider := &midStreamCancelProvider{
		fakeProvider: fakeProvider{responses: []ChatResponse{searchCall("q")}},
		cancel:       cancel,
	}
	a := newTestAssistant(t, provider, server.URL)

	events := drain(t, a.StreamChat(ctx, "latest tesla news", StreamOptions{}))

	for _, ev := range events {
		if ev.Type == EventContent && ev.Content == "late" {
			t.Fatalf("token forwarded after cancellation: %+v", events)
		}
		if ev.Type == EventDone || ev.Type == EventSources {
			t.Fatalf("terminal event after mid-stream cancellation: %+v", ev)
		}
	}
	if a.history.Len() != 0 {
		t.Fatalf("cancelled exchange must not enter history")
	}
}

func TestChatErrorKeepsOrigin(t *testing.T) {
	server, _ := newSerperStub(t)
	provider := &fakeProvider{responses: []ChatResponse{searchCall("q")}}
	a := newTestAssistant(t, provider, server.URL)

	rc := a.Runtime()
	rc.Search.PrimaryEngine = "ghost"
	a.SetSearchConfig(rc.Search)

	_, _, err := a.Chat(context.Background(), "what is new", StreamOptions{})
	if err == nil {
		t.Fatalf("expected error for unconfigured engine")
	}
	if !strings.Contains(err.Error(), "search engine not configured: ghost") {
		t.Fatalf("error lost its origin: %v", err)
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		t.Fatalf("engine misconfiguration mislabeled as provider error: %v", err)
	}
}

func TestLikelySearchHeuristic(t *testing.T) {
	if !likelySearch("what is the capital of France") {
		t.Fatalf("question word not detected")
	}
	if !likelySearch("what's the score") {
		t.Fatalf("trigger word inside a contraction not detected")
	}
	if !likelySearch("tesla stock today") {
		t.Fatalf("stock keyword not detected")
	}
	if !likelySearch("is it raining?") {
		t.Fatalf("question mark not detected")
	}
	if likelySearch("hello friend") {
		t.Fatalf("greeting misdetected as search")
	}
}
