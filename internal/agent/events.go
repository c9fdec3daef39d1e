package agent

import "github.com/liteplex/liteplex/internal/search"

// EventType tags a StreamEvent. The values match the wire contract the
// HTTP layer forwards verbatim.
type EventType string

const (
	EventStatus  EventType = "status"
	EventContent EventType = "content"
	EventSources EventType = "sources"
	EventDone    EventType = "done"
	EventError   EventType = "error"
)

const (
	StatusSearching   = "searching"
	StatusSummarizing = "summarizing"
)

// StreamEvent is one element of the ordered event sequence a streaming
// request produces. Exactly the fields for its Type are set.
type StreamEvent struct {
	Type    EventType       `json:"type"`
	Status  string          `json:"status,omitempty"`
	Content string          `json:"content,omitempty"`
	Sources []search.Source `json:"sources,omitempty"`
	Message string          `json:"message,omitempty"`
}

func statusEvent(stage string) StreamEvent {
	return StreamEvent{Type: EventStatus, Status: stage}
}

func tokenEvent(text string) StreamEvent {
	return StreamEvent{Type: EventContent, Content: text}
}

func sourcesEvent(sources []search.Source) StreamEvent {
	return StreamEvent{Type: EventSources, Sources: sources}
}

func doneEvent(fullText string) StreamEvent {
	return StreamEvent{Type: EventDone, Content: fullText}
}

func errorEvent(msg string) StreamEvent {
	return StreamEvent{Type: EventError, Message: msg}
}
