package agent

import "sync"

// History keeps a bounded window of past conversation turns. Only
// question/answer pairs are retained; tool traffic from earlier turns
// is never replayed into a new request.
type History struct {
	mu       sync.Mutex
	maxPairs int
	messages []Message
}

func NewHistory(maxPairs int) *History {
	if maxPairs <= 0 {
		maxPairs = 5
	}
	return &History{maxPairs: maxPairs}
}

// Append records one completed exchange and trims the window to the
// most recent pairs.
func (h *History) Append(question, answer string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages,
		Message{Role: "user", Content: question},
		Message{Role: "assistant", Content: answer},
	)
	if max := h.maxPairs * 2; len(h.messages) > max {
		h.messages = append([]Message(nil), h.messages[len(h.messages)-max:]...)
	}
}

// Window returns a copy of the retained messages, or nil when memory
// is disabled for the request.
func (h *History) Window(enabled bool) []Message {
	if !enabled {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Message(nil), h.messages...)
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}
