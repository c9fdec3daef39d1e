package search

import "time"

// Result is a single organic search result.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	// Position is the 1-based rank within the originating query's result list.
	Position int `json:"position,omitempty"`
}

// AnswerBox is a direct-answer highlight returned alongside organic
// results for some queries.
type AnswerBox struct {
	Text string `json:"text"`
}

// Response is what one Engine.Search call returns.
type Response struct {
	Query     string        `json:"query"`
	Results   []Result      `json:"results"`
	AnswerBox *AnswerBox    `json:"answer_box,omitempty"`
	Engine    string        `json:"engine"`
	Duration  time.Duration `json:"duration"`
}

// Source is one entry of the citation source list emitted alongside the
// formatted result text. Indices are 1-based and match the bracketed
// numbers in the text.
type Source struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Batch accumulates the outcome of a multi-query search. Results appear
// in completion order of the underlying calls, not submission order.
type Batch struct {
	QueryCount  int
	Results     []Result
	AnswerBoxes []AnswerBox
}
