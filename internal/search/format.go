package search

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// maxKeptResults caps the deduplicated listing rendered into text.
	maxKeptResults = 40
	// maxAnswerBoxes caps the quick-answers section.
	maxAnswerBoxes = 3

	resultBlockMarker = "Search results for"
)

// Domain extracts the lowercase host of rawURL for deduplication. URLs
// that do not parse (or have no host) fall back to the lowercase raw
// string so they still dedupe against each other.
func Domain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return strings.ToLower(rawURL)
	}
	return strings.ToLower(parsed.Host)
}

// Dedupe walks results in their accumulated (completion) order and
// keeps the first result per distinct domain.
func Dedupe(results []Result) []Result {
	seen := make(map[string]bool)
	var kept []Result

	for _, r := range results {
		domain := Domain(r.URL)
		if domain == "" || seen[domain] {
			continue
		}
		seen[domain] = true
		kept = append(kept, r)
	}

	return kept
}

// DedupeAndFormat condenses a batch into the fixed-structure text block
// consumed by the summarizer, plus the parallel source list sharing the
// same 1-based indices. It is deterministic for a given batch and does
// no I/O.
func DedupeAndFormat(batch *Batch) (string, []Source) {
	unique := Dedupe(batch.Results)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Search results for %d queries:\n\n", batch.QueryCount)

	if len(batch.AnswerBoxes) > 0 {
		sb.WriteString("Quick Answers:\n")
		boxes := batch.AnswerBoxes
		if len(boxes) > maxAnswerBoxes {
			boxes = boxes[:maxAnswerBoxes]
		}
		for i, box := range boxes {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, box.Text)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Search Results:\n")

	if len(unique) > maxKeptResults {
		unique = unique[:maxKeptResults]
	}

	sources := make([]Source, 0, len(unique))
	for i, item := range unique {
		index := i + 1
		fmt.Fprintf(&sb, "\n[%d] %s\n", index, item.Title)
		fmt.Fprintf(&sb, "    %s\n", item.Snippet)
		fmt.Fprintf(&sb, "    URL: %s\n", item.URL)

		sources = append(sources, Source{
			Index: index,
			Title: item.Title,
			URL:   item.URL,
		})
	}

	return sb.String(), sources
}

// IsResultBlock reports whether text carries a formatted search-result
// block.
func IsResultBlock(text string) bool {
	return strings.Contains(text, resultBlockMarker)
}
