package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeEngine struct {
	mu       sync.Mutex
	calls    []string
	inflight atomic.Int32
	peak     atomic.Int32
	search   func(ctx context.Context, query string, limit int) (*Response, error)
}

func (f *fakeEngine) Name() string    { return "fake" }
func (f *fakeEngine) Type() string    { return "fake" }
func (f *fakeEngine) IsEnabled() bool { return true }
func (f *fakeEngine) Priority() int   { return 1 }

func (f *fakeEngine) Search(ctx context.Context, query string, limit int) (*Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	f.mu.Unlock()

	n := f.inflight.Add(1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	defer f.inflight.Add(-1)

	return f.search(ctx, query, limit)
}

func TestExecuteCollectsAllQueries(t *testing.T) {
	engine := &fakeEngine{
		search: func(_ context.Context, query string, _ int) (*Response, error) {
			return &Response{
				Query:   query,
				Results: []Result{{Title: query, URL: "https://" + query + ".com"}},
			}, nil
		},
	}

	exec := NewExecutor(engine, 6, time.Second, 10, nil)
	batch := exec.Execute(context.Background(), []string{"a", "b", "c"})

	if batch.QueryCount != 3 {
		t.Fatalf("QueryCount = %d, want 3", batch.QueryCount)
	}
	if len(batch.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(batch.Results))
	}
	if len(engine.calls) != 3 {
		t.Fatalf("expected 3 engine calls, got %d", len(engine.calls))
	}
}

func TestExecutePartialFailure(t *testing.T) {
	engine := &fakeEngine{
		search: func(_ context.Context, query string, _ int) (*Response, error) {
			if query == "bad" {
				return nil, errors.New("boom")
			}
			return &Response{
				Results:   []Result{{Title: query, URL: "https://" + query + ".com"}},
				AnswerBox: &AnswerBox{Text: "answer for " + query},
			}, nil
		},
	}

	exec := NewExecutor(engine, 6, time.Second, 10, nil)
	batch := exec.Execute(context.Background(), []string{"good", "bad", "also"})

	if len(batch.Results) != 2 {
		t.Fatalf("expected 2 results after one failure, got %d", len(batch.Results))
	}
	if len(batch.AnswerBoxes) != 2 {
		t.Fatalf("expected 2 answer boxes, got %d", len(batch.AnswerBoxes))
	}
	if batch.QueryCount != 3 {
		t.Fatalf("QueryCount = %d, want 3 regardless of failures", batch.QueryCount)
	}
}

func TestExecuteAllFailuresYieldEmptyBatch(t *testing.T) {
	engine := &fakeEngine{
		search: func(context.Context, string, int) (*Response, error) {
			return nil, errors.New("down")
		},
	}

	exec := NewExecutor(engine, 6, time.Second, 10, nil)
	batch := exec.Execute(context.Background(), []string{"a", "b"})

	if batch == nil {
		t.Fatalf("expected a batch even when every query fails")
	}
	if len(batch.Results) != 0 || len(batch.AnswerBoxes) != 0 {
		t.Fatalf("expected empty batch, got %+v", batch)
	}
}

func TestExecuteHonorsWorkerLimit(t *testing.T) {
	engine := &fakeEngine{
		search: func(ctx context.Context, query string, _ int) (*Response, error) {
			time.Sleep(20 * time.Millisecond)
			return &Response{Results: []Result{{Title: query, URL: "https://x.com/" + query}}}, nil
		},
	}

	exec := NewExecutor(engine, 2, time.Second, 10, nil)
	exec.Execute(context.Background(), []string{"a", "b", "c", "d", "e", "f"})

	if peak := engine.peak.Load(); peak > 2 {
		t.Fatalf("worker limit exceeded: peak concurrency %d", peak)
	}
}

func TestExecutePerQueryTimeout(t *testing.T) {
	engine := &fakeEngine{
		search: func(ctx context.Context, query string, _ int) (*Response, error) {
			if strings.HasPrefix(query, "slow") {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(5 * time.Second):
					return &Response{Results: []Result{{Title: query, URL: "https://slow.com"}}}, nil
				}
			}
			return &Response{Results: []Result{{Title: query, URL: "https://fast.com"}}}, nil
		},
	}

	exec := NewExecutor(engine, 6, 50*time.Millisecond, 10, nil)

	start := time.Now()
	batch := exec.Execute(context.Background(), []string{"slow-1", "fast"})
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout not enforced, execute took %v", elapsed)
	}

	if len(batch.Results) != 1 || batch.Results[0].Title != "fast" {
		t.Fatalf("expected only the fast result, got %+v", batch.Results)
	}
}
