package search

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Executor fans a list of queries out over one engine with a bounded
// worker pool. A query that errors or times out contributes nothing;
// partial success is normal operation.
type Executor struct {
	engine          Engine
	workers         int
	queryTimeout    time.Duration
	resultsPerQuery int
	log             *zap.Logger
}

func NewExecutor(engine Engine, workers int, queryTimeout time.Duration, resultsPerQuery int, log *zap.Logger) *Executor {
	if workers <= 0 {
		workers = 6
	}
	if queryTimeout <= 0 {
		queryTimeout = 3 * time.Second
	}
	if resultsPerQuery <= 0 {
		resultsPerQuery = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		engine:          engine,
		workers:         workers,
		queryTimeout:    queryTimeout,
		resultsPerQuery: resultsPerQuery,
		log:             log,
	}
}

// NormalizeQueries pads or truncates queries so the returned list has
// exactly target entries. Short inputs repeat the first query; long
// inputs are cut. An empty input yields target empty strings.
func NormalizeQueries(queries []string, target int) []string {
	if target < 1 {
		target = 1
	}
	out := make([]string, 0, target)
	out = append(out, queries...)
	if len(out) > target {
		return out[:target]
	}
	for len(out) < target {
		if len(queries) > 0 {
			out = append(out, queries[0])
		} else {
			out = append(out, "")
		}
	}
	return out
}

// Execute runs every query concurrently and accumulates results in
// completion order. Individual failures are logged and dropped; the
// returned batch never carries an error.
func (e *Executor) Execute(ctx context.Context, queries []string) *Batch {
	batch := &Batch{QueryCount: len(queries)}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	start := time.Now()
	for _, query := range queries {
		query := query
		g.Go(func() error {
			qctx, cancel := context.WithTimeout(gctx, e.queryTimeout)
			defer cancel()

			resp, err := e.engine.Search(qctx, query, e.resultsPerQuery)
			if err != nil {
				e.log.Warn("search query failed",
					zap.String("query", query),
					zap.Error(err))
				return nil
			}

			mu.Lock()
			batch.Results = append(batch.Results, resp.Results...)
			if resp.AnswerBox != nil {
				batch.AnswerBoxes = append(batch.AnswerBoxes, *resp.AnswerBox)
			}
			mu.Unlock()

			e.log.Debug("search query completed",
				zap.String("query", query),
				zap.Int("results", len(resp.Results)))
			return nil
		})
	}
	_ = g.Wait()

	e.log.Info("search batch completed",
		zap.Int("queries", len(queries)),
		zap.Int("raw_results", len(batch.Results)),
		zap.Duration("elapsed", time.Since(start)))

	return batch
}
