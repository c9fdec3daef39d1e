package search

import (
	"context"

	"github.com/liteplex/liteplex/internal/config"
)

// Engine is a single external search backend. One Search call covers
// one query; the Executor fans out over an Engine for multi-query
// requests.
type Engine interface {
	Name() string
	Type() string
	Search(ctx context.Context, query string, limit int) (*Response, error)
	IsEnabled() bool
	Priority() int
}

type EngineFactory func(cfg config.SearchEngineConfig) (Engine, error)
