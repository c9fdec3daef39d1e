package search

import (
	"fmt"
	"sync"

	"github.com/liteplex/liteplex/internal/config"
)

type Registry struct {
	factories map[string]EngineFactory
	mu        sync.RWMutex
}

func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]EngineFactory),
	}

	r.Register("serper", NewSerperEngine)
	r.Register("tavily", NewTavilyEngine)

	return r
}

func (r *Registry) Register(engineType string, factory EngineFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[engineType] = factory
}

func (r *Registry) CreateEngine(cfg config.SearchEngineConfig) (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown engine type: %s", cfg.Type)
	}

	return factory(cfg)
}

func (r *Registry) ListTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	return types
}

// EngineFromConfig builds the engine named by cfg.PrimaryEngine.
func EngineFromConfig(registry *Registry, cfg config.SearchConfig) (Engine, error) {
	engineCfg := cfg.Engine(cfg.PrimaryEngine)
	if engineCfg == nil {
		return nil, fmt.Errorf("search engine not configured: %s", cfg.PrimaryEngine)
	}
	if !engineCfg.Enabled {
		return nil, fmt.Errorf("search engine disabled: %s", cfg.PrimaryEngine)
	}
	return registry.CreateEngine(*engineCfg)
}
