package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Search.NumQueries != DefaultNumQueries {
		t.Fatalf("NumQueries = %d, want %d", cfg.Search.NumQueries, DefaultNumQueries)
	}
	if cfg.Search.PrimaryEngine != "serper" {
		t.Fatalf("PrimaryEngine = %q", cfg.Search.PrimaryEngine)
	}
	if cfg.LLM.Provider != "vllm" {
		t.Fatalf("Provider = %q", cfg.LLM.Provider)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFromPathMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Server.Port != 8088 {
		t.Fatalf("Port = %d, want default 8088", cfg.Server.Port)
	}
}

func TestLoadFromPathYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := `
server:
  port: 9999
llm:
  provider: openai
  model: gpt-4o
search:
  num_queries: 2
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Fatalf("Port = %d", cfg.Server.Port)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.Model != "gpt-4o" {
		t.Fatalf("LLM = %+v", cfg.LLM)
	}
	if cfg.Search.NumQueries != 2 {
		t.Fatalf("NumQueries = %d", cfg.Search.NumQueries)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "deepseek")
	t.Setenv("DEEPSEEK_API_KEY", "dsk")
	t.Setenv("SERPER_API_KEY", "spk")
	t.Setenv("SEARCH_NUM_QUERIES", "4")
	t.Setenv("BACKEND_PORT", "1234")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.LLM.Provider != "deepseek" || cfg.LLM.APIKey != "dsk" {
		t.Fatalf("LLM = %+v", cfg.LLM)
	}
	if engine := cfg.Search.Engine("serper"); engine == nil || engine.APIKey != "spk" {
		t.Fatalf("serper engine = %+v", engine)
	}
	if cfg.Search.NumQueries != 4 {
		t.Fatalf("NumQueries = %d", cfg.Search.NumQueries)
	}
	if cfg.Server.Port != 1234 {
		t.Fatalf("Port = %d", cfg.Server.Port)
	}
}

func TestValidateClampsNumQueries(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Search.NumQueries = 50
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Search.NumQueries != MaxNumQueries {
		t.Fatalf("NumQueries = %d, want %d", cfg.Search.NumQueries, MaxNumQueries)
	}

	cfg.Search.NumQueries = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Search.NumQueries != DefaultNumQueries {
		t.Fatalf("NumQueries = %d, want %d", cfg.Search.NumQueries, DefaultNumQueries)
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for negative port")
	}
}

func TestEngineLookup(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Search.Engine("tavily") == nil {
		t.Fatalf("tavily engine missing from defaults")
	}
	if cfg.Search.Engine("nope") != nil {
		t.Fatalf("unknown engine should be nil")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")

	cfg := DefaultConfig()
	cfg.LLM.Model = "custom-model"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.LLM.Model != "custom-model" {
		t.Fatalf("Model = %q after round trip", loaded.LLM.Model)
	}
}
