package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/liteplex/liteplex/internal/config"
)

// SerperEngine queries the Serper Google-search API.
type SerperEngine struct {
	name     string
	apiKey   string
	baseURL  string
	enabled  bool
	priority int
	client   *http.Client
}

func NewSerperEngine(cfg config.SearchEngineConfig) (Engine, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://google.serper.dev"
	}

	return &SerperEngine{
		name:     cfg.Name,
		apiKey:   cfg.APIKey,
		baseURL:  baseURL,
		enabled:  cfg.Enabled,
		priority: cfg.Priority,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (e *SerperEngine) Name() string {
	return e.name
}

func (e *SerperEngine) Type() string {
	return "serper"
}

func (e *SerperEngine) IsEnabled() bool {
	return e.enabled
}

func (e *SerperEngine) Priority() int {
	return e.priority
}

func (e *SerperEngine) Search(ctx context.Context, query string, limit int) (*Response, error) {
	startTime := time.Now()

	requestBody := map[string]any{
		"q":   query,
		"num": limit,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+"/search", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("X-API-KEY", e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper returned status %d", resp.StatusCode)
	}

	var apiResponse struct {
		Organic []struct {
			Title    string `json:"title"`
			Link     string `json:"link"`
			Snippet  string `json:"snippet"`
			Position int    `json:"position"`
		} `json:"organic"`
		AnswerBox *struct {
			Answer  string `json:"answer"`
			Snippet string `json:"snippet"`
		} `json:"answerBox"`
	}

	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	results := make([]Result, 0, len(apiResponse.Organic))
	for i, r := range apiResponse.Organic {
		position := r.Position
		if position == 0 {
			position = i + 1
		}
		results = append(results, Result{
			Title:    r.Title,
			URL:      r.Link,
			Snippet:  r.Snippet,
			Position: position,
		})
	}

	var answerBox *AnswerBox
	if apiResponse.AnswerBox != nil {
		text := apiResponse.AnswerBox.Answer
		if text == "" {
			text = apiResponse.AnswerBox.Snippet
		}
		if text != "" {
			answerBox = &AnswerBox{Text: text}
		}
	}

	return &Response{
		Query:     query,
		Results:   results,
		AnswerBox: answerBox,
		Engine:    e.name,
		Duration:  time.Since(startTime),
	}, nil
}
