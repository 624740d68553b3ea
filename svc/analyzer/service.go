package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds settings for the HTTP-backed analyzer.
type Config struct {
	PipelineURL string        `env:"ANALYZER_URL,required"`
	Timeout     time.Duration `env:"ANALYZER_TIMEOUT" envDefault:"60s"`
}

// HTTPAnalyzer posts text to an external analysis pipeline and normalizes
// its response.
type HTTPAnalyzer struct {
	cfg    Config
	client *http.Client
}

// NewHTTPAnalyzer creates an analyzer backed by the configured pipeline URL.
func NewHTTPAnalyzer(cfg Config) (*HTTPAnalyzer, error) {
	if cfg.PipelineURL == "" {
		return nil, errors.New("analyzer: missing pipeline URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &HTTPAnalyzer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// AnalyzeText sends the text to the pipeline and returns the normalized
// result. An empty framework falls back to DefaultFramework.
func (a *HTTPAnalyzer) AnalyzeText(ctx context.Context, text, framework string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if framework == "" {
		framework = DefaultFramework
	}

	body, err := json.Marshal(map[string]string{
		"text":      text,
		"framework": framework,
	})
	if err != nil {
		return nil, fmt.Errorf("analyzer: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.PipelineURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("analyzer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errors.Join(ErrPipelineUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Join(ErrPipelineUnavailable,
			fmt.Errorf("analyzer: pipeline returned %d: %s", resp.StatusCode, snippet))
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Join(ErrPipelineUnavailable, err)
	}

	return Normalize(payload, framework)
}
