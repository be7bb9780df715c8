// Package embedder batches chunk text into vectors via an HTTP embedding
// endpoint, grounded on the teacher's retry-with-backoff HTTP client
// pattern (spec.md §4.3).
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wk-archive/meetingmind/internal/apperr"
	"github.com/wk-archive/meetingmind/internal/logger"
)

// Config configures the HTTP embedding backend.
type Config struct {
	BaseURL    string
	APIKey     string
	ModelName  string
	Dimensions int
	BatchSize  int
	Timeout    time.Duration
	MaxRetries int
}

func (c Config) withDefaults() Config {
	if c.BatchSize == 0 {
		c.BatchSize = 50
	}
	if c.Timeout == 0 {
		c.Timeout = 120 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 1
	}
	return c
}

// HTTPEmbedder calls an OpenAI-compatible `/embeddings` endpoint.
type HTTPEmbedder struct {
	cfg    Config
	client *http.Client
}

// New builds an HTTPEmbedder.
func New(cfg Config) *HTTPEmbedder {
	cfg = cfg.withDefaults()
	return &HTTPEmbedder{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed embeds a single text.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: embedding backend returned no vectors", apperr.ErrPermanentExternal)
	}
	return vectors[0], nil
}

// BatchEmbed embeds up to BatchSize texts per request, chunking larger
// slices into multiple requests. Dimension mismatches are a hard error that
// aborts the whole batch (spec.md §4.3).
func (e *HTTPEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	for start := 0; start < len(texts); start += e.cfg.BatchSize {
		end := start + e.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *HTTPEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.cfg.ModelName, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	resp, err := e.doWithRetry(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read embed response: %v", apperr.ErrTransientExternal, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: embed API status %s: %s", apperr.ErrTransientExternal, resp.Status, string(raw))
	}

	var parsed embedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: unmarshal embed response: %v", apperr.ErrPermanentExternal, err)
	}

	vectors := make([][]float32, len(parsed.Data))
	for _, d := range parsed.Data {
		if e.cfg.Dimensions > 0 && len(d.Embedding) != e.cfg.Dimensions {
			return nil, fmt.Errorf("%w: embedding dimension %d != configured %d", apperr.ErrPermanentExternal, len(d.Embedding), e.cfg.Dimensions)
		}
		if d.Index < 0 || d.Index >= len(vectors) {
			continue
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// doWithRetry performs the request with one retry (the configured
// MaxRetries) on transient errors, rebuilding the request body each attempt
// since http.Request bodies are single-use.
func (e *HTTPEmbedder) doWithRetry(ctx context.Context, body []byte) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			logger.GetLogger(ctx).Infof("retrying embed request (%d/%d) after %v", attempt, e.cfg.MaxRetries, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/embeddings", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build embed request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if e.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
		}

		resp, err := e.client.Do(req)
		if err == nil && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", apperr.ErrTransientExternal, err)
		} else {
			lastErr = fmt.Errorf("%w: status %s", apperr.ErrTransientExternal, resp.Status)
			resp.Body.Close()
		}
	}
	return nil, lastErr
}

// Dimensions reports the configured embedding dimensionality.
func (e *HTTPEmbedder) Dimensions() int { return e.cfg.Dimensions }

// ModelName reports the configured model identifier.
func (e *HTTPEmbedder) ModelName() string { return e.cfg.ModelName }
