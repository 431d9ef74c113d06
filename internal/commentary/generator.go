// Package commentary adds caster lines to the match log. Calls to the text
// generator run off the host loop and only ever feed back an AppendLog
// command, so a slow or failing generator cannot touch the simulation.
package commentary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nfrund/chaosarena/internal/domain"
)

// Prompt is what a generator reacts to.
type Prompt struct {
	Event     string `json:"event"`
	Score     int    `json:"score"`
	HPPercent int    `json:"hp"`
}

// Generator produces one short caster line for a prompt.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// NopGenerator is used when commentary is switched off.
type NopGenerator struct{}

func (NopGenerator) Generate(context.Context, Prompt) (string, error) {
	return "", domain.ErrCommentaryUnavailable
}

// fallbackLine is used when a remote generator answers with nothing.
const fallbackLine = "What a tense match this is!"

// HTTPGenerator asks a remote text service for the line. The service
// receives the Prompt as JSON and answers {"text": "..."}.
type HTTPGenerator struct {
	URL    string
	APIKey string
	Client *http.Client
}

// NewHTTPGenerator returns a generator posting to url.
func NewHTTPGenerator(url, apiKey string, timeout time.Duration) *HTTPGenerator {
	return &HTTPGenerator{
		URL:    url,
		APIKey: apiKey,
		Client: &http.Client{Timeout: timeout},
	}
}

type generateResponse struct {
	Text string `json:"text"`
}

func (g *HTTPGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	if g.URL == "" {
		return "", domain.ErrCommentaryUnavailable
	}
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal prompt: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build commentary request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.APIKey)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCommentaryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", domain.ErrCommentaryUnavailable, resp.StatusCode)
	}
	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode commentary response: %w", err)
	}
	if text := strings.TrimSpace(out.Text); text != "" {
		return text, nil
	}
	return fallbackLine, nil
}
