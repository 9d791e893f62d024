// Package extract turns free-text symptom descriptions into structured data
// by calling an OpenAI-compatible chat completion endpoint. Extraction is
// best-effort everywhere it is used: callers fall back to keyword scoring
// when the service is down, slow, or returns garbage.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/clinicq/clinicq/internal/domain/triage"
)

const systemPrompt = `You are a medical intake assistant. Extract structured data from the patient's symptom description. Respond with only a JSON object of the form {"symptoms": ["..."], "age": null, "duration_days": null, "severity": "mild"|"moderate"|"severe"}. Use null for fields the text does not mention.`

// Config holds the extraction endpoint settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls the chat completion endpoint.
type Client struct {
	http   *resty.Client
	model  string
	logger zerolog.Logger
}

// NewClient builds an extraction client. A zero Timeout defaults to 10s.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	model := cfg.Model
	if model == "" {
		model = "llama-3.1-8b-instant"
	}
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	return &Client{http: http, model: model, logger: logger}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Extract sends the raw symptom text for structured extraction.
func (c *Client) Extract(ctx context.Context, raw string) (*triage.Symptoms, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty symptom text")
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: raw},
		},
	}

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		c.logger.Warn().Err(err).Msg("symptom extraction request failed")
		return nil, fmt.Errorf("extraction request: %w", err)
	}
	if resp.IsError() {
		c.logger.Warn().Int("status", resp.StatusCode()).Msg("symptom extraction request rejected")
		return nil, fmt.Errorf("extraction status %d", resp.StatusCode())
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("extraction returned no choices")
	}

	var symptoms triage.Symptoms
	if err := json.Unmarshal([]byte(out.Choices[0].Message.Content), &symptoms); err != nil {
		c.logger.Warn().Err(err).Msg("symptom extraction returned non-JSON content")
		return nil, fmt.Errorf("decoding extraction: %w", err)
	}
	return &symptoms, nil
}
