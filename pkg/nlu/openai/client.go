// Package openai implements the NLU service on OpenAI's Chat Completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 60 * time.Second

// Service calls the chat completions endpoint for parsing, vision, intent
// detection, translation and chat.
type Service struct {
	target      string
	model       string
	visionModel string
	apiKey      string
	client      *http.Client
	logger      *zap.Logger
}

// Config is the configuration options for the OpenAI NLU service.
type Config struct {
	// Target is the API base URL, e.g. https://api.openai.com/v1.
	Target string

	// Model handles text tasks; VisionModel handles photo tasks.
	Model       string
	VisionModel string

	APIKey string
	Logger *zap.Logger
}

// New creates an OpenAI-backed NLU service.
func New(c *Config) (*Service, error) {
	if c.Target == "" {
		return nil, fmt.Errorf("openai: target required")
	}
	if c.Model == "" {
		return nil, fmt.Errorf("openai: model required")
	}
	if c.APIKey == "" {
		return nil, fmt.Errorf("openai: api key required")
	}
	if c.VisionModel == "" {
		c.VisionModel = c.Model
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return &Service{
		target:      strings.TrimRight(c.Target, "/"),
		model:       c.Model,
		visionModel: c.VisionModel,
		apiKey:      c.APIKey,
		client:      &http.Client{Timeout: defaultTimeout},
		logger:      c.Logger,
	}, nil
}

// complete sends a chat completion request and returns the first choice's
// text content.
func (s *Service) complete(ctx context.Context, req *chatRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.target+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling chat completions: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("chat completions: %s (%s)", parsed.Error.Message, parsed.Error.Type)
		}
		return "", fmt.Errorf("chat completions: unexpected status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completions: empty choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// completeJSON runs a completion in JSON mode and decodes the reply into out.
func (s *Service) completeJSON(ctx context.Context, model, system, user string, out any) error {
	temp := 0.0
	req := &chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    &temp,
		ResponseFormat: map[string]any{"type": "json_object"},
	}
	text, err := s.complete(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripFences(text)), out); err != nil {
		return fmt.Errorf("decoding model output: %w", err)
	}
	return nil
}

// completeVisionJSON is completeJSON with an attached image.
func (s *Service) completeVisionJSON(ctx context.Context, system, prompt, photoRef string, out any) error {
	temp := 0.0
	req := &chatRequest{
		Model: s.visionModel,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: photoRef, Detail: "high"}},
			}},
		},
		Temperature:    &temp,
		ResponseFormat: map[string]any{"type": "json_object"},
	}
	text, err := s.complete(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripFences(text)), out); err != nil {
		return fmt.Errorf("decoding model output: %w", err)
	}
	return nil
}

// stripFences removes a markdown code fence some models wrap JSON output in.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
