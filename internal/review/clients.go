package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	openaiChatURL     = "https://api.openai.com/v1/chat/completions"
	geminiGenerateURL = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

	clientTimeout  = 60 * time.Second
	maxReplyTokens = 2048
	temperature    = 0.1
)

// openaiClient talks to an OpenAI-compatible chat completions endpoint.
type openaiClient struct {
	name   string
	model  string
	apiKey string
	http   *http.Client
}

// NewOpenAIClient creates a ModelClient for an OpenAI-style API.
func NewOpenAIClient(name, model, apiKey string) ModelClient {
	return &openaiClient{
		name:   name,
		model:  model,
		apiKey: apiKey,
		http:   &http.Client{Timeout: clientTimeout},
	}
}

func (c *openaiClient) Name() string { return c.name }

func (c *openaiClient) Complete(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": "You are an expert config reviewer. Respond only with valid JSON."},
			{"role": "user", "content": prompt},
		},
		"max_tokens":  maxReplyTokens,
		"temperature": temperature,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openaiChatURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling chat completions: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat completions returned %s: %s", resp.Status, snippet)
	}

	var reply struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(reply.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", c.model)
	}
	return reply.Choices[0].Message.Content, nil
}

// geminiClient talks to the Gemini generateContent endpoint.
type geminiClient struct {
	name   string
	model  string
	apiKey string
	http   *http.Client
}

// NewGeminiClient creates a ModelClient for the Gemini API.
func NewGeminiClient(name, model, apiKey string) ModelClient {
	return &geminiClient{
		name:   name,
		model:  model,
		apiKey: apiKey,
		http:   &http.Client{Timeout: clientTimeout},
	}
}

func (c *geminiClient) Name() string { return c.name }

func (c *geminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":     temperature,
			"maxOutputTokens": maxReplyTokens,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	u := fmt.Sprintf(geminiGenerateURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling generateContent: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("generateContent returned %s: %s", resp.Status, snippet)
	}

	var reply struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(reply.Candidates) == 0 || len(reply.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from %s", c.model)
	}
	return reply.Candidates[0].Content.Parts[0].Text, nil
}
