package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Summarizer calls the OpenRouter chat completions endpoint to generate a
// short summary of a journal's notes. The bearer key lives on the server
// only; the mobile app never sees it.
type Summarizer struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

func NewSummarizer(baseURL, apiKey, model string, maxTokens int) *Summarizer {
	return &Summarizer{
		baseURL:   baseURL,
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Summarize sends the notes to the model and returns the first completion.
// A well-formed error body becomes a *RemoteServiceError whose message is
// shown to the user; anything else (network, malformed body) is a plain
// error. The call is never retried: invoking it again simply produces a new
// summary that replaces the previous one.
func (s *Summarizer) Summarize(ctx context.Context, notes string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("summarization service is not configured")
	}

	payload, err := json.Marshal(chatCompletionRequest{
		Model:     s.model,
		Messages:  []chatMessage{{Role: "user", Content: notes}},
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarization request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode summarization response: %w", err)
	}

	if len(parsed.Choices) > 0 {
		return parsed.Choices[0].Message.Content, nil
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", &RemoteServiceError{Message: parsed.Error.Message}
	}
	return "", fmt.Errorf("unexpected response format from summarization service")
}
