// Package ai talks to an OpenAI-compatible chat-completions endpoint to
// analyze code snippets for security vulnerabilities.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Anomaly-E-E/Falco/models"
)

const promptTemplate = `You are a security expert analyzing %s code for vulnerabilities.

Analyze this code:

%s

Return ONLY a JSON array of vulnerability objects. Each object must have exactly these keys in this order: "line" (number), "severity" (one of "HIGH", "MEDIUM", "LOW"), "type" (short label), "problem" (what is wrong), "attack" (what an attacker can do), "fix" (how to fix it).

If the code has no vulnerabilities, return an empty array: []

Do not include any explanation, markdown or text outside the JSON array.`

// Client calls the configured chat-completions API. A nil http.Client is
// replaced by http.DefaultClient; no client-side timeout is imposed, the
// caller's context bounds the call.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an analysis client. baseURL is the API root, e.g.
// "https://api.openai.com/v1".
func NewClient(apiKey, baseURL, model string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: http.DefaultClient,
		logger:     logger,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// AnalyzeCode sends the snippet to the model and returns the parsed
// findings. A provider failure is returned as an error and fails the
// enclosing scan; an unparsable reply degrades to an empty finding list.
func (c *Client) AnalyzeCode(ctx context.Context, code, language string) ([]models.Vulnerability, error) {
	prompt := fmt.Sprintf(promptTemplate, language, code)

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("AI analysis failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("AI analysis failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("AI analysis failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("AI analysis failed: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("AI analysis failed: invalid provider response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return nil, fmt.Errorf("AI analysis failed: %s", parsed.Error.Message)
		}
		return nil, fmt.Errorf("AI analysis failed: provider returned status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("AI analysis failed: provider returned no choices")
	}

	findings, err := ParseFindings(parsed.Choices[0].Message.Content)
	if err != nil {
		// An unparsable reply is indistinguishable from "no findings" at
		// the API surface; log it and return the empty list.
		c.logger.Warn("failed to parse AI response", slog.String("error", err.Error()))
		return []models.Vulnerability{}, nil
	}
	return findings, nil
}
