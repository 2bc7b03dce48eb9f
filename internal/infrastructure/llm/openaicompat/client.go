package openaicompat

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/finpulse/insights/internal/core/domain"
)

// Client talks to an OpenAI-compatible chat completions backend. One request
// per pipeline invocation, no retries; transient upstream failures surface to
// the caller, who simply re-issues the whole request.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func New(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one instruction and returns the first completion choice's
// raw text. It never inspects or validates that text.
func (c *Client) Complete(ctx context.Context, instruction domain.ModelInstruction) (string, error) {
	request := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: instruction.Prompt},
		},
		MaxTokens:   instruction.MaxTokens,
		Temperature: instruction.Temperature,
	}

	var response chatResponse
	if err := c.postJSON(ctx, "/v1/chat/completions", request, &response, "complete"); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", &MissingChoiceError{Operation: "complete"}
	}
	content := strings.TrimSpace(response.Choices[0].Message.Content)
	if content == "" {
		return "", &MissingChoiceError{Operation: "complete"}
	}
	return content, nil
}
