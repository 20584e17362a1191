package concierge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Generator turns a prompt into model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiClient calls Gemini generateContent through the genai SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

type geminiOptions struct {
	baseURL    string
	httpClient *http.Client
}

type GeminiOption func(*geminiOptions)

func WithBaseURL(u string) GeminiOption {
	return func(o *geminiOptions) { o.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(hc *http.Client) GeminiOption {
	return func(o *geminiOptions) { o.httpClient = hc }
}

func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration, opts ...GeminiOption) (*GeminiClient, error) {
	o := geminiOptions{httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(&o)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  o.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: o.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// StatusError reports a non-2xx answer from the upstream API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini: status %d: %s", e.Code, e.Body)
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{Code: apiErr.Code, Body: apiErr.Message}
		}
		return "", fmt.Errorf("gemini request: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}
