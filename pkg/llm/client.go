// Package llm talks to the hosted text-completion service behind the
// clinical note assistant.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-healthcare-portal/pkg/logger"

	"google.golang.org/genai"
)

// Generator produces one completion. The genai-backed implementation is
// used in production; tests substitute their own.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g *geminiGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	temperature := float32(0.2)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       &temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Client wraps a Generator with a per-call timeout and retries.
type Client struct {
	gen     Generator
	model   string
	timeout time.Duration
	retry   RetryConfig
}

// Config for NewClient.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	Retry   RetryConfig
}

// NewClient creates a Gemini-backed client. An empty API key yields a client
// whose IsConfigured reports false and whose calls fail with ErrNotConfigured.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if cfg.APIKey == "" {
		return &Client{model: cfg.Model, timeout: cfg.Timeout, retry: cfg.Retry}, nil
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return NewClientWithGenerator(&geminiGenerator{client: gc, model: cfg.Model}, cfg.Model, cfg.Timeout, cfg.Retry), nil
}

// NewClientWithGenerator builds a Client around any Generator.
func NewClientWithGenerator(gen Generator, model string, timeout time.Duration, retry RetryConfig) *Client {
	return &Client{gen: gen, model: model, timeout: timeout, retry: retry}
}

// IsConfigured reports whether completions can be requested.
func (c *Client) IsConfigured() bool {
	return c != nil && c.gen != nil
}

// Complete sends one system/user prompt pair and returns the raw text.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	var out string
	attempt := 0
	err := Retry(ctx, c.retry, func(ctx context.Context) error {
		attempt++
		callCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		text, err := c.gen.Generate(callCtx, system, prompt)
		if err != nil {
			err = classify(err)
			logger.Log.Warn("Completion attempt failed",
				"model", c.model,
				"attempt", attempt,
				"transient", IsTransient(err),
				"error", err,
			)
			return err
		}
		if strings.TrimSpace(text) == "" {
			return NewTransientError(errors.New("llm: empty completion"))
		}
		out = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
