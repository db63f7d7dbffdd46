// Package gemini calls the Gemini API through the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yungbote/nst-content-backend/internal/content/config"
	"github.com/yungbote/nst-content-backend/internal/content/engine"
)

type Engine struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func New(ctx context.Context, cfg config.UpstreamConfig) (*Engine, error) {
	return NewWithHTTPClient(ctx, cfg, nil)
}

// NewWithHTTPClient lets tests substitute the transport. The engine holds no
// credential; a client bound to the caller's key is built for every call.
func NewWithHTTPClient(_ context.Context, cfg config.UpstreamConfig, hc *http.Client) (*Engine, error) {
	if hc == nil {
		hc = &http.Client{Transport: http.DefaultTransport}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base != "" {
		base = strings.TrimRight(base, "/") + "/"
	}
	return &Engine{baseURL: base, timeout: timeout, httpClient: hc}, nil
}

func (e *Engine) client(ctx context.Context, credential string) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      credential,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  e.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: e.baseURL},
	})
}

func (e *Engine) Generate(ctx context.Context, credential string, req engine.Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errors.New("empty prompt")
	}
	if strings.TrimSpace(credential) == "" {
		return "", errors.New("gemini: empty credential")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	c, err := e.client(ctx, credential)
	if err != nil {
		return "", fmt.Errorf("gemini: init client: %w", err)
	}

	temperature := float32(req.Temperature)
	resp, err := c.Models.GenerateContent(ctx, strings.TrimPrefix(req.Model, "models/"), genai.Text(req.Prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: req.Format.MimeType(),
		Temperature:      &temperature,
	})
	if err != nil {
		return "", err
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini: prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", errors.New("gemini: empty response text")
	}
	return text, nil
}

// responseText concatenates the text parts of the first candidate that has any.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if p != nil {
				b.WriteString(p.Text)
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}
