// Package langchain generates through langchaingo's OpenAI provider, for
// deployments that front the upstream with an OpenAI-compatible gateway.
package langchain

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/yungbote/nst-content-backend/internal/content/config"
	"github.com/yungbote/nst-content-backend/internal/content/engine"
)

type Engine struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func New(cfg config.UpstreamConfig) *Engine {
	return NewWithHTTPClient(cfg, nil)
}

func NewWithHTTPClient(cfg config.UpstreamConfig, hc *http.Client) *Engine {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	if hc == nil {
		hc = &http.Client{}
	}
	return &Engine{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		timeout:    timeout,
		httpClient: hc,
	}
}

// Generate builds a provider client bound to credential; langchaingo clients
// carry their token for life.
func (e *Engine) Generate(ctx context.Context, credential string, req engine.Request) (string, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(credential, "Bearer ")),
		openai.WithModel(req.Model),
		openai.WithHTTPClient(e.httpClient),
	}
	if e.baseURL != "" {
		opts = append(opts, openai.WithBaseURL(e.baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return "", err
	}

	callOpts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.Format == engine.FormatJSON {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt),
	}, callOpts...)
	if err != nil {
		return "", err
	}
	for _, c := range resp.Choices {
		if c != nil && strings.TrimSpace(c.Content) != "" {
			return c.Content, nil
		}
	}
	return "", errors.New("langchain: empty completion")
}
