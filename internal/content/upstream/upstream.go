// Package upstream selects the generation engine named in configuration.
package upstream

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/nst-content-backend/internal/content/config"
	"github.com/yungbote/nst-content-backend/internal/content/engine"
	"github.com/yungbote/nst-content-backend/internal/content/engine/gemini"
	"github.com/yungbote/nst-content-backend/internal/content/engine/langchain"
	"github.com/yungbote/nst-content-backend/internal/content/engine/mock"
	"github.com/yungbote/nst-content-backend/internal/content/engine/oaihttp"
)

func New(ctx context.Context, cfg config.UpstreamConfig) (engine.Engine, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case "mock":
		return mock.New(), nil
	case "gemini", "":
		return gemini.New(ctx, cfg)
	case "openai_http", "oai_http":
		return oaihttp.New(cfg)
	case "langchain", "langchain_openai":
		return langchain.New(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported upstream engine %q", cfg.Engine)
	}
}
