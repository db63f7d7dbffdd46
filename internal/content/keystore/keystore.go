package keystore

import (
	"context"
	"os"
	"strings"

	"github.com/yungbote/nst-content-backend/internal/content/config"
	"github.com/yungbote/nst-content-backend/internal/content/settings"
	"github.com/yungbote/nst-content-backend/internal/platform/logger"
)

// Store merges the three credential sources. It holds no credential state of
// its own; every Resolve re-reads all sources.
type Store struct {
	provider    settings.Provider
	fallbackKey string
	envKeyVar   string
	lookupEnv   func(string) string
	log         *logger.Logger
}

type Option func(*Store)

// WithEnvLookup replaces os.Getenv.
func WithEnvLookup(fn func(string) string) Option {
	return func(s *Store) { s.lookupEnv = fn }
}

func New(provider settings.Provider, cfg config.UpstreamConfig, log *logger.Logger, opts ...Option) *Store {
	if log == nil {
		log = logger.Nop()
	}
	s := &Store{
		provider:    provider,
		fallbackKey: cfg.FallbackKey,
		envKeyVar:   strings.TrimSpace(cfg.EnvKeyVar),
		lookupEnv:   os.Getenv,
		log:         log.With("component", "KeyStore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the de-duplicated credentials in source order:
// operator list, embedded fallback, environment. It never fails.
func (s *Store) Resolve(ctx context.Context) []string {
	var candidates []string

	if s.provider != nil {
		keys, err := s.provider.Credentials(ctx)
		if err != nil {
			s.log.Warn("operator credential list unavailable, skipping", "error", err)
		} else {
			candidates = append(candidates, keys...)
		}
	}

	candidates = append(candidates, s.fallbackKey)

	if s.envKeyVar != "" {
		if v := strings.TrimSpace(s.lookupEnv(s.envKeyVar)); v != config.PlaceholderKey {
			candidates = append(candidates, v)
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
