// Package cache holds resolved content for the lifetime of a session.
//
// Entries never expire and are never evicted; Put overwrites. Backends are
// injected into the resolver so their lifetime is owned by the caller.
package cache

import (
	"context"
	"fmt"

	"github.com/yungbote/nst-content-backend/internal/content/config"
	"github.com/yungbote/nst-content-backend/internal/content/fingerprint"
	"github.com/yungbote/nst-content-backend/internal/content/types"
	"github.com/yungbote/nst-content-backend/internal/platform/logger"
)

type Cache interface {
	GetChapters(ctx context.Context, key fingerprint.ChapterKey) ([]types.Chapter, bool)
	PutChapters(ctx context.Context, key fingerprint.ChapterKey, chapters []types.Chapter)
	GetLesson(ctx context.Context, key fingerprint.LessonKey) (*types.LessonContent, bool)
	PutLesson(ctx context.Context, key fingerprint.LessonKey, lesson *types.LessonContent)
}

// Open builds the backend named by cfg.Backend. The returned close func is never nil.
func Open(ctx context.Context, cfg config.CacheConfig, log *logger.Logger) (Cache, func() error, error) {
	switch cfg.Backend {
	case "redis":
		r, err := NewRedis(ctx, cfg.RedisAddr, cfg.Prefix, log)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	case "memory", "":
		return NewMemory(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}
}
