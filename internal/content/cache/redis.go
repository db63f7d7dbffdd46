package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/nst-content-backend/internal/content/fingerprint"
	"github.com/yungbote/nst-content-backend/internal/content/types"
	"github.com/yungbote/nst-content-backend/internal/platform/logger"
)

// Redis shares cached content between replicas. Values are JSON without
// expiry. Failures are logged and read as misses; they never reach callers.
type Redis struct {
	rdb    *goredis.Client
	prefix string
	log    *logger.Logger
}

func NewRedis(ctx context.Context, addr, prefix string, log *logger.Logger) (*Redis, error) {
	if log == nil {
		log = logger.Nop()
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedis(rdb, prefix, log), nil
}

func newRedis(rdb *goredis.Client, prefix string, log *logger.Logger) *Redis {
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = "nst"
	}
	return &Redis{rdb: rdb, prefix: prefix, log: log.With("service", "RedisCache")}
}

func (r *Redis) Close() error { return r.rdb.Close() }

func (r *Redis) chapterKey(k fingerprint.ChapterKey) string {
	return r.prefix + ":chapters:" + k.String()
}

func (r *Redis) lessonKey(k fingerprint.LessonKey) string {
	return r.prefix + ":lesson:" + k.String()
}

func (r *Redis) GetChapters(ctx context.Context, key fingerprint.ChapterKey) ([]types.Chapter, bool) {
	var out []types.Chapter
	if !r.get(ctx, r.chapterKey(key), &out) {
		return nil, false
	}
	return out, true
}

func (r *Redis) PutChapters(ctx context.Context, key fingerprint.ChapterKey, chapters []types.Chapter) {
	r.set(ctx, r.chapterKey(key), chapters)
}

func (r *Redis) GetLesson(ctx context.Context, key fingerprint.LessonKey) (*types.LessonContent, bool) {
	var out types.LessonContent
	if !r.get(ctx, r.lessonKey(key), &out) {
		return nil, false
	}
	return &out, true
}

func (r *Redis) PutLesson(ctx context.Context, key fingerprint.LessonKey, lesson *types.LessonContent) {
	if lesson == nil {
		return
	}
	r.set(ctx, r.lessonKey(key), lesson)
}

func (r *Redis) get(ctx context.Context, key string, dst any) bool {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false
	}
	if err != nil {
		r.log.Warn("cache read failed, treating as miss", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.log.Warn("cache entry undecodable, treating as miss", "key", key, "error", err)
		return false
	}
	return true
}

func (r *Redis) set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		r.log.Warn("cache entry unencodable, skipping write", "key", key, "error", err)
		return
	}
	if err := r.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
		r.log.Warn("cache write failed", "key", key, "error", err)
	}
}
