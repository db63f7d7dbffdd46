package rotation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/yungbote/nst-content-backend/internal/platform/logger"
)

var (
	ErrNoCredentials        = errors.New("no upstream credentials available")
	ErrAllCredentialsFailed = errors.New("all upstream credentials failed")
)

// KeySource yields the current credential set. It is consulted on every call.
type KeySource interface {
	Resolve(ctx context.Context) []string
}

type Executor struct {
	keys    KeySource
	log     *logger.Logger
	shuffle func(n int, swap func(i, j int))
}

type Option func(*Executor)

// WithShuffle replaces the Fisher-Yates shuffle from math/rand/v2.
func WithShuffle(fn func(n int, swap func(i, j int))) Option {
	return func(e *Executor) { e.shuffle = fn }
}

func New(keys KeySource, log *logger.Logger, opts ...Option) *Executor {
	if log == nil {
		log = logger.Nop()
	}
	e := &Executor{
		keys:    keys,
		log:     log.With("component", "RotationExecutor"),
		shuffle: rand.Shuffle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do runs op with one credential at a time, in a fresh random order, until
// an attempt succeeds. Attempts are sequential. When every credential fails
// the last error is returned, wrapped with the attempt count.
func Do[T any](ctx context.Context, e *Executor, op func(ctx context.Context, credential string) (T, error)) (T, error) {
	var zero T

	keys := e.keys.Resolve(ctx)
	if len(keys) == 0 {
		return zero, ErrNoCredentials
	}

	order := make([]string, len(keys))
	copy(order, keys)
	e.shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	var lastErr error
	for i, key := range order {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			break
		}
		out, err := op(ctx, key)
		if err == nil {
			if i > 0 {
				e.log.Info("upstream call succeeded after rotation", "attempt", i+1, "key_suffix", logger.MaskCredential(key))
			}
			return out, nil
		}
		e.log.Warn("upstream credential failed, rotating",
			"attempt", i+1,
			"of", len(order),
			"key_suffix", logger.MaskCredential(key),
			"error", err,
		)
		lastErr = err
	}

	if lastErr == nil {
		return zero, ErrAllCredentialsFailed
	}
	return zero, fmt.Errorf("%w after %d attempts: %w", ErrAllCredentialsFailed, len(order), lastErr)
}
