// Package grounding looks up existing notes for a chapter so quiz generation
// can be based on them.
package grounding

import (
	"context"
	"strings"

	"github.com/yungbote/nst-content-backend/internal/content/cache"
	"github.com/yungbote/nst-content-backend/internal/content/fingerprint"
	"github.com/yungbote/nst-content-backend/internal/content/override"
	"github.com/yungbote/nst-content-backend/internal/content/types"
)

// NotePriority is the search order across note variants.
var NotePriority = []types.ContentType{types.NotesPremium, types.NotesSimple, types.PDFNotes}

const (
	DefaultMaxChars = 15000

	// MinChars is the length grounding text must exceed to be used.
	MinChars = 50
)

type Finder struct {
	cache     cache.Cache
	overrides override.Store
	maxChars  int
}

func NewFinder(c cache.Cache, o override.Store, maxChars int) *Finder {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Finder{cache: c, overrides: o, maxChars: maxChars}
}

// Find returns the first usable note body for the chapter named by key,
// walking NotePriority and checking the session cache before overrides for
// each variant. The key's own type and attempt count are ignored.
func (f *Finder) Find(ctx context.Context, key fingerprint.LessonKey) (string, bool) {
	for _, t := range NotePriority {
		variant := key.WithType(t)
		variant.PriorAttempts = 0

		if f.cache != nil {
			if l, ok := f.cache.GetLesson(ctx, variant); ok && l != nil {
				if text, ok := f.usable(l.Content); ok {
					return text, true
				}
			}
		}
		if f.overrides != nil {
			if l, ok := f.overrides.GetLesson(ctx, variant); ok && l != nil {
				if text, ok := f.usable(l.Content); ok {
					return text, true
				}
			}
		}
	}
	return "", false
}

func (f *Finder) usable(content string) (string, bool) {
	s := strings.TrimSpace(content)
	if s == "" || s == types.MCQSentinel {
		return "", false
	}
	if isPlaceholder(s) {
		return "", false
	}
	if len([]rune(s)) <= MinChars {
		return "", false
	}
	return truncateRunes(s, f.maxChars), true
}

// isPlaceholder matches data URIs (embedded PDFs) and content that is only a link.
func isPlaceholder(s string) bool {
	if strings.HasPrefix(s, "data:") {
		return true
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
