package cache

import (
	"context"
	"sync"

	"github.com/yungbote/nst-content-backend/internal/content/fingerprint"
	"github.com/yungbote/nst-content-backend/internal/content/types"
)

// Memory is the process-local backend. A hit returns the stored value itself,
// so callers must treat results as read-only.
type Memory struct {
	mu       sync.RWMutex
	chapters map[fingerprint.ChapterKey][]types.Chapter
	lessons  map[fingerprint.LessonKey]*types.LessonContent
}

func NewMemory() *Memory {
	return &Memory{
		chapters: make(map[fingerprint.ChapterKey][]types.Chapter),
		lessons:  make(map[fingerprint.LessonKey]*types.LessonContent),
	}
}

func (m *Memory) GetChapters(_ context.Context, key fingerprint.ChapterKey) ([]types.Chapter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.chapters[key]
	return v, ok
}

func (m *Memory) PutChapters(_ context.Context, key fingerprint.ChapterKey, chapters []types.Chapter) {
	m.mu.Lock()
	m.chapters[key] = chapters
	m.mu.Unlock()
}

func (m *Memory) GetLesson(_ context.Context, key fingerprint.LessonKey) (*types.LessonContent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.lessons[key]
	return v, ok
}

func (m *Memory) PutLesson(_ context.Context, key fingerprint.LessonKey, lesson *types.LessonContent) {
	if lesson == nil {
		return
	}
	m.mu.Lock()
	m.lessons[key] = lesson
	m.mu.Unlock()
}

// Len reports the number of chapter and lesson entries.
func (m *Memory) Len() (chapters, lessons int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chapters), len(m.lessons)
}
