// Package override serves operator-curated content that takes precedence over
// generation. Reads never fail: anything unusable is reported as absent.
package override

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/nst-content-backend/internal/content/fingerprint"
	"github.com/yungbote/nst-content-backend/internal/content/types"
	"github.com/yungbote/nst-content-backend/internal/platform/logger"
)

type Store interface {
	GetChapters(ctx context.Context, key fingerprint.ChapterKey) ([]types.Chapter, bool)
	GetLesson(ctx context.Context, key fingerprint.LessonKey) (*types.LessonContent, bool)
}

type ChapterOverride struct {
	Key       string         `gorm:"primaryKey;column:override_key;type:varchar(512)" json:"key"`
	Payload   datatypes.JSON `gorm:"column:payload;not null" json:"payload"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (ChapterOverride) TableName() string { return "chapter_override" }

type LessonOverride struct {
	Key       string         `gorm:"primaryKey;column:override_key;type:varchar(512)" json:"key"`
	Payload   datatypes.JSON `gorm:"column:payload;not null" json:"payload"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (LessonOverride) TableName() string { return "lesson_override" }

var ErrEmptyChapters = errors.New("chapter override must contain at least one chapter")

type GormStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGormStore(db *gorm.DB, log *logger.Logger) *GormStore {
	if log == nil {
		log = logger.Nop()
	}
	return &GormStore{db: db, log: log.With("repo", "OverrideStore")}
}

func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&ChapterOverride{}, &LessonOverride{})
}

func (s *GormStore) GetChapters(ctx context.Context, key fingerprint.ChapterKey) ([]types.Chapter, bool) {
	var row ChapterOverride
	if !s.take(ctx, &row, key.String()) {
		return nil, false
	}
	var chapters []types.Chapter
	if err := json.Unmarshal(row.Payload, &chapters); err != nil {
		s.log.Warn("chapter override undecodable, ignoring", "key", row.Key, "error", err)
		return nil, false
	}
	if len(chapters) == 0 {
		return nil, false
	}
	return chapters, true
}

func (s *GormStore) GetLesson(ctx context.Context, key fingerprint.LessonKey) (*types.LessonContent, bool) {
	var row LessonOverride
	if !s.take(ctx, &row, key.OverrideKey()) {
		return nil, false
	}
	var lesson types.LessonContent
	if err := json.Unmarshal(row.Payload, &lesson); err != nil {
		s.log.Warn("lesson override undecodable, ignoring", "key", row.Key, "error", err)
		return nil, false
	}
	return &lesson, true
}

func (s *GormStore) take(ctx context.Context, dst any, key string) bool {
	err := s.db.WithContext(ctx).Where("override_key = ?", key).Take(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	if err != nil {
		s.log.Warn("override lookup failed, treating as absent", "key", key, "error", err)
		return false
	}
	return true
}

func (s *GormStore) PutChapters(ctx context.Context, key fingerprint.ChapterKey, chapters []types.Chapter) error {
	if len(chapters) == 0 {
		return ErrEmptyChapters
	}
	raw, err := json.Marshal(chapters)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	row := &ChapterOverride{Key: key.String(), Payload: raw, CreatedAt: now, UpdatedAt: now}
	if err := s.upsert(ctx, row); err != nil {
		return fmt.Errorf("put chapter override: %w", err)
	}
	return nil
}

func (s *GormStore) PutLesson(ctx context.Context, key fingerprint.LessonKey, lesson *types.LessonContent) error {
	if lesson == nil {
		return fmt.Errorf("put lesson override: nil lesson")
	}
	raw, err := json.Marshal(lesson)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	row := &LessonOverride{Key: key.OverrideKey(), Payload: raw, CreatedAt: now, UpdatedAt: now}
	if err := s.upsert(ctx, row); err != nil {
		return fmt.Errorf("put lesson override: %w", err)
	}
	return nil
}

func (s *GormStore) upsert(ctx context.Context, row any) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "override_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(row).Error
}

// DeleteChapters reports whether a row was removed.
func (s *GormStore) DeleteChapters(ctx context.Context, key fingerprint.ChapterKey) (bool, error) {
	res := s.db.WithContext(ctx).Where("override_key = ?", key.String()).Delete(&ChapterOverride{})
	if res.Error != nil {
		return false, fmt.Errorf("delete chapter override: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) DeleteLesson(ctx context.Context, key fingerprint.LessonKey) (bool, error) {
	res := s.db.WithContext(ctx).Where("override_key = ?", key.OverrideKey()).Delete(&LessonOverride{})
	if res.Error != nil {
		return false, fmt.Errorf("delete lesson override: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// NormalizeLesson prepares a curated lesson for storage as type t: quiz
// answers must index their options and quiz content becomes the sentinel.
func NormalizeLesson(l *types.LessonContent, t types.ContentType) error {
	if l == nil {
		return errors.New("lesson required")
	}
	l.Type = t
	if t.IsQuiz() {
		if len(l.MCQData) == 0 {
			return errors.New("quiz lessons need at least one question")
		}
		for i, q := range l.MCQData {
			if !q.Valid() {
				return fmt.Errorf("question %d: correctAnswer out of range", i+1)
			}
		}
		l.Content = types.MCQSentinel
		return nil
	}
	if strings.TrimSpace(l.Content) == "" {
		return errors.New("lesson content required")
	}
	return nil
}
