package override

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/nst-content-backend/internal/content/fingerprint"
	"github.com/yungbote/nst-content-backend/internal/content/types"
)

// Seed is the YAML document operators use to bulk-load curated content.
type Seed struct {
	Chapters []ChapterSeed `yaml:"chapters"`
	Lessons  []LessonSeed  `yaml:"lessons"`
}

type ChapterSeed struct {
	Board      string          `yaml:"board"`
	ClassLevel string          `yaml:"class_level"`
	Stream     string          `yaml:"stream"`
	Subject    string          `yaml:"subject"`
	Language   string          `yaml:"language"`
	Chapters   []types.Chapter `yaml:"chapters"`
}

func (s ChapterSeed) Key() fingerprint.ChapterKey {
	return fingerprint.ChapterKey{
		Board:    types.Board(strings.TrimSpace(s.Board)),
		Class:    types.ClassLevel(strings.TrimSpace(s.ClassLevel)),
		Stream:   types.Stream(strings.TrimSpace(s.Stream)),
		Subject:  strings.TrimSpace(s.Subject),
		Language: types.Language(strings.TrimSpace(s.Language)),
	}
}

type LessonSeed struct {
	Board      string              `yaml:"board"`
	ClassLevel string              `yaml:"class_level"`
	Stream     string              `yaml:"stream"`
	Subject    string              `yaml:"subject"`
	ChapterID  string              `yaml:"chapter_id"`
	Type       string              `yaml:"type"`
	Lesson     types.LessonContent `yaml:"lesson"`
}

func (s LessonSeed) Key() (fingerprint.LessonKey, error) {
	t, err := types.ParseContentType(s.Type)
	if err != nil {
		return fingerprint.LessonKey{}, err
	}
	return fingerprint.LessonKey{
		Board:     types.Board(strings.TrimSpace(s.Board)),
		Class:     types.ClassLevel(strings.TrimSpace(s.ClassLevel)),
		Stream:    types.Stream(strings.TrimSpace(s.Stream)),
		Subject:   strings.TrimSpace(s.Subject),
		ChapterID: strings.TrimSpace(s.ChapterID),
		Type:      t,
	}, nil
}

func ParseSeed(r io.Reader) (*Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if err == io.EOF {
			return &s, nil
		}
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &s, nil
}

type Writer interface {
	PutChapters(ctx context.Context, key fingerprint.ChapterKey, chapters []types.Chapter) error
	PutLesson(ctx context.Context, key fingerprint.LessonKey, lesson *types.LessonContent) error
}

type SeedReport struct {
	Chapters int
	Lessons  int
	Keys     []string
}

// Apply validates every entry before writing any. With dryRun nothing is written.
func (s *Seed) Apply(ctx context.Context, w Writer, dryRun bool) (SeedReport, error) {
	type lessonWrite struct {
		key    fingerprint.LessonKey
		lesson *types.LessonContent
	}
	var rep SeedReport
	lessons := make([]lessonWrite, 0, len(s.Lessons))

	for i, c := range s.Chapters {
		k := c.Key()
		if k.Board == "" || k.Class == "" || k.Subject == "" || k.Language == "" {
			return rep, fmt.Errorf("chapters[%d]: board, class_level, subject and language are required", i)
		}
		if len(c.Chapters) == 0 {
			return rep, fmt.Errorf("chapters[%d] %s: %w", i, k.String(), ErrEmptyChapters)
		}
	}
	for i, l := range s.Lessons {
		k, err := l.Key()
		if err != nil {
			return rep, fmt.Errorf("lessons[%d]: %w", i, err)
		}
		if k.Board == "" || k.Class == "" || k.Subject == "" || k.ChapterID == "" {
			return rep, fmt.Errorf("lessons[%d]: board, class_level, subject and chapter_id are required", i)
		}
		lesson := l.Lesson
		if err := NormalizeLesson(&lesson, k.Type); err != nil {
			return rep, fmt.Errorf("lessons[%d] %s: %w", i, k.OverrideKey(), err)
		}
		lessons = append(lessons, lessonWrite{key: k, lesson: &lesson})
	}

	for _, c := range s.Chapters {
		k := c.Key()
		if !dryRun {
			if err := w.PutChapters(ctx, k, c.Chapters); err != nil {
				return rep, err
			}
		}
		rep.Chapters++
		rep.Keys = append(rep.Keys, k.String())
	}
	for _, l := range lessons {
		if !dryRun {
			if err := w.PutLesson(ctx, l.key, l.lesson); err != nil {
				return rep, err
			}
		}
		rep.Lessons++
		rep.Keys = append(rep.Keys, l.key.OverrideKey())
	}
	return rep, nil
}
