package httpapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/nst-content-backend/internal/content/fingerprint"
	"github.com/yungbote/nst-content-backend/internal/content/resolver"
	"github.com/yungbote/nst-content-backend/internal/content/types"
)

type chapterScope struct {
	Board      string        `json:"board"`
	ClassLevel string        `json:"class_level"`
	Stream     string        `json:"stream"`
	Subject    types.Subject `json:"subject"`
	Language   string        `json:"language"`
}

func (s chapterScope) validate() error {
	var missing []string
	if strings.TrimSpace(s.Board) == "" {
		missing = append(missing, "board")
	}
	if strings.TrimSpace(s.ClassLevel) == "" {
		missing = append(missing, "class_level")
	}
	if strings.TrimSpace(s.Subject.Name) == "" {
		missing = append(missing, "subject.name")
	}
	if strings.TrimSpace(s.Language) == "" {
		missing = append(missing, "language")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (s chapterScope) request() resolver.ChapterRequest {
	return resolver.ChapterRequest{
		Board:    types.Board(strings.TrimSpace(s.Board)),
		Class:    types.ClassLevel(strings.TrimSpace(s.ClassLevel)),
		Stream:   types.Stream(strings.TrimSpace(s.Stream)),
		Subject:  types.Subject{ID: s.Subject.ID, Name: strings.TrimSpace(s.Subject.Name)},
		Language: types.Language(strings.TrimSpace(s.Language)),
	}
}

type lessonBody struct {
	chapterScope
	Chapter       types.Chapter `json:"chapter"`
	Type          string        `json:"type"`
	PriorAttempts int           `json:"prior_attempts"`
	Privileged    bool          `json:"privileged"`
}

func (b lessonBody) request() (resolver.LessonRequest, error) {
	if err := b.validate(); err != nil {
		return resolver.LessonRequest{}, err
	}
	if strings.TrimSpace(b.Chapter.ID) == "" {
		return resolver.LessonRequest{}, errors.New("missing required fields: chapter.id")
	}
	t, err := types.ParseContentType(b.Type)
	if err != nil {
		return resolver.LessonRequest{}, err
	}
	if b.PriorAttempts < 0 {
		return resolver.LessonRequest{}, errors.New("prior_attempts must not be negative")
	}
	cr := b.chapterScope.request()
	return resolver.LessonRequest{
		Board:         cr.Board,
		Class:         cr.Class,
		Stream:        cr.Stream,
		Subject:       cr.Subject,
		Chapter:       b.Chapter,
		Language:      cr.Language,
		Type:          t,
		PriorAttempts: b.PriorAttempts,
		Privileged:    b.Privileged,
	}, nil
}

// lessonScope addresses a lesson override. Language and attempt count do
// not take part in override keys.
type lessonScope struct {
	Board      string `json:"board"`
	ClassLevel string `json:"class_level"`
	Stream     string `json:"stream"`
	Subject    string `json:"subject"`
	ChapterID  string `json:"chapter_id"`
	Type       string `json:"type"`
}

func (s lessonScope) key() (fingerprint.LessonKey, error) {
	var missing []string
	for _, f := range [][2]string{{"board", s.Board}, {"class_level", s.ClassLevel}, {"subject", s.Subject}, {"chapter_id", s.ChapterID}} {
		if strings.TrimSpace(f[1]) == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) > 0 {
		return fingerprint.LessonKey{}, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
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
