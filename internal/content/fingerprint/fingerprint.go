// Package fingerprint defines the typed keys that identify content requests.
//
// Keys are plain comparable structs. String renderings exist only for storage
// boundaries (cache backends, override tables) and keep the historical
// dash-joined layout so previously stored overrides stay addressable.
//
// Free-form fields (board, class, stream, subject) have '-' and '%' escaped
// as %2D and %25, so a stream boundary cannot be forged from inside a
// subject name. Chapter ids are rendered raw because issued ids look like
// "ch-3"; they are assumed not to collide with a subject/chapter split.
package fingerprint

import (
	"strconv"
	"strings"

	"github.com/yungbote/nst-content-backend/internal/content/types"
)

type ChapterKey struct {
	Board    types.Board
	Class    types.ClassLevel
	Stream   types.Stream
	Subject  string
	Language types.Language
}

// String renders board-class[-stream]-subject-language.
func (k ChapterKey) String() string {
	return join(k.prefix(), escape(k.Subject), string(k.Language))
}

func (k ChapterKey) prefix() string {
	var b strings.Builder
	b.WriteString(escape(string(k.Board)))
	b.WriteByte('-')
	b.WriteString(escape(string(k.Class)))
	if k.Stream != "" {
		b.WriteByte('-')
		b.WriteString(escape(string(k.Stream)))
	}
	return b.String()
}

type LessonKey struct {
	Board         types.Board
	Class         types.ClassLevel
	Stream        types.Stream
	Subject       string
	ChapterID     string
	Language      types.Language
	Type          types.ContentType
	PriorAttempts int
}

// String renders board-class[-stream]-subject-chapter-language-type-count.
func (k LessonKey) String() string {
	return join(k.chapterPrefix(), k.ChapterID, string(k.Language), string(k.Type), strconv.Itoa(k.PriorAttempts))
}

// OverrideKey drops the attempt counter and language. Curated content is
// authored once per chapter and type and served for every retry.
func (k LessonKey) OverrideKey() string {
	return join(k.chapterPrefix(), k.ChapterID, string(k.Type))
}

// WithType returns the sibling key for another content variant of the same chapter.
func (k LessonKey) WithType(t types.ContentType) LessonKey {
	k.Type = t
	return k
}

func (k LessonKey) Chapters() ChapterKey {
	return ChapterKey{Board: k.Board, Class: k.Class, Stream: k.Stream, Subject: k.Subject, Language: k.Language}
}

func (k LessonKey) chapterPrefix() string {
	return join(ChapterKey{Board: k.Board, Class: k.Class, Stream: k.Stream}.prefix(), escape(k.Subject))
}

var fieldEscaper = strings.NewReplacer("%", "%25", "-", "%2D")

func escape(field string) string { return fieldEscaper.Replace(field) }

func join(parts ...string) string {
	return strings.Join(parts, "-")
}
