package types

import (
	"fmt"
	"strings"
)

// MCQSentinel replaces the textual content of quiz lessons; the questions live in MCQData.
const MCQSentinel = "MCQ_DATA_LOADED"

type Board string

type ClassLevel string

// Stream is empty for classes that have no stream split.
type Stream string

type Language string

type ContentType string

const (
	NotesSimple  ContentType = "NOTES_SIMPLE"
	NotesPremium ContentType = "NOTES_PREMIUM"
	PDFNotes     ContentType = "PDF_NOTES"
	MCQSimple    ContentType = "MCQ_SIMPLE"
	MCQAnalysis  ContentType = "MCQ_ANALYSIS"
)

var contentTypes = map[ContentType]struct{}{
	NotesSimple:  {},
	NotesPremium: {},
	PDFNotes:     {},
	MCQSimple:    {},
	MCQAnalysis:  {},
}

func ParseContentType(s string) (ContentType, error) {
	t := ContentType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := contentTypes[t]; !ok {
		return "", fmt.Errorf("unknown content type %q", s)
	}
	return t, nil
}

func (t ContentType) IsQuiz() bool { return strings.Contains(string(t), "MCQ") }

func (t ContentType) IsPremium() bool { return strings.Contains(string(t), "PREMIUM") }

// Label renders the type for subtitles: only the first underscore becomes a space.
func (t ContentType) Label() string { return strings.Replace(string(t), "_", " ", 1) }

type Subject struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type Chapter struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

type MCQItem struct {
	Question      string   `json:"question" yaml:"question"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer int      `json:"correctAnswer" yaml:"correctAnswer"`
	Explanation   string   `json:"explanation" yaml:"explanation"`
}

func (m MCQItem) Valid() bool {
	return m.CorrectAnswer >= 0 && m.CorrectAnswer < len(m.Options)
}

type LessonContent struct {
	ID          string      `json:"id" yaml:"id"`
	Title       string      `json:"title" yaml:"title"`
	Subtitle    string      `json:"subtitle" yaml:"subtitle"`
	Content     string      `json:"content" yaml:"content"`
	Type        ContentType `json:"type" yaml:"type"`
	DateCreated string      `json:"dateCreated" yaml:"dateCreated"`
	SubjectName string      `json:"subjectName" yaml:"subjectName"`
	MCQData     []MCQItem   `json:"mcqData,omitempty" yaml:"mcqData,omitempty"`
}
