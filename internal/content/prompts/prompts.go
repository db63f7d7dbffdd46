// Package prompts renders the upstream instructions for chapter lists and lessons.
package prompts

import (
	"fmt"
	"strings"

	"github.com/yungbote/nst-content-backend/internal/content/types"
)

// minStyleChars is the trimmed length a style instruction must exceed to be applied.
const minStyleChars = 10

type ChapterInput struct {
	Board    types.Board
	Class    types.ClassLevel
	Stream   types.Stream
	Subject  string
	Language types.Language
}

func Chapters(in ChapterInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "List 10 standard chapters for Class %s", in.Class)
	if in.Stream != "" {
		fmt.Fprintf(&b, " %s", in.Stream)
	}
	fmt.Fprintf(&b, " Subject: %s (%s). ", in.Subject, in.Board)
	if in.Language != "" {
		fmt.Fprintf(&b, "Write titles and descriptions in %s. ", in.Language)
	}
	b.WriteString(`Return JSON array: [{"title": "...", "description": "..."}].`)
	return b.String()
}

type LessonInput struct {
	Type         types.ContentType
	Class        types.ClassLevel
	Subject      string
	ChapterTitle string
	Language     types.Language

	// Style is the operator's note style instruction.
	Style string

	// Grounding is existing note text quiz questions must be based on.
	Grounding string
}

func Lesson(in LessonInput) string {
	switch in.Type {
	case types.MCQSimple:
		return quizSimple(in)
	case types.MCQAnalysis:
		return quizAnalysis(in)
	case types.NotesSimple:
		return notesSimple(in)
	default:
		return notesPremium(in)
	}
}

func styleBlock(style string) string {
	s := strings.TrimSpace(style)
	if len(s) <= minStyleChars {
		return ""
	}
	return "ADMIN OVERRIDE INSTRUCTIONS (FOLLOW THESE FOR TONE/STYLE):\n" + s
}

func quizSimple(in LessonInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate 5 standard-level MCQs for Class %s %s Chapter: %q.\n", in.Class, in.Subject, in.ChapterTitle)
	b.WriteString("Format: JSON Array [{question, options[], correctAnswer(int), explanation}].\n")
	fmt.Fprintf(&b, "Language: %s.\n", in.Language)
	b.WriteString("Keep questions direct and factual. Use $$Formula$$ for math.\n")
	if in.Grounding != "" {
		b.WriteString("\nIMPORTANT: Base the questions STRICTLY on the following notes content:\n\n")
		b.WriteString(in.Grounding)
	}
	return b.String()
}

func quizAnalysis(in LessonInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate 15 High-Quality, Conceptual MCQs for Class %s %s Chapter: %q.\n", in.Class, in.Subject, in.ChapterTitle)
	b.WriteString("Format: JSON Array [{question, options[], correctAnswer(int), explanation}].\n")
	fmt.Fprintf(&b, "Language: %s.\n", in.Language)
	b.WriteString("Include critical thinking questions. Use $$Formula$$ for all math/chemistry expressions. Provide detailed explanations.\n")
	if in.Grounding != "" {
		b.WriteString("\nIMPORTANT: Base the questions STRICTLY on the following notes content to ensure relevance:\n\n")
		b.WriteString(in.Grounding)
	}
	return b.String()
}

func notesSimple(in LessonInput) string {
	var b strings.Builder
	if s := styleBlock(in.Style); s != "" {
		b.WriteString(s)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Create SIMPLE, CONCISE STUDY NOTES for Class %s %s, Chapter: %q.\n", in.Class, in.Subject, in.ChapterTitle)
	fmt.Fprintf(&b, "Language: %s.\n", in.Language)
	b.WriteString(`Structure:
- Quick Summary
- Main Points (Bulleted)
- Important Definitions
- 2-3 Key Examples

Keep it easy to read for quick revision. Use $$Formula$$ for math.`)
	return b.String()
}

const premiumStructure = "Structure: Title Page, Introduction, Deep Dive Sections, Key Concepts Table, Diagram Placeholders, Summary, Exam Corner."

const premiumRules = `STRICT FORMATTING RULES (YOU MUST FOLLOW THESE):
1. Use clear Markdown headers (#, ##, ###).
2. Use [[red|TEXT]] for WARNINGS, DATES, EXCEPTIONS.
3. Use [[blue|TEXT]] for HEADINGS, KEYWORDS.
4. Use [[green|TEXT]] for DEFINITIONS, EXAMPLES.
5. Use [[IMAGE:Description]] for where a diagram should be.

CRITICAL FOR CHEMISTRY/MATH:
You MUST wrap ALL Chemical Formulas and Math Equations in double dollar signs ($$).
Example: "$$ 2Mg + O_2 \rightarrow 2MgO $$", "$$ H_2SO_4 $$", "$$ x^2 + y^2 = r^2 $$"

Content Depth:
- Explain concepts like a top-tier professor.
- Use tables for comparisons.
- Include a "Points to Remember" section at the end.

The output should be so high quality that it can be directly printed as a PDF book.`

// notesPremium also serves PDF_NOTES. A usable style instruction takes the
// place of the default structure line.
func notesPremium(in LessonInput) string {
	var b strings.Builder
	style := styleBlock(in.Style)
	if style != "" {
		b.WriteString(style)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Create ULTRA-PREMIUM, PUBLICATION-READY STUDY NOTES (PDF STYLE) for Class %s %s, Chapter: %q.\n", in.Class, in.Subject, in.ChapterTitle)
	fmt.Fprintf(&b, "Language: %s.\n\n", in.Language)
	if style == "" {
		b.WriteString(premiumStructure)
		b.WriteString("\n\n")
	}
	b.WriteString(premiumRules)
	return b.String()
}
