// Package offline produces the fixed placeholder content served when no
// upstream credential succeeds. Output depends only on the inputs; the
// resolver stamps ids and timestamps.
package offline

import (
	"strings"

	"github.com/yungbote/nst-content-backend/internal/content/types"
)

func Chapters(subject string) []types.Chapter {
	return []types.Chapter{
		{ID: "ch-1", Title: "Introduction to " + subject, Description: "Basics and Fundamental Concepts."},
		{ID: "ch-2", Title: "Core Principles", Description: "Understanding the main theories."},
		{ID: "ch-3", Title: "Advanced Theory", Description: "Complex topics and deep dive."},
		{ID: "ch-4", Title: "Practical Applications", Description: "Real-world usage and case studies."},
		{ID: "ch-5", Title: "Problem Solving", Description: "Numerical and analytical problems."},
		{ID: "ch-6", Title: "Summary & Revision", Description: "Quick recap of the entire syllabus."},
		{ID: "ch-7", Title: "Previous Year Questions", Description: "Important questions from past exams."},
	}
}

func quiz() []types.MCQItem {
	return []types.MCQItem{
		{
			Question:      "What is the primary focus of this chapter?",
			Options:       []string{"Theory", "Practical", "History", "None"},
			CorrectAnswer: 0,
			Explanation:   "This chapter focuses on foundational theory.",
		},
		{
			Question:      "Which concept is most important?",
			Options:       []string{"Concept A", "Concept B", "Concept C", "All of the above"},
			CorrectAnswer: 3,
			Explanation:   "All concepts are integral to understanding this topic.",
		},
		{
			Question:      "True or False: This is an offline backup.",
			Options:       []string{"True", "False"},
			CorrectAnswer: 0,
			Explanation:   "The app is running in offline mode because the AI could not be reached.",
		},
		{
			Question:      "What is the standard unit of measurement here?",
			Options:       []string{"Unit X", "Unit Y", "Unit Z", "None"},
			CorrectAnswer: 0,
			Explanation:   "Unit X is the standard international unit.",
		},
		{
			Question:      "Who is the father of this subject?",
			Options:       []string{"Newton", "Einstein", "Darwin", "Unknown"},
			CorrectAnswer: 3,
			Explanation:   "Depends on the specific subject context.",
		},
	}
}

const notesTemplate = `# {{chapter}}

> **Note:** You are viewing **Offline Notes**. The AI Server is currently unreachable.

## 1. Introduction
Welcome to the chapter on **{{chapter}}**. In this section, we will explore the fundamental aspects of **{{subject}}**. This topic is crucial for your board exams.

## 2. Key Concepts
*   **Definition:** The core idea behind this topic is to understand how systems interact.
*   **Significance:** Why do we study this? Because it forms the basis of advanced studies.
*   **Application:** Used in various real-world scenarios.

## 3. Detailed Explanation
When dealing with **{{subject}}**, it is important to remember the basic formulas and definitions.
- Point A: Essential for understanding.
- Point B: Builds upon Point A.
- Point C: The conclusion of the theory.

## 4. Important Formulas / Dates
*   Formula 1: $E = mc^2$ (Example)
*   Date: 1947 (Example)

## 5. Summary
To summarize, this chapter covers the basics. Please ensure you read your textbook for full details.`

// Lesson leaves ID and DateCreated empty.
func Lesson(subject string, chapter types.Chapter, t types.ContentType) *types.LessonContent {
	l := &types.LessonContent{
		Title:       chapter.Title,
		Subtitle:    subject + " (Offline Mode)",
		Type:        t,
		SubjectName: subject,
	}
	if t.IsQuiz() {
		l.Content = types.MCQSentinel
		l.MCQData = quiz()
		return l
	}
	l.Content = strings.NewReplacer("{{chapter}}", chapter.Title, "{{subject}}", subject).Replace(notesTemplate)
	return l
}
