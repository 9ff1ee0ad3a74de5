package llm

import (
	"fmt"
	"strings"

	"github.com/taleemlabs/taleem-backend/internal/model"
)

func buildGenerationPrompt(spec model.AssessmentSpec, count int) string {
	langs := model.NormalizeLanguages(spec.Languages)
	langNames := make([]string, 0, len(langs))
	for _, l := range langs {
		langNames = append(langNames, string(l))
	}

	var sb strings.Builder
	sb.WriteString("You are an exam paper generator for secondary-school students in Pakistan.\n\n")
	fmt.Fprintf(&sb, "Generate exactly %d %s for:\n", count, spec.ExamType.PromptLabel())
	fmt.Fprintf(&sb, "SUBJECT: %s\n", spec.Subject)
	fmt.Fprintf(&sb, "CHAPTER: %s\n", spec.Chapter)
	fmt.Fprintf(&sb, "LANGUAGES: %s\n\n", strings.Join(langNames, ", "))

	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("- Every question must provide its text in EVERY listed language, keyed by language name.\n")
	sb.WriteString("- kind must be one of \"mcq\", \"short\", \"long\".\n")
	sb.WriteString("- Multiple choice questions must include exactly 4 options per language, in the same order across languages. Other kinds must omit options.\n")
	sb.WriteString("- Every question must include a concise reference answer in every listed language.\n")
	sb.WriteString("\nRespond ONLY with a JSON object of this shape:\n")
	sb.WriteString(`{"questions": [{"prompt": {"English": "..."}, "kind": "mcq", "options": {"English": ["...", "...", "...", "..."]}, "reference_answer": {"English": "..."}}]}`)
	sb.WriteString("\n")

	return sb.String()
}

func buildGradingPrompt(
	questions []model.Question,
	answers []model.AnswerRecord,
	student model.StudentIdentity,
	spec model.AssessmentSpec,
) string {
	var sb strings.Builder
	sb.WriteString("You are an exam grader for secondary-school students in Pakistan.\n\n")
	fmt.Fprintf(&sb, "STUDENT: %s (class %s, %s)\n", student.Name, student.ClassName, student.SchoolName)
	fmt.Fprintf(&sb, "SUBJECT: %s — CHAPTER: %s\n\n", spec.Subject, spec.Chapter)

	sb.WriteString("Grade the following answers. An empty answer is unanswered and scores zero for that question.\n\n")
	for i, q := range questions {
		fmt.Fprintf(&sb, "QUESTION %d (%s): %s\n", i+1, q.Kind, q.Prompt)
		if len(q.Options) > 0 {
			fmt.Fprintf(&sb, "OPTIONS: %s\n", strings.Join(q.Options, " | "))
		}
		fmt.Fprintf(&sb, "REFERENCE ANSWER: %s\n", q.ReferenceAnswer)
		fmt.Fprintf(&sb, "STUDENT ANSWER: %s\n\n", answers[i].Response)
	}

	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("- Award whole-number marks; score_total is the sum of maximum marks, score_obtained the sum awarded.\n")
	sb.WriteString("- Include one breakdown entry per question, in the same order as above.\n")
	sb.WriteString("- narrative_feedback is 2-4 sentences of encouraging, specific feedback.\n")
	sb.WriteString("\nRespond ONLY with a JSON object of this shape:\n")
	sb.WriteString(`{"score_total": 15, "score_obtained": 11, "narrative_feedback": "...", "questions": [{"prompt": "...", "student_answer": "...", "reference_answer": "...", "correct": true, "feedback": "..."}]}`)
	sb.WriteString("\n")

	return sb.String()
}

func buildTranslationPrompt(text string, target model.Language) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Translate the following text into %s. ", target)
	sb.WriteString("Respond with the translation only, no commentary.\n\n")
	sb.WriteString(text)
	return sb.String()
}
