package model

// QuestionKind enumerates question formats.
type QuestionKind string

const (
	QuestionKindMCQ   QuestionKind = "mcq"
	QuestionKindShort QuestionKind = "short"
	QuestionKindLong  QuestionKind = "long"
)

// Valid reports whether the kind is a known enum value.
func (k QuestionKind) Valid() bool {
	switch k {
	case QuestionKindMCQ, QuestionKindShort, QuestionKindLong:
		return true
	}
	return false
}

// Question is a single generated exam question. Prompt holds the
// multi-language joined text; Options is present only for MCQ kinds.
// Immutable once generated.
type Question struct {
	Prompt          string       `json:"prompt"`
	Kind            QuestionKind `json:"kind"`
	Options         []string     `json:"options,omitempty"`
	ReferenceAnswer string       `json:"reference_answer"`
}

// AnswerRecord holds the student's response to the question at the same
// index. An empty response means unanswered.
type AnswerRecord struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// EmptyAnswers builds the parallel answer buffer for a freshly generated
// question list, one blank record per question in the same order.
func EmptyAnswers(questions []Question) []AnswerRecord {
	answers := make([]AnswerRecord, len(questions))
	for i, q := range questions {
		answers[i] = AnswerRecord{Prompt: q.Prompt}
	}
	return answers
}

// UpdateAnswerRequest is the payload for editing a single answer.
// An empty response clears the answer.
type UpdateAnswerRequest struct {
	Response string `json:"response" binding:"max=10000"`
}
