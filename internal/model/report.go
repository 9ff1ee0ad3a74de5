package model

import (
	"math"
	"strconv"
	"time"
)

// HistoryLimit caps the per-student history ledger; the oldest report is
// evicted once the cap is exceeded.
const HistoryLimit = 50

// QuestionResult is one row of a graded report's per-question breakdown.
type QuestionResult struct {
	Prompt          string `json:"prompt"`
	StudentAnswer   string `json:"student_answer"`
	ReferenceAnswer string `json:"reference_answer"`
	Correct         bool   `json:"correct"`
	Feedback        string `json:"feedback"`
}

// ReportCard is the grading collaborator's response body: scores, feedback
// and breakdown, without an id. The caller stamps identity, id, percentage
// and letter grade when building the final GradedReport.
type ReportCard struct {
	ScoreTotal        int              `json:"score_total"`
	ScoreObtained     int              `json:"score_obtained"`
	NarrativeFeedback string           `json:"narrative_feedback"`
	Breakdown         []QuestionResult `json:"questions"`
}

// GradedReport is the immutable result of evaluating a completed exam.
// ID is the creation time as millisecond-epoch digits; it doubles as the
// uniqueness key and the implicit creation ordering of the ledger.
type GradedReport struct {
	ID                string           `json:"id"`
	Student           StudentIdentity  `json:"student"`
	Spec              AssessmentSpec   `json:"spec"`
	ScoreTotal        int              `json:"score_total"`
	ScoreObtained     int              `json:"score_obtained"`
	Percentage        float64          `json:"percentage"`
	LetterGrade       string           `json:"letter_grade"`
	NarrativeFeedback string           `json:"narrative_feedback"`
	Breakdown         []QuestionResult `json:"per_question_breakdown"`
	CreatedAt         time.Time        `json:"created_at"`
}

// NewGradedReport stamps a collaborator report card into a final report.
func NewGradedReport(card *ReportCard, student StudentIdentity, spec AssessmentSpec, at time.Time) GradedReport {
	pct := Percentage(card.ScoreObtained, card.ScoreTotal)
	return GradedReport{
		ID:                strconv.FormatInt(at.UnixMilli(), 10),
		Student:           student,
		Spec:              spec,
		ScoreTotal:        card.ScoreTotal,
		ScoreObtained:     card.ScoreObtained,
		Percentage:        pct,
		LetterGrade:       LetterGrade(pct),
		NarrativeFeedback: card.NarrativeFeedback,
		Breakdown:         card.Breakdown,
		CreatedAt:         at.UTC(),
	}
}

// Percentage computes the score percentage rounded to one decimal place.
func Percentage(obtained, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(obtained)/float64(total)*1000) / 10
}

// LetterGrade maps a percentage to the grade shown on report cards.
func LetterGrade(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B"
	case percentage >= 60:
		return "C"
	case percentage >= 50:
		return "D"
	default:
		return "F"
	}
}

// TrendPoint is one entry of the chronological performance series.
type TrendPoint struct {
	Date       string  `json:"date"`
	Percentage float64 `json:"percentage"`
}

// HistoryStats aggregates a student's ledger for display.
type HistoryStats struct {
	TotalExams     int          `json:"total_exams"`
	WeakestSubject string       `json:"weakest_subject"`
	Trend          []TrendPoint `json:"trend"`
}
