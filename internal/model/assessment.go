package model

import (
	"errors"
	"strings"
)

// Language is a question language tag.
type Language string

const (
	LanguageEnglish Language = "English"
	LanguageUrdu    Language = "Urdu"
	LanguageSindhi  Language = "Sindhi"
)

// LanguageOrder is the canonical ordering used when joining multi-language
// text into a single prompt string.
var LanguageOrder = []Language{LanguageEnglish, LanguageUrdu, LanguageSindhi}

// PromptSeparator joins per-language variants of the same text into the
// single prompt string shown to the student.
const PromptSeparator = " / "

// Valid reports whether the language is one of the supported tags.
func (l Language) Valid() bool {
	switch l {
	case LanguageEnglish, LanguageUrdu, LanguageSindhi:
		return true
	}
	return false
}

// NormalizeLanguages deduplicates the requested languages and returns them
// in canonical order. Unknown tags are dropped.
func NormalizeLanguages(langs []Language) []Language {
	seen := make(map[Language]bool, len(langs))
	for _, l := range langs {
		if l.Valid() {
			seen[l] = true
		}
	}
	out := make([]Language, 0, len(seen))
	for _, l := range LanguageOrder {
		if seen[l] {
			out = append(out, l)
		}
	}
	return out
}

// JoinLanguages renders the requested languages as a display string
// ("English / Urdu").
func JoinLanguages(langs []Language) string {
	parts := make([]string, 0, len(langs))
	for _, l := range langs {
		parts = append(parts, string(l))
	}
	return strings.Join(parts, PromptSeparator)
}

// ExamType enumerates the kinds of assessment that can be generated.
type ExamType string

const (
	ExamTypeMCQ   ExamType = "mcq"
	ExamTypeShort ExamType = "short"
	ExamTypeLong  ExamType = "long"
	ExamTypeMixed ExamType = "mixed"
)

// Valid reports whether the exam type is a known enum value.
func (t ExamType) Valid() bool {
	switch t {
	case ExamTypeMCQ, ExamTypeShort, ExamTypeLong, ExamTypeMixed:
		return true
	}
	return false
}

// PromptLabel returns the phrasing used when asking the collaborator for
// this kind of paper.
func (t ExamType) PromptLabel() string {
	switch t {
	case ExamTypeMCQ:
		return "multiple choice questions"
	case ExamTypeShort:
		return "short answer questions"
	case ExamTypeLong:
		return "long answer questions"
	case ExamTypeMixed:
		return "a mix of multiple choice, short answer and long answer questions"
	default:
		return string(t)
	}
}

// AllowedDurations is the fixed set of selectable exam lengths in minutes.
var AllowedDurations = []int{10, 15, 20, 30, 45, 60}

// AssessmentSpec defines what exam to generate. Mutable only during setup;
// the exam flow stores its own copy once the exam starts.
type AssessmentSpec struct {
	Subject         string     `json:"subject"`
	Chapter         string     `json:"chapter"`
	ExamType        ExamType   `json:"exam_type"`
	Languages       []Language `json:"languages"`
	DurationMinutes int        `json:"duration_minutes"`
}

// Spec validation errors.
var (
	ErrNoLanguages     = errors.New("at least one language is required")
	ErrUnknownExamType = errors.New("unknown exam type")
	ErrBadDuration     = errors.New("duration is not one of the allowed values")
)

// Validate enforces the spec invariants independently of request binding:
// languages never empty, enums known, duration from the allowed set.
func (s *AssessmentSpec) Validate() error {
	if len(NormalizeLanguages(s.Languages)) == 0 {
		return ErrNoLanguages
	}
	if !s.ExamType.Valid() {
		return ErrUnknownExamType
	}
	for _, d := range AllowedDurations {
		if s.DurationMinutes == d {
			return nil
		}
	}
	return ErrBadDuration
}

// StartExamRequest is the payload for starting a new exam.
type StartExamRequest struct {
	Subject         string     `json:"subject" binding:"required,min=2,max=100"`
	Chapter         string     `json:"chapter" binding:"required,min=1,max=150"`
	ExamType        ExamType   `json:"exam_type" binding:"required,oneof=mcq short long mixed"`
	Languages       []Language `json:"languages" binding:"required,min=1,dive,examlang"`
	DurationMinutes int        `json:"duration_minutes" binding:"required,oneof=10 15 20 30 45 60"`
}

// Spec converts the request into an AssessmentSpec with languages
// normalized to canonical order.
func (r *StartExamRequest) Spec() AssessmentSpec {
	return AssessmentSpec{
		Subject:         strings.TrimSpace(r.Subject),
		Chapter:         strings.TrimSpace(r.Chapter),
		ExamType:        r.ExamType,
		Languages:       NormalizeLanguages(r.Languages),
		DurationMinutes: r.DurationMinutes,
	}
}
