package model

import (
	"errors"
	"fmt"
)

// FlowState enumerates exam flow states.
type FlowState string

const (
	FlowStateSetup  FlowState = "SETUP"
	FlowStateTaking FlowState = "TAKING"
	FlowStateReport FlowState = "REPORT"
)

// ExamSession is the crash-recovery unit: the complete in-progress exam
// state persisted on every tick and every answer edit. Exactly one session
// may exist per roll number at a time.
type ExamSession struct {
	Questions        []Question      `json:"questions"`
	Answers          []AnswerRecord  `json:"answers"`
	SecondsRemaining int             `json:"seconds_remaining"`
	Student          StudentIdentity `json:"student"`
	Spec             AssessmentSpec  `json:"spec"`
}

var errSessionShape = errors.New("session shape invalid")

// Validate checks the structural invariants a loadable session must hold.
// A persisted session failing these checks is treated as corrupt.
func (s *ExamSession) Validate() error {
	if len(s.Questions) == 0 {
		return fmt.Errorf("%w: no questions", errSessionShape)
	}
	if len(s.Questions) != len(s.Answers) {
		return fmt.Errorf("%w: %d questions vs %d answers", errSessionShape, len(s.Questions), len(s.Answers))
	}
	if s.SecondsRemaining < 0 {
		return fmt.Errorf("%w: negative seconds remaining", errSessionShape)
	}
	if s.Student.RollNo == "" {
		return fmt.Errorf("%w: missing roll number", errSessionShape)
	}
	return nil
}

// Clone returns a deep copy safe to hand outside the owning flow's lock.
func (s *ExamSession) Clone() *ExamSession {
	cp := *s
	cp.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		cp.Questions[i] = q
		if q.Options != nil {
			cp.Questions[i].Options = append([]string(nil), q.Options...)
		}
	}
	cp.Answers = append([]AnswerRecord(nil), s.Answers...)
	cp.Spec.Languages = append([]Language(nil), s.Spec.Languages...)
	return &cp
}

// AnsweredCount reports how many answers are non-empty.
func (s *ExamSession) AnsweredCount() int {
	n := 0
	for _, a := range s.Answers {
		if a.Response != "" {
			n++
		}
	}
	return n
}

// ResumableSummary describes a persisted session offered for resumption.
type ResumableSummary struct {
	Subject          string `json:"subject"`
	Chapter          string `json:"chapter"`
	ExamType         string `json:"exam_type"`
	QuestionCount    int    `json:"question_count"`
	AnsweredCount    int    `json:"answered_count"`
	SecondsRemaining int    `json:"seconds_remaining"`
}

// Summary builds the resume-prompt view of a persisted session.
func (s *ExamSession) Summary() *ResumableSummary {
	return &ResumableSummary{
		Subject:          s.Spec.Subject,
		Chapter:          s.Spec.Chapter,
		ExamType:         string(s.Spec.ExamType),
		QuestionCount:    len(s.Questions),
		AnsweredCount:    s.AnsweredCount(),
		SecondsRemaining: s.SecondsRemaining,
	}
}
