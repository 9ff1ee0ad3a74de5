package config

import (
	"fmt"
)

type StoreKeyStruct struct{}

func NewStoreKeyStruct() *StoreKeyStruct {
	return &StoreKeyStruct{}
}

// InProgressExamKey returns the durable-store key for a student's
// in-progress exam session. Absent when no exam is active.
func (r *StoreKeyStruct) InProgressExamKey(rollNo string) string {
	return fmt.Sprintf("inProgressExam:%s", rollNo)
}

// ExamHistoryKey returns the durable-store key for a student's graded
// report history (newest first, capped).
func (r *StoreKeyStruct) ExamHistoryKey(rollNo string) string {
	return fmt.Sprintf("examHistory:%s", rollNo)
}

// StudentSessionKey returns the durable-store key holding the JTI of a
// student's active auth session.
func (r *StoreKeyStruct) StudentSessionKey(rollNo string) string {
	return fmt.Sprintf("studentSession:%s", rollNo)
}

var StoreKey = NewStoreKeyStruct()
