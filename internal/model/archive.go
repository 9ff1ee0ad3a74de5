package model

// ArchivePayload is the queue message carrying a graded report from the
// exam flow to the archive worker.
type ArchivePayload struct {
	RollNo string       `json:"roll_no"`
	Report GradedReport `json:"report"`
}
