package model

// StudentIdentity identifies a student across sessions. RollNo is the
// durable key for all per-student persisted state (in-progress exam,
// history ledger, auth session); it is self-asserted at registration and
// never checked for uniqueness, so collisions are possible.
type StudentIdentity struct {
	Name       string `json:"name"`
	ClassName  string `json:"class_name"`
	SchoolName string `json:"school_name"`
	RollNo     string `json:"roll_no"`
}

// RegisterStudentRequest is the payload for creating a student session.
// RollNo is restricted to alphanumerics because it is embedded in durable
// store keys.
type RegisterStudentRequest struct {
	Name       string `json:"name" binding:"required,min=2,max=100"`
	ClassName  string `json:"class_name" binding:"required,min=1,max=50"`
	SchoolName string `json:"school_name" binding:"required,min=2,max=100"`
	RollNo     string `json:"roll_no" binding:"required,min=1,max=30,alphanum"`
}

// Identity converts the registration payload into a StudentIdentity.
func (r *RegisterStudentRequest) Identity() StudentIdentity {
	return StudentIdentity{
		Name:       r.Name,
		ClassName:  r.ClassName,
		SchoolName: r.SchoolName,
		RollNo:     r.RollNo,
	}
}

// StudentSessionResponse is returned after successful registration.
type StudentSessionResponse struct {
	Token   string          `json:"token"`
	Student StudentIdentity `json:"student"`
}
