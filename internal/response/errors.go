package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidIndex   ErrCode = "INVALID_ANSWER_INDEX"

	// ─── Exam flow ─────────────────────────────────────────────────────
	ErrExamNotActive     ErrCode = "EXAM_NOT_ACTIVE"
	ErrExamAlreadyActive ErrCode = "EXAM_ALREADY_ACTIVE"
	ErrResumableExists   ErrCode = "RESUMABLE_SESSION_EXISTS"
	ErrNoResumable       ErrCode = "NO_RESUMABLE_SESSION"
	ErrReportNotReady    ErrCode = "REPORT_NOT_READY"
	ErrNoSubmitPending   ErrCode = "NO_SUBMIT_PENDING"
	ErrGenerationFailed  ErrCode = "GENERATION_FAILED"
	ErrNoQuestions       ErrCode = "NO_QUESTIONS_GENERATED"
	ErrGradingFailed     ErrCode = "GRADING_FAILED"

	// ─── Collaborator wrappers ─────────────────────────────────────────
	ErrChatFailed        ErrCode = "CHAT_FAILED"
	ErrTranslationFailed ErrCode = "TRANSLATION_FAILED"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrSessionInvalidated:
		return "Your session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "The request payload is invalid."
	case ErrInvalidIndex:
		return "The answer index is out of range."

	// ─── Exam flow ─────────────────────────────────────────────────────
	case ErrExamNotActive:
		return "No exam is currently in progress."
	case ErrExamAlreadyActive:
		return "An exam is already in progress."
	case ErrResumableExists:
		return "An unfinished exam exists. Resume it or discard it before starting a new one."
	case ErrNoResumable:
		return "There is no unfinished exam to resume."
	case ErrReportNotReady:
		return "No graded report is available yet."
	case ErrNoSubmitPending:
		return "There is no submission confirmation to act on."
	case ErrGenerationFailed:
		return "The exam could not be generated. Please try again."
	case ErrNoQuestions:
		return "No questions were generated for this exam. Please try again."
	case ErrGradingFailed:
		return "The exam could not be graded. Your answers were submitted but no report is available."

	// ─── Collaborator wrappers ─────────────────────────────────────────
	case ErrChatFailed:
		return "The chat request failed. Please try again."
	case ErrTranslationFailed:
		return "The translation request failed. Please try again."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The resource was not found."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
