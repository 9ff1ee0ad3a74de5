package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/taleemlabs/taleem-backend/internal/middleware"
	"github.com/taleemlabs/taleem-backend/internal/model"
	"github.com/taleemlabs/taleem-backend/internal/response"
	"github.com/taleemlabs/taleem-backend/internal/service"
	"github.com/taleemlabs/taleem-backend/internal/validator"
)

// ExamHandler maps the exam flow state machine onto the REST surface.
type ExamHandler struct {
	flow *service.ExamFlowService
	log  zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(flow *service.ExamFlowService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		flow: flow,
		log:  log.With().Str("component", "exam_handler").Logger(),
	}
}

// GetState godoc
// GET /api/v1/exam
// Returns the flow snapshot, including a resumable-session summary in Setup.
func (h *ExamHandler) GetState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	snap, err := h.flow.State(c.Request.Context(), claims.Student.RollNo)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, snap)
}

// Start godoc
// POST /api/v1/exam/start
// Generates a paper and enters Taking. Fails without side effects if the
// paper is empty or the collaborator is unreachable.
func (h *ExamHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.StartExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.flow.Start(c.Request.Context(), claims.Student, req.Spec())
	if err != nil {
		h.failFlow(c, err)
		return
	}
	response.Success(c, http.StatusCreated, snap)
}

// Resume godoc
// POST /api/v1/exam/resume
// Re-enters Taking with the persisted questions, answers and clock.
func (h *ExamHandler) Resume(c *gin.Context) {
	claims := middleware.GetClaims(c)
	snap, err := h.flow.Resume(c.Request.Context(), claims.Student.RollNo)
	if err != nil {
		h.failFlow(c, err)
		return
	}
	response.Success(c, http.StatusOK, snap)
}

// Discard godoc
// POST /api/v1/exam/discard
// Deletes the persisted session — the explicit "start new" choice.
func (h *ExamHandler) Discard(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.flow.Discard(c.Request.Context(), claims.Student.RollNo); err != nil {
		h.failFlow(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// EditAnswer godoc
// PUT /api/v1/exam/answers/:index
// Replaces the answer at one index in the live buffer.
func (h *ExamHandler) EditAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidIndex)
		return
	}

	var req model.UpdateAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.flow.EditAnswer(c.Request.Context(), claims.Student.RollNo, index, req.Response); err != nil {
		h.failFlow(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"index": index})
}

// RequestSubmit godoc
// POST /api/v1/exam/submit/request
// Opens the submission confirmation and halts the countdown.
func (h *ExamHandler) RequestSubmit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.flow.RequestSubmit(claims.Student.RollNo); err != nil {
		h.failFlow(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// CancelSubmit godoc
// POST /api/v1/exam/submit/cancel
// Closes the confirmation and resumes the countdown.
func (h *ExamHandler) CancelSubmit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.flow.CancelSubmit(claims.Student.RollNo); err != nil {
		h.failFlow(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ConfirmSubmit godoc
// POST /api/v1/exam/submit/confirm
// Performs the Taking → Report transition and grades with the live buffer.
// On grading failure the flow stays in Report with an error payload.
func (h *ExamHandler) ConfirmSubmit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	snap, err := h.flow.ConfirmSubmit(c.Request.Context(), claims.Student.RollNo)
	if err != nil {
		// On grading failure the flow stays in Report with an error
		// payload; GET /exam shows where it landed.
		h.failFlow(c, err)
		return
	}
	response.Success(c, http.StatusOK, snap)
}

// Reset godoc
// POST /api/v1/exam/reset
// Returns the flow from Report to Setup. History is untouched.
func (h *ExamHandler) Reset(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.flow.Reset(c.Request.Context(), claims.Student.RollNo); err != nil {
		h.failFlow(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// GetReport godoc
// GET /api/v1/exam/report
// Returns the current graded report while the flow is in Report.
func (h *ExamHandler) GetReport(c *gin.Context) {
	claims := middleware.GetClaims(c)
	report, err := h.flow.Report(claims.Student.RollNo)
	if err != nil {
		h.failFlow(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"report": report})
}

// failFlow maps service errors onto status codes and typed error codes.
func (h *ExamHandler) failFlow(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExamAlreadyActive):
		response.Fail(c, http.StatusConflict, response.ErrExamAlreadyActive)
	case errors.Is(err, service.ErrExamNotActive):
		response.Fail(c, http.StatusConflict, response.ErrExamNotActive)
	case errors.Is(err, service.ErrResumableSessionExists):
		response.Fail(c, http.StatusConflict, response.ErrResumableExists)
	case errors.Is(err, service.ErrNoResumableSession):
		response.Fail(c, http.StatusNotFound, response.ErrNoResumable)
	case errors.Is(err, service.ErrReportNotReady):
		response.Fail(c, http.StatusConflict, response.ErrReportNotReady)
	case errors.Is(err, service.ErrNoSubmitPending):
		response.Fail(c, http.StatusConflict, response.ErrNoSubmitPending)
	case errors.Is(err, service.ErrGradingFailed):
		response.Fail(c, http.StatusBadGateway, response.ErrGradingFailed)
	case errors.Is(err, service.ErrAnswerIndexOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidIndex)
	case errors.Is(err, model.ErrNoLanguages),
		errors.Is(err, model.ErrUnknownExamType),
		errors.Is(err, model.ErrBadDuration):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"detail": err.Error()})
	case service.IsNoQuestions(err):
		response.Fail(c, http.StatusBadGateway, response.ErrNoQuestions)
	case errors.Is(err, service.ErrGenerationFailed):
		h.log.Error().Err(err).Msg("Generation failed")
		response.Fail(c, http.StatusBadGateway, response.ErrGenerationFailed)
	default:
		h.log.Error().Err(err).Msg("Exam flow error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
