package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taleemlabs/taleem-backend/internal/middleware"
	"github.com/taleemlabs/taleem-backend/internal/model"
	"github.com/taleemlabs/taleem-backend/internal/response"
	"github.com/taleemlabs/taleem-backend/internal/service"
	"github.com/taleemlabs/taleem-backend/internal/validator"
)

// AuthHandler handles identity registration and profile endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterSession godoc
// POST /api/v1/auth/session
// Registers a self-asserted student identity and returns a session token.
// Registering the same roll number again supersedes the previous session.
func (h *AuthHandler) RegisterSession(c *gin.Context) {
	var req model.RegisterStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student := req.Identity()
	token, err := h.authService.RegisterStudent(c.Request.Context(), student)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, model.StudentSessionResponse{
		Token:   token,
		Student: student,
	})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the identity carried by the presented token.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": claims.Student})
}
