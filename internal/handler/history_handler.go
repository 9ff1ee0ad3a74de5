package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/taleemlabs/taleem-backend/internal/middleware"
	"github.com/taleemlabs/taleem-backend/internal/model"
	"github.com/taleemlabs/taleem-backend/internal/repository"
	"github.com/taleemlabs/taleem-backend/internal/response"
	"github.com/taleemlabs/taleem-backend/internal/service"
)

// HistoryHandler serves the graded report ledger, its statistics, and the
// PostgreSQL archive.
type HistoryHandler struct {
	history *service.HistoryService
	archive *repository.ArchiveRepository
	log     zerolog.Logger
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(history *service.HistoryService, archive *repository.ArchiveRepository, log zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		archive: archive,
		log:     log.With().Str("component", "history_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/history
// Returns the capped ledger, newest first.
func (h *HistoryHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	reports, err := h.history.List(c.Request.Context(), claims.Student.RollNo)
	if err != nil {
		h.log.Error().Err(err).Msg("History load failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if reports == nil {
		reports = []model.GradedReport{}
	}
	response.Success(c, http.StatusOK, gin.H{"reports": reports})
}

// Stats godoc
// GET /api/v1/history/stats
// Returns weakest subject and the chronological performance trend.
func (h *HistoryHandler) Stats(c *gin.Context) {
	claims := middleware.GetClaims(c)
	stats, err := h.history.Stats(c.Request.Context(), claims.Student.RollNo)
	if err != nil {
		h.log.Error().Err(err).Msg("History stats failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// Archive godoc
// GET /api/v1/history/archive?page=1&per_page=20
// Returns archived reports from PostgreSQL, paginated, newest first.
func (h *HistoryHandler) Archive(c *gin.Context) {
	claims := middleware.GetClaims(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	reports, total, err := h.archive.ListByRollNo(c.Request.Context(), claims.Student.RollNo, perPage, (page-1)*perPage)
	if err != nil {
		h.log.Error().Err(err).Msg("Archive list failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"reports": reports},
		response.NewPagination(page, perPage, total))
}
