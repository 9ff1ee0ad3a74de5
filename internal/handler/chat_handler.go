package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/taleemlabs/taleem-backend/internal/llm"
	"github.com/taleemlabs/taleem-backend/internal/model"
	"github.com/taleemlabs/taleem-backend/internal/response"
	"github.com/taleemlabs/taleem-backend/internal/validator"
)

// ChatRequest carries a stateless conversation to stream a reply for.
type ChatRequest struct {
	Messages []llm.ChatMessage `json:"messages" binding:"required,min=1,max=50,dive"`
}

// TranslateRequest asks for a single translation.
type TranslateRequest struct {
	Text           string         `json:"text" binding:"required,max=8000"`
	TargetLanguage model.Language `json:"target_language" binding:"required,examlang"`
}

// ChatHandler wraps the collaborator's chat and translation calls. No
// conversation state is held server-side.
type ChatHandler struct {
	llm *llm.Client
	log zerolog.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(client *llm.Client, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		llm: client,
		log: log.With().Str("component", "chat_handler").Logger(),
	}
}

// Chat godoc
// POST /api/v1/chat
// Streams assistant deltas as SSE events, terminated by a "done" event.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	err := h.llm.ChatStream(c.Request.Context(), req.Messages, func(delta string) error {
		c.SSEvent("delta", delta)
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Chat stream failed")
		c.SSEvent("error", response.GetMessage(response.ErrChatFailed))
		c.Writer.Flush()
		return
	}

	c.SSEvent("done", "")
	c.Writer.Flush()
}

// Translate godoc
// POST /api/v1/translate
// Returns a single translation of the given text.
func (h *ChatHandler) Translate(c *gin.Context) {
	var req TranslateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	translation, err := h.llm.Translate(c.Request.Context(), req.Text, req.TargetLanguage)
	if err != nil {
		h.log.Error().Err(err).Msg("Translation failed")
		response.Fail(c, http.StatusBadGateway, response.ErrTranslationFailed)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"translation": translation})
}
