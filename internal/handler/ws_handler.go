package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/taleemlabs/taleem-backend/internal/middleware"
	"github.com/taleemlabs/taleem-backend/internal/model"
	"github.com/taleemlabs/taleem-backend/internal/service"
	ws "github.com/taleemlabs/taleem-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams exam flow state over WebSocket and accepts autosaves.
type WSHandler struct {
	flow     *service.ExamFlowService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(flow *service.ExamFlowService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		flow:     flow,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// wsConn serializes writes: the state pusher goroutine and the read loop
// both write to the same connection.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteTyped(w.conn, v)
}

// ExamStream godoc
// WS /ws/v1/exam?token=...
// Pushes a flow snapshot once per second and on demand; accepts autosave
// and ping actions.
func (h *WSHandler) ExamStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	rollNo := claims.Student.RollNo

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wc := &wsConn{conn: conn}
	wsLog := h.log.With().Str("roll_no", rollNo).Logger()
	wsLog.Info().Msg("Student connected")

	// State pusher: one snapshot per second until the read loop exits.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := wc.write(h.snapshot(rollNo)); err != nil {
					return
				}
			}
		}
	}()

	for {
		var msg ws.RequestEnvelope
		err := ws.ReadJSON(conn, &msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionAutosave:
			h.handleAutosave(wc, rollNo, &msg)
		case ws.ActionState:
			_ = wc.write(h.snapshot(rollNo))
		case ws.ActionPing:
			_ = wc.write(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = wc.write(ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(msg.Action)})
		}
	}
}

// handleAutosave routes a WS answer edit through the same service method
// as the REST edit.
func (h *WSHandler) handleAutosave(wc *wsConn, rollNo string, msg *ws.RequestEnvelope) {
	if err := h.flow.EditAnswer(context.Background(), rollNo, msg.Index, msg.Answer); err != nil {
		_ = wc.write(ws.ErrorResponse{Event: ws.EventError, Error: err.Error()})
		return
	}
	_ = wc.write(ws.SavedResponse{Event: ws.EventSaved, Index: msg.Index})
}

func (h *WSHandler) snapshot(rollNo string) ws.StateResponse {
	resp := ws.StateResponse{Event: ws.EventState}
	snap, err := h.flow.State(context.Background(), rollNo)
	if err != nil {
		resp.State = string(model.FlowStateSetup)
		return resp
	}
	resp.State = string(snap.State)
	resp.ConfirmPending = snap.ConfirmPending
	if snap.Session != nil {
		resp.SecondsRemaining = snap.Session.SecondsRemaining
		resp.AnsweredCount = snap.Session.AnsweredCount()
	}
	return resp
}
