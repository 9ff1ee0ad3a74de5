package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds each frame write. State snapshots go out once per
	// second, so a client that cannot drain a frame within this window is
	// effectively gone and the pusher should find out quickly.
	writeWait = 5 * time.Second

	// readWait bounds the gap between client frames. Students only send
	// on autosave, ping or an explicit state request, and a long exam can
	// legitimately sit untouched; the deadline is sized past the longest
	// exam duration (60 min) plus the confirmation pause.
	readWait = 75 * time.Minute
)

// WriteTyped sends a strongly-typed event payload over the exam stream.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the exam stream.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// ReadJSON reads and decodes the next client action, refreshing the read
// deadline first.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(readWait))
	return conn.ReadJSON(v)
}
