package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionState    Action = "state"
	ActionPing     Action = "ping"
)

// RequestEnvelope carries every client action; unused fields are zero.
type RequestEnvelope struct {
	Action Action `json:"action"`
	Index  int    `json:"index"`
	Answer string `json:"ans"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError Event = "error"
	EventSaved Event = "saved"
	EventState Event = "state"
	EventPong  Event = "pong"
)

// SavedResponse acknowledges an autosave.
type SavedResponse struct {
	Event Event `json:"event"`
	Index int   `json:"index"`
}

// StateResponse is the periodic flow snapshot pushed once per second and
// on demand.
type StateResponse struct {
	Event            Event  `json:"event"`
	State            string `json:"state"`
	SecondsRemaining int    `json:"seconds_remaining"`
	AnsweredCount    int    `json:"answered_count"`
	ConfirmPending   bool   `json:"confirm_pending"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
