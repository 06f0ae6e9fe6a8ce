package domain

// Action websocket request action
type Action string

const (
	// Authenticate websocket action auth
	Authenticate Action = "auth"

	// FindRoom websocket action find_room
	FindRoom Action = "find_room"
	// LeaveRoom websocket action leave_room
	LeaveRoom Action = "leave_room"

	// SendMessage websocket action send_message
	SendMessage Action = "send_message"

	// SubmitRating websocket action submit_rating
	SubmitRating Action = "submit_rating"

	// GetWords websocket action get_words
	GetWords Action = "get_words"

	// NotifyRoom push action notify_room
	NotifyRoom Action = "notify_room"
	// NotifyMessages push action notify_messages
	NotifyMessages Action = "notify_messages"
	// NotifyReset push action notify_reset
	NotifyReset Action = "notify_reset"
)

// WSRequest websocket Request
type WSRequest struct {
	Action   string  `json:"action"`
	Token    string  `json:"token"`
	RoomID   string  `json:"room_id"`
	Content  string  `json:"content"`
	Feedback float64 `json:"feedback"`
	Target   string  `json:"target"`
}

// WSResponse websocket Response
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}
