package relay

import "encoding/json"

// Message defines the structure for all C2S (Client to Server)
// and S2C (Server to Client) websocket messages.
type Message struct {
	Type     string          `json:"type"`
	RoomID   string          `json:"room_id,omitempty"`
	SenderID string          `json:"sender_id,omitempty"`
	TargetID string          `json:"target_id,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`

	// client is the connection that sent the message.
	// It's used internally by the Hub and not sent over JSON.
	client *Client `json:"-"`
}

// Message type constants.
const (
	MessageTypeCreateRoom = "create_room"
	MessageTypeJoinRoom   = "join_room"
	MessageTypeLeaveRoom  = "leave_room"
	MessageTypeSignal     = "signal"

	MessageTypeRoomCreated = "room_created"
	MessageTypeJoinSuccess = "join_success"
	MessageTypePeerJoined  = "peer_joined"
	MessageTypePeerLeft    = "peer_left"
	MessageTypeError       = "error"
)

// JoinSuccessPayload carries the member list an accepted joiner needs
// to start negotiating with everyone already in the room.
type JoinSuccessPayload struct {
	Members []string `json:"members"`
}

// PeerPayload identifies the participant a peer_joined/peer_left event is about.
type PeerPayload struct {
	ParticipantID string `json:"participant_id"`
}

// ErrorPayload carries error messages to clients.
type ErrorPayload struct {
	Error string `json:"error"`
}
