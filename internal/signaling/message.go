package signaling

import "encoding/json"

// Message represents all WebSocket messages between client and relay.
type Message struct {
	Type     string          `json:"type"`
	RoomID   string          `json:"room_id,omitempty"`
	SenderID string          `json:"sender_id,omitempty"`
	TargetID string          `json:"target_id,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
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

// JoinSuccessPayload lists the participants already in a joined room.
type JoinSuccessPayload struct {
	Members []string `json:"members"`
}

// PeerPayload identifies the participant a peer_joined/peer_left event is about.
type PeerPayload struct {
	ParticipantID string `json:"participant_id"`
}

// ErrorPayload represents error messages from the relay.
type ErrorPayload struct {
	Error string `json:"error"`
}
