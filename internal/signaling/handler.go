package signaling

import (
	"encoding/json"
	"errors"
	"log/slog"
)

// Handler routes incoming relay messages to typed channels.
type Handler struct {
	client       *Client
	RoomCreated  chan string
	JoinSuccess  chan []string
	PeerJoined   chan string
	PeerLeft     chan string
	Envelopes    chan Envelope
	Error        chan string
	Disconnected chan struct{}
}

// NewHandler creates a new message handler.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:       client,
		RoomCreated:  make(chan string, 1),
		JoinSuccess:  make(chan []string, 1),
		PeerJoined:   make(chan string, 8),
		PeerLeft:     make(chan string, 8),
		Envelopes:    make(chan Envelope, 32),
		Error:        make(chan string, 1),
		Disconnected: make(chan struct{}),
	}
}

// Start begins listening to incoming messages and routing them. It returns
// when the relay connection drops, which is terminal for the session: there
// is no automatic reconnect, the user rejoins.
func (h *Handler) Start() {
	for msg := range h.client.Incoming() {

		switch msg.Type {

		case MessageTypeRoomCreated:
			h.RoomCreated <- msg.RoomID

		case MessageTypeJoinSuccess:
			h.handleJoinSuccess(msg)

		case MessageTypePeerJoined:
			h.PeerJoined <- h.peerID(msg)

		case MessageTypePeerLeft:
			h.PeerLeft <- h.peerID(msg)

		case MessageTypeSignal:
			h.handleSignal(msg)

		case MessageTypeError:
			h.handleError(msg)

		default:
			slog.Warn("unexpected relay message", "type", msg.Type)
		}
	}

	close(h.Disconnected)
}

func (h *Handler) handleJoinSuccess(msg *Message) {
	var payload JoinSuccessPayload
	if msg.Payload != nil {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			slog.Warn("bad join_success payload", "error", err)
		}
	}
	h.JoinSuccess <- payload.Members
}

func (h *Handler) peerID(msg *Message) string {
	var peer PeerPayload
	if msg.Payload != nil {
		if err := json.Unmarshal(msg.Payload, &peer); err != nil {
			slog.Warn("bad peer payload", "error", err)
		}
	}
	return peer.ParticipantID
}

// handleSignal decodes the negotiation envelope. Malformed envelopes are
// dropped and logged here; they never become peer-connection failures.
func (h *Handler) handleSignal(msg *Message) {
	env, err := Decode(msg.Payload)
	if err != nil {
		if errors.Is(err, ErrMalformedEnvelope) {
			slog.Warn("dropping malformed envelope", "sender", msg.SenderID, "error", err)
			return
		}
		slog.Warn("dropping undecodable signal", "sender", msg.SenderID, "error", err)
		return
	}

	// The relay stamps the sender; trust its stamp over the payload's.
	if msg.SenderID != "" {
		env.SenderID = msg.SenderID
	}

	h.Envelopes <- env
}

func (h *Handler) handleError(msg *Message) {
	var payload ErrorPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Error == "" {
		h.Error <- "unknown error from relay"
		return
	}
	h.Error <- payload.Error
}
