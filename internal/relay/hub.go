package relay

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
)

// Hub is the room registry and relay. It manages all active rooms and
// routes signaling envelopes between their members without ever
// inspecting the payloads.
type Hub struct {
	// rooms maps room IDs to Room instances.
	Rooms map[string]*Room

	// Register is a channel for registering new client connections.
	Register chan *Client

	// Unregister is a channel for unregistering client connections.
	Unregister chan *Client

	// Inbound carries every message read off a client connection.
	Inbound chan *Message
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]*Room),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan *Message),
	}
}

// generateRoomID creates a random, memorable room ID.
// Format: adjective-animal-scenery-xxxxxxxx (e.g. "sunny-otter-lagoon-9f2c41aa").
// The room ID is the sole access control, so the hex suffix carries the
// entropy; the words only make links nicer to read aloud.
func (h *Hub) generateRoomID() string {
	for {
		suffix := make([]byte, 4)
		if _, err := rand.Read(suffix); err != nil {
			panic(fmt.Sprintf("relay: failed to read random bytes: %v", err))
		}

		id := fmt.Sprintf("%s-%s-%s-%s",
			adjectives[randomIndex(len(adjectives))],
			animals[randomIndex(len(animals))],
			scenery[randomIndex(len(scenery))],
			hex.EncodeToString(suffix),
		)

		if _, ok := h.Rooms[id]; !ok {
			return id
		}
	}
}

// randomIndex returns a cryptographically secure random index for a slice of given length.
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(fmt.Sprintf("relay: failed to generate random index: %v", err))
	}
	return int(n.Int64())
}

// Run starts the hub's main processing loop.
// This is the single goroutine that safely manages all state (rooms, members),
// so room membership is never iterated while it is being mutated.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			// The connection is not in a room yet. It needs to send a
			// create_room or join_room message first.
			slog.Debug("client registered", "remote", client.Conn.RemoteAddr())

		case client := <-h.Unregister:
			h.removeFromRoom(client)
			close(client.Send)

		case message := <-h.Inbound:
			h.handleMessage(message)
		}
	}
}

func (h *Hub) handleMessage(message *Message) {
	switch message.Type {
	case MessageTypeCreateRoom:
		h.handleCreateRoom(message)

	case MessageTypeJoinRoom:
		h.handleJoinRoom(message)

	case MessageTypeSignal:
		h.handleSignal(message)

	case MessageTypeLeaveRoom:
		h.removeFromRoom(message.client)

	default:
		// Unknown types are rejected, not dropped: silently ignoring them
		// would mask protocol-version mismatches.
		slog.Warn("unknown message type", "type", message.Type)
		message.client.Send <- errorMessage(fmt.Sprintf("unknown message type: %q", message.Type))
	}
}

func (h *Hub) handleCreateRoom(message *Message) {
	message.client.ParticipantID = message.SenderID

	roomID := h.generateRoomID()
	room := NewRoom(roomID)
	room.Members[message.SenderID] = message.client
	h.Rooms[roomID] = room
	message.client.RoomID = roomID

	slog.Info("room created", "room", roomID, "participant", message.SenderID)

	message.client.Send <- &Message{
		Type:   MessageTypeRoomCreated,
		RoomID: roomID,
	}
}

func (h *Hub) handleJoinRoom(message *Message) {
	room, ok := h.Rooms[message.RoomID]
	if !ok {
		slog.Info("room join rejected", "room", message.RoomID)
		message.client.Send <- errorMessage("room not found")
		return
	}

	message.client.ParticipantID = message.SenderID

	// The joiner learns who is already here; everyone already here learns
	// about the joiner. Negotiation is the clients' business from there.
	existing := room.MemberIDs()
	room.Members[message.SenderID] = message.client
	message.client.RoomID = room.ID

	slog.Info("participant joined", "room", room.ID, "participant", message.SenderID)

	joined, _ := json.Marshal(PeerPayload{ParticipantID: message.SenderID})
	for _, member := range room.Others(message.SenderID) {
		member.Send <- &Message{
			Type:    MessageTypePeerJoined,
			Payload: joined,
		}
	}

	members, _ := json.Marshal(JoinSuccessPayload{Members: existing})
	message.client.Send <- &Message{
		Type:    MessageTypeJoinSuccess,
		RoomID:  room.ID,
		Payload: members,
	}
}

// handleSignal relays an opaque signaling envelope. Delivery is best-effort,
// at-most-once: a target that already left is a silent no-op.
func (h *Hub) handleSignal(message *Message) {
	roomID := message.client.RoomID
	if roomID == "" {
		message.client.Send <- errorMessage("you must join a room first")
		return
	}

	room, ok := h.Rooms[roomID]
	if !ok {
		message.client.Send <- errorMessage("room not found")
		return
	}

	relayed := &Message{
		Type:     MessageTypeSignal,
		SenderID: message.client.ParticipantID,
		TargetID: message.TargetID,
		Payload:  message.Payload,
	}

	if message.TargetID != "" {
		if target, ok := room.Members[message.TargetID]; ok {
			target.Send <- relayed
		}
		return
	}

	for _, member := range room.Others(message.client.ParticipantID) {
		member.Send <- relayed
	}
}

// removeFromRoom takes a client out of its room, notifies the remaining
// members, and deletes the room once it is empty.
func (h *Hub) removeFromRoom(client *Client) {
	if client.RoomID == "" {
		return
	}

	room, ok := h.Rooms[client.RoomID]
	if !ok {
		client.RoomID = ""
		return
	}

	delete(room.Members, client.ParticipantID)
	client.RoomID = ""

	if room.IsEmpty() {
		delete(h.Rooms, room.ID)
		slog.Info("room deleted", "room", room.ID)
		return
	}

	slog.Info("participant left", "room", room.ID, "participant", client.ParticipantID)

	left, _ := json.Marshal(PeerPayload{ParticipantID: client.ParticipantID})
	for _, member := range room.Members {
		member.Send <- &Message{
			Type:    MessageTypePeerLeft,
			Payload: left,
		}
	}
}

func errorMessage(text string) *Message {
	payload, _ := json.Marshal(ErrorPayload{Error: text})
	return &Message{
		Type:    MessageTypeError,
		Payload: payload,
	}
}
