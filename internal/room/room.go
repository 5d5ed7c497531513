package room

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/snapgather/snapgather/internal/signaling"
)

// ErrRoomJoinRejected is surfaced once at join time, e.g. for an unknown
// room ID. It is fatal to that join attempt only.
var ErrRoomJoinRejected = errors.New("room join rejected")

// ErrRelayTimeout means the relay did not answer a lifecycle request.
var ErrRelayTimeout = errors.New("relay timed out")

const lifecycleTimeout = 15 * time.Second

// Create asks the relay for a fresh room with the local participant as its
// first member and returns the new room ID.
func Create(client *signaling.Client, handler *signaling.Handler, localID string) (string, error) {
	client.SendMessage(&signaling.Message{
		Type:     signaling.MessageTypeCreateRoom,
		SenderID: localID,
	})

	select {
	case roomID := <-handler.RoomCreated:
		return roomID, nil
	case errMsg := <-handler.Error:
		return "", fmt.Errorf("create room: %s", errMsg)
	case <-handler.Disconnected:
		return "", fmt.Errorf("create room: relay connection closed")
	case <-time.After(lifecycleTimeout):
		return "", fmt.Errorf("create room: %w", ErrRelayTimeout)
	}
}

// Join enters an existing room and returns the participants already in it.
func Join(client *signaling.Client, handler *signaling.Handler, localID, roomID string) ([]string, error) {
	client.SendMessage(&signaling.Message{
		Type:     signaling.MessageTypeJoinRoom,
		RoomID:   roomID,
		SenderID: localID,
	})

	select {
	case members := <-handler.JoinSuccess:
		return members, nil
	case errMsg := <-handler.Error:
		return nil, fmt.Errorf("%w: %s", ErrRoomJoinRejected, errMsg)
	case <-handler.Disconnected:
		return nil, fmt.Errorf("join room: relay connection closed")
	case <-time.After(lifecycleTimeout):
		return nil, fmt.Errorf("join room: %w", ErrRelayTimeout)
	}
}

// Leave tells the relay the local participant is gone. Best-effort; the
// relay also notices the websocket closing.
func Leave(client *signaling.Client, localID string) {
	client.SendMessage(&signaling.Message{
		Type:     signaling.MessageTypeLeaveRoom,
		SenderID: localID,
	})
}

// ParseInput accepts either a bare room ID or a full share link of the
// form https://<domain>/r/<roomID>.
func ParseInput(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("empty room ID")
	}

	if strings.Contains(input, "://") {
		u, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("invalid room link: %w", err)
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) != 2 || parts[0] != "r" || parts[1] == "" {
			return "", fmt.Errorf("invalid room link: %s", input)
		}
		return parts[1], nil
	}

	return input, nil
}
