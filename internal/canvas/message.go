package canvas

import "github.com/vmihailenco/msgpack/v5"

// Data-channel message types. These travel peer-to-peer and are opaque to
// the relay.
const (
	MessageTypeCanvasEvent     = "canvas_event"
	MessageTypeSnapshotRequest = "snapshot_request"
	MessageTypeSnapshot        = "snapshot"
	MessageTypeCapture         = "capture"
)

// Message represents all data-channel application messages, each tagged
// with a kind and the originating participant.
type Message struct {
	Type    string             `msgpack:"type"`
	Sender  string             `msgpack:"sender"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// SnapshotPayload answers a snapshot_request with the full sticker set.
type SnapshotPayload struct {
	Stickers []Sticker `msgpack:"stickers"`
}

// CapturePayload schedules a synchronized photo capture.
type CapturePayload struct {
	AtUnixMilli int64 `msgpack:"atUnixMilli"`
}

// NewMessage creates a Message with the given type, sender and payload.
func NewMessage(t, sender string, payload any) (Message, error) {
	body, err := msgpack.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Sender: sender, Payload: body}, nil
}

// DecodePayload decodes the message payload into the provided struct.
func (m Message) DecodePayload(v any) error {
	return msgpack.Unmarshal(m.Payload, v)
}

// EncodeMessage serializes a message for the data channel.
func EncodeMessage(msg Message) ([]byte, error) {
	return msgpack.Marshal(msg)
}

// ParseMessage deserializes a data-channel message.
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := msgpack.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
