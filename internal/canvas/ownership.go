package canvas

import "github.com/google/uuid"

// EventKind is an ownership-protocol action on one sticker.
type EventKind string

const (
	// EventAdd places a new sticker on the canvas, unowned.
	EventAdd EventKind = "add"

	// EventClaim acquires exclusive mutation rights (drag/resize begin).
	EventClaim EventKind = "claim"

	// EventMutate moves or resizes a held sticker.
	EventMutate EventKind = "mutate"

	// EventRelease relinquishes ownership (drag end / deselect).
	EventRelease EventKind = "release"

	// EventDelete removes the sticker.
	EventDelete EventKind = "delete"
)

// Event is one requested transition of one sticker, local or remote.
// Every participant runs incoming events through the same guards, which
// is what makes re-applying an already-applied event a no-op.
type Event struct {
	Kind      EventKind `msgpack:"kind" json:"kind"`
	StickerID uuid.UUID `msgpack:"stickerId" json:"stickerId"`
	Actor     string    `msgpack:"actor" json:"actor"`
	ImageURL  string    `msgpack:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Frame     *Rect     `msgpack:"frame,omitempty" json:"frame,omitempty"`
}

// accepted is the pure decision function of the ownership protocol: may
// actor P apply this event to a sticker currently owned by s.Owner?
// Rejections are not errors, just stale or losing updates.
func accepted(s *Sticker, ev Event) bool {
	switch ev.Kind {
	case EventClaim:
		return s.Owner == ""
	case EventMutate, EventRelease:
		return s.Owner == ev.Actor
	case EventDelete:
		return s.Owner == ev.Actor || s.Owner == ""
	default:
		return false
	}
}
