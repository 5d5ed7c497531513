package relay

// Room is the live set of connected participants sharing one canvas session.
// All access happens on the hub goroutine; no locking here.
type Room struct {
	// ID is the unique, unguessable identifier for the room. Possession
	// of the ID is the only access control.
	ID string

	// Members maps participant IDs to their connections.
	Members map[string]*Client
}

// NewRoom creates an empty room.
func NewRoom(id string) *Room {
	return &Room{
		ID:      id,
		Members: make(map[string]*Client),
	}
}

// MemberIDs returns the participant IDs currently in the room.
func (r *Room) MemberIDs() []string {
	ids := make([]string, 0, len(r.Members))
	for id := range r.Members {
		ids = append(ids, id)
	}
	return ids
}

// Others returns every member except the named participant.
func (r *Room) Others(participantID string) []*Client {
	others := make([]*Client, 0, len(r.Members))
	for id, member := range r.Members {
		if id != participantID {
			others = append(others, member)
		}
	}
	return others
}

// IsEmpty reports whether the room has no members left.
func (r *Room) IsEmpty() bool {
	return len(r.Members) == 0
}
