package canvas

import "github.com/google/uuid"

// Rect is a sticker's position and size on the shared canvas, in canvas
// coordinates.
type Rect struct {
	X float64 `msgpack:"x" json:"x"`
	Y float64 `msgpack:"y" json:"y"`
	W float64 `msgpack:"w" json:"w"`
	H float64 `msgpack:"h" json:"h"`
}

// Sticker is a shared canvas object. Owner is the single participant
// currently allowed to mutate Frame or delete the sticker; "" means
// free-for-claim. Each participant's local view holds at most one
// non-empty owner at any instant; consistency across the swarm is
// eventual, not instantaneous.
type Sticker struct {
	ID       uuid.UUID `msgpack:"id" json:"id"`
	ImageURL string    `msgpack:"imageUrl" json:"imageUrl"`
	Frame    Rect      `msgpack:"frame" json:"frame"`
	Owner    string    `msgpack:"owner" json:"owner"`
}

// NewSticker creates an unowned sticker ready to be added and broadcast.
func NewSticker(imageURL string, frame Rect) Sticker {
	return Sticker{
		ID:       uuid.New(),
		ImageURL: imageURL,
		Frame:    frame,
	}
}
