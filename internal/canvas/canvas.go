package canvas

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Canvas is one participant's local copy of the shared sticker set. All
// mutation goes through Apply, whose guard-then-mutate step is atomic per
// entity with respect to other local goroutines: exactly one goroutine
// path mutates a given sticker's owner or frame at a time. There is no
// global lock across participants; convergence is eventual.
type Canvas struct {
	mu       sync.Mutex
	stickers map[uuid.UUID]*Sticker
}

// New creates an empty canvas.
func New() *Canvas {
	return &Canvas{stickers: make(map[uuid.UUID]*Sticker)}
}

// Apply runs one event, local or remote, through the ownership guards and
// mutates the local copy if accepted. The caller broadcasts accepted
// *local* events; accepted remote events are applied silently. Returns
// whether the event was accepted.
func (c *Canvas) Apply(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	sticker, exists := c.stickers[ev.StickerID]

	if ev.Kind == EventAdd {
		if exists {
			// Re-applying an add is a no-op.
			return false
		}
		added := &Sticker{ID: ev.StickerID, ImageURL: ev.ImageURL}
		if ev.Frame != nil {
			added.Frame = *ev.Frame
		}
		c.stickers[ev.StickerID] = added
		return true
	}

	if !exists || !accepted(sticker, ev) {
		return false
	}

	switch ev.Kind {
	case EventClaim:
		sticker.Owner = ev.Actor
	case EventMutate:
		if ev.Frame != nil {
			sticker.Frame = *ev.Frame
		}
	case EventRelease:
		sticker.Owner = ""
	case EventDelete:
		delete(c.stickers, ev.StickerID)
	}
	return true
}

// Get returns a copy of one sticker.
func (c *Canvas) Get(id uuid.UUID) (Sticker, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sticker, ok := c.stickers[id]
	if !ok {
		return Sticker{}, false
	}
	return *sticker, true
}

// Snapshot returns a stable copy of the full sticker set, used to answer
// snapshot requests from participants who joined mid-session.
func (c *Canvas) Snapshot() []Sticker {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]Sticker, 0, len(c.stickers))
	for _, sticker := range c.stickers {
		snapshot = append(snapshot, *sticker)
	}
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].ID.String() < snapshot[j].ID.String()
	})
	return snapshot
}

// Load merges a received snapshot. Stickers already known locally are kept
// as-is: events that raced with the snapshot have already been applied to
// them, and the guards keep re-application idempotent anyway.
func (c *Canvas) Load(stickers []Sticker) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sticker := range stickers {
		if _, exists := c.stickers[sticker.ID]; exists {
			continue
		}
		loaded := sticker
		c.stickers[sticker.ID] = &loaded
	}
}

// Len returns the number of stickers on the canvas.
func (c *Canvas) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stickers)
}
