package canvas

import (
	"testing"

	"github.com/google/uuid"
)

func addSticker(t *testing.T, c *Canvas) uuid.UUID {
	t.Helper()
	id := uuid.New()
	frame := Rect{X: 10, Y: 10, W: 80, H: 80}
	if !c.Apply(Event{Kind: EventAdd, StickerID: id, Actor: "alice", ImageURL: "https://img/star.png", Frame: &frame}) {
		t.Fatal("add of a fresh sticker must be accepted")
	}
	return id
}

func TestClaimOnlyWhenUnowned(t *testing.T) {
	c := New()
	id := addSticker(t, c)

	if !c.Apply(Event{Kind: EventClaim, StickerID: id, Actor: "alice"}) {
		t.Fatal("claim of an unowned sticker must be accepted")
	}
	if c.Apply(Event{Kind: EventClaim, StickerID: id, Actor: "bob"}) {
		t.Error("claim of a held sticker must be rejected")
	}

	sticker, _ := c.Get(id)
	if sticker.Owner != "alice" {
		t.Errorf("expected owner alice, got %q", sticker.Owner)
	}
}

func TestMutateRequiresOwnership(t *testing.T) {
	c := New()
	id := addSticker(t, c)
	c.Apply(Event{Kind: EventClaim, StickerID: id, Actor: "alice"})

	moved := Rect{X: 50, Y: 60, W: 80, H: 80}
	if c.Apply(Event{Kind: EventMutate, StickerID: id, Actor: "bob", Frame: &moved}) {
		t.Error("mutate without ownership must be silently dropped")
	}
	if !c.Apply(Event{Kind: EventMutate, StickerID: id, Actor: "alice", Frame: &moved}) {
		t.Error("mutate by the owner must be accepted")
	}

	sticker, _ := c.Get(id)
	if sticker.Frame != moved {
		t.Errorf("expected frame %+v, got %+v", moved, sticker.Frame)
	}
}

func TestReleaseRequiresOwnership(t *testing.T) {
	c := New()
	id := addSticker(t, c)
	c.Apply(Event{Kind: EventClaim, StickerID: id, Actor: "alice"})

	if c.Apply(Event{Kind: EventRelease, StickerID: id, Actor: "bob"}) {
		t.Error("release by a non-owner must be rejected")
	}
	if !c.Apply(Event{Kind: EventRelease, StickerID: id, Actor: "alice"}) {
		t.Error("release by the owner must be accepted")
	}

	sticker, _ := c.Get(id)
	if sticker.Owner != "" {
		t.Errorf("expected unowned sticker after release, got %q", sticker.Owner)
	}
}

func TestDeleteWhenOwnerOrFree(t *testing.T) {
	c := New()
	id := addSticker(t, c)
	c.Apply(Event{Kind: EventClaim, StickerID: id, Actor: "alice"})

	if c.Apply(Event{Kind: EventDelete, StickerID: id, Actor: "bob"}) {
		t.Error("delete of someone else's held sticker must be rejected")
	}
	if !c.Apply(Event{Kind: EventDelete, StickerID: id, Actor: "alice"}) {
		t.Error("delete by the owner must be accepted")
	}

	// A free sticker may be deleted by anyone.
	free := addSticker(t, c)
	if !c.Apply(Event{Kind: EventDelete, StickerID: free, Actor: "bob"}) {
		t.Error("delete of an unowned sticker must be accepted")
	}
}

// Owner is "" or exactly one participant at every step: it never moves
// from one non-empty owner to a different one without passing through "".
func TestOwnershipInvariant(t *testing.T) {
	c := New()
	id := addSticker(t, c)

	events := []Event{
		{Kind: EventClaim, StickerID: id, Actor: "alice"},
		{Kind: EventClaim, StickerID: id, Actor: "bob"},
		{Kind: EventRelease, StickerID: id, Actor: "bob"},
		{Kind: EventClaim, StickerID: id, Actor: "alice"},
		{Kind: EventRelease, StickerID: id, Actor: "alice"},
		{Kind: EventClaim, StickerID: id, Actor: "bob"},
		{Kind: EventClaim, StickerID: id, Actor: "carol"},
	}

	previousOwner := ""
	for i, ev := range events {
		c.Apply(ev)
		sticker, ok := c.Get(id)
		if !ok {
			t.Fatalf("step %d: sticker vanished", i)
		}
		if sticker.Owner != "" && previousOwner != "" && sticker.Owner != previousOwner {
			t.Fatalf("step %d: owner jumped %q -> %q without passing through none",
				i, previousOwner, sticker.Owner)
		}
		previousOwner = sticker.Owner
	}
}

// Re-applying an already-applied remote event produces no further change:
// the guards re-check owner, so duplicates are absorbed.
func TestIdempotentReapplication(t *testing.T) {
	c := New()
	id := addSticker(t, c)

	claim := Event{Kind: EventClaim, StickerID: id, Actor: "alice"}
	if !c.Apply(claim) {
		t.Fatal("first claim must be accepted")
	}
	before, _ := c.Get(id)

	if c.Apply(claim) {
		t.Error("re-applied claim must be a no-op")
	}
	after, _ := c.Get(id)
	if before != after {
		t.Errorf("state changed on re-application: %+v -> %+v", before, after)
	}

	release := Event{Kind: EventRelease, StickerID: id, Actor: "alice"}
	if !c.Apply(release) {
		t.Fatal("release must be accepted")
	}
	if c.Apply(release) {
		t.Error("re-applied release must be a no-op")
	}
}

// Participant A claims, moves, releases; B's claim before the release
// loses, B's claim after the release wins.
func TestClaimMoveReleaseHandoff(t *testing.T) {
	c := New()
	id := addSticker(t, c)

	if !c.Apply(Event{Kind: EventClaim, StickerID: id, Actor: "A"}) {
		t.Fatal("A's claim of the fresh sticker must win")
	}

	// B tries while A still holds it.
	if c.Apply(Event{Kind: EventClaim, StickerID: id, Actor: "B"}) {
		t.Fatal("B's claim before A's release must be rejected")
	}

	moved := Rect{X: 120, Y: 40, W: 80, H: 80}
	if !c.Apply(Event{Kind: EventMutate, StickerID: id, Actor: "A", Frame: &moved}) {
		t.Fatal("A's move while holding must be accepted")
	}
	if !c.Apply(Event{Kind: EventRelease, StickerID: id, Actor: "A"}) {
		t.Fatal("A's release must be accepted")
	}

	if !c.Apply(Event{Kind: EventClaim, StickerID: id, Actor: "B"}) {
		t.Fatal("B's claim after A's release must be accepted")
	}

	sticker, _ := c.Get(id)
	if sticker.Owner != "B" {
		t.Errorf("expected owner B, got %q", sticker.Owner)
	}
	if sticker.Frame != moved {
		t.Errorf("expected frame %+v to survive the handoff, got %+v", moved, sticker.Frame)
	}
}

func TestEventsOnUnknownStickerAreDropped(t *testing.T) {
	c := New()
	ghost := uuid.New()

	for _, kind := range []EventKind{EventClaim, EventMutate, EventRelease, EventDelete} {
		if c.Apply(Event{Kind: kind, StickerID: ghost, Actor: "alice"}) {
			t.Errorf("%s on an unknown sticker must be dropped", kind)
		}
	}
}
