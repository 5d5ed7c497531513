package canvas

import (
	"testing"

	"github.com/google/uuid"
)

func TestAddIsIdempotent(t *testing.T) {
	c := New()
	id := uuid.New()
	frame := Rect{X: 1, Y: 2, W: 3, H: 4}

	if !c.Apply(Event{Kind: EventAdd, StickerID: id, Actor: "alice", ImageURL: "https://img/a.png", Frame: &frame}) {
		t.Fatal("first add must be accepted")
	}
	if c.Apply(Event{Kind: EventAdd, StickerID: id, Actor: "bob", ImageURL: "https://img/b.png"}) {
		t.Error("re-add of a known sticker must be a no-op")
	}

	sticker, _ := c.Get(id)
	if sticker.ImageURL != "https://img/a.png" {
		t.Errorf("re-add must not overwrite, got %q", sticker.ImageURL)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 sticker, got %d", c.Len())
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	c := New()
	id := addSticker(t, c)

	snapshot := c.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("expected 1 sticker, got %d", len(snapshot))
	}

	snapshot[0].Owner = "mallory"
	sticker, _ := c.Get(id)
	if sticker.Owner == "mallory" {
		t.Error("mutating a snapshot must not touch the canvas")
	}
}

func TestSnapshotIsStable(t *testing.T) {
	c := New()
	for i := 0; i < 5; i++ {
		addSticker(t, c)
	}

	first := c.Snapshot()
	second := c.Snapshot()
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatal("snapshot ordering is not stable")
		}
	}
}

func TestLoadMergesWithoutClobbering(t *testing.T) {
	c := New()
	known := addSticker(t, c)
	c.Apply(Event{Kind: EventClaim, StickerID: known, Actor: "alice"})

	incoming := []Sticker{
		{ID: known, ImageURL: "https://img/stale.png", Owner: ""},
		{ID: uuid.New(), ImageURL: "https://img/new.png"},
	}
	c.Load(incoming)

	if c.Len() != 2 {
		t.Fatalf("expected 2 stickers after merge, got %d", c.Len())
	}
	sticker, _ := c.Get(known)
	if sticker.Owner != "alice" {
		t.Error("snapshot merge must not clobber local state for known stickers")
	}
}

func TestMessageRoundTrip(t *testing.T) {
	frame := Rect{X: 5, Y: 6, W: 7, H: 8}
	event := Event{Kind: EventMutate, StickerID: uuid.New(), Actor: "alice", Frame: &frame}

	msg, err := NewMessage(MessageTypeCanvasEvent, "alice", event)
	if err != nil {
		t.Fatalf("build message: %v", err)
	}

	data, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}
	parsed, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("parse message: %v", err)
	}
	if parsed.Type != MessageTypeCanvasEvent || parsed.Sender != "alice" {
		t.Errorf("header changed in transit: %+v", parsed)
	}

	var decoded Event
	if err := parsed.DecodePayload(&decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded.Kind != event.Kind || decoded.StickerID != event.StickerID {
		t.Errorf("event changed in transit: %+v", decoded)
	}
	if decoded.Frame == nil || *decoded.Frame != frame {
		t.Errorf("frame changed in transit: %+v", decoded.Frame)
	}
}

func TestSnapshotPayloadRoundTrip(t *testing.T) {
	stickers := []Sticker{
		NewSticker("https://img/a.png", Rect{X: 1, Y: 1, W: 10, H: 10}),
		NewSticker("https://img/b.png", Rect{X: 2, Y: 2, W: 20, H: 20}),
	}
	stickers[0].Owner = "alice"

	msg, err := NewMessage(MessageTypeSnapshot, "alice", SnapshotPayload{Stickers: stickers})
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}

	var payload SnapshotPayload
	if err := msg.DecodePayload(&payload); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(payload.Stickers) != 2 {
		t.Fatalf("expected 2 stickers, got %d", len(payload.Stickers))
	}
	if payload.Stickers[0] != stickers[0] {
		t.Errorf("sticker changed in transit: %+v", payload.Stickers[0])
	}
}
