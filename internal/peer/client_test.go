package peer

import (
	"fmt"
	"sync"
	"testing"

	pion "github.com/pion/webrtc/v4"

	"github.com/snapgather/snapgather/internal/config"
	"github.com/snapgather/snapgather/internal/signaling"
)

// fakeSignaler records envelopes instead of writing to a relay connection.
type fakeSignaler struct {
	mu   sync.Mutex
	sent []signaling.Envelope
}

func (f *fakeSignaler) SendEnvelope(env signaling.Envelope) {
	f.mu.Lock()
	f.sent = append(f.sent, env)
	f.mu.Unlock()
}

func (f *fakeSignaler) byType(t signaling.MessageType) []signaling.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []signaling.Envelope
	for _, env := range f.sent {
		if env.MessageType == t {
			out = append(out, env)
		}
	}
	return out
}

func newTestClient(t *testing.T, localID, peerID string) (*Client, *fakeSignaler) {
	t.Helper()
	cfg, err := config.Load(config.Options{})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	signaler := &fakeSignaler{}
	events := make(chan Event, 64)
	c, err := New(cfg, localID, peerID, signaler, events)
	if err != nil {
		t.Fatalf("new peer client: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, signaler
}

// remoteOfferSDP produces a real offer carrying the canvas data channel,
// standing in for the remote participant's side of the negotiation.
func remoteOfferSDP(t *testing.T) string {
	t.Helper()
	pc, err := pion.NewPeerConnection(pion.Configuration{})
	if err != nil {
		t.Fatalf("remote peer connection: %v", err)
	}
	t.Cleanup(func() { pc.Close() })

	if _, err := pc.CreateDataChannel(CanvasChannelLabel, nil); err != nil {
		t.Fatalf("remote data channel: %v", err)
	}
	offer, err := pc.CreateOffer(nil)
	if err != nil {
		t.Fatalf("remote offer: %v", err)
	}
	return offer.SDP
}

func candidateEnvelope(sender, target string, port int) signaling.Envelope {
	mid := "0"
	var line uint16
	return signaling.NewCandidate(sender, target, signaling.CandidatePayload{
		Candidate:     fmt.Sprintf("candidate:%d 1 udp 2130706431 192.0.2.1 %d typ host", port, port),
		SDPMid:        &mid,
		SDPMLineIndex: &line,
	})
}

func pendingCandidates(c *Client) []signaling.CandidatePayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]signaling.CandidatePayload(nil), c.buffer.pending...)
}

func TestCandidatesBufferedUntilRemoteDescription(t *testing.T) {
	c, _ := newTestClient(t, "aaa", "bbb")

	ports := []int{5000, 5001, 5002}
	for _, port := range ports {
		if err := c.HandleEnvelope(candidateEnvelope("bbb", "aaa", port)); err != nil {
			t.Fatalf("handle candidate: %v", err)
		}
	}

	pending := pendingCandidates(c)
	if len(pending) != 3 {
		t.Fatalf("expected 3 buffered candidates, got %d", len(pending))
	}
	for i, port := range ports {
		want := fmt.Sprintf("candidate:%d 1 udp 2130706431 192.0.2.1 %d typ host", port, port)
		if pending[i].Candidate != want {
			t.Errorf("buffered candidate %d out of order: got %q", i, pending[i].Candidate)
		}
	}

	// An exact duplicate never reaches the buffer.
	if err := c.HandleEnvelope(candidateEnvelope("bbb", "aaa", 5000)); err != nil {
		t.Fatalf("handle duplicate: %v", err)
	}
	if got := len(pendingCandidates(c)); got != 3 {
		t.Fatalf("duplicate was buffered: %d pending", got)
	}

	offer := signaling.NewOffer("bbb", "aaa", signaling.SDPPayload{Type: "offer", SDP: remoteOfferSDP(t)})
	if err := c.HandleEnvelope(offer); err != nil {
		t.Fatalf("handle offer: %v", err)
	}

	if got := len(pendingCandidates(c)); got != 0 {
		t.Fatalf("buffer not flushed after remote description: %d pending", got)
	}
	if state := c.State(); state != StateAnswerSent {
		t.Fatalf("expected AnswerSent after offer, got %s", state)
	}
}

func TestGlareYieldingSideAnswers(t *testing.T) {
	// "bbb" > "aaa": the local side loses the tie-break and must answer.
	c, signaler := newTestClient(t, "bbb", "aaa")

	if err := c.SendOffer(); err != nil {
		t.Fatalf("send offer: %v", err)
	}
	if state := c.State(); state != StateOfferSent {
		t.Fatalf("expected OfferSent, got %s", state)
	}

	offer := signaling.NewOffer("aaa", "bbb", signaling.SDPPayload{Type: "offer", SDP: remoteOfferSDP(t)})
	if err := c.HandleEnvelope(offer); err != nil {
		t.Fatalf("yielding side failed to take the remote offer: %v", err)
	}

	if state := c.State(); state != StateAnswerSent {
		t.Fatalf("expected AnswerSent after yielding, got %s", state)
	}
	if answers := signaler.byType(signaling.MessageTypeAnswer); len(answers) != 1 {
		t.Fatalf("expected exactly 1 answer envelope, got %d", len(answers))
	} else if answers[0].TargetID != "aaa" {
		t.Fatalf("answer targeted %q, want aaa", answers[0].TargetID)
	}
}

func TestGlareKeepingSideIgnoresOffer(t *testing.T) {
	// "aaa" < "bbb": the local side keeps the offerer role.
	c, signaler := newTestClient(t, "aaa", "bbb")

	if err := c.SendOffer(); err != nil {
		t.Fatalf("send offer: %v", err)
	}

	offer := signaling.NewOffer("bbb", "aaa", signaling.SDPPayload{Type: "offer", SDP: remoteOfferSDP(t)})
	if err := c.HandleEnvelope(offer); err != nil {
		t.Fatalf("handle colliding offer: %v", err)
	}

	if state := c.State(); state != StateOfferSent {
		t.Fatalf("keeping side must stay in OfferSent, got %s", state)
	}
	if answers := signaler.byType(signaling.MessageTypeAnswer); len(answers) != 0 {
		t.Fatalf("keeping side must not answer, sent %d answers", len(answers))
	}
}

func TestGlareBufferedCandidatesSurviveYield(t *testing.T) {
	c, _ := newTestClient(t, "bbb", "aaa")

	if err := c.SendOffer(); err != nil {
		t.Fatalf("send offer: %v", err)
	}
	if err := c.HandleEnvelope(candidateEnvelope("aaa", "bbb", 6000)); err != nil {
		t.Fatalf("handle candidate: %v", err)
	}
	if got := len(pendingCandidates(c)); got != 1 {
		t.Fatalf("expected 1 buffered candidate, got %d", got)
	}

	offer := signaling.NewOffer("aaa", "bbb", signaling.SDPPayload{Type: "offer", SDP: remoteOfferSDP(t)})
	if err := c.HandleEnvelope(offer); err != nil {
		t.Fatalf("yield: %v", err)
	}

	if got := len(pendingCandidates(c)); got != 0 {
		t.Fatalf("candidate not flushed onto the fresh connection: %d pending", got)
	}
	if state := c.State(); state != StateAnswerSent {
		t.Fatalf("expected AnswerSent, got %s", state)
	}
}

func TestOfferInTerminalStateIsDropped(t *testing.T) {
	c, signaler := newTestClient(t, "aaa", "bbb")
	c.Close()

	offer := signaling.NewOffer("bbb", "aaa", signaling.SDPPayload{Type: "offer", SDP: remoteOfferSDP(t)})
	if err := c.HandleEnvelope(offer); err != nil {
		t.Fatalf("closed client must drop offers silently: %v", err)
	}
	if state := c.State(); state != StateClosed {
		t.Fatalf("expected Closed, got %s", state)
	}
	if answers := signaler.byType(signaling.MessageTypeAnswer); len(answers) != 0 {
		t.Fatalf("closed client sent %d answers", len(answers))
	}
}
