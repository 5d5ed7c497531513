package peer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	pion "github.com/pion/webrtc/v4"

	"github.com/snapgather/snapgather/internal/config"
	"github.com/snapgather/snapgather/internal/signaling"
)

// CanvasChannelLabel names the data channel carrying canvas synchronization
// messages. Connected is only entered once this channel is open.
const CanvasChannelLabel = "canvas"

// ErrChannelNotOpen is returned by SendData before the canvas channel opens.
var ErrChannelNotOpen = errors.New("data channel not open")

// EventKind classifies events a peer client sends upward.
type EventKind int

const (
	// EventStateChanged reports a negotiation state transition.
	EventStateChanged EventKind = iota

	// EventMessage carries one inbound data-channel message.
	EventMessage
)

// Event is one upward notification from a peer client. Events for a given
// peer are ordered; ordering across peers carries no meaning.
type Event struct {
	PeerID string
	Kind   EventKind
	State  NegotiationState
	Data   []byte
	Err    error
}

// Signaler sends negotiation envelopes toward the relay. signaling.Client
// satisfies it.
type Signaler interface {
	SendEnvelope(env signaling.Envelope)
}

// Client owns one peer-to-peer session with a single remote participant:
// the negotiation state machine, the transport, and the canvas data channel.
type Client struct {
	localID string
	peerID  string

	signaler   Signaler
	events     chan<- Event
	iceServers []pion.ICEServer

	pc *pion.PeerConnection

	mu          sync.Mutex
	state       NegotiationState
	dc          *pion.DataChannel
	buffer      *candidateBuffer
	remoteSet   bool
	transportUp bool
	channelOpen bool

	// State-change events are queued under mu and delivered outside it,
	// so a blocked events channel can never deadlock against State() or
	// SendData(). emitMu keeps delivery in queue order.
	emitMu sync.Mutex
	queued []Event
}

// flushEvents delivers queued state-change events outside mu.
func (c *Client) flushEvents() {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	queued := c.queued
	c.queued = nil
	c.mu.Unlock()

	for _, event := range queued {
		c.events <- event
	}
}

// New builds a peer client for one remote participant. The STUN/TURN list
// comes from static configuration; the relay is the only other network
// dependency.
func New(cfg *config.Config, localID, peerID string, signaler Signaler, events chan<- Event) (*Client, error) {
	iceServers := []pion.ICEServer{{URLs: cfg.GetSTUNServers()}}

	if turnServers := cfg.GetTURNServers(); turnServers != nil {
		username, password := cfg.GetTURNCredentials()
		iceServers = append(iceServers, pion.ICEServer{
			URLs:       turnServers,
			Username:   username,
			Credential: password,
		})
	}

	pc, err := pion.NewPeerConnection(pion.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	c := &Client{
		localID:    localID,
		peerID:     peerID,
		signaler:   signaler,
		events:     events,
		iceServers: iceServers,
		pc:         pc,
		state:      StateNew,
		buffer:     newCandidateBuffer(),
	}
	c.bind(pc)

	return c, nil
}

// bind registers the transport callbacks for one PeerConnection. Every
// callback checks that pc is still current: yielding a glare collision
// replaces the connection, and the old one's late callbacks must not touch
// the new negotiation.
func (c *Client) bind(pc *pion.PeerConnection) {
	pc.OnICECandidate(func(candidate *pion.ICECandidate) {
		if candidate == nil || c.stale(pc) {
			return
		}
		init := candidate.ToJSON()
		c.signaler.SendEnvelope(signaling.NewCandidate(c.localID, c.peerID, signaling.CandidatePayload{
			Candidate:        init.Candidate,
			SDPMid:           init.SDPMid,
			SDPMLineIndex:    init.SDPMLineIndex,
			UsernameFragment: init.UsernameFragment,
		}))
	})

	pc.OnICEConnectionStateChange(func(state pion.ICEConnectionState) {
		c.onICEStateChange(pc, state)
	})

	pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		c.onTransportStateChange(pc, state)
	})

	// The answering side receives the channel the offerer created.
	pc.OnDataChannel(func(dc *pion.DataChannel) {
		if dc.Label() != CanvasChannelLabel {
			return
		}
		c.mu.Lock()
		if c.pc == pc {
			c.attachChannelLocked(dc)
		}
		c.mu.Unlock()
	})
}

func (c *Client) stale(pc *pion.PeerConnection) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pc != pc
}

// PeerID returns the remote participant's identity.
func (c *Client) PeerID() string {
	return c.peerID
}

// State returns the current negotiation state.
func (c *Client) State() NegotiationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SendOffer starts negotiation as the offerer: creates the canvas data
// channel, sets the local description, and sends the offer envelope.
func (c *Client) SendOffer() error {
	defer c.flushEvents()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateNew {
		return fmt.Errorf("send offer in state %s", c.state)
	}

	ordered := true
	dc, err := c.pc.CreateDataChannel(CanvasChannelLabel, &pion.DataChannelInit{Ordered: &ordered})
	if err != nil {
		return fmt.Errorf("create data channel: %w", err)
	}
	c.attachChannelLocked(dc)

	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}

	c.signaler.SendEnvelope(signaling.NewOffer(c.localID, c.peerID, signaling.SDPPayload{
		Type: "offer",
		SDP:  offer.SDP,
	}))
	c.setStateLocked(StateOfferSent)
	return nil
}

// HandleEnvelope feeds one decoded negotiation event into the state machine.
func (c *Client) HandleEnvelope(env signaling.Envelope) error {
	switch env.MessageType {
	case signaling.MessageTypeOffer:
		return c.handleOffer(env)
	case signaling.MessageTypeAnswer:
		return c.handleAnswer(env)
	case signaling.MessageTypeIceCandidate:
		return c.handleCandidate(env)
	default:
		// Generic signaling envelopes carry no negotiation semantics.
		return nil
	}
}

func (c *Client) handleOffer(env signaling.Envelope) error {
	sdp, err := env.SDP()
	if err != nil {
		return err
	}

	defer c.flushEvents()
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateNew:
	case StateOfferSent:
		// Glare: both sides offered at once. The deterministic tie-break
		// picks exactly one offerer, so this can never livelock.
		if !shouldYield(c.localID, c.peerID) {
			slog.Debug("glare: keeping offerer role", "peer", c.peerID)
			return nil
		}
		slog.Debug("glare: yielding offerer role", "peer", c.peerID)
		if err := c.resetConnectionLocked(); err != nil {
			return c.failLocked(err)
		}
	default:
		// Stale or out-of-order offer; drop it.
		return nil
	}

	remote := pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: sdp.SDP}
	if err := c.pc.SetRemoteDescription(remote); err != nil {
		return c.failLocked(fmt.Errorf("set remote offer: %w", err))
	}
	c.setStateLocked(StateOfferReceived)
	c.remoteDescriptionSetLocked()

	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return c.failLocked(fmt.Errorf("create answer: %w", err))
	}
	if err := c.pc.SetLocalDescription(answer); err != nil {
		return c.failLocked(fmt.Errorf("set local answer: %w", err))
	}

	c.signaler.SendEnvelope(signaling.NewAnswer(c.localID, c.peerID, signaling.SDPPayload{
		Type: "answer",
		SDP:  answer.SDP,
	}))
	c.setStateLocked(StateAnswerSent)
	return nil
}

func (c *Client) handleAnswer(env signaling.Envelope) error {
	sdp, err := env.SDP()
	if err != nil {
		return err
	}

	defer c.flushEvents()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOfferSent {
		// An answer to an offer we discarded (glare) or never sent.
		return nil
	}

	remote := pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: sdp.SDP}
	if err := c.pc.SetRemoteDescription(remote); err != nil {
		return c.failLocked(fmt.Errorf("set remote answer: %w", err))
	}
	c.setStateLocked(StateAnswerReceived)
	c.remoteDescriptionSetLocked()
	return nil
}

// resetConnectionLocked replaces the transport after yielding a glare
// collision: the connection that carried the discarded local offer cannot
// take the remote one, so negotiation restarts on a fresh connection.
// Buffered remote candidates are kept; they belong to the peer's
// connection, which survives the yield.
func (c *Client) resetConnectionLocked() error {
	old := c.pc

	pc, err := pion.NewPeerConnection(pion.Configuration{ICEServers: c.iceServers})
	if err != nil {
		return fmt.Errorf("recreate peer connection: %w", err)
	}

	c.pc = pc
	c.dc = nil
	c.channelOpen = false
	c.transportUp = false
	c.bind(pc)

	// Close outside mu; the old connection's callbacks are stale no-ops now.
	go old.Close()
	return nil
}

// handleCandidate applies a remote ICE candidate, buffering it if the
// remote description is not in place yet. Candidates never change the
// negotiation state.
func (c *Client) handleCandidate(env signaling.Envelope) error {
	candidate, err := env.Candidate()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Terminal() {
		return nil
	}
	if !c.buffer.remember(candidate) {
		return nil
	}
	if !c.remoteSet {
		c.buffer.hold(candidate)
		return nil
	}
	return c.applyCandidateLocked(candidate)
}

// remoteDescriptionSetLocked flushes candidates that arrived early, in
// arrival order.
func (c *Client) remoteDescriptionSetLocked() {
	c.remoteSet = true
	for _, candidate := range c.buffer.flush() {
		if err := c.applyCandidateLocked(candidate); err != nil {
			slog.Warn("failed to apply buffered candidate", "peer", c.peerID, "error", err)
		}
	}
}

func (c *Client) applyCandidateLocked(candidate signaling.CandidatePayload) error {
	init := pion.ICECandidateInit{
		Candidate:        candidate.Candidate,
		SDPMid:           candidate.SDPMid,
		SDPMLineIndex:    candidate.SDPMLineIndex,
		UsernameFragment: candidate.UsernameFragment,
	}
	if err := c.pc.AddICECandidate(init); err != nil {
		return fmt.Errorf("add ICE candidate: %w", err)
	}
	return nil
}

// SendData writes one message to the canvas data channel.
func (c *Client) SendData(data []byte) error {
	c.mu.Lock()
	dc := c.dc
	open := c.channelOpen
	c.mu.Unlock()

	if dc == nil || !open {
		return ErrChannelNotOpen
	}
	return dc.Send(data)
}

// Close tears the session down immediately. Pending sends are abandoned;
// nothing is retried once the client is Closed.
func (c *Client) Close() error {
	defer c.flushEvents()
	c.mu.Lock()
	if c.state.Terminal() {
		c.mu.Unlock()
		return nil
	}
	c.setStateLocked(StateClosed)
	c.mu.Unlock()

	return c.pc.Close()
}

func (c *Client) attachChannelLocked(dc *pion.DataChannel) {
	if c.dc != nil && c.channelOpen {
		// Glare can produce a second canvas channel; the first open one wins.
		return
	}
	c.dc = dc

	dc.OnOpen(func() {
		c.mu.Lock()
		if c.dc == dc {
			c.channelOpen = true
			c.maybeConnectedLocked()
		}
		c.mu.Unlock()
		c.flushEvents()
	})

	dc.OnMessage(func(msg pion.DataChannelMessage) {
		c.mu.Lock()
		current := c.dc == dc
		c.mu.Unlock()
		if !current {
			return
		}
		c.events <- Event{PeerID: c.peerID, Kind: EventMessage, Data: msg.Data}
	})

	dc.OnClose(func() {
		c.mu.Lock()
		if c.dc == dc {
			c.channelOpen = false
			if c.state == StateConnected {
				c.setStateLocked(StateClosed)
			}
		}
		c.mu.Unlock()
		c.flushEvents()
	})
}

func (c *Client) onICEStateChange(pc *pion.PeerConnection, state pion.ICEConnectionState) {
	defer c.flushEvents()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pc != pc {
		return
	}

	switch state {
	case pion.ICEConnectionStateChecking:
		if c.state == StateAnswerSent || c.state == StateAnswerReceived {
			c.setStateLocked(StateIceExchanging)
		}
	case pion.ICEConnectionStateFailed:
		c.failLocked(errors.New("ICE connection failed"))
	}
}

func (c *Client) onTransportStateChange(pc *pion.PeerConnection, state pion.PeerConnectionState) {
	defer c.flushEvents()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pc != pc {
		return
	}

	switch state {
	case pion.PeerConnectionStateConnected:
		c.transportUp = true
		c.maybeConnectedLocked()
	case pion.PeerConnectionStateFailed:
		c.failLocked(errors.New("transport failed"))
	case pion.PeerConnectionStateDisconnected, pion.PeerConnectionStateClosed:
		if c.state == StateConnected {
			c.setStateLocked(StateClosed)
		}
	}
}

// maybeConnectedLocked enters Connected only once both the transport
// reports connected and the canvas channel is open.
func (c *Client) maybeConnectedLocked() {
	if c.transportUp && c.channelOpen && !c.state.Terminal() && c.state != StateConnected {
		c.setStateLocked(StateConnected)
	}
}

func (c *Client) failLocked(err error) error {
	if c.state.Terminal() {
		return err
	}
	c.state = StateFailed
	c.queued = append(c.queued, Event{PeerID: c.peerID, Kind: EventStateChanged, State: StateFailed, Err: err})
	return err
}

func (c *Client) setStateLocked(next NegotiationState) {
	if c.state == next || c.state.Terminal() {
		return
	}
	c.state = next
	c.queued = append(c.queued, Event{PeerID: c.peerID, Kind: EventStateChanged, State: next})
}
