package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/snapgather/snapgather/internal/canvas"
	"github.com/snapgather/snapgather/internal/config"
	"github.com/snapgather/snapgather/internal/peer"
	"github.com/snapgather/snapgather/internal/repository"
	"github.com/snapgather/snapgather/internal/room"
	"github.com/snapgather/snapgather/internal/signaling"
)

// captureLeadTime is the head start given to a capture request, enough for
// the message to reach every peer before the shared capture instant.
const captureLeadTime = 500 * time.Millisecond

// FrameSource supplies the latest decoded video frame as opaque bytes.
// Decoding is the external media pipeline's business; the session only
// triggers captures and hands the frame onward.
type FrameSource interface {
	LatestFrame() ([]byte, bool)
}

// CaptureFunc receives the captured frame when a synchronized photo
// capture fires, locally or from a remote participant.
type CaptureFunc func(frame []byte, at time.Time)

// Session is one participant's end of a room: the single shared relay
// connection, the repository of peer connections, and the local canvas
// copy. It is created at session start and explicitly closed on every
// exit path.
type Session struct {
	cfg     *config.Config
	localID string

	client  *signaling.Client
	handler *signaling.Handler
	repo    *repository.Repository
	board   *canvas.Canvas

	mu        sync.Mutex
	roomID    string
	peers     map[string]*peer.Client
	frames    FrameSource
	onCapture CaptureFunc
	err       error

	wantSnapshot bool
	snapshotOnce sync.Once

	routeOnce sync.Once
	done      chan struct{}
	closeOnce sync.Once
}

// New builds a session for a fresh participant identity.
func New(cfg *config.Config) *Session {
	client := signaling.NewClient(cfg.WebSocketURL)
	return &Session{
		cfg:     cfg,
		localID: uuid.NewString(),
		client:  client,
		handler: signaling.NewHandler(client),
		repo:    repository.New(),
		board:   canvas.New(),
		peers:   make(map[string]*peer.Client),
		done:    make(chan struct{}),
	}
}

// Connect dials the relay and starts the routing loops.
func (s *Session) Connect() error {
	if err := s.client.Connect(); err != nil {
		return NewError("connect to relay", err)
	}

	go s.handler.Start()
	return nil
}

// startRouting begins draining the handler and repository streams. Deferred
// until after the create/join handshake so the lifecycle call sees the
// relay's reply on the handler channels itself.
func (s *Session) startRouting() {
	s.routeOnce.Do(func() {
		go s.routeSignaling()
		go s.routePeerEvents()
	})
}

// Create makes a new room with this participant as its only member and
// returns the room ID.
func (s *Session) Create() (string, error) {
	roomID, err := room.Create(s.client, s.handler, s.localID)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.roomID = roomID
	s.mu.Unlock()
	s.startRouting()
	return roomID, nil
}

// Join enters an existing room and starts negotiating with everyone
// already in it; this side offers. The canvas is filled in by a snapshot
// from the first peer to connect.
func (s *Session) Join(roomID string) error {
	members, err := room.Join(s.client, s.handler, s.localID, roomID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.roomID = roomID
	s.wantSnapshot = len(members) > 0
	s.mu.Unlock()
	s.startRouting()

	for _, member := range members {
		client, err := s.getOrCreatePeer(member)
		if err != nil {
			slog.Warn("failed to create peer client", "peer", member, "error", err)
			continue
		}
		if err := client.SendOffer(); err != nil {
			slog.Warn("failed to send offer", "peer", member, "error", err)
		}
	}
	return nil
}

// LocalID returns this participant's identity.
func (s *Session) LocalID() string {
	return s.localID
}

// RoomID returns the joined room's ID, "" before create/join.
func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// ShareLink returns the capability link for the current room.
func (s *Session) ShareLink() string {
	return s.cfg.GetRoomLink(s.RoomID())
}

// Members returns the remote participants whose connections are up.
func (s *Session) Members() []string {
	return s.repo.ConnectedIDs()
}

// Stickers returns the local canvas state.
func (s *Session) Stickers() []canvas.Sticker {
	return s.board.Snapshot()
}

// SetFrameSource wires the external media pipeline's latest-frame feed.
func (s *Session) SetFrameSource(src FrameSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = src
}

// OnCapture registers the callback fired when a capture triggers.
func (s *Session) OnCapture(fn CaptureFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCapture = fn
}

// Done is closed when the session ends, by Leave or by relay loss.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err reports why the session ended, nil for a clean leave.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// AddSticker places a new unowned sticker locally and broadcasts it.
func (s *Session) AddSticker(imageURL string, frame canvas.Rect) uuid.UUID {
	sticker := canvas.NewSticker(imageURL, frame)
	ev := canvas.Event{
		Kind:      canvas.EventAdd,
		StickerID: sticker.ID,
		Actor:     s.localID,
		ImageURL:  imageURL,
		Frame:     &frame,
	}
	s.applyAndBroadcast(ev)
	return sticker.ID
}

// Claim acquires exclusive mutation rights over a sticker. A false return
// is not an error: somebody else holds it.
func (s *Session) Claim(id uuid.UUID) bool {
	return s.applyAndBroadcast(canvas.Event{Kind: canvas.EventClaim, StickerID: id, Actor: s.localID})
}

// Move updates a held sticker's frame.
func (s *Session) Move(id uuid.UUID, frame canvas.Rect) bool {
	return s.applyAndBroadcast(canvas.Event{Kind: canvas.EventMutate, StickerID: id, Actor: s.localID, Frame: &frame})
}

// Release relinquishes ownership.
func (s *Session) Release(id uuid.UUID) bool {
	return s.applyAndBroadcast(canvas.Event{Kind: canvas.EventRelease, StickerID: id, Actor: s.localID})
}

// Delete removes a sticker the local participant owns, or any free one.
func (s *Session) Delete(id uuid.UUID) bool {
	return s.applyAndBroadcast(canvas.Event{Kind: canvas.EventDelete, StickerID: id, Actor: s.localID})
}

// applyAndBroadcast runs a local intent through the ownership guards and,
// if accepted, applies it optimistically and broadcasts the new state.
func (s *Session) applyAndBroadcast(ev canvas.Event) bool {
	if !s.board.Apply(ev) {
		return false
	}
	msg, err := canvas.NewMessage(canvas.MessageTypeCanvasEvent, s.localID, ev)
	if err != nil {
		slog.Warn("failed to encode canvas event", "error", err)
		return true
	}
	s.broadcast(msg)
	return true
}

// closedErr reports the session as closed once Leave or relay loss has
// torn it down.
func (s *Session) closedErr(op string) error {
	select {
	case <-s.done:
		return WrapError(op, ErrSessionClosed, s.RoomID())
	default:
		return nil
	}
}

// RequestCapture schedules a synchronized capture on every participant,
// including this one.
func (s *Session) RequestCapture() {
	if s.closedErr("request capture") != nil {
		return
	}

	at := time.Now().Add(captureLeadTime)
	msg, err := canvas.NewMessage(canvas.MessageTypeCapture, s.localID, canvas.CapturePayload{
		AtUnixMilli: at.UnixMilli(),
	})
	if err != nil {
		slog.Warn("failed to encode capture request", "error", err)
		return
	}
	s.broadcast(msg)
	s.fireCapture(at)
}

// Send targets one peer. Surfaces repository.ErrPeerNotConnected when the
// peer is still negotiating; the caller may retry once it is Connected.
// ErrSessionClosed after Leave.
func (s *Session) Send(peerID string, msg canvas.Message) error {
	if err := s.closedErr("send"); err != nil {
		return err
	}

	data, err := canvas.EncodeMessage(msg)
	if err != nil {
		return NewError("encode message", err)
	}
	return s.repo.Send(peerID, data)
}

func (s *Session) broadcast(msg canvas.Message) {
	data, err := canvas.EncodeMessage(msg)
	if err != nil {
		slog.Warn("failed to encode broadcast", "error", err)
		return
	}
	s.repo.Broadcast(data)
}

// Leave tears everything down immediately: every peer connection, then
// the relay handle. No graceful drain; unacknowledged sends are abandoned.
func (s *Session) Leave() {
	s.shutdown(nil)
}

func (s *Session) shutdown(cause error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.err = cause
		s.mu.Unlock()

		if cause == nil {
			room.Leave(s.client, s.localID)
		}
		s.repo.CloseAll()
		s.client.Close()
		close(s.done)
	})
}

// routeSignaling drives the session off the relay: inbound envelopes are
// dispatched to the peer client for their sender, membership changes
// create and remove peers.
func (s *Session) routeSignaling() {
	for {
		select {
		case env := <-s.handler.Envelopes:
			s.dispatchEnvelope(env)

		case peerID := <-s.handler.PeerJoined:
			// The joiner offers; this side answers when the offer arrives.
			slog.Info("participant joined room", "peer", peerID)

		case peerID := <-s.handler.PeerLeft:
			slog.Info("participant left room", "peer", peerID)
			s.removePeer(peerID)

		case errMsg := <-s.handler.Error:
			slog.Warn("relay error", "error", errMsg)

		case <-s.handler.Disconnected:
			s.shutdown(ErrRelayClosed)
			return

		case <-s.done:
			return
		}
	}
}

func (s *Session) dispatchEnvelope(env signaling.Envelope) {
	if env.SenderID == "" || env.SenderID == s.localID {
		return
	}

	client, err := s.getOrCreatePeer(env.SenderID)
	if err != nil {
		slog.Warn("failed to create peer client", "peer", env.SenderID, "error", err)
		return
	}
	if err := client.HandleEnvelope(env); err != nil {
		slog.Warn("negotiation event failed", "peer", env.SenderID, "error", err)
	}
}

// routePeerEvents consumes the repository's merged stream: data-channel
// messages feed the canvas, state changes maintain the active set.
func (s *Session) routePeerEvents() {
	for {
		select {
		case event := <-s.repo.Events():
			switch event.Kind {
			case peer.EventMessage:
				s.handlePeerMessage(event.PeerID, event.Data)
			case peer.EventStateChanged:
				s.handlePeerState(event)
			}

		case <-s.done:
			return
		}
	}
}

func (s *Session) handlePeerState(event peer.Event) {
	switch event.State {
	case peer.StateConnected:
		slog.Info("peer connected", "peer", event.PeerID)
		s.maybeRequestSnapshot(event.PeerID)

	case peer.StateFailed:
		slog.Warn("peer negotiation failed", "peer", event.PeerID,
			"error", NewError("negotiate", ErrNegotiationFailed))
		s.removePeer(event.PeerID)

	case peer.StateClosed:
		s.removePeer(event.PeerID)
	}
}

// maybeRequestSnapshot asks the first connected peer for the full canvas.
// Only participants who joined an occupied room need one.
func (s *Session) maybeRequestSnapshot(peerID string) {
	s.mu.Lock()
	want := s.wantSnapshot
	s.mu.Unlock()
	if !want {
		return
	}

	s.snapshotOnce.Do(func() {
		msg, err := canvas.NewMessage(canvas.MessageTypeSnapshotRequest, s.localID, struct{}{})
		if err != nil {
			return
		}
		if err := s.Send(peerID, msg); err != nil {
			slog.Warn("snapshot request failed", "peer", peerID, "error", err)
		}
	})
}

func (s *Session) handlePeerMessage(peerID string, data []byte) {
	msg, err := canvas.ParseMessage(data)
	if err != nil {
		slog.Warn("undecodable data-channel message", "peer", peerID, "error", err)
		return
	}

	switch msg.Type {
	case canvas.MessageTypeCanvasEvent:
		var ev canvas.Event
		if err := msg.DecodePayload(&ev); err != nil {
			slog.Warn("bad canvas event", "peer", peerID, "error", err)
			return
		}
		// Remote events run through the same guards as local ones;
		// a rejection is just a stale or losing update.
		s.board.Apply(ev)

	case canvas.MessageTypeSnapshotRequest:
		reply, err := canvas.NewMessage(canvas.MessageTypeSnapshot, s.localID, canvas.SnapshotPayload{
			Stickers: s.board.Snapshot(),
		})
		if err != nil {
			return
		}
		if err := s.Send(peerID, reply); err != nil {
			slog.Warn("snapshot reply failed", "peer", peerID, "error", err)
		}

	case canvas.MessageTypeSnapshot:
		var payload canvas.SnapshotPayload
		if err := msg.DecodePayload(&payload); err != nil {
			slog.Warn("bad snapshot", "peer", peerID, "error", err)
			return
		}
		s.board.Load(payload.Stickers)

	case canvas.MessageTypeCapture:
		var payload canvas.CapturePayload
		if err := msg.DecodePayload(&payload); err != nil {
			slog.Warn("bad capture request", "peer", peerID, "error", err)
			return
		}
		s.fireCapture(time.UnixMilli(payload.AtUnixMilli))

	default:
		slog.Warn("unknown data-channel message type", "peer", peerID, "type", msg.Type)
	}
}

// fireCapture arms the capture for the shared instant. Every participant
// received the same at, so the frames are grabbed simultaneously no matter
// when the capture message itself arrived.
func (s *Session) fireCapture(at time.Time) {
	s.mu.Lock()
	frames := s.frames
	fn := s.onCapture
	s.mu.Unlock()

	if frames == nil || fn == nil {
		return
	}

	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	time.AfterFunc(delay, func() {
		select {
		case <-s.done:
			return
		default:
		}
		frame, ok := frames.LatestFrame()
		if !ok {
			return
		}
		fn(frame, at)
	})
}

func (s *Session) getOrCreatePeer(peerID string) (*peer.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if client, ok := s.peers[peerID]; ok {
		return client, nil
	}

	client, err := peer.New(s.cfg, s.localID, peerID, s.client, s.repo.EventSink())
	if err != nil {
		return nil, err
	}
	s.peers[peerID] = client
	s.repo.Add(client)
	return client, nil
}

func (s *Session) removePeer(peerID string) {
	s.mu.Lock()
	delete(s.peers, peerID)
	s.mu.Unlock()
	s.repo.Remove(peerID)
}
