package repository

import (
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/snapgather/snapgather/internal/peer"
)

// ErrPeerNotConnected is returned by Send when the named peer has no
// Connected client. The caller may retry after waiting for Connected.
var ErrPeerNotConnected = errors.New("peer not connected")

// Conn is the slice of a peer client the repository needs. peer.Client
// satisfies it; tests use fakes.
type Conn interface {
	PeerID() string
	State() peer.NegotiationState
	SendData(data []byte) error
	Close() error
}

// Repository owns the set of active peer connections for the local
// participant: one per remote peer currently in the room. It fans local
// actions out to all of them and merges their inbound events into a
// single arrival-ordered stream. Only per-peer order is meaningful.
type Repository struct {
	mu     sync.RWMutex
	conns  map[string]Conn
	events chan peer.Event
}

// New creates an empty repository.
func New() *Repository {
	return &Repository{
		conns:  make(map[string]Conn),
		events: make(chan peer.Event, 64),
	}
}

// EventSink is handed to each peer client as its upward event channel.
func (r *Repository) EventSink() chan<- peer.Event {
	return r.events
}

// Events exposes the merged inbound event stream.
func (r *Repository) Events() <-chan peer.Event {
	return r.events
}

// Add registers a peer connection. Safe concurrently with Broadcast.
func (r *Repository) Add(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.PeerID()] = conn
}

// Get looks up the connection for a peer.
func (r *Repository) Get(peerID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[peerID]
	return conn, ok
}

// Remove drops and closes the connection for a peer, if any. Failed
// clients leave the active set through here.
func (r *Repository) Remove(peerID string) {
	r.mu.Lock()
	conn, ok := r.conns[peerID]
	delete(r.conns, peerID)
	r.mu.Unlock()

	if ok {
		if err := conn.Close(); err != nil {
			slog.Debug("error closing peer connection", "peer", peerID, "error", err)
		}
	}
}

// Broadcast sends data over every Connected peer's data channel, skipping
// peers that are not connected yet. There is no queuing: a participant who
// joins mid-session requests a snapshot instead. The set is snapshotted
// under the lock; network sends happen outside it. Returns the number of
// peers the message was handed to.
func (r *Repository) Broadcast(data []byte) int {
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	r.mu.RUnlock()

	sent := 0
	for _, conn := range conns {
		if conn.State() != peer.StateConnected {
			continue
		}
		if err := conn.SendData(data); err != nil {
			slog.Warn("broadcast send failed", "peer", conn.PeerID(), "error", err)
			continue
		}
		sent++
	}
	return sent
}

// Send targets a single peer. Fails with ErrPeerNotConnected unless that
// peer's client is in state Connected.
func (r *Repository) Send(peerID string, data []byte) error {
	conn, ok := r.Get(peerID)
	if !ok || conn.State() != peer.StateConnected {
		return ErrPeerNotConnected
	}
	return conn.SendData(data)
}

// ConnectedIDs returns the peers currently in state Connected, sorted.
func (r *Repository) ConnectedIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.conns))
	for id, conn := range r.conns {
		if conn.State() == peer.StateConnected {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of tracked peers, connected or not.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CloseAll tears down every peer connection immediately. Used when
// leaving a room; there is no graceful drain.
func (r *Repository) CloseAll() {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]Conn)
	r.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}
