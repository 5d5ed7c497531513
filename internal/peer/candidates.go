package peer

import "github.com/snapgather/snapgather/internal/signaling"

// candidateBuffer holds ICE candidates that arrive before the remote
// description is applied. Candidates are kept in arrival order and are
// never reordered; exact duplicates are suppressed, nothing more.
type candidateBuffer struct {
	pending []signaling.CandidatePayload
	seen    map[string]struct{}
}

func newCandidateBuffer() *candidateBuffer {
	return &candidateBuffer{seen: make(map[string]struct{})}
}

// remember records a candidate and reports whether it is new. Duplicate
// suppression applies to every candidate, buffered or not.
func (b *candidateBuffer) remember(c signaling.CandidatePayload) bool {
	if _, dup := b.seen[c.Candidate]; dup {
		return false
	}
	b.seen[c.Candidate] = struct{}{}
	return true
}

// hold buffers a candidate for later flushing.
func (b *candidateBuffer) hold(c signaling.CandidatePayload) {
	b.pending = append(b.pending, c)
}

// flush returns the buffered candidates in arrival order and empties the buffer.
func (b *candidateBuffer) flush() []signaling.CandidatePayload {
	pending := b.pending
	b.pending = nil
	return pending
}
