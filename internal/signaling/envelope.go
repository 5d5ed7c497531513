package signaling

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedEnvelope marks an inbound envelope whose payload does not
// match its declared message type. Such envelopes are dropped and logged,
// never propagated as peer-connection failures.
var ErrMalformedEnvelope = errors.New("malformed envelope")

// MessageType is the closed set of negotiation event kinds an envelope
// can carry. Unknown values are rejected at decode time.
type MessageType string

const (
	MessageTypeOffer        MessageType = "offer"
	MessageTypeAnswer       MessageType = "answer"
	MessageTypeIceCandidate MessageType = "iceCandidate"
	MessageTypeSignaling    MessageType = "signaling"
)

// Envelope is one negotiation protocol event on the wire. Immutable once
// constructed; targetID absent means broadcast to the room. The envelope
// never interprets routing, that is the relay's job.
type Envelope struct {
	MessageType MessageType     `json:"messageType"`
	Message     json.RawMessage `json:"message,omitempty"`
	SenderID    string          `json:"senderID"`
	TargetID    string          `json:"targetID,omitempty"`
}

// SDPPayload is the body of offer and answer envelopes.
type SDPPayload struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// CandidatePayload is the body of iceCandidate envelopes. Field names
// mirror the WebRTC ICECandidateInit dictionary.
type CandidatePayload struct {
	Candidate        string  `json:"candidate"`
	SDPMid           *string `json:"sdpMid,omitempty"`
	SDPMLineIndex    *uint16 `json:"sdpMLineIndex,omitempty"`
	UsernameFragment *string `json:"usernameFragment,omitempty"`
}

// NewOffer builds an offer envelope. Encoding is total: it never fails
// for well-formed payloads.
func NewOffer(senderID, targetID string, sdp SDPPayload) Envelope {
	return newEnvelope(MessageTypeOffer, senderID, targetID, sdp)
}

// NewAnswer builds an answer envelope.
func NewAnswer(senderID, targetID string, sdp SDPPayload) Envelope {
	return newEnvelope(MessageTypeAnswer, senderID, targetID, sdp)
}

// NewCandidate builds an iceCandidate envelope.
func NewCandidate(senderID, targetID string, candidate CandidatePayload) Envelope {
	return newEnvelope(MessageTypeIceCandidate, senderID, targetID, candidate)
}

// NewSignaling builds a generic signaling envelope carrying an opaque body.
func NewSignaling(senderID, targetID string, body json.RawMessage) Envelope {
	return Envelope{
		MessageType: MessageTypeSignaling,
		Message:     body,
		SenderID:    senderID,
		TargetID:    targetID,
	}
}

func newEnvelope(t MessageType, senderID, targetID string, payload any) Envelope {
	body, err := json.Marshal(payload)
	if err != nil {
		// Marshalling plain structs of strings cannot fail.
		panic(fmt.Sprintf("signaling: encode %s envelope: %v", t, err))
	}
	return Envelope{
		MessageType: t,
		Message:     body,
		SenderID:    senderID,
		TargetID:    targetID,
	}
}

// Encode serializes the envelope for the relay connection.
func (e Envelope) Encode() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		panic(fmt.Sprintf("signaling: encode envelope: %v", err))
	}
	return data
}

// Decode parses and validates an inbound envelope. The message type must
// be one of the closed enumeration and the payload must match the shape
// that type declares; anything else is ErrMalformedEnvelope, never a
// partially-populated value.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	switch env.MessageType {
	case MessageTypeOffer, MessageTypeAnswer:
		if _, err := env.SDP(); err != nil {
			return Envelope{}, err
		}
	case MessageTypeIceCandidate:
		if _, err := env.Candidate(); err != nil {
			return Envelope{}, err
		}
	case MessageTypeSignaling:
		// Opaque body, nothing to validate.
	default:
		return Envelope{}, fmt.Errorf("%w: unknown message type %q", ErrMalformedEnvelope, env.MessageType)
	}

	return env, nil
}

// SDP decodes the body of an offer or answer envelope.
func (e Envelope) SDP() (SDPPayload, error) {
	var sdp SDPPayload
	if err := json.Unmarshal(e.Message, &sdp); err != nil {
		return SDPPayload{}, fmt.Errorf("%w: %s body: %v", ErrMalformedEnvelope, e.MessageType, err)
	}
	if sdp.SDP == "" {
		return SDPPayload{}, fmt.Errorf("%w: %s envelope without sdp", ErrMalformedEnvelope, e.MessageType)
	}
	return sdp, nil
}

// Candidate decodes the body of an iceCandidate envelope.
func (e Envelope) Candidate() (CandidatePayload, error) {
	var candidate CandidatePayload
	if err := json.Unmarshal(e.Message, &candidate); err != nil {
		return CandidatePayload{}, fmt.Errorf("%w: candidate body: %v", ErrMalformedEnvelope, err)
	}
	if candidate.Candidate == "" {
		return CandidatePayload{}, fmt.Errorf("%w: iceCandidate envelope without candidate", ErrMalformedEnvelope)
	}
	return candidate, nil
}
