package signaling

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	mid := "0"
	index := uint16(0)

	envelopes := []Envelope{
		NewOffer("alice", "bob", SDPPayload{Type: "offer", SDP: "v=0\r\no=- 1 1 IN IP4 0.0.0.0"}),
		NewAnswer("bob", "alice", SDPPayload{Type: "answer", SDP: "v=0\r\no=- 2 2 IN IP4 0.0.0.0"}),
		NewCandidate("alice", "bob", CandidatePayload{
			Candidate:     "candidate:1 1 udp 2130706431 192.0.2.1 54321 typ host",
			SDPMid:        &mid,
			SDPMLineIndex: &index,
		}),
		NewSignaling("alice", "", json.RawMessage(`{"hello":"room"}`)),
	}

	for _, original := range envelopes {
		decoded, err := Decode(original.Encode())
		if err != nil {
			t.Fatalf("%s: decode failed: %v", original.MessageType, err)
		}
		if decoded.MessageType != original.MessageType {
			t.Errorf("message type changed: %s != %s", decoded.MessageType, original.MessageType)
		}
		if decoded.SenderID != original.SenderID || decoded.TargetID != original.TargetID {
			t.Errorf("%s: routing fields changed in round trip", original.MessageType)
		}
		if string(decoded.Message) != string(original.Message) {
			t.Errorf("%s: body changed: %s != %s", original.MessageType, decoded.Message, original.Message)
		}
	}
}

func TestCandidateRoundTrip(t *testing.T) {
	mid := "audio"
	index := uint16(1)
	original := CandidatePayload{
		Candidate:     "candidate:2 1 udp 1694498815 198.51.100.4 61234 typ srflx",
		SDPMid:        &mid,
		SDPMLineIndex: &index,
	}

	env := NewCandidate("alice", "bob", original)
	decoded, err := Decode(env.Encode())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	candidate, err := decoded.Candidate()
	if err != nil {
		t.Fatalf("candidate body failed: %v", err)
	}
	if !reflect.DeepEqual(candidate, original) {
		t.Errorf("candidate changed in round trip: %+v != %+v", candidate, original)
	}
}

func TestDecodeUnknownMessageType(t *testing.T) {
	_, err := Decode([]byte(`{"messageType":"teleport","senderID":"alice"}`))
	if !errors.Is(err, ErrMalformedEnvelope) {
		t.Fatalf("expected ErrMalformedEnvelope, got %v", err)
	}
}

func TestDecodeMismatchedPayload(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"offer without sdp", `{"messageType":"offer","senderID":"alice","message":{"type":"offer"}}`},
		{"answer with junk body", `{"messageType":"answer","senderID":"alice","message":"not an object"}`},
		{"candidate without candidate", `{"messageType":"iceCandidate","senderID":"alice","message":{"sdpMid":"0"}}`},
		{"not json at all", `{{{{`},
	}

	for _, tc := range cases {
		_, err := Decode([]byte(tc.raw))
		if !errors.Is(err, ErrMalformedEnvelope) {
			t.Errorf("%s: expected ErrMalformedEnvelope, got %v", tc.name, err)
		}
	}
}

func TestDecodeNeverPartial(t *testing.T) {
	env, err := Decode([]byte(`{"messageType":"offer","senderID":"alice","message":{"type":"offer"}}`))
	if err == nil {
		t.Fatal("expected decode to fail")
	}
	if env.SenderID != "" || env.MessageType != "" {
		t.Errorf("expected zero envelope on failure, got %+v", env)
	}
}
