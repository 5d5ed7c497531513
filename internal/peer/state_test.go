package peer

import "testing"

func TestStateString(t *testing.T) {
	if StateNew.String() != "New" {
		t.Errorf("expected New, got %s", StateNew)
	}
	if StateConnected.String() != "Connected" {
		t.Errorf("expected Connected, got %s", StateConnected)
	}
	if NegotiationState(99).String() != "Unknown" {
		t.Errorf("expected Unknown for out-of-range state")
	}
}

func TestTerminalStates(t *testing.T) {
	terminals := map[NegotiationState]bool{
		StateNew:            false,
		StateOfferSent:      false,
		StateOfferReceived:  false,
		StateAnswerSent:     false,
		StateAnswerReceived: false,
		StateIceExchanging:  false,
		StateConnected:      false,
		StateFailed:         true,
		StateClosed:         true,
	}

	for state, want := range terminals {
		if state.Terminal() != want {
			t.Errorf("%s: Terminal() = %v, want %v", state, state.Terminal(), want)
		}
	}
}

func TestGlareTieBreakIsDeterministic(t *testing.T) {
	// Exactly one side of a simultaneous offer may yield: the
	// lexicographically larger participant ID.
	if shouldYield("alice", "bob") {
		t.Error("smaller ID must keep the offerer role")
	}
	if !shouldYield("bob", "alice") {
		t.Error("larger ID must yield and answer")
	}

	// Both sides of the same pair always agree on who yields.
	pairs := [][2]string{
		{"a1b2", "c3d4"},
		{"zzz", "aaa"},
		{"0f3e", "0f3f"},
	}
	for _, pair := range pairs {
		if shouldYield(pair[0], pair[1]) == shouldYield(pair[1], pair[0]) {
			t.Errorf("pair %v: both sides resolved glare the same way", pair)
		}
	}
}
