package peer

// NegotiationState tracks one peer connection through the offer/answer/ICE
// exchange.
//
//	New --sendOffer--> OfferSent --recvAnswer--> AnswerReceived --iceComplete--> Connected
//	New --recvOffer--> OfferReceived --sendAnswer--> AnswerSent --iceComplete--> Connected
//
// Candidates arriving in any non-terminal state leave the state unchanged;
// a transport error from any non-terminal state lands in Failed.
type NegotiationState int

const (
	StateNew NegotiationState = iota
	StateOfferSent
	StateOfferReceived
	StateAnswerSent
	StateAnswerReceived
	StateIceExchanging
	StateConnected
	StateFailed
	StateClosed
)

var stateNames = map[NegotiationState]string{
	StateNew:            "New",
	StateOfferSent:      "OfferSent",
	StateOfferReceived:  "OfferReceived",
	StateAnswerSent:     "AnswerSent",
	StateAnswerReceived: "AnswerReceived",
	StateIceExchanging:  "IceExchanging",
	StateConnected:      "Connected",
	StateFailed:         "Failed",
	StateClosed:         "Closed",
}

func (s NegotiationState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Terminal reports whether no further transitions are possible.
func (s NegotiationState) Terminal() bool {
	return s == StateFailed || s == StateClosed
}

// shouldYield resolves a simultaneous-offer collision (glare). The
// lexicographically smaller participant ID keeps the offerer role; the
// larger one discards its own offer and answers. Both sides compute the
// same answer, so exactly one offer survives.
func shouldYield(localID, remoteID string) bool {
	return localID > remoteID
}
