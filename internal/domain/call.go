package domain

import (
	"strings"
	"time"
)

// PairKey identifies the unordered pair of participants in a call, so at
// most one session can exist per pair regardless of who initiated.
type PairKey string

// NewPairKey canonicalizes the pair by sorting the two ids.
func NewPairKey(a, b ParticipantID) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey(strings.Join([]string{string(a), string(b)}, "_"))
}

type CallState int

const (
	CallIdle CallState = iota
	CallPending
	CallActive
	CallEnded
)

func (s CallState) String() string {
	switch s {
	case CallIdle:
		return "idle"
	case CallPending:
		return "pending"
	case CallActive:
		return "active"
	case CallEnded:
		return "ended"
	}
	return "unknown"
}

// CallSession is one pairwise call. Caller is the initiating side.
type CallSession struct {
	Caller    ParticipantID
	Callee    ParticipantID
	State     CallState
	CreatedAt time.Time
}

func (s *CallSession) Key() PairKey { return NewPairKey(s.Caller, s.Callee) }

// Other returns the counterpart of id within the session pair.
func (s *CallSession) Other(id ParticipantID) (ParticipantID, bool) {
	switch id {
	case s.Caller:
		return s.Callee, true
	case s.Callee:
		return s.Caller, true
	}
	return "", false
}

// Involves reports whether id is one of the two parties.
func (s *CallSession) Involves(id ParticipantID) bool {
	return id == s.Caller || id == s.Callee
}
