package app

import "github.com/ekaraca/watchtogether/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickParticipant
	DropFrame
)

// Policy decides what to do with a connection whose send buffer is full.
type Policy interface {
	OnBackpressure(id domain.ParticipantID) BackpressureAction
}

// DropPolicy drops the frame. Every broadcast carries full state, so a
// slow reader re-converges on the next one instead of being kicked.
type DropPolicy struct{}

func (DropPolicy) OnBackpressure(id domain.ParticipantID) BackpressureAction {
	return DropFrame
}
