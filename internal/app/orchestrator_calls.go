package app

import (
	"errors"

	"github.com/pion/webrtc/v4"

	"github.com/ekaraca/watchtogether/internal/domain"
)

// InitiateCall starts a call towards peer; rejections go back to the
// caller as a call-error event, never as a dropped message.
func (o *Orchestrator) InitiateCall(from, peer domain.ParticipantID) {
	o.Post(func() {
		notices, err := o.Calls.Initiate(from, peer, o.now())
		o.deliverOrError(from, notices, err)
	})
}

// AcceptCall answers a pending call, relaying the SDP answer.
func (o *Orchestrator) AcceptCall(from, peer domain.ParticipantID, signal webrtc.SessionDescription) {
	o.Post(func() {
		notices, err := o.Calls.Accept(from, peer, signal)
		o.deliverOrError(from, notices, err)
	})
}

// RejectCall declines a pending call.
func (o *Orchestrator) RejectCall(from, peer domain.ParticipantID) {
	o.Post(func() {
		notices, err := o.Calls.Reject(from, peer)
		o.deliverOrError(from, notices, err)
	})
}

// EndCall hangs up from either side.
func (o *Orchestrator) EndCall(from, peer domain.ParticipantID) {
	o.Post(func() {
		notices, err := o.Calls.End(from, peer)
		o.deliverOrError(from, notices, err)
	})
}

// RelayCandidate forwards an ICE candidate; stray ones vanish silently.
func (o *Orchestrator) RelayCandidate(from, peer domain.ParticipantID, candidate webrtc.ICECandidateInit) {
	o.Post(func() {
		o.deliver(o.Calls.RelayCandidate(from, peer, candidate))
	})
}

type callErrorPayload struct {
	Reason string `json:"reason"`
}

func (o *Orchestrator) deliverOrError(from domain.ParticipantID, notices []Notice, err error) {
	if err != nil {
		var ce *CallError
		reason := "internal error"
		if errors.As(err, &ce) {
			reason = ce.Reason
		}
		o.send(from, "call-error", callErrorPayload{Reason: reason})
		return
	}
	o.deliver(notices)
}
