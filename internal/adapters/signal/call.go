package signal

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/ekaraca/watchtogether/internal/domain"
)

type peerPayload struct {
	Type   string `json:"type"`
	PeerID string `json:"peerId"`
}

func (ctl *SignalWSController) handleInitiateCall(
	cl *client,
	data []byte,
) {
	var p peerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad initiate-call payload")
		return
	}
	ctl.Orch.InitiateCall(cl.id, domain.ParticipantID(p.PeerID))
}

func (ctl *SignalWSController) handleAcceptCall(
	cl *client,
	data []byte,
) {
	type acceptPayload struct {
		Type   string `json:"type"`
		PeerID string `json:"peerId"`
		Signal struct {
			Type string `json:"type"`
			SDP  string `json:"sdp"`
		} `json:"signal"`
	}
	var p acceptPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad accept-call payload")
		return
	}
	signal := webrtc.SessionDescription{
		Type: webrtc.NewSDPType(p.Signal.Type),
		SDP:  p.Signal.SDP,
	}
	ctl.Orch.AcceptCall(cl.id, domain.ParticipantID(p.PeerID), signal)
}

func (ctl *SignalWSController) handleRejectCall(
	cl *client,
	data []byte,
) {
	var p peerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad reject-call payload")
		return
	}
	ctl.Orch.RejectCall(cl.id, domain.ParticipantID(p.PeerID))
}

func (ctl *SignalWSController) handleEndCall(
	cl *client,
	data []byte,
) {
	var p peerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad end-call payload")
		return
	}
	ctl.Orch.EndCall(cl.id, domain.ParticipantID(p.PeerID))
}

func (ctl *SignalWSController) handleCandidate(
	cl *client,
	data []byte,
) {
	type candidatePayload struct {
		Type          string `json:"type"`
		PeerID        string `json:"peerId"`
		Candidate     string `json:"candidate"`
		SDPMid        string `json:"sdpMid"`
		SDPMLineIndex uint16 `json:"sdpMLineIndex"`
	}
	var p candidatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
		return
	}

	cand := webrtc.ICECandidateInit{
		Candidate: p.Candidate,
	}
	if p.SDPMid != "" {
		cand.SDPMid = &p.SDPMid
	}
	cand.SDPMLineIndex = &p.SDPMLineIndex

	ctl.Orch.RelayCandidate(cl.id, domain.ParticipantID(p.PeerID), cand)
}
