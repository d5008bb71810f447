package app

import (
	"github.com/rs/zerolog/log"

	"github.com/ekaraca/watchtogether/internal/core"
	"github.com/ekaraca/watchtogether/internal/domain"
)

type joinResult struct {
	participant domain.Participant
	err         error
}

// Join runs the admission sequence and blocks until the dispatch loop has
// decided. On rejection nothing is mutated and the caller must close the
// connection rather than leave it half-admitted.
func (o *Orchestrator) Join(id domain.ParticipantID, displayName string, conn core.SignalConnection) (domain.Participant, error) {
	reply := make(chan joinResult, 1)
	o.Post(func() {
		p, err := o.Roster.Admit(id, displayName)
		if err != nil {
			reply <- joinResult{err: err}
			return
		}
		o.conns[id] = conn

		o.send(id, "welcome", p)
		o.broadcast("roster-updated", o.Roster.Participants())
		o.send(id, "playback-state", o.Playback.State())
		o.send(id, "upload-status", uploadStatus{Active: o.Uploads.Active()})
		o.broadcastAssets()

		reply <- joinResult{participant: p}
	})
	res := <-reply
	return res.participant, res.err
}

type uploadStatus struct {
	Active bool `json:"active"`
}

// ToggleMedia updates the advertised tracks and re-broadcasts the full
// roster so every view converges without diffing.
func (o *Orchestrator) ToggleMedia(id domain.ParticipantID, hasAudio, hasVideo bool) {
	o.Post(func() {
		if !o.Roster.UpdateCapabilities(id, hasAudio, hasVideo) {
			return
		}
		o.broadcast("roster-updated", o.Roster.Participants())
	})
}

// OnDisconnect tears down everything a vanished participant held: live
// calls end implicitly, the roster shrinks, and an emptied session resets
// the playback snapshot to defaults.
func (o *Orchestrator) OnDisconnect(id domain.ParticipantID) {
	o.Post(func() {
		if _, ok := o.Roster.Get(id); !ok {
			return
		}
		o.deliver(o.Calls.DropParticipant(id))
		o.Roster.Remove(id)
		delete(o.conns, id)
		o.broadcast("roster-updated", o.Roster.Participants())
		if o.Roster.Size() == 0 {
			o.Playback.Reset()
			log.Info().Str("module", "app.orchestrator").Msg("roster empty, playback reset")
		}
	})
}
