package app

import "github.com/ekaraca/watchtogether/internal/domain"

// ApplyPlayback merges one playback command. The origin is excluded from
// the resulting broadcast; debounced kinds may apply without fanning out.
func (o *Orchestrator) ApplyPlayback(origin domain.ParticipantID, ev PlaybackEvent) {
	o.Post(func() {
		if _, ok := o.Roster.Get(origin); !ok {
			return
		}
		state, send := o.Playback.Apply(ev, origin, o.now())
		if send {
			o.broadcastExcept(origin, "playback-state", state)
		}
	})
}
