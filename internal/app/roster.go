package app

import (
	"github.com/rs/zerolog/log"

	"github.com/ekaraca/watchtogether/internal/domain"
)

// Roster tracks admitted participants in insertion order. It is owned by
// the orchestrator's dispatch goroutine and is not safe for concurrent use.
type Roster struct {
	capacity int
	order    []domain.ParticipantID
	byID     map[domain.ParticipantID]*domain.Participant
}

func NewRoster(capacity int) *Roster {
	return &Roster{
		capacity: capacity,
		byID:     make(map[domain.ParticipantID]*domain.Participant),
	}
}

// Admit adds a participant, checking capacity before touching any state.
func (r *Roster) Admit(id domain.ParticipantID, displayName string) (domain.Participant, error) {
	if len(r.order) >= r.capacity {
		return domain.Participant{}, ErrRosterFull
	}
	p, err := domain.NewParticipant(id, displayName)
	if err != nil {
		return domain.Participant{}, err
	}
	r.byID[id] = p
	r.order = append(r.order, id)
	log.Info().Str("module", "app.roster").Str("id", string(id)).Str("name", displayName).Msg("participant admitted")
	return *p, nil
}

// UpdateCapabilities records the media tracks a participant advertises.
func (r *Roster) UpdateCapabilities(id domain.ParticipantID, hasAudio, hasVideo bool) bool {
	p, ok := r.byID[id]
	if !ok {
		return false
	}
	p.HasAudio = hasAudio
	p.HasVideo = hasVideo
	log.Info().Str("module", "app.roster").Str("id", string(id)).Bool("audio", hasAudio).Bool("video", hasVideo).Msg("capabilities updated")
	return true
}

// Remove drops a participant; unknown ids are a no-op.
func (r *Roster) Remove(id domain.ParticipantID) {
	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	log.Info().Str("module", "app.roster").Str("id", string(id)).Msg("participant removed")
}

// Get returns a read-only copy of one participant.
func (r *Roster) Get(id domain.ParticipantID) (domain.Participant, bool) {
	p, ok := r.byID[id]
	if !ok {
		return domain.Participant{}, false
	}
	return *p, true
}

// Participants returns value copies in insertion order, so every broadcast
// sees the same deterministic sequence.
func (r *Roster) Participants() []domain.Participant {
	out := make([]domain.Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out
}

func (r *Roster) Size() int { return len(r.order) }
