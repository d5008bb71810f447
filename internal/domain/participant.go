// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
)

const MaxDisplayNameLen = 36

var (
	ErrNameTooLong = errors.New("display name too long")
	ErrNameEmpty   = errors.New("display name empty")
)

type ParticipantID string

// Participant is one admitted connection. Media flags mirror what the
// client currently advertises, they are not a promise of working tracks.
type Participant struct {
	ID          ParticipantID `json:"id"`
	DisplayName string        `json:"displayName"`
	HasAudio    bool          `json:"hasAudio"`
	HasVideo    bool          `json:"hasVideo"`
}

// NewParticipant is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewParticipant(id ParticipantID, displayName string) (*Participant, error) {
	if len(displayName) == 0 {
		return nil, ErrNameEmpty
	}
	if len(displayName) > MaxDisplayNameLen {
		return nil, ErrNameTooLong
	}
	return &Participant{ID: id, DisplayName: displayName}, nil
}

// HasMedia reports whether the participant advertises at least one track.
func (p *Participant) HasMedia() bool {
	return p.HasAudio || p.HasVideo
}
