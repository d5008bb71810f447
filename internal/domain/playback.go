package domain

import "time"

// PlaybackState is the single shared view of the player. It is always
// replaced as a whole snapshot, never field by field, so readers can
// never observe a half-applied update.
type PlaybackState struct {
	IsPlaying        bool          `json:"isPlaying"`
	PositionSeconds  float64       `json:"positionSeconds"`
	Muted            bool          `json:"muted"`
	Volume           float64       `json:"volume"`
	CurrentAssetName string        `json:"currentAssetName,omitempty"`
	LastWriterID     ParticipantID `json:"lastWriterId,omitempty"`
	LastWriteAt      time.Time     `json:"-"`
}

// DefaultPlaybackState is the state a fresh or emptied session starts from.
func DefaultPlaybackState() PlaybackState {
	return PlaybackState{Volume: 1}
}
