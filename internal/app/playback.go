package app

import (
	"time"

	"github.com/ekaraca/watchtogether/internal/domain"
)

// PlaybackEventKind is the closed set of playback commands. Dispatch is a
// switch over this enum so a new command can't be forgotten silently.
type PlaybackEventKind int

const (
	PlaybackPlay PlaybackEventKind = iota
	PlaybackPause
	PlaybackSeek
	PlaybackMute
	PlaybackUnmute
	PlaybackVolume
	PlaybackSelectAsset
)

// PlaybackEvent is one inbound playback command.
type PlaybackEvent struct {
	Kind      PlaybackEventKind
	Position  float64
	Level     float64
	AssetName string
}

// Replicator holds the single authoritative playback snapshot and merges
// commands with last-writer-wins semantics. Owned by the dispatch loop.
type Replicator struct {
	state    domain.PlaybackState
	debounce time.Duration

	// lastSent tracks the previous broadcast per debounced event kind.
	lastSent map[PlaybackEventKind]time.Time
}

func NewReplicator(debounce time.Duration) *Replicator {
	return &Replicator{
		state:    domain.DefaultPlaybackState(),
		debounce: debounce,
		lastSent: make(map[PlaybackEventKind]time.Time),
	}
}

// State returns the current snapshot.
func (r *Replicator) State() domain.PlaybackState { return r.state }

// Reset restores defaults, used when the roster becomes empty.
func (r *Replicator) Reset() {
	r.state = domain.DefaultPlaybackState()
	r.lastSent = make(map[PlaybackEventKind]time.Time)
}

// Apply merges one event and stamps the writer. The event is always
// applied; the returned broadcast flag is false when a high-frequency
// kind fires inside its debounce window. The next accepted tick carries
// the freshest state, so suppression never loses the final value.
func (r *Replicator) Apply(ev PlaybackEvent, origin domain.ParticipantID, now time.Time) (domain.PlaybackState, bool) {
	next := r.state
	switch ev.Kind {
	case PlaybackPlay:
		next.IsPlaying = true
		next.PositionSeconds = ev.Position
	case PlaybackPause:
		next.IsPlaying = false
		next.PositionSeconds = ev.Position
	case PlaybackSeek:
		next.PositionSeconds = ev.Position
	case PlaybackMute:
		next.Muted = true
	case PlaybackUnmute:
		next.Muted = false
	case PlaybackVolume:
		next.Volume = clampVolume(ev.Level)
	case PlaybackSelectAsset:
		// Changing videos always restarts playback.
		next.CurrentAssetName = ev.AssetName
		next.IsPlaying = false
		next.PositionSeconds = 0
	}
	next.LastWriterID = origin
	next.LastWriteAt = now
	r.state = next

	return next, r.shouldBroadcast(ev.Kind, now)
}

func (r *Replicator) shouldBroadcast(kind PlaybackEventKind, now time.Time) bool {
	switch kind {
	case PlaybackSeek, PlaybackVolume:
	default:
		return true
	}
	if last, ok := r.lastSent[kind]; ok && now.Sub(last) < r.debounce {
		return false
	}
	r.lastSent[kind] = now
	return true
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
