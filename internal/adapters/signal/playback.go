package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/ekaraca/watchtogether/internal/app"
)

func (ctl *SignalWSController) handlePlayback(
	cl *client,
	kind string,
	data []byte,
) {
	type playbackPayload struct {
		Type     string  `json:"type"`
		Position float64 `json:"position"`
		Level    float64 `json:"level"`
		Name     string  `json:"name"`
	}
	var p playbackPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad playback payload")
		return
	}

	ev := app.PlaybackEvent{Position: p.Position, Level: p.Level, AssetName: p.Name}
	switch kind {
	case "play":
		ev.Kind = app.PlaybackPlay
	case "pause":
		ev.Kind = app.PlaybackPause
	case "seek":
		ev.Kind = app.PlaybackSeek
	case "mute":
		ev.Kind = app.PlaybackMute
	case "unmute":
		ev.Kind = app.PlaybackUnmute
	case "volume-change":
		ev.Kind = app.PlaybackVolume
	case "select-asset":
		ev.Kind = app.PlaybackSelectAsset
	default:
		log.Warn().Str("module", "signal").Str("kind", kind).Msg("unknown playback kind")
		return
	}

	ctl.Orch.ApplyPlayback(cl.id, ev)
}
