package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(
	cl *client,
	data []byte,
) {
	if cl.joined {
		ctl.sendJSON(cl.conn, map[string]any{
			"type":  "error",
			"error": "already joined",
		})
		return
	}
	type joinPayload struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(cl.conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	log.Info().Str("module", "signal").Str("id", string(cl.id)).Str("name", p.Name).Msg("join")
	if _, err := ctl.Orch.Join(cl.id, p.Name, cl.conn); err != nil {
		// The rejected connection is terminated, not left in limbo.
		log.Info().Err(err).Str("module", "signal").Str("id", string(cl.id)).Msg("admission rejected")
		ctl.sendJSON(cl.conn, struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		}{
			Type:   "admission-rejected",
			Reason: err.Error(),
		})
		cl.conn.Close()
		return
	}
	cl.joined = true
}

func (ctl *SignalWSController) handleToggleMedia(
	cl *client,
	data []byte,
) {
	type togglePayload struct {
		Type     string `json:"type"`
		HasAudio bool   `json:"hasAudio"`
		HasVideo bool   `json:"hasVideo"`
	}
	var p togglePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad toggle-media payload")
		return
	}
	ctl.Orch.ToggleMedia(cl.id, p.HasAudio, p.HasVideo)
}
