package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *wsSignalConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cl *client) {
	defer func() {
		log.Info().Str("module", "signal").Str("id", string(cl.id)).Msg("readPump closing")
		if cl.joined {
			ctl.Orch.OnDisconnect(cl.id)
		}
		cl.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("id", string(cl.id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := cl.conn.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("id", string(cl.id)).Msg("readPump read error")
				return
			}
			ctl.handleSignal(cl, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(cl *client, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	snippet := string(data)
	if len(snippet) > 100 {
		snippet = snippet[:100] + "..."
	}
	log.Debug().Str("module", "signal").Str("id", string(cl.id)).Str("type", env.Type).Str("data", snippet).Msg("inbound")

	if env.Type == "join" {
		ctl.handleJoin(cl, data)
		return
	}
	if env.Type == "ping" {
		ctl.handlePing(cl.conn)
		return
	}
	if !cl.joined {
		log.Warn().Str("module", "signal").Str("id", string(cl.id)).Str("type", env.Type).Msg("signal before join")
		return
	}

	switch env.Type {
	case "toggle-media":
		ctl.handleToggleMedia(cl, data)
	case "play", "pause", "seek", "mute", "unmute", "volume-change", "select-asset":
		ctl.handlePlayback(cl, env.Type, data)
	case "initiate-call":
		ctl.handleInitiateCall(cl, data)
	case "accept-call":
		ctl.handleAcceptCall(cl, data)
	case "reject-call":
		ctl.handleRejectCall(cl, data)
	case "end-call":
		ctl.handleEndCall(cl, data)
	case "ice-candidate":
		ctl.handleCandidate(cl, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

func (ctl *SignalWSController) sendJSON(c *wsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
