package signal

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ekaraca/watchtogether/internal/app"
	"github.com/ekaraca/watchtogether/internal/core"
	"github.com/ekaraca/watchtogether/internal/domain"
	"github.com/ekaraca/watchtogether/internal/storage"
)

func newTestController(t *testing.T, maxParticipants int) *SignalWSController {
	t.Helper()
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	orch := app.NewOrchestrator(store, core.NewScheduler(), app.Options{
		MaxParticipants: maxParticipants,
		MaxStorageBytes: 1 << 30,
		CallTimeout:     time.Hour,
		RetentionAge:    24 * time.Hour,
		SweepInterval:   time.Hour,
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go orch.Run(ctx)

	return NewSignalWSController(orch)
}

func newTestClient(id string) *client {
	return &client{
		id:   domain.ParticipantID(id),
		conn: &wsSignalConn{send: make(chan core.Frame, 32)},
	}
}

func flush(ctl *SignalWSController) {
	done := make(chan struct{})
	ctl.Orch.Post(func() { close(done) })
	<-done
}

// drain empties the client's send buffer and returns the event types seen.
func drain(cl *client) []string {
	var out []string
	for {
		select {
		case f, ok := <-cl.conn.send:
			if !ok {
				return out
			}
			var env struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(f, &env) == nil {
				out = append(out, env.Type)
			}
		default:
			return out
		}
	}
}

func TestHandleSignalJoinThenPlayback(t *testing.T) {
	req := require.New(t)
	ctl := newTestController(t, 2)
	cl := newTestClient("a")

	ctl.handleSignal(cl, []byte(`{"type":"join","name":"alice"}`))
	req.True(cl.joined)
	flush(ctl)
	events := drain(cl)
	req.Contains(events, "welcome")
	req.Contains(events, "roster-updated")
	req.Contains(events, "playback-state")

	ctl.handleSignal(cl, []byte(`{"type":"seek","position":10.5}`))
	flush(ctl)
	req.Equal(10.5, ctl.Orch.Playback.State().PositionSeconds)
	req.Equal(domain.ParticipantID("a"), ctl.Orch.Playback.State().LastWriterID)

	ctl.handleSignal(cl, []byte(`{"type":"select-asset","name":"movie.mp4"}`))
	flush(ctl)
	req.Equal("movie.mp4", ctl.Orch.Playback.State().CurrentAssetName)
}

func TestHandleSignalIgnoresEventsBeforeJoin(t *testing.T) {
	req := require.New(t)
	ctl := newTestController(t, 2)
	cl := newTestClient("a")

	ctl.handleSignal(cl, []byte(`{"type":"seek","position":10}`))
	flush(ctl)
	req.Zero(ctl.Orch.Playback.State().PositionSeconds)

	// ping is answered even before admission.
	ctl.handleSignal(cl, []byte(`{"type":"ping"}`))
	req.Contains(drain(cl), "pong")
}

func TestHandleSignalRejectsWhenFull(t *testing.T) {
	req := require.New(t)
	ctl := newTestController(t, 1)

	first := newTestClient("a")
	ctl.handleSignal(first, []byte(`{"type":"join","name":"alice"}`))
	req.True(first.joined)

	second := newTestClient("b")
	ctl.handleSignal(second, []byte(`{"type":"join","name":"bob"}`))
	req.False(second.joined)
	req.Equal(1, ctl.Orch.Roster.Size())

	events := drain(second)
	req.Contains(events, "admission-rejected")
}

func TestHandleSignalToggleMedia(t *testing.T) {
	req := require.New(t)
	ctl := newTestController(t, 2)
	cl := newTestClient("a")

	ctl.handleSignal(cl, []byte(`{"type":"join","name":"alice"}`))
	ctl.handleSignal(cl, []byte(`{"type":"toggle-media","hasAudio":true,"hasVideo":false}`))
	flush(ctl)

	p, ok := ctl.Orch.Roster.Get("a")
	req.True(ok)
	req.True(p.HasAudio)
	req.False(p.HasVideo)
}

func TestTrySendAfterCloseReturnsError(t *testing.T) {
	req := require.New(t)
	conn := &wsSignalConn{send: make(chan core.Frame, 1)}

	req.NoError(conn.TrySend(core.Frame(`{"type":"pong"}`)))
	conn.Close()

	// A broadcast racing the read pump's teardown gets an error back,
	// not a send on a closed channel.
	req.ErrorIs(conn.TrySend(core.Frame(`{"type":"pong"}`)), ErrConnectionClosed)

	// Close is idempotent; a second call must not re-close the channel.
	conn.Close()
	req.ErrorIs(conn.TrySend(core.Frame(`{}`)), ErrConnectionClosed)
}

func TestHandleSignalBadJSONIsIgnored(t *testing.T) {
	req := require.New(t)
	ctl := newTestController(t, 2)
	cl := newTestClient("a")

	ctl.handleSignal(cl, []byte(`{not json`))
	req.False(cl.joined)
	req.Empty(drain(cl))
}
