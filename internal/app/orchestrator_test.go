package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"

	"github.com/ekaraca/watchtogether/internal/core"
	"github.com/ekaraca/watchtogether/internal/domain"
	"github.com/ekaraca/watchtogether/internal/storage"
)

type recordedFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type fakeConn struct {
	mu     sync.Mutex
	frames []recordedFrame
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var rec recordedFrame
	if err := json.Unmarshal(f, &rec); err != nil {
		return err
	}
	c.frames = append(c.frames, rec)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, f.Type)
	}
	return out
}

func (c *fakeConn) last(event string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.frames) - 1; i >= 0; i-- {
		if c.frames[i].Type == event {
			return c.frames[i].Data, true
		}
	}
	return nil, false
}

func (c *fakeConn) count(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, f := range c.frames {
		if f.Type == event {
			n++
		}
	}
	return n
}

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	o := NewOrchestrator(store, core.NewScheduler(), Options{
		MaxParticipants:   2,
		MaxStorageBytes:   1 << 30,
		MaxUploadBytes:    1 << 30,
		CallTimeout:       time.Hour,
		BroadcastDebounce: 0,
		ProgressInterval:  0,
		RetentionAge:      24 * time.Hour,
		SweepInterval:     time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go o.Run(ctx)
	return o
}

// flush waits until every previously posted closure has been dispatched.
func flush(o *Orchestrator) {
	done := make(chan struct{})
	o.Post(func() { close(done) })
	<-done
}

func TestOrchestratorSessionScenario(t *testing.T) {
	req := require.New(t)
	o := newTestOrchestrator(t)

	connA, connB, connC := &fakeConn{}, &fakeConn{}, &fakeConn{}

	// A joins alone.
	pa, err := o.Join("a", "alice", connA)
	req.NoError(err)
	req.Equal(domain.ParticipantID("a"), pa.ID)
	req.Contains(connA.events(), "welcome")
	req.Contains(connA.events(), "playback-state")
	req.Contains(connA.events(), "upload-status")

	roster, ok := connA.last("roster-updated")
	req.True(ok)
	var participants []domain.Participant
	req.NoError(json.Unmarshal(roster, &participants))
	req.Len(participants, 1)

	// B joins; both see a two-entry roster.
	_, err = o.Join("b", "bob", connB)
	req.NoError(err)
	flush(o)
	roster, _ = connA.last("roster-updated")
	req.NoError(json.Unmarshal(roster, &participants))
	req.Len(participants, 2)

	// The third admission is rejected and the roster unchanged.
	_, err = o.Join("c", "carol", connC)
	req.ErrorIs(err, ErrRosterFull)
	req.Equal(2, o.Roster.Size())

	// A advertises audio so the call check passes; B follows.
	o.ToggleMedia("a", true, true)
	o.ToggleMedia("b", true, false)
	flush(o)

	// A calls B, B accepts.
	o.InitiateCall("a", "b")
	flush(o)
	req.Equal(1, connB.count("incoming-call"))
	s, ok := o.Calls.Session("a", "b")
	req.True(ok)
	req.Equal(domain.CallPending, s.State)

	o.AcceptCall("b", "a", webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0"})
	flush(o)
	req.Equal(1, connA.count("call-accepted"))
	s, _ = o.Calls.Session("a", "b")
	req.Equal(domain.CallActive, s.State)

	// Calling again while active is a call-error back to the caller.
	o.InitiateCall("a", "b")
	flush(o)
	data, ok := connA.last("call-error")
	req.True(ok)
	var ce callErrorPayload
	req.NoError(json.Unmarshal(data, &ce))
	req.Equal("already in a call", ce.Reason)

	// A selects an asset: playback restarts, only B is notified.
	before := connA.count("playback-state")
	o.ApplyPlayback("a", PlaybackEvent{Kind: PlaybackSelectAsset, AssetName: "movie.mp4"})
	flush(o)
	req.Equal(before, connA.count("playback-state"))
	data, ok = connB.last("playback-state")
	req.True(ok)
	var state domain.PlaybackState
	req.NoError(json.Unmarshal(data, &state))
	req.Equal("movie.mp4", state.CurrentAssetName)
	req.False(state.IsPlaying)
	req.Zero(state.PositionSeconds)

	// A starts playback at 12.5.
	o.ApplyPlayback("a", PlaybackEvent{Kind: PlaybackPlay, Position: 12.5})
	flush(o)
	req.True(o.Playback.State().IsPlaying)
	req.Equal(12.5, o.Playback.State().PositionSeconds)
	req.Equal(domain.ParticipantID("a"), o.Playback.State().LastWriterID)

	// B disconnects: call ends implicitly, roster shrinks to A.
	o.OnDisconnect("b")
	flush(o)
	req.Equal(1, connA.count("call-ended"))
	_, ok = o.Calls.Session("a", "b")
	req.False(ok)
	req.Equal(1, o.Roster.Size())

	// Last one out resets the shared playback snapshot.
	o.OnDisconnect("a")
	flush(o)
	req.Zero(o.Roster.Size())
	req.Equal(domain.DefaultPlaybackState(), o.Playback.State())
}

func TestOrchestratorPlaybackFromUnknownOriginIgnored(t *testing.T) {
	req := require.New(t)
	o := newTestOrchestrator(t)

	conn := &fakeConn{}
	_, err := o.Join("a", "alice", conn)
	req.NoError(err)

	o.ApplyPlayback("ghost", PlaybackEvent{Kind: PlaybackPlay, Position: 5})
	flush(o)
	req.False(o.Playback.State().IsPlaying)
}

func TestOrchestratorUploadFlow(t *testing.T) {
	req := require.New(t)
	o := newTestOrchestrator(t)

	connA, connB := &fakeConn{}, &fakeConn{}
	_, err := o.Join("a", "alice", connA)
	req.NoError(err)
	_, err = o.Join("b", "bob", connB)
	req.NoError(err)

	req.False(o.UploadActive())

	target, err := o.AdmitUpload(1000, 0, "movie.mp4")
	req.NoError(err)
	req.Contains(target, "movie.mp4")
	req.True(o.UploadActive())
	flush(o)
	req.Equal(1, connA.count("upload-start"))
	req.Equal(1, connB.count("upload-start"))

	// Second admission conflicts while the slot is held.
	_, err = o.AdmitUpload(10, 0, "other.mp4")
	req.ErrorIs(err, ErrUploadConflict)

	o.UploadProgress(500)
	flush(o)
	data, ok := connB.last("upload-progress")
	req.True(ok)
	var sample ProgressSample
	req.NoError(json.Unmarshal(data, &sample))
	req.Equal(50, sample.Percent)

	o.FinishUpload(target, true)
	req.False(o.UploadActive())
	flush(o)
	data, ok = connA.last("upload-end")
	req.True(ok)
	var end uploadEnd
	req.NoError(json.Unmarshal(data, &end))
	req.Equal(target, end.Filename)

	// A successful finish closes the bar at 100 even though the request
	// body is framed larger than the part.
	data, ok = connB.last("upload-progress")
	req.True(ok)
	req.NoError(json.Unmarshal(data, &sample))
	req.Equal(100, sample.Percent)

	// The slot is free again.
	_, err = o.AdmitUpload(10, 0, "other.mp4")
	req.NoError(err)
	o.FinishUpload("", false)
}
