package app

import (
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/ekaraca/watchtogether/internal/core"
	"github.com/ekaraca/watchtogether/internal/domain"
)

// RosterView is the read-only slice of the roster the call coordinator
// needs: existence and capability checks, nothing else.
type RosterView interface {
	Get(id domain.ParticipantID) (domain.Participant, bool)
}

// Notice is one outbound message a component asks the orchestrator to
// deliver. Components never touch transport themselves.
type Notice struct {
	To      domain.ParticipantID
	Event   string
	Payload any
}

type callEntry struct {
	session domain.CallSession
	timer   core.TimerHandle
	gen     uint64
}

// CallCoordinator runs the per-pair call state machine and relays
// signaling payloads. Owned by the dispatch loop.
type CallCoordinator struct {
	roster   RosterView
	sched    core.Scheduler
	timeout  time.Duration
	expireFn func(key domain.PairKey, gen uint64)

	sessions map[domain.PairKey]*callEntry
	lastGen  uint64
}

// NewCallCoordinator wires the coordinator. expireFn is invoked by the armed
// timer when a pending call outlives timeout; the caller must route it back
// into the dispatch loop before calling Expire.
func NewCallCoordinator(roster RosterView, sched core.Scheduler, timeout time.Duration, expireFn func(domain.PairKey, uint64)) *CallCoordinator {
	return &CallCoordinator{
		roster:   roster,
		sched:    sched,
		timeout:  timeout,
		expireFn: expireFn,
		sessions: make(map[domain.PairKey]*callEntry),
	}
}

// Initiate starts a Pending session and notifies the callee. All checks
// run before any state is created, so a rejection leaves nothing behind.
func (c *CallCoordinator) Initiate(caller, callee domain.ParticipantID, now time.Time) ([]Notice, error) {
	callerInfo, ok := c.roster.Get(caller)
	if !ok {
		return nil, newCallError("caller unknown")
	}
	if _, ok := c.roster.Get(callee); !ok {
		return nil, newCallError("callee unknown")
	}
	if !callerInfo.HasMedia() {
		return nil, newCallError("no media")
	}
	for _, e := range c.sessions {
		if e.session.Involves(caller) || e.session.Involves(callee) {
			return nil, newCallError("already in a call")
		}
	}

	key := domain.NewPairKey(caller, callee)
	c.lastGen++
	entry := &callEntry{
		session: domain.CallSession{
			Caller:    caller,
			Callee:    callee,
			State:     domain.CallPending,
			CreatedAt: now,
		},
		gen: c.lastGen,
	}
	if c.sched != nil && c.expireFn != nil {
		gen := entry.gen
		entry.timer = c.sched.AfterFunc(c.timeout, func() { c.expireFn(key, gen) })
	}
	c.sessions[key] = entry
	log.Info().Str("module", "app.calls").Str("caller", string(caller)).Str("callee", string(callee)).Msg("call initiated")

	return []Notice{{To: callee, Event: "incoming-call", Payload: calleeIncoming{From: callerInfo}}}, nil
}

type calleeIncoming struct {
	From domain.Participant `json:"from"`
}

type callAccepted struct {
	From   domain.ParticipantID      `json:"from"`
	Signal webrtc.SessionDescription `json:"signal"`
}

// Accept moves a Pending session to Active and relays the answer payload
// to the caller. The expiry timer is revoked first, so a stale firing can
// never tear down the accepted call.
func (c *CallCoordinator) Accept(callee, caller domain.ParticipantID, signal webrtc.SessionDescription) ([]Notice, error) {
	entry, ok := c.pending(caller, callee)
	if !ok || entry.session.Callee != callee {
		return nil, newCallError("no pending call")
	}
	c.stopTimer(entry)
	entry.session.State = domain.CallActive
	log.Info().Str("module", "app.calls").Str("caller", string(caller)).Str("callee", string(callee)).Msg("call accepted")

	return []Notice{{To: caller, Event: "call-accepted", Payload: callAccepted{From: callee, Signal: signal}}}, nil
}

// Reject ends a Pending session and tells the caller.
func (c *CallCoordinator) Reject(callee, caller domain.ParticipantID) ([]Notice, error) {
	entry, ok := c.pending(caller, callee)
	if !ok || entry.session.Callee != callee {
		return nil, newCallError("no pending call")
	}
	c.remove(entry)
	log.Info().Str("module", "app.calls").Str("caller", string(caller)).Str("callee", string(callee)).Msg("call rejected")

	return []Notice{{To: caller, Event: "call-rejected", Payload: peerRef{Peer: callee}}}, nil
}

type peerRef struct {
	Peer domain.ParticipantID `json:"peerId"`
}

// Expire fires when a Pending call outlived its window. The generation
// guard makes a superseded timer a no-op even if it already left the
// scheduler before Stop.
func (c *CallCoordinator) Expire(key domain.PairKey, gen uint64) []Notice {
	entry, ok := c.sessions[key]
	if !ok || entry.gen != gen || entry.session.State != domain.CallPending {
		return nil
	}
	c.remove(entry)
	log.Info().Str("module", "app.calls").Str("key", string(key)).Msg("call timed out")

	return []Notice{
		{To: entry.session.Caller, Event: "call-timeout", Payload: peerRef{Peer: entry.session.Callee}},
		{To: entry.session.Callee, Event: "call-missed", Payload: peerRef{Peer: entry.session.Caller}},
	}
}

type iceRelay struct {
	From      domain.ParticipantID    `json:"from"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

// RelayCandidate forwards an ICE candidate between the two parties of a
// live session. Stray candidates (no session, wrong parties, call already
// over) are dropped silently: they are expected and harmless.
func (c *CallCoordinator) RelayCandidate(from, to domain.ParticipantID, candidate webrtc.ICECandidateInit) []Notice {
	entry, ok := c.sessions[domain.NewPairKey(from, to)]
	if !ok || !entry.session.Involves(from) || !entry.session.Involves(to) {
		log.Debug().Str("module", "app.calls").Str("from", string(from)).Msg("stray candidate dropped")
		return nil
	}
	if entry.session.State != domain.CallPending && entry.session.State != domain.CallActive {
		return nil
	}
	return []Notice{{To: to, Event: "ice-candidate", Payload: iceRelay{From: from, Candidate: candidate}}}
}

// End terminates a Pending or Active session from either side.
func (c *CallCoordinator) End(from, other domain.ParticipantID) ([]Notice, error) {
	entry, ok := c.sessions[domain.NewPairKey(from, other)]
	if !ok || !entry.session.Involves(from) {
		return nil, newCallError("no such call")
	}
	c.remove(entry)
	log.Info().Str("module", "app.calls").Str("from", string(from)).Str("other", string(other)).Msg("call ended")

	return []Notice{{To: other, Event: "call-ended", Payload: peerRef{Peer: from}}}, nil
}

// DropParticipant is the implicit end on disconnect: every live session
// involving id is torn down and the counterpart notified.
func (c *CallCoordinator) DropParticipant(id domain.ParticipantID) []Notice {
	var notices []Notice
	for _, entry := range c.sessions {
		if !entry.session.Involves(id) {
			continue
		}
		other, _ := entry.session.Other(id)
		c.remove(entry)
		notices = append(notices, Notice{To: other, Event: "call-ended", Payload: peerRef{Peer: id}})
	}
	return notices
}

// Session exposes the current state of a pair, mainly for tests.
func (c *CallCoordinator) Session(a, b domain.ParticipantID) (domain.CallSession, bool) {
	entry, ok := c.sessions[domain.NewPairKey(a, b)]
	if !ok {
		return domain.CallSession{}, false
	}
	return entry.session, true
}

func (c *CallCoordinator) pending(caller, callee domain.ParticipantID) (*callEntry, bool) {
	entry, ok := c.sessions[domain.NewPairKey(caller, callee)]
	if !ok || entry.session.State != domain.CallPending {
		return nil, false
	}
	return entry, true
}

func (c *CallCoordinator) remove(entry *callEntry) {
	c.stopTimer(entry)
	entry.session.State = domain.CallEnded
	delete(c.sessions, entry.session.Key())
}

func (c *CallCoordinator) stopTimer(entry *callEntry) {
	if entry.timer != nil {
		entry.timer.Stop()
		entry.timer = nil
	}
}
