package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ekaraca/watchtogether/internal/core"
	"github.com/ekaraca/watchtogether/internal/domain"
	"github.com/ekaraca/watchtogether/internal/storage"
)

// OutboundTap observes every outbound frame before it is sent. It is a
// pure function stage, not a patched send primitive.
type OutboundTap func(to domain.ParticipantID, event string, frame core.Frame)

// LoggingTap logs outbound traffic with a bounded payload snippet.
func LoggingTap(to domain.ParticipantID, event string, frame core.Frame) {
	snippet := string(frame)
	if len(snippet) > 100 {
		snippet = snippet[:100] + "..."
	}
	log.Debug().Str("module", "app.orchestrator").Str("to", string(to)).Str("event", event).Str("data", snippet).Msg("outbound")
}

// Options carries the tunables the orchestrator needs from config.
type Options struct {
	MaxParticipants   int
	MaxStorageBytes   int64
	MaxUploadBytes    int64
	CallTimeout       time.Duration
	BroadcastDebounce time.Duration
	ProgressInterval  time.Duration
	RetentionAge      time.Duration
	SweepInterval     time.Duration
}

// Orchestrator is the single logical dispatch thread. All shared state
// (roster, playback snapshot, call table, upload slot) is mutated only by
// closures drained in Run, one at a time; adapters and timers Post work
// in, and long disk operations re-enter the loop through Post when done.
type Orchestrator struct {
	Roster   *Roster
	Playback *Replicator
	Calls    *CallCoordinator
	Uploads  *UploadController
	Sweeper  *Sweeper
	Store    *storage.Store
	Policy   Policy

	events        chan func()
	conns         map[domain.ParticipantID]core.SignalConnection
	tap           OutboundTap
	now           func() time.Time
	sweepInterval time.Duration
}

func NewOrchestrator(store *storage.Store, sched core.Scheduler, opts Options) *Orchestrator {
	o := &Orchestrator{
		Roster:        NewRoster(opts.MaxParticipants),
		Playback:      NewReplicator(opts.BroadcastDebounce),
		Uploads:       NewUploadController(opts.MaxStorageBytes, opts.MaxUploadBytes, opts.ProgressInterval),
		Store:         store,
		Policy:        DropPolicy{},
		events:        make(chan func(), 256),
		conns:         make(map[domain.ParticipantID]core.SignalConnection),
		tap:           LoggingTap,
		now:           time.Now,
		sweepInterval: opts.SweepInterval,
	}
	o.Calls = NewCallCoordinator(o.Roster, sched, opts.CallTimeout, func(key domain.PairKey, gen uint64) {
		o.Post(func() { o.deliver(o.Calls.Expire(key, gen)) })
	})
	o.Sweeper = NewSweeper(store, opts.RetentionAge)
	return o
}

// Post queues fn for the dispatch goroutine. Must not be called from
// inside a dispatched closure with a full queue; adapters call it from
// their own goroutines.
func (o *Orchestrator) Post(fn func()) {
	o.events <- fn
}

// Run drains the event queue until ctx is done. Exactly one Run must be
// active for the orchestrator's lifetime.
func (o *Orchestrator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.orchestrator").Msg("dispatch loop stopped")
			return
		case fn := <-o.events:
			fn()
		}
	}
}

// RunRetention fires the sweeper on a fixed interval. The active upload
// target is snapshotted on the loop, then the disk work runs off it.
func (o *Orchestrator) RunRetention(ctx context.Context) {
	ticker := time.NewTicker(o.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.Post(func() {
				target, _ := o.Uploads.ActiveTarget()
				now := o.now()
				go func() {
					if removed := o.Sweeper.Sweep(now, target); len(removed) > 0 {
						o.broadcastAssets()
					}
				}()
			})
		}
	}
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func (o *Orchestrator) send(to domain.ParticipantID, event string, payload any) {
	conn, ok := o.conns[to]
	if !ok {
		return
	}
	frame, err := json.Marshal(envelope{Type: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Str("event", event).Msg("marshal outbound")
		return
	}
	if o.tap != nil {
		o.tap(to, event, frame)
	}
	if err := conn.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "app.orchestrator").Str("to", string(to)).Str("event", event).Msg("send failed")
		if o.Policy != nil && o.Policy.OnBackpressure(to) == KickParticipant {
			conn.Close()
		}
	}
}

// broadcast fans out to every participant in roster order.
func (o *Orchestrator) broadcast(event string, payload any) {
	for _, p := range o.Roster.Participants() {
		o.send(p.ID, event, payload)
	}
}

// broadcastExcept fans out to everyone but origin, which already knows
// its own outcome.
func (o *Orchestrator) broadcastExcept(origin domain.ParticipantID, event string, payload any) {
	for _, p := range o.Roster.Participants() {
		if p.ID == origin {
			continue
		}
		o.send(p.ID, event, payload)
	}
}

func (o *Orchestrator) deliver(notices []Notice) {
	for _, n := range notices {
		o.send(n.To, n.Event, n.Payload)
	}
}

// broadcastAssets rescans storage off the loop and pushes the listing.
func (o *Orchestrator) broadcastAssets() {
	go func() {
		names, err := o.Store.Filenames()
		if err != nil {
			log.Error().Err(err).Str("module", "app.orchestrator").Msg("list assets")
			return
		}
		o.Post(func() { o.broadcast("available-assets", names) })
	}()
}
