// Package poller runs the periodic telemetry and daemon-status poll.
//
// Each tick is a gocron one-time job. The next tick is armed only from inside
// the current tick, after its commands have returned, so ticks never overlap
// and none are replayed after a pause.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/accctl/internal/acc"
	"git.home.luguber.info/inful/accctl/internal/logfields"
	"git.home.luguber.info/inful/accctl/internal/metrics"
)

// DefaultInterval is the delay between the end of one tick and the start of the next.
const DefaultInterval = time.Second

// Source provides the values sampled on every tick.
type Source interface {
	Telemetry(ctx context.Context) acc.Telemetry
	IsDaemonRunning(ctx context.Context) bool
}

// Snapshot is the result of one tick.
type Snapshot struct {
	Telemetry     acc.Telemetry `json:"telemetry"`
	DaemonRunning bool          `json:"daemonRunning"`
	TakenAt       time.Time     `json:"takenAt"`
}

// Poller samples a Source while resumed and fans snapshots out to subscribers.
type Poller struct {
	src       Source
	interval  time.Duration
	scheduler gocron.Scheduler
	recorder  metrics.Recorder
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	gen     uint64
	active  bool
	jobID   uuid.UUID
	last    *Snapshot
	subs    map[int]func(Snapshot)
	nextSub int
}

// Option configures a Poller.
type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(p *Poller) {
		if r != nil {
			p.recorder = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a paused Poller and starts its scheduler.
func New(src Source, opts ...Option) (*Poller, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		src:       src,
		interval:  DefaultInterval,
		scheduler: s,
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
		ctx:       ctx,
		cancel:    cancel,
		subs:      make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(p)
	}
	s.Start()
	return p, nil
}

// Resume starts polling immediately. It is a no-op while already polling.
func (p *Poller) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		return nil
	}
	p.active = true
	p.gen++
	p.logger.Debug("Resuming telemetry poll", slog.Duration("interval", p.interval))
	return p.armLocked(p.gen, true)
}

// Pause stops arming new ticks. A tick already running completes but its
// result is discarded.
func (p *Poller) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	p.active = false
	p.gen++
	p.removeJobLocked()
	p.logger.Debug("Paused telemetry poll")
}

// Active reports whether the poller is resumed.
func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// SetVisible maps front-end visibility onto Resume/Pause.
func (p *Poller) SetVisible(visible bool) error {
	if visible {
		return p.Resume()
	}
	p.Pause()
	return nil
}

// Subscribe registers fn for every accepted snapshot. The returned func unsubscribes.
func (p *Poller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// Latest returns the most recent accepted snapshot.
func (p *Poller) Latest() (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return Snapshot{}, false
	}
	return *p.last, true
}

// Stop pauses polling and shuts the scheduler down.
func (p *Poller) Stop() error {
	p.Pause()
	p.cancel()
	return p.scheduler.Shutdown()
}

func (p *Poller) armLocked(gen uint64, immediate bool) error {
	p.removeJobLocked()

	start := gocron.OneTimeJobStartImmediately()
	if !immediate {
		start = gocron.OneTimeJobStartDateTime(time.Now().Add(p.interval))
	}
	id := uuid.New()
	if _, err := p.scheduler.NewJob(
		gocron.OneTimeJob(start),
		gocron.NewTask(p.tick, gen),
		gocron.WithName("telemetry-poll"),
		gocron.WithIdentifier(id),
	); err != nil {
		return fmt.Errorf("failed to arm poll tick: %w", err)
	}
	p.jobID = id
	return nil
}

func (p *Poller) removeJobLocked() {
	if p.jobID == uuid.Nil {
		return
	}
	// One-time jobs may already be gone once they have run.
	_ = p.scheduler.RemoveJob(p.jobID)
	p.jobID = uuid.Nil
}

func (p *Poller) tick(gen uint64) {
	start := time.Now()
	snap := Snapshot{
		Telemetry:     p.src.Telemetry(p.ctx),
		DaemonRunning: p.src.IsDaemonRunning(p.ctx),
		TakenAt:       time.Now(),
	}
	elapsed := time.Since(start)

	p.mu.Lock()
	if gen != p.gen || !p.active {
		p.mu.Unlock()
		p.logger.Debug("Discarding abandoned poll result", logfields.DurationMS(float64(elapsed.Milliseconds())))
		return
	}
	p.last = &snap
	subs := make([]func(Snapshot), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	p.recorder.ObservePoll(elapsed, true)
	p.recorder.SetDaemonRunning(snap.DaemonRunning)
	p.recorder.SetCharging(snap.Telemetry.IsCharging())
	p.recorder.SetBattery(snap.Telemetry.Capacity, snap.Telemetry.Temperature, snap.Telemetry.CurrentMilliAmps())
	for _, fn := range subs {
		fn(snap)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen || !p.active {
		return
	}
	if err := p.armLocked(gen, false); err != nil {
		p.logger.Error("Telemetry poll stopped", logfields.Error(err))
		p.active = false
	}
}
