// Package ticker drives the live maturity projection of active package positions.
package ticker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redcloud442/aurora/internal/domain"
	"github.com/redcloud442/aurora/internal/usecase/projector"
	"go.uber.org/zap"
)

// DefaultFrameInterval approximates a display refresh
const DefaultFrameInterval = 16 * time.Millisecond

// State is the ticker lifecycle of a single position
type State string

const (
	StateRunning State = "RUNNING"
	StateReady   State = "READY" // terminal: no further ticks are scheduled
	// StateRemoved is published once when a position is cancelled or replaced away
	StateRemoved State = "REMOVED"
)

// Update is published to observers after every tick
type Update struct {
	PositionID uuid.UUID
	Projection projector.Projection
	State      State
	At         time.Time
}

// Observer receives updates on the ticking goroutine.
// It must not call back into the Ticker.
type Observer func(Update)

// Config controls tick cadence and the time source
type Config struct {
	FrameInterval time.Duration
	Now           func() time.Time
}

type handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Ticker runs one independent repeating task per position, keyed by position id
type Ticker struct {
	frame  time.Duration
	now    func() time.Time
	logger *zap.Logger

	replaceMu sync.Mutex // serializes Replace/Stop

	mu      sync.Mutex
	handles map[uuid.UUID]*handle
	latest  map[uuid.UUID]Update

	obsMu     sync.RWMutex
	observers map[int]Observer
	nextObs   int
}

// New creates an idle Ticker
func New(cfg Config, logger *zap.Logger) *Ticker {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Ticker{
		frame:     cfg.FrameInterval,
		now:       cfg.Now,
		logger:    logger.With(zap.String("component", "ticker")),
		handles:   make(map[uuid.UUID]*handle),
		latest:    make(map[uuid.UUID]Update),
		observers: make(map[int]Observer),
	}
}

// Subscribe registers an observer and returns a function that removes it
func (t *Ticker) Subscribe(obs Observer) func() {
	t.obsMu.Lock()
	id := t.nextObs
	t.nextObs++
	t.observers[id] = obs
	t.obsMu.Unlock()

	return func() {
		t.obsMu.Lock()
		delete(t.observers, id)
		t.obsMu.Unlock()
	}
}

// Replace cancels every scheduled task, waits for them to exit, and starts a
// task for each of the given positions. When Replace returns no update for a
// previous position will be published again. Ids that are not in the new list
// get a single StateRemoved update.
func (t *Ticker) Replace(positions []*domain.PackagePosition) {
	t.replaceMu.Lock()
	defer t.replaceMu.Unlock()

	t.mu.Lock()
	old := t.handles
	t.handles = make(map[uuid.UUID]*handle, len(positions))
	t.latest = make(map[uuid.UUID]Update, len(positions))
	t.mu.Unlock()

	for _, h := range old {
		h.cancel()
	}
	for _, h := range old {
		<-h.done
	}

	kept := make(map[uuid.UUID]struct{}, len(positions))
	for _, p := range positions {
		kept[p.ID] = struct{}{}
	}
	for id := range old {
		if _, ok := kept[id]; !ok {
			t.publishRemoved(id)
		}
	}

	for _, p := range positions {
		t.Add(p)
	}

	t.logger.Debug("positions replaced",
		zap.Int("cancelled", len(old)),
		zap.Int("started", len(positions)),
	)
}

// Add starts ticking a single position. It is a no-op if the id is already scheduled.
func (t *Ticker) Add(p *domain.PackagePosition) {
	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{cancel: cancel, done: make(chan struct{})}

	t.mu.Lock()
	if _, exists := t.handles[p.ID]; exists {
		t.mu.Unlock()
		cancel()
		return
	}
	t.handles[p.ID] = h
	t.mu.Unlock()

	go t.run(ctx, h, p)
}

// Cancel stops the task for one position and drops its projection.
// It reports whether a task was scheduled for the id.
func (t *Ticker) Cancel(id uuid.UUID) bool {
	t.mu.Lock()
	h, ok := t.handles[id]
	delete(t.handles, id)
	delete(t.latest, id)
	t.mu.Unlock()

	if !ok {
		return false
	}
	h.cancel()
	<-h.done
	t.publishRemoved(id)
	return true
}

// Stop cancels all tasks
func (t *Ticker) Stop() {
	t.Replace(nil)
}

// Get returns the last published update for a position
func (t *Ticker) Get(id uuid.UUID) (Update, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.latest[id]
	return u, ok
}

// Snapshot returns the merged last update of every scheduled position
func (t *Ticker) Snapshot() map[uuid.UUID]Update {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[uuid.UUID]Update, len(t.latest))
	for id, u := range t.latest {
		out[id] = u
	}
	return out
}

// Now returns the time according to the ticker's clock
func (t *Ticker) Now() time.Time {
	return t.now()
}

// Len returns the number of scheduled positions
func (t *Ticker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handles)
}

func (t *Ticker) run(ctx context.Context, h *handle, p *domain.PackagePosition) {
	defer close(h.done)
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("ticker task panicked",
				zap.String("position_id", p.ID.String()),
				zap.Any("panic", r),
			)
		}
	}()

	timer := time.NewTimer(t.frame)
	defer timer.Stop()

	var last *projector.Projection
	for {
		if ctx.Err() != nil {
			return
		}

		at := t.now()
		proj := projector.Project(p, at)
		// now only moves forward in production; a clock step back must not
		// make the position appear to un-mature
		if last != nil && proj.PercentComplete.LessThan(last.PercentComplete) {
			proj = *last
		}
		last = &proj

		state := StateRunning
		if proj.ReadyToClaim {
			state = StateReady
		}

		if !t.publish(h, Update{PositionID: p.ID, Projection: proj, State: state, At: at}) {
			return
		}
		if state == StateReady {
			t.logger.Debug("position matured", zap.String("position_id", p.ID.String()))
			return
		}

		timer.Reset(t.frame)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// publish records the update and notifies observers, unless the task has
// been superseded by Cancel or Replace
func (t *Ticker) publish(h *handle, u Update) bool {
	t.mu.Lock()
	if current, ok := t.handles[u.PositionID]; !ok || current != h {
		t.mu.Unlock()
		return false
	}
	t.latest[u.PositionID] = u
	t.mu.Unlock()

	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, obs := range t.observers {
		obs(u)
	}
	return true
}

func (t *Ticker) publishRemoved(id uuid.UUID) {
	u := Update{PositionID: id, State: StateRemoved, At: t.now()}

	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, obs := range t.observers {
		obs(u)
	}
}
