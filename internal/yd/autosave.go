package yd

import (
	"encoding/json"
	"sync"
	"time"
)

// DefaultAutoSaveDelay is the debounce delay between the last scene
// mutation and the automatic save.
const DefaultAutoSaveDelay = 2 * time.Second

// DefaultThumbnailWidth is the width of autosave previews in pixels.
const DefaultThumbnailWidth = 200

// Stopper cancels a pending timer. It matches *time.Timer.
type Stopper interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once wrapped.
type AfterFunc func(d time.Duration, f func()) Stopper

// RealAfterFunc schedules with the runtime timer.
func RealAfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// PersistFunc receives the serialized scene and its preview.
type PersistFunc func(canvas json.RawMessage, thumbnail string)

// AutoSaver debounces saves: each Schedule cancels the pending timer and
// starts a new one. Nothing is scheduled until Ready is called, so loading
// a saved drawing does not save it straight back.
type AutoSaver struct {
	delay     time.Duration
	thumbW    int
	persist   PersistFunc
	afterFunc AfterFunc
	guard     sync.Locker
	logger    Logger

	mu      sync.Mutex
	timer   Stopper
	gen     uint64 // bumped per Schedule; a fire from an older timer is stale
	ready   bool
	stopped bool
}

// AutoSaverOptions configures an AutoSaver.
type AutoSaverOptions struct {
	Delay          time.Duration
	ThumbnailWidth int
	Persist        PersistFunc
	// AfterFunc defaults to RealAfterFunc.
	AfterFunc AfterFunc
	// Guard, when set, is held while the scene is read on fire.
	Guard  sync.Locker
	Logger Logger
}

// NewAutoSaver creates a scheduler that is not yet ready.
func NewAutoSaver(opts AutoSaverOptions) *AutoSaver {
	if opts.Delay <= 0 {
		opts.Delay = DefaultAutoSaveDelay
	}
	if opts.ThumbnailWidth <= 0 {
		opts.ThumbnailWidth = DefaultThumbnailWidth
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = RealAfterFunc
	}
	if opts.Logger == nil {
		opts.Logger = NewNopLogger()
	}
	return &AutoSaver{
		delay:     opts.Delay,
		thumbW:    opts.ThumbnailWidth,
		persist:   opts.Persist,
		afterFunc: opts.AfterFunc,
		guard:     opts.Guard,
		logger:    opts.Logger,
	}
}

// Ready opens the gate once the initial load has completed.
func (a *AutoSaver) Ready() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ready = true
}

// Schedule (re)starts the debounce timer for scene.
func (a *AutoSaver) Schedule(scene Scene) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.ready || a.stopped || a.persist == nil {
		a.logger.Debug("autosave skipped", "ready", a.ready, "stopped", a.stopped)
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.gen++
	gen := a.gen
	a.timer = a.afterFunc(a.delay, func() { a.fire(scene, gen) })
}

// Pending reports whether a save is waiting on the timer.
func (a *AutoSaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timer != nil
}

// Stop cancels any pending save and refuses further scheduling.
func (a *AutoSaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *AutoSaver) fire(scene Scene, gen uint64) {
	a.mu.Lock()
	if a.stopped || gen != a.gen {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	a.mu.Unlock()

	if a.guard != nil {
		a.guard.Lock()
	}
	canvas, err := scene.Serialize()
	var thumb string
	if err == nil {
		thumb, err = scene.Thumbnail(a.thumbW)
	}
	if a.guard != nil {
		a.guard.Unlock()
	}
	if err != nil {
		a.logger.Error("autosave failed", "error", err)
		return
	}

	a.logger.Debug("autosave fired", "bytes", len(canvas))
	a.persist(canvas, thumb)
}
