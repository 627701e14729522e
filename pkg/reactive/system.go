package reactive

import (
	"github.com/delaneyj/viewcore/pkg/diag"
)

// ErrorHandler receives errors caught at an evaluation boundary. owner is the
// value passed as WatcherOptions.Owner (usually a component instance), info
// names the boundary.
type ErrorHandler func(err error, owner any, info string)

// WarnHandler receives development warnings raised by the reactive layer.
type WarnHandler func(msg string, owner any)

// RunSoon schedules fn to run at the next microtask-like boundary.
type RunSoon func(fn func())

// NonReactive is implemented by values that must never be observed or used as
// the target of Set/Delete, e.g. component instances.
type NonReactive interface {
	NonReactive() bool
}

// ReactiveSystem is the explicit evaluation context: it owns the active
// subscriber stack, the id counters, the flush scheduler and the tick queue.
// Everything is single threaded; a system must not be shared across goroutines.
type ReactiveSystem struct {
	// Stack of subscribers currently evaluating, the last one is the active one.
	// A nil entry means tracking is paused.
	targetStack []*Watcher

	depUID     uint64
	watcherUID uint64

	// Whether Observe is allowed to wrap new values
	observing bool

	syncFlush bool
	scheduler *Scheduler
	ticks     *TickQueue
	runSoon   RunSoon

	onError ErrorHandler
	onWarn  WarnHandler
	log     *diag.Logger
}

// Option configures a ReactiveSystem.
type Option func(rs *ReactiveSystem)

// WithErrorHandler routes caught evaluation errors to fn instead of the logger.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(rs *ReactiveSystem) {
		rs.onError = fn
	}
}

// WithWarnHandler routes warnings to fn instead of the logger.
func WithWarnHandler(fn WarnHandler) Option {
	return func(rs *ReactiveSystem) {
		rs.onWarn = fn
	}
}

// WithRunSoon replaces the default tick queue with an external primitive.
func WithRunSoon(fn RunSoon) Option {
	return func(rs *ReactiveSystem) {
		rs.runSoon = fn
	}
}

// WithSyncFlush flushes the watcher queue as soon as something is queued.
func WithSyncFlush() Option {
	return func(rs *ReactiveSystem) {
		rs.syncFlush = true
	}
}

// WithLogger sets the logger used when no handler is installed.
func WithLogger(log *diag.Logger) Option {
	return func(rs *ReactiveSystem) {
		rs.log = log
	}
}

func NewReactiveSystem(opts ...Option) *ReactiveSystem {
	rs := &ReactiveSystem{
		observing: true,
		ticks:     &TickQueue{},
		log:       diag.Default(),
	}
	for _, opt := range opts {
		opt(rs)
	}
	if rs.runSoon == nil {
		rs.runSoon = rs.ticks.Schedule
	}
	rs.scheduler = newScheduler(rs)
	return rs
}

// Target returns the subscriber currently collecting dependencies, if any.
func (rs *ReactiveSystem) Target() *Watcher {
	if n := len(rs.targetStack); n > 0 {
		return rs.targetStack[n-1]
	}
	return nil
}

func (rs *ReactiveSystem) pushTarget(w *Watcher) {
	rs.targetStack = append(rs.targetStack, w)
}

func (rs *ReactiveSystem) popTarget() {
	if n := len(rs.targetStack); n > 0 {
		rs.targetStack[n-1] = nil
		rs.targetStack = rs.targetStack[:n-1]
	}
}

// Untracked runs fn with dependency collection paused.
func (rs *ReactiveSystem) Untracked(fn func()) {
	rs.pushTarget(nil)
	defer rs.popTarget()
	fn()
}

// ToggleObserving enables or disables wrapping of new values and returns the
// previous setting.
func (rs *ReactiveSystem) ToggleObserving(value bool) (prev bool) {
	prev = rs.observing
	rs.observing = value
	return prev
}

// Observing reports whether new values are currently wrapped.
func (rs *ReactiveSystem) Observing() bool {
	return rs.observing
}

// Scheduler returns the flush scheduler.
func (rs *ReactiveSystem) Scheduler() *Scheduler {
	return rs.scheduler
}

// NextTick queues fn behind any pending flush.
func (rs *ReactiveSystem) NextTick(fn func()) {
	rs.runSoon(func() {
		if err := diag.Safe(func() error {
			fn()
			return nil
		}); err != nil {
			rs.HandleError(err, nil, "nextTick")
		}
	})
}

// Tick drains the built in tick queue and returns how many callbacks ran.
// With an external RunSoon it does nothing.
func (rs *ReactiveSystem) Tick() int {
	return rs.ticks.Drain()
}

// HandleError reports an evaluation error.
func (rs *ReactiveSystem) HandleError(err error, owner any, info string) {
	if rs.onError != nil {
		rs.onError(err, owner, info)
		return
	}
	rs.log.Error(diag.Wrap(err, info))
}

// Warn reports a development warning.
func (rs *ReactiveSystem) Warn(msg string, owner any) {
	if rs.onWarn != nil {
		rs.onWarn(msg, owner)
		return
	}
	rs.log.Warn(diag.CategoryConfig, msg, "")
}
