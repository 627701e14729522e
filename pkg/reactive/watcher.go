package reactive

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/delaneyj/viewcore/pkg/diag"
)

// Getter is the function a watcher evaluates while collecting dependencies.
type Getter func() (any, error)

// Callback is invoked by user watchers when the watched value changes.
type Callback func(newValue, oldValue any) error

// WatcherOptions tunes how a watcher is scheduled and reported.
type WatcherOptions struct {
	// Deep traverses the returned value so nested fields are tracked too.
	Deep bool
	// User marks watchers created from user code, their errors are reported
	// with the expression.
	User bool
	// Lazy watchers only mark themselves dirty on change and recompute on
	// Evaluate (computed values).
	Lazy bool
	// Sync watchers run immediately on change instead of being queued.
	Sync bool
	// Before runs right before the watcher is re-run by a flush.
	Before func()
	// Owner is passed to the error handler.
	Owner any
	// Expression is used in error messages.
	Expression string
	// Render marks the render watcher of a component.
	Render bool
}

// Watcher is a unit of deferred computation: it becomes the active subscriber
// while evaluating, collects the dependencies it reads and is re-run when any
// of them notifies.
type Watcher struct {
	id uint64
	rs *ReactiveSystem

	getter Getter
	cb     Callback
	opts   WatcherOptions

	active bool
	dirty  bool
	value  any

	// Dependencies held from the last evaluation and the ones seen during the
	// current one, the two sets are diffed in cleanupDeps
	deps      []*Dep
	newDeps   []*Dep
	depIDs    mapset.Set[uint64]
	newDepIDs mapset.Set[uint64]

	onTeardown []func()
}

// NewWatcher creates a watcher. Non lazy watchers are evaluated right away.
func (rs *ReactiveSystem) NewWatcher(getter Getter, cb Callback, opts WatcherOptions) *Watcher {
	rs.watcherUID++
	w := &Watcher{
		id:        rs.watcherUID,
		rs:        rs,
		getter:    getter,
		cb:        cb,
		opts:      opts,
		active:    true,
		dirty:     opts.Lazy,
		depIDs:    mapset.NewThreadUnsafeSet[uint64](),
		newDepIDs: mapset.NewThreadUnsafeSet[uint64](),
	}
	if w.getter == nil {
		w.getter = func() (any, error) { return nil, nil }
	}
	if !opts.Lazy {
		w.value = w.Get()
	}
	return w
}

// ID returns the creation ordered id of the watcher.
func (w *Watcher) ID() uint64 {
	return w.id
}

// Value returns the last evaluated value.
func (w *Watcher) Value() any {
	return w.value
}

// Active reports whether the watcher has not been torn down.
func (w *Watcher) Active() bool {
	return w.active
}

// Dirty reports whether a lazy watcher needs to be re-evaluated.
func (w *Watcher) Dirty() bool {
	return w.dirty
}

// Owner returns the owner passed at creation.
func (w *Watcher) Owner() any {
	return w.opts.Owner
}

// IsRender reports whether this is a component render watcher.
func (w *Watcher) IsRender() bool {
	return w.opts.Render
}

// Deps returns the dependencies held from the last evaluation.
func (w *Watcher) Deps() []*Dep {
	out := make([]*Dep, len(w.deps))
	copy(out, w.deps)
	return out
}

// OnTeardown registers fn to run when the watcher is torn down.
func (w *Watcher) OnTeardown(fn func()) {
	w.onTeardown = append(w.onTeardown, fn)
}

func (w *Watcher) info(kind string) string {
	if w.opts.Expression != "" {
		return fmt.Sprintf("%s for watcher %q", kind, w.opts.Expression)
	}
	return kind + " for watcher"
}

// Get evaluates the getter and re-collects dependencies. If the getter fails
// the error is reported and the previous value is kept.
func (w *Watcher) Get() (value any) {
	rs := w.rs
	rs.pushTarget(w)
	defer func() {
		// touch every nested field so they are all tracked for deep watching
		if w.opts.Deep {
			rs.Traverse(value)
		}
		rs.popTarget()
		w.cleanupDeps()
	}()

	var v any
	err := diag.Safe(func() (err error) {
		v, err = w.getter()
		return err
	})
	if err != nil {
		rs.HandleError(err, w.opts.Owner, w.info("getter"))
		return w.value
	}
	return v
}

// addDep records d for the current evaluation and subscribes to it if it was
// not held before.
func (w *Watcher) addDep(d *Dep) {
	if w.newDepIDs.Contains(d.id) {
		return
	}
	w.newDepIDs.Add(d.id)
	w.newDeps = append(w.newDeps, d)
	if !w.depIDs.Contains(d.id) {
		d.AddSub(w)
	}
}

// cleanupDeps unsubscribes from every dependency that was held from the last
// evaluation but not read in this one, then makes the new set current.
func (w *Watcher) cleanupDeps() {
	for _, d := range w.deps {
		if !w.newDepIDs.Contains(d.id) {
			d.RemoveSub(w)
		}
	}
	w.depIDs, w.newDepIDs = w.newDepIDs, w.depIDs
	w.newDepIDs.Clear()

	prev := w.deps
	w.deps = w.newDeps
	clear(prev)
	w.newDeps = prev[:0]
}

// Update is called by a dependency that changed.
func (w *Watcher) Update() {
	switch {
	case w.opts.Lazy:
		w.dirty = true
	case w.opts.Sync:
		w.Run()
	default:
		w.rs.scheduler.Queue(w)
	}
}

// Run re-evaluates the watcher and invokes the callback if the value changed.
// Container values and deep watchers always fire since they may have mutated
// in place.
func (w *Watcher) Run() {
	if !w.active {
		return
	}
	value := w.Get()
	if SameValue(value, w.value) && !isContainer(value) && !w.opts.Deep {
		return
	}
	old := w.value
	w.value = value
	if w.cb == nil {
		return
	}
	if err := diag.Safe(func() error { return w.cb(value, old) }); err != nil {
		rs := w.rs
		rs.HandleError(err, w.opts.Owner, w.info("callback"))
	}
}

// Evaluate recomputes a lazy watcher.
func (w *Watcher) Evaluate() {
	w.value = w.Get()
	w.dirty = false
}

// Depend forwards every dependency held by this watcher to the active one,
// used when a computed value is read inside another evaluation.
func (w *Watcher) Depend() {
	for _, d := range w.deps {
		d.Depend()
	}
}

// Teardown unsubscribes from every dependency, deactivates the watcher and
// drops it from the pending flush queue.
func (w *Watcher) Teardown() {
	if !w.active {
		return
	}
	for _, d := range w.deps {
		d.RemoveSub(w)
	}
	w.active = false
	w.rs.scheduler.remove(w)
	for _, fn := range w.onTeardown {
		fn()
	}
	w.onTeardown = nil
}

func isContainer(v any) bool {
	switch v.(type) {
	case *Object, *Array:
		return true
	}
	return false
}
