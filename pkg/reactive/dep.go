package reactive

import "slices"

// Dep is the fan-out registry linking one reactive field, or one observed
// container, to the watchers interested in it.
type Dep struct {
	id   uint64
	rs   *ReactiveSystem
	subs []*Watcher
}

// NewDep creates a dependency owned by rs.
func (rs *ReactiveSystem) NewDep() *Dep {
	rs.depUID++
	return &Dep{id: rs.depUID, rs: rs}
}

// ID returns the unique id of the dependency.
func (d *Dep) ID() uint64 {
	return d.id
}

// Subscribers returns a snapshot of the subscribed watchers.
func (d *Dep) Subscribers() []*Watcher {
	return slices.Clone(d.subs)
}

// AddSub subscribes w, ignoring duplicates.
func (d *Dep) AddSub(w *Watcher) {
	if slices.Contains(d.subs, w) {
		return
	}
	d.subs = append(d.subs, w)
}

// RemoveSub unsubscribes w.
func (d *Dep) RemoveSub(w *Watcher) {
	if i := slices.Index(d.subs, w); i >= 0 {
		d.subs = slices.Delete(d.subs, i, i+1)
	}
}

// Depend records this dependency on the active watcher, if there is one.
func (d *Dep) Depend() {
	if t := d.rs.Target(); t != nil {
		t.addDep(d)
	}
}

// Notify tells every subscriber, in subscription order, that the value behind
// this dependency changed. The list is snapshotted first so subscribers may
// subscribe or unsubscribe while being notified. The watcher that is currently
// evaluating is skipped so a computation never re-triggers itself.
func (d *Dep) Notify() {
	subs := slices.Clone(d.subs)
	current := d.rs.Target()
	for _, sub := range subs {
		if sub == current {
			continue
		}
		sub.Update()
	}
}

// detach drops every subscriber, used when the owning field is deleted.
func (d *Dep) detach() {
	d.subs = nil
}
