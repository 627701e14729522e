package reactive

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// Observer is attached to each observed Object or Array. Its dependency is
// notified on structural changes: keys added or deleted, container mutations.
type Observer struct {
	value any
	dep   *Dep
	// number of component instances using this object as root data
	vmCount int
}

// Value returns the observed Object or Array.
func (ob *Observer) Value() any {
	return ob.value
}

// Dep returns the structural dependency.
func (ob *Observer) Dep() *Dep {
	return ob.dep
}

// VMCount returns how many instances use the value as root data.
func (ob *Observer) VMCount() int {
	return ob.vmCount
}

// ReleaseRoot undoes one asRootData observation.
func (ob *Observer) ReleaseRoot() {
	if ob.vmCount > 0 {
		ob.vmCount--
	}
}

// Observe returns the observer of value, creating one if value is an
// observable Object or Array. It returns nil for any other value, for frozen or
// raw values, and when observation is toggled off.
func (rs *ReactiveSystem) Observe(value any, asRootData bool) *Observer {
	var ob *Observer
	switch v := value.(type) {
	case *Object:
		if v == nil {
			return nil
		}
		if v.ob != nil {
			ob = v.ob
		} else if rs.observing && !v.frozen && !v.raw {
			ob = &Observer{value: v, dep: rs.NewDep()}
			v.ob = ob
			ob.walk(v)
		}
	case *Array:
		if v == nil {
			return nil
		}
		if v.ob != nil {
			ob = v.ob
		} else if rs.observing && !v.frozen && !v.raw {
			ob = &Observer{value: v, dep: rs.NewDep()}
			v.ob = ob
			v.ops = interceptedOps{native: nativeOps{}, ob: ob}
			v.items = rs.adoptAll(v.items)
			ob.observeArray(v.items)
		}
	default:
		return nil
	}
	if asRootData && ob != nil {
		ob.vmCount++
	}
	return ob
}

// walk turns every existing key of o into a reactive field.
func (ob *Observer) walk(o *Object) {
	rs := ob.dep.rs
	for _, k := range o.keys {
		f := o.fields[k]
		if f.dep != nil {
			continue
		}
		rs.DefineReactive(o, k, f.value)
	}
}

func (ob *Observer) observeArray(items []any) {
	rs := ob.dep.rs
	for _, item := range items {
		rs.Observe(item, false)
	}
}

func observerOf(v any) *Observer {
	switch v := v.(type) {
	case *Object:
		if v != nil {
			return v.ob
		}
	case *Array:
		if v != nil {
			return v.ob
		}
	}
	return nil
}

// IsObserved reports whether v carries an observer.
func IsObserved(v any) bool {
	return observerOf(v) != nil
}

// adopt converts raw maps and slices into containers so they can be observed.
func (rs *ReactiveSystem) adopt(v any) any {
	if !rs.observing {
		return v
	}
	switch t := v.(type) {
	case map[string]any:
		return NewObject(t)
	case []any:
		return NewArray(t...)
	}
	return v
}

// Adopt is adopt for callers outside the package, like prop defaults that are
// observed after the fact.
func (rs *ReactiveSystem) Adopt(v any) any {
	return rs.adopt(v)
}

// adoptAll returns items with raw maps and slices adopted. The caller's slice
// is copied before the first replacement.
func (rs *ReactiveSystem) adoptAll(items []any) []any {
	if !rs.observing {
		return items
	}
	out, cloned := items, false
	for i, item := range items {
		switch item.(type) {
		case map[string]any, []any:
		default:
			continue
		}
		if !cloned {
			out, cloned = slices.Clone(items), true
		}
		out[i] = rs.adopt(item)
	}
	return out
}

// Traverse reads every nested field of v so the active watcher depends on all
// of them.
func (rs *ReactiveSystem) Traverse(v any) {
	seen := mapset.NewThreadUnsafeSet[any]()
	traverse(v, seen)
}

// seen holds container pointers so unobserved cycles terminate too.
func traverse(v any, seen mapset.Set[any]) {
	switch t := v.(type) {
	case *Object:
		if t == nil || t.frozen || !seen.Add(t) {
			return
		}
		for _, k := range t.Keys() {
			traverse(t.Get(k), seen)
		}
	case *Array:
		if t == nil || t.frozen || !seen.Add(t) {
			return
		}
		for i := 0; i < t.Len(); i++ {
			traverse(t.At(i), seen)
		}
	}
}
