package reactive

import (
	"slices"
	"sort"
)

// Object is a plain data object with ordered keys. Once observed, every key is
// backed by a reactive field whose reads are tracked and whose writes notify.
type Object struct {
	keys   []string
	fields map[string]*field
	ob     *Observer
	frozen bool
	raw    bool
}

type field struct {
	value any
	// nil for plain fields that were added without going through Set
	dep   *Dep
	child *Observer

	shallow      bool
	alwaysNotify bool
	readonly     bool
	setter       func(newValue any)
}

// FieldOption tunes a reactive field.
type FieldOption func(f *field)

// Shallow stops the field from observing the values assigned to it.
func Shallow() FieldOption {
	return func(f *field) {
		f.shallow = true
	}
}

// AlwaysNotify makes writes notify even when the value did not change.
func AlwaysNotify() FieldOption {
	return func(f *field) {
		f.alwaysNotify = true
	}
}

// Readonly makes writes run the custom setter but never store.
func Readonly() FieldOption {
	return func(f *field) {
		f.readonly = true
	}
}

// CustomSetter runs fn with the new value before it is stored, e.g. to warn
// about mutating a prop.
func CustomSetter(fn func(newValue any)) FieldOption {
	return func(f *field) {
		f.setter = fn
	}
}

// NewObject creates an unobserved object from m, keys sorted.
func NewObject(m map[string]any) *Object {
	o := &Object{fields: make(map[string]*field, len(m))}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		o.keys = append(o.keys, k)
		o.fields[k] = &field{value: m[k]}
	}
	return o
}

// NewOrderedObject creates an unobserved object from alternating key, value
// pairs, keeping their order.
func NewOrderedObject(pairs ...any) *Object {
	o := &Object{fields: map[string]*field{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		k, ok := pairs[i].(string)
		if !ok {
			continue
		}
		o.Set(k, pairs[i+1])
	}
	return o
}

func (o *Object) track() {
	if o.ob != nil && o.ob.dep.rs.Target() != nil {
		o.ob.dep.Depend()
	}
}

// Get reads key, recording the dependency on the active watcher.
func (o *Object) Get(key string) any {
	f, ok := o.fields[key]
	if !ok {
		// a later Set/Delete of this key notifies the object dep
		o.track()
		return nil
	}
	if f.dep != nil && f.dep.rs.Target() != nil {
		f.dep.Depend()
		if f.child != nil {
			f.child.dep.Depend()
			if arr, ok := f.value.(*Array); ok {
				dependArray(arr)
			}
		}
	}
	return f.value
}

// Lookup is Get that also reports whether the key exists.
func (o *Object) Lookup(key string) (any, bool) {
	if _, ok := o.fields[key]; !ok {
		o.track()
		return nil, false
	}
	return o.Get(key), true
}

// Peek reads key without tracking.
func (o *Object) Peek(key string) any {
	if f, ok := o.fields[key]; ok {
		return f.value
	}
	return nil
}

// Has reports whether key exists, without tracking.
func (o *Object) Has(key string) bool {
	_, ok := o.fields[key]
	return ok
}

// IsReactive reports whether key is backed by a reactive field.
func (o *Object) IsReactive(key string) bool {
	f, ok := o.fields[key]
	return ok && f.dep != nil
}

// Set writes key. Writes to a key that was never defined create a plain,
// non reactive field; use ReactiveSystem.Set to add a reactive one.
func (o *Object) Set(key string, value any) {
	if o.fields == nil {
		o.fields = map[string]*field{}
	}
	f, ok := o.fields[key]
	if !ok {
		if o.frozen {
			return
		}
		o.keys = append(o.keys, key)
		o.fields[key] = &field{value: value}
		return
	}
	if f.dep == nil {
		if !o.frozen {
			f.value = value
		}
		return
	}
	if !f.alwaysNotify && SameValue(f.value, value) {
		return
	}
	if f.setter != nil {
		f.setter(value)
	}
	if f.readonly || o.frozen {
		return
	}
	rs := f.dep.rs
	if !f.shallow {
		value = rs.adopt(value)
		f.child = rs.Observe(value, false)
	}
	f.value = value
	f.dep.Notify()
}

// Keys returns the keys in definition order. Reading keys tracks structural
// changes of the object.
func (o *Object) Keys() []string {
	o.track()
	return slices.Clone(o.keys)
}

// Len returns the number of keys.
func (o *Object) Len() int {
	o.track()
	return len(o.keys)
}

// Freeze prevents the object from being observed and from changing.
func (o *Object) Freeze() *Object {
	o.frozen = true
	return o
}

// Frozen reports whether Freeze was called.
func (o *Object) Frozen() bool {
	return o.frozen
}

// MarkRaw prevents the object from ever being observed.
func (o *Object) MarkRaw() *Object {
	o.raw = true
	return o
}

// Observer returns the observer tagging this object, if any.
func (o *Object) Observer() *Observer {
	return o.ob
}

// ToMap returns an untracked shallow snapshot.
func (o *Object) ToMap() map[string]any {
	m := make(map[string]any, len(o.keys))
	for _, k := range o.keys {
		m[k] = o.fields[k].value
	}
	return m
}

func (o *Object) remove(key string) *field {
	f, ok := o.fields[key]
	if !ok {
		return nil
	}
	delete(o.fields, key)
	if i := slices.Index(o.keys, key); i >= 0 {
		o.keys = slices.Delete(o.keys, i, i+1)
	}
	return f
}

// DefineReactive installs a reactive field for key on o, observing val.
// Existing keys keep their position.
func (rs *ReactiveSystem) DefineReactive(o *Object, key string, val any, opts ...FieldOption) {
	if o.frozen {
		return
	}
	if o.fields == nil {
		o.fields = map[string]*field{}
	}
	f := &field{dep: rs.NewDep()}
	for _, opt := range opts {
		opt(f)
	}
	if !f.shallow {
		val = rs.adopt(val)
		f.child = rs.Observe(val, false)
	}
	f.value = val
	if _, ok := o.fields[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = f
}

// FieldDep returns the dependency behind key, nil for plain fields.
func (o *Object) FieldDep(key string) *Dep {
	if f, ok := o.fields[key]; ok {
		return f.dep
	}
	return nil
}

// dependArray collects dependencies on every observed element since array
// elements cannot be intercepted individually.
func dependArray(arr *Array) {
	for _, e := range arr.items {
		if ob := observerOf(e); ob != nil {
			ob.dep.Depend()
		}
		if nested, ok := e.(*Array); ok {
			dependArray(nested)
		}
	}
}
