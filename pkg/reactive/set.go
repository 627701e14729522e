package reactive

import (
	"fmt"
	"strconv"
)

// Set adds or updates key on target so that the change is observable. Keys
// added to an observed object become reactive fields and the object's
// structural dependency is notified. For arrays key must be an index; the
// array grows when needed. It returns val.
func (rs *ReactiveSystem) Set(target any, key string, val any) any {
	switch t := target.(type) {
	case *Array:
		if t == nil {
			break
		}
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 {
			rs.Warn(fmt.Sprintf("Cannot set invalid array index %q", key), nil)
			return val
		}
		if i >= len(t.items) {
			t.SetLength(i + 1)
		}
		t.Splice(i, 1, val)
		return val
	case *Object:
		if t == nil {
			break
		}
		if t.Has(key) {
			t.Set(key, val)
			if !t.IsReactive(key) && t.ob != nil {
				rs.DefineReactive(t, key, t.Peek(key))
				t.ob.dep.Notify()
			}
			return val
		}
		ob := t.ob
		if ob != nil && ob.vmCount > 0 {
			rs.Warn("Avoid adding reactive properties to a component instance or its root data at runtime - declare it upfront in the data option.", nil)
			return val
		}
		if t.frozen {
			return val
		}
		if ob == nil {
			t.Set(key, val)
			return val
		}
		rs.DefineReactive(t, key, val)
		ob.dep.Notify()
		return val
	case NonReactive:
		if t.NonReactive() {
			rs.Warn("Avoid adding reactive properties to a component instance or its root data at runtime - declare it upfront in the data option.", nil)
			return val
		}
	}
	rs.Warn(fmt.Sprintf("Cannot set reactive property on undefined, null, or primitive value: %v", target), nil)
	return val
}

// Delete removes key from target and notifies the structural dependency when
// target is observed.
func (rs *ReactiveSystem) Delete(target any, key string) {
	switch t := target.(type) {
	case *Array:
		if t == nil {
			break
		}
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 {
			rs.Warn(fmt.Sprintf("Cannot delete invalid array index %q", key), nil)
			return
		}
		if i < len(t.items) {
			t.Splice(i, 1)
		}
		return
	case *Object:
		if t == nil {
			break
		}
		if t.ob != nil && t.ob.vmCount > 0 {
			rs.Warn("Avoid deleting properties on a component instance or its root data - just set it to nil.", nil)
			return
		}
		if t.frozen {
			return
		}
		f := t.remove(key)
		if f == nil {
			return
		}
		if f.dep != nil {
			f.dep.Notify()
			f.dep.detach()
		}
		if t.ob != nil {
			t.ob.dep.Notify()
		}
		return
	case NonReactive:
		if t.NonReactive() {
			rs.Warn("Avoid deleting properties on a component instance or its root data - just set it to nil.", nil)
			return
		}
	}
	rs.Warn(fmt.Sprintf("Cannot delete reactive property on undefined, null, or primitive value: %v", target), nil)
}
