package reactive

import (
	"fmt"
	"slices"
	"strings"
)

// ArrayOps is the table of structurally mutating operations of an Array. An
// observed array has its table swapped for one that notifies after each call.
type ArrayOps interface {
	Push(a *Array, items ...any) int
	Pop(a *Array) any
	Shift(a *Array) any
	Unshift(a *Array, items ...any) int
	Splice(a *Array, start, deleteCount int, items ...any) []any
	Sort(a *Array, cmp func(x, y any) int)
	Reverse(a *Array)
}

// Array is an ordered sequence container.
type Array struct {
	items  []any
	ops    ArrayOps
	ob     *Observer
	frozen bool
	raw    bool
}

// NewArray creates an unobserved array holding a copy of items.
func NewArray(items ...any) *Array {
	return &Array{items: slices.Clone(items), ops: nativeOps{}}
}

func (a *Array) table() ArrayOps {
	if a.ops == nil {
		a.ops = nativeOps{}
	}
	return a.ops
}

func (a *Array) track() {
	if a.ob != nil && a.ob.dep.rs.Target() != nil {
		a.ob.dep.Depend()
	}
}

// Len returns the number of elements.
func (a *Array) Len() int {
	a.track()
	return len(a.items)
}

// At returns element i, nil when out of range.
func (a *Array) At(i int) any {
	a.track()
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i]
}

// Values returns a copy of the elements.
func (a *Array) Values() []any {
	a.track()
	return slices.Clone(a.items)
}

// Peek returns the elements without tracking. The slice must not be modified.
func (a *Array) Peek() []any {
	return a.items
}

// Push appends items and returns the new length.
func (a *Array) Push(items ...any) int { return a.table().Push(a, items...) }

// Pop removes and returns the last element.
func (a *Array) Pop() any { return a.table().Pop(a) }

// Shift removes and returns the first element.
func (a *Array) Shift() any { return a.table().Shift(a) }

// Unshift prepends items and returns the new length.
func (a *Array) Unshift(items ...any) int { return a.table().Unshift(a, items...) }

// Splice removes deleteCount elements at start, inserts items there and returns
// the removed elements. A negative start counts from the end.
func (a *Array) Splice(start, deleteCount int, items ...any) []any {
	return a.table().Splice(a, start, deleteCount, items...)
}

// Sort sorts in place with a stable sort. A nil cmp compares string forms.
func (a *Array) Sort(cmp func(x, y any) int) { a.table().Sort(a, cmp) }

// Reverse reverses in place.
func (a *Array) Reverse() { a.table().Reverse(a) }

// SetLength truncates or grows the array through Splice so the change is
// observable.
func (a *Array) SetLength(n int) {
	if n < 0 {
		return
	}
	switch l := len(a.items); {
	case n < l:
		a.Splice(n, l-n)
	case n > l:
		a.Splice(l, 0, make([]any, n-l)...)
	}
}

// Freeze prevents observation and mutation.
func (a *Array) Freeze() *Array {
	a.frozen = true
	return a
}

// Frozen reports whether Freeze was called.
func (a *Array) Frozen() bool {
	return a.frozen
}

// MarkRaw prevents the array from ever being observed.
func (a *Array) MarkRaw() *Array {
	a.raw = true
	return a
}

// Observer returns the observer tagging this array, if any.
func (a *Array) Observer() *Observer {
	return a.ob
}

type nativeOps struct{}

func (nativeOps) Push(a *Array, items ...any) int {
	if !a.frozen {
		a.items = append(a.items, items...)
	}
	return len(a.items)
}

func (nativeOps) Pop(a *Array) any {
	if a.frozen || len(a.items) == 0 {
		return nil
	}
	last := a.items[len(a.items)-1]
	a.items[len(a.items)-1] = nil
	a.items = a.items[:len(a.items)-1]
	return last
}

func (nativeOps) Shift(a *Array) any {
	if a.frozen || len(a.items) == 0 {
		return nil
	}
	first := a.items[0]
	a.items = slices.Delete(a.items, 0, 1)
	return first
}

func (nativeOps) Unshift(a *Array, items ...any) int {
	if !a.frozen {
		a.items = slices.Insert(a.items, 0, items...)
	}
	return len(a.items)
}

func (nativeOps) Splice(a *Array, start, deleteCount int, items ...any) []any {
	if a.frozen {
		return nil
	}
	l := len(a.items)
	if start < 0 {
		start = max(l+start, 0)
	}
	start = min(start, l)
	deleteCount = min(max(deleteCount, 0), l-start)

	removed := slices.Clone(a.items[start : start+deleteCount])
	a.items = slices.Delete(a.items, start, start+deleteCount)
	a.items = slices.Insert(a.items, start, items...)
	return removed
}

func (nativeOps) Sort(a *Array, cmp func(x, y any) int) {
	if a.frozen {
		return
	}
	if cmp == nil {
		cmp = compareStrings
	}
	slices.SortStableFunc(a.items, cmp)
}

func (nativeOps) Reverse(a *Array) {
	if !a.frozen {
		slices.Reverse(a.items)
	}
}

func compareStrings(x, y any) int {
	return strings.Compare(fmt.Sprint(x), fmt.Sprint(y))
}

// interceptedOps wraps the native table for an observed array: the native
// result is returned unchanged, inserted elements are observed and the array
// dependency notifies once per call.
type interceptedOps struct {
	native ArrayOps
	ob     *Observer
}

func (o interceptedOps) changed(inserted []any) {
	if len(inserted) > 0 {
		o.ob.observeArray(inserted)
	}
	o.ob.dep.Notify()
}

func (o interceptedOps) Push(a *Array, items ...any) int {
	items = o.ob.dep.rs.adoptAll(items)
	n := o.native.Push(a, items...)
	o.changed(items)
	return n
}

func (o interceptedOps) Pop(a *Array) any {
	v := o.native.Pop(a)
	o.changed(nil)
	return v
}

func (o interceptedOps) Shift(a *Array) any {
	v := o.native.Shift(a)
	o.changed(nil)
	return v
}

func (o interceptedOps) Unshift(a *Array, items ...any) int {
	items = o.ob.dep.rs.adoptAll(items)
	n := o.native.Unshift(a, items...)
	o.changed(items)
	return n
}

func (o interceptedOps) Splice(a *Array, start, deleteCount int, items ...any) []any {
	items = o.ob.dep.rs.adoptAll(items)
	removed := o.native.Splice(a, start, deleteCount, items...)
	o.changed(items)
	return removed
}

func (o interceptedOps) Sort(a *Array, cmp func(x, y any) int) {
	o.native.Sort(a, cmp)
	o.changed(nil)
}

func (o interceptedOps) Reverse(a *Array) {
	o.native.Reverse(a)
	o.changed(nil)
}
