package reactive

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// notifyCounter subscribes a sync watcher to the structural dep of arr and
// counts how often it fires.
func notifyCounter(rs *ReactiveSystem, arr *Array) *int {
	count := 0
	rs.NewWatcher(func() (any, error) {
		arr.Len()
		return arr, nil
	}, func(_, _ any) error {
		count++
		return nil
	}, WatcherOptions{Sync: true})
	return &count
}

func TestArray(t *testing.T) {
	t.Run("push", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		native := NewArray(1)
		arr := NewArray(1)
		rs.Observe(arr, false)
		count := notifyCounter(rs, arr)

		a := NewObject(map[string]any{"v": 1})
		b := map[string]any{"v": 2}

		assert.Equal(t, native.Push(NewObject(nil), NewObject(nil)), arr.Push(a, b))
		assert.Equal(t, 1, *count)
		assert.True(t, IsObserved(a))
		adopted, ok := arr.At(2).(*Object)
		require.True(t, ok)
		assert.True(t, IsObserved(adopted))
		assert.Equal(t, 2, adopted.Peek("v"))
	})

	t.Run("adopting pushed items leaves the caller's slice alone", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		arr := NewArray()
		rs.Observe(arr, false)

		items := []any{map[string]any{"a": 1}, 2}
		arr.Push(items...)
		_, raw := items[0].(map[string]any)
		assert.True(t, raw)
		_, adopted := arr.At(0).(*Object)
		assert.True(t, adopted)
		assert.Equal(t, 2, arr.At(1))
	})

	t.Run("every mutator notifies once", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		arr := NewArray(3, 1, 2)
		rs.Observe(arr, false)
		count := notifyCounter(rs, arr)

		assert.Equal(t, 2, arr.Pop())
		assert.Equal(t, 1, *count)
		assert.Equal(t, 3, arr.Shift())
		assert.Equal(t, 2, *count)
		assert.Equal(t, 3, arr.Unshift(5, 4))
		assert.Equal(t, 3, *count)
		assert.Equal(t, []any{5, 4, 1}, arr.Peek())

		arr.Sort(func(x, y any) int { return x.(int) - y.(int) })
		assert.Equal(t, 4, *count)
		assert.Equal(t, []any{1, 4, 5}, arr.Peek())

		arr.Reverse()
		assert.Equal(t, 5, *count)
		assert.Equal(t, []any{5, 4, 1}, arr.Peek())

		removed := arr.Splice(1, 1, map[string]any{"x": 1}, 7)
		assert.Equal(t, []any{4}, removed)
		assert.Equal(t, 6, *count)
		assert.True(t, IsObserved(arr.At(1)))
		assert.Equal(t, 7, arr.At(2))
	})

	t.Run("splice clamps like native", func(t *testing.T) {
		arr := NewArray(1, 2, 3, 4)
		assert.Equal(t, []any{3, 4}, arr.Splice(-2, 10))
		assert.Equal(t, []any{1, 2}, arr.Peek())
		assert.Empty(t, arr.Splice(5, 1, 9))
		assert.Equal(t, []any{1, 2, 9}, arr.Peek())
	})

	t.Run("default sort compares strings", func(t *testing.T) {
		arr := NewArray(10, 9, 1)
		arr.Sort(nil)
		assert.Equal(t, []any{1, 10, 9}, arr.Peek())
	})

	t.Run("set length", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		arr := NewArray(1, 2, 3)
		rs.Observe(arr, false)
		count := notifyCounter(rs, arr)

		arr.SetLength(1)
		assert.Equal(t, []any{1}, arr.Peek())
		arr.SetLength(3)
		assert.Equal(t, []any{1, nil, nil}, arr.Peek())
		assert.Equal(t, 2, *count)
	})

	t.Run("frozen arrays are not observed or mutated", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		arr := NewArray(1).Freeze()
		assert.Nil(t, rs.Observe(arr, false))
		assert.Equal(t, 1, arr.Push(2))
		assert.Equal(t, []any{1}, arr.Peek())
	})

	t.Run("field holding an array depends on its elements", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{
			"list": []any{map[string]any{"n": 1}},
		})

		callCount := 0
		rs.NewWatcher(func() (any, error) {
			callCount++
			return o.Get("list"), nil
		}, nil, WatcherOptions{})

		list := o.Peek("list").(*Array)
		list.Push(3)
		rs.Tick()
		assert.Equal(t, 2, callCount)

		rs.Set(list.At(0), "m", 2)
		rs.Tick()
		assert.Equal(t, 3, callCount)
	})
}

func TestObserve(t *testing.T) {
	t.Run("observer is cached on the value", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := NewObject(map[string]any{"a": 1})
		ob := rs.Observe(o, false)
		require.NotNil(t, ob)
		assert.Same(t, ob, rs.Observe(o, false))
		assert.Same(t, ob, o.Observer())
		assert.True(t, o.IsReactive("a"))
	})

	t.Run("non containers are ignored", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		assert.Nil(t, rs.Observe(1, false))
		assert.Nil(t, rs.Observe("x", false))
		assert.Nil(t, rs.Observe(map[string]any{}, false))
		assert.Nil(t, rs.Observe((*Object)(nil), false))
	})

	t.Run("raw, frozen and toggled off", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		assert.Nil(t, rs.Observe(NewObject(nil).MarkRaw(), false))
		assert.Nil(t, rs.Observe(NewObject(nil).Freeze(), false))

		prev := rs.ToggleObserving(false)
		assert.True(t, prev)
		assert.Nil(t, rs.Observe(NewObject(nil), false))
		rs.ToggleObserving(true)
		assert.NotNil(t, rs.Observe(NewObject(nil), false))
	})

	t.Run("nested values are observed recursively", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{
			"user": map[string]any{"tags": []any{"a"}},
		})
		user := o.Peek("user").(*Object)
		assert.True(t, IsObserved(user))
		assert.True(t, IsObserved(user.Peek("tags")))
	})

	t.Run("root data counts instances", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := NewObject(nil)
		rs.Observe(o, true)
		ob := rs.Observe(o, true)
		assert.Equal(t, 2, ob.VMCount())
		ob.ReleaseRoot()
		assert.Equal(t, 1, ob.VMCount())
	})
}

func TestObjectFields(t *testing.T) {
	t.Run("replacing with an equal shape still notifies", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{"v": map[string]any{"a": 1}})

		callCount := 0
		rs.NewWatcher(func() (any, error) {
			callCount++
			return o.Get("v"), nil
		}, nil, WatcherOptions{})

		o.Set("v", map[string]any{"a": 1})
		rs.Tick()
		assert.Equal(t, 2, callCount)
	})

	t.Run("NaN to NaN is not a change", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{"v": math.NaN()})
		rs.NewWatcher(func() (any, error) { return o.Get("v"), nil }, nil, WatcherOptions{})
		o.Set("v", math.NaN())
		assert.Equal(t, 0, rs.Scheduler().Pending())
	})

	t.Run("always notify", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := NewObject(nil)
		rs.DefineReactive(o, "v", 1, AlwaysNotify())
		rs.NewWatcher(func() (any, error) { return o.Get("v"), nil }, nil, WatcherOptions{})
		o.Set("v", 1)
		assert.Equal(t, 1, rs.Scheduler().Pending())
	})

	t.Run("custom setter and readonly", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := NewObject(nil)
		var attempted []any
		rs.DefineReactive(o, "v", 1, Readonly(), CustomSetter(func(v any) {
			attempted = append(attempted, v)
		}))
		o.Set("v", 2)
		assert.Equal(t, []any{2}, attempted)
		assert.Equal(t, 1, o.Peek("v"))
	})

	t.Run("shallow fields keep raw values", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := NewObject(nil)
		raw := map[string]any{"a": 1}
		rs.DefineReactive(o, "v", raw, Shallow())
		_, isMap := o.Peek("v").(map[string]any)
		assert.True(t, isMap)
	})

	t.Run("plain assignment of a new key is not reactive", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{})
		o.Set("late", 1)
		assert.True(t, o.Has("late"))
		assert.False(t, o.IsReactive("late"))
	})

	t.Run("ordered keys", func(t *testing.T) {
		o := NewOrderedObject("z", 1, "a", 2)
		assert.Equal(t, []string{"z", "a"}, o.Keys())
		assert.Equal(t, map[string]any{"z": 1, "a": 2}, o.ToMap())
	})
}

func TestSetDelete(t *testing.T) {
	t.Run("adding a key notifies the object", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{})

		var keys []string
		rs.NewWatcher(func() (any, error) {
			keys = o.Keys()
			return nil, nil
		}, nil, WatcherOptions{})

		rs.Set(o, "added", map[string]any{"x": 1})
		rs.Tick()
		assert.Equal(t, []string{"added"}, keys)
		assert.True(t, o.IsReactive("added"))
		assert.True(t, IsObserved(o.Peek("added")))
	})

	t.Run("reading a missing key tracks its later addition", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{})

		w := rs.NewWatcher(func() (any, error) {
			return o.Get("later"), nil
		}, nil, WatcherOptions{})
		rs.Set(o, "later", 5)
		rs.Tick()
		assert.Equal(t, 5, w.Value())
	})

	t.Run("setting an existing key behaves like assignment", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{"a": 1})
		assert.Equal(t, 2, rs.Set(o, "a", 2))
		assert.Equal(t, 2, o.Peek("a"))
	})

	t.Run("array index", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		arr := NewArray(1)
		rs.Observe(arr, false)
		count := notifyCounter(rs, arr)

		rs.Set(arr, "0", 9)
		assert.Equal(t, []any{9}, arr.Peek())
		assert.Equal(t, 1, *count)

		rs.Set(arr, "2", 3)
		assert.Equal(t, []any{9, nil, 3}, arr.Peek())

		rs.Delete(arr, "1")
		assert.Equal(t, []any{9, 3}, arr.Peek())
	})

	t.Run("delete unsubscribes and notifies", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{"a": 1, "b": 2})
		dep := o.FieldDep("a")

		callCount := 0
		rs.NewWatcher(func() (any, error) {
			callCount++
			return o.Get("a"), nil
		}, nil, WatcherOptions{})
		require.Len(t, dep.Subscribers(), 1)

		rs.Delete(o, "a")
		assert.Empty(t, dep.Subscribers())
		assert.False(t, o.Has("a"))
		rs.Tick()
		assert.Equal(t, 2, callCount)
	})

	t.Run("root data and primitives warn", func(t *testing.T) {
		rs, rec := newTestSystem(t)
		root := NewObject(map[string]any{"a": 1})
		rs.Observe(root, true)

		rs.Set(root, "b", 1)
		assert.False(t, root.Has("b"))
		assert.True(t, rec.HasWarning("Avoid adding reactive properties"))

		rs.Delete(root, "a")
		assert.True(t, root.Has("a"))
		assert.True(t, rec.HasWarning("Avoid deleting properties"))

		rs.Set(42, "x", 1)
		assert.True(t, rec.HasWarning("Cannot set reactive property on undefined, null, or primitive value: 42"))
	})
}

func TestSameValue(t *testing.T) {
	o := NewObject(nil)
	m := map[string]any{}
	s := []any{1}
	fn := func() {}

	assert.True(t, SameValue(nil, nil))
	assert.True(t, SameValue(1, 1))
	assert.True(t, SameValue("a", "a"))
	assert.True(t, SameValue(math.NaN(), math.NaN()))
	assert.True(t, SameValue(o, o))
	assert.True(t, SameValue(m, m))
	assert.True(t, SameValue(s, s))
	assert.True(t, SameValue(fn, fn))

	assert.False(t, SameValue(1, 1.0))
	assert.False(t, SameValue(1, nil))
	assert.False(t, SameValue(o, NewObject(nil)))
	assert.False(t, SameValue(m, map[string]any{}))
	assert.False(t, SameValue(s, []any{1}))
	assert.False(t, SameValue(s, s[:0]))
}

func TestParsePath(t *testing.T) {
	rs, _ := newTestSystem(t)
	o := observed(rs, map[string]any{
		"a": map[string]any{"list": []any{"x", map[string]any{"y": 1}}},
	})

	assert.Equal(t, 1, ParsePath("a.list.1.y")(o))
	assert.Equal(t, 2, ParsePath("a.list.length")(o))
	assert.Nil(t, ParsePath("a.missing.deep")(o))
	assert.Equal(t, "v", ParsePath("k")(map[string]any{"k": "v"}))
	assert.Nil(t, ParsePath("a[0]"))
	assert.Nil(t, ParsePath("a b"))
}
