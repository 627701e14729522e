package reactive

import (
	"errors"
	"testing"

	"github.com/delaneyj/viewcore/pkg/diag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSystem(t *testing.T, opts ...Option) (*ReactiveSystem, *diag.Recorder) {
	t.Helper()
	log, rec := diag.NewRecorder()
	opts = append([]Option{WithLogger(log)}, opts...)
	return NewReactiveSystem(opts...), rec
}

func observed(rs *ReactiveSystem, m map[string]any) *Object {
	o := NewObject(m)
	rs.Observe(o, false)
	return o
}

func TestTracking(t *testing.T) {
	t.Run("repeated reads add one edge", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{"a": 1, "b": 2})

		w := rs.NewWatcher(func() (any, error) {
			return o.Get("a").(int) + o.Get("a").(int) + o.Get("a").(int), nil
		}, nil, WatcherOptions{})

		assert.Equal(t, 3, w.Value())
		require.Len(t, w.Deps(), 1)
		assert.Same(t, o.FieldDep("a"), w.Deps()[0])
		assert.Equal(t, []*Watcher{w}, o.FieldDep("a").Subscribers())
		assert.Empty(t, o.FieldDep("b").Subscribers())
	})

	t.Run("stale edges are removed", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{"a": 1, "b": 2})

		useB := true
		callCount := 0
		w := rs.NewWatcher(func() (any, error) {
			callCount++
			sum := o.Get("a").(int)
			if useB {
				sum += o.Get("b").(int)
			}
			return sum, nil
		}, nil, WatcherOptions{})
		assert.Len(t, w.Deps(), 2)

		useB = false
		w.Run()
		require.Len(t, w.Deps(), 1)
		assert.Same(t, o.FieldDep("a"), w.Deps()[0])
		assert.Empty(t, o.FieldDep("b").Subscribers())

		o.Set("b", 10)
		assert.Equal(t, 0, rs.Scheduler().Pending())
		rs.Tick()
		assert.Equal(t, 2, callCount)
	})

	t.Run("nested evaluation restores the outer target", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{"a": 1, "b": 2})

		var inner *Watcher
		outer := rs.NewWatcher(func() (any, error) {
			inner = rs.NewWatcher(func() (any, error) {
				return o.Get("b"), nil
			}, nil, WatcherOptions{})
			return o.Get("a"), nil
		}, nil, WatcherOptions{})

		require.Len(t, outer.Deps(), 1)
		assert.Same(t, o.FieldDep("a"), outer.Deps()[0])
		require.Len(t, inner.Deps(), 1)
		assert.Same(t, o.FieldDep("b"), inner.Deps()[0])
		assert.Nil(t, rs.Target())
	})

	t.Run("failing getter pops the target and keeps the old value", func(t *testing.T) {
		var caught []string
		rs, _ := newTestSystem(t, WithErrorHandler(func(err error, owner any, info string) {
			caught = append(caught, info+": "+err.Error())
		}))
		o := observed(rs, map[string]any{"a": 1})

		w := rs.NewWatcher(func() (any, error) {
			v := o.Get("a").(int)
			if v > 1 {
				panic("too big")
			}
			return v, nil
		}, nil, WatcherOptions{Expression: "a"})
		assert.Equal(t, 1, w.Value())

		o.Set("a", 2)
		rs.Tick()
		assert.Nil(t, rs.Target())
		assert.Equal(t, 1, w.Value())
		require.Len(t, caught, 1)
		assert.Contains(t, caught[0], `getter for watcher "a"`)
		assert.Contains(t, caught[0], "too big")

		// still subscribed, a later valid value goes through
		o.Set("a", 0)
		rs.Tick()
		assert.Equal(t, 0, w.Value())
	})

	t.Run("untracked reads record nothing", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{"a": 1})

		w := rs.NewWatcher(func() (any, error) {
			var v any
			rs.Untracked(func() { v = o.Get("a") })
			return v, nil
		}, nil, WatcherOptions{})
		assert.Empty(t, w.Deps())
	})
}

func TestScheduling(t *testing.T) {
	t.Run("one re-evaluation per tick", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		data := observed(rs, map[string]any{"count": 0})

		callCount := 0
		rs.NewWatcher(func() (any, error) {
			callCount++
			return data.Get("count"), nil
		}, nil, WatcherOptions{Render: true})
		assert.Equal(t, 1, callCount)

		data.Set("count", 1)
		assert.Equal(t, 1, rs.Scheduler().Pending())
		data.Set("count", 1)
		assert.Equal(t, 1, rs.Scheduler().Pending())

		rs.Tick()
		assert.Equal(t, 2, callCount)

		data.Set("count", 1)
		assert.Equal(t, 0, rs.Scheduler().Pending())
		rs.Tick()
		assert.Equal(t, 2, callCount)
	})

	t.Run("siblings flush once in creation order", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{"x": 0})

		var order []string
		watch := func(name string) *Watcher {
			return rs.NewWatcher(func() (any, error) {
				return o.Get("x"), nil
			}, func(_, _ any) error {
				order = append(order, name)
				return nil
			}, WatcherOptions{User: true})
		}
		first := watch("first")
		second := watch("second")
		assert.Less(t, first.ID(), second.ID())

		var flushes [][]*Watcher
		rs.Scheduler().OnFlushed(func(flushed []*Watcher) {
			flushes = append(flushes, flushed)
		})

		o.Set("x", 1)
		o.Set("x", 2)
		rs.Tick()

		assert.Equal(t, []string{"first", "second"}, order)
		require.Len(t, flushes, 1)
		assert.Equal(t, []*Watcher{first, second}, flushes[0])
	})

	t.Run("flush runs in id order regardless of notify order", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{"a": 0, "b": 0})

		var order []uint64
		var ws []*Watcher
		for _, key := range []string{"a", "b"} {
			ws = append(ws, rs.NewWatcher(func() (any, error) {
				return o.Get(key), nil
			}, nil, WatcherOptions{Before: func() {}}))
		}
		rs.Scheduler().OnFlushed(func(flushed []*Watcher) {
			for _, w := range flushed {
				order = append(order, w.ID())
			}
		})

		o.Set("b", 1)
		o.Set("a", 1)
		rs.Tick()
		assert.Equal(t, []uint64{ws[0].ID(), ws[1].ID()}, order)
	})

	t.Run("watcher queued during a flush runs in the same pass", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{"a": 0, "b": 0})

		bRuns := 0
		rs.NewWatcher(func() (any, error) {
			return o.Get("a"), nil
		}, func(newValue, _ any) error {
			o.Set("b", newValue)
			return nil
		}, WatcherOptions{User: true})
		rs.NewWatcher(func() (any, error) {
			return o.Get("b"), nil
		}, func(_, _ any) error {
			bRuns++
			return nil
		}, WatcherOptions{User: true})

		flushes := 0
		rs.Scheduler().OnFlushed(func([]*Watcher) { flushes++ })

		o.Set("a", 5)
		rs.Tick()
		assert.Equal(t, 1, bRuns)
		assert.Equal(t, 1, flushes)
	})

	t.Run("self write does not re-enter", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{"n": 0})

		callCount := 0
		w := rs.NewWatcher(func() (any, error) {
			callCount++
			n := o.Get("n").(int)
			o.Set("n", n+1)
			return n, nil
		}, nil, WatcherOptions{})
		assert.Equal(t, 1, callCount)
		assert.Equal(t, 0, rs.Scheduler().Pending())
		assert.Equal(t, 0, w.Value())
		assert.Equal(t, 1, o.Peek("n"))
	})

	t.Run("callback writing its own source runs on the next flush", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{"x": 0})

		var seen []any
		rs.NewWatcher(func() (any, error) {
			return o.Get("x"), nil
		}, func(newValue, _ any) error {
			seen = append(seen, newValue)
			if v := newValue.(int); v < 3 {
				o.Set("x", v+1)
			}
			return nil
		}, WatcherOptions{User: true})

		flushes := 0
		rs.Scheduler().OnFlushed(func([]*Watcher) { flushes++ })

		o.Set("x", 1)
		rs.Tick()
		assert.Equal(t, []any{1, 2, 3}, seen)
		assert.Equal(t, 3, flushes)
	})

	t.Run("infinite update loop is stopped", func(t *testing.T) {
		rs, rec := newTestSystem(t)
		o := observed(rs, map[string]any{"x": 0})

		runs := 0
		rs.NewWatcher(func() (any, error) {
			return o.Get("x"), nil
		}, func(newValue, _ any) error {
			runs++
			o.Set("x", newValue.(int)+1)
			return nil
		}, WatcherOptions{User: true, Expression: "x"})

		o.Set("x", 1)
		rs.Tick()
		assert.Equal(t, MaxUpdateCount, runs)
		assert.True(t, rec.HasWarning(`You may have an infinite update loop in watcher with expression "x"`))
		assert.Equal(t, 0, rs.Scheduler().Pending())
	})

	t.Run("teardown removes a queued watcher", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{"x": 0})

		callCount := 0
		w := rs.NewWatcher(func() (any, error) {
			callCount++
			return o.Get("x"), nil
		}, nil, WatcherOptions{})

		tornDown := false
		w.OnTeardown(func() { tornDown = true })

		o.Set("x", 1)
		assert.Equal(t, 1, rs.Scheduler().Pending())
		w.Teardown()
		assert.Equal(t, 0, rs.Scheduler().Pending())
		rs.Tick()

		assert.Equal(t, 1, callCount)
		assert.True(t, tornDown)
		assert.False(t, w.Active())
		assert.Empty(t, o.FieldDep("x").Subscribers())
	})

	t.Run("failing callback does not abort the flush", func(t *testing.T) {
		var infos []string
		rs, _ := newTestSystem(t, WithErrorHandler(func(err error, owner any, info string) {
			infos = append(infos, info)
		}))
		o := observed(rs, map[string]any{"x": 0})

		rs.NewWatcher(func() (any, error) {
			return o.Get("x"), nil
		}, func(_, _ any) error {
			return errors.New("boom")
		}, WatcherOptions{User: true, Expression: "x"})

		second := 0
		rs.NewWatcher(func() (any, error) {
			return o.Get("x"), nil
		}, func(_, _ any) error {
			second++
			return nil
		}, WatcherOptions{User: true})

		o.Set("x", 1)
		rs.Tick()
		assert.Equal(t, []string{`callback for watcher "x"`}, infos)
		assert.Equal(t, 1, second)
	})

	t.Run("sync flush and sync watchers", func(t *testing.T) {
		rs, _ := newTestSystem(t, WithSyncFlush())
		o := observed(rs, map[string]any{"x": 0})

		callCount := 0
		rs.NewWatcher(func() (any, error) {
			callCount++
			return o.Get("x"), nil
		}, nil, WatcherOptions{})
		o.Set("x", 1)
		assert.Equal(t, 2, callCount)

		rs2, _ := newTestSystem(t)
		o2 := observed(rs2, map[string]any{"x": 0})
		syncCount := 0
		rs2.NewWatcher(func() (any, error) {
			syncCount++
			return o2.Get("x"), nil
		}, nil, WatcherOptions{Sync: true})
		o2.Set("x", 1)
		assert.Equal(t, 2, syncCount)
		assert.Equal(t, 0, rs2.Scheduler().Pending())
	})

	t.Run("next tick runs after the flush", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{"x": 0})

		var events []string
		rs.NewWatcher(func() (any, error) {
			events = append(events, "render")
			return o.Get("x"), nil
		}, nil, WatcherOptions{})

		o.Set("x", 1)
		rs.NextTick(func() { events = append(events, "tick") })
		rs.Tick()
		assert.Equal(t, []string{"render", "render", "tick"}, events)
	})
}

func TestComputed(t *testing.T) {
	rs, _ := newTestSystem(t)
	o := observed(rs, map[string]any{"a": 2, "b": 3})

	callCount := 0
	c := rs.NewWatcher(func() (any, error) {
		callCount++
		return o.Get("a").(int) * o.Get("b").(int), nil
	}, nil, WatcherOptions{Lazy: true})
	assert.Equal(t, 0, callCount)
	assert.True(t, c.Dirty())

	read := func() any {
		if c.Dirty() {
			c.Evaluate()
		}
		if rs.Target() != nil {
			c.Depend()
		}
		return c.Value()
	}

	renders := 0
	rs.NewWatcher(func() (any, error) {
		renders++
		return read(), nil
	}, nil, WatcherOptions{})
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 6, c.Value())

	read()
	assert.Equal(t, 1, callCount)

	o.Set("a", 4)
	assert.True(t, c.Dirty())
	rs.Tick()
	assert.Equal(t, 2, callCount)
	assert.Equal(t, 2, renders)
	assert.Equal(t, 12, c.Value())
}

func TestDeepWatch(t *testing.T) {
	rs, _ := newTestSystem(t)
	o := observed(rs, map[string]any{
		"nested": map[string]any{"leaf": 1},
	})

	calls := 0
	rs.NewWatcher(func() (any, error) {
		return o.Get("nested"), nil
	}, func(_, _ any) error {
		calls++
		return nil
	}, WatcherOptions{User: true, Deep: true})

	nested := o.Peek("nested").(*Object)
	nested.Set("leaf", 2)
	rs.Tick()
	assert.Equal(t, 1, calls)
}

func TestTraverse(t *testing.T) {
	t.Run("unobserved cycles terminate", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := NewObject(map[string]any{"v": 1}).MarkRaw()
		o.Set("self", o)
		arr := NewArray(o)
		arr.Push(arr)

		assert.NotPanics(t, func() { rs.Traverse(arr) })
	})

	t.Run("observed cycles terminate", func(t *testing.T) {
		rs, _ := newTestSystem(t)
		o := observed(rs, map[string]any{"v": 1})
		o.Set("self", o)

		assert.NotPanics(t, func() { rs.Traverse(o) })
	})
}
