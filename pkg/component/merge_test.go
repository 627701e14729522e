package component

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delaneyj/viewcore/pkg/reactive"
	"github.com/delaneyj/viewcore/pkg/vdom"
)

func TestMergeOptions(t *testing.T) {
	t.Run("hooks concatenate parent first", func(t *testing.T) {
		rt, _ := newTestRuntime(t)
		var order []string
		parent := rt.Extend(Options{HookCreated: func(*Instance) error {
			order = append(order, "P")
			return nil
		}})
		child := parent.Extend(Options{HookCreated: func(*Instance) error {
			order = append(order, "C")
			return nil
		}})
		assert.Len(t, child.Options().Hooks(HookCreated), 2)
		assert.Len(t, parent.Options().Hooks(HookCreated), 1)

		child.New(nil)
		assert.Equal(t, []string{"P", "C"}, order)
	})

	t.Run("mixins and extends fold in before the component", func(t *testing.T) {
		rt, _ := newTestRuntime(t)
		var order []string
		hook := func(name string) Hook {
			return func(*Instance) error {
				order = append(order, name)
				return nil
			}
		}
		rt.New(Options{
			OptExtends:  Options{HookCreated: hook("extends")},
			OptMixins:   []Options{{HookCreated: hook("mixin1")}, {HookCreated: hook("mixin2")}},
			HookCreated: hook("own"),
		})
		assert.Equal(t, []string{"extends", "mixin1", "mixin2", "own"}, order)
	})

	t.Run("data merges recursively with child priority", func(t *testing.T) {
		rt, _ := newTestRuntime(t)
		parent := rt.Extend(Options{OptData: dataOf(map[string]any{
			"a":      1,
			"shared": "parent",
			"nested": map[string]any{"x": 1, "y": 1},
		})})
		vm := parent.Extend(Options{OptData: func(*Instance) (map[string]any, error) {
			return map[string]any{
				"b":      2,
				"shared": "child",
				"nested": map[string]any{"y": 2},
			}, nil
		}}).New(nil)

		assert.Equal(t, 1, vm.Get("a"))
		assert.Equal(t, 2, vm.Get("b"))
		assert.Equal(t, "child", vm.Get("shared"))
		nested, ok := vm.Get("nested").(*reactive.Object)
		require.True(t, ok)
		assert.Equal(t, 1, nested.Get("x"))
		assert.Equal(t, 2, nested.Get("y"))
	})

	t.Run("data objects are rejected on constructors", func(t *testing.T) {
		rt, rec := newTestRuntime(t)
		rt.Extend(Options{OptData: map[string]any{"a": 1}})
		assert.True(t, rec.HasWarning(`The "data" option should be a function`))
	})

	t.Run("keyed options resolve through the parent", func(t *testing.T) {
		rt, _ := newTestRuntime(t)
		parent := rt.Extend(Options{OptMethods: Methods{
			"a": func(*Instance, ...any) (any, error) { return "parent a", nil },
			"b": func(*Instance, ...any) (any, error) { return "parent b", nil },
		}})
		vm := parent.Extend(Options{OptMethods: Methods{
			"a": func(*Instance, ...any) (any, error) { return "child a", nil },
		}}).New(nil)

		a, _ := vm.Call("a")
		b, _ := vm.Call("b")
		assert.Equal(t, "child a", a)
		assert.Equal(t, "parent b", b)
	})

	t.Run("watchers concatenate per key", func(t *testing.T) {
		rt, _ := newTestRuntime(t)
		noop := func(*Instance, any, any) error { return nil }
		parent := rt.Extend(Options{OptWatch: Watchers{"a": {{Handler: noop}}}})
		child := parent.Extend(Options{OptWatch: Watchers{"a": {{Handler: noop}}, "b": {{Handler: noop}}}})
		w := child.Options()[OptWatch].(Watchers)
		assert.Len(t, w["a"], 2)
		assert.Len(t, w["b"], 1)
		assert.Len(t, parent.Options()[OptWatch].(Watchers)["a"], 1)
	})

	t.Run("props merge with child priority", func(t *testing.T) {
		rt, _ := newTestRuntime(t)
		parent := rt.Extend(Options{OptProps: Props{"a": {Type: []PropType{TypeString}}, "b": {}}})
		child := parent.Extend(Options{OptProps: map[string]any{"a": TypeNumber}})
		props := child.Options().props()
		require.Len(t, props, 2)
		assert.Equal(t, []PropType{TypeNumber}, props["a"].Type)
	})

	t.Run("instance only options warn on extend", func(t *testing.T) {
		rt, rec := newTestRuntime(t)
		rt.Extend(Options{OptEl: "#app"})
		assert.True(t, rec.HasWarning(`option "el" can only be used during instance creation.`))
	})

	t.Run("custom strategies override the default", func(t *testing.T) {
		rt, _ := newTestRuntime(t, func(cfg *Config) {
			cfg.MergeStrategies["tags"] = func(m *Merger, parent, child any, key string) any {
				p, _ := parent.(string)
				c, _ := child.(string)
				if p == "" {
					return c
				}
				return p + "," + c
			}
		})
		parent := rt.Extend(Options{"tags": "a", "plain": 1})
		child := parent.Extend(Options{"tags": "b", "plain": 2})
		assert.Equal(t, "a,b", child.Options()["tags"])
		assert.Equal(t, 2, child.Options()["plain"])
	})

	t.Run("invalid hook values fall back to override", func(t *testing.T) {
		rt, rec := newTestRuntime(t)
		ctor := rt.Extend(Options{HookCreated: "nope"})
		assert.True(t, rec.HasWarning(`Invalid value for option "created"`))
		assert.Equal(t, "nope", ctor.Options()[HookCreated])
	})
}

func TestConstructor(t *testing.T) {
	t.Run("super mixins reach existing subs", func(t *testing.T) {
		rt, _ := newTestRuntime(t)
		sub := rt.Extend(Options{OptName: "sub"})

		var order []string
		sub.Mixin(Options{HookCreated: func(*Instance) error {
			order = append(order, "sub mixin")
			return nil
		}})
		rt.Mixin(Options{HookCreated: func(*Instance) error {
			order = append(order, "global")
			return nil
		}})

		sub.New(nil)
		assert.Equal(t, []string{"global", "sub mixin"}, order)
		assert.Len(t, sub.Options().Hooks(HookCreated), 2)

		order = nil
		sub.New(nil)
		assert.Equal(t, []string{"global", "sub mixin"}, order)
	})

	t.Run("late options survive re-resolution", func(t *testing.T) {
		rt, _ := newTestRuntime(t)
		sub := rt.Extend(Options{OptName: "sub"})
		sub.SetOption("custom", 42)
		rt.Mixin(Options{"other": true})

		opts := sub.ResolveOptions()
		assert.Equal(t, 42, opts["custom"])
		assert.Equal(t, true, opts["other"])
		assert.Equal(t, "sub", opts.Name())
	})

	t.Run("named constructors resolve themselves", func(t *testing.T) {
		rt, _ := newTestRuntime(t)
		tree := rt.Extend(Options{OptName: "tree-node"})
		found, ok := ResolveAsset(tree.Options(), KindComponent, "tree-node")
		require.True(t, ok)
		assert.Same(t, tree, found)
		assert.True(t, tree.IsSubOf(rt.Base()))
		assert.False(t, rt.Base().IsSubOf(tree))
		assert.NotEqual(t, rt.Base().CID(), tree.CID())
	})
}

func TestAssets(t *testing.T) {
	t.Run("component options become constructors", func(t *testing.T) {
		rt, _ := newTestRuntime(t)
		def := rt.Components().Register("my-widget", Options{})
		ctor, ok := def.(*Constructor)
		require.True(t, ok)
		assert.Equal(t, "my-widget", ctor.Name())
		assert.Same(t, ctor, rt.Components().Lookup("my-widget"))

		vm := rt.New(nil)
		found, ok := ResolveAsset(vm.Options(), KindComponent, "my-widget")
		require.True(t, ok)
		assert.Same(t, ctor, found)
	})

	t.Run("lookups try camel and pascal case", func(t *testing.T) {
		rt, _ := newTestRuntime(t)
		def := rt.Components().Register("MyWidget", Options{})
		found, ok := ResolveAsset(rt.New(nil).Options(), KindComponent, "my-widget")
		require.True(t, ok)
		assert.Same(t, def, found)
	})

	t.Run("own assets win over inherited ones", func(t *testing.T) {
		rt, _ := newTestRuntime(t)
		rt.Filters().Register("fmt", func(v any, _ ...any) any { return "global" })
		vm := rt.New(Options{OptFilters: map[string]any{
			"fmt": Filter(func(v any, _ ...any) any { return "local" }),
		}})
		assert.Equal(t, "local", vm.ResolveFilter("fmt")(nil))
	})

	t.Run("directive functions expand", func(t *testing.T) {
		rt, rec := newTestRuntime(t)
		rt.Directives().Register("focus", DirectiveHook(func(vdom.Element, any, *vdom.VNode) {}))
		vm := rt.New(nil)
		d := vm.ResolveDirective("focus")
		require.NotNil(t, d)
		assert.NotNil(t, d.Bind)
		assert.NotNil(t, d.Update)
		assert.Nil(t, d.Inserted)

		assert.Nil(t, vm.ResolveDirective("missing"))
		assert.True(t, rec.HasWarning("Failed to resolve directive: missing"))
	})

	t.Run("invalid names warn", func(t *testing.T) {
		rt, rec := newTestRuntime(t, func(cfg *Config) {
			cfg.IsReservedTag = func(tag string) bool { return tag == "div" }
		})
		rt.Components().Register("1bad", Options{})
		rt.Components().Register("slot", Options{})
		rt.Components().Register("div", Options{})
		assert.True(t, rec.HasWarning(`Invalid component name: "1bad"`))
		assert.True(t, rec.HasWarning("Do not use built-in or reserved HTML elements as component id: slot"))
		assert.True(t, rec.HasWarning("Do not use built-in or reserved HTML elements as component id: div"))
	})
}

func TestNames(t *testing.T) {
	for _, tc := range []struct{ in, camel, hyphen string }{
		{"my-widget", "myWidget", "my-widget"},
		{"myWidget", "myWidget", "my-widget"},
		{"MyWidget", "MyWidget", "my-widget"},
		{"a", "a", "a"},
	} {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.camel, Camelize(tc.in))
			assert.Equal(t, tc.hyphen, Hyphenate(tc.in))
		})
	}
	assert.Equal(t, "MyWidget", Capitalize("myWidget"))
	assert.Equal(t, "", Capitalize(""))
}

func TestTable(t *testing.T) {
	parent := NewTable(nil, map[string]int{"a": 1, "b": 2})
	child := NewTable(parent, map[string]int{"b": 3, "c": 4})

	v, ok := child.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	v, _ = child.Lookup("b")
	assert.Equal(t, 3, v)
	assert.True(t, child.Own("c"))
	assert.False(t, child.Own("a"))
	assert.Equal(t, []string{"a", "b", "c"}, child.Keys())
	assert.Equal(t, 3, child.Len())

	parent.Set("d", 5)
	assert.True(t, child.Has("d"))
	assert.Equal(t, fmt.Sprint([]string{"a", "b", "d"}), fmt.Sprint(parent.Keys()))
}
