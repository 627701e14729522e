package component

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delaneyj/viewcore/pkg/diag"
)

func TestErrorHandling(t *testing.T) {
	failing := func(rt *Runtime) *Constructor {
		return rt.Extend(Options{
			OptName: "failing",
			HookCreated: func(*Instance) error {
				return errors.New("boom")
			},
		})
	}

	t.Run("errorCaptured can stop propagation", func(t *testing.T) {
		var handled []string
		rt, _ := newTestRuntime(t, func(cfg *Config) {
			cfg.ErrorHandler = func(err error, vm *Instance, info string) {
				handled = append(handled, info+": "+err.Error())
			}
		})

		propagate := false
		var sources []*Instance
		parent := rt.New(Options{OptErrorCaptured: func(vm *Instance, err error, source *Instance, info string) (bool, error) {
			sources = append(sources, source)
			return propagate, nil
		}})

		child := failing(rt).New(Options{OptParent: parent})
		assert.Equal(t, []*Instance{child}, sources)
		assert.Empty(t, handled)

		propagate = true
		failing(rt).New(Options{OptParent: parent})
		assert.Equal(t, []string{"created hook: boom"}, handled)
	})

	t.Run("failing errorCaptured hooks are reported", func(t *testing.T) {
		var handled []string
		rt, _ := newTestRuntime(t, func(cfg *Config) {
			cfg.ErrorHandler = func(err error, vm *Instance, info string) {
				handled = append(handled, info)
			}
		})
		parent := rt.New(Options{OptErrorCaptured: func(*Instance, error, *Instance, string) (bool, error) {
			return false, errors.New("hook failed")
		}})
		failing(rt).New(Options{OptParent: parent})
		assert.Equal(t, []string{"errorCaptured hook", "created hook"}, handled)
	})

	t.Run("unhandled errors are logged", func(t *testing.T) {
		rt, rec := newTestRuntime(t)
		failing(rt).New(nil)
		assert.True(t, rec.HasWarning(`Error in created hook: "boom"`))

		var logged bool
		for _, e := range rec.Entries() {
			if e.Message == "unhandled error" {
				logged = true
			}
		}
		assert.True(t, logged)
	})

	t.Run("panics become errors", func(t *testing.T) {
		var got error
		rt, _ := newTestRuntime(t, func(cfg *Config) {
			cfg.ErrorHandler = func(err error, vm *Instance, info string) { got = err }
		})
		rt.New(Options{HookMounted: func(*Instance) error { panic("kaboom") }}).Mount(nil)
		require.Error(t, got)
		var pe *diag.PanicError
		assert.ErrorAs(t, got, &pe)
		assert.Contains(t, got.Error(), "kaboom")
	})

	t.Run("a panicking handler falls back to logging", func(t *testing.T) {
		rt, rec := newTestRuntime(t, func(cfg *Config) {
			cfg.ErrorHandler = func(err error, vm *Instance, info string) { panic("handler broke") }
		})
		failing(rt).New(nil)
		assert.True(t, rec.HasWarning(`Error in config.ErrorHandler`))
		assert.True(t, rec.HasWarning(`Error in created hook: "boom"`))
	})

	t.Run("warn handler and production mode", func(t *testing.T) {
		var msgs, traces []string
		rt, rec := newTestRuntime(t, func(cfg *Config) {
			cfg.WarnHandler = func(msg string, vm *Instance, trace string) {
				msgs = append(msgs, msg)
				traces = append(traces, trace)
			}
		})
		vm := rt.New(nil)
		vm.Set("nope", 1)
		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0], `Property "nope"`)
		assert.Equal(t, "(found in <Root>)", traces[0])
		assert.Empty(t, rec.Warnings())

		rt.Config.Production = true
		vm.Set("nope", 1)
		assert.Len(t, msgs, 1)
	})
}

func TestZeroInstance(t *testing.T) {
	vm := &Instance{}
	calls := []struct {
		name string
		call func()
	}{
		{"Get", func() { assert.Nil(t, vm.Get("a")) }},
		{"Set", func() { vm.Set("a", 1) }},
		{"Call", func() { vm.Call("a") }},
		{"SetField", func() { assert.Equal(t, 1, vm.SetField(map[string]any{}, "a", 1)) }},
		{"DeleteField", func() { vm.DeleteField(map[string]any{}, "a") }},
		{"NextTick", func() { vm.NextTick(func(*Instance) { t.Fatal("callback ran") }) }},
		{"ForceUpdate", func() { vm.ForceUpdate() }},
		{"Attrs", func() { assert.Nil(t, vm.Attrs()) }},
		{"Listeners", func() { assert.Nil(t, vm.Listeners()) }},
		{"On", func() { vm.On("a", func(...any) error { return nil })() }},
		{"Once", func() { vm.Once("a", func(...any) error { return nil })() }},
		{"Off", func() { vm.Off() }},
		{"Emit", func() { vm.Emit("a") }},
		{"Watch", func() { vm.Watch("a", func(*Instance, any, any) error { return nil }, WatchOptions{})() }},
		{"RegisterRef", func() { vm.RegisterRef("a", 1, false) }},
		{"ResolveDirective", func() { assert.Nil(t, vm.ResolveDirective("a")) }},
		{"ResolveFilter", func() { assert.Nil(t, vm.ResolveFilter("a")) }},
		{"UpdateChildComponent", func() { vm.UpdateChildComponent(nil, nil, nil, nil) }},
		{"Mount", func() { vm.Mount(nil) }},
		{"Destroy", func() { vm.Destroy() }},
	}
	for _, c := range calls {
		t.Run(c.name, func(t *testing.T) {
			assert.NotPanics(t, c.call)
		})
	}
}

func TestComponentTrace(t *testing.T) {
	t.Run("names", func(t *testing.T) {
		rt, _ := newTestRuntime(t)
		root := rt.New(nil)
		assert.Equal(t, "<Root>", root.FormatName(false))

		button := rt.Extend(Options{OptName: "my-button", OptFile: "src/components/MyButton.vue"}).New(Options{OptParent: root})
		assert.Equal(t, "<MyButton>", button.FormatName(false))
		assert.Equal(t, "<MyButton> at src/components/MyButton.vue", button.FormatName(true))

		fromFile := rt.Extend(Options{OptFile: "src/Card.vue"}).New(Options{OptParent: root})
		assert.Equal(t, "<Card>", fromFile.FormatName(false))

		anon := rt.New(Options{OptParent: root})
		assert.Equal(t, "<Anonymous>", anon.FormatName(false))
	})

	t.Run("ancestry", func(t *testing.T) {
		rt, _ := newTestRuntime(t)
		root := rt.New(nil)
		button := rt.Extend(Options{OptName: "my-button"}).New(Options{OptParent: root})
		assert.Equal(t, "found in\n\n---> <MyButton>\n       <Root>", button.componentTrace())
	})

	t.Run("recursion is folded", func(t *testing.T) {
		rt, _ := newTestRuntime(t)
		item := rt.Extend(Options{OptName: "item"})
		root := rt.New(nil)
		a := item.New(Options{OptParent: root})
		b := item.New(Options{OptParent: a})
		c := item.New(Options{OptParent: b})
		assert.Equal(t, "found in\n\n---> <Item>... (2 recursive calls)\n       <Root>", c.componentTrace())
	})
}
