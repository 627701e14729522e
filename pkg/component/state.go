package component

import (
	"fmt"
	"slices"
	"sort"

	"github.com/delaneyj/viewcore/pkg/diag"
	"github.com/delaneyj/viewcore/pkg/reactive"
)

// instance level names user methods must not shadow
var instanceMethods = []string{
	"$emit", "$on", "$once", "$off", "$set", "$delete", "$watch", "$mount",
	"$destroy", "$forceUpdate", "$nextTick", "_init", "_render", "_update",
}

func (vm *Instance) initState() {
	vm.watchers = nil
	if props := vm.options.props(); props != nil {
		vm.initProps(props)
	}
	if methods, ok := vm.options[OptMethods].(*Table[Method]); ok {
		vm.initMethods(methods)
	}
	vm.initData()
	if computed, ok := vm.options[OptComputed].(*Table[Computed]); ok {
		vm.initComputed(computed)
	}
	if watch, ok := vm.options[OptWatch].(Watchers); ok {
		vm.initWatch(watch)
	}
}

func (vm *Instance) initProps(props Props) {
	rt := vm.rt
	rs := rt.rs
	propsData, _ := vm.options[OptPropsData].(map[string]any)
	vm.props = reactive.NewObject(nil)
	keys := props.Keys()
	vm.options[optPropKeys] = keys

	isRoot := vm.parent == nil
	// props passed from a parent are already observed by it
	if !isRoot {
		prev := rs.ToggleObserving(false)
		defer rs.ToggleObserving(prev)
	}
	for _, key := range keys {
		value := vm.validateProp(key, props, propsData)
		if rt.Config.IsReservedAttr(Hyphenate(key)) {
			vm.warn(fmt.Sprintf("%q is a reserved attribute and cannot be used as component prop.", Hyphenate(key)))
		}
		rs.DefineReactive(vm.props, key, value, reactive.CustomSetter(func(any) {
			if !isRoot && !rt.updatingChild {
				vm.warn(fmt.Sprintf("Avoid mutating a prop directly since the value will be overwritten whenever the parent component re-renders. Instead, use a data or computed property based on the prop's value. Prop being mutated: %q", key))
			}
		}))
	}
}

func (vm *Instance) initMethods(methods *Table[Method]) {
	vm.methods = map[string]func(args ...any) (any, error){}
	for _, key := range methods.Keys() {
		fn, _ := methods.Lookup(key)
		if fn == nil {
			vm.warn(fmt.Sprintf("Method %q has type \"nil\" in the component definition. Did you reference the function correctly?", key))
			vm.methods[key] = func(...any) (any, error) { return nil, nil }
			continue
		}
		if vm.props != nil && vm.props.Has(key) {
			vm.warn(fmt.Sprintf("Method %q has already been defined as a prop.", key))
		}
		if isReserved(key) && slices.Contains(instanceMethods, key) {
			vm.warn(fmt.Sprintf("Method %q conflicts with an existing instance method. Avoid defining component methods that start with _ or $.", key))
			continue
		}
		vm.methods[key] = func(args ...any) (out any, err error) {
			err = diag.Safe(func() error {
				var callErr error
				out, callErr = fn(vm, args...)
				return callErr
			})
			return out, err
		}
	}
}

func (vm *Instance) initData() {
	rt := vm.rt
	var raw map[string]any
	switch d := vm.options[OptData].(type) {
	case nil:
	case DataFunc:
		// data functions must not subscribe the watcher that created the instance
		rt.rs.Untracked(func() {
			err := rt.invoke(vm, "data()", func() (err error) {
				raw, err = d(vm)
				return err
			})
			if err != nil {
				raw = nil
			}
		})
	default:
		vm.warn(fmt.Sprintf("data functions should return an object, got %s", typeName(d)))
	}

	data := reactive.NewObject(raw)
	for _, key := range data.Keys() {
		if vm.methods[key] != nil {
			vm.warn(fmt.Sprintf("Method %q has already been defined as a data property.", key))
		}
		if vm.props != nil && vm.props.Has(key) {
			vm.warn(fmt.Sprintf("The data property %q is already declared as a prop. Use prop default value instead.", key))
		}
	}
	vm.data = data
	rt.rs.Observe(data, true)
}

func (vm *Instance) initComputed(computed *Table[Computed]) {
	rs := vm.rt.rs
	vm.computedWatchers = map[string]*reactive.Watcher{}
	vm.computed = map[string]Computed{}
	for _, key := range computed.Keys() {
		def, _ := computed.Lookup(key)
		if def.Get == nil {
			vm.warn(fmt.Sprintf("Getter is missing for computed property %q.", key))
		}
		switch {
		case vm.data.Has(key):
			vm.warn(fmt.Sprintf("The computed property %q is already defined in data.", key))
			continue
		case vm.props != nil && vm.props.Has(key):
			vm.warn(fmt.Sprintf("The computed property %q is already defined as a prop.", key))
			continue
		case vm.methods[key] != nil:
			vm.warn(fmt.Sprintf("The computed property %q is already defined as a method.", key))
			continue
		}
		get := def.Get
		w := rs.NewWatcher(func() (any, error) {
			if get == nil {
				return nil, nil
			}
			return get(vm)
		}, nil, reactive.WatcherOptions{Lazy: true, Owner: vm, Expression: key})
		vm.computedWatchers[key] = w
		vm.computed[key] = def
		vm.watchers = append(vm.watchers, w)
	}
}

func (vm *Instance) computedValue(key string) any {
	w := vm.computedWatchers[key]
	if def := vm.computed[key]; def.NoCache {
		if def.Get == nil {
			return nil
		}
		var out any
		vm.rt.invoke(vm, fmt.Sprintf("getter for computed %q", key), func() (err error) {
			out, err = def.Get(vm)
			return err
		})
		return out
	}
	if w.Dirty() {
		w.Evaluate()
	}
	if vm.rt.rs.Target() != nil {
		w.Depend()
	}
	return w.Value()
}

func (vm *Instance) setComputed(key string, value any) {
	def := vm.computed[key]
	if def.Set == nil {
		vm.warn(fmt.Sprintf("Computed property %q was assigned to but it has no setter.", key))
		return
	}
	vm.rt.invoke(vm, fmt.Sprintf("setter for computed %q", key), func() error {
		return def.Set(vm, value)
	})
}

func (vm *Instance) initWatch(watch Watchers) {
	keys := make([]string, 0, len(watch))
	for k := range watch {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, spec := range watch[key] {
			vm.createWatcher(key, spec)
		}
	}
}

func (vm *Instance) createWatcher(key string, spec WatchSpec) {
	handler := spec.Handler
	if handler == nil && spec.Method != "" {
		method := vm.methods[spec.Method]
		if method == nil {
			vm.warn(fmt.Sprintf("Failed watching %q: method %q is not defined.", key, spec.Method))
			return
		}
		handler = func(_ *Instance, newValue, oldValue any) error {
			_, err := method(newValue, oldValue)
			return err
		}
	}
	if handler == nil {
		vm.warn(fmt.Sprintf("Failed watching %q: no handler.", key))
		return
	}
	vm.Watch(key, handler, WatchOptions{Deep: spec.Deep, Immediate: spec.Immediate, Sync: spec.Sync})
}

// WatchOptions tune Watch.
type WatchOptions struct {
	Deep      bool
	Immediate bool
	Sync      bool
}

// Watch calls cb whenever the value of expr changes. expr is a dotted path
// resolved against the instance or a func(*Instance) (any, error). The
// returned function stops watching.
func (vm *Instance) Watch(expr any, cb WatchHandler, opts WatchOptions) (unwatch func()) {
	if !vm.usable("Watch") {
		return func() {}
	}
	var getter reactive.Getter
	expression := ""
	switch e := expr.(type) {
	case string:
		expression = e
		if parse := reactive.ParsePath(e); parse != nil {
			getter = func() (any, error) { return parse(vm), nil }
		} else {
			vm.warn(fmt.Sprintf("Failed watching path: %q Watcher only accepts simple dot-delimited paths. For full control, use a function instead.", e))
		}
	case func(*Instance) (any, error):
		getter = func() (any, error) { return e(vm) }
	default:
		vm.warn(fmt.Sprintf("Invalid watch expression: %s", typeName(expr)))
	}

	var callback reactive.Callback
	if cb != nil {
		callback = func(newValue, oldValue any) error { return cb(vm, newValue, oldValue) }
	}
	w := vm.rt.rs.NewWatcher(getter, callback, reactive.WatcherOptions{
		User:       true,
		Deep:       opts.Deep,
		Sync:       opts.Sync,
		Owner:      vm,
		Expression: expression,
	})
	vm.watchers = append(vm.watchers, w)

	if opts.Immediate && cb != nil {
		vm.rt.rs.Untracked(func() {
			vm.rt.invoke(vm, fmt.Sprintf("callback for immediate watcher %q", expression), func() error {
				return cb(vm, w.Value(), nil)
			})
		})
	}
	return func() {
		w.Teardown()
		if i := slices.Index(vm.watchers, w); i >= 0 {
			vm.watchers = slices.Delete(vm.watchers, i, i+1)
		}
	}
}
