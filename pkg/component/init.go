package component

import (
	"fmt"
	"slices"

	"github.com/delaneyj/viewcore/pkg/reactive"
	"github.com/delaneyj/viewcore/pkg/vdom"
)

// internalOptions are passed to instances created for component vnodes.
type internalOptions struct {
	parent      *Instance
	parentVnode *vdom.VNode
	render      RenderFunc
	staticFns   []RenderFunc
}

func (vm *Instance) init(opts Options, internal *internalOptions) {
	rt := vm.rt
	rt.uid++
	vm.uid = rt.uid
	done := vm.mark(PhaseInit)

	if internal != nil {
		// the general merge is skipped for internal instances, they only need
		// a handful of fields from their vnode
		vm.initInternalComponent(internal)
	} else {
		vm.options = rt.MergeOptions(vm.ctor.ResolveOptions(), opts, vm)
	}
	vm.enter(StateConfigResolved)

	vm.initLifecycle()
	vm.enter(StateLifecycleLinked)

	vm.initEvents()
	vm.enter(StateEventsWired)

	vm.initRender()
	vm.enter(StateRenderReady)

	vm.callHook(HookBeforeCreate)
	vm.enter(StateBeforeCreate)

	vm.initInjections()
	vm.enter(StateInjectionsResolved)

	vm.initState()
	vm.enter(StateStateObserved)

	vm.initProvide()
	vm.enter(StateProvisionsResolved)

	vm.callHook(HookCreated)
	vm.enter(StateInitialized)
	done()

	if el, ok := vm.options[OptEl]; ok && el != nil {
		vm.Mount(el)
	}
}

func (vm *Instance) initInternalComponent(in *internalOptions) {
	opts := vm.ctor.ResolveOptions().Clone()
	pv := in.parentVnode
	opts[OptParent] = in.parent
	opts[optParentVnode] = pv
	if co := pv.ComponentOptions; co != nil {
		opts[OptPropsData] = co.PropsData
		opts[optParentListeners] = co.Listeners
		opts[optRenderChildren] = co.Children
		opts[optComponentTag] = co.Tag
	}
	if in.render != nil {
		opts[OptRender] = in.render
		opts[OptStaticRenderFns] = in.staticFns
	}
	vm.options = opts
	vm.isComponent = true
}

func (vm *Instance) initLifecycle() {
	vm.abstract, _ = vm.options[OptAbstract].(bool)
	parent, _ := vm.options[OptParent].(*Instance)
	if parent != nil && !vm.abstract {
		for parent.abstract && parent.parent != nil {
			parent = parent.parent
		}
		parent.children = append(parent.children, vm)
	}
	vm.parent = parent
	vm.root = vm
	if parent != nil {
		vm.root = parent.root
	}
	vm.children = nil
	vm.refs = map[string]any{}
	vm.watcher = nil
	vm.isMounted = false
	vm.isDestroyed = false
	vm.isBeingDestroyed = false
}

func (vm *Instance) initEvents() {
	vm.events = map[string][]*listener{}
	vm.hasHookEvent = false
	if listeners, ok := vm.options[optParentListeners].(map[string]EventHandler); ok && len(listeners) > 0 {
		vm.updateListeners(listeners)
	}
}

func (vm *Instance) initRender() {
	vm.vnode = nil
	vm.staticTrees = nil
	vm.parentVnode, _ = vm.options[optParentVnode].(*vdom.VNode)
	children, _ := vm.options[optRenderChildren].([]*vdom.VNode)
	vm.slots = resolveSlots(children)

	var attrs map[string]any
	if vm.parentVnode != nil && vm.parentVnode.Data != nil {
		attrs = vm.parentVnode.Data.Attrs
	}
	listeners, _ := vm.options[optParentListeners].(map[string]EventHandler)

	rt := vm.rt
	vm.special = reactive.NewObject(nil)
	readonly := func(name string) reactive.FieldOption {
		return reactive.CustomSetter(func(any) {
			if !rt.updatingChild {
				vm.warn(name + " is readonly.")
			}
		})
	}
	rt.rs.DefineReactive(vm.special, "$attrs", attrs, reactive.Shallow(), readonly("$attrs"))
	rt.rs.DefineReactive(vm.special, "$listeners", listeners, reactive.Shallow(), readonly("$listeners"))
}

// Attrs returns the attributes passed by the parent that are not props.
func (vm *Instance) Attrs() map[string]any {
	if !vm.usable("Attrs") || vm.special == nil {
		return nil
	}
	m, _ := vm.special.Get("$attrs").(map[string]any)
	return m
}

// Listeners returns the listeners passed by the parent.
func (vm *Instance) Listeners() map[string]EventHandler {
	if !vm.usable("Listeners") || vm.special == nil {
		return nil
	}
	m, _ := vm.special.Get("$listeners").(map[string]EventHandler)
	return m
}

// callHook runs the hooks registered for name with tracking paused.
func (vm *Instance) callHook(name string) {
	rt := vm.rt
	rt.rs.Untracked(func() {
		info := name + " hook"
		for _, hook := range vm.options.Hooks(name) {
			rt.invoke(vm, info, func() error { return hook(vm) })
		}
		if vm.hasHookEvent {
			vm.Emit("hook:" + name)
		}
	})
}

func (vm *Instance) initInjections() {
	tbl, _ := vm.options[OptInject].(*Table[InjectSpec])
	if tbl == nil {
		return
	}
	resolved := vm.resolveInject(tbl)
	rs := vm.rt.rs
	vm.injected = reactive.NewObject(nil)
	prev := rs.ToggleObserving(false)
	defer rs.ToggleObserving(prev)
	for _, key := range tbl.Keys() {
		v, ok := resolved[key]
		if !ok {
			continue
		}
		rs.DefineReactive(vm.injected, key, v, reactive.CustomSetter(func(any) {
			vm.warn(fmt.Sprintf("Avoid mutating an injected value directly since the changes will be overwritten whenever the provided component re-renders. injection being mutated: %q", key))
		}))
	}
}

func (vm *Instance) resolveInject(tbl *Table[InjectSpec]) map[string]any {
	res := map[string]any{}
	for _, key := range tbl.Keys() {
		spec, _ := tbl.Lookup(key)
		from := spec.From
		if from == nil {
			from = key
		}
		found := false
		for src := vm; src != nil; src = src.parent {
			if v, ok := src.provided[from]; ok {
				res[key] = v
				found = true
				break
			}
		}
		if found {
			continue
		}
		switch {
		case spec.DefaultFunc != nil:
			res[key] = spec.DefaultFunc(vm)
		case spec.HasDefault || spec.Default != nil:
			res[key] = spec.Default
		default:
			vm.warn(fmt.Sprintf("Injection %q not found", fmt.Sprint(from)))
		}
	}
	return res
}

// Injected returns the value injected under key.
func (vm *Instance) Injected(key string) any {
	if vm.injected == nil {
		return nil
	}
	return vm.injected.Get(key)
}

func (vm *Instance) initProvide() {
	switch p := vm.options[OptProvide].(type) {
	case ProvideFunc:
		var out Provided
		err := vm.rt.invoke(vm, "provide()", func() (err error) {
			out, err = p(vm)
			return err
		})
		if err == nil {
			vm.provided = out
		}
	case Provided:
		vm.provided = p
	}
}

// Provided returns what the instance provides to its descendants.
func (vm *Instance) Provided() Provided {
	return vm.provided
}

func resolveSlots(children []*vdom.VNode) map[string][]*vdom.VNode {
	slots := map[string][]*vdom.VNode{}
	for _, child := range children {
		name := "default"
		if child.Data != nil && child.Data.Slot != "" {
			name = child.Data.Slot
		}
		if child.Tag == "template" && name != "default" {
			slots[name] = append(slots[name], child.Children...)
			continue
		}
		slots[name] = append(slots[name], child)
	}
	// slots holding only whitespace are dropped
	for name, nodes := range slots {
		if !slices.ContainsFunc(nodes, func(n *vdom.VNode) bool {
			return !(n.IsComment || (n.IsText() && isBlank(n.Text)))
		}) {
			delete(slots, name)
		}
	}
	return slots
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\n' && r != '\t' && r != '\r' {
			return false
		}
	}
	return true
}
