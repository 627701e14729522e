package component

import (
	"fmt"
	"slices"

	"github.com/delaneyj/viewcore/pkg/diag"
	"github.com/delaneyj/viewcore/pkg/reactive"
	"github.com/delaneyj/viewcore/pkg/vdom"
)

// State is the lifecycle position of an instance.
type State int

const (
	StateCreated State = iota
	StateConfigResolved
	StateLifecycleLinked
	StateEventsWired
	StateRenderReady
	StateBeforeCreate
	StateInjectionsResolved
	StateStateObserved
	StateProvisionsResolved
	StateInitialized
	StateMountRequested
	StateMounted
	StateBeingDestroyed
	StateDestroyed
)

var stateNames = [...]string{
	"created(pre-config)",
	"config-resolved",
	"lifecycle-linked",
	"events-wired",
	"render-context-ready",
	"before-create",
	"injections-resolved",
	"state-observed",
	"provisions-resolved",
	"created",
	"mount-requested",
	"mounted",
	"being-destroyed",
	"destroyed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Instance is a component instance.
type Instance struct {
	uid  uint64
	rt   *Runtime
	ctor *Constructor

	options Options
	state   State

	// non owning, the parent owns its children
	parent   *Instance
	root     *Instance
	children []*Instance
	refs     map[string]any

	// placeholder vnode in the parent's tree
	parentVnode *vdom.VNode
	vnode       *vdom.VNode
	el          vdom.Element

	watcher          *reactive.Watcher
	watchers         []*reactive.Watcher
	computedWatchers map[string]*reactive.Watcher
	computed         map[string]Computed

	props    *reactive.Object
	data     *reactive.Object
	injected *reactive.Object
	methods  map[string]func(args ...any) (any, error)
	provided Provided

	// $attrs and $listeners
	special *reactive.Object
	slots   map[string][]*vdom.VNode

	events          map[string][]*listener
	listenerSeq     uint64
	hasHookEvent    bool
	parentListeners map[string]func()

	staticTrees []*vdom.VNode

	isComponent      bool
	abstract         bool
	isMounted        bool
	isDestroyed      bool
	isBeingDestroyed bool
}

// NonReactive keeps instances out of observation and Set/Delete.
func (vm *Instance) NonReactive() bool {
	return true
}

func (vm *Instance) usable(op string) bool {
	if vm == nil || vm.rt == nil {
		diag.Default().Warn(diag.CategoryInternal, fmt.Sprintf("%s called on an instance that was not created through a Constructor", op), "")
		return false
	}
	return true
}

// enter moves the state machine forward. Each state is entered at most once
// and in order; anything else is skipped with a warning.
func (vm *Instance) enter(next State) bool {
	cur := vm.state
	ok := false
	switch next {
	case StateBeingDestroyed:
		ok = cur >= StateInitialized && cur < StateBeingDestroyed
	case StateDestroyed:
		ok = cur == StateBeingDestroyed
	default:
		ok = next == cur+1 && next <= StateMounted
	}
	if !ok {
		vm.rt.Config.Logger.Warn(diag.CategoryInternal, fmt.Sprintf("invalid lifecycle transition %s -> %s", cur, next), vm.componentTrace())
		return false
	}
	vm.state = next
	vm.rt.Config.Logger.Debug().Uint64("uid", vm.uid).Str("component", vm.FormatName(false)).Stringer("state", next).Msg("lifecycle")
	return true
}

// UID returns the creation ordered instance id.
func (vm *Instance) UID() uint64 {
	return vm.uid
}

// State returns the current lifecycle state.
func (vm *Instance) State() State {
	return vm.state
}

// Constructor returns the constructor the instance was created from.
func (vm *Instance) Constructor() *Constructor {
	return vm.ctor
}

// Runtime returns the owning runtime.
func (vm *Instance) Runtime() *Runtime {
	return vm.rt
}

// Options returns the resolved options.
func (vm *Instance) Options() Options {
	return vm.options
}

// Parent returns the parent instance, nil for roots.
func (vm *Instance) Parent() *Instance {
	return vm.parent
}

// Root returns the root of the instance tree.
func (vm *Instance) Root() *Instance {
	return vm.root
}

// Children returns the direct child instances.
func (vm *Instance) Children() []*Instance {
	return slices.Clone(vm.children)
}

// Refs returns the registered refs.
func (vm *Instance) Refs() map[string]any {
	return vm.refs
}

// El returns the mounted element.
func (vm *Instance) El() vdom.Element {
	return vm.el
}

// VNode returns the placeholder vnode of the instance in its parent's tree.
func (vm *Instance) VNode() *vdom.VNode {
	return vm.parentVnode
}

// RenderedVNode returns the current render output.
func (vm *Instance) RenderedVNode() *vdom.VNode {
	return vm.vnode
}

// Data returns the root data object.
func (vm *Instance) Data() *reactive.Object {
	return vm.data
}

// Props returns the props object.
func (vm *Instance) Props() *reactive.Object {
	return vm.props
}

// Slots returns the resolved slot content.
func (vm *Instance) Slots() map[string][]*vdom.VNode {
	return vm.slots
}

// IsMounted reports whether the mounted hook ran.
func (vm *Instance) IsMounted() bool {
	return vm.isMounted
}

// IsDestroyed reports whether the instance was destroyed.
func (vm *Instance) IsDestroyed() bool {
	return vm.isDestroyed
}

// Get reads key through the instance: props, data, computed, injections, then
// methods. Reads are tracked.
func (vm *Instance) Get(key string) any {
	if !vm.usable("Get") {
		return nil
	}
	switch {
	case vm.props != nil && vm.props.Has(key):
		return vm.props.Get(key)
	case vm.data != nil && vm.data.Has(key) && !isReserved(key):
		return vm.data.Get(key)
	case vm.computedWatchers[key] != nil:
		return vm.computedValue(key)
	case vm.injected != nil && vm.injected.Has(key):
		return vm.injected.Get(key)
	case vm.methods[key] != nil:
		return vm.methods[key]
	}
	switch key {
	case "$attrs":
		return vm.Attrs()
	case "$listeners":
		return vm.Listeners()
	}
	if vm.data != nil && !isReserved(key) {
		// missing keys still subscribe to additions through SetField
		return vm.data.Get(key)
	}
	return nil
}

// Set writes key through the instance.
func (vm *Instance) Set(key string, value any) {
	if !vm.usable("Set") {
		return
	}
	switch {
	case vm.props != nil && vm.props.Has(key):
		vm.props.Set(key, value)
	case vm.data != nil && vm.data.Has(key):
		vm.data.Set(key, value)
	case vm.computedWatchers[key] != nil:
		vm.setComputed(key, value)
	case vm.injected != nil && vm.injected.Has(key):
		vm.injected.Set(key, value)
	default:
		vm.warn(fmt.Sprintf("Property %q is not defined on the instance. Declare it in data before assigning it.", key))
	}
}

// Call invokes a bound method.
func (vm *Instance) Call(name string, args ...any) (any, error) {
	if !vm.usable("Call") {
		return nil, nil
	}
	fn := vm.methods[name]
	if fn == nil {
		vm.warn(fmt.Sprintf("Method %q is not defined on the instance.", name))
		return nil, fmt.Errorf("method %q is not defined", name)
	}
	return fn(args...)
}

// SetField adds a reactive property to target, e.g. a nested data object.
func (vm *Instance) SetField(target any, key string, value any) any {
	if !vm.usable("SetField") {
		return value
	}
	return vm.rt.rs.Set(target, key, value)
}

// DeleteField removes a property from target and notifies.
func (vm *Instance) DeleteField(target any, key string) {
	if !vm.usable("DeleteField") {
		return
	}
	vm.rt.rs.Delete(target, key)
}

// ForceUpdate re-renders the instance on the next flush.
func (vm *Instance) ForceUpdate() {
	if vm.usable("ForceUpdate") && vm.watcher != nil {
		vm.watcher.Update()
	}
}

// NextTick queues fn after the pending flush.
func (vm *Instance) NextTick(fn func(vm *Instance)) {
	if !vm.usable("NextTick") {
		return
	}
	vm.rt.rs.NextTick(func() { fn(vm) })
}

// RegisterRef sets or removes a ref, used by the patcher.
func (vm *Instance) RegisterRef(key string, ref any, remove bool) {
	if key == "" || !vm.usable("RegisterRef") {
		return
	}
	if remove {
		if reactive.SameValue(vm.refs[key], ref) {
			delete(vm.refs, key)
		}
		return
	}
	vm.refs[key] = ref
}
