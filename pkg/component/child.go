package component

import (
	"github.com/delaneyj/viewcore/pkg/vdom"
)

// componentHooks returns the vnode hooks that manage the child instance of a
// component placeholder, running user hooks after the built in ones.
func (rt *Runtime) componentHooks(user *vdom.Hooks) *vdom.Hooks {
	h := &vdom.Hooks{
		Init:     rt.initComponentVnode,
		Prepatch: rt.prepatchComponentVnode,
		Insert:   rt.insertComponentVnode,
		Destroy:  rt.destroyComponentVnode,
	}
	if user == nil {
		return h
	}
	if u := user.Init; u != nil {
		h.Init = func(v *vdom.VNode) { rt.initComponentVnode(v); u(v) }
	}
	if u := user.Prepatch; u != nil {
		h.Prepatch = func(o, v *vdom.VNode) { rt.prepatchComponentVnode(o, v); u(o, v) }
	}
	if u := user.Insert; u != nil {
		h.Insert = func(v *vdom.VNode) { rt.insertComponentVnode(v); u(v) }
	}
	if u := user.Destroy; u != nil {
		h.Destroy = func(v *vdom.VNode) { rt.destroyComponentVnode(v); u(v) }
	}
	return h
}

func (rt *Runtime) initComponentVnode(vnode *vdom.VNode) {
	co := vnode.ComponentOptions
	ctor, ok := co.Ctor.(*Constructor)
	if !ok {
		return
	}
	child := &Instance{rt: rt, ctor: ctor}
	vnode.ComponentInstance = child
	child.init(nil, &internalOptions{parent: rt.active, parentVnode: vnode})
	child.Mount(nil)
}

func (rt *Runtime) prepatchComponentVnode(oldVnode, vnode *vdom.VNode) {
	child, ok := oldVnode.ComponentInstance.(*Instance)
	if !ok {
		return
	}
	vnode.ComponentInstance = child
	co := vnode.ComponentOptions
	child.UpdateChildComponent(co.PropsData, co.Listeners, vnode, co.Children)
}

func (rt *Runtime) insertComponentVnode(vnode *vdom.VNode) {
	child, ok := vnode.ComponentInstance.(*Instance)
	if !ok || child.isMounted || child.isDestroyed {
		return
	}
	child.isMounted = true
	child.enter(StateMounted)
	child.callHook(HookMounted)
}

func (rt *Runtime) destroyComponentVnode(vnode *vdom.VNode) {
	if child, ok := vnode.ComponentInstance.(*Instance); ok && !child.isDestroyed {
		child.Destroy()
	}
}

// UpdateChildComponent pushes the data of a re-rendered placeholder into the
// existing child: props, listeners, attrs and slot content.
func (vm *Instance) UpdateChildComponent(propsData map[string]any, listeners map[string]vdom.Listener, parentVnode *vdom.VNode, renderChildren []*vdom.VNode) {
	if !vm.usable("UpdateChildComponent") {
		return
	}
	rt := vm.rt
	rt.updatingChild = true
	defer func() { rt.updatingChild = false }()

	prevChildren, _ := vm.options[optRenderChildren].([]*vdom.VNode)
	needsForceUpdate := len(renderChildren) > 0 || len(prevChildren) > 0

	vm.options[optParentVnode] = parentVnode
	vm.parentVnode = parentVnode
	if vm.vnode != nil {
		vm.vnode.Parent = parentVnode
	}
	vm.options[optRenderChildren] = renderChildren

	var attrs map[string]any
	if parentVnode != nil && parentVnode.Data != nil {
		attrs = parentVnode.Data.Attrs
	}
	vm.special.Set("$attrs", attrs)
	vm.special.Set("$listeners", listeners)

	if props := vm.options.props(); propsData != nil && vm.props != nil {
		prev := rt.rs.ToggleObserving(false)
		keys, _ := vm.options[optPropKeys].([]string)
		for _, key := range keys {
			vm.props.Set(key, vm.validateProp(key, props, propsData))
		}
		rt.rs.ToggleObserving(prev)
		vm.options[OptPropsData] = propsData
	}

	if listeners == nil {
		listeners = map[string]vdom.Listener{}
	}
	vm.options[optParentListeners] = listeners
	vm.updateListeners(listeners)

	if needsForceUpdate {
		vm.slots = resolveSlots(renderChildren)
		vm.ForceUpdate()
	}
}
