package component

import (
	"fmt"
	"slices"
	"strings"

	"github.com/delaneyj/viewcore/pkg/diag"
	"github.com/delaneyj/viewcore/pkg/reactive"
	"github.com/delaneyj/viewcore/pkg/vdom"
)

// Mount renders the instance into el, a selector resolved through the Host or
// an Element. A nil el renders without a target, the Patcher creates the
// element.
func (vm *Instance) Mount(el any) *Instance {
	if !vm.usable("Mount") || !vm.enter(StateMountRequested) {
		return vm
	}
	var target vdom.Element
	if el != nil {
		target = vm.query(el)
	}
	if target != nil {
		if tag := strings.ToLower(target.TagName()); tag == "html" || tag == "body" {
			vm.warn("Do not mount to <html> or <body> - mount to normal elements instead.")
			return vm
		}
	}
	if vm.options.render() == nil {
		vm.compile(target)
	}
	return vm.mountComponent(target)
}

func (vm *Instance) query(el any) vdom.Element {
	switch t := el.(type) {
	case vdom.Element:
		return t
	case string:
		host := vm.rt.host
		if host != nil {
			if found := host.Query(t); found != nil {
				return found
			}
		}
		vm.rt.Config.Logger.Warn(diag.CategoryTarget, "Cannot find element: "+t, vm.componentTrace())
		if host != nil {
			return host.CreateElement("div")
		}
		return nil
	}
	vm.warn(fmt.Sprintf("Invalid mount target: %s", typeName(el)))
	return nil
}

// compile turns the template option, or the outer HTML of the target, into a
// render function.
func (vm *Instance) compile(target vdom.Element) {
	var template string
	switch t := vm.options[OptTemplate].(type) {
	case nil:
		if target != nil {
			template = target.OuterHTML()
		}
	case string:
		template = t
		if strings.HasPrefix(t, "#") {
			template = ""
			if vm.rt.host != nil {
				if found := vm.rt.host.Query(t); found != nil {
					template = found.InnerHTML()
				}
			}
			if template == "" {
				vm.warn("Template element not found or is empty: " + t)
			}
		}
	case vdom.Element:
		template = t.InnerHTML()
	default:
		vm.warn(fmt.Sprintf("invalid template option: %s", typeName(t)))
		return
	}
	if template == "" {
		return
	}
	compiler := vm.rt.compiler
	if compiler == nil {
		return
	}

	done := vm.mark(PhaseCompile)
	res := compiler.Compile(template, vm.compileOptions())
	done()
	if len(res.Errors) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Error compiling template:\n\n%s\n\n", template)
		for _, e := range res.Errors {
			fmt.Fprintf(&b, "- %s\n", e.Msg)
		}
		vm.warn(strings.TrimRight(b.String(), "\n"))
	}
	for _, tip := range res.Tips {
		vm.rt.tip(tip, vm)
	}
	if res.Render != nil {
		vm.options[OptRender] = res.Render
		vm.options[OptStaticRenderFns] = res.StaticRenderFns
	}
}

func (vm *Instance) compileOptions() CompileOptions {
	opts := CompileOptions{ShouldDecodeNewlines: true, ShouldDecodeNewlinesForHref: true}
	switch d := vm.options[OptDelimiters].(type) {
	case [2]string:
		opts.Delimiters = d
	case []string:
		if len(d) == 2 {
			opts.Delimiters = [2]string{d[0], d[1]}
		}
	}
	opts.Comments, _ = vm.options[OptComments].(bool)
	opts.OutputSourceRange = !vm.rt.Config.Production
	return opts
}

func (vm *Instance) mountComponent(el vdom.Element) *Instance {
	rt := vm.rt
	vm.el = el
	if vm.options.render() == nil {
		vm.options[OptRender] = RenderFunc(func(*Instance, H) (*vdom.VNode, error) {
			return vdom.NewEmpty(), nil
		})
		if _, ok := vm.options[OptTemplate].(string); ok || el != nil {
			vm.warn("You are using the runtime-only build where the template compiler is not available. Either pre-compile the templates into render functions, or configure a Compiler.")
		} else {
			vm.warn("Failed to mount component: template or render function not defined.")
		}
	}
	vm.callHook(HookBeforeMount)

	vm.watcher = rt.rs.NewWatcher(func() (any, error) {
		vm.update(vm.render())
		return nil, nil
	}, nil, reactive.WatcherOptions{
		Owner:  vm,
		Render: true,
		Before: func() {
			if vm.isMounted && !vm.isDestroyed {
				vm.callHook(HookBeforeUpdate)
			}
		},
	})

	// components are marked mounted by the insert hook of their vnode
	if vm.parentVnode == nil {
		vm.isMounted = true
		vm.enter(StateMounted)
		vm.callHook(HookMounted)
	}
	if cfg := rt.Config; cfg.ProductionTip && !cfg.Production && !rt.tipped {
		rt.tipped = true
		rt.tip("You are running in development mode. Make sure to turn on production mode when deploying for production.", nil)
	}
	return vm
}

// update hands the new render output to the patcher.
func (vm *Instance) update(vnode *vdom.VNode) {
	rt := vm.rt
	prevVnode := vm.vnode
	prevActive := rt.active
	rt.active = vm
	defer func() { rt.active = prevActive }()
	vm.vnode = vnode
	if rt.patcher == nil {
		return
	}

	done := vm.mark(PhasePatch)
	if prevVnode == nil {
		vm.el = rt.patcher.Patch(vm, vm.el, nil, vnode)
	} else {
		vm.el = rt.patcher.Patch(vm, nil, prevVnode, vnode)
	}
	done()

	// a component whose root is another component shares its element
	if p := vm.parent; p != nil && vm.parentVnode != nil && p.vnode == vm.parentVnode {
		p.el = vm.el
	}
}

// Destroy tears the instance down. Calling it again is a no-op.
func (vm *Instance) Destroy() {
	if !vm.usable("Destroy") || vm.isBeingDestroyed {
		return
	}
	rt := vm.rt
	vm.callHook(HookBeforeDestroy)
	vm.isBeingDestroyed = true
	vm.enter(StateBeingDestroyed)

	if p := vm.parent; p != nil && !p.isBeingDestroyed && !vm.abstract {
		p.children = slices.DeleteFunc(slices.Clone(p.children), func(c *Instance) bool { return c == vm })
	}
	for _, child := range slices.Clone(vm.children) {
		child.Destroy()
	}

	if vm.watcher != nil {
		vm.watcher.Teardown()
	}
	for _, w := range vm.watchers {
		w.Teardown()
	}
	if vm.data != nil {
		if ob := vm.data.Observer(); ob != nil {
			ob.ReleaseRoot()
		}
	}
	vm.isDestroyed = true

	if rt.patcher != nil && vm.vnode != nil {
		rt.patcher.Patch(vm, nil, vm.vnode, nil)
	}
	vm.Off()
	vm.callHook(HookDestroyed)
	vm.enter(StateDestroyed)
	if vm.parentVnode != nil {
		vm.parentVnode.Parent = nil
	}
}
