package component

import (
	"maps"

	"github.com/delaneyj/viewcore/pkg/vdom"
)

// Options is a component configuration. Values are typed variants per field:
// Hooks for lifecycle hooks, Methods, ComputedMap, Watchers, Props or PropList,
// InjectList or InjectMap, DataFunc, ProvideFunc or Provided, *Assets for the
// asset buckets, RenderFunc, or raw values for anything else.
type Options map[string]any

// Option keys with a dedicated meaning.
const (
	OptName            = "name"
	OptData            = "data"
	OptProps           = "props"
	OptPropsData       = "propsData"
	OptMethods         = "methods"
	OptComputed        = "computed"
	OptWatch           = "watch"
	OptInject          = "inject"
	OptProvide         = "provide"
	OptEl              = "el"
	OptTemplate        = "template"
	OptRender          = "render"
	OptStaticRenderFns = "staticRenderFns"
	OptComponents      = "components"
	OptDirectives      = "directives"
	OptFilters         = "filters"
	OptMixins          = "mixins"
	OptExtends         = "extends"
	OptDelimiters      = "delimiters"
	OptComments        = "comments"
	OptErrorCaptured   = "errorCaptured"
	OptAbstract        = "abstract"
	OptParent          = "parent"
	OptFile            = "__file"
	OptInheritAttrs    = "inheritAttrs"
	optBase            = "_base"
	optParentVnode     = "_parentVnode"
	optParentListeners = "_parentListeners"
	optRenderChildren  = "_renderChildren"
	optComponentTag    = "_componentTag"
	optPropKeys        = "_propKeys"
)

// Lifecycle hook names.
const (
	HookBeforeCreate   = "beforeCreate"
	HookCreated        = "created"
	HookBeforeMount    = "beforeMount"
	HookMounted        = "mounted"
	HookBeforeUpdate   = "beforeUpdate"
	HookUpdated        = "updated"
	HookBeforeDestroy  = "beforeDestroy"
	HookDestroyed      = "destroyed"
	HookActivated      = "activated"
	HookDeactivated    = "deactivated"
	HookServerPrefetch = "serverPrefetch"
)

// LifecycleHooks lists every hook option merged by concatenation.
var LifecycleHooks = []string{
	HookBeforeCreate,
	HookCreated,
	HookBeforeMount,
	HookMounted,
	HookBeforeUpdate,
	HookUpdated,
	HookBeforeDestroy,
	HookDestroyed,
	HookActivated,
	HookDeactivated,
	HookServerPrefetch,
}

// Asset kinds.
const (
	KindComponent = "component"
	KindDirective = "directive"
	KindFilter    = "filter"
)

// AssetKinds lists the asset kinds in registration order.
var AssetKinds = []string{KindComponent, KindDirective, KindFilter}

func assetBucket(kind string) string {
	return kind + "s"
}

// Hook is a lifecycle hook.
type Hook func(vm *Instance) error

// Hooks is the merged list of a lifecycle hook, parents first.
type Hooks []Hook

// ErrorCapturedHook sees errors raised by descendants. Returning false stops
// propagation.
type ErrorCapturedHook func(vm *Instance, err error, source *Instance, info string) (bool, error)

// ErrorCapturedHooks is the merged errorCaptured list.
type ErrorCapturedHooks []ErrorCapturedHook

// Method is a component method, invoked bound to its instance.
type Method func(vm *Instance, args ...any) (any, error)

// Methods declares component methods.
type Methods map[string]Method

// Computed declares a computed property.
type Computed struct {
	Get func(vm *Instance) (any, error)
	Set func(vm *Instance, value any) error
	// NoCache re-evaluates on every read.
	NoCache bool
}

// ComputedMap declares computed properties.
type ComputedMap map[string]Computed

// WatchHandler is called when a watched expression changes.
type WatchHandler func(vm *Instance, newValue, oldValue any) error

// WatchSpec declares one watcher for a key.
type WatchSpec struct {
	Handler WatchHandler
	// Method names a component method used as the handler.
	Method    string
	Deep      bool
	Immediate bool
	Sync      bool
}

// Watchers declares watchers per expression. Merging concatenates per key.
type Watchers map[string][]WatchSpec

// DataFunc returns the initial data of an instance.
type DataFunc func(vm *Instance) (map[string]any, error)

// Provided maps provide keys, strings or Symbols, to values.
type Provided map[any]any

// ProvideFunc computes the values an instance provides to its descendants.
type ProvideFunc func(vm *Instance) (Provided, error)

// InjectSpec declares one injected key.
type InjectSpec struct {
	// From is the provide key, a string or Symbol. Defaults to the local key.
	From        any
	Default     any
	DefaultFunc func(vm *Instance) any
	HasDefault  bool
}

// InjectList is the shorthand inject form.
type InjectList []string

// InjectMap is the normalized inject form.
type InjectMap map[string]InjectSpec

// H builds a vnode. tag is an element name, a registered component id, a
// *Constructor or an Options value.
type H func(tag any, data *vdom.Data, children ...any) *vdom.VNode

// RenderFunc produces the render output of an instance.
type RenderFunc func(vm *Instance, h H) (*vdom.VNode, error)

// Directive hooks.
type Directive struct {
	Bind             DirectiveHook
	Inserted         DirectiveHook
	Update           DirectiveHook
	ComponentUpdated DirectiveHook
	Unbind           DirectiveHook
}

// DirectiveHook is one directive phase.
type DirectiveHook func(el vdom.Element, binding any, vnode *vdom.VNode)

// Filter transforms a value in templates.
type Filter func(value any, args ...any) any

// Name returns the name option.
func (o Options) Name() string {
	s, _ := o[OptName].(string)
	return s
}

// Clone returns a shallow copy.
func (o Options) Clone() Options {
	if o == nil {
		return Options{}
	}
	return maps.Clone(o)
}

// Hooks returns the merged hooks for name.
func (o Options) Hooks(name string) Hooks {
	h, _ := o[name].(Hooks)
	return h
}

// Assets returns the asset bucket for kind, nil when missing.
func (o Options) Assets(kind string) *Assets {
	a, _ := o[assetBucket(kind)].(*Assets)
	return a
}

func (o Options) props() Props {
	p, _ := o[OptProps].(Props)
	return p
}

func (o Options) render() RenderFunc {
	switch r := o[OptRender].(type) {
	case RenderFunc:
		return r
	case func(*Instance, H) (*vdom.VNode, error):
		return r
	}
	return nil
}

// optionsOf accepts Options, a *Constructor or a plain map.
func optionsOf(v any) (Options, bool) {
	switch t := v.(type) {
	case Options:
		return t, true
	case map[string]any:
		return Options(t), true
	case *Constructor:
		if t != nil {
			return t.Options(), true
		}
	}
	return nil, false
}
