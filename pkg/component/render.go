package component

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/delaneyj/viewcore/pkg/diag"
	"github.com/delaneyj/viewcore/pkg/vdom"
)

// render runs the render function. A failing render keeps the previous output.
func (vm *Instance) render() *vdom.VNode {
	done := vm.mark(PhaseRender)
	defer done()

	render := vm.options.render()
	var vnode *vdom.VNode
	err := diag.Safe(func() (err error) {
		vnode, err = render(vm, vm.h)
		return err
	})
	if err != nil {
		vm.rt.HandleError(err, vm, "render")
		vnode = vm.vnode
	}
	if vnode == nil {
		vnode = vdom.NewEmpty()
	}
	vnode.Parent = vm.parentVnode
	return vnode
}

// h is the element builder passed to render functions.
func (vm *Instance) h(tag any, data *vdom.Data, children ...any) *vdom.VNode {
	if data != nil && data.Key != nil && !primitiveKey(data.Key) {
		vm.warn("Avoid using non-primitive value as key, use string/number value instead.")
	}
	cfg := vm.rt.Config
	switch t := tag.(type) {
	case nil:
		return vdom.NewEmpty()
	case string:
		if t == "" {
			return vdom.NewEmpty()
		}
		if cfg.IsReservedTag(t) {
			return vm.element(t, data, children)
		}
		if def, ok := ResolveAsset(vm.options, KindComponent, t); ok {
			return vm.createComponent(def, data, children, t)
		}
		if cfg.IsUnknownElement(t) && !cfg.IsIgnoredElement(t) {
			vm.warn(fmt.Sprintf("Unknown custom element: <%s> - did you register the component correctly? For recursive components, make sure to provide the \"name\" option.", t))
		}
		return vm.element(t, data, children)
	case *Constructor, Options, map[string]any:
		return vm.createComponent(t, data, children, "")
	}
	vm.warn(fmt.Sprintf("Invalid vnode tag: %s", typeName(tag)))
	return vdom.NewEmpty()
}

func (vm *Instance) element(tag string, data *vdom.Data, children []any) *vdom.VNode {
	v := vdom.NewElement(tag, data, children...)
	v.Ns = vm.rt.Config.GetTagNamespace(tag)
	v.Context = vm
	return v
}

func primitiveKey(k any) bool {
	switch reflect.TypeOf(k).Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// componentCtor turns a component definition into a constructor. Raw options
// are extended from the base once per options map.
func (vm *Instance) componentCtor(def any) *Constructor {
	switch d := def.(type) {
	case *Constructor:
		return d
	case Options:
		return vm.base().extendCached(d)
	case map[string]any:
		return vm.base().extendCached(Options(d))
	}
	return nil
}

func (vm *Instance) base() *Constructor {
	if b, ok := vm.options[optBase].(*Constructor); ok && b != nil {
		return b
	}
	return vm.rt.base
}

// createComponent builds the placeholder vnode for a child component.
func (vm *Instance) createComponent(def any, data *vdom.Data, children []any, tag string) *vdom.VNode {
	ctor := vm.componentCtor(def)
	if ctor == nil {
		vm.warn(fmt.Sprintf("Invalid Component definition: %s", typeName(def)))
		return vdom.NewEmpty()
	}
	opts := ctor.ResolveOptions()
	if data == nil {
		data = &vdom.Data{}
	}
	propsData := vm.extractProps(data, opts, tag)

	// component listeners are emitted by the child, native ones go on the element
	listeners := data.On
	data.On = data.NativeOn
	data.NativeOn = nil

	if abstract, _ := opts[OptAbstract].(bool); abstract {
		data = &vdom.Data{Slot: data.Slot, Key: data.Key, Hook: data.Hook}
	}
	data.Hook = vm.rt.componentHooks(data.Hook)

	name := ctor.Name()
	if name == "" {
		name = tag
	}
	vtag := fmt.Sprintf("component-%d", ctor.CID())
	if name != "" {
		vtag += "-" + name
	}
	return &vdom.VNode{
		Tag:     vtag,
		Data:    data,
		Key:     data.Key,
		Context: vm,
		ComponentOptions: &vdom.ComponentOptions{
			Ctor:      ctor,
			PropsData: propsData,
			Listeners: listeners,
			Tag:       tag,
			Children:  vdom.Normalize(children...),
		},
	}
}

// extractProps moves declared props out of the vnode attrs. Values in
// data.Props stay, attrs that are props are removed.
func (vm *Instance) extractProps(data *vdom.Data, opts Options, tag string) map[string]any {
	props := opts.props()
	if len(props) == 0 {
		return nil
	}
	res := map[string]any{}
	for _, key := range props.Keys() {
		altKey := Hyphenate(key)
		lower := strings.ToLower(key)
		if key != lower {
			if _, ok := data.Attrs[lower]; ok {
				vm.rt.tip(fmt.Sprintf(
					"Prop %q is passed to component %s, but the declared prop name is %q. Note that HTML attributes are case-insensitive and camelCased props need to use their kebab-case equivalents when using in-DOM templates. You should probably use %q instead of %q.",
					lower, classifyTag(tag, opts), key, altKey, key,
				), vm)
			}
		}
		if !checkProp(res, data.Props, key, altKey, true) {
			checkProp(res, data.Attrs, key, altKey, false)
		}
	}
	return res
}

func classifyTag(tag string, opts Options) string {
	name := opts.Name()
	if name == "" {
		name = tag
	}
	if name == "" {
		return "<Anonymous>"
	}
	return "<" + classify(name) + ">"
}

// checkProp copies key or altKey from hash into res, deleting it from hash
// unless preserve is set.
func checkProp(res, hash map[string]any, key, altKey string, preserve bool) bool {
	if hash == nil {
		return false
	}
	for _, k := range []string{key, altKey} {
		if v, ok := hash[k]; ok {
			res[key] = v
			if !preserve {
				delete(hash, k)
			}
			return true
		}
	}
	return false
}
