package component

import (
	"fmt"
	"strings"
)

// Registrar registers and looks up global assets of one kind.
type Registrar struct {
	rt   *Runtime
	kind string
}

// Kind returns the asset kind.
func (r *Registrar) Kind() string {
	return r.kind
}

func (r *Registrar) bucket() *Assets {
	return r.rt.base.options.Assets(r.kind)
}

// Lookup returns the registered definition or nil.
func (r *Registrar) Lookup(id string) any {
	v, _ := r.bucket().Lookup(id)
	return v
}

// Register stores def under id in the base options, so every configuration
// resolved afterwards inherits it. Component options are first turned into a
// constructor named id unless they carry a name; directive functions become
// bind+update hooks. It returns the stored definition.
func (r *Registrar) Register(id string, def any) any {
	rt := r.rt
	switch r.kind {
	case KindComponent:
		rt.validateComponentName(id)
		if _, isCtor := def.(*Constructor); !isCtor {
			if opts, ok := optionsOf(def); ok {
				opts = opts.Clone()
				if opts.Name() == "" {
					opts[OptName] = id
				}
				def = rt.base.Extend(opts)
			}
		}
	case KindDirective:
		if d, ok := directiveFrom(def); ok {
			def = d
		}
	case KindFilter:
		if fn, ok := def.(func(any, ...any) any); ok {
			def = Filter(fn)
		}
	}
	r.bucket().Set(id, def)
	return def
}

// ResolveAsset finds an asset visible to opts by id, its camelCase or its
// PascalCase form, own entries before inherited ones.
func ResolveAsset(opts Options, kind, id string) (any, bool) {
	assets := opts.Assets(kind)
	if assets == nil {
		return nil, false
	}
	candidates := []string{id, Camelize(id), Capitalize(Camelize(id))}
	for _, k := range candidates {
		if assets.Own(k) {
			v, _ := assets.Lookup(k)
			return v, true
		}
	}
	for _, k := range candidates {
		if v, ok := assets.Lookup(k); ok {
			return v, true
		}
	}
	return nil, false
}

// ResolveDirective finds a directive for vm and warns when missing.
func (vm *Instance) ResolveDirective(id string) *Directive {
	if !vm.usable("ResolveDirective") {
		return nil
	}
	v, ok := vm.resolveAsset(KindDirective, id)
	if !ok {
		return nil
	}
	d, _ := directiveFrom(v)
	return d
}

// ResolveFilter finds a filter for vm and warns when missing.
func (vm *Instance) ResolveFilter(id string) Filter {
	if !vm.usable("ResolveFilter") {
		return nil
	}
	v, ok := vm.resolveAsset(KindFilter, id)
	if !ok {
		return nil
	}
	switch f := v.(type) {
	case Filter:
		return f
	case func(any, ...any) any:
		return f
	}
	return nil
}

func (vm *Instance) resolveAsset(kind, id string) (any, bool) {
	v, ok := ResolveAsset(vm.options, kind, id)
	if !ok {
		vm.warn(fmt.Sprintf("Failed to resolve %s: %s", strings.TrimSuffix(kind, "s"), id))
	}
	return v, ok
}
