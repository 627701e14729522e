package component

import (
	"fmt"

	"github.com/delaneyj/viewcore/pkg/vdom"
)

// normalizeProps converts every accepted props form into Props with
// camelized keys.
func (m *Merger) normalizeProps(opts Options) {
	raw, ok := opts[OptProps]
	if !ok || raw == nil {
		return
	}
	res := Props{}
	switch p := raw.(type) {
	case Props:
		for k, v := range p {
			if v == nil {
				v = &Prop{}
			}
			res[Camelize(k)] = v
		}
	case PropList:
		for _, k := range p {
			res[Camelize(k)] = &Prop{}
		}
	case []string:
		for _, k := range p {
			res[Camelize(k)] = &Prop{}
		}
	case map[string]any:
		for k, v := range p {
			res[Camelize(k)] = propFrom(v)
		}
	default:
		m.warn(fmt.Sprintf(`Invalid value for option "props": expected a list or a map, but got %s.`, typeName(raw)))
	}
	opts[OptProps] = res
}

func propFrom(v any) *Prop {
	switch t := v.(type) {
	case *Prop:
		if t != nil {
			return t
		}
	case Prop:
		return &t
	case PropType:
		return &Prop{Type: []PropType{t}}
	case []PropType:
		return &Prop{Type: t}
	}
	return &Prop{}
}

// normalizeInject converts the list form into InjectMap.
func (m *Merger) normalizeInject(opts Options) {
	raw, ok := opts[OptInject]
	if !ok || raw == nil {
		return
	}
	res := InjectMap{}
	switch in := raw.(type) {
	case InjectMap:
		for k, spec := range in {
			if spec.From == nil {
				spec.From = k
			}
			res[k] = spec
		}
	case InjectList:
		for _, k := range in {
			res[k] = InjectSpec{From: k}
		}
	case []string:
		for _, k := range in {
			res[k] = InjectSpec{From: k}
		}
	case map[string]any:
		for k, v := range in {
			switch t := v.(type) {
			case InjectSpec:
				if t.From == nil {
					t.From = k
				}
				res[k] = t
			default:
				res[k] = InjectSpec{From: v}
			}
		}
	case *Table[InjectSpec]:
		return
	default:
		m.warn(fmt.Sprintf(`Invalid value for option "inject": expected a list or a map, but got %s.`, typeName(raw)))
	}
	opts[OptInject] = res
}

// normalizeDirectives expands function shorthands into bind+update hooks.
func normalizeDirectives(opts Options) {
	dirs, ok := opts[OptDirectives].(map[string]any)
	if !ok {
		return
	}
	res := make(map[string]any, len(dirs))
	for k, def := range dirs {
		if d, ok := directiveFrom(def); ok {
			res[k] = d
		} else {
			res[k] = def
		}
	}
	opts[OptDirectives] = res
}

func directiveFrom(def any) (*Directive, bool) {
	switch fn := def.(type) {
	case DirectiveHook:
		return &Directive{Bind: fn, Update: fn}, true
	case func(vdom.Element, any, *vdom.VNode):
		return &Directive{Bind: fn, Update: fn}, true
	case *Directive:
		return fn, fn != nil
	case Directive:
		return &fn, true
	}
	return nil, false
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
