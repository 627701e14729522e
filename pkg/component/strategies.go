package component

import (
	"fmt"
	"maps"

	"github.com/delaneyj/viewcore/pkg/reactive"
)

// Strategy merges the parent and child values of one option field. Either
// side may be nil.
type Strategy func(m *Merger, parent, child any, key string) any

// Strategies maps option names to their merge strategy. Fields without an
// entry use DefaultStrategy.
type Strategies map[string]Strategy

// DefaultStrategies returns a fresh copy of the built in strategy table.
func DefaultStrategies() Strategies {
	s := Strategies{
		OptEl:            strategyInstanceOnly,
		OptPropsData:     strategyInstanceOnly,
		OptData:          strategyData,
		OptWatch:         strategyWatch,
		OptProps:         strategyProps,
		OptMethods:       tableStrategy[Method](methodTable),
		OptComputed:      tableStrategy[Computed](computedTable),
		OptInject:        tableStrategy[InjectSpec](injectTable),
		OptProvide:       strategyProvide,
		OptErrorCaptured: strategyErrorCaptured,
	}
	for _, hook := range LifecycleHooks {
		s[hook] = strategyHooks
	}
	for _, kind := range AssetKinds {
		s[assetBucket(kind)] = strategyAssets
	}
	return s
}

// DefaultStrategy lets the child override the parent.
func DefaultStrategy(_ *Merger, parent, child any, _ string) any {
	if child == nil {
		return parent
	}
	return child
}

func strategyInstanceOnly(m *Merger, parent, child any, key string) any {
	if m.vm == nil {
		m.warn(fmt.Sprintf("option %q can only be used during instance creation.", key))
	}
	return DefaultStrategy(m, parent, child, key)
}

// strategyHooks concatenates parent hooks before child hooks.
func strategyHooks(m *Merger, parent, child any, key string) any {
	p, ok := m.hooks(parent, key)
	if !ok {
		return DefaultStrategy(m, parent, child, key)
	}
	c, ok := m.hooks(child, key)
	if !ok {
		return DefaultStrategy(m, parent, child, key)
	}
	if len(c) == 0 {
		if parent == nil {
			return nil
		}
		return p
	}
	res := make(Hooks, 0, len(p)+len(c))
	res = append(res, p...)
	return append(res, c...)
}

func (m *Merger) hooks(v any, key string) (Hooks, bool) {
	switch h := v.(type) {
	case nil:
		return nil, true
	case Hooks:
		return h, true
	case Hook:
		return Hooks{h}, true
	case func(*Instance) error:
		return Hooks{h}, true
	case []Hook:
		return h, true
	}
	m.warn(fmt.Sprintf("Invalid value for option %q: expected a hook function or a list of hooks, but got %s.", key, typeName(v)))
	return nil, false
}

func strategyErrorCaptured(m *Merger, parent, child any, key string) any {
	var res ErrorCapturedHooks
	for _, v := range []any{parent, child} {
		switch h := v.(type) {
		case nil:
		case ErrorCapturedHooks:
			res = append(res, h...)
		case ErrorCapturedHook:
			res = append(res, h)
		case func(*Instance, error, *Instance, string) (bool, error):
			res = append(res, h)
		default:
			m.warn(fmt.Sprintf("Invalid value for option %q: expected an errorCaptured hook, but got %s.", key, typeName(v)))
			return DefaultStrategy(m, parent, child, key)
		}
	}
	if len(res) == 0 {
		return nil
	}
	return res
}

// strategyAssets gives the child its own bucket falling back to the parent's.
func strategyAssets(m *Merger, parent, child any, key string) any {
	p, _ := parent.(*Assets)
	res := NewAssets(p)
	switch c := child.(type) {
	case nil:
	case *Assets:
		maps.Copy(res.entries, c.entries)
	case map[string]any:
		maps.Copy(res.entries, c)
	default:
		m.warn(fmt.Sprintf("Invalid value for option %q: expected a map, but got %s.", key, typeName(child)))
	}
	return res
}

// strategyWatch concatenates handlers per watched key, parent first.
func strategyWatch(m *Merger, parent, child any, key string) any {
	p, pok := parent.(Watchers)
	c, cok := child.(Watchers)
	if (parent != nil && !pok) || (child != nil && !cok) {
		m.warn(fmt.Sprintf("Invalid value for option %q: expected Watchers, but got %s.", key, typeName(child)))
		return DefaultStrategy(m, parent, child, key)
	}
	if child == nil {
		return parent
	}
	if parent == nil {
		return child
	}
	res := make(Watchers, len(p)+len(c))
	for k, specs := range p {
		res[k] = append([]WatchSpec(nil), specs...)
	}
	for k, specs := range c {
		res[k] = append(res[k], specs...)
	}
	return res
}

// strategyProps copies the parent schema and lets child entries win.
func strategyProps(m *Merger, parent, child any, key string) any {
	p, pok := parent.(Props)
	c, cok := child.(Props)
	if (parent != nil && !pok) || (child != nil && !cok) {
		m.warn(fmt.Sprintf("Invalid value for option %q: expected a props map, but got %s.", key, typeName(child)))
		return DefaultStrategy(m, parent, child, key)
	}
	if parent == nil {
		return child
	}
	res := make(Props, len(p)+len(c))
	maps.Copy(res, p)
	maps.Copy(res, c)
	return res
}

func methodTable(v any) (*Table[Method], bool) {
	switch t := v.(type) {
	case *Table[Method]:
		return t, true
	case Methods:
		return NewTable(nil, map[string]Method(maps.Clone(t))), true
	case map[string]Method:
		return NewTable(nil, maps.Clone(t)), true
	}
	return nil, false
}

func computedTable(v any) (*Table[Computed], bool) {
	switch t := v.(type) {
	case *Table[Computed]:
		return t, true
	case ComputedMap:
		return NewTable(nil, map[string]Computed(maps.Clone(t))), true
	case map[string]Computed:
		return NewTable(nil, maps.Clone(t)), true
	}
	return nil, false
}

func injectTable(v any) (*Table[InjectSpec], bool) {
	switch t := v.(type) {
	case *Table[InjectSpec]:
		return t, true
	case InjectMap:
		return NewTable(nil, map[string]InjectSpec(maps.Clone(t))), true
	}
	return nil, false
}

// tableStrategy merges keyed options: the child's entries win and the rest are
// found through the parent table.
func tableStrategy[V any](conv func(any) (*Table[V], bool)) Strategy {
	return func(m *Merger, parent, child any, key string) any {
		var p, c *Table[V]
		if parent != nil {
			var ok bool
			if p, ok = conv(parent); !ok {
				m.warn(fmt.Sprintf("Invalid value for option %q: expected a map, but got %s.", key, typeName(parent)))
				return DefaultStrategy(m, parent, child, key)
			}
		}
		if child != nil {
			var ok bool
			if c, ok = conv(child); !ok {
				m.warn(fmt.Sprintf("Invalid value for option %q: expected a map, but got %s.", key, typeName(child)))
				return DefaultStrategy(m, parent, child, key)
			}
		}
		switch {
		case c == nil && p == nil:
			return nil
		case c == nil:
			return p
		case p == nil:
			return NewTable(nil, maps.Clone(c.entries))
		}
		return NewTable(p, maps.Clone(c.entries))
	}
}

// strategyData composes data functions lazily: nothing is called at merge
// time, the child's fields override the parent's when the instance is created.
func strategyData(m *Merger, parent, child any, key string) any {
	c, ok := m.dataFunc(child, key)
	if !ok {
		return parent
	}
	p, ok := m.dataFunc(parent, key)
	if !ok {
		return child
	}
	switch {
	case c == nil:
		if p == nil {
			return nil
		}
		return p
	case p == nil:
		return c
	}
	return DataFunc(func(vm *Instance) (map[string]any, error) {
		childData, err := c(vm)
		if err != nil {
			return nil, err
		}
		parentData, err := p(vm)
		if err != nil {
			return nil, err
		}
		return mergeData(childData, parentData), nil
	})
}

func (m *Merger) dataFunc(v any, key string) (DataFunc, bool) {
	switch d := v.(type) {
	case nil:
		return nil, true
	case DataFunc:
		return d, true
	case func(*Instance) (map[string]any, error):
		return d, true
	case map[string]any:
		if m.vm == nil {
			m.warn(`The "data" option should be a function that returns a per-instance value in component definitions.`)
			return nil, false
		}
		return func(*Instance) (map[string]any, error) { return d, nil }, true
	}
	m.warn(fmt.Sprintf("Invalid value for option %q: expected a data function, but got %s.", key, typeName(v)))
	return nil, false
}

// mergeData adds to `to` every key of `from` it does not have, recursing into
// nested maps and objects present on both sides.
func mergeData(to, from map[string]any) map[string]any {
	if from == nil {
		return to
	}
	if to == nil {
		to = map[string]any{}
	}
	for k, fromVal := range from {
		toVal, ok := to[k]
		if !ok {
			to[k] = fromVal
			continue
		}
		if reactive.SameValue(toVal, fromVal) {
			continue
		}
		switch tv := toVal.(type) {
		case map[string]any:
			if fv, ok := fromVal.(map[string]any); ok {
				to[k] = mergeData(tv, fv)
			}
		case *reactive.Object:
			if fv, ok := fromVal.(*reactive.Object); ok {
				for _, fk := range fv.Keys() {
					if !tv.Has(fk) {
						tv.Set(fk, fv.Peek(fk))
					}
				}
			}
		}
	}
	return to
}

// strategyProvide composes provide the same way as data, child keys win.
func strategyProvide(m *Merger, parent, child any, key string) any {
	c, ok := m.provideFunc(child, key)
	if !ok {
		return parent
	}
	p, ok := m.provideFunc(parent, key)
	if !ok {
		return child
	}
	switch {
	case c == nil:
		if p == nil {
			return nil
		}
		return p
	case p == nil:
		return c
	}
	return ProvideFunc(func(vm *Instance) (Provided, error) {
		res := Provided{}
		pv, err := p(vm)
		if err != nil {
			return nil, err
		}
		maps.Copy(res, pv)
		cv, err := c(vm)
		if err != nil {
			return nil, err
		}
		maps.Copy(res, cv)
		return res, nil
	})
}

func (m *Merger) provideFunc(v any, key string) (ProvideFunc, bool) {
	switch p := v.(type) {
	case nil:
		return nil, true
	case ProvideFunc:
		return p, true
	case func(*Instance) (Provided, error):
		return p, true
	case Provided:
		return func(*Instance) (Provided, error) { return p, nil }, true
	}
	m.warn(fmt.Sprintf("Invalid value for option %q: expected a provide function or Provided, but got %s.", key, typeName(v)))
	return nil, false
}
