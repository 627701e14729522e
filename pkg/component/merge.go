package component

import (
	"fmt"
	"regexp"
	"slices"
)

// Merger carries the context of one MergeOptions call into the strategies.
type Merger struct {
	rt *Runtime
	// vm is nil when merging for a constructor
	vm *Instance
}

// VM returns the instance being created, nil while extending a constructor.
func (m *Merger) VM() *Instance {
	return m.vm
}

// Warn reports a configuration warning.
func (m *Merger) Warn(msg string) {
	m.warn(msg)
}

func (m *Merger) warn(msg string) {
	if m.vm != nil {
		m.vm.warn(msg)
		return
	}
	m.rt.warn(msg, nil)
}

func (m *Merger) strategy(key string) Strategy {
	if s, ok := m.rt.Config.MergeStrategies[key]; ok && s != nil {
		return s
	}
	if s, ok := m.rt.strategies[key]; ok {
		return s
	}
	return DefaultStrategy
}

// MergeOptions merges child into parent field by field through the strategy
// table. vm is the instance being created or nil when extending.
func (rt *Runtime) MergeOptions(parent, child Options, vm *Instance) Options {
	m := &Merger{rt: rt, vm: vm}
	return m.merge(parent, child)
}

func (m *Merger) merge(parent, child Options) Options {
	child = child.Clone()
	m.checkComponents(child)
	m.normalizeProps(child)
	m.normalizeInject(child)
	normalizeDirectives(child)

	// options that already went through a merge have their extends and mixins
	// folded in
	if _, merged := child[optBase]; !merged {
		if ext, ok := optionsOf(child[OptExtends]); ok {
			parent = m.merge(parent, ext)
		}
		for _, mixin := range mixinsOf(child[OptMixins]) {
			parent = m.merge(parent, mixin)
		}
	}

	res := make(Options, len(parent)+len(child))
	for key, pv := range parent {
		res[key] = m.field(key, pv, child[key])
	}
	for key, cv := range child {
		if _, done := parent[key]; done {
			continue
		}
		res[key] = m.field(key, nil, cv)
	}
	for key, v := range res {
		if v == nil {
			delete(res, key)
		}
	}
	return res
}

func (m *Merger) field(key string, parent, child any) any {
	return m.strategy(key)(m, parent, child, key)
}

func mixinsOf(v any) []Options {
	var out []Options
	switch t := v.(type) {
	case []Options:
		out = t
	case []any:
		for _, item := range t {
			if o, ok := optionsOf(item); ok {
				out = append(out, o)
			}
		}
	case []*Constructor:
		for _, c := range t {
			out = append(out, c.Options())
		}
	}
	return out
}

func (m *Merger) checkComponents(opts Options) {
	switch c := opts[OptComponents].(type) {
	case map[string]any:
		for name := range c {
			m.rt.validateComponentName(name)
		}
	case *Assets:
		for name := range c.entries {
			m.rt.validateComponentName(name)
		}
	}
}

var componentNameRE = regexp.MustCompile(`^[a-zA-Z][\w\-\.]*$`)

var builtInTags = []string{"slot", "component"}

func (rt *Runtime) validateComponentName(name string) bool {
	if !componentNameRE.MatchString(name) {
		rt.warn(fmt.Sprintf("Invalid component name: %q. Component names should conform to valid custom element name in html5 specification.", name), nil)
		return false
	}
	if slices.Contains(builtInTags, name) || rt.Config.IsReservedTag(name) {
		rt.warn("Do not use built-in or reserved HTML elements as component id: "+name, nil)
		return false
	}
	return true
}
