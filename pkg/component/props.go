package component

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/delaneyj/viewcore/pkg/reactive"
)

// PropType is a runtime type a prop value is checked against.
type PropType string

const (
	TypeString   PropType = "String"
	TypeNumber   PropType = "Number"
	TypeBoolean  PropType = "Boolean"
	TypeFunction PropType = "Function"
	TypeObject   PropType = "Object"
	TypeArray    PropType = "Array"
	TypeSymbol   PropType = "Symbol"
)

// Prop declares one prop. An empty Type accepts any value.
type Prop struct {
	Type     []PropType
	Required bool
	// Default must not be an Object or Array, use DefaultFunc for those so each
	// instance gets its own value.
	Default     any
	DefaultFunc func(vm *Instance) any
	Validator   func(value any) bool
}

func (p *Prop) hasDefault() bool {
	return p.Default != nil || p.DefaultFunc != nil
}

// Props is the normalized props form.
type Props map[string]*Prop

// PropList is the shorthand props form accepting any type.
type PropList []string

// Keys returns the prop names sorted.
func (p Props) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// validateProp resolves the value of key from propsData, applying boolean
// casting and defaults, and warns about failed checks.
func (vm *Instance) validateProp(key string, props Props, propsData map[string]any) any {
	prop := props[key]
	value, present := propsData[key]

	booleanIndex := slices.Index(prop.Type, TypeBoolean)
	if booleanIndex > -1 {
		if !present && !prop.hasDefault() {
			value, present = false, true
		} else if s, ok := value.(string); ok && (s == "" || s == Hyphenate(key)) {
			// boolean has higher priority than an empty string
			stringIndex := slices.Index(prop.Type, TypeString)
			if stringIndex < 0 || booleanIndex < stringIndex {
				value = true
			}
		}
	}
	absent := !present
	if absent {
		value = vm.propDefault(prop, key)
		rs := vm.rt.rs
		prev := rs.ToggleObserving(true)
		value = rs.Adopt(value)
		rs.Observe(value, false)
		rs.ToggleObserving(prev)
	}
	vm.assertProp(prop, key, value, absent)
	return value
}

func (vm *Instance) propDefault(prop *Prop, key string) any {
	if !prop.hasDefault() {
		return nil
	}
	if prop.DefaultFunc == nil {
		switch prop.Default.(type) {
		case *reactive.Object, *reactive.Array, map[string]any, []any:
			vm.warn(fmt.Sprintf("Invalid default value for prop %q: Props with type Object/Array must use a factory function to return the default value.", key))
		}
	}
	// keep the previous default on re-render so watchers do not fire
	if pd, ok := vm.options[OptPropsData].(map[string]any); ok && vm.props != nil {
		if _, given := pd[key]; !given {
			if prev := vm.props.Peek(key); prev != nil {
				return prev
			}
		}
	}
	if prop.DefaultFunc != nil {
		return prop.DefaultFunc(vm)
	}
	return prop.Default
}

func (vm *Instance) assertProp(prop *Prop, name string, value any, absent bool) {
	if prop.Required && absent {
		vm.warn(fmt.Sprintf("Missing required prop: %q", name))
		return
	}
	if value == nil && !prop.Required {
		return
	}
	valid := len(prop.Type) == 0
	var expected []string
	for _, t := range prop.Type {
		if valid {
			break
		}
		expected = append(expected, string(t))
		valid = assertType(value, t)
	}
	if !valid {
		vm.warn(invalidTypeMessage(name, value, expected))
		return
	}
	if prop.Validator != nil && !prop.Validator(value) {
		vm.warn(fmt.Sprintf("Invalid prop: custom validator check failed for prop %q.", name))
	}
}

func assertType(value any, t PropType) bool {
	return rawType(value) == string(t)
}

// rawType names the runtime type of value the way prop checks report it.
func rawType(value any) string {
	switch value.(type) {
	case nil:
		return "Null"
	case string:
		return string(TypeString)
	case bool:
		return string(TypeBoolean)
	case *reactive.Object, map[string]any:
		return string(TypeObject)
	case *reactive.Array, []any:
		return string(TypeArray)
	case Symbol:
		return string(TypeSymbol)
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return string(TypeNumber)
	case reflect.Func:
		return string(TypeFunction)
	}
	return fmt.Sprintf("%T", value)
}

func invalidTypeMessage(name string, value any, expected []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Invalid prop: type check failed for prop %q. Expected %s", name, strings.Join(expected, ", "))
	received := rawType(value)
	if len(expected) == 1 && explicable(expected[0]) && expected[0] != string(TypeBoolean) && received != string(TypeBoolean) {
		fmt.Fprintf(&b, " with value %s", styleValue(value, expected[0]))
	}
	fmt.Fprintf(&b, ", got %s ", received)
	if explicable(received) {
		fmt.Fprintf(&b, "with value %s.", styleValue(value, received))
	}
	return strings.TrimRight(b.String(), " ")
}

func explicable(t string) bool {
	switch PropType(t) {
	case TypeString, TypeNumber, TypeBoolean:
		return true
	}
	return false
}

func styleValue(value any, t string) string {
	if PropType(t) == TypeString {
		return fmt.Sprintf("%q", fmt.Sprint(value))
	}
	return fmt.Sprint(value)
}
