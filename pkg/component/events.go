package component

import (
	"fmt"
	"slices"
	"strings"
)

// EventHandler handles an emitted event.
type EventHandler = func(args ...any) error

type listener struct {
	id   uint64
	fn   EventHandler
	once bool
}

// On registers fn for event and returns the function removing it.
func (vm *Instance) On(event string, fn EventHandler) (off func()) {
	if !vm.usable("On") || fn == nil {
		return func() {}
	}
	return vm.addListener(event, fn, false)
}

// Once registers fn for the next emit of event only.
func (vm *Instance) Once(event string, fn EventHandler) (off func()) {
	if !vm.usable("Once") || fn == nil {
		return func() {}
	}
	return vm.addListener(event, fn, true)
}

func (vm *Instance) addListener(event string, fn EventHandler, once bool) func() {
	if vm.events == nil {
		vm.events = map[string][]*listener{}
	}
	vm.listenerSeq++
	l := &listener{id: vm.listenerSeq, fn: fn, once: once}
	vm.events[event] = append(vm.events[event], l)
	if strings.HasPrefix(event, "hook:") {
		vm.hasHookEvent = true
	}
	return func() { vm.removeListener(event, l.id) }
}

func (vm *Instance) removeListener(event string, id uint64) {
	ls := vm.events[event]
	if i := slices.IndexFunc(ls, func(l *listener) bool { return l.id == id }); i >= 0 {
		vm.events[event] = slices.Delete(slices.Clone(ls), i, i+1)
	}
}

// Off removes every listener of the given events, or of all events when none
// are given.
func (vm *Instance) Off(events ...string) {
	if !vm.usable("Off") {
		return
	}
	if len(events) == 0 {
		vm.events = nil
		return
	}
	for _, e := range events {
		delete(vm.events, e)
	}
}

// Emit invokes the listeners of event in registration order. Errors are
// routed like any other evaluation error.
func (vm *Instance) Emit(event string, args ...any) {
	if !vm.usable("Emit") {
		return
	}
	if lower := strings.ToLower(event); lower != event && len(vm.events[lower]) > 0 {
		vm.rt.tip(fmt.Sprintf(
			"Event %q is emitted in component %s but the handler is registered for %q. Note that HTML attributes are case-insensitive and you cannot use v-on to listen to camelCase events when using in-DOM templates. You should probably use %q instead of %q.",
			lower, vm.FormatName(false), event, Hyphenate(event), event,
		), vm)
	}
	ls := slices.Clone(vm.events[event])
	info := fmt.Sprintf("event handler for %q", event)
	for _, l := range ls {
		if l.once {
			vm.removeListener(event, l.id)
		}
		fn := l.fn
		vm.rt.invoke(vm, info, func() error { return fn(args...) })
	}
}

// updateListeners attaches the listeners passed by the parent vnode, replacing
// the ones from the previous render.
func (vm *Instance) updateListeners(listeners map[string]EventHandler) {
	for name, off := range vm.parentListeners {
		if _, still := listeners[name]; !still {
			off()
			delete(vm.parentListeners, name)
		}
	}
	if vm.parentListeners == nil {
		vm.parentListeners = map[string]func(){}
	}
	for name, fn := range listeners {
		if off, ok := vm.parentListeners[name]; ok {
			off()
		}
		once := strings.HasPrefix(name, "~")
		event := strings.TrimPrefix(name, "~")
		if fn == nil {
			vm.warn(fmt.Sprintf("Invalid handler for event %q: got nil", event))
			continue
		}
		vm.parentListeners[name] = vm.addListener(event, fn, once)
	}
}
