package component

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/delaneyj/viewcore/pkg/diag"
)

// HandleError routes an evaluation error: every ancestor's errorCaptured hooks
// see it first and may stop propagation by returning false, then the config
// error handler gets it, otherwise it is logged.
func (rt *Runtime) HandleError(err error, vm *Instance, info string) {
	if err == nil {
		return
	}
	// no dependency collection while hooks run, a failing render must not
	// subscribe to what the handlers read
	rt.rs.Untracked(func() {
		if vm != nil {
			for cur := vm.parent; cur != nil; cur = cur.parent {
				for _, hook := range cur.errorCapturedHooks() {
					var propagate bool
					hookErr := diag.Safe(func() (err2 error) {
						propagate, err2 = hook(cur, err, vm, info)
						return err2
					})
					if hookErr != nil {
						rt.globalHandleError(hookErr, cur, "errorCaptured hook")
						continue
					}
					if !propagate {
						return
					}
				}
			}
		}
		rt.globalHandleError(err, vm, info)
	})
}

func (vm *Instance) errorCapturedHooks() ErrorCapturedHooks {
	h, _ := vm.options[OptErrorCaptured].(ErrorCapturedHooks)
	return h
}

func (rt *Runtime) globalHandleError(err error, vm *Instance, info string) {
	if h := rt.Config.ErrorHandler; h != nil {
		handlerErr := diag.Safe(func() error {
			h(err, vm, info)
			return nil
		})
		if handlerErr == nil {
			return
		}
		// the handler re-raising the same error is not a second failure
		var pe *diag.PanicError
		if !(errors.As(handlerErr, &pe) && errors.Is(pe, err)) {
			rt.logError(handlerErr, nil, "config.ErrorHandler")
		}
	}
	rt.logError(err, vm, info)
}

func (rt *Runtime) logError(err error, vm *Instance, info string) {
	rt.warn(fmt.Sprintf("Error in %s: %q", info, err.Error()), vm)
	e := diag.Wrap(err, info)
	e.Category = diag.CategoryEvaluation
	if vm != nil {
		e.Component = vm.FormatName(false)
	}
	rt.Config.Logger.Error(e)
}

// invoke runs a user callback at an evaluation boundary, converting panics and
// routing errors.
func (rt *Runtime) invoke(vm *Instance, info string, fn func() error) error {
	err := diag.Safe(fn)
	if err != nil {
		rt.HandleError(err, vm, info)
	}
	return err
}

// warn reports a development warning with the component trace of vm.
func (rt *Runtime) warn(msg string, vm *Instance) {
	cfg := rt.Config
	if cfg.Production {
		return
	}
	trace := ""
	if vm != nil {
		trace = vm.componentTrace()
	}
	if cfg.WarnHandler != nil {
		cfg.WarnHandler(msg, vm, trace)
		return
	}
	if cfg.Silent {
		return
	}
	cfg.Logger.Warn(diag.CategoryConfig, msg, trace)
}

func (rt *Runtime) tip(msg string, vm *Instance) {
	cfg := rt.Config
	if cfg.Production || cfg.Silent {
		return
	}
	trace := ""
	if vm != nil {
		trace = vm.componentTrace()
	}
	cfg.Logger.Tip(msg, trace)
}

func (vm *Instance) warn(msg string) {
	vm.rt.warn(msg, vm)
}

var classifyRE = regexp.MustCompile(`(?:^|[-_])(\w)`)

func classify(s string) string {
	return classifyRE.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ToUpper(strings.TrimLeft(m, "-_"))
	})
}

// FormatName renders the instance name for diagnostics, e.g. "<MyButton>" or
// "<Root>", with the source file when includeFile is set.
func (vm *Instance) FormatName(includeFile bool) string {
	if vm == nil {
		return "<Anonymous>"
	}
	if vm.root == vm {
		return "<Root>"
	}
	name := vm.options.Name()
	if name == "" {
		name, _ = vm.options[optComponentTag].(string)
	}
	file, _ := vm.options[OptFile].(string)
	if name == "" && file != "" {
		base := filepath.Base(file)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	out := "<Anonymous>"
	if name != "" {
		out = "<" + classify(name) + ">"
	}
	if file != "" && includeFile {
		out += " at " + file
	}
	return out
}

// componentTrace lists the ancestry of vm, folding recursive runs of the same
// constructor.
func (vm *Instance) componentTrace() string {
	if vm.parent == nil {
		return "(found in " + vm.FormatName(true) + ")"
	}
	type entry struct {
		vm        *Instance
		recursive int
	}
	var tree []entry
	recursive := 0
	for cur := vm; cur != nil; {
		if n := len(tree); n > 0 {
			last := tree[n-1].vm
			if last.ctor == cur.ctor {
				recursive++
				cur = cur.parent
				continue
			} else if recursive > 0 {
				tree[n-1].recursive = recursive
				recursive = 0
			}
		}
		tree = append(tree, entry{vm: cur})
		cur = cur.parent
	}
	var b strings.Builder
	b.WriteString("found in\n\n")
	for i, e := range tree {
		if i == 0 {
			b.WriteString("---> ")
		} else {
			b.WriteString("\n")
			b.WriteString(strings.Repeat(" ", 5+i*2))
		}
		if e.recursive > 0 {
			fmt.Fprintf(&b, "%s... (%d recursive calls)", e.vm.FormatName(true), e.recursive)
		} else {
			b.WriteString(e.vm.FormatName(true))
		}
	}
	return b.String()
}
