package component

import (
	"github.com/delaneyj/viewcore/pkg/vdom"
)

// CompileOptions are the compile time options taken from the component.
type CompileOptions struct {
	Delimiters                  [2]string
	Comments                    bool
	ShouldDecodeNewlines        bool
	ShouldDecodeNewlinesForHref bool
	OutputSourceRange           bool
}

// CompileError is a compile diagnostic with its source range.
type CompileError struct {
	Msg   string
	Start int
	End   int
}

// CompileResult is what a Compiler produces for one template.
type CompileResult struct {
	Render          RenderFunc
	StaticRenderFns []RenderFunc
	Errors          []CompileError
	Tips            []string
}

// Compiler turns templates into render functions.
type Compiler interface {
	Compile(template string, opts CompileOptions) CompileResult
}

// Patcher mounts and updates render output. oldVnode is nil on the first patch
// of an instance, vnode is nil when the instance is torn down.
type Patcher interface {
	Patch(vm *Instance, oldEl vdom.Element, oldVnode, vnode *vdom.VNode) vdom.Element
}

// Host resolves mount targets.
type Host interface {
	Query(selector string) vdom.Element
	CreateElement(tag string) vdom.Element
}
