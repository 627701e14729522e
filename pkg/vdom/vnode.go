package vdom

import (
	"fmt"
)

// Element is a mounted host node.
type Element interface {
	TagName() string
	InnerHTML() string
	OuterHTML() string
}

// Listener is an event handler attached through vnode data.
type Listener = func(args ...any) error

// Hooks are invoked by the patcher on component placeholder vnodes.
type Hooks struct {
	Init     func(vnode *VNode)
	Prepatch func(oldVnode, vnode *VNode)
	Insert   func(vnode *VNode)
	Destroy  func(vnode *VNode)
}

// Data is the per node data passed to the element builder.
type Data struct {
	Key      any
	Ref      string
	Slot     string
	Class    string
	Attrs    map[string]any
	Props    map[string]any
	On       map[string]Listener
	NativeOn map[string]Listener
	Hook     *Hooks
}

// ComponentOptions describe the child component a placeholder vnode stands for.
type ComponentOptions struct {
	// Ctor is the child's constructor.
	Ctor      any
	PropsData map[string]any
	Listeners map[string]Listener
	Tag       string
	Children  []*VNode
}

// VNode is a node of render output.
type VNode struct {
	Tag      string
	Data     *Data
	Children []*VNode
	Text     string
	Ns       string
	Key      any
	Elm      Element

	// Context is the component instance whose render produced this node.
	Context any

	ComponentOptions  *ComponentOptions
	ComponentInstance any

	// Parent is the placeholder vnode when this node is a component's root.
	Parent *VNode

	IsComment bool
	IsStatic  bool

	// Insert hooks of a component's initial subtree, flushed by the patch of
	// the parent.
	PendingInsert []*VNode
}

// NewElement creates an element vnode, normalizing children.
func NewElement(tag string, data *Data, children ...any) *VNode {
	v := &VNode{Tag: tag, Data: data, Children: Normalize(children...)}
	if data != nil {
		v.Key = data.Key
	}
	return v
}

// NewText creates a text vnode.
func NewText(text string) *VNode {
	return &VNode{Text: text}
}

// NewEmpty creates an empty comment vnode.
func NewEmpty() *VNode {
	return &VNode{IsComment: true}
}

// IsText reports whether v is a text node.
func (v *VNode) IsText() bool {
	return v.Tag == "" && !v.IsComment
}

// IsComponent reports whether v is a component placeholder.
func (v *VNode) IsComponent() bool {
	return v.ComponentOptions != nil
}

func (v *VNode) String() string {
	switch {
	case v == nil:
		return "<nil>"
	case v.IsComment:
		return "<!---->"
	case v.IsText():
		return fmt.Sprintf("%q", v.Text)
	default:
		return fmt.Sprintf("<%s>[%d]", v.Tag, len(v.Children))
	}
}

// Normalize flattens children given as vnodes, vnode slices, strings or other
// scalars into a vnode slice. Adjacent text is merged.
func Normalize(children ...any) []*VNode {
	var out []*VNode
	push := func(v *VNode) {
		if v == nil {
			return
		}
		if n := len(out); n > 0 && v.IsText() && out[n-1].IsText() {
			out[n-1] = NewText(out[n-1].Text + v.Text)
			return
		}
		out = append(out, v)
	}
	for _, c := range children {
		switch t := c.(type) {
		case nil:
		case *VNode:
			push(t)
		case []*VNode:
			for _, v := range t {
				push(v)
			}
		case []any:
			for _, v := range Normalize(t...) {
				push(v)
			}
		case string:
			push(NewText(t))
		default:
			push(NewText(fmt.Sprint(t)))
		}
	}
	return out
}

// SameVNode reports whether b can patch a in place.
func SameVNode(a, b *VNode) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Key != b.Key || a.Tag != b.Tag || a.IsComment != b.IsComment {
		return false
	}
	if (a.Data == nil) != (b.Data == nil) {
		return false
	}
	if a.ComponentOptions != nil && b.ComponentOptions != nil {
		return a.ComponentOptions.Ctor == b.ComponentOptions.Ctor
	}
	return true
}
