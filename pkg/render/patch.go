package render

import (
	"maps"

	"github.com/delaneyj/viewcore/pkg/component"
	"github.com/delaneyj/viewcore/pkg/diag"
	"github.com/delaneyj/viewcore/pkg/vdom"
)

type refOwner interface {
	RegisterRef(key string, ref any, remove bool)
}

type mounted interface {
	El() vdom.Element
}

// Patcher applies render output to Nodes.
type Patcher struct {
	log         *diag.Logger
	mustUseProp func(tag, typ, attr string) bool
}

// NewPatcher creates a patcher using the logger and platform predicates of
// cfg.
func NewPatcher(cfg *component.Config) *Patcher {
	p := &Patcher{log: cfg.Logger, mustUseProp: cfg.MustUseProp}
	if p.log == nil {
		p.log = diag.Default()
	}
	if p.mustUseProp == nil {
		p.mustUseProp = func(string, string, string) bool { return false }
	}
	return p
}

// NewRuntime creates a component runtime mounting into doc.
func NewRuntime(doc *Document, opts ...component.RuntimeOption) *component.Runtime {
	base := []component.RuntimeOption{component.WithHost(doc)}
	rt := component.NewRuntime(append(base, opts...)...)
	component.WithPatcher(NewPatcher(rt.Config))(rt)
	return rt
}

// Patch implements component.Patcher.
func (p *Patcher) Patch(vm *component.Instance, oldEl vdom.Element, oldVnode, vnode *vdom.VNode) vdom.Element {
	if vnode == nil {
		if oldVnode != nil {
			p.invokeDestroyHook(oldVnode)
		}
		return nil
	}

	var queue []*vdom.VNode
	initial := false
	switch {
	case oldVnode == nil:
		initial = true
		old, _ := oldEl.(*Node)
		if old == nil || old.parent == nil {
			p.createElm(vnode, &queue, nil, nil)
		} else {
			parent := old.parent
			p.createElm(vnode, &queue, parent, old.NextSibling())
			old.Remove()
		}
	case vdom.SameVNode(oldVnode, vnode):
		p.patchVnode(oldVnode, vnode, &queue)
	default:
		oldNode, _ := oldVnode.Elm.(*Node)
		var parent, ref *Node
		if oldNode != nil {
			parent, ref = oldNode.parent, oldNode.NextSibling()
		}
		p.createElm(vnode, &queue, parent, ref)
		// placeholders of components rooted here now point at the new element
		for anc := vnode.Parent; anc != nil; {
			anc.Elm = vnode.Elm
			ctx, ok := anc.Context.(*component.Instance)
			if !ok || ctx.RenderedVNode() != anc {
				break
			}
			anc = ctx.VNode()
		}
		p.removeVnode(oldVnode)
	}
	p.log.Debug().Uint64("uid", vm.UID()).Bool("initial", initial).Msg("patch")

	p.invokeInsertHook(vnode, queue, initial)
	return vnode.Elm
}

// invokeInsertHook defers the insert hooks of a component's first patch to
// the patch of its parent, where the element actually gets attached.
func (p *Patcher) invokeInsertHook(vnode *vdom.VNode, queue []*vdom.VNode, initial bool) {
	if initial && vnode.Parent != nil {
		vnode.Parent.PendingInsert = queue
		return
	}
	for _, v := range queue {
		if v.Data != nil && v.Data.Hook != nil && v.Data.Hook.Insert != nil {
			v.Data.Hook.Insert(v)
		}
	}
}

func (p *Patcher) createElm(vnode *vdom.VNode, queue *[]*vdom.VNode, parent, ref *Node) {
	if p.createComponent(vnode, queue, parent, ref) {
		return
	}
	var n *Node
	switch {
	case vnode.IsComment:
		n = NewComment(vnode.Text)
	case vnode.Tag == "":
		n = NewText(vnode.Text)
	default:
		n = NewElement(vnode.Tag)
		n.ns = vnode.Ns
		for _, child := range vnode.Children {
			p.createElm(child, queue, n, nil)
		}
		vnode.Elm = n
		if vnode.Data != nil {
			p.invokeCreateHooks(vnode, queue)
		}
	}
	vnode.Elm = n
	if parent != nil {
		parent.InsertBefore(n, ref)
	}
}

func (p *Patcher) createComponent(vnode *vdom.VNode, queue *[]*vdom.VNode, parent, ref *Node) bool {
	data := vnode.Data
	if data == nil || data.Hook == nil || data.Hook.Init == nil || !vnode.IsComponent() {
		return false
	}
	data.Hook.Init(vnode)
	inst, ok := vnode.ComponentInstance.(mounted)
	if !ok {
		return false
	}
	if len(vnode.PendingInsert) > 0 {
		*queue = append(*queue, vnode.PendingInsert...)
		vnode.PendingInsert = nil
	}
	vnode.Elm = inst.El()
	p.invokeCreateHooks(vnode, queue)
	if n, ok := vnode.Elm.(*Node); ok && parent != nil {
		parent.InsertBefore(n, ref)
	}
	return true
}

// invokeCreateHooks applies vnode data to a fresh element and queues the
// insert hook.
func (p *Patcher) invokeCreateHooks(vnode *vdom.VNode, queue *[]*vdom.VNode) {
	p.updateData(nil, vnode)
	p.registerRef(vnode, false)
	if h := vnode.Data.Hook; h != nil && h.Insert != nil {
		*queue = append(*queue, vnode)
	}
}

func (p *Patcher) updateData(oldVnode, vnode *vdom.VNode) {
	n, ok := vnode.Elm.(*Node)
	if !ok || n.kind != elementNode {
		return
	}
	old, cur := &vdom.Data{}, &vdom.Data{}
	if oldVnode != nil && oldVnode.Data != nil {
		old = oldVnode.Data
	}
	if vnode.Data != nil {
		cur = vnode.Data
	}
	// a component placeholder shares its element with the child's root, so
	// both sides only touch the keys they set themselves
	n.attrs = diffMap(n.attrs, old.Attrs, cur.Attrs)
	n.listeners = diffMap(n.listeners, old.On, cur.On)
	if old.Class != cur.Class {
		n.class = cur.Class
	}
	if !vnode.IsComponent() {
		n.props = diffMap(n.props, old.Props, cur.Props)
		p.bindProps(n)
	}
}

// bindProps moves attributes the platform reads as properties, like the value
// of an input.
func (p *Patcher) bindProps(n *Node) {
	typ, _ := n.attrs["type"].(string)
	for k, v := range n.attrs {
		if !p.mustUseProp(n.tag, typ, k) {
			continue
		}
		if n.props == nil {
			n.props = map[string]any{}
		}
		n.props[k] = v
		delete(n.attrs, k)
	}
}

func diffMap[V any](dst, old, cur map[string]V) map[string]V {
	for k := range old {
		if _, ok := cur[k]; !ok {
			delete(dst, k)
		}
	}
	if len(cur) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]V, len(cur))
	}
	maps.Copy(dst, cur)
	return dst
}

func (p *Patcher) registerRef(vnode *vdom.VNode, remove bool) {
	if vnode.Data == nil || vnode.Data.Ref == "" {
		return
	}
	owner, ok := vnode.Context.(refOwner)
	if !ok {
		return
	}
	var ref any = vnode.Elm
	if vnode.ComponentInstance != nil {
		ref = vnode.ComponentInstance
	}
	owner.RegisterRef(vnode.Data.Ref, ref, remove)
}

func (p *Patcher) patchVnode(oldVnode, vnode *vdom.VNode, queue *[]*vdom.VNode) {
	if oldVnode == vnode {
		return
	}
	vnode.Elm = oldVnode.Elm
	if vnode.Data != nil && vnode.Data.Hook != nil && vnode.Data.Hook.Prepatch != nil {
		vnode.Data.Hook.Prepatch(oldVnode, vnode)
	}
	if vnode.Data != nil || oldVnode.Data != nil {
		p.updateData(oldVnode, vnode)
		p.updateRef(oldVnode, vnode)
	}

	n, _ := vnode.Elm.(*Node)
	if n == nil || vnode.IsComponent() {
		return
	}
	switch n.kind {
	case textNode, commentNode:
		if oldVnode.Text != vnode.Text {
			n.text = vnode.Text
		}
	default:
		p.updateChildren(n, oldVnode.Children, vnode.Children, queue)
	}
}

func (p *Patcher) updateRef(oldVnode, vnode *vdom.VNode) {
	var oldRef, newRef string
	if oldVnode.Data != nil {
		oldRef = oldVnode.Data.Ref
	}
	if vnode.Data != nil {
		newRef = vnode.Data.Ref
	}
	if oldRef == newRef {
		return
	}
	p.registerRef(oldVnode, true)
	p.registerRef(vnode, false)
}

// updateChildren patches keyed children by key and unkeyed ones by position,
// then puts the elements in the new order.
func (p *Patcher) updateChildren(parent *Node, oldCh, newCh []*vdom.VNode, queue *[]*vdom.VNode) {
	used := make([]bool, len(oldCh))
	keyed := map[any]int{}
	for i, o := range oldCh {
		if o.Key != nil {
			keyed[o.Key] = i
		}
	}
	for i, v := range newCh {
		match := -1
		if v.Key != nil {
			if j, ok := keyed[v.Key]; ok && !used[j] && vdom.SameVNode(oldCh[j], v) {
				match = j
			}
		} else if i < len(oldCh) && !used[i] && oldCh[i].Key == nil && vdom.SameVNode(oldCh[i], v) {
			match = i
		}
		if match >= 0 {
			used[match] = true
			p.patchVnode(oldCh[match], v, queue)
		} else {
			p.createElm(v, queue, nil, nil)
		}
	}
	for j, o := range oldCh {
		if !used[j] {
			p.removeVnode(o)
		}
	}
	for _, v := range newCh {
		if n, ok := v.Elm.(*Node); ok {
			parent.AppendChild(n)
		}
	}
}

func (p *Patcher) removeVnode(vnode *vdom.VNode) {
	p.invokeDestroyHook(vnode)
	if n, ok := vnode.Elm.(*Node); ok {
		n.Remove()
	}
}

func (p *Patcher) invokeDestroyHook(vnode *vdom.VNode) {
	if data := vnode.Data; data != nil {
		if data.Hook != nil && data.Hook.Destroy != nil {
			data.Hook.Destroy(vnode)
		}
		p.registerRef(vnode, true)
	}
	for _, child := range vnode.Children {
		p.invokeDestroyHook(child)
	}
}
