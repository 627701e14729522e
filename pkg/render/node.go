package render

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/valyala/quicktemplate"

	"github.com/delaneyj/viewcore/pkg/vdom"
)

type nodeKind uint8

const (
	elementNode nodeKind = iota
	textNode
	commentNode
)

var voidElements = []string{
	"area", "base", "br", "col", "embed", "hr", "img", "input",
	"link", "meta", "param", "source", "track", "wbr",
}

// Node is an in-memory host node.
type Node struct {
	kind      nodeKind
	tag       string
	ns        string
	text      string
	class     string
	attrs     map[string]any
	props     map[string]any
	listeners map[string]vdom.Listener

	parent   *Node
	children []*Node
}

// NewElement creates a detached element.
func NewElement(tag string) *Node {
	return &Node{kind: elementNode, tag: tag}
}

// NewText creates a detached text node.
func NewText(text string) *Node {
	return &Node{kind: textNode, text: text}
}

// NewComment creates a detached comment node.
func NewComment(text string) *Node {
	return &Node{kind: commentNode, text: text}
}

func (n *Node) TagName() string {
	if n.kind != elementNode {
		return ""
	}
	return n.tag
}

// Namespace returns the element namespace, e.g. "svg".
func (n *Node) Namespace() string {
	return n.ns
}

// Text returns the text content of the node and its descendants.
func (n *Node) Text() string {
	switch n.kind {
	case textNode:
		return n.text
	case commentNode:
		return ""
	}
	var b strings.Builder
	for _, c := range n.children {
		b.WriteString(c.Text())
	}
	return b.String()
}

// SetText replaces the content of a text or comment node.
func (n *Node) SetText(text string) {
	n.text = text
}

// Attr returns an attribute value.
func (n *Node) Attr(name string) (any, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// SetAttr sets an attribute.
func (n *Node) SetAttr(name string, value any) *Node {
	if n.attrs == nil {
		n.attrs = map[string]any{}
	}
	n.attrs[name] = value
	return n
}

// Prop returns a DOM property set through vnode data.
func (n *Node) Prop(name string) any {
	return n.props[name]
}

// Class returns the class attribute.
func (n *Node) Class() string {
	return n.class
}

// SetClass sets the class attribute.
func (n *Node) SetClass(class string) *Node {
	n.class = class
	return n
}

// Parent returns the parent node.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the child nodes.
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

// AppendChild moves child to the end of n.
func (n *Node) AppendChild(child *Node) *Node {
	return n.InsertBefore(child, nil)
}

// InsertBefore moves child in front of ref, or to the end when ref is nil.
func (n *Node) InsertBefore(child, ref *Node) *Node {
	child.Remove()
	child.parent = n
	if i := slices.Index(n.children, ref); ref != nil && i >= 0 {
		n.children = slices.Insert(n.children, i, child)
		return child
	}
	n.children = append(n.children, child)
	return child
}

// Remove detaches n from its parent.
func (n *Node) Remove() {
	p := n.parent
	if p == nil {
		return
	}
	if i := slices.Index(p.children, n); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	n.parent = nil
}

// NextSibling returns the node after n.
func (n *Node) NextSibling() *Node {
	if n.parent == nil {
		return nil
	}
	siblings := n.parent.children
	if i := slices.Index(siblings, n); i >= 0 && i+1 < len(siblings) {
		return siblings[i+1]
	}
	return nil
}

// Dispatch calls the listener bound for event.
func (n *Node) Dispatch(event string, args ...any) error {
	fn := n.listeners[event]
	if fn == nil {
		return fmt.Errorf("no listener for %q on <%s>", event, n.tag)
	}
	return fn(args...)
}

// Find returns the first descendant, or n itself, matching a "#id", ".class"
// or tag selector.
func (n *Node) Find(selector string) *Node {
	if n.matches(selector) {
		return n
	}
	for _, c := range n.children {
		if found := c.Find(selector); found != nil {
			return found
		}
	}
	return nil
}

func (n *Node) matches(selector string) bool {
	if n.kind != elementNode || selector == "" {
		return false
	}
	switch selector[0] {
	case '#':
		id, _ := n.attrs["id"].(string)
		return id == selector[1:]
	case '.':
		return slices.Contains(strings.Fields(n.class), selector[1:])
	}
	return strings.EqualFold(n.tag, selector)
}

func (n *Node) InnerHTML() string {
	bb := quicktemplate.AcquireByteBuffer()
	defer quicktemplate.ReleaseByteBuffer(bb)
	qw := quicktemplate.AcquireWriter(bb)
	for _, c := range n.children {
		streamNode(qw, c)
	}
	quicktemplate.ReleaseWriter(qw)
	return string(bb.B)
}

func (n *Node) OuterHTML() string {
	bb := quicktemplate.AcquireByteBuffer()
	defer quicktemplate.ReleaseByteBuffer(bb)
	n.WriteHTML(bb)
	return string(bb.B)
}

// WriteHTML serializes n to w.
func (n *Node) WriteHTML(w io.Writer) {
	qw := quicktemplate.AcquireWriter(w)
	streamNode(qw, n)
	quicktemplate.ReleaseWriter(qw)
}

func streamNode(qw *quicktemplate.Writer, n *Node) {
	switch n.kind {
	case textNode:
		qw.E().S(n.text)
		return
	case commentNode:
		qw.N().S("<!--")
		qw.N().S(n.text)
		qw.N().S("-->")
		return
	}

	qw.N().S("<")
	qw.N().S(n.tag)
	if n.class != "" {
		qw.N().S(` class="`)
		qw.E().S(n.class)
		qw.N().S(`"`)
	}
	keys := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := n.attrs[k].(type) {
		case nil:
		case bool:
			if v {
				qw.N().S(" ")
				qw.N().S(k)
			}
		default:
			qw.N().S(" ")
			qw.N().S(k)
			qw.N().S(`="`)
			qw.E().V(v)
			qw.N().S(`"`)
		}
	}
	qw.N().S(">")
	if slices.Contains(voidElements, n.tag) {
		return
	}
	for _, c := range n.children {
		streamNode(qw, c)
	}
	qw.N().S("</")
	qw.N().S(n.tag)
	qw.N().S(">")
}

// Document is an in-memory page with an html and a body element. It resolves
// mount targets for a component runtime.
type Document struct {
	html *Node
	body *Node
}

// NewDocument creates an empty page.
func NewDocument() *Document {
	d := &Document{html: NewElement("html"), body: NewElement("body")}
	d.html.AppendChild(d.body)
	return d
}

// Root returns the html element.
func (d *Document) Root() *Node {
	return d.html
}

// Body returns the body element.
func (d *Document) Body() *Node {
	return d.body
}

// Query finds the first element matching selector.
func (d *Document) Query(selector string) vdom.Element {
	if n := d.html.Find(selector); n != nil {
		return n
	}
	return nil
}

// CreateElement creates a detached element.
func (d *Document) CreateElement(tag string) vdom.Element {
	return NewElement(tag)
}
