package component

import (
	"maps"
	"reflect"

	"github.com/delaneyj/viewcore/pkg/reactive"
)

// Constructor creates instances from resolved options. Constructors form a
// chain through Extend; each resolves its options against its super lazily so
// that options changed on an ancestor after Extend are picked up.
type Constructor struct {
	cid   uint64
	rt    *Runtime
	super *Constructor

	options Options
	// bumped whenever options is replaced, compared by descendants
	gen uint64

	superGen      uint64
	superOptions  Options
	extendOptions Options
	// snapshot of options after the last merge, used to find later changes
	sealedOptions Options
	// mixins applied to this constructor after Extend, replayed on re-merge
	mixins []Options

	// sub constructors made from raw options during render, keyed by the
	// identity of the options map
	extendCache map[uintptr]cachedSub
}

type cachedSub struct {
	// held so the map, and with it the key, stays alive
	src  Options
	ctor *Constructor
}

// CID returns the constructor id. The base constructor has id 0.
func (c *Constructor) CID() uint64 {
	return c.cid
}

// Super returns the parent constructor, nil for the base.
func (c *Constructor) Super() *Constructor {
	return c.super
}

// Runtime returns the owning runtime.
func (c *Constructor) Runtime() *Runtime {
	return c.rt
}

// Options returns the current options. Call ResolveOptions to pick up changes
// made on ancestors.
func (c *Constructor) Options() Options {
	return c.options
}

// Name returns the name option.
func (c *Constructor) Name() string {
	return c.options.Name()
}

func (c *Constructor) setOptions(opts Options) {
	c.options = opts
	c.gen = c.rt.nextGen()
}

// Extend creates a sub constructor whose options are the merge of the
// resolved options of c and extendOptions.
func (c *Constructor) Extend(extendOptions Options) *Constructor {
	rt := c.rt
	extendOptions = extendOptions.Clone()
	superOptions := c.ResolveOptions()

	name := extendOptions.Name()
	if name == "" {
		name = superOptions.Name()
	}
	if name != "" {
		rt.validateComponentName(name)
	}

	sub := &Constructor{
		cid:   rt.nextCID(),
		rt:    rt,
		super: c,
	}
	sub.setOptions(rt.MergeOptions(superOptions, extendOptions, nil))
	sub.superOptions = superOptions
	sub.superGen = c.gen
	sub.extendOptions = extendOptions

	// allow recursive self lookup
	if name != "" {
		if assets := sub.options.Assets(KindComponent); assets != nil {
			assets.Set(name, sub)
		}
	}
	sub.sealedOptions = sub.options.Clone()
	return sub
}

// extendCached returns the sub constructor for opts, creating it once per
// options map.
func (c *Constructor) extendCached(opts Options) *Constructor {
	key := reflect.ValueOf(opts).Pointer()
	if cached, ok := c.extendCache[key]; ok {
		return cached.ctor
	}
	sub := c.Extend(opts)
	if c.extendCache == nil {
		c.extendCache = map[uintptr]cachedSub{}
	}
	c.extendCache[key] = cachedSub{src: opts, ctor: sub}
	return sub
}

// Mixin merges opts into the options of c.
func (c *Constructor) Mixin(opts Options) *Constructor {
	if c.super != nil {
		c.keepModified()
		c.mixins = append(c.mixins, opts)
	}
	c.setOptions(c.rt.MergeOptions(c.options, opts, nil))
	c.sealedOptions = c.options.Clone()
	return c
}

func (c *Constructor) keepModified() {
	if modified := c.modifiedOptions(); len(modified) > 0 {
		maps.Copy(c.extendOptions, modified)
	}
}

// ResolveOptions returns the options of c after re-merging with any
// ancestor whose options changed since c was last resolved. Options changed
// directly on c since then are kept.
func (c *Constructor) ResolveOptions() Options {
	if c.super == nil {
		return c.options
	}
	superOptions := c.super.ResolveOptions()
	if c.super.gen == c.superGen {
		return c.options
	}
	c.superGen = c.super.gen
	c.superOptions = superOptions
	c.keepModified()
	opts := c.rt.MergeOptions(superOptions, c.extendOptions, nil)
	for _, mixin := range c.mixins {
		opts = c.rt.MergeOptions(opts, mixin, nil)
	}
	c.setOptions(opts)
	if name := c.options.Name(); name != "" {
		if assets := c.options.Assets(KindComponent); assets != nil {
			assets.Set(name, c)
		}
	}
	c.sealedOptions = c.options.Clone()
	return c.options
}

func (c *Constructor) modifiedOptions() Options {
	var modified Options
	for key, latest := range c.options {
		if sealed, ok := c.sealedOptions[key]; ok && reactive.SameValue(latest, sealed) {
			continue
		}
		if modified == nil {
			modified = Options{}
		}
		modified[key] = latest
	}
	return modified
}

// SetOption changes one option of c directly, as late modifications that
// survive re-resolution.
func (c *Constructor) SetOption(key string, value any) {
	opts := c.options.Clone()
	opts[key] = value
	c.setOptions(opts)
}

// New creates and initializes an instance. A non nil "el" option mounts it.
func (c *Constructor) New(opts Options) *Instance {
	vm := &Instance{rt: c.rt, ctor: c}
	vm.init(opts, nil)
	return vm
}

// IsSubOf reports whether c derives from other.
func (c *Constructor) IsSubOf(other *Constructor) bool {
	for cur := c; cur != nil; cur = cur.super {
		if cur == other {
			return true
		}
	}
	return false
}
