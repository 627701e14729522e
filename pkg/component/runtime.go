package component

import (
	"reflect"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/viewcore/pkg/diag"
	"github.com/delaneyj/viewcore/pkg/reactive"
)

// Runtime is one independent framework instance: base constructor, global
// config, asset registries and the reactive system every instance shares.
type Runtime struct {
	Config *Config

	rs         *reactive.ReactiveSystem
	strategies Strategies
	base       *Constructor
	metrics    *phaseMetrics

	host     Host
	patcher  Patcher
	compiler Compiler
	runSoon  reactive.RunSoon

	cid uint64
	uid uint64
	gen uint64

	// instance whose update is in progress, parent of components created by it
	active *Instance
	// set while a parent pushes new props into a child
	updatingChild bool
	tipped        bool

	plugins mapset.Set[uintptr]

	components *Registrar
	directives *Registrar
	filters    *Registrar
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(rt *Runtime)

// WithConfig replaces the default config.
func WithConfig(cfg *Config) RuntimeOption {
	return func(rt *Runtime) {
		rt.Config = cfg
	}
}

// WithHost sets the mount target resolver.
func WithHost(h Host) RuntimeOption {
	return func(rt *Runtime) {
		rt.host = h
	}
}

// WithPatcher sets the patch collaborator.
func WithPatcher(p Patcher) RuntimeOption {
	return func(rt *Runtime) {
		rt.patcher = p
	}
}

// WithCompiler sets the template compiler.
func WithCompiler(c Compiler) RuntimeOption {
	return func(rt *Runtime) {
		rt.compiler = c
	}
}

// WithRunSoon replaces the tick queue used for flushing.
func WithRunSoon(fn reactive.RunSoon) RuntimeOption {
	return func(rt *Runtime) {
		rt.runSoon = fn
	}
}

// WithLogger sets Config.Logger.
func WithLogger(log *diag.Logger) RuntimeOption {
	return func(rt *Runtime) {
		rt.Config.Logger = log
	}
}

// NewRuntime creates a runtime with an empty base constructor.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	rt := &Runtime{
		Config:     DefaultConfig(),
		strategies: DefaultStrategies(),
		plugins:    mapset.NewThreadUnsafeSet[uintptr](),
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.Config.fill()
	rt.metrics = newPhaseMetrics(rt.Config.Metrics)

	rsOpts := []reactive.Option{
		reactive.WithLogger(rt.Config.Logger),
		reactive.WithErrorHandler(func(err error, owner any, info string) {
			vm, _ := owner.(*Instance)
			rt.HandleError(err, vm, info)
		}),
		reactive.WithWarnHandler(func(msg string, owner any) {
			vm, _ := owner.(*Instance)
			rt.warn(msg, vm)
		}),
	}
	if rt.runSoon != nil {
		rsOpts = append(rsOpts, reactive.WithRunSoon(rt.runSoon))
	}
	if !rt.Config.Async {
		rsOpts = append(rsOpts, reactive.WithSyncFlush())
	}
	rt.rs = reactive.NewReactiveSystem(rsOpts...)
	rt.rs.Scheduler().OnFlushed(rt.callUpdatedHooks)

	rt.base = &Constructor{rt: rt}
	base := Options{}
	for _, kind := range AssetKinds {
		base[assetBucket(kind)] = NewAssets(nil)
	}
	base[optBase] = rt.base
	rt.base.setOptions(base)

	rt.components = &Registrar{rt: rt, kind: KindComponent}
	rt.directives = &Registrar{rt: rt, kind: KindDirective}
	rt.filters = &Registrar{rt: rt, kind: KindFilter}
	return rt
}

// ReactiveSystem returns the shared reactive system.
func (rt *Runtime) ReactiveSystem() *reactive.ReactiveSystem {
	return rt.rs
}

// Base returns the root constructor.
func (rt *Runtime) Base() *Constructor {
	return rt.base
}

// New creates a root instance from the base constructor.
func (rt *Runtime) New(opts Options) *Instance {
	return rt.base.New(opts)
}

// Extend creates a constructor deriving from the base.
func (rt *Runtime) Extend(opts Options) *Constructor {
	return rt.base.Extend(opts)
}

// Mixin merges opts into the base options, affecting every constructor
// resolved afterwards.
func (rt *Runtime) Mixin(opts Options) *Runtime {
	rt.base.Mixin(opts)
	return rt
}

// Components returns the global component registry.
func (rt *Runtime) Components() *Registrar {
	return rt.components
}

// Directives returns the global directive registry.
func (rt *Runtime) Directives() *Registrar {
	return rt.directives
}

// Filters returns the global filter registry.
func (rt *Runtime) Filters() *Registrar {
	return rt.filters
}

// Plugin installs global functionality.
type Plugin func(rt *Runtime, args ...any)

// Use installs plugin once; repeated installs are ignored.
func (rt *Runtime) Use(plugin Plugin, args ...any) *Runtime {
	if plugin == nil {
		return rt
	}
	if !rt.plugins.Add(reflect.ValueOf(plugin).Pointer()) {
		return rt
	}
	plugin(rt, args...)
	return rt
}

// Set adds a reactive property to target.
func (rt *Runtime) Set(target any, key string, val any) any {
	return rt.rs.Set(target, key, val)
}

// Delete removes a property from target.
func (rt *Runtime) Delete(target any, key string) {
	rt.rs.Delete(target, key)
}

// Observable makes obj reactive and returns it.
func (rt *Runtime) Observable(obj any) any {
	if m, ok := obj.(map[string]any); ok {
		obj = reactive.NewObject(m)
	}
	rt.rs.Observe(obj, false)
	return obj
}

// NextTick queues fn after the pending flush.
func (rt *Runtime) NextTick(fn func()) {
	rt.rs.NextTick(fn)
}

// Tick drains the built in tick queue and returns how many callbacks ran.
func (rt *Runtime) Tick() int {
	return rt.rs.Tick()
}

func (rt *Runtime) nextCID() uint64 {
	rt.cid++
	return rt.cid
}

func (rt *Runtime) nextGen() uint64 {
	rt.gen++
	return rt.gen
}

// callUpdatedHooks runs updated hooks for the render watchers of a flush,
// children before parents.
func (rt *Runtime) callUpdatedHooks(flushed []*reactive.Watcher) {
	for i := len(flushed) - 1; i >= 0; i-- {
		w := flushed[i]
		vm, ok := w.Owner().(*Instance)
		if !ok || !w.IsRender() || vm.watcher != w {
			continue
		}
		if vm.isMounted && !vm.isDestroyed {
			vm.callHook(HookUpdated)
		}
	}
}
