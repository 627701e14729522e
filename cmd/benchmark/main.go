package main

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/viewcore/pkg/component"
	"github.com/delaneyj/viewcore/pkg/diag"
	"github.com/delaneyj/viewcore/pkg/reactive"
	"github.com/delaneyj/viewcore/pkg/render"
	"github.com/delaneyj/viewcore/pkg/vdom"
	"github.com/delaneyj/viewcore/pkg/web"
)

const (
	itersKey   = "iters"
	profileKey = "pgo"
	configKey  = "config"
	quietKey   = "quiet"
)

var (
	ww   = []int{1, 10, 100, 1_000}
	hh   = []int{1, 10, 100, 1_000}
	rows = []int{10, 100, 1_000}
)

func main() {
	log := diag.NewConsole(os.Stderr).Zerolog()
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure watcher propagation and component re-render latency",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Updates measured per case",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to this file, empty to skip",
				Value: "default.pgo",
			},
			&cli.StringFlag{
				Name:  configKey,
				Usage: "YAML runtime settings applied to the component benchmarks",
			},
			&cli.BoolFlag{
				Name:  quietKey,
				Usage: "Run without printing result tables",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(cmd, log)
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("benchmark failed")
	}
}

func run(cmd *cli.Command, log zerolog.Logger) error {
	if path := cmd.String(profileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	settings := &component.Settings{}
	if path := cmd.String(configKey); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		settings, err = component.LoadSettings(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	iters := int(cmd.Uint(itersKey))
	shouldRender := !cmd.Bool(quietKey)

	log.Info().Int("iters", iters).Msg("warming up")
	start := time.Now()
	benchmarkPropagate(iters, shouldRender)
	reg := prometheus.NewRegistry()
	benchmarkRender(iters, settings, reg, shouldRender)
	if shouldRender {
		renderPhases(reg)
	}
	log.Info().Dur("took", time.Since(start)).Msg("done")
	return nil
}

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})
	return tbl
}

func appendCalc(tbl table.Writer, name string, tach *tachymeter.Tachymeter) {
	calc := tach.Calc()
	tbl.AppendRow(table.Row{
		name,
		calc.Time.Avg,
		calc.Time.Min,
		calc.Time.P75,
		calc.Time.P99,
		calc.Time.Max,
	})
}

// computed builds a cached derivation the way component computed properties
// do.
func computed(rs *reactive.ReactiveSystem, fn func() int) func() int {
	w := rs.NewWatcher(func() (any, error) {
		return fn(), nil
	}, nil, reactive.WatcherOptions{Lazy: true})
	return func() int {
		if w.Dirty() {
			w.Evaluate()
		}
		if rs.Target() != nil {
			w.Depend()
		}
		return w.Value().(int)
	}
}

func benchmarkPropagate(iters int, shouldRender bool) {
	tbl := newTable("Watcher propagation")

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rs := reactive.NewReactiveSystem(reactive.WithSyncFlush(), reactive.WithLogger(diag.Nop()))
			src := reactive.NewObject(map[string]any{"v": 1})
			rs.Observe(src, true)
			for i := 0; i < w; i++ {
				last := func() int { return src.Get("v").(int) }
				for j := 0; j < h; j++ {
					prev := last
					last = computed(rs, func() int { return prev() + 1 })
				}
				rs.NewWatcher(func() (any, error) {
					return last(), nil
				}, nil, reactive.WatcherOptions{})
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Set("v", src.Peek("v").(int)+1)
				tach.AddTime(time.Since(start))
			}
			appendCalc(tbl, fmt.Sprintf("propagate: %d * %d", w, h), tach)
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

func benchmarkRender(iters int, settings *component.Settings, reg prometheus.Registerer, shouldRender bool) {
	tbl := newTable("Component re-render")

	for _, n := range rows {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})

		cfg := component.DefaultConfig()
		cfg.Logger = diag.Nop()
		cfg.ProductionTip = false
		cfg.Metrics = reg
		settings.Apply(cfg)
		web.Install(cfg)

		doc := render.NewDocument()
		doc.Body().AppendChild(render.NewElement("div").SetAttr("id", "app"))
		rt := render.NewRuntime(doc, component.WithConfig(cfg))
		rt.Components().Register("row-item", component.Options{
			component.OptProps: component.PropList{"label", "selected"},
			component.OptRender: component.RenderFunc(func(vm *component.Instance, h component.H) (*vdom.VNode, error) {
				class := ""
				if vm.Get("selected").(bool) {
					class = "selected"
				}
				return h("li", &vdom.Data{Class: class}, vm.Get("label")), nil
			}),
		})

		items := make([]any, n)
		for i := range items {
			items[i] = fmt.Sprintf("row %d", i)
		}
		vm := rt.New(component.Options{
			component.OptEl: "#app",
			component.OptData: component.DataFunc(func(*component.Instance) (map[string]any, error) {
				return map[string]any{"items": reactive.NewArray(items...), "selected": 0}, nil
			}),
			component.OptRender: component.RenderFunc(func(vm *component.Instance, h component.H) (*vdom.VNode, error) {
				selected := vm.Get("selected").(int)
				var children []any
				for i, label := range vm.Get("items").(*reactive.Array).Values() {
					children = append(children, h("row-item", &vdom.Data{
						Key:   label,
						Attrs: map[string]any{"label": label, "selected": i == selected},
					}))
				}
				return h("ul", nil, children...), nil
			}),
		})

		for i := 0; i < iters; i++ {
			start := time.Now()
			vm.Set("selected", (i+1)%n)
			rt.Tick()
			tach.AddTime(time.Since(start))
		}
		vm.Destroy()
		appendCalc(tbl, fmt.Sprintf("select row: %d rows", n), tach)
	}

	if shouldRender {
		tbl.Render()
	}
}

// renderPhases prints the phase histograms recorded when performance
// tracking is enabled.
func renderPhases(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil || len(families) == 0 {
		return
	}
	tbl := table.NewWriter()
	tbl.SetTitle("Component phases")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"phase", "count", "total"})
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			phase := ""
			for _, l := range m.GetLabel() {
				if l.GetName() == "phase" {
					phase = l.GetValue()
				}
			}
			hist := m.GetHistogram()
			tbl.AppendRow(table.Row{
				phase,
				hist.GetSampleCount(),
				time.Duration(hist.GetSampleSum() * float64(time.Second)),
			})
		}
	}
	tbl.Render()
}
