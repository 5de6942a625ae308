package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/distbuilder/internal/logfields"
	"git.home.luguber.info/inful/distbuilder/internal/metrics"
	"git.home.luguber.info/inful/distbuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	TargetFlags `embed:""`
	OutputFlags `embed:""`
	Versions    []string      `name:"versions" sep:"," help:"Versions of the target to build (default: all declared)"`
	Debounce    time.Duration `help:"Quiet period after the last change before rebuilding" default:"300ms"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address (e.g. :9464)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	recorder := g.Recorder
	if w.MetricsAddr != "" {
		reg := metrics.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		stop := serveMetrics(g, w.MetricsAddr, reg)
		defer stop()
	}

	out := root.resolve(w.Output)
	watcher, err := watch.New(watch.Options{
		Root:      root.Project,
		OutputDir: out,
		Debounce:  w.Debounce,
		Logger:    g.Logger,
	}, func(ctx context.Context) error {
		// Configuration may have changed; every rebuild starts from scratch.
		b := root.NewBuilder(g, w.Target).WithRecorder(recorder)
		for artifact, err := range b.Build(ctx, out, w.Versions) {
			if err != nil {
				return err
			}
			g.Logger.Info("Artifact ready", logfields.Artifact(artifact))
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := watcher.Run(ctx); err != nil {
		return err
	}
	return g.Finish()
}

// serveMetrics serves reg on addr until the returned stop function is called.
func serveMetrics(g *Global, addr string, reg *prom.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		g.Logger.Info("Serving metrics", logfields.Addr(addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.Logger.Error("Metrics server failed", logfields.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			g.Logger.Warn("Metrics server shutdown error", logfields.Error(err))
		}
	}
}
