package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/skosovsky/mcptoolkit"
	"github.com/skosovsky/mcptoolkit/bridge"
	"github.com/skosovsky/mcptoolkit/ext/toolkitotel"
	"github.com/skosovsky/mcptoolkit/internal/config"
	"github.com/skosovsky/mcptoolkit/toolkits/notes"
	"github.com/skosovsky/mcptoolkit/toolkits/sample"
	"github.com/skosovsky/mcptoolkit/tracking"
)

// app is the wired toolkit behind every command.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	loop       *mcptoolkit.Loop
	reg        *mcptoolkit.Registry
	dispatcher *mcptoolkit.Dispatcher
	report     bridge.Report
	tracker    *tracking.Tracker
	metrics    *sdkmetric.ManualReader
	closers    []func(context.Context) error
}

// newApp loads configuration (flags override file and environment) and wires the registry:
// notes handlers on the configured store, then the sample MCP tools through the bridge.
func newApp(cmd *cobra.Command) (*app, error) {
	v := config.New()
	flags := map[string]string{
		"log.level": "log-level",
		"notes.dsn": "notes-dsn",
		"tracking":  "tracking",
		"telemetry": "telemetry",
	}
	for key, flag := range flags {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}
	if cmd.Flags().Changed("notes-dsn") {
		v.Set("notes.backend", config.NotesSQLite)
	}
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, path)
	if err != nil {
		return nil, exitError(2, "%v", err)
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, exitError(2, "%v", err)
	}

	a := &app{cfg: cfg, logger: logger, loop: mcptoolkit.NewLoop(16)}
	a.reg = mcptoolkit.NewRegistry(
		mcptoolkit.WithSchedulerHost(a.loop),
		mcptoolkit.WithWorkerShim(cfg.Dispatcher.WorkerShim),
	)

	store, err := a.openNotes(cmd.Context())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return store.Close() })
	notes.Register(a.reg, store)
	a.report = bridge.AdaptAndRegister(a.reg, sample.Tools(), bridge.WithLogger(logger))

	a.dispatcher = mcptoolkit.NewDispatcher(a.reg,
		mcptoolkit.WithDefaultTimeout(cfg.Dispatcher.DefaultTimeout),
		mcptoolkit.WithRecoverPanics(cfg.Dispatcher.RecoverPanics),
		mcptoolkit.WithLogger(logger),
	)
	a.closers = append(a.closers, a.dispatcher.Shutdown)

	mws := []mcptoolkit.Middleware{mcptoolkit.WithLogging(logger)}
	if cfg.Tracking {
		a.tracker = tracking.NewTracker()
		mws = append(mws, tracking.Middleware(a.tracker))
	}
	if cfg.Telemetry {
		mw, err := a.telemetry()
		if err != nil {
			_ = a.close(cmd.Context())
			return nil, err
		}
		mws = append(mws, mw)
	}
	a.dispatcher.Use(mws...)
	return a, nil
}

func (a *app) openNotes(ctx context.Context) (notes.Store, error) {
	if a.cfg.Notes.Backend == config.NotesSQLite {
		s, err := notes.OpenSQLite(ctx, a.cfg.Notes.DSN)
		if err != nil {
			return nil, exitError(1, "%v", err)
		}
		return s, nil
	}
	return notes.NewMemoryStore(), nil
}

// telemetry wires an in-process meter and tracer. Call counts are read back by reportMetrics.
func (a *app) telemetry() (mcptoolkit.Middleware, error) {
	a.metrics = sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(a.metrics))
	tp := sdktrace.NewTracerProvider()
	a.closers = append(a.closers, mp.Shutdown, tp.Shutdown)
	obs, err := toolkitotel.NewObserver(mp.Meter("mcptoolkit"), tp.Tracer("mcptoolkit"))
	if err != nil {
		return nil, err
	}
	return obs.Middleware(), nil
}

// reportMetrics writes the per-tool call counters collected so far.
func (a *app) reportMetrics(ctx context.Context, w io.Writer) error {
	if a.metrics == nil {
		return nil
	}
	var rm metricdata.ResourceMetrics
	if err := a.metrics.Collect(ctx, &rm); err != nil {
		return err
	}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				tool, _ := dp.Attributes.Value("tool.id")
				success, _ := dp.Attributes.Value("success")
				fmt.Fprintf(w, "%s\t%s\tsuccess=%v\t%d\n", m.Name, tool.AsString(), success.AsBool(), dp.Value)
			}
		}
	}
	return nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.loop.Close()
	return errors.Join(errs...)
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := log.Options{
		Level:           lvl,
		Prefix:          "mcptoolkit",
		ReportTimestamp: true,
	}
	switch strings.ToLower(format) {
	case "json":
		opts.Formatter = log.JSONFormatter
	case "logfmt":
		opts.Formatter = log.LogfmtFormatter
	default:
		opts.Formatter = log.TextFormatter
	}
	return slog.New(log.NewWithOptions(w, opts)), nil
}
