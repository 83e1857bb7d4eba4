package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/volsource/internal/config"
	"github.com/alexisbeaulieu97/volsource/internal/infrastructure/watch"
	"github.com/alexisbeaulieu97/volsource/internal/logger"
	"github.com/alexisbeaulieu97/volsource/internal/ports"
	"github.com/alexisbeaulieu97/volsource/internal/source"
)

type watchOptions struct {
	Input       inputFlags
	MetricsAddr string
	Debounce    time.Duration
}

var watchCmdRunner = runWatch

func newWatchCmd(root *rootFlags) *cobra.Command {
	opts := watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep a folder loaded, reloading whenever matching files change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateInputFlags(opts.Input); err != nil {
				return err
			}
			return watchCmdRunner(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input.Folder, "folder", "d", "", "Folder to watch")
	cmd.Flags().StringVar(&opts.Input.Filter, "filter", "", "File pattern, e.g. \"*.raw\"")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. \":9090\"")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 500*time.Millisecond, "Quiet period before a change triggers a reload")

	return cmd
}

func runWatch(cmd *cobra.Command, root *rootFlags, opts watchOptions) error {
	app, err := newAppContext(cmd.Context(), root, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.Config
	applyInputFlags(cfg, opts.Input)
	if cfg.Input.Mode != "folder" {
		return fmt.Errorf("watch requires --folder or input.mode folder in the config")
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}
	policy, err := source.ParseFailurePolicy(cfg.Load.FailurePolicy)
	if err != nil {
		return err
	}

	src, err := source.New(source.Options{
		Registry:     app.Registry,
		Pool:         app.Pool,
		Logger:       app.Log,
		Events:       app.Events,
		Metrics:      app.Metrics,
		Context:      app.Ctx,
		Policy:       policy,
		MirrorRanges: cfg.Load.MirrorRanges,
	})
	if err != nil {
		return err
	}
	defer src.Close()

	subs, err := printLoadEvents(app.Events, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()

	if err := src.Configure(source.Folder{Dir: cfg.Input.Folder, Filter: cfg.Input.Filter}); err != nil {
		return err
	}

	if opts.MetricsAddr != "" {
		stop := serveMetrics(app, opts.MetricsAddr)
		defer stop()
	}

	watcher, err := watch.New(cfg.Input.Folder, reloadOnChange(src, app.Log),
		watch.WithLogger(app.EventLog),
		watch.WithDebounce(opts.Debounce),
		watch.WithMatch(func(name string) bool { return src.ActiveFilter().Matches(name) }),
	)
	if err != nil {
		return err
	}

	return watcher.Run(app.Ctx)
}

// reloadOnChange returns the watcher callback. It re-checks the decoder
// filters first; a substituted filter already reloads the folder.
func reloadOnChange(src *source.Source, log *logger.Logger) func(context.Context, []string) {
	return func(_ context.Context, names []string) {
		log.WithField("files", names).Info("folder changed, reloading")
		if _, substituted := src.RefreshFilters(); substituted {
			return
		}
		if in := src.Input(); in != nil {
			if err := src.Configure(in); err != nil {
				log.WarnErr(err, "reload skipped")
			}
		}
	}
}

// printLoadEvents writes one line per finished load to w.
func printLoadEvents(pub ports.EventPublisher, w io.Writer) ([]ports.Subscription, error) {
	var mu sync.Mutex
	write := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format, args...)
	}

	completed, err := pub.Subscribe(ports.EventLoadCompleted, func(_ context.Context, evt ports.DomainEvent) error {
		p, _ := evt.Payload().(map[string]interface{})
		write("%s: %v sequence(s), %v skipped, %vms\n", p["status"], p["sequences"], p["skipped"], p["duration_ms"])
		return nil
	})
	if err != nil {
		return nil, err
	}
	failed, err := pub.Subscribe(ports.EventLoadFailed, func(_ context.Context, evt ports.DomainEvent) error {
		p, _ := evt.Payload().(map[string]interface{})
		write("failed: %v\n", p["error"])
		return nil
	})
	if err != nil {
		completed.Unsubscribe()
		return nil, err
	}
	return []ports.Subscription{completed, failed}, nil
}

// serveMetrics exposes the Prometheus registry until the returned func is called.
func serveMetrics(app *AppContext, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.Metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		app.Log.WithField("addr", addr).Info("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Log.Error(err, "metrics server stopped")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
