package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/homereno-client/apiclient"
	"github.com/jrsteele09/homereno-client/internal/metrics"
	"github.com/jrsteele09/homereno-client/webui"
)

const shutdownTimeout = 5 * time.Second

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local web front-end",
	Long: `Run the marketplace web front-end on this machine. It shares the session
file with the other commands, so signing in on the command line signs in the
browser too. Prometheus metrics are served at /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m := metrics.New(registry)

		a, err := newApp(cmd.ErrOrStderr(), apiclient.WithMetrics(m), apiclient.WithLogger(log.Logger))
		if err != nil {
			return err
		}
		defer a.saveCookies()

		ui, err := webui.New(a.cfg, a.client, webui.WithLogger(log.Logger), webui.WithMetrics(m))
		if err != nil {
			return err
		}

		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		mux.Handle("/", ui)

		addr := servePort
		if addr == "" {
			addr = a.cfg.GetPort()
		}
		displayAppname(a.cfg.GetAppName())

		stop, cancel := waitForStopSignal(cmd.Context())
		defer cancel()

		server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		errs := make(chan error, 1)
		go func() {
			errs <- listenAndServe(server)
		}()

		select {
		case err := <-errs:
			return err
		case <-stop.Done():
		}
		return shutdown(server)
	},
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Web front-end listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("Web front-end stopped")
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "addr", "", "listen address (default: $PORT)")
	rootCmd.AddCommand(serveCmd)
}
