package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quentin-nozomi/windows-eventlog/config"
	"github.com/quentin-nozomi/windows-eventlog/eventlog"
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the records of a channel as they arrive",
	Long: `Subscribe to a channel and print each record until interrupted.

Examples:
  eventlog tail --channel Security --format text
  eventlog tail --channel Application --query "*[System[Level<=3]]" --from-oldest
  eventlog tail --config eventlog.yaml --metrics-addr 127.0.0.1:9464`,
	RunE: runTail,
}

func init() {
	flags := tailCmd.Flags()
	flags.String("channel", "", "channel to subscribe to (overrides subscription.channel)")
	flags.String("query", "", "XPath filter (overrides subscription.query)")
	flags.Bool("from-oldest", false, "start at the oldest record instead of new ones")
	flags.String("format", "", "json, yaml or text (overrides output.format)")
	flags.Bool("xml", false, "include the event XML")
	flags.Int("workers", 0, "render workers (overrides consumer.workers)")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")
	rootCmd.AddCommand(tailCmd)
}

func applyTailFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("channel") {
		cfg.Subscription.Channel, _ = flags.GetString("channel")
	}
	if flags.Changed("query") {
		cfg.Subscription.Query, _ = flags.GetString("query")
	}
	if flags.Changed("from-oldest") {
		cfg.Subscription.FromOldest, _ = flags.GetBool("from-oldest")
	}
	if flags.Changed("format") {
		cfg.Output.Format, _ = flags.GetString("format")
	}
	if flags.Changed("xml") {
		cfg.Output.XML, _ = flags.GetBool("xml")
	}
	if flags.Changed("workers") {
		cfg.Consumer.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr, _ = flags.GetString("metrics-addr")
	}
	return cfg.Validate()
}

func runTail(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err = applyTailFlags(cmd, cfg); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	eventlog.SetLogger(logger)

	writer, err := newRecordWriter(cfg.Output.Format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	api, err := eventlog.SystemAPI()
	if err != nil {
		return err
	}

	bookmark, err := eventlog.NewBookmark(api, cfg.Subscription.Bookmark)
	if err != nil {
		return err
	}
	defer bookmark.Close()

	subscribeOpts := eventlog.SubscribeOptions{
		Channel:    cfg.Subscription.Channel,
		Query:      cfg.Subscription.Query,
		FromOldest: cfg.Subscription.FromOldest,
	}
	if cfg.Subscription.Bookmark != "" {
		subscribeOpts.Bookmark = bookmark
	}
	source, err := eventlog.Subscribe(subscribeOpts)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := eventlog.NewMetrics(registry)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if cfg.Metrics.Addr != "" {
		server := serveMetrics(cfg.Metrics.Addr, registry, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	consumer := eventlog.NewConsumer(api, source, bookmark, cfg.ConsumerConfig(), metrics)
	logger.Info("subscribed",
		zap.String("channel", cfg.Subscription.Channel),
		zap.String("query", cfg.Subscription.Query),
		zap.Bool("from_oldest", cfg.Subscription.FromOldest))

	printed := make(chan error, 1)
	go func() {
		var writeErr error
		for record := range consumer.Records {
			if writeErr != nil {
				continue
			}
			if writeErr = writer.Write(record); writeErr != nil {
				stop()
			}
		}
		printed <- writeErr
	}()

	consumer.Start(ctx)
	// a source failure is reported through Stop
	_ = consumer.Wait()
	stopErr := consumer.Stop()
	writeErr := <-printed

	if xml, err := bookmark.XML(); err == nil {
		logger.Info("stopped", zap.Uint64("dropped", consumer.Sender.Dropped()), zap.String("bookmark", xml))
	}

	if stopErr != nil {
		return fmt.Errorf("reading %s: %w", cfg.Subscription.Channel, stopErr)
	}
	if writeErr != nil {
		return fmt.Errorf("writing records: %w", writeErr)
	}
	return nil
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *zap.Logger) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	return server
}
