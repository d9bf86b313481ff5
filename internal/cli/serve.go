// serve.go implements the "auditbot serve" command that runs the webhook bot.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/andrey78787878/audit/internal/catalog"
	"github.com/andrey78787878/audit/internal/config"
	"github.com/andrey78787878/audit/internal/delivery"
	"github.com/andrey78787878/audit/internal/engine"
	"github.com/andrey78787878/audit/internal/journal"
	auditlog "github.com/andrey78787878/audit/internal/log"
	"github.com/andrey78787878/audit/internal/metrics"
	"github.com/andrey78787878/audit/internal/server"
	"github.com/andrey78787878/audit/internal/session"
	"github.com/andrey78787878/audit/internal/telegram"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot behind a Telegram webhook",
	Long: `Load the question catalog, register the webhook with Telegram and
serve updates until SIGINT or SIGTERM. In-flight collector deliveries
are awaited before exit.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded", "path", cfg.Catalog.Path, "questions", cat.Len(), "categories", len(cat.Categories()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	pipe, closeJournal, err := newPipeline(cfg, m, logger)
	if err != nil {
		return err
	}
	defer closeJournal()

	opts := engine.Options{Metrics: m, Logger: logger}
	if cfg.AuditLog.Path != "" {
		audit, err := auditlog.NewAuditLog(cfg.AuditLog.Path)
		if err != nil {
			return err
		}
		opts.Audit = audit
	}
	eng := engine.New(cat, session.NewStore(), pipe, opts)

	bot, err := telegram.NewBot(cfg.Telegram.Token)
	if err != nil {
		return err
	}
	logger.Info("authorized", "bot", bot.Self.UserName)

	gin.SetMode(ginMode(cfg.Log.Level))
	srv, err := server.NewServer(cfg.Addr(), server.Options{
		Secret:   cfg.Telegram.Token,
		Updates:  telegram.NewHandler(eng, bot, m, logger),
		Health:   pipe.Health(),
		Gatherer: reg,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	if err := telegram.RegisterWebhook(bot, cfg.WebhookEndpoint(), cfg.Telegram.DropPendingUpdates); err != nil {
		_ = srv.Shutdown(context.Background())
		return err
	}
	logger.Info("webhook registered", "url", cfg.Telegram.WebhookURL, "listen", srv.Addr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	pipe.Wait()
	return err
}

// ginMode keeps gin's route dump and request warnings only at debug level.
func ginMode(level string) string {
	if level == "debug" {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

// newPipeline builds the delivery pipeline and, when configured, opens the
// journal. The returned func closes the journal.
func newPipeline(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*delivery.Pipeline, func(), error) {
	dc := delivery.Config{
		URL:       cfg.Collector.URL,
		Timeout:   cfg.Collector.Timeout,
		RateLimit: cfg.Collector.RateLimit,
		Burst:     cfg.Collector.Burst,
		Metrics:   m,
		Health:    delivery.NewHealth(cfg.Collector.HealthThreshold),
		Logger:    logger,
	}

	closeFn := func() {}
	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening journal: %w", err)
		}
		dc.Journal = j
		closeFn = func() {
			if err := j.Close(); err != nil {
				logger.Warn("close journal", "error", err)
			}
		}
	}

	return delivery.New(dc), closeFn, nil
}
