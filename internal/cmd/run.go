package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zhima-Mochi/minishop-storebot/internal/application/notify"
	"github.com/Zhima-Mochi/minishop-storebot/internal/config"
	"github.com/Zhima-Mochi/minishop-storebot/internal/infrastructure/amqp"
	infraobs "github.com/Zhima-Mochi/minishop-storebot/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-storebot/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-storebot/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-storebot/internal/infrastructure/telegram"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
	"github.com/Zhima-Mochi/minishop-storebot/internal/pkg/logging"
	botpresentation "github.com/Zhima-Mochi/minishop-storebot/internal/presentation/bot"
	httppresentation "github.com/Zhima-Mochi/minishop-storebot/internal/presentation/http"
)

const shutdownTimeout = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot and the operational HTTP server",
	Long: `Start the service:
- long-polls Telegram and handles every update on its own goroutine
- serves /health, /metrics and a read-only catalog API
- forwards order events to RabbitMQ when rabbitmq.url is set`,
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runService(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(true); err != nil {
		return err
	}

	baseLogger, err := logging.NewLogger(logging.Options{
		Service: cfg.Service.Name,
		Env:     cfg.Service.Env,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.Log.File,
	})
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)
	systemLogger := zaplogger.New(logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	tel := infraobs.Setup(infraobs.Options{
		Service:    cfg.Service.Name,
		Env:        cfg.Service.Env,
		Logger:     zaplogger.New(baseLogger),
		Registerer: reg,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// In-memory event bus decoupling notifications and forwarding from mutations
	bus := outbox.NewBus(systemLogger)
	bus.Start(context.Background())

	c, err := newCore(ctx, cfg, bus, tel)
	if err != nil {
		return err
	}
	systemLogger.Info("catalog_seeded",
		observability.F("categories", c.seeded.Categories),
		observability.F("products", c.seeded.Products),
	)
	if len(c.policy.Admins()) == 0 {
		systemLogger.Warn("no_admins_configured")
	}

	api, err := telegram.Dial(cfg.Telegram.BotToken, cfg.Telegram.Debug)
	if err != nil {
		return err
	}
	client := telegram.NewClient(api)
	deliver := notify.NewDeliverUseCase(client, cfg.Notify.MaxAttempts, cfg.Notify.RetryDelay, tel)
	messages := botpresentation.Messages{Shop: cfg.Shop.Name, Contact: cfg.Shop.Contact}

	notify.NewWorker(bus, deliver, botpresentation.NewComposer(messages), c.policy, tel).Start()

	var forwarder *amqp.Forwarder
	if cfg.RabbitMQ.URL != "" {
		forwarder, err = amqp.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, tel)
		if err != nil {
			return err
		}
		forwarder.Start(bus)
	}

	bot := botpresentation.New(botpresentation.Deps{
		Catalog:  c.catalog,
		Carts:    c.carts,
		Orders:   c.orders,
		Sessions: c.sessions,
		Policy:   c.policy,
		Payments: c.payments,
		Replier:  client,
		Deliver:  deliver,
		Messages: messages,
	}, tel)

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httppresentation.NewHandler(c.catalog, reg, tel).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		systemLogger.Info("http_server_start", observability.F("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error", observability.Err(err))
			stop()
		}
	}()

	updates := make(chan botpresentation.Update)
	go telegram.NewPoller(api, cfg.Telegram.PollTimeout, systemLogger).Run(ctx, updates)

	// blocks until shutdown is requested and in-flight updates are handled
	bot.Serve(ctx, updates)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error", observability.Err(err))
	} else {
		systemLogger.Info("http_server_stopped")
	}
	bus.Stop(shutdownCtx)
	if forwarder != nil {
		if err := forwarder.Close(); err != nil {
			systemLogger.Warn("amqp_forwarder_close_error", observability.Err(err))
		}
	}
	return nil
}
