package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"luckydraw/api"
	"luckydraw/application"
	"luckydraw/config"
	"luckydraw/database"
	"luckydraw/events"
	"luckydraw/infrastructure"
	"luckydraw/infrastructure/observability"
	"luckydraw/repository"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	configureLogging(cfg)

	log.WithField("environment", cfg.Environment).Info("Starting lucky draw service...")

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	metrics := observability.NewMetricsProvider(prometheus.DefaultRegisterer)

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	engine := application.NewLuckyDrawEngine(uowFactory, application.EngineConfig{
		MaxDrawAttempts:       cfg.MaxDrawAttempts,
		DrawTimeout:           cfg.DrawTimeout,
		RedrawAllowSameWinner: cfg.RedrawAllowSameWinner,
	}, application.WithMetrics(metrics))

	broadcaster := infrastructure.NewBroadcaster()
	broadcaster.Subscribe(eventBus)

	if cfg.NATSServers != "" {
		natsClient, err := connectNATS(ctx, cfg.NATSServers)
		if err != nil {
			return err
		}
		defer natsClient.Close()

		publisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper(), metrics)
		publisher.Subscribe(eventBus)
	} else {
		log.Info("NATS_SERVERS not set, skipping NATS publishing")
	}

	if cfg.DiscordEnabled() {
		session, err := discordgo.New("Bot " + cfg.DiscordToken)
		if err != nil {
			return fmt.Errorf("failed to create Discord session: %w", err)
		}
		announcer := infrastructure.NewDiscordAnnouncer(session, cfg.DiscordChannelID, metrics)
		announcer.Subscribe(eventBus)
		log.WithField("channelID", cfg.DiscordChannelID).Info("Discord announcer enabled")
	}

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.AdminJWTSecret == "" {
		log.Warn("ADMIN_JWT_SECRET not set, admin routes are unauthenticated")
	}

	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(engine, broadcaster, api.RouterConfig{
			AdminJWTSecret: cfg.AdminJWTSecret,
			Metrics:        metrics,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Shutdown does not cancel in-flight requests; end open display streams so it can drain.
	server.RegisterOnShutdown(broadcaster.Close)

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	log.Info("Shutting down lucky draw service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown did not complete")
	}

	log.Info("Shutdown completed")
	return nil
}

func connectNATS(ctx context.Context, servers string) (*infrastructure.NATSClient, error) {
	client := infrastructure.NewNATSClient(servers)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}

	mapper := infrastructure.NewEventSubjectMapper()
	if err := client.EnsureStream(infrastructure.EventStreamName, mapper.GetAllSubjects()); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}
	return client, nil
}

func configureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Environment != "development" {
		log.SetFormatter(&log.JSONFormatter{})
	}
}
