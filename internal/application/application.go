package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/live-request-service/internal/config"
	"github.com/psds-microservice/live-request-service/internal/database"
	"github.com/psds-microservice/live-request-service/internal/dyte"
	"github.com/psds-microservice/live-request-service/internal/handler"
	"github.com/psds-microservice/live-request-service/internal/kafka"
	"github.com/psds-microservice/live-request-service/internal/router"
	"github.com/psds-microservice/live-request-service/internal/service"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// API приложение: HTTP-сервер live request (режим api).
type API struct {
	cfg      *config.Config
	httpSrv  *http.Server
	producer *kafka.Producer
	log      *zap.Logger
}

// NewLogger собирает zap-логгер по APP_ENV и LOG_LEVEL.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.AppEnv == "development" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	if cfg.LogLevel != "" {
		lvl, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zc.Build()
}

// NewAPI создаёт приложение для режима api.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger, err := NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	if cfg.Dyte.OrgID == "" || cfg.Dyte.APIKey == "" {
		logger.Warn("DYTE_ORG_ID or DYTE_API_KEY not set, provider calls will be rejected")
	}
	dyteClient := dyte.NewClient(dyte.Config{
		BaseURL: cfg.Dyte.BaseURL,
		OrgID:   cfg.Dyte.OrgID,
		APIKey:  cfg.Dyte.APIKey,
		Timeout: cfg.Dyte.Timeout,
	}, logger.Named("dyte"))

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicLiveRequest, logger.Named("kafka"))
	if !producer.Enabled() {
		logger.Info("kafka: KAFKA_BROKERS not set, live request events disabled")
	}

	svc := service.NewLiveRequestService(db, dyteClient, producer, service.Options{
		Region:               cfg.Dyte.Region,
		CustomerPreset:       cfg.Dyte.CustomerPreset,
		SupportPreset:        cfg.Dyte.SupportPreset,
		SupportDisplayName:   cfg.SupportDisplayName,
		SupportParticipantID: cfg.SupportParticipantID,
	}, logger.Named("service"))

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := router.New(
		handler.NewLiveRequestHandler(svc, logger.Named("http")),
		handler.NewHealthHandler(sqlDB),
		router.Options{CORSAllowedOrigins: cfg.CORSAllowedOrigins, Logger: logger.Named("http")},
	)

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Provider calls are bounded by DYTE_TIMEOUT; Start may make two of them.
		WriteTimeout: 2*cfg.Dyte.Timeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &API{
		cfg:      cfg,
		httpSrv:  httpSrv,
		producer: producer,
		log:      logger,
	}, nil
}

// Run запускает HTTP-сервер, блокируется до отмены ctx.
func (a *API) Run(ctx context.Context) error {
	defer func() { _ = a.log.Sync() }()

	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	a.log.Info("HTTP server listening", zap.String("addr", a.httpSrv.Addr))
	a.log.Info("endpoints",
		zap.String("swagger_ui", base+"/swagger"),
		zap.String("swagger_spec", base+"/swagger/openapi.json"),
		zap.String("health", base+"/health"),
		zap.String("ready", base+"/ready"),
		zap.String("live_requests", base+"/live-requests/"),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		_ = a.producer.Close()
		return fmt.Errorf("http: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := a.producer.Close(); err != nil {
		a.log.Warn("kafka: close producer", zap.Error(err))
	}
	a.log.Info("HTTP server stopped")
	return nil
}
