package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/syncsphere/server/internal/controller"
	"github.com/syncsphere/server/internal/domain"
	"github.com/syncsphere/server/internal/flow"
	"github.com/syncsphere/server/internal/generation"
	"github.com/syncsphere/server/internal/generation/openai"
	"github.com/syncsphere/server/internal/platform"
	"github.com/syncsphere/server/internal/repository/connection/inmemory"
	deviceFile "github.com/syncsphere/server/internal/repository/device/file"
	deviceRedis "github.com/syncsphere/server/internal/repository/device/redis"
	"github.com/syncsphere/server/internal/service/device"
	"github.com/syncsphere/server/internal/service/party"
	"github.com/syncsphere/server/pkg/ctxlogger"
	"github.com/syncsphere/server/pkg/redisclient"
)

const (
	DeviceStoreRedis = "redis"
	DeviceStoreFile  = "file"
)

type AppConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	LogLevel        string        `json:"log_level"`
	AllowedOrigins  []string      `json:"allowed_origins"`
	DeviceStore     string        `json:"device_store"`
	DeviceStorePath string        `json:"device_store_path"`
	DeviceStoreKey  string        `json:"device_store_key"`
	RedisHost       string        `json:"redis_host"`
	RedisPort       int           `json:"redis_port"`
	RedisPassword   string        `json:"-"`
	RedisDB         int           `json:"redis_db"`
	LLMAPIKey       string        `json:"-"`
	LLMBaseURL      string        `json:"llm_base_url"`
	LLMModel        string        `json:"llm_model"`
	LLMTimeout      int           `json:"llm_timeout_seconds"`
	LLMMaxAttempts  int           `json:"llm_max_attempts"`
	CaptionInterval time.Duration `json:"caption_interval"`
	ScanDelay       time.Duration `json:"scan_delay"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	switch cfg.DeviceStore {
	case DeviceStoreRedis:
	case DeviceStoreFile:
		if cfg.DeviceStorePath == "" {
			return fmt.Errorf("device store path is required for the file store")
		}
	default:
		return fmt.Errorf("unknown device store %q", cfg.DeviceStore)
	}
	if cfg.LLMModel == "" {
		return fmt.Errorf("llm model is required")
	}
	if cfg.LLMTimeout < 0 {
		return fmt.Errorf("llm timeout must not be negative")
	}
	if cfg.LLMMaxAttempts < 1 {
		return fmt.Errorf("llm max attempts must be greater than 0")
	}
	if cfg.CaptionInterval <= 0 {
		return fmt.Errorf("caption interval must be greater than 0")
	}
	if cfg.ScanDelay < 0 {
		return fmt.Errorf("scan delay must not be negative")
	}
	return nil
}

type deviceRepo interface {
	GetDevices(context.Context) ([]domain.Device, error)
	SetDevices(context.Context, []domain.Device) error
}

type application struct {
	handler http.Handler
	party   *party.Service
	close   func() error
}

func newDeviceRepo(ctx context.Context, cfg *AppConfig) (deviceRepo, func() error, error) {
	if cfg.DeviceStore == DeviceStoreFile {
		return deviceFile.NewRepo(cfg.DeviceStorePath), func() error { return nil }, nil
	}

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	return deviceRedis.NewRepo(rc, cfg.DeviceStoreKey), func() error {
		if err := rc.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			return err
		}
		return nil
	}, nil
}

func newApplication(ctx context.Context, cfg *AppConfig, gen generation.Generator) (*application, error) {
	repo, closeRepo, err := newDeviceRepo(ctx, cfg)
	if err != nil {
		return nil, err
	}

	volumes := flow.NewVolumeSuggestion(gen)
	subtitles := flow.NewSubtitleGeneration(gen)
	discovery := flow.NewSubtitleDiscovery(gen)

	connectionRepo := inmemory.NewRepo()
	deviceService := device.NewService(
		repo,
		volumes,
		platform.NewBluetoothScanner(cfg.ScanDelay),
		platform.NewAppSource(),
	)
	deviceService.Load(ctx)

	partyService := party.NewService(subtitles, discovery, connectionRepo, party.NewTranscript(), cfg.CaptionInterval)

	c := controller.NewController(&controller.Params{
		DeviceService:     deviceService,
		PartyService:      partyService,
		SubtitleGenerator: subtitles,
		SubtitleFinder:    discovery,
		ConnRepo:          connectionRepo,
		Installer:         platform.InstallPrompt{},
		AllowedOrigins:    cfg.AllowedOrigins,
	})

	return &application{
		handler: c.GetMux(),
		party:   partyService,
		close:   closeRepo,
	}, nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}
	logger := slog.New(h)
	slog.SetDefault(logger)

	if cfg.LLMAPIKey == "" {
		slog.WarnContext(ctx, "llm api key is not set, generation requests will fail")
	}

	gen := openai.NewClient(openai.Config{
		APIKey:         cfg.LLMAPIKey,
		BaseURL:        cfg.LLMBaseURL,
		Model:          cfg.LLMModel,
		Title:          "SyncSphere",
		TimeoutSeconds: cfg.LLMTimeout,
	}, openai.WithLogger(logger), openai.WithRetryMaxAttempts(cfg.LLMMaxAttempts))

	app, err := newApplication(ctx, cfg, gen)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.close(); err != nil {
			slog.WarnContext(ctx, "failed to close device store", "error", err)
		}
	}()

	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: app.handler}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)
	defer serverStopCtx()

	go app.party.Run(serverCtx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	slog.InfoContext(serverCtx, "starting server", "address", server.Addr, "device_store", cfg.DeviceStore)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
