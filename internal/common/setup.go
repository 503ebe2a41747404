package common

import (
	"context"
	"log"
	"strings"
	"time"

	"forex-portal-go/internal/api"
	"forex-portal-go/internal/database"
	"forex-portal-go/internal/metrics"
	"forex-portal-go/internal/models"
	"forex-portal-go/internal/money"
	"forex-portal-go/internal/reports"
	"forex-portal-go/internal/session"
	"forex-portal-go/internal/support"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

type Services struct {
	Store      *database.Service
	API        *api.Client
	Sessions   *session.Manager
	Currencies *money.Table
	Reports    *reports.Service
	Support    *support.Service

	metricsServer *metrics.Server
}

// InitializeLogger builds the global zap logger. "debug" switches to the
// development encoder; other levels keep the production JSON output.
func InitializeLogger(level string) (*zap.Logger, func()) {
	var cfg zap.Config
	if strings.EqualFold(level, "debug") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		if lvl, err := zapcore.ParseLevel(level); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	logger, err := cfg.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	currencies, err := LoadCurrencyTable(cfg.API.CurrenciesFile)
	if err != nil {
		return nil, err
	}

	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(cfg.API)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	metrics.Register()
	var metricsServer *metrics.Server
	if cfg.Metrics.Addr != "" {
		metricsServer = metrics.StartServer(cfg.Metrics.Addr)
	}

	sessions := session.NewManager(dbService, client)
	client.SetInvalidator(sessions)

	zap.L().Info("Portal services initialized",
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.String("database", cfg.Database.Path))

	return &Services{
		Store:         dbService,
		API:           client,
		Sessions:      sessions,
		Currencies:    currencies,
		Reports:       reports.NewService(client, cfg.Reports.DownloadDir),
		Support:       support.NewService(client, dbService, cfg.Support.PollInterval),
		metricsServer: metricsServer,
	}, nil
}

// SessionContext attaches the logged-in session to ctx.
func (cs *Services) SessionContext(ctx context.Context) (context.Context, error) {
	return cs.Sessions.Context(ctx)
}

func (cs *Services) Close() {
	if cs.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cs.metricsServer.Stop(ctx); err != nil {
			zap.L().Warn("Failed to stop metrics server", zap.Error(err))
		}
	}
	if cs.Store != nil {
		cs.Store.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stderr: invalid argument")
}
