package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/threew1h/converter/modules/api"
	"github.com/threew1h/converter/pkg/config"
	"github.com/threew1h/converter/pkg/httpserver"
	"github.com/threew1h/converter/pkg/logger"
	"github.com/threew1h/converter/pkg/mongo"
	"github.com/threew1h/converter/pkg/redis"
	"github.com/threew1h/converter/svc/analyzer"
	"github.com/threew1h/converter/svc/auth"
	"github.com/threew1h/converter/svc/subscription"
)

const serviceName = "converter"

type appConfig struct {
	AppEnv         string        `env:"APP_ENV" envDefault:"development"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
	DedupeTTL      time.Duration `env:"WEBHOOK_DEDUPE_TTL" envDefault:"24h"`

	HTTP     httpserver.Config
	Mongo    mongo.Config
	Redis    redis.Config
	Auth     auth.Config
	Razorpay subscription.RazorpayConfig
	Catalog  subscription.CatalogConfig
	Analyzer analyzer.Config
}

func main() {
	ctx := context.Background()

	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(logger.WithEnvironment(cfg.AppEnv, serviceName))
	logger.SetAsDefault(log)

	db, err := mongo.NewWithDatabase(ctx, cfg.Mongo)
	if err != nil {
		log.Error("failed to connect to mongo", logger.Error(err))
		os.Exit(1)
	}
	defer func() { _ = db.Client().Disconnect(context.Background()) }()

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", logger.Error(err))
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	biller, err := subscription.NewRazorpayProvider(cfg.Razorpay)
	if err != nil {
		log.Error("failed to configure billing provider", logger.Error(err))
		os.Exit(1)
	}

	subSvc := subscription.NewService(
		subscription.NewCatalogFromConfig(cfg.Catalog),
		subscription.NewMongoStore(db),
		biller,
		subscription.WithLogger(log),
		subscription.WithDeduper(subscription.NewRedisDeduper(redisClient, cfg.DedupeTTL)),
	)

	textAnalyzer, err := analyzer.NewHTTPAnalyzer(cfg.Analyzer)
	if err != nil {
		log.Error("failed to configure analyzer", logger.Error(err))
		os.Exit(1)
	}

	router := api.Router(api.RouterOptions{
		Auth:           auth.NewService(cfg.Auth),
		Subscription:   subSvc,
		Analyzer:       textAnalyzer,
		Logger:         log,
		AllowedOrigins: cfg.AllowedOrigins,
		ReadinessChecks: []func(context.Context) error{
			mongo.Healthcheck(db.Client()),
			redis.Healthcheck(redisClient),
		},
	})

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			l.Info("server started", slog.String("addr", cfg.HTTP.Addr), slog.String("env", cfg.AppEnv))
		}),
		httpserver.WithStopHook(func(l *slog.Logger) {
			l.Info("server stopped")
		}),
	)

	if err := srv.Run(ctx, router); err != nil {
		log.Error("server exited with error", logger.Error(err))
		os.Exit(1)
	}
}
