package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	billingmodule "github.com/fleetgrid/fleetgrid/modules/billing"
	tenantmodule "github.com/fleetgrid/fleetgrid/modules/tenant"
	"github.com/fleetgrid/fleetgrid/pkg/billing"
	"github.com/fleetgrid/fleetgrid/pkg/config"
	"github.com/fleetgrid/fleetgrid/pkg/email"
	"github.com/fleetgrid/fleetgrid/pkg/httpserver"
	"github.com/fleetgrid/fleetgrid/pkg/logger"
	"github.com/fleetgrid/fleetgrid/pkg/pg"
	"github.com/fleetgrid/fleetgrid/pkg/redis"
	"github.com/fleetgrid/fleetgrid/pkg/tenant"
)

type appConfig struct {
	Gateway     string `env:"BILLING_GATEWAY" envDefault:"paystack"` // paystack or paddle
	PlansPath   string `env:"PLANS_PATH" envDefault:"config/plans.yml"`
	TrialDays   int    `env:"TRIAL_DAYS" envDefault:"14"`
	EmailDevDir string `env:"EMAIL_DEV_DIR" envDefault:"tmp/emails"`
}

func main() {
	ctx := context.Background()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.MustNew(logCfg, os.Stderr)

	if err := run(ctx, log); err != nil {
		log.ErrorContext(ctx, "fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var appCfg appConfig
	config.MustLoad(&appCfg)

	// Storage. Without DATABASE_URL the service runs on in-memory
	// stores, which is enough for local development against the gateway
	// sandbox.
	var (
		subStore billing.SubscriptionStore
		eventLog billing.EventLog
		tenStore tenant.Store
		healthy  func(context.Context) error
	)

	var pgCfg pg.Config
	config.MustLoad(&pgCfg)
	if pgCfg.DatabaseURL != "" {
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
			return err
		}

		subStore = billing.NewPGStore(pool)
		eventLog = billing.NewPGEventLog(pool)
		tenStore = tenant.NewPGStore(pool)
		healthy = pg.Healthcheck(pool)
	} else {
		log.WarnContext(ctx, "DATABASE_URL not set, using in-memory stores")
		subStore = billing.NewMemoryStore()
		eventLog = billing.NewMemoryEventLog()
		tenStore = tenant.NewMemoryStore()
	}

	// Redis takes over event dedup when available; the Postgres log is
	// already correct, Redis just keeps the hot path off the database.
	var redisCfg redis.Config
	config.MustLoad(&redisCfg)
	if redisCfg.URL != "" {
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()
		eventLog = billing.NewRedisEventLog(client, 0)
	}

	gateway, signatureHeader, err := buildGateway(appCfg.Gateway)
	if err != nil {
		return err
	}

	mailer := buildMailer(ctx, appCfg, log)

	billingSvc, err := billing.NewService(ctx,
		billing.NewYAMLFileSource(appCfg.PlansPath),
		gateway, subStore, eventLog,
		billing.WithLogger(log),
		billing.WithTrialPeriod(time.Duration(appCfg.TrialDays)*24*time.Hour),
		billing.WithReceiptMailer(mailer),
	)
	if err != nil {
		return err
	}

	tenantSvc := tenant.NewService(tenStore, billingSvc, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if healthy != nil {
			if err := healthy(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Mount("/payment", billingmodule.Router(billingSvc, signatureHeader, log))
	r.Mount("/tenants", tenantmodule.Router(tenantSvc, log))

	var httpCfg httpserver.Config
	config.MustLoad(&httpCfg)
	return httpserver.New(httpCfg, log).Run(ctx, r)
}

func buildGateway(name string) (billing.Gateway, string, error) {
	switch name {
	case "paddle":
		var cfg billing.PaddleConfig
		config.MustLoad(&cfg)
		gw, err := billing.NewPaddleGateway(cfg)
		return gw, "Paddle-Signature", err
	default:
		var cfg billing.PaystackConfig
		config.MustLoad(&cfg)
		gw, err := billing.NewPaystackGateway(cfg)
		return gw, "x-paystack-signature", err
	}
}

func buildMailer(ctx context.Context, appCfg appConfig, log *slog.Logger) email.EmailSender {
	var cfg email.Config
	config.MustLoad(&cfg)
	if cfg.PostmarkServerToken == "" {
		log.WarnContext(ctx, "postmark not configured, writing emails to disk",
			"dir", appCfg.EmailDevDir)
		return email.NewDevSender(appCfg.EmailDevDir)
	}
	mailer, err := email.NewPostmarkSender(cfg)
	if err != nil {
		log.WarnContext(ctx, "postmark misconfigured, writing emails to disk", "error", err)
		return email.NewDevSender(appCfg.EmailDevDir)
	}
	return mailer
}
