package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmehra2102/restaurant-chatbot/internal/ordering/application"
	"github.com/dmehra2102/restaurant-chatbot/internal/ordering/domain"
	"github.com/dmehra2102/restaurant-chatbot/internal/ordering/infrastructure/catalogfile"
	orderhttp "github.com/dmehra2102/restaurant-chatbot/internal/ordering/infrastructure/http"
	"github.com/dmehra2102/restaurant-chatbot/internal/ordering/infrastructure/memory"
	orderpg "github.com/dmehra2102/restaurant-chatbot/internal/ordering/infrastructure/postgres"
	orderredis "github.com/dmehra2102/restaurant-chatbot/internal/ordering/infrastructure/redis"
	payment "github.com/dmehra2102/restaurant-chatbot/internal/payment/application"
	paymenthttp "github.com/dmehra2102/restaurant-chatbot/internal/payment/infrastructure/http"
	paymentmem "github.com/dmehra2102/restaurant-chatbot/internal/payment/infrastructure/memory"
	paymentpg "github.com/dmehra2102/restaurant-chatbot/internal/payment/infrastructure/postgres"
	"github.com/dmehra2102/restaurant-chatbot/internal/payment/infrastructure/paystack"
	platformkafka "github.com/dmehra2102/restaurant-chatbot/internal/platform/kafka"
	platformpg "github.com/dmehra2102/restaurant-chatbot/internal/platform/postgres"
	"github.com/dmehra2102/restaurant-chatbot/pkg/idempotency"
	"github.com/dmehra2102/restaurant-chatbot/pkg/logging"
	"github.com/dmehra2102/restaurant-chatbot/pkg/metrics"
	"github.com/dmehra2102/restaurant-chatbot/pkg/outbox"
	"github.com/dmehra2102/restaurant-chatbot/pkg/sessionid"
	"github.com/dmehra2102/restaurant-chatbot/pkg/shutdown"
	"github.com/dmehra2102/restaurant-chatbot/pkg/tracing"
)

const serviceName = "chat-service"

type config struct {
	httpAddr       string
	logLevel       string
	redisAddr      string
	pgURL          string
	kafkaAddr      string
	outboxTopic    string
	otlpEndpoint   string
	paystackSecret string
	paystackURL    string
	publicURL      string
	catalogFile    string
	currency       string
	sessionTTL     time.Duration
	requestTimeout time.Duration
}

func loadConfig() config {
	return config{
		httpAddr:       env("HTTP_ADDR", ":3000"),
		logLevel:       env("LOG_LEVEL", "info"),
		redisAddr:      env("REDIS_ADDR", ""),
		pgURL:          env("PG_URL", ""),
		kafkaAddr:      env("KAFKA_ADDR", ""),
		outboxTopic:    env("OUTBOX_TOPIC", "chat.events"),
		otlpEndpoint:   env("OTLP_ENDPOINT", ""),
		paystackSecret: env("PAYSTACK_SECRET_KEY", ""),
		paystackURL:    env("PAYSTACK_BASE_URL", paystack.DefaultBaseURL),
		publicURL:      env("PUBLIC_URL", ""),
		catalogFile:    env("CATALOG_FILE", ""),
		currency:       env("CURRENCY_SYMBOL", application.DefaultCurrency),
		sessionTTL:     envDuration("SESSION_TTL", application.DefaultSessionTTL),
		requestTimeout: envDuration("REQUEST_TIMEOUT", 20*time.Second),
	}
}

func main() {
	cfg := loadConfig()
	log := logging.New(cfg.logLevel)

	ctx, cancel := shutdown.WithSignals(context.Background(), log)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("chat-service stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("chat-service shutdown complete")
}

func run(ctx context.Context, cfg config, log *slog.Logger) error {
	tp, err := tracing.Init(ctx, serviceName, cfg.otlpEndpoint, log)
	if err != nil {
		return err
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	catalog := domain.DefaultCatalog()
	if cfg.catalogFile != "" {
		if catalog, err = catalogfile.Load(cfg.catalogFile); err != nil {
			return err
		}
		log.Info("catalog loaded", "file", cfg.catalogFile, "items", catalog.Len())
	}

	g, ctx := errgroup.WithContext(ctx)

	// Session store
	var sessions application.SessionStore
	var rdb redis.UniversalClient
	if cfg.redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.redisAddr})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		sessions = orderredis.NewSessionStore(log, rdb)
	} else {
		mem := memory.NewSessionStore()
		g.Go(func() error { return mem.RunSweeper(ctx, time.Minute) })
		sessions = mem
		log.Warn("REDIS_ADDR not set, sessions are kept in memory")
	}

	// Postgres ledger, outbox and relay
	var (
		ledger payment.PaymentRepository
		opts   []application.Option
	)
	if cfg.pgURL != "" {
		pool, err := platformpg.Connect(ctx, cfg.pgURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := platformpg.Migrate(ctx, pool); err != nil {
			return err
		}
		ledger = paymentpg.NewRepository(log, pool)
		opts = append(opts, application.WithEventRecorder(orderpg.NewEventRecorder(log, pool)))

		if brokers := platformkafka.ParseBrokers(cfg.kafkaAddr); len(brokers) > 0 {
			writer := platformkafka.NewWriter(brokers)
			defer func() { _ = writer.Close() }()
			dispatch := outbox.NewDispatcher(log, writer, cfg.outboxTopic)
			relay := outbox.NewRelay(log, platformpg.NewOutboxStore(log, pool), dispatch, serviceName+"-relay")
			g.Go(func() error { return relay.Run(ctx) })
		} else {
			log.Warn("KAFKA_ADDR not set, outbox events stay in postgres")
		}
	} else {
		ledger = paymentmem.NewRepository(log)
		log.Warn("PG_URL not set, payment ledger is kept in memory")
	}

	// Services
	formatter := application.NewFormatter(cfg.currency, time.Local)
	machine := application.NewMachine(catalog, formatter)
	opts = append(opts, application.WithSessionTTL(cfg.sessionTTL))
	if rdb != nil {
		opts = append(opts, application.WithSessionLocker(orderredis.NewSessionLocker(log, rdb, cfg.requestTimeout+5*time.Second, cfg.requestTimeout)))
	}
	chat := application.NewService(log, machine, sessions, opts...)

	if cfg.paystackSecret == "" {
		log.Warn("PAYSTACK_SECRET_KEY not set, gateway calls will be rejected")
	}
	gateway := paystack.NewClient(cfg.paystackURL, cfg.paystackSecret)
	var payOpts []payment.Option
	if rdb != nil {
		payOpts = append(payOpts, payment.WithDeduper(idempotency.NewStore(rdb, 7*24*time.Hour)))
	}
	payments := payment.NewService(log, ledger, gateway, chat, payOpts...)

	// HTTP
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewServerMetrics(reg, "chat")

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.Middleware(log), middleware.Recoverer, m.Middleware)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler(reg))
	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.requestTimeout), sessionid.Middleware(cfg.sessionTTL, false))
		api.Mount("/payment", paymenthttp.NewHandler(log, payments, cfg.publicURL).Routes())
		api.Mount("/", orderhttp.NewHandler(log, chat, m).Routes())
	})

	srv := &http.Server{
		Addr:         cfg.httpAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.requestTimeout + 5*time.Second,
	}

	g.Go(func() error {
		log.Info("http listening", "addr", cfg.httpAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
