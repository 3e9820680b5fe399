package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/storefront/internal/auth"
	cartapp "github.com/dmehra2102/storefront/internal/cart/application"
	carthttp "github.com/dmehra2102/storefront/internal/cart/infrastructure/http"
	catalogapp "github.com/dmehra2102/storefront/internal/catalog/application"
	cataloghttp "github.com/dmehra2102/storefront/internal/catalog/infrastructure/http"
	catalogpg "github.com/dmehra2102/storefront/internal/catalog/infrastructure/postgres"
	customapp "github.com/dmehra2102/storefront/internal/customrequest/application"
	customhttp "github.com/dmehra2102/storefront/internal/customrequest/infrastructure/http"
	custompg "github.com/dmehra2102/storefront/internal/customrequest/infrastructure/postgres"
	inventoryapp "github.com/dmehra2102/storefront/internal/inventory/application"
	notifyapp "github.com/dmehra2102/storefront/internal/notification/application"
	notifyhttp "github.com/dmehra2102/storefront/internal/notification/infrastructure/http"
	notifypg "github.com/dmehra2102/storefront/internal/notification/infrastructure/postgres"
	orderapp "github.com/dmehra2102/storefront/internal/order/application"
	orderhttp "github.com/dmehra2102/storefront/internal/order/infrastructure/http"
	orderkafka "github.com/dmehra2102/storefront/internal/order/infrastructure/kafka"
	orderpg "github.com/dmehra2102/storefront/internal/order/infrastructure/postgres"
	paymentapp "github.com/dmehra2102/storefront/internal/payment/application"
	"github.com/dmehra2102/storefront/internal/session"
	sessionredis "github.com/dmehra2102/storefront/internal/session/redis"
	"github.com/dmehra2102/storefront/migrations"
	"github.com/dmehra2102/storefront/pkg/config"
	"github.com/dmehra2102/storefront/pkg/filestore"
	"github.com/dmehra2102/storefront/pkg/httpx"
	"github.com/dmehra2102/storefront/pkg/logging"
	"github.com/dmehra2102/storefront/pkg/migrate"
	"github.com/dmehra2102/storefront/pkg/outbox"
	"github.com/dmehra2102/storefront/pkg/shutdown"
	"github.com/dmehra2102/storefront/pkg/tracing"
)

func main() {
	log := logging.New()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	var cfg config.Storefront
	if err := config.Parse(&cfg); err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}

	tp, err := tracing.Init(ctx, "storefront", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	// Postgres
	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := migrate.Apply(ctx, log, pool, migrations.FS); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	// Redis backed sessions
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	sessions := sessionredis.NewStore(log, rdb, cfg.SessionTTL)
	locker := sessionredis.NewLocker(log, rdb, cfg.SessionLockWait)

	files, err := filestore.NewLocal(log, cfg.MediaRoot)
	if err != nil {
		log.Error("media root", "err", err)
		os.Exit(1)
	}

	catalog := catalogapp.NewService(catalogpg.NewRepository(log, pool))
	cart := cartapp.NewService(log, sessions, locker, catalog, cartapp.WithStockCheck(cfg.CartEnforceStock))
	orders := orderapp.NewService(log,
		orderpg.NewRepository(log, pool),
		cart,
		paymentapp.NewService(log, files),
		inventoryapp.NewService(log),
	)
	custom := customapp.NewService(log, custompg.NewRepository(pool), files)
	inbox := notifyapp.NewService(log, notifypg.NewRepository(pool))

	// Outbox relay
	writer := orderkafka.NewWriter(log, cfg.KafkaAddr)
	defer writer.Close()
	dispatch := outbox.NewDispatcher(log, writer, cfg.OrderEventsTopic)
	relay := outbox.NewRelay(log, outbox.NewPgStore(log, pool), dispatch, "storefront-relay-"+hostname())
	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	verifier := auth.NewVerifier(cfg.JWTSecret)
	orderHandler := orderhttp.NewHandler(log, orders)
	customHandler := customhttp.NewHandler(log, custom)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpx.AccessLog(log))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(log, sessions, cfg.SessionTTL, cfg.SecureCookies))
		r.Use(auth.Authenticate(log, verifier))

		r.Mount("/", cataloghttp.NewHandler(log, catalog).Routes())
		r.Mount("/cart", carthttp.NewHandler(log, cart).Routes())
		r.Mount("/custom-requests", customHandler.Routes())
		orderHandler.Register(r)

		r.Mount("/admin", orderHandler.AdminRoutes())
		r.Mount("/admin/custom-requests", customHandler.AdminRoutes())
		r.Mount("/admin/notifications", notifyhttp.NewHandler(log, inbox).AdminRoutes())
	})
	r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.MediaRoot))))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	shutdown.HTTPServer(ctx, log, srv, 10*time.Second)
	log.Info("storefront shutdown complete")
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "local"
	}
	return h
}
