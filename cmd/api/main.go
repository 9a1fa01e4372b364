package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"extranet/internal/adapters/events"
	server "extranet/internal/adapters/http_server"
	"extranet/internal/adapters/observability"
	redisad "extranet/internal/adapters/redis"
	"extranet/internal/app"
	"extranet/internal/domain"
	"extranet/internal/pricing"
	"extranet/internal/shared"
	"extranet/internal/storage/memory"
	mysqlrepo "extranet/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// store
	var (
		prices domain.PriceStore
		rules  domain.RatePlanRegistry
	)
	switch cfg.Store {
	case "memory":
		mem := memory.New()
		prices, rules = mem, mem
		log.Warn().Msg("using in-memory price store; data is lost on restart")
	default:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		repo := mysqlrepo.New(db)
		prices, rules = repo, repo
	}

	// cache: degrade to uncached reads when redis is down
	var cache domain.Cache
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := rc.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable; rate cache disabled")
	} else {
		cache = rc
	}
	cancel()

	var publisher domain.EventPublisher
	if cfg.AMQPURL != "" {
		publisher = events.New(cfg.AMQPURL)
	}

	engine := app.NewEngine(prices, rules, app.EngineConfig{
		Window:       pricing.Window{PastDays: cfg.WindowPastDays, FutureMonths: cfg.WindowFutureMonths},
		Workers:      cfg.FillWorkers,
		MaxRangeDays: cfg.MaxRangeDays,
		MaxPairs:     cfg.MaxPairs,
	})
	catalog := app.NewCatalogService(engine, cache, cfg.CacheTTL)
	partner := app.NewPartnerService(engine, prices, rules, cache, publisher, nil)

	// http
	srv := server.New(cfg.HTTPTimeout)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Catalog: catalog, Partner: partner})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
