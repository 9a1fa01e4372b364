package main

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"extranet/internal/adapters/events"
	"extranet/internal/adapters/observability"
	"extranet/internal/adapters/pms"
	redisad "extranet/internal/adapters/redis"
	"extranet/internal/app"
	"extranet/internal/domain"
	"extranet/internal/shared"
	mysqlrepo "extranet/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	today := domain.DateOf(time.Now().UTC())
	from, to := today, today.AddDate(0, 0, cfg.PMSSyncDays)

	log.Info().
		Str("base", cfg.PMSBase).
		Int("workers", cfg.PMSSyncWorkers).
		Int("mappings", len(cfg.PMSMappings)).
		Str("from", domain.FormatDate(from)).
		Str("to", domain.FormatDate(to)).
		Msg("pms sync starting")

	if len(cfg.PMSMappings) == 0 {
		log.Warn().Msg("PMS_MAPPINGS is empty; nothing to sync")
		return
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := pms.New(cfg.PMSBase, cfg.PMSKey, cfg.PMSRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PMS client")
	}
	var publisher domain.EventPublisher
	if cfg.AMQPURL != "" {
		publisher = events.New(cfg.AMQPURL)
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// PMS-sourced STD rates are partner writes: no write window, no rule re-application.
	engine := app.NewEngine(repo, repo, app.EngineConfig{MaxRangeDays: cfg.PMSSyncDays + 1})
	partner := app.NewPartnerService(engine, repo, repo, cache, publisher, client)

	// a zero-weight semaphore would block the first Acquire forever
	sem := semaphore.NewWeighted(int64(max(cfg.PMSSyncWorkers, 1)))
	var wg sync.WaitGroup

	for _, m := range cfg.PMSMappings {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(m shared.Mapping) {
			defer wg.Done()
			defer sem.Release(1)

			res, err := partner.SyncFromPMS(ctx, m.PropertyID, m.RoomTypeID, from, to)
			if err != nil {
				log.Warn().Int64("property_id", m.PropertyID).Int64("room_type_id", m.RoomTypeID).Err(err).Msg("sync failed")
				return
			}
			log.Info().Int64("property_id", m.PropertyID).Int64("room_type_id", m.RoomTypeID).
				Int("saved", len(res.Rows)).Int("skipped", len(res.Skipped)).Msg("sync ok")
		}(m)
	}

	wg.Wait()
	log.Info().Msg("pms sync completed")
}
