// Command server runs the succession distribution compliance engine: the
// estate orchestrator and its gift, debt, bequest and tax modules behind one
// HTTP surface.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	bequestcache "urithi/internal/bequest/cache"
	bequeststore "urithi/internal/bequest/store"
	debtmetrics "urithi/internal/debt/metrics"
	debtmodels "urithi/internal/debt/models"
	debtservice "urithi/internal/debt/service"
	debtstore "urithi/internal/debt/store"
	estatehandler "urithi/internal/estate/handler"
	estatemetrics "urithi/internal/estate/metrics"
	estateservice "urithi/internal/estate/service"
	estatestore "urithi/internal/estate/store"
	giftmetrics "urithi/internal/gift/metrics"
	giftservice "urithi/internal/gift/service"
	giftstore "urithi/internal/gift/store"
	httpapi "urithi/internal/http"
	"urithi/internal/platform/config"
	"urithi/internal/platform/httpserver"
	"urithi/internal/platform/logger"
	platformmetrics "urithi/internal/platform/metrics"
	platformredis "urithi/internal/platform/redis"
	taxmetrics "urithi/internal/tax/metrics"
	taxservice "urithi/internal/tax/service"
	taxstore "urithi/internal/tax/store"
	"urithi/pkg/money"
	"urithi/pkg/platform/events"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Event publisher: kafka when brokers are configured, memory otherwise.
	var publisher events.Publisher = events.NewMemoryPublisher()
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic,
			events.WithKafkaLogger(log))
		if err != nil {
			log.Error("kafka publisher init failed", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		publisher = kafka
	}

	// Estate store: postgres when a DSN is configured, memory otherwise.
	var estates estateservice.EstateStore = estatestore.NewInMemory()
	if cfg.Postgres.DSN != "" {
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Error("postgres pool init failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := estatestore.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("postgres schema init failed", "error", err)
			os.Exit(1)
		}
		estates = pg
	}

	threshold, err := money.NewFromFloat(cfg.Engine.ExemptionThreshold, cfg.Engine.Currency)
	if err != nil {
		log.Error("invalid exemption threshold", "error", err)
		os.Exit(1)
	}

	giftSvc := giftservice.New(giftstore.NewInMemory(),
		giftservice.WithLogger(log),
		giftservice.WithPublisher(publisher),
		giftservice.WithMetrics(giftmetrics.New()),
	)

	debtOpts := []debtservice.Option{
		debtservice.WithLogger(log),
		debtservice.WithPublisher(publisher),
		debtservice.WithMetrics(debtmetrics.New()),
	}
	if cfg.Engine.RejectOverpayments {
		debtOpts = append(debtOpts, debtservice.WithOverpaymentPolicy(debtmodels.OverpaymentReject))
	}
	debtSvc := debtservice.New(debtstore.NewInMemory(), debtOpts...)

	taxSvc := taxservice.New(taxstore.NewInMemory(), threshold,
		taxservice.WithLogger(log),
		taxservice.WithPublisher(publisher),
		taxservice.WithMetrics(taxmetrics.New()),
	)

	bequests := bequeststore.NewInMemory()

	estateOpts := []estateservice.Option{
		estateservice.WithLogger(log),
		estateservice.WithPublisher(publisher),
		estateservice.WithMetrics(estatemetrics.New()),
	}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		cache := bequestcache.NewReportCache(redisClient.Client, bequestcache.WithTTL(cfg.Redis.ReportTTL))
		estateOpts = append(estateOpts, estateservice.WithReportCache(cache))
	}
	estateSvc := estateservice.New(estates, giftSvc, debtSvc, taxSvc, bequests, estateOpts...)

	router := httpapi.NewRouter(
		estatehandler.New(estateSvc, taxSvc, log),
		platformmetrics.NewHTTP(),
	)
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting urithi", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
