package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"IPOPulse/internal/domain/models"
	domrepo "IPOPulse/internal/domain/repository"
	"IPOPulse/internal/handler/api"
	"IPOPulse/internal/repository"
	"IPOPulse/internal/service/activity"
	"IPOPulse/internal/service/quota"
	"IPOPulse/internal/service/ratelimit"
	"IPOPulse/internal/service/sources"
	"IPOPulse/internal/usecase"
	"IPOPulse/pkg/cache"
	"IPOPulse/pkg/clickhouse"
	"IPOPulse/pkg/config"
	xhttp "IPOPulse/pkg/http"
	"IPOPulse/pkg/kafka"
	"IPOPulse/pkg/logger"
	"IPOPulse/pkg/metrics"
)

// scheduledFetcher is the extra capability of the rate-limited source:
// window-driven fetches by lifecycle status, outside regular passes.
type scheduledFetcher interface {
	FetchByType(ctx context.Context, t quota.FetchType) models.SourceResult
}

// App owns the wired component graph and the background loops.
type App struct {
	cfg *config.Config
	log *logger.Logger

	gate       *quota.Gate
	aggregator *usecase.Aggregator
	recorder   *activity.Recorder

	store     domrepo.ListingStore  // nil unless postgres is enabled
	publisher domrepo.PassPublisher // nil unless kafka is enabled
	sink      domrepo.ActivitySink

	scheduled scheduledFetcher // nil when no source is rate-limited

	passCache cache.Service
	redis     *cache.RedisCache // nil unless redis is enabled
	server    *xhttp.Server
	cron      *cron.Cron
}

// New builds every component from config. Optional backends (redis,
// clickhouse, postgres, kafka) are only dialed when enabled; the app
// degrades to in-memory equivalents otherwise.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	rec := metrics.New()

	loc, err := time.LoadLocation(cfg.Quota.Timezone)
	if err != nil {
		return nil, fmt.Errorf("quota timezone: %w", err)
	}
	windows := make([]quota.Window, 0, len(cfg.Quota.Windows))
	for _, w := range cfg.Quota.Windows {
		windows = append(windows, quota.Window{
			Type:   quota.FetchType(w.FetchType),
			Start:  w.Start,
			Length: w.Length,
		})
	}
	gate := quota.NewGate(cfg.Quota.DailyLimit, loc, windows)

	app := &App{cfg: cfg, log: log, gate: gate}

	if cfg.ClickHouse.Enabled {
		ch, err := clickhouse.NewClient(
			clickhouse.WithHost(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
			clickhouse.WithDatabase(cfg.ClickHouse.Database),
			clickhouse.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			clickhouse.WithDialTimeout(cfg.ClickHouse.DialTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		sink, err := repository.NewClickHouseActivityLog(ctx, ch)
		if err != nil {
			return nil, fmt.Errorf("activity log schema: %w", err)
		}
		app.sink = sink
	} else {
		app.sink = activity.NewMemorySink(0)
	}

	app.recorder = activity.NewRecorder(app.sink, rec, log)

	adapters, err := sources.BuildAll(cfg.Sources, sources.Deps{
		Recorder: app.recorder,
		Limiter:  ratelimit.New(),
		Gate:     gate,
		Metrics:  rec,
		Log:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("build sources: %w", err)
	}

	limited := ""
	for _, sc := range cfg.Sources {
		if sc.RateLimited {
			limited = sc.Name
		}
	}

	app.aggregator = usecase.NewAggregator(adapters, gate, limited, log,
		usecase.WithConcurrency(cfg.Aggregator.Concurrency),
		usecase.WithMetrics(rec),
	)

	if limited != "" {
		if ad, ok := app.aggregator.Adapter(limited); ok {
			if sf, ok := ad.(scheduledFetcher); ok {
				app.scheduled = sf
			}
		}
	}

	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		app.redis = rc
		app.passCache = cache.NewLayeredCache(rc)
	} else {
		app.passCache = cache.NewMemoryCache()
	}

	if cfg.Postgres.Enabled {
		store, err := repository.NewPostgresListingStore(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		app.store = store
	}

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(kafka.WithBrokers(cfg.Kafka.Brokers))
		if err != nil {
			return nil, fmt.Errorf("kafka: %w", err)
		}
		app.publisher = repository.NewKafkaPassPublisher(producer, cfg.Kafka.Topic)
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	handler := api.NewListingsHandler(log, app.aggregator, app.recorder, app.passCache, cfg.Aggregator.CacheTTL)
	app.server = xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	)

	return app, nil
}

// Logger exposes the app logger for the CLI layer.
func (a *App) Logger() *logger.Logger { return a.log }

// Aggregator exposes the aggregation pipeline for one-shot CLI runs.
func (a *App) Aggregator() *usecase.Aggregator { return a.aggregator }

// RunPass executes one aggregation pass and fans the outcome into the
// configured backends. Persistence and publish failures are logged,
// never fatal: one bad backend must not cost the pass.
func (a *App) RunPass(ctx context.Context, op models.Operation, srcs []string) *models.AggregateResult {
	res := a.aggregator.Run(ctx, op, srcs)
	a.persist(ctx, res)
	return res
}

func (a *App) persist(ctx context.Context, res *models.AggregateResult) {
	if a.store != nil && len(res.Data) > 0 {
		recs := make([]models.Offering, 0, len(res.Data))
		for _, d := range res.Data {
			recs = append(recs, d.Offering)
		}
		if _, err := a.store.BulkUpsert(ctx, recs); err != nil {
			a.log.Error("listing store upsert failed",
				logger.String("pass_id", res.PassID),
				logger.Error(err),
			)
		}
	}
	if a.publisher != nil {
		if err := a.publisher.PublishPass(ctx, res); err != nil {
			a.log.Error("pass publish failed",
				logger.String("pass_id", res.PassID),
				logger.Error(err),
			)
		}
	}
}

// Run starts the HTTP server and the background loops, then blocks
// until the context is canceled or a termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	if err := a.server.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	a.log.Info("http server started",
		logger.Int("port", a.cfg.Server.Port),
		logger.String("environment", a.cfg.Environment),
	)

	loopCtx, cancelLoops := context.WithCancel(ctx)
	defer cancelLoops()

	if a.cfg.Aggregator.Schedule != "" {
		a.cron = cron.New()
		_, err := a.cron.AddFunc(a.cfg.Aggregator.Schedule, func() {
			a.scheduledPass(loopCtx)
		})
		if err != nil {
			return fmt.Errorf("aggregator schedule: %w", err)
		}
		a.cron.Start()
		a.log.Info("scheduled passes enabled", logger.String("schedule", a.cfg.Aggregator.Schedule))
	}

	if a.scheduled != nil {
		go a.windowLoop(loopCtx)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		a.log.Info("shutting down", logger.String("signal", s.String()))
	case <-ctx.Done():
		a.log.Info("shutting down", logger.Error(ctx.Err()))
	}

	cancelLoops()
	return a.shutdown()
}

// scheduledPass runs all three operations back to back. Each operation
// is its own pass with its own pass id and source fan-out.
func (a *App) scheduledPass(ctx context.Context) {
	for _, op := range []models.Operation{models.OpOfferings, models.OpDemand, models.OpSentiment} {
		res := a.RunPass(ctx, op, nil)
		a.log.Info("scheduled pass finished",
			logger.String("pass_id", res.PassID),
			logger.String("operation", string(op)),
			logger.Int("records", len(res.Data)),
			logger.Int("successful_sources", res.SuccessfulSources),
		)
	}
}

// windowLoop polls the quota gate once a minute and runs the window
// fetch when a scheduled slot opens. The gate itself guarantees each
// fetch type fires at most once per day, so wakeups inside an already
// claimed window are no-ops.
func (a *App) windowLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		ft, ok := a.gate.ScheduledFetchType()
		if !ok {
			continue
		}

		res := a.scheduled.FetchByType(ctx, ft)
		a.log.Info("window fetch finished",
			logger.String("fetch_type", string(ft)),
			logger.Bool("success", res.Success),
			logger.Int("records", len(res.Data)),
		)
		if a.store != nil && res.Success && len(res.Data) > 0 {
			if _, err := a.store.BulkUpsert(ctx, res.Data); err != nil {
				a.log.Error("window fetch upsert failed", logger.Error(err))
			}
		}
	}
}

func (a *App) shutdown() error {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(ctx); err != nil {
		a.log.Error("server shutdown failed", logger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Error("kafka close failed", logger.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Error("postgres close failed", logger.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error("redis close failed", logger.Error(err))
		}
	}
	if err := a.sink.Close(); err != nil {
		a.log.Error("activity sink close failed", logger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
