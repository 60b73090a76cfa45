package di

import (
	"context"
	"fmt"
	"time"

	"FinRank/internal/chunker"
	"FinRank/internal/domain/models"
	domrepo "FinRank/internal/domain/repository"
	"FinRank/internal/gapfill"
	"FinRank/internal/indicator"
	internalrepo "FinRank/internal/repository"
	"FinRank/internal/scoring"
	"FinRank/internal/usecase"
	"FinRank/pkg/cache"
	pkgch "FinRank/pkg/clickhouse"
	"FinRank/pkg/config"
	applogger "FinRank/pkg/logger"
	"FinRank/pkg/metrics"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder. When metrics
// are disabled the pipeline runs without a recorder.
func ProvideMetrics(cfg *config.Config) domrepo.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and initializes
// the score and indicator tables.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".scores (instrument_id String, date DateTime, trend Float64, capital Float64, technical Float64, risk Float64, composite Float64, level String, environment String, computed_at DateTime) ENGINE=MergeTree ORDER BY (instrument_id, date)",
		"CREATE TABLE IF NOT EXISTS " + db + ".indicators (instrument_id String, date DateTime, field String, value Float64) ENGINE=MergeTree ORDER BY (instrument_id, date, field)",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideSink selects the persistence adapter from config. Type "none"
// returns a nil sink and the pipeline keeps results in memory.
func ProvideSink(cfg *config.Config, log *applogger.Logger) (domrepo.ScoreSink, func(), error) {
	switch cfg.Sink.Type {
	case "clickhouse":
		client, err := ProvideClickHouseClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		sink := internalrepo.NewClickHouseSink(client)
		sink.SetLogger(log)
		cleanup := func() { _ = client.Close() }
		return sink, cleanup, nil
	case "kafka":
		sink := internalrepo.NewKafkaSink(
			cfg.Kafka.Brokers,
			cfg.Kafka.Topic,
			cfg.Kafka.RequiredAcks,
			cfg.Kafka.BatchTimeout,
		)
		cleanup := func() { _ = sink.Close() }
		return sink, cleanup, nil
	case "parquet":
		return internalrepo.NewParquetSink(), func() {}, nil
	default:
		return nil, func() {}, nil
	}
}

// ProvideCache builds the result cache: memory-only by default, layered
// with Redis when configured.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	if cfg.Cache.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(
			cfg.Cache.Redis.Addr,
			cfg.Cache.Redis.Password,
			cfg.Cache.Redis.DB,
			"finrank",
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return cache.NewLayeredCache(redisCache, cfg.Cache.MaxSize), nil
	}
	return cache.NewMemoryCache(cfg.Cache.MaxSize), nil
}

// ProvideIndicatorEngine creates the indicator engine from config.
func ProvideIndicatorEngine(cfg *config.Config, log *applogger.Logger) *indicator.Engine {
	return indicator.New(indicator.Config{
		VolumeRatioWindow: cfg.Indicators.VolumeRatioWindow,
		BollWindow:        cfg.Indicators.BollWindow,
		BollMultiplier:    cfg.Indicators.BollMultiplier,
		PositionWindow:    cfg.Indicators.PositionWindow,
		AngleScale:        cfg.Indicators.AngleScale,
	}, log)
}

// ProvideCompleter creates the gap completer from config.
func ProvideCompleter(cfg *config.Config, log *applogger.Logger) *gapfill.Completer {
	return gapfill.New(gapfill.Config{
		Strategy:         gapfill.Strategy(cfg.GapFill.Strategy),
		MaxFillDays:      cfg.GapFill.MaxFillDays,
		QualityThreshold: cfg.GapFill.QualityThreshold,
	}, log)
}

// ProvideScheduler creates the chunk scheduler for indicator rows.
func ProvideScheduler(cfg *config.Config, log *applogger.Logger, m domrepo.Metrics) *chunker.Scheduler[models.IndicatorRecord] {
	return chunker.NewScheduler[models.IndicatorRecord](chunker.Config{
		Workers:      cfg.Pool.Workers,
		ChunkSize:    cfg.Pool.ChunkSize,
		WaveSize:     cfg.Pool.WaveSize,
		ChunkTimeout: cfg.Pool.ChunkTimeout,
		ErrorPolicy:  chunker.ErrorPolicy(cfg.Pool.ErrorPolicy),
		RetryMax:     cfg.Pool.RetryMax,
		RetryBackoff: cfg.Pool.RetryBackoff,
	}, log, m)
}

// ProvideScoringEngine creates the scoring engine from config.
func ProvideScoringEngine(cfg *config.Config, log *applogger.Logger, m domrepo.Metrics) *scoring.Engine {
	return scoring.New(scoring.Config{
		Weights: models.DimensionWeights{
			Trend:     cfg.Scoring.Weights.Trend,
			Capital:   cfg.Scoring.Weights.Capital,
			Technical: cfg.Scoring.Weights.Technical,
			Risk:      cfg.Scoring.Weights.Risk,
		},
		DowntrendAngle:   cfg.Scoring.DowntrendAngle,
		NullRatioWarn:    cfg.Scoring.NullRatioWarn,
		IndustryFactors:  cfg.Scoring.IndustryFactors,
		CapBucketFactors: cfg.Scoring.CapBucketFactors,
	}, log, m)
}

// ProvidePipeline assembles the Pipeline from its stages and the two
// data sources the caller supplies.
func ProvidePipeline(
	cfg *config.Config,
	log *applogger.Logger,
	m domrepo.Metrics,
	completer *gapfill.Completer,
	engine *indicator.Engine,
	scorer *scoring.Engine,
	scheduler *chunker.Scheduler[models.IndicatorRecord],
	sink domrepo.ScoreSink,
	resultCache cache.Service,
	feed domrepo.BarFeed,
	calendar domrepo.CalendarProvider,
	cls domrepo.ClassificationSource,
) *usecase.Pipeline {
	destination := cfg.Sink.Destination
	if destination == "" && cfg.Sink.Type == "clickhouse" {
		destination = cfg.ClickHouse.Database
	}
	return usecase.NewPipeline(usecase.PipelineParams{
		Completer:   completer,
		Engine:      engine,
		Scorer:      scorer,
		Scheduler:   scheduler,
		Feed:        feed,
		Calendar:    calendar,
		Cls:         cls,
		Sink:        sink,
		Metrics:     m,
		Cache:       resultCache,
		CacheTTL:    cfg.Cache.TTL,
		Market:      cfg.Market.Name,
		Destination: destination,
		Names:       cfg.Indicators.DefaultSet,
		Log:         log,
	})
}
