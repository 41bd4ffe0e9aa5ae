package di

import (
	"context"
	"fmt"
	"time"

	domrepo "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/repository"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/service"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/handler/api"
	internalrepo "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/repository"
	icache "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/service/cache"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/services/advisor"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/usecase"
	pkgch "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/clickhouse"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/config"
	xhttp "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/http"
	pkgkafka "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/kafka"
	applogger "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/logger"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/metrics"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/server"

	"github.com/labstack/echo/v4"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const candleTable = "(symbol String, ts DateTime, open Float64, high Float64, low Float64, close Float64, volume Float64) ENGINE=MergeTree ORDER BY (symbol, ts)"
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS scalpbot",
		"CREATE TABLE IF NOT EXISTS scalpbot.candles_1m " + candleTable,
		"CREATE TABLE IF NOT EXISTS scalpbot.candles_5m " + candleTable,
		"CREATE TABLE IF NOT EXISTS scalpbot.candles_15m " + candleTable,
		"CREATE TABLE IF NOT EXISTS scalpbot.candles_1h " + candleTable,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is off.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideHistoryPublisher creates the optimizer audit stream.
func ProvideHistoryPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.HistoryPublisher {
	if producer == nil {
		return internalrepo.NopHistoryPublisher{}
	}
	return internalrepo.NewKafkaHistoryPublisher(producer, cfg.Kafka.Topic)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideCandleStore creates the ClickHouse candle repository.
func ProvideCandleStore(chClient *pkgch.Client, l *applogger.Logger) domrepo.CandleStore {
	store := internalrepo.NewCHCandleStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideAdvisor creates the configured advisor implementation.
func ProvideAdvisor(cfg *config.Config) service.Advisor {
	if cfg.Advisor.Mode == "http" {
		return advisor.NewHTTPAdvisor(cfg.Advisor.URL, cfg.Advisor.Timeout)
	}
	return advisor.NewHeuristic()
}

// ProvideCache creates the report cache, Redis-backed when configured.
func ProvideCache(cfg *config.Config) icache.BytesCache {
	if cfg.Cache.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideBacktestRunner creates the backtest runner use case.
func ProvideBacktestRunner(m domrepo.Metrics, l *applogger.Logger) *usecase.BacktestRunner {
	runner := usecase.NewBacktestRunner(m)
	runner.SetLogger(l)
	return runner
}

// ProvideProgressHub creates the WebSocket fan-out for iteration records.
func ProvideProgressHub(l *applogger.Logger) *api.ProgressHub {
	hub := api.NewProgressHub()
	hub.SetLogger(l)
	return hub
}

// ProvideOptimizer creates the optimizer loop use case.
func ProvideOptimizer(
	runner *usecase.BacktestRunner,
	adv service.Advisor,
	history domrepo.HistoryPublisher,
	m domrepo.Metrics,
	hub *api.ProgressHub,
	l *applogger.Logger,
) *usecase.Optimizer {
	o := usecase.NewOptimizer(runner, adv, history, m)
	o.SetLogger(l)
	o.SetProgress(hub.Broadcast)
	return o
}

// ProvideAnalysisUsecase creates the engine facade.
func ProvideAnalysisUsecase(
	store domrepo.CandleStore,
	runner *usecase.BacktestRunner,
	optimizer *usecase.Optimizer,
	l *applogger.Logger,
) *usecase.AnalysisUsecase {
	uc := usecase.NewAnalysisUsecase(store, runner, optimizer)
	uc.SetLogger(l)
	return uc
}

// compositeHandler registers every handler on one Echo instance.
type compositeHandler []xhttp.Handler

func (h compositeHandler) RegisterRoutes(e *echo.Echo) {
	for _, handler := range h {
		handler.RegisterRoutes(e)
	}
}

// ProvideHTTPHandler assembles the HTTP surface.
func ProvideHTTPHandler(
	uc *usecase.AnalysisUsecase,
	cache icache.BytesCache,
	hub *api.ProgressHub,
	cfg *config.Config,
	l *applogger.Logger,
) xhttp.Handler {
	engine := api.NewEngineEchoHandler(uc)
	engine.SetLogger(l)
	engine.SetCache(cache, cfg.Cache.ReportTTL)
	return compositeHandler{engine, hub}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	history domrepo.HistoryPublisher,
	l *applogger.Logger,
) *server.App {
	return server.New(cfg, handler, chClient, history, l)
}
