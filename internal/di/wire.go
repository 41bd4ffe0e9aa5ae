//go:build wireinject
// +build wireinject

package di

import (
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/config"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories
		ProvideCandleStore,
		ProvideHistoryPublisher,
		ProvideCache,

		// Engine
		ProvideAdvisor,
		ProvideBacktestRunner,
		ProvideProgressHub,
		ProvideOptimizer,
		ProvideAnalysisUsecase,

		// Transport
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
