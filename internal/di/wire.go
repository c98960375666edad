//go:build wireinject
// +build wireinject

package di

import (
	"CoinStrat/internal/services/sources"
	"CoinStrat/internal/usecase"
	"CoinStrat/pkg/config"
	"CoinStrat/pkg/server"

	"github.com/google/wire"
)

// sourceSet builds the series fetch stack shared by every injector.
var sourceSet = wire.NewSet(
	ProvideRedisCache,
	ProvideCache,
	ProvideResponseCache,
	ProvideClickHouseClient,
	ProvidePriceArchive,
	sources.NewClient,
	sources.NewLimiter,
	sources.NewFRED,
	sources.NewBinance,
	sources.NewBlockchain,
	sources.NewBGeometrics,
	ProvideBTC,
	sources.NewRouter,
	ProvideSeriesSource,
)

// coreSet builds the engine and the use cases on top of sourceSet.
var coreSet = wire.NewSet(
	ProvideSignalEngine,
	ProvideBacktester,
	ProvideSignalsUseCase,
	ProvideBacktestUseCase,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		sourceSet,
		ProvideLiveCollector,
		ProvideKafkaProducer,
		ProvideSignalPublisher,
		coreSet,
		usecase.NewSeriesUseCase,
		ProvideRedisQueue,
		ProvideJobDispatcher,
		ProvideKafkaConsumer,
		ProvideKafkaBacktestHandler,
		ProvideAPILimiter,
		ProvideSignalsHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeRuntime wires the engine for one-shot CLI commands.
func InitializeRuntime(cfg *config.Config) (*Runtime, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideCLIMetrics,
		ProvideCLIPublisher,
		ProvideNoLiveCollector,
		sourceSet,
		coreSet,
		ProvideRuntime,
	)
	return nil, nil, nil
}
