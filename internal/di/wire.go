//go:build wireinject
// +build wireinject

package di

import (
	"MomentumScan/internal/usecase"
	"MomentumScan/pkg/config"
	"MomentumScan/pkg/server"

	"github.com/google/wire"
)

// screenSet builds one screening pass and the sinks behind it.
var screenSet = wire.NewSet(
	// Ambient
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,

	// Upstreams
	ProvideBreaker,
	ProvideYahooClient,
	ProvideBytesCache,
	ProvidePriceProvider,
	ProvideUniverse,
	ProvideSentiment,

	// Sinks
	ProvideClickHouseClient,
	ProvideResultStore,
	ProvideReportPublisher,
	ProvideReportCache,

	// Use cases
	ProvideSymbolAnalyzer,
	ProvideBatchScheduler,
	ProvideScreenUseCase,
)

// InitializeApp wires the HTTP API and the cron schedule.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		screenSet,
		ProvideHandler,
		ProvideHTTPServer,
		ProvideScheduler,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeScreen wires a single screening pass for the scan command.
func InitializeScreen(cfg *config.Config) (*usecase.ScreenUseCase, func(), error) {
	wire.Build(screenSet)
	return nil, nil, nil
}
