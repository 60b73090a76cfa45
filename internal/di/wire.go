//go:build wireinject
// +build wireinject

package di

import (
	domrepo "FinRank/internal/domain/repository"
	"FinRank/internal/usecase"
	"FinRank/pkg/config"

	"github.com/google/wire"
)

// InitializePipeline wires up all dependencies and returns the pipeline.
// The bar feed, trading calendar and classification source come from the
// caller: fetching lives outside this module.
func InitializePipeline(
	cfg *config.Config,
	feed domrepo.BarFeed,
	calendar domrepo.CalendarProvider,
	cls domrepo.ClassificationSource,
) (*usecase.Pipeline, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideSink,
		ProvideCache,

		// Stages
		ProvideCompleter,
		ProvideIndicatorEngine,
		ProvideScheduler,
		ProvideScoringEngine,

		ProvidePipeline,
	)
	return nil, nil, nil
}
