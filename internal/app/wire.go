//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"vm-transcriber/internal/app/logging"
	"vm-transcriber/internal/app/metrics"
	"vm-transcriber/internal/config"
)

// InitializeApp builds the process from settings. The sink is opened by the
// caller and handed over; App.Shutdown closes it last.
func InitializeApp(ctx context.Context, settings *config.Settings, sink *logging.Sink) (*App, error) {
	wire.Build(
		provideLogger,
		metrics.New,
		provideTranscriber,
		provideSession,
		provideReplier,
		provideConverter,
		provideFetcher,
		providePool,
		ProvideResultStore,
		providePipeline,
		provideBot,
		provideAdmin,
		NewApp,
	)
	return &App{}, nil
}
