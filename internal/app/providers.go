package app

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"vm-transcriber/internal/api/server"
	"vm-transcriber/internal/app/api"
	"vm-transcriber/internal/app/api/openai"
	"vm-transcriber/internal/app/api/openai/whisper"
	"vm-transcriber/internal/app/api/whisper_cpp"
	"vm-transcriber/internal/app/audio"
	"vm-transcriber/internal/app/bot"
	apperrors "vm-transcriber/internal/app/errors"
	"vm-transcriber/internal/app/logging"
	"vm-transcriber/internal/app/metrics"
	"vm-transcriber/internal/app/pipeline"
	"vm-transcriber/internal/app/repository"
	"vm-transcriber/internal/app/repository/mariadb"
	"vm-transcriber/internal/app/repository/memory"
	"vm-transcriber/internal/app/repository/pg"
	"vm-transcriber/internal/app/repository/sqlite"
	"vm-transcriber/internal/app/worker"
	"vm-transcriber/internal/config"
	"vm-transcriber/internal/downloader"
)

func provideLogger(sink *logging.Sink) logging.Logger {
	return sink.Named("vmt")
}

// provideTranscriber selects the remote OpenAI Whisper API or the local
// whisper.cpp binary. Settings validation has already checked the key and paths.
func provideTranscriber(settings *config.Settings, logger logging.Logger) api.Transcriber {
	t := settings.Transcribe
	if t.UseAPI {
		logger.Info("Using remote recognition", zap.String("model", t.APIModel))
		return whisper.NewRemoteTranscriber(openai.NewClient(t.APIKey, t.APIBaseURL), t.APIModel, t.Language)
	}
	logger.Info("Using local recognition", zap.String("binary", t.WhisperBinary), zap.String("model", t.WhisperModel))
	return whisper_cpp.NewLocalTranscriber(t.WhisperBinary, t.WhisperModel, t.Language, logger)
}

// ProvideResultStore opens the durable store for the configured driver. When
// the database is disabled, or unreachable and not required, it returns the
// in-memory store instead.
func ProvideResultStore(ctx context.Context, settings *config.Settings, logger logging.Logger, m *metrics.Metrics) (repository.ResultStore, error) {
	db := settings.Database
	if !db.Enabled {
		logger.Info("Database disabled, using in-memory result store")
		m.SetStoreMode(false)
		return memory.NewStore(), nil
	}

	store, err := openDurable(ctx, db, repository.NewRetryPolicy(db.Retry, logger), logger)
	if err != nil {
		if db.Required {
			return nil, fmt.Errorf("result store %s: %w", db.DSNSummary(), err)
		}
		logger.Warn("Database unreachable, falling back to in-memory result store; records will not survive a restart",
			zap.String("target", db.DSNSummary()),
			zap.Error(err))
		m.SetStoreMode(false)
		return memory.NewStore(), nil
	}

	logger.Info("Connected to result store", zap.String("target", db.DSNSummary()))
	m.SetStoreMode(true)

	if settings.Bot.Development && db.CleanOnStart {
		removed, err := store.Clean(ctx)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		logger.Warn("Cleaned result store on start", zap.Int64("removed", removed))
	}
	return store, nil
}

func openDurable(ctx context.Context, db config.DatabaseSettings, retry *repository.RetryPolicy, logger logging.Logger) (*repository.SQLStore, error) {
	switch db.Driver {
	case pg.DriverName:
		return pg.Open(ctx, db, retry, logger)
	case sqlite.DriverName:
		return sqlite.Open(ctx, db, retry, logger)
	case mariadb.DriverName, "":
		return mariadb.Open(ctx, db, retry, logger)
	default:
		return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "unsupported database driver %q", db.Driver)
	}
}

func provideConverter() pipeline.Converter {
	return audio.NewConverter("", "", audio.ExecRunner{})
}

func provideFetcher() pipeline.Fetcher {
	return downloader.NewAttachmentDownloader(nil)
}

func providePool(settings *config.Settings) *worker.Pool {
	return worker.NewPool(settings.Transcribe.Workers)
}

// provideSession creates the gateway session. It does not connect.
func provideSession(settings *config.Settings) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + settings.Bot.Token)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "create session: %v", err)
	}
	s.Identify.Intents = discordgo.IntentGuildMessages | discordgo.IntentDirectMessages | discordgo.IntentMessageContent
	return s, nil
}

func provideReplier(session *discordgo.Session) pipeline.Replier {
	return bot.NewResponder(session)
}

func providePipeline(
	store repository.ResultStore,
	converter pipeline.Converter,
	backend api.Transcriber,
	replier pipeline.Replier,
	fetcher pipeline.Fetcher,
	pool *worker.Pool,
	m *metrics.Metrics,
	sink *logging.Sink,
	settings *config.Settings,
) *pipeline.Pipeline {
	return pipeline.New(store, converter, backend, replier, fetcher, pool, m, sink.Named("pipeline"),
		pipeline.Options{VoiceMessagesOnly: settings.Transcribe.VoiceMessagesOnly})
}

func provideBot(session *discordgo.Session, p *pipeline.Pipeline, sink *logging.Sink, settings *config.Settings) *bot.Bot {
	return bot.New(session, p, sink.Named("bot"), bot.Options{
		Automatically:  settings.Transcribe.Automatically,
		OwnerID:        settings.Bot.OwnerID,
		TestingGuildID: settings.Bot.TestingGuildID,
		SourceURL:      settings.Bot.SourceURL,
	})
}

// provideAdmin returns nil when the admin server is disabled.
func provideAdmin(settings *config.Settings, store repository.ResultStore, m *metrics.Metrics, sink *logging.Sink) *server.Server {
	if !settings.Admin.Enabled {
		return nil
	}
	return server.NewServer(server.DefaultConfig(settings.Admin.Addr, settings.Bot.Development), store, m.Registry, sink.Named("admin"))
}

// OpenDurableStore opens the configured SQL store without the in-memory
// fallback. Maintenance commands use it.
func OpenDurableStore(ctx context.Context, settings *config.Settings, logger logging.Logger) (*repository.SQLStore, error) {
	db := settings.Database
	if !db.Enabled {
		return nil, apperrors.Wrap(apperrors.ErrConfiguration, "database is disabled")
	}
	return openDurable(ctx, db, repository.NewRetryPolicy(db.Retry, logger), logger)
}
